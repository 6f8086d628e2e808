// Package revision implements the file revision log: an append-only,
// numbered history of mutations to a file attached to a page.
//
// A mutation enters through one of the lifecycle operations on Service:
//
//	CreateFirst         no head yet        -> revision 0, type create
//	CreateUpdate        live head          -> type update (only if something changed)
//	CreateTombstone     live head          -> type delete, snapshot carried forward
//	CreateResurrection  tombstoned head    -> type undelete, may move or rename
//	HideRevision        any non-head       -> hidden set replaced, nothing else
//
// Each mutating call carries the revision id the caller last read. The head
// is re-read inside the caller's transaction and a mismatch is a Conflict,
// so two editors racing from the same token cannot both land a revision.
//
// On every content-affecting transition the Outdater is notified before the
// row is inserted. An Outdater failure fails the whole mutation; the caller's
// transaction is expected to roll back.
//
// The service holds no locks, runs no background work and keeps no state
// between calls. All shared state lives behind the Scope collaborators.
package revision
