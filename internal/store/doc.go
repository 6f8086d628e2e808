// Package store provides SQLite-backed durable storage for file revision logs.
//
// The store holds three tables:
//   - file_revisions: the append-only revision log, one row per mutation
//   - pages: the page registry used to resolve slugs for outdating
//   - outdate_jobs: pending derived-state invalidations, one per (kind, page)
//
// # Access Patterns
//
// Content columns of file_revisions are written by InsertRevision only.
// SetHidden is the single update path and touches nothing but the hidden
// column. There is no delete path for revisions.
//
// All ordering uses revision_number, never timestamps. Range reads are
// always returned ORDER BY revision_number ASC.
//
// # Transactions
//
// Every operation runs on a Tx obtained from Store.WithTx or Store.Begin.
// The pool is limited to a single connection, so transactions are fully
// serialized: a writer that commits first advances the head before the
// next transaction reads it.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
