// Package model provides the plain data records shared by the revision log.
//
// This package contains type definitions only. All other internal packages
// import model; model imports nothing internal.
//
// Key design constraints:
//   - Revisions hold full snapshots, never deltas
//   - Change and hidden sets are ordered by the fixed field vocabulary
//   - Licensing metadata is compared through RFC 8785 canonical JSON
//   - No floats in licensing metadata (canonical form forbids them)
//   - All JSON tags use snake_case
package model
