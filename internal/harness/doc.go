// Package harness runs revision lifecycle scenarios.
//
// Scenarios are YAML files describing pages, a flow of lifecycle operations
// with their expected outcomes, and assertions on the resulting histories.
// Each scenario executes against a fresh in-memory SQLite store with a
// deterministic clock, so the history it produces can be compared
// byte-for-byte against a golden snapshot.
//
// # Scenario Format
//
//	name: upload_and_restore
//	description: "A file survives deletion and comes back under a new name"
//	pages:
//	  - { page_id: 10, slug: start }
//	flow:
//	  - op: create
//	    file: logo
//	    page: 10
//	    name: logo.png
//	    blob: { hash: "0a0b", size: 512, mime: image/png }
//	  - op: delete
//	    file: logo
//	  - op: restore
//	    file: logo
//	    name: logo-old.png
//	  - op: update
//	    file: logo
//	    token: stale
//	    name: other.png
//	    expect: CONFLICT
//	assertions:
//	  - type: history
//	    file: logo
//	    types: [create, delete, undelete]
//	  - type: count
//	    file: logo
//	    count: 3
//
// # Operations
//
//   - create: first revision; requires page, name and blob
//   - update: partial edit; name, new_page, blob and licensing are optional
//   - delete: tombstone
//   - restore: resurrection; new_page and name are optional
//   - hide: redact revision number `revision` with the `hidden` field set
//
// Every step may set `expect` to ok (the default), noop, or an error code
// such as CONFLICT or CANNOT_HIDE_LATEST_REVISION. `token: stale` passes the
// id of the revision before the head as the optimistic lock token.
//
// # Assertion Types
//
//   - history: revision types (and optionally change sets) in order
//   - count: number of revisions
//   - absent: the file is not reachable at `page`
//   - outdated: an outdate job of `kind` exists for `page`
//   - hidden: the hidden field set of revision number `revision`
package harness
