// Package harness runs query-building scenarios against a real session.
//
// A scenario names the field templates to check links against, the engine
// settings, a list of steps a user would take in a query-building UI, and
// assertions on the final state.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	templates: ../templates        # CUE directory or .yaml file, optional
//	collection: users
//	session: s-1                   # fixed session id, optional
//	config:
//	  max_links: 10
//	  default_limit: 10
//	steps:
//	  - op: insert
//	    kind: filter
//	    logical: and
//	    link: [status, equal to, active]
//	    expect: inserted
//	  - op: sort_draft
//	    field: createdAt
//	    direction: descending
//	  - op: insert_sort
//	  - op: compile
//	    query: "?&and[status][$eq]=active&sort[createdAt]=-1&limit=10"
//	assertions:
//	  - type: chain_len
//	    kind: filter
//	    count: 1
//
// Relative template paths are resolved against the scenario file.
//
// # Step Operations
//
//   - insert, delete: dispatch an action directly
//   - filter_draft, sort_draft: edit the drafts
//   - insert_filter, insert_sort: insert a draft
//   - search, commit_search, reset_search: edit and commit free-text search
//   - projection, toggle_projection: edit excluded fields
//   - limit: set the page limit as typed
//   - set_error: flag the drafts as invalid
//   - compile: compile the current state
//
// Steps that insert or delete may carry `expect: <reason>`. A compile step may
// carry `query:` with the expected query string.
//
// # Assertion Types
//
//   - query: the final query string equals `equals`
//   - chain_len: a chain (or all chains of a kind) holds `count` links
//   - reason_count: `reason` occurred `count` times
//   - sentences: the chain sentences equal `lines`
//   - projection: the excluded fields equal `fields`
//   - search_match: `document` matches the committed search iff `match`
//
// # Deterministic Testing
//
// Every run uses a fixed session id and a fresh logical clock, so the trace of
// a scenario is identical across runs and can be compared with a golden file.
// Inside go test use RunWithGolden; elsewhere pass WithGolden to Run.
package harness
