// Package paging drives paginated remote lists.
//
// A Controller fetches pages through an injected Fetcher, merges them into a
// growing list and publishes immutable State snapshots to observers. Only one
// fetch runs per controller at a time; a Refresh supersedes any fetch still in
// flight, and results from superseded fetches are discarded.
package paging
