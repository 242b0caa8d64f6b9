// Package jobstore persists job records for a running cluster.
//
// The store lives in the harness workspace as a SQLite database and is
// removed together with the workspace on release. It exists so the
// coordinator can answer status queries for jobs that already left the
// dispatch queue, and so tests can inspect execution history.
package jobstore
