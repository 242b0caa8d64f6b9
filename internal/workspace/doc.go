// Package workspace manages the scratch directory owned by a single harness.
//
// A Workspace is created at acquisition and deleted at release. An exclusive
// file lock inside the directory guards against a second process reusing the
// same scratch space, e.g. when a CI runner shares a base directory across
// concurrently executing test binaries.
package workspace
