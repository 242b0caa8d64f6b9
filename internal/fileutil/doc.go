// Package fileutil provides file operation utilities for directory management.
//
// EnsureDir creates directories recursively and RemoveDir deletes directory
// trees. These are used throughout jobenv for preparing and tearing down
// workspace scratch directories.
package fileutil
