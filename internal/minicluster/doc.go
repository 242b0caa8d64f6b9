// Package minicluster runs a miniature in-process job-execution cluster.
//
// A Cluster is a coordinator HTTP endpoint plus a fleet of task-manager
// workers sharing a dispatch queue. Jobs submitted to the coordinator are
// recorded in a workspace-local store and executed on free task-manager
// slots. The cluster exists to back the jobenv harness; it is not a general
// purpose scheduler.
package minicluster
