// Package netutil provides network port allocation utilities for jobenv.
//
// PortRegistry hands out kernel-assigned free ports while tracking them in
// process-local state, so two harness instances starting clusters at the same
// time never receive the same port.
package netutil
