//go:build !linux

package heuristics

// attachSystemProbes leaves the syscall accessors unset; probes that need
// them report inconclusive on platforms other than Linux and Android.
func attachSystemProbes(env *Environment) {}
