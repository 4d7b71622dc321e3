//go:build linux

package heuristics

import (
	"golang.org/x/sys/unix"
)

// attachSystemProbes wires the syscalls a live Linux or Android system offers
func attachSystemProbes(env *Environment) {
	env.Writable = func(path string) bool {
		return unix.Access(path, unix.W_OK) == nil
	}

	env.MountWritable = func(path string) (bool, error) {
		var st unix.Statfs_t
		if err := unix.Statfs(path, &st); err != nil {
			return false, err
		}
		return st.Flags&unix.ST_RDONLY == 0, nil
	}

	env.KernelRelease = func() (string, error) {
		var u unix.Utsname
		if err := unix.Uname(&u); err != nil {
			return "", err
		}
		return unix.ByteSliceToString(u.Release[:]), nil
	}
}
