//go:build linux || darwin

package secrets

import "golang.org/x/sys/unix"

// lockMemory keeps b out of swap. Failure (e.g. RLIMIT_MEMLOCK) is ignored.
func lockMemory(b []byte) { _ = unix.Mlock(b) }

func unlockMemory(b []byte) { _ = unix.Munlock(b) }
