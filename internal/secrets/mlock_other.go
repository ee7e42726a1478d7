//go:build !linux && !darwin

package secrets

func lockMemory(b []byte) {}

func unlockMemory(b []byte) {}
