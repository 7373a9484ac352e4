//go:build !windows

// pkg/debugdump/lock_unix.go
package debugdump

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockFile acquires an exclusive lock on f for the duration of a write.
// Returns ErrLogBusy if another process already holds it.
func lockFile(f *os.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if err != nil {
		if err == unix.EWOULDBLOCK {
			return ErrLogBusy
		}
		return err
	}
	return nil
}

// unlockFile releases the lock taken by lockFile.
func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
