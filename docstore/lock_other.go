//go:build !darwin && !dragonfly && !freebsd && !linux && !netbsd && !openbsd && !windows

package docstore

import "os"

// no OS file locking, only the in-process lock applies

func tryLockFile(f *os.File, exclusive bool) error {
	return nil
}

func unlockFile(f *os.File) error {
	return nil
}

func isBusyError(err error) bool {
	return false
}
