//go:build unix

package linhash

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// fileLock is an advisory, non-blocking flock(2) guard taken on the
// data file by OpenFile. It is not part of the on-disk format and gives
// no transactional guarantees (contrast the reader-slot lock files used
// by MVCC engines). It only turns a silent second-writer race into an
// immediate, loud error instead of letting two writers corrupt the
// same file.
type fileLock struct {
	file *os.File
}

// ErrAlreadyLocked is returned by OpenFile when another process already
// holds the advisory lock on the data file.
var ErrAlreadyLocked = fmt.Errorf("linhash: data file is already locked by another process")

func lockFile(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o664)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()
		if err == unix.EWOULDBLOCK {
			return nil, ErrAlreadyLocked
		}
		return nil, err
	}
	return &fileLock{file: f}, nil
}

func (l *fileLock) unlock() error {
	if err := unix.Flock(int(l.file.Fd()), unix.LOCK_UN); err != nil {
		_ = l.file.Close()
		return err
	}
	return l.file.Close()
}
