//go:build !unix

package linhash

import (
	"fmt"
	"os"
)

// fileLock on non-unix platforms is a best-effort stand-in: it simply
// holds the file open. Advisory locking there would need a separate
// syscall family (LockFileEx); out of scope for this module.
type fileLock struct {
	file *os.File
}

var ErrAlreadyLocked = fmt.Errorf("linhash: data file is already locked by another process")

func lockFile(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o664)
	if err != nil {
		return nil, err
	}
	return &fileLock{file: f}, nil
}

func (l *fileLock) unlock() error {
	return l.file.Close()
}
