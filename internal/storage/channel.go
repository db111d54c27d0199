package storage

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ByteChannel is the minimum contract the map core needs from a
// seekable random-access store: byte-granular reads and writes, an
// exact logical size, and the ability to extend the store by writing
// past its current end. The map opens two independent
// channels: one for the data file, one for the free-space map file.
type ByteChannel interface {
	// ReadAt fills p with the bytes starting at off. Any part of p that
	// lies past Size() is zero-filled rather than failing, mirroring a
	// sparse file, so a short read is not reported as an error; other
	// failures of the underlying store are.
	ReadAt(off int64, p []byte) error

	// WriteAt writes p at off, extending the channel (zero-filling any
	// gap) if off+len(p) exceeds the current size.
	WriteAt(off int64, p []byte) error

	// Size returns the current logical length of the channel.
	Size() (int64, error)

	// Truncate sets the logical length of the channel to n.
	Truncate(n int64) error

	// Close releases any resources held by the channel.
	Close() error
}

// FileChannel is a ByteChannel backed by an *os.File.
type FileChannel struct {
	mu   sync.Mutex
	file *os.File
}

var _ ByteChannel = (*FileChannel)(nil)

// OpenFileChannel opens (creating if necessary) the file at path for
// random-access reads and writes.
func OpenFileChannel(path string) (*FileChannel, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o664)
	if err != nil {
		return nil, &IoError{Op: "open " + path, Err: err}
	}
	return &FileChannel{file: f}, nil
}

func (c *FileChannel) ReadAt(off int64, p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, err := c.file.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return &IoError{Op: "read", Err: err}
	}
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return nil
}

func (c *FileChannel) WriteAt(off int64, p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, err := c.file.WriteAt(p, off)
	if err != nil {
		return &IoError{Op: "write", Err: err}
	}
	if n != len(p) {
		return &IoError{Op: "write", Err: io.ErrShortWrite}
	}
	return nil
}

func (c *FileChannel) Size() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	info, err := c.file.Stat()
	if err != nil {
		return 0, &IoError{Op: "stat", Err: err}
	}
	return info.Size(), nil
}

func (c *FileChannel) Truncate(n int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.file.Truncate(n); err != nil {
		return &IoError{Op: "truncate", Err: err}
	}
	return nil
}

func (c *FileChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.file.Close(); err != nil {
		return &IoError{Op: "close", Err: err}
	}
	return nil
}

// MemChannel is an in-memory ByteChannel, used by tests that want fast,
// deterministic round-trips without touching the filesystem.
type MemChannel struct {
	mu   sync.Mutex
	data []byte
}

var _ ByteChannel = (*MemChannel)(nil)

func NewMemChannel() *MemChannel { return &MemChannel{} }

func (c *MemChannel) ReadAt(off int64, p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if off < 0 {
		return &IoError{Op: "read", Err: fmt.Errorf("negative offset %d", off)}
	}
	n := copy(p, c.sliceFrom(off))
	for i := n; i < len(p); i++ {
		p[i] = 0
	}
	return nil
}

func (c *MemChannel) sliceFrom(off int64) []byte {
	if off >= int64(len(c.data)) {
		return nil
	}
	return c.data[off:]
}

func (c *MemChannel) WriteAt(off int64, p []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if off < 0 {
		return &IoError{Op: "write", Err: fmt.Errorf("negative offset %d", off)}
	}
	end := off + int64(len(p))
	if end > int64(len(c.data)) {
		grown := make([]byte, end)
		copy(grown, c.data)
		c.data = grown
	}
	copy(c.data[off:end], p)
	return nil
}

func (c *MemChannel) Size() (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.data)), nil
}

func (c *MemChannel) Truncate(n int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n <= int64(len(c.data)) {
		c.data = c.data[:n]
		return nil
	}
	grown := make([]byte, n)
	copy(grown, c.data)
	c.data = grown
	return nil
}

func (c *MemChannel) Close() error { return nil }
