//go:build linux || darwin || freebsd || netbsd || openbsd

package bytesource

import (
	"bytes"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

// mmapSource serves a read-only private mapping of a file
type mmapSource struct {
	*bytes.Reader
	name string
	data []byte
	once sync.Once
	err  error
}

// OpenMmap maps path read-only. The file descriptor is closed once the
// mapping exists; the mapping is released by Close.
func OpenMmap(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	// mmap rejects zero-length mappings
	size := info.Size()
	if size == 0 {
		return FromBytes(path, nil), nil
	}
	if int64(int(size)) != size {
		return nil, fmt.Errorf("%s is too large to map (%d bytes)", path, size)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("failed to mmap %s: %w", path, err)
	}

	return &mmapSource{
		Reader: bytes.NewReader(data),
		name:   path,
		data:   data,
	}, nil
}

func (s *mmapSource) Name() string {
	return s.name
}

func (s *mmapSource) Close() error {
	s.once.Do(func() {
		// Drop the reader first so nothing touches the mapping afterwards
		s.Reader = bytes.NewReader(nil)
		if err := unix.Munmap(s.data); err != nil {
			s.err = fmt.Errorf("failed to unmap %s: %w", s.name, err)
		}
		s.data = nil
	})
	return s.err
}
