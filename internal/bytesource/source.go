// Package bytesource provides the random-access byte sources the ELF
// decoder reads from: plain files, in-memory buffers and read-only memory
// mappings.
package bytesource

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

// Mode selects how a path is turned into a Source
type Mode string

const (
	ModeFile   Mode = "file"
	ModeMmap   Mode = "mmap"
	ModeMemory Mode = "memory"
)

// Modes lists every supported mode
var Modes = []Mode{ModeFile, ModeMmap, ModeMemory}

// ParseMode parses a mode name case-insensitively
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeFile, "":
		return ModeFile, nil
	case ModeMmap:
		return ModeMmap, nil
	case ModeMemory:
		return ModeMemory, nil
	default:
		return "", fmt.Errorf("unsupported source mode: %s (valid: %v)", s, Modes)
	}
}

// Source is an exclusively owned byte source with length and seek
// capability. Close must be called on every path once parsing is done.
type Source interface {
	io.ReadSeeker
	io.ReaderAt
	io.Closer

	// Name identifies the source in logs and errors
	Name() string

	// Size returns the total number of bytes available
	Size() int64
}

// Open opens path using the given mode
func Open(path string, mode Mode) (Source, error) {
	switch mode {
	case ModeFile, "":
		return OpenFile(path)
	case ModeMmap:
		return OpenMmap(path)
	case ModeMemory:
		return ReadFile(path)
	default:
		return nil, fmt.Errorf("unsupported source mode: %s", mode)
	}
}

// fileSource reads directly from an open file
type fileSource struct {
	*os.File
	size int64
}

// OpenFile opens path for reading
func OpenFile(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}

	return &fileSource{File: f, size: info.Size()}, nil
}

func (s *fileSource) Size() int64 {
	return s.size
}

// memorySource serves bytes held in memory
type memorySource struct {
	*bytes.Reader
	name string
}

// FromBytes wraps b as a Source; Close is a no-op
func FromBytes(name string, b []byte) Source {
	return &memorySource{Reader: bytes.NewReader(b), name: name}
}

// ReadFile loads the whole file into memory
func ReadFile(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return FromBytes(path, data), nil
}

func (s *memorySource) Name() string {
	return s.name
}

func (s *memorySource) Close() error {
	return nil
}
