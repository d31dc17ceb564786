package elfparse

import (
	"errors"
	"fmt"
)

// Structural decode failures. Unknown OS/ABI and segment type codes are not
// errors; they resolve to UnknownName.
var (
	ErrInvalidMagic        = errors.New("invalid ELF magic")
	ErrUnsupportedClass    = errors.New("unsupported ELF class")
	ErrUnsupportedEncoding = errors.New("unsupported ELF data encoding")
	ErrTruncatedHeader     = errors.New("truncated ELF header")
	ErrTruncatedEntry      = errors.New("truncated program header entry")

	// ErrProgramHeaderClass is returned when program header entries are
	// present in a 32-bit object; only the 56-byte Elf64 entry is decoded.
	ErrProgramHeaderClass = errors.New("program headers are only decoded for ELF64")

	// ErrEntrySize is returned when e_phentsize does not match the Elf64
	// program header layout.
	ErrEntrySize = errors.New("unexpected program header entry size")
)

// IdentError reports an identification byte outside the recognised values
type IdentError struct {
	Field string
	Value byte
	Err   error
}

func (e *IdentError) Error() string {
	return fmt.Sprintf("%v: %s byte is %#02x", e.Err, e.Field, e.Value)
}

func (e *IdentError) Unwrap() error {
	return e.Err
}

// EntryError reports a program header entry that could not be decoded.
// Index is the zero-based position of the entry in the table; entries
// before it were decoded successfully.
type EntryError struct {
	Index int
	Want  int
	Got   int
	Err   error
}

func (e *EntryError) Error() string {
	if errors.Is(e.Err, ErrTruncatedEntry) {
		return fmt.Sprintf("program header %d: %v: read %d of %d bytes", e.Index, e.Err, e.Got, e.Want)
	}
	return fmt.Sprintf("program header %d: %v", e.Index, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}
