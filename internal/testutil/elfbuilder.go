// Package testutil builds synthetic ELF images and fixture files for tests.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ducdatdau/dump-elf/internal/elfparse"
)

// ELFBuilder assembles an ELF image from decoded records using the
// elfparse encoder, so fixtures and decoder share one definition of the
// wire format.
type ELFBuilder struct {
	Ident    elfparse.Ident
	Header   elfparse.Header
	Segments []elfparse.ProgramHeader

	// phnum overrides e_phnum when set; otherwise len(Segments) is used
	phnum *uint16
}

// NewELF64 returns a builder for an x86-64 executable with the program
// header table right after the 64-byte header
func NewELF64(data elfparse.Data) *ELFBuilder {
	return &ELFBuilder{
		Ident: elfparse.Ident{
			Class:   elfparse.Class64,
			Data:    data,
			Version: 1,
		},
		Header: &elfparse.Header64{
			Type:      2,
			Mach:      0x3e,
			Version:   1,
			Entry:     0x401000,
			Phoff:     64,
			Ehsize:    64,
			Phentsize: uint16(elfparse.ProgramHeaderSize),
			Shentsize: 64,
		},
	}
}

// NewELF32 returns a builder for an i386 executable without program headers
func NewELF32(data elfparse.Data) *ELFBuilder {
	return &ELFBuilder{
		Ident: elfparse.Ident{
			Class:   elfparse.Class32,
			Data:    data,
			Version: 1,
		},
		Header: &elfparse.Header32{
			Type:      2,
			Mach:      0x03,
			Version:   1,
			Entry:     0x8048000,
			Phoff:     52,
			Ehsize:    52,
			Phentsize: 32,
			Shentsize: 40,
		},
	}
}

// Header64 returns the 64-bit header for direct field edits, or nil
func (b *ELFBuilder) Header64() *elfparse.Header64 {
	h, _ := b.Header.(*elfparse.Header64)
	return h
}

// Header32 returns the 32-bit header for direct field edits, or nil
func (b *ELFBuilder) Header32() *elfparse.Header32 {
	h, _ := b.Header.(*elfparse.Header32)
	return h
}

// WithOSABI sets the OS/ABI identification byte
func (b *ELFBuilder) WithOSABI(abi elfparse.OSABI) *ELFBuilder {
	b.Ident.OSABI = abi
	return b
}

// WithProgramHeaderCount forces e_phnum regardless of the segments added
func (b *ELFBuilder) WithProgramHeaderCount(n uint16) *ELFBuilder {
	b.phnum = &n
	return b
}

// AddSegment appends a program header entry
func (b *ELFBuilder) AddSegment(ph elfparse.ProgramHeader) *ELFBuilder {
	b.Segments = append(b.Segments, ph)
	return b
}

// Build encodes the image: identification block, primary header, zero
// padding up to e_phoff, then the segments
func (b *ELFBuilder) Build(t testing.TB) []byte {
	t.Helper()

	count := uint16(len(b.Segments))
	if b.phnum != nil {
		count = *b.phnum
	}

	var phoff uint64
	switch h := b.Header.(type) {
	case *elfparse.Header64:
		h.Phnum = count
		phoff = h.Phoff
	case *elfparse.Header32:
		h.Phnum = count
		phoff = uint64(h.Phoff)
	}

	var buf bytes.Buffer
	require.NoError(t, elfparse.EncodeHeader(&buf, b.Ident, b.Header))

	if len(b.Segments) > 0 {
		if pad := int(phoff) - buf.Len(); pad > 0 {
			buf.Write(make([]byte, pad))
		}
		for _, ph := range b.Segments {
			require.NoError(t, elfparse.EncodeProgramHeader(&buf, b.Ident.Data.ByteOrder(), ph))
		}
	}

	return buf.Bytes()
}

// WriteTempFile writes data to name inside a per-test temp directory and
// returns the full path
func WriteTempFile(t testing.TB, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644), "failed to write fixture %s", name)
	return path
}

// LoadSegment returns the LOAD segment used across tests: R+X text at
// 0x400000 covering the first page of the file
func LoadSegment() elfparse.ProgramHeader {
	return elfparse.ProgramHeader{
		Type:     elfparse.SegmentLoad,
		Flags:    elfparse.FlagRead | elfparse.FlagExecute,
		Offset:   0,
		VAddr:    0x400000,
		PAddr:    0x400000,
		FileSize: 0x1000,
		MemSize:  0x1000,
		Align:    0x1000,
	}
}
