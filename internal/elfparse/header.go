package elfparse

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Header is the primary ELF header that follows the identification block.
// Header32 and Header64 are the only implementations; wide fields are
// widened to uint64 by the accessors.
type Header interface {
	Class() Class
	ObjectType() uint16
	Machine() uint16
	HeaderVersion() uint32
	EntryPoint() uint64
	ProgramHeaderOffset() uint64
	SectionHeaderOffset() uint64
	ProcessorFlags() uint32
	HeaderSize() uint16
	ProgramHeaderEntrySize() uint16
	ProgramHeaderCount() uint16
	SectionHeaderEntrySize() uint16
	SectionHeaderCount() uint16
	SectionNameIndex() uint16
}

// Header32 is the Elf32_Ehdr layout without e_ident
type Header32 struct {
	Type      uint16
	Mach      uint16
	Version   uint32
	Entry     uint32
	Phoff     uint32
	Shoff     uint32
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

// Header64 is the Elf64_Ehdr layout without e_ident
type Header64 struct {
	Type      uint16
	Mach      uint16
	Version   uint32
	Entry     uint64
	Phoff     uint64
	Shoff     uint64
	Flags     uint32
	Ehsize    uint16
	Phentsize uint16
	Phnum     uint16
	Shentsize uint16
	Shnum     uint16
	Shstrndx  uint16
}

func (h *Header32) Class() Class                   { return Class32 }
func (h *Header32) ObjectType() uint16             { return h.Type }
func (h *Header32) Machine() uint16                { return h.Mach }
func (h *Header32) HeaderVersion() uint32          { return h.Version }
func (h *Header32) EntryPoint() uint64             { return uint64(h.Entry) }
func (h *Header32) ProgramHeaderOffset() uint64    { return uint64(h.Phoff) }
func (h *Header32) SectionHeaderOffset() uint64    { return uint64(h.Shoff) }
func (h *Header32) ProcessorFlags() uint32         { return h.Flags }
func (h *Header32) HeaderSize() uint16             { return h.Ehsize }
func (h *Header32) ProgramHeaderEntrySize() uint16 { return h.Phentsize }
func (h *Header32) ProgramHeaderCount() uint16     { return h.Phnum }
func (h *Header32) SectionHeaderEntrySize() uint16 { return h.Shentsize }
func (h *Header32) SectionHeaderCount() uint16     { return h.Shnum }
func (h *Header32) SectionNameIndex() uint16       { return h.Shstrndx }

func (h *Header64) Class() Class                   { return Class64 }
func (h *Header64) ObjectType() uint16             { return h.Type }
func (h *Header64) Machine() uint16                { return h.Mach }
func (h *Header64) HeaderVersion() uint32          { return h.Version }
func (h *Header64) EntryPoint() uint64             { return h.Entry }
func (h *Header64) ProgramHeaderOffset() uint64    { return h.Phoff }
func (h *Header64) SectionHeaderOffset() uint64    { return h.Shoff }
func (h *Header64) ProcessorFlags() uint32         { return h.Flags }
func (h *Header64) HeaderSize() uint16             { return h.Ehsize }
func (h *Header64) ProgramHeaderEntrySize() uint16 { return h.Phentsize }
func (h *Header64) ProgramHeaderCount() uint16     { return h.Phnum }
func (h *Header64) SectionHeaderEntrySize() uint16 { return h.Shentsize }
func (h *Header64) SectionHeaderCount() uint16     { return h.Shnum }
func (h *Header64) SectionNameIndex() uint16       { return h.Shstrndx }

// HeaderLayoutSize returns the number of bytes the primary header occupies
// after the identification block, or 0 for an unsupported class.
func HeaderLayoutSize(c Class) int {
	switch c {
	case Class32:
		return binary.Size(&Header32{})
	case Class64:
		return binary.Size(&Header64{})
	default:
		return 0
	}
}

// DecodeHeader reads the primary header layout selected by id.Class.
// r must be positioned right after the identification block.
func DecodeHeader(r io.Reader, id Ident) (Header, error) {
	var hdr Header
	switch id.Class {
	case Class32:
		hdr = &Header32{}
	case Class64:
		hdr = &Header64{}
	default:
		return nil, &IdentError{Field: "class", Value: byte(id.Class), Err: ErrUnsupportedClass}
	}

	size := binary.Size(hdr)
	buf := make([]byte, size)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: %s header needs %d bytes, got %d", ErrTruncatedHeader, id.Class, size, n)
		}
		return nil, fmt.Errorf("failed to read %s header: %w", id.Class, err)
	}

	if err := binary.Read(bytes.NewReader(buf), id.Data.ByteOrder(), hdr); err != nil {
		return nil, fmt.Errorf("failed to decode %s header: %w", id.Class, err)
	}

	return hdr, nil
}

// EncodeHeader writes the identification block followed by the primary
// header in the byte order named by id.Data.
func EncodeHeader(w io.Writer, id Ident, hdr Header) error {
	if hdr == nil {
		return errors.New("nil header")
	}
	if hdr.Class() != id.Class {
		return fmt.Errorf("%w: identification says %s, header layout is %s", ErrUnsupportedClass, id.Class, hdr.Class())
	}

	ident := EncodeIdent(id)
	if _, err := w.Write(ident[:]); err != nil {
		return fmt.Errorf("failed to write identification block: %w", err)
	}

	if err := binary.Write(w, id.Data.ByteOrder(), hdr); err != nil {
		return fmt.Errorf("failed to write %s header: %w", id.Class, err)
	}
	return nil
}
