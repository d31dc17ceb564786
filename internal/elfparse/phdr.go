package elfparse

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ProgramHeader is one Elf64_Phdr entry. The field order is the wire order.
type ProgramHeader struct {
	Type     SegmentType
	Flags    SegmentFlag
	Offset   uint64
	VAddr    uint64
	PAddr    uint64
	FileSize uint64
	MemSize  uint64
	Align    uint64
}

// ProgramHeaderSize is the size of the only program header layout decoded
var ProgramHeaderSize = binary.Size(&ProgramHeader{})

// DecodeProgramHeaders decodes the program header table described by hdr.
//
// The table is read from hdr.ProgramHeaderOffset() as ProgramHeaderCount()
// contiguous blocks of ProgramHeaderEntrySize() bytes. When an entry cannot
// be read the entries decoded so far are returned along with an
// *EntryError naming the failing index.
func DecodeProgramHeaders(r io.ReadSeeker, id Ident, hdr Header) ([]ProgramHeader, error) {
	count := int(hdr.ProgramHeaderCount())
	if count == 0 {
		return []ProgramHeader{}, nil
	}

	if hdr.Class() != Class64 {
		return nil, fmt.Errorf("%w: file class is %s", ErrProgramHeaderClass, hdr.Class())
	}

	entSize := int(hdr.ProgramHeaderEntrySize())
	if entSize != ProgramHeaderSize {
		return nil, fmt.Errorf("%w: e_phentsize is %d, want %d", ErrEntrySize, entSize, ProgramHeaderSize)
	}

	offset := hdr.ProgramHeaderOffset()
	if offset > math.MaxInt64 {
		return nil, &EntryError{Index: 0, Want: entSize, Err: fmt.Errorf("%w: table offset %#x is out of range", ErrTruncatedEntry, offset)}
	}
	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to program header table at %#x: %w", offset, err)
	}

	order := id.Data.ByteOrder()
	headers := make([]ProgramHeader, 0, count)
	buf := make([]byte, entSize)

	for i := 0; i < count; i++ {
		n, err := io.ReadFull(r, buf)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				err = ErrTruncatedEntry
			}
			return headers, &EntryError{Index: i, Want: entSize, Got: n, Err: err}
		}

		var ph ProgramHeader
		if err := binary.Read(bytes.NewReader(buf), order, &ph); err != nil {
			return headers, &EntryError{Index: i, Want: entSize, Got: n, Err: err}
		}
		headers = append(headers, ph)
	}

	return headers, nil
}

// EncodeProgramHeader writes ph in the Elf64_Phdr layout
func EncodeProgramHeader(w io.Writer, order binary.ByteOrder, ph ProgramHeader) error {
	if err := binary.Write(w, order, &ph); err != nil {
		return fmt.Errorf("failed to write program header: %w", err)
	}
	return nil
}
