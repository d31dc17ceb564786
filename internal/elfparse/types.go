package elfparse

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// UnknownName is the label reported for codes missing from a lookup table
const UnknownName = "UNKNOWN"

// Identification block layout
const (
	IdentSize = 16

	identClass      = 4
	identData       = 5
	identVersion    = 6
	identOSABI      = 7
	identABIVersion = 8
	identPadding    = 9
)

// Magic is the signature every ELF object starts with
var Magic = [4]byte{0x7F, 'E', 'L', 'F'}

// Class identifies the width of addresses and offsets (EI_CLASS)
type Class uint8

const (
	ClassNone Class = 0
	Class32   Class = 1
	Class64   Class = 2
)

// Valid reports whether the class selects one of the two header layouts
func (c Class) Valid() bool {
	return c == Class32 || c == Class64
}

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "NONE"
	case Class32:
		return "ELF32"
	case Class64:
		return "ELF64"
	default:
		return fmt.Sprintf("%s(%d)", UnknownName, uint8(c))
	}
}

// Data identifies the byte order of multi-byte fields (EI_DATA)
type Data uint8

const (
	DataNone   Data = 0
	DataLittle Data = 1
	DataBig    Data = 2
)

// Valid reports whether the encoding is little or big endian
func (d Data) Valid() bool {
	return d == DataLittle || d == DataBig
}

// ByteOrder returns the binary.ByteOrder matching the encoding.
// Invalid encodings fall back to little endian; callers are expected to
// have validated the identification block first.
func (d Data) ByteOrder() binary.ByteOrder {
	if d == DataBig {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func (d Data) String() string {
	switch d {
	case DataNone:
		return "NONE"
	case DataLittle:
		return "Little Endian"
	case DataBig:
		return "Big Endian"
	default:
		return fmt.Sprintf("%s(%d)", UnknownName, uint8(d))
	}
}

// OSABI identifies the target operating system ABI (EI_OSABI)
type OSABI uint8

var osabiNames = map[OSABI]string{
	0x00: "System V",
	0x01: "HP-UX",
	0x02: "NetBSD",
	0x03: "Linux",
	0x04: "GNU Hurd",
	0x06: "Solaris",
	0x07: "AIX",
	0x08: "IRIX",
	0x09: "FreeBSD",
	0x0A: "Tru64",
	0x0B: "Novell Modesto",
	0x0C: "OpenBSD",
	0x0D: "OpenVMS",
	0x0E: "NonStop Kernel",
	0x0F: "AROS",
	0x10: "FenixOS",
	0x11: "Nuxi CloudABI",
	0x12: "Stratus Technologies OpenVOS",
}

// Known reports whether the code has an entry in the OS/ABI table
func (a OSABI) Known() bool {
	_, ok := osabiNames[a]
	return ok
}

// Name returns the table name, or UnknownName for unmapped codes
func (a OSABI) Name() string {
	if name, ok := osabiNames[a]; ok {
		return name
	}
	return UnknownName
}

// String is like Name but keeps the raw code for unmapped values
func (a OSABI) String() string {
	if name, ok := osabiNames[a]; ok {
		return name
	}
	return fmt.Sprintf("%s(%#02x)", UnknownName, uint8(a))
}

// SegmentType is the p_type field of a program header
type SegmentType uint32

const (
	SegmentNull       SegmentType = 0
	SegmentLoad       SegmentType = 1
	SegmentDynamic    SegmentType = 2
	SegmentInterp     SegmentType = 3
	SegmentNote       SegmentType = 4
	SegmentShlib      SegmentType = 5
	SegmentPhdr       SegmentType = 6
	SegmentTLS        SegmentType = 7
	SegmentGNUEHFrame SegmentType = 0x6474e550
	SegmentGNUStack   SegmentType = 0x6474e551
	SegmentGNURelRO   SegmentType = 0x6474e552
)

var segmentNames = map[SegmentType]string{
	SegmentNull:       "NULL",
	SegmentLoad:       "LOAD",
	SegmentDynamic:    "DYNAMIC",
	SegmentInterp:     "INTERP",
	SegmentNote:       "NOTE",
	SegmentShlib:      "SHLIB",
	SegmentPhdr:       "PHDR",
	SegmentTLS:        "TLS",
	SegmentGNUEHFrame: "GNU_EH_FRAME",
	SegmentGNUStack:   "GNU_STACK",
	SegmentGNURelRO:   "GNU_RELRO",
}

// Known reports whether the type has an entry in the segment type table
func (t SegmentType) Known() bool {
	_, ok := segmentNames[t]
	return ok
}

// Name returns the table name, or UnknownName for unmapped types
func (t SegmentType) Name() string {
	if name, ok := segmentNames[t]; ok {
		return name
	}
	return UnknownName
}

func (t SegmentType) String() string {
	if name, ok := segmentNames[t]; ok {
		return name
	}
	return fmt.Sprintf("%s(%#x)", UnknownName, uint32(t))
}

// SegmentFlag holds the p_flags permission bits of a program header
type SegmentFlag uint32

const (
	FlagExecute SegmentFlag = 0x1
	FlagWrite   SegmentFlag = 0x2
	FlagRead    SegmentFlag = 0x4
)

// String renders the permission bits readelf style, e.g. "R E"
func (f SegmentFlag) String() string {
	var sb strings.Builder
	sb.WriteByte(flagLetter(f&FlagRead != 0, 'R'))
	sb.WriteByte(flagLetter(f&FlagWrite != 0, 'W'))
	sb.WriteByte(flagLetter(f&FlagExecute != 0, 'E'))
	return sb.String()
}

func flagLetter(set bool, letter byte) byte {
	if set {
		return letter
	}
	return ' '
}
