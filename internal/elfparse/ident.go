package elfparse

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Ident is the decoded 16-byte identification block (e_ident)
type Ident struct {
	Class      Class
	Data       Data
	Version    uint8
	OSABI      OSABI
	ABIVersion uint8
	Padding    [7]byte
}

// DecodeIdent reads and validates the identification block.
// It performs exactly one read of IdentSize bytes.
func DecodeIdent(r io.Reader) (Ident, error) {
	var id Ident

	buf := make([]byte, IdentSize)
	n, err := io.ReadFull(r, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return id, fmt.Errorf("failed to read identification block: %w", err)
	}

	// Magic is checked before length so that short non-ELF input still
	// reports the right failure
	if n < len(Magic) || !bytes.Equal(buf[:len(Magic)], Magic[:]) {
		return id, ErrInvalidMagic
	}
	if n < IdentSize {
		return id, fmt.Errorf("%w: identification block needs %d bytes, got %d", ErrTruncatedHeader, IdentSize, n)
	}

	id.Class = Class(buf[identClass])
	if !id.Class.Valid() {
		return id, &IdentError{Field: "class", Value: buf[identClass], Err: ErrUnsupportedClass}
	}

	id.Data = Data(buf[identData])
	if !id.Data.Valid() {
		return id, &IdentError{Field: "data encoding", Value: buf[identData], Err: ErrUnsupportedEncoding}
	}

	id.Version = buf[identVersion]
	id.OSABI = OSABI(buf[identOSABI])
	id.ABIVersion = buf[identABIVersion]
	copy(id.Padding[:], buf[identPadding:])

	return id, nil
}

// EncodeIdent is the inverse of DecodeIdent
func EncodeIdent(id Ident) [IdentSize]byte {
	var buf [IdentSize]byte

	copy(buf[:], Magic[:])
	buf[identClass] = byte(id.Class)
	buf[identData] = byte(id.Data)
	buf[identVersion] = id.Version
	buf[identOSABI] = byte(id.OSABI)
	buf[identABIVersion] = id.ABIVersion
	copy(buf[identPadding:], id.Padding[:])

	return buf
}
