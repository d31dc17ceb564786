// Package elfparse decodes the ELF identification block, the primary
// header and the program header table.
//
// Decoding is strictly sequential: the identification block selects the
// class and byte order, the primary header selects where the program
// header table lives, and the table is then read entry by entry. All
// results are plain values built fresh on every parse.
package elfparse

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ducdatdau/dump-elf/internal/bytesource"
	"github.com/ducdatdau/dump-elf/internal/utils"
)

// File is everything decoded from one ELF object
type File struct {
	Ident          Ident
	Header         Header
	ProgramHeaders []ProgramHeader
}

// Parser runs the three decoding stages and logs their progress
type Parser struct {
	log *logrus.Entry
}

// NewParser creates a parser; a nil logger discards all output
func NewParser(logger *utils.Logger) *Parser {
	if logger == nil {
		logger = utils.NewDiscardLogger()
	}
	return &Parser{log: logger.WithComponent("elfparse")}
}

// Parse decodes src from its first byte.
//
// On failure the returned File holds whatever was decoded before the
// failing stage and is nil only when the identification block itself is
// invalid. A truncated program header table yields the entries read so
// far together with an *EntryError.
func (p *Parser) Parse(src io.ReadSeeker) (*File, error) {
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to start: %w", err)
	}

	id, err := DecodeIdent(src)
	if err != nil {
		return nil, err
	}
	p.log.WithFields(logrus.Fields{
		"class":    id.Class.String(),
		"encoding": id.Data.String(),
		"os_abi":   id.OSABI.String(),
	}).Debug("Decoded identification block")

	file := &File{Ident: id}

	hdr, err := DecodeHeader(src, id)
	if err != nil {
		return file, err
	}
	file.Header = hdr
	p.log.WithFields(logrus.Fields{
		"phoff":     hdr.ProgramHeaderOffset(),
		"phentsize": hdr.ProgramHeaderEntrySize(),
		"phnum":     hdr.ProgramHeaderCount(),
	}).Debug("Decoded primary header")

	phdrs, err := DecodeProgramHeaders(src, id, hdr)
	file.ProgramHeaders = phdrs
	if err != nil {
		var entryErr *EntryError
		if errors.As(err, &entryErr) {
			p.log.WithField("index", entryErr.Index).Debugf("Program header table ended early after %d entries", len(phdrs))
		}
		return file, err
	}
	p.log.WithField("entries", len(phdrs)).Debug("Decoded program header table")

	return file, nil
}

// ParseFile opens path with the given source mode and parses it. The
// source is closed before returning, whatever the outcome.
func (p *Parser) ParseFile(path string, mode bytesource.Mode) (file *File, err error) {
	src, err := bytesource.Open(path, mode)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	p.log.WithFields(logrus.Fields{
		"path": src.Name(),
		"size": src.Size(),
		"mode": string(mode),
	}).Debug("Opened byte source")

	return p.Parse(src)
}
