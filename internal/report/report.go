// Package report renders decoded ELF headers for people and machines.
package report

import (
	"fmt"
	"io"

	"github.com/ducdatdau/dump-elf/internal/elfparse"
)

// Format names an output format
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Report is one parsed file plus what to show of it
type Report struct {
	Path string
	File *elfparse.File
	Err  error

	ShowHeader   bool
	ShowSegments bool
}

// Renderer writes reports in one output format
type Renderer interface {
	Render(w io.Writer, reports []Report) error
}

// NewRenderer returns the renderer for the named format
func NewRenderer(format string) (Renderer, error) {
	switch Format(format) {
	case FormatText:
		return &TextRenderer{}, nil
	case FormatJSON:
		return &JSONRenderer{Indent: "  "}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
