package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/ducdatdau/dump-elf/internal/elfparse"
)

const labelWidth = 35

// TextRenderer prints the header as a label/value block and the program
// headers as a fixed-width table
type TextRenderer struct{}

// printer remembers the first write error so rendering code stays linear
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *printer) field(label string, value interface{}) {
	p.printf("%-*s %v\n", labelWidth, label, value)
}

// Render writes every report, separated by a blank line
func (r *TextRenderer) Render(w io.Writer, reports []Report) error {
	p := &printer{w: w}

	for i, rep := range reports {
		if i > 0 {
			p.printf("\n")
		}
		if len(reports) > 1 {
			p.printf("File: %s\n\n", rep.Path)
		}

		if rep.File != nil {
			if rep.ShowHeader {
				renderHeader(p, rep.File)
			}
			if rep.ShowSegments && rep.File.Header != nil {
				if rep.ShowHeader {
					p.printf("\n")
				}
				renderSegments(p, rep.File)
			}
		}

		if rep.Err != nil {
			p.printf("Error: %v\n", rep.Err)
		}
	}

	return p.err
}

func renderHeader(p *printer, f *elfparse.File) {
	p.printf("ELF Header:\n")
	p.printf("%s\n", strings.Repeat("=", 45))
	p.field("Class:", f.Ident.Class)
	p.field("Data:", f.Ident.Data)
	p.field("Version:", f.Ident.Version)
	p.field("OS/ABI:", f.Ident.OSABI)

	h := f.Header
	if h == nil {
		return
	}

	p.field("Type:", hex(uint64(h.ObjectType())))
	p.field("Machine:", hex(uint64(h.Machine())))
	p.field("Version:", hex(uint64(h.HeaderVersion())))
	p.field("Entry point address:", hex(h.EntryPoint()))
	p.field("Start of program headers:", hex(h.ProgramHeaderOffset()))
	p.field("Start of section headers:", hex(h.SectionHeaderOffset()))
	p.field("Flags:", hex(uint64(h.ProcessorFlags())))
	p.field("Size of this header:", hex(uint64(h.HeaderSize())))
	p.field("Size of program headers:", hex(uint64(h.ProgramHeaderEntrySize())))
	p.field("Number of program headers:", hex(uint64(h.ProgramHeaderCount())))
	p.field("Size of section headers:", hex(uint64(h.SectionHeaderEntrySize())))
	p.field("Number of section headers:", hex(uint64(h.SectionHeaderCount())))
	p.field("Section header string table index:", hex(uint64(h.SectionNameIndex())))
}

func renderSegments(p *printer, f *elfparse.File) {
	h := f.Header

	p.printf("Program Headers (Offset: %d, Entries: %d):\n", h.ProgramHeaderOffset(), h.ProgramHeaderCount())
	p.printf("%-15s %-10s %-18s %-18s %-10s %-10s %-8s %-10s\n",
		"Type", "Offset", "VirtAddr", "PhysAddr", "FileSize", "MemSize", "Flags", "Align")
	p.printf("%s\n", strings.Repeat("=", 100))

	for _, ph := range f.ProgramHeaders {
		p.printf("%-15s %-10s %-18s %-18s %-10s %-10s %-8s %-10s\n",
			ph.Type.Name(),
			hex(ph.Offset),
			hex(ph.VAddr),
			hex(ph.PAddr),
			hex(ph.FileSize),
			hex(ph.MemSize),
			hex(uint64(ph.Flags)),
			hex(ph.Align),
		)
	}
}

func hex(v uint64) string {
	return fmt.Sprintf("%#x", v)
}
