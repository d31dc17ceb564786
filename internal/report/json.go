package report

import (
	"encoding/json"
	"fmt"
	"io"
)

// JSONRenderer writes all reports as one JSON document
type JSONRenderer struct {
	Indent string
}

type jsonDocument struct {
	Files []jsonFile `json:"files"`
}

// jsonFile is one entry of the document. program_headers is null when the
// table was not requested and an empty array when the file has none.
type jsonFile struct {
	Path           string              `json:"path"`
	Ident          *jsonIdent          `json:"ident,omitempty"`
	Header         *jsonHeader         `json:"header,omitempty"`
	ProgramHeaders []jsonProgramHeader `json:"program_headers"`
	Error          string              `json:"error,omitempty"`
}

type jsonIdent struct {
	Class      string `json:"class"`
	Data       string `json:"data"`
	Version    uint8  `json:"version"`
	OSABI      uint8  `json:"os_abi"`
	OSABIName  string `json:"os_abi_name"`
	ABIVersion uint8  `json:"abi_version"`
}

type jsonHeader struct {
	Type                   uint16 `json:"type"`
	Machine                uint16 `json:"machine"`
	Version                uint32 `json:"version"`
	EntryPoint             uint64 `json:"entry_point"`
	ProgramHeaderOffset    uint64 `json:"program_header_offset"`
	SectionHeaderOffset    uint64 `json:"section_header_offset"`
	Flags                  uint32 `json:"flags"`
	HeaderSize             uint16 `json:"header_size"`
	ProgramHeaderEntrySize uint16 `json:"program_header_entry_size"`
	ProgramHeaderCount     uint16 `json:"program_header_count"`
	SectionHeaderEntrySize uint16 `json:"section_header_entry_size"`
	SectionHeaderCount     uint16 `json:"section_header_count"`
	SectionNameIndex       uint16 `json:"section_header_string_index"`
}

type jsonProgramHeader struct {
	Type     uint32 `json:"type"`
	TypeName string `json:"type_name"`
	Flags    uint32 `json:"flags"`
	Perms    string `json:"permissions"`
	Offset   uint64 `json:"offset"`
	VAddr    uint64 `json:"virtual_address"`
	PAddr    uint64 `json:"physical_address"`
	FileSize uint64 `json:"file_size"`
	MemSize  uint64 `json:"memory_size"`
	Align    uint64 `json:"alignment"`
}

// Render encodes reports into a single document
func (r *JSONRenderer) Render(w io.Writer, reports []Report) error {
	doc := jsonDocument{Files: make([]jsonFile, 0, len(reports))}
	for _, rep := range reports {
		doc.Files = append(doc.Files, toJSONFile(rep))
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", r.Indent)
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	return nil
}

func toJSONFile(rep Report) jsonFile {
	out := jsonFile{Path: rep.Path}
	if rep.Err != nil {
		out.Error = rep.Err.Error()
	}

	f := rep.File
	if f == nil {
		return out
	}

	if rep.ShowHeader {
		out.Ident = &jsonIdent{
			Class:      f.Ident.Class.String(),
			Data:       f.Ident.Data.String(),
			Version:    f.Ident.Version,
			OSABI:      uint8(f.Ident.OSABI),
			OSABIName:  f.Ident.OSABI.Name(),
			ABIVersion: f.Ident.ABIVersion,
		}
		if h := f.Header; h != nil {
			out.Header = &jsonHeader{
				Type:                   h.ObjectType(),
				Machine:                h.Machine(),
				Version:                h.HeaderVersion(),
				EntryPoint:             h.EntryPoint(),
				ProgramHeaderOffset:    h.ProgramHeaderOffset(),
				SectionHeaderOffset:    h.SectionHeaderOffset(),
				Flags:                  h.ProcessorFlags(),
				HeaderSize:             h.HeaderSize(),
				ProgramHeaderEntrySize: h.ProgramHeaderEntrySize(),
				ProgramHeaderCount:     h.ProgramHeaderCount(),
				SectionHeaderEntrySize: h.SectionHeaderEntrySize(),
				SectionHeaderCount:     h.SectionHeaderCount(),
				SectionNameIndex:       h.SectionNameIndex(),
			}
		}
	}

	if rep.ShowSegments {
		out.ProgramHeaders = make([]jsonProgramHeader, 0, len(f.ProgramHeaders))
		for _, ph := range f.ProgramHeaders {
			out.ProgramHeaders = append(out.ProgramHeaders, jsonProgramHeader{
				Type:     uint32(ph.Type),
				TypeName: ph.Type.Name(),
				Flags:    uint32(ph.Flags),
				Perms:    ph.Flags.String(),
				Offset:   ph.Offset,
				VAddr:    ph.VAddr,
				PAddr:    ph.PAddr,
				FileSize: ph.FileSize,
				MemSize:  ph.MemSize,
				Align:    ph.Align,
			})
		}
	}

	return out
}
