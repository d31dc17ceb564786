package elfparse_test

import (
	"debug/elf"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducdatdau/dump-elf/internal/bytesource"
	"github.com/ducdatdau/dump-elf/internal/elfparse"
)

// TestParseFile_MatchesDebugELF decodes the running test binary and compares
// every field debug/elf also exposes.
func TestParseFile_MatchesDebugELF(t *testing.T) {
	exe, err := os.Executable()
	require.NoError(t, err)

	ref, err := elf.Open(exe)
	if err != nil {
		t.Skipf("test binary is not ELF on this platform: %v", err)
	}
	defer ref.Close()
	if ref.Class != elf.ELFCLASS64 {
		t.Skip("program headers are only decoded for 64-bit files")
	}

	for _, mode := range bytesource.Modes {
		t.Run(string(mode), func(t *testing.T) {
			file, err := elfparse.NewParser(nil).ParseFile(exe, mode)
			require.NoError(t, err)

			assert.Equal(t, uint8(ref.Class), uint8(file.Ident.Class))
			assert.Equal(t, uint8(ref.Data), uint8(file.Ident.Data))
			assert.Equal(t, uint8(ref.OSABI), uint8(file.Ident.OSABI))
			assert.Equal(t, uint16(ref.Type), file.Header.ObjectType())
			assert.Equal(t, uint16(ref.Machine), file.Header.Machine())
			assert.Equal(t, ref.Entry, file.Header.EntryPoint())

			require.Len(t, file.ProgramHeaders, len(ref.Progs))
			for i, prog := range ref.Progs {
				ph := file.ProgramHeaders[i]
				assert.Equal(t, uint32(prog.Type), uint32(ph.Type), "entry %d type", i)
				assert.Equal(t, uint32(prog.Flags), uint32(ph.Flags), "entry %d flags", i)
				assert.Equal(t, prog.Off, ph.Offset, "entry %d offset", i)
				assert.Equal(t, prog.Vaddr, ph.VAddr, "entry %d vaddr", i)
				assert.Equal(t, prog.Paddr, ph.PAddr, "entry %d paddr", i)
				assert.Equal(t, prog.Filesz, ph.FileSize, "entry %d filesz", i)
				assert.Equal(t, prog.Memsz, ph.MemSize, "entry %d memsz", i)
				assert.Equal(t, prog.Align, ph.Align, "entry %d align", i)
			}
		})
	}
}
