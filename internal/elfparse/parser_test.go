package elfparse_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducdatdau/dump-elf/internal/bytesource"
	"github.com/ducdatdau/dump-elf/internal/elfparse"
	"github.com/ducdatdau/dump-elf/internal/testutil"
	"github.com/ducdatdau/dump-elf/internal/utils"
)

func sampleELF(t *testing.T) []byte {
	t.Helper()

	return testutil.NewELF64(elfparse.DataLittle).
		WithOSABI(0x03).
		AddSegment(elfparse.ProgramHeader{Type: elfparse.SegmentPhdr, Flags: elfparse.FlagRead, Offset: 64, VAddr: 0x400040, PAddr: 0x400040, FileSize: 0xa8, MemSize: 0xa8, Align: 8}).
		AddSegment(testutil.LoadSegment()).
		AddSegment(elfparse.ProgramHeader{Type: elfparse.SegmentGNUStack, Flags: elfparse.FlagRead | elfparse.FlagWrite, Align: 0x10}).
		Build(t)
}

func TestParser_Parse(t *testing.T) {
	parser := elfparse.NewParser(nil)

	file, err := parser.Parse(bytes.NewReader(sampleELF(t)))
	require.NoError(t, err)
	require.NotNil(t, file)

	assert.Equal(t, elfparse.Class64, file.Ident.Class)
	assert.Equal(t, "Linux", file.Ident.OSABI.Name())
	assert.Equal(t, uint16(3), file.Header.ProgramHeaderCount())
	require.Len(t, file.ProgramHeaders, 3)
	assert.Equal(t, []string{"PHDR", "LOAD", "GNU_STACK"}, []string{
		file.ProgramHeaders[0].Type.Name(),
		file.ProgramHeaders[1].Type.Name(),
		file.ProgramHeaders[2].Type.Name(),
	})
}

func TestParser_ParseRewinds(t *testing.T) {
	parser := elfparse.NewParser(nil)
	r := bytes.NewReader(sampleELF(t))

	first, err := parser.Parse(r)
	require.NoError(t, err)

	// The reader is left past the table; a second parse must start over
	second, err := parser.Parse(r)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestParser_ParseFailures(t *testing.T) {
	parser := elfparse.NewParser(nil)

	t.Run("invalid magic returns no file", func(t *testing.T) {
		file, err := parser.Parse(bytes.NewReader([]byte("not an elf file at all")))
		assert.ErrorIs(t, err, elfparse.ErrInvalidMagic)
		assert.Nil(t, file)
	})

	t.Run("truncated header keeps ident", func(t *testing.T) {
		file, err := parser.Parse(bytes.NewReader(sampleELF(t)[:40]))
		assert.ErrorIs(t, err, elfparse.ErrTruncatedHeader)
		require.NotNil(t, file)
		assert.Equal(t, elfparse.Class64, file.Ident.Class)
		assert.Nil(t, file.Header)
	})

	t.Run("truncated table keeps decoded entries", func(t *testing.T) {
		data := sampleELF(t)
		file, err := parser.Parse(bytes.NewReader(data[:64+56+20]))
		assert.ErrorIs(t, err, elfparse.ErrTruncatedEntry)
		require.NotNil(t, file)
		require.NotNil(t, file.Header)
		require.Len(t, file.ProgramHeaders, 1)
		assert.Equal(t, elfparse.SegmentPhdr, file.ProgramHeaders[0].Type)
	})

	t.Run("truncated in first entry returns zero entries", func(t *testing.T) {
		data := sampleELF(t)
		file, err := parser.Parse(bytes.NewReader(data[:64+10]))
		assert.ErrorIs(t, err, elfparse.ErrTruncatedEntry)
		require.NotNil(t, file)
		assert.Empty(t, file.ProgramHeaders)
	})
}

func TestParser_ParseFileModes(t *testing.T) {
	path := testutil.WriteTempFile(t, "sample.elf", sampleELF(t))
	parser := elfparse.NewParser(nil)

	for _, mode := range bytesource.Modes {
		t.Run(string(mode), func(t *testing.T) {
			file, err := parser.ParseFile(path, mode)
			require.NoError(t, err)
			require.Len(t, file.ProgramHeaders, 3)
			assert.Equal(t, testutil.LoadSegment(), file.ProgramHeaders[1])
		})
	}
}

func TestParser_ParseFileErrors(t *testing.T) {
	parser := elfparse.NewParser(nil)

	_, err := parser.ParseFile(filepath.Join(t.TempDir(), "missing"), bytesource.ModeFile)
	assert.Error(t, err)

	path := testutil.WriteTempFile(t, "short.elf", []byte{0x7f, 'E', 'L', 'F'})
	for _, mode := range bytesource.Modes {
		_, err := parser.ParseFile(path, mode)
		assert.ErrorIs(t, err, elfparse.ErrTruncatedHeader, "mode %s", mode)
	}

	empty := testutil.WriteTempFile(t, "empty", nil)
	for _, mode := range bytesource.Modes {
		_, err := parser.ParseFile(empty, mode)
		assert.ErrorIs(t, err, elfparse.ErrInvalidMagic, "mode %s", mode)
	}
}

func TestParser_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := utils.NewLogger(utils.LoggerConfig{
		Level:  utils.LogLevelDebug,
		Format: utils.LogFormatText,
		Output: &buf,
	})

	_, err := elfparse.NewParser(logger).Parse(bytes.NewReader(sampleELF(t)))
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "component=elfparse")
	assert.Contains(t, output, "Decoded identification block")
	assert.Contains(t, output, "phnum=3")
	assert.Contains(t, output, "entries=3")
}

func TestParser_ParseFileOnRealBinary(t *testing.T) {
	exe, err := os.Executable()
	require.NoError(t, err)

	f, err := os.Open(exe)
	require.NoError(t, err)
	magic := make([]byte, 4)
	_, err = f.Read(magic)
	f.Close()
	require.NoError(t, err)
	if !bytes.Equal(magic, elfparse.Magic[:]) {
		t.Skip("test binary is not ELF on this platform")
	}

	file, err := elfparse.NewParser(nil).ParseFile(exe, bytesource.ModeFile)
	if file != nil && file.Ident.Class == elfparse.Class32 {
		assert.ErrorIs(t, err, elfparse.ErrProgramHeaderClass)
		return
	}
	require.NoError(t, err)
	assert.NotEmpty(t, file.ProgramHeaders)

	var sawLoad bool
	for _, ph := range file.ProgramHeaders {
		if ph.Type == elfparse.SegmentLoad {
			sawLoad = true
		}
	}
	assert.True(t, sawLoad, "an executable must have a LOAD segment")
}
