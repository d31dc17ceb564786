package batch_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ducdatdau/dump-elf/internal/batch"
	"github.com/ducdatdau/dump-elf/internal/bytesource"
	"github.com/ducdatdau/dump-elf/internal/elfparse"
	"github.com/ducdatdau/dump-elf/internal/testutil"
	"github.com/ducdatdau/dump-elf/internal/utils"
)

// recordingParser remembers which paths and modes it was asked for
type recordingParser struct {
	inner *elfparse.Parser
	paths []string
	modes []bytesource.Mode
}

func (p *recordingParser) ParseFile(path string, mode bytesource.Mode) (*elfparse.File, error) {
	p.paths = append(p.paths, path)
	p.modes = append(p.modes, mode)
	return p.inner.ParseFile(path, mode)
}

func fixtures(t *testing.T) (good, bad, truncated string) {
	t.Helper()

	data := testutil.NewELF64(elfparse.DataLittle).AddSegment(testutil.LoadSegment()).Build(t)
	good = testutil.WriteTempFile(t, "good.elf", data)
	bad = testutil.WriteTempFile(t, "bad.txt", []byte("This is not a valid binary format"))
	truncated = testutil.WriteTempFile(t, "truncated.elf", data[:64+10])
	return good, bad, truncated
}

func TestRunner_AllFiles(t *testing.T) {
	good, bad, truncated := fixtures(t)
	parser := &recordingParser{inner: elfparse.NewParser(nil)}

	summary := batch.NewRunner(parser, batch.WithSourceMode(bytesource.ModeMemory)).Run([]string{good, bad, truncated, good})

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 2, summary.Parsed)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, 0, summary.Skipped)
	assert.False(t, summary.OK())

	assert.Equal(t, []string{good, bad, truncated, good}, parser.paths)
	for _, mode := range parser.modes {
		assert.Equal(t, bytesource.ModeMemory, mode)
	}

	require.Len(t, summary.Results, 4)
	assert.Equal(t, batch.StatusParsed, summary.Results[0].Status)
	assert.ErrorIs(t, summary.Results[1].Err, elfparse.ErrInvalidMagic)
	assert.Nil(t, summary.Results[1].File)

	partial := summary.Results[2]
	assert.Equal(t, batch.StatusFailed, partial.Status)
	assert.ErrorIs(t, partial.Err, elfparse.ErrTruncatedEntry)
	require.NotNil(t, partial.File, "partial results stay inspectable")
	assert.Empty(t, partial.File.ProgramHeaders)
}

func TestRunner_FailFast(t *testing.T) {
	good, bad, _ := fixtures(t)
	parser := &recordingParser{inner: elfparse.NewParser(nil)}

	summary := batch.NewRunner(parser, batch.WithFailFast(true)).Run([]string{good, bad, good, good})

	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.Parsed)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, []string{good, bad}, parser.paths, "no file is opened after the first failure")
	assert.Equal(t, batch.StatusSkipped, summary.Results[3].Status)
	assert.ErrorIs(t, summary.Results[3].Err, batch.ErrSkipped)
}

func TestRunner_Empty(t *testing.T) {
	summary := batch.NewRunner(elfparse.NewParser(nil)).Run(nil)

	assert.Equal(t, 0, summary.Total)
	assert.True(t, summary.OK())
}

func TestRunner_MissingFile(t *testing.T) {
	summary := batch.NewRunner(elfparse.NewParser(nil)).Run([]string{filepath.Join(t.TempDir(), "nope")})

	require.Len(t, summary.Results, 1)
	assert.Equal(t, batch.StatusFailed, summary.Results[0].Status)
	assert.Error(t, summary.Results[0].Err)
}

func TestRunner_Logging(t *testing.T) {
	good, bad, _ := fixtures(t)

	var buf bytes.Buffer
	logger := utils.NewLogger(utils.LoggerConfig{
		Level:  utils.LogLevelInfo,
		Format: utils.LogFormatJSON,
		Output: &buf,
	})

	batch.NewRunner(elfparse.NewParser(nil), batch.WithLogger(logger)).Run([]string{good, bad})

	out := buf.String()
	assert.Contains(t, out, `"component":"batch"`)
	assert.Contains(t, out, `"msg":"Parsed file"`)
	assert.Contains(t, out, `"msg":"Failed to parse file"`)
	assert.Contains(t, out, `"error":"invalid ELF magic"`)
}
