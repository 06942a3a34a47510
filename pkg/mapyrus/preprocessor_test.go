package mapyrus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, p *Preprocessor) string {
	t.Helper()
	var sb strings.Builder
	for {
		c, err := p.Read()
		require.NoError(t, err)
		if c == EOF {
			return sb.String()
		}
		sb.WriteRune(c)
	}
}

func writeScript(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadTracksLineNumbers(t *testing.T) {
	p := NewPreprocessor(strings.NewReader("ab\ncd\n"), "script")

	c, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, 'a', c)
	assert.Equal(t, 1, p.LineNumber())
	assert.Equal(t, "script:1", p.Location())

	for i := 0; i < 3; i++ {
		p.Read()
	}
	c, _ = p.Read()
	assert.Equal(t, 'd', c)
	assert.Equal(t, 2, p.LineNumber())
}

func TestUnreadIsLIFO(t *testing.T) {
	p := NewPreprocessor(strings.NewReader("z"), "script")
	p.Unread('b')
	p.Unread('a')

	c, _ := p.Read()
	assert.Equal(t, 'a', c)
	c, _ = p.Read()
	assert.Equal(t, 'b', c)
	c, _ = p.Read()
	assert.Equal(t, 'z', c)
}

func TestReadPastEndKeepsReturningEOF(t *testing.T) {
	p := NewPreprocessor(strings.NewReader("x"), "script")
	p.Read()
	for i := 0; i < 3; i++ {
		c, err := p.Read()
		require.NoError(t, err)
		assert.Equal(t, EOF, c)
	}
}

func TestIncludeSplicesFile(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "inner.myr", "second\n")
	main := writeScript(t, dir, "main.myr",
		"first\ninclude inner.myr\nthird\n")

	p, err := NewPreprocessorFromFile(main)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\nthird\n", readAll(t, p))
}

func TestIncludeQuotedFilename(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "with space.myr", "inner\n")
	main := writeScript(t, dir, "main.myr", "include \"with space.myr\"\n")

	p, err := NewPreprocessorFromFile(main)
	require.NoError(t, err)
	assert.Equal(t, "inner\n", readAll(t, p))
}

func TestIncludeResolvesRelativeToIncluder(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "lib")
	require.NoError(t, os.MkdirAll(sub, 0755))
	writeScript(t, sub, "colors.myr", "palette\n")
	writeScript(t, sub, "all.myr", "include colors.myr\n")
	main := writeScript(t, dir, "main.myr", "include lib/all.myr\n")

	p, err := NewPreprocessorFromFile(main)
	require.NoError(t, err)
	assert.Equal(t, "palette\n", readAll(t, p))
}

func TestIncludeLineNumbersFollowTheFile(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "inner.myr", "x\n")
	main := writeScript(t, dir, "main.myr", "include inner.myr\ny\n")

	p, err := NewPreprocessorFromFile(main)
	require.NoError(t, err)

	c, _ := p.Read()
	assert.Equal(t, 'x', c)
	assert.Equal(t, "inner.myr", p.FileName())
	assert.Equal(t, 1, p.LineNumber())

	p.Read() // newline
	c, _ = p.Read()
	assert.Equal(t, 'y', c)
	assert.Equal(t, 2, p.LineNumber())
}

func TestIncludeMissingFilename(t *testing.T) {
	p := NewPreprocessor(strings.NewReader("include\n"), "script")
	_, err := p.Read()
	require.Error(t, err)
	assert.Equal(t, ErrSyntax, err.(Err).Reason())
	assert.Contains(t, err.Error(), "missing filename")
}

func TestIncludeUnopenableFile(t *testing.T) {
	p := NewPreprocessor(strings.NewReader("include /no/such/file.myr\n"), "script")
	_, err := p.Read()
	require.Error(t, err)
	assert.Equal(t, ErrResource, err.(Err).Reason())
}

func TestIncludeNeedsWordBoundary(t *testing.T) {
	// a line starting with "includes" is an ordinary statement
	p := NewPreprocessor(strings.NewReader("includes\n"), "script")
	assert.Equal(t, "includes\n", readAll(t, p))
}

func TestOpenMissingScriptFile(t *testing.T) {
	_, err := NewPreprocessorFromFile("/no/such/script.myr")
	require.Error(t, err)
	assert.Equal(t, ErrResource, err.(Err).Reason())
}
