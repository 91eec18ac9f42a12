package ivm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const symSample = `--Previous--

--Size--
3609
--Relative--
--Constant--
--Labels--
z/main	686
z/_start	50
z/alias	686
z/_exit	700
--Spacers--
`

func writeSymFile(t *testing.T, contents string) string {
	t.Helper()
	name := filepath.Join(t.TempDir(), "prog.sym")
	require.NoError(t, os.WriteFile(name, []byte(contents), 0o644))
	return name
}

func TestSymbolFileParsing(t *testing.T) {
	s := LoadSymbolFile(writeSymFile(t, symSample))
	require.Equal(t, 3, s.Len())

	label, ok := s.Lookup(50)
	require.True(t, ok)
	require.Equal(t, "z/_start", label)

	// The first binding for a PC wins.
	label, ok = s.Lookup(686)
	require.True(t, ok)
	require.Equal(t, "z/main", label)
}

func TestSymbolNearest(t *testing.T) {
	s := LoadSymbolFile(writeSymFile(t, symSample))

	lower, upper := s.Nearest(100)
	require.Equal(t, "z/_start", lower)
	require.Equal(t, "z/main", upper)

	lower, upper = s.Nearest(10)
	require.Empty(t, lower)
	require.Equal(t, "z/_start", upper)

	lower, upper = s.Nearest(9999)
	require.Equal(t, "z/_exit", lower)
	require.Empty(t, upper)

	// Exact hit counts as the lower label.
	lower, _ = s.Nearest(686)
	require.Equal(t, "z/main", lower)
}

func TestSymbolFileWithoutLabelsSection(t *testing.T) {
	s := LoadSymbolFile(writeSymFile(t, "--Size--\n42\n"))
	require.Zero(t, s.Len())
}

func TestSymbolFileMissing(t *testing.T) {
	s := LoadSymbolFile(filepath.Join(t.TempDir(), "nope.sym"))
	require.Zero(t, s.Len())
	lower, upper := s.Nearest(5)
	require.Empty(t, lower)
	require.Empty(t, upper)
}

func TestSymbolFilename(t *testing.T) {
	require.Equal(t, "prog.sym", SymbolFilename("prog.b"))
	require.Equal(t, "a/b/prog.sym", SymbolFilename("a/b/prog.bin"))
	require.Equal(t, "a.dir/prog.sym", SymbolFilename("a.dir/prog"))
}
