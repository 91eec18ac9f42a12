package ivm

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGalleryGrayscaleConversion(t *testing.T) {
	dir := t.TempDir()
	// 2x1: red then white.
	rgb := []byte{255, 0, 0, 255, 255, 255}
	require.NoError(t, writePng(filepath.Join(dir, "frame.png"), rgb, 2, 1))

	g := NewGallery(dir)
	w, h, err := g.ReadFrame(0)
	require.NoError(t, err)
	require.Equal(t, uint64(2), w)
	require.Equal(t, uint64(1), h)

	// Red through the default weights: 6968*255 >> 15.
	require.Equal(t, byte(54), g.ReadPixel(0, 0))
	require.Equal(t, byte(255), g.ReadPixel(1, 0))
}

func TestGalleryOutOfRangeIndex(t *testing.T) {
	dir := t.TempDir()
	rgb := []byte{9, 9, 9}
	require.NoError(t, writePng(filepath.Join(dir, "a.png"), rgb, 1, 1))

	g := NewGallery(dir)
	w, h, err := g.ReadFrame(0)
	require.NoError(t, err)
	require.Equal(t, uint64(1), w)
	require.Equal(t, uint64(1), h)
	before := g.ReadPixel(0, 0)

	w, h, err = g.ReadFrame(7)
	require.NoError(t, err)
	require.Zero(t, w)
	require.Zero(t, h)
	require.Equal(t, before, g.ReadPixel(0, 0), "cached image untouched")
}

func TestGallerySortsLexicographically(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, writePng(filepath.Join(dir, "00000002.png"), []byte{2, 2, 2}, 1, 1))
	require.NoError(t, writePng(filepath.Join(dir, "00000001.png"), []byte{200, 200, 200}, 1, 1))

	g := NewGallery(dir)
	_, _, err := g.ReadFrame(0)
	require.NoError(t, err)
	require.Equal(t, byte(200), g.ReadPixel(0, 0))
	_, _, err = g.ReadFrame(1)
	require.NoError(t, err)
	require.Equal(t, byte(2), g.ReadPixel(0, 0))
}

func TestGalleryEmptyDirConfigured(t *testing.T) {
	g := NewGallery("")
	w, h, err := g.ReadFrame(0)
	require.NoError(t, err)
	require.Zero(t, w)
	require.Zero(t, h)
}

// Round-trip: a program writes a frame, a second run reads it back
// through READ_FRAME and READ_PIXEL from the same directory.
func TestFrameRoundTrip(t *testing.T) {
	dir := t.TempDir()
	runFrameProgram(t, dir, false)

	m := testMachine(t, Options{InpDir: dir})
	prog := []byte{
		Push0, ReadFrame, // width, height
		Push0, Push0, ReadPixel,
		Exit,
	}
	require.NoError(t, m.LoadProgramBytes(prog))
	require.NoError(t, m.Run())

	// Stack top-down: gray pixel, height, width.
	require.Equal(t, uint64(54), top(t, m), "red converts to gray 54")
	require.Equal(t, uint64(1), m.load8(m.SP()+8), "height")
	require.Equal(t, uint64(1), m.load8(m.SP()+16), "width")
}
