package ivm

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPutCharEncodesUTF8(t *testing.T) {
	var mirror bytes.Buffer
	a := NewFrameAssembler(&mirror)

	a.PutChar('A')          // 1 byte
	a.PutChar(0xE9)         // é, 2 bytes
	a.PutChar(0x20AC)       // €, 3 bytes
	a.PutChar(0x1F600)      // emoji, 4 bytes
	want := "Aé€\U0001F600"
	require.Equal(t, want, string(a.text))
	require.Equal(t, want, mirror.String(), "put_char mirrors to the diagnostic stream")
}

func TestAddSampleLayout(t *testing.T) {
	a := NewFrameAssembler(nil)
	a.AddSample(0x1234, 0xABCD)
	require.Equal(t, []byte{0x34, 0x12, 0xCD, 0xAB}, a.samples)
}

func TestSetPixelWritesPlane(t *testing.T) {
	a := NewFrameAssembler(nil)
	a.begin(1, 2, 2, 0)
	require.Len(t, a.image, 12)

	a.SetPixel(1, 0, 10, 20, 30)
	require.Equal(t, []byte{10, 20, 30}, a.image[3:6])

	// Out of bounds is dropped, not written.
	a.SetPixel(2, 0, 0xFF, 0xFF, 0xFF)
	a.SetPixel(0, 2, 0xFF, 0xFF, 0xFF)
	require.NotContains(t, a.image, byte(0xFF))
}

func TestBeginZeroesReusedPlane(t *testing.T) {
	a := NewFrameAssembler(nil)
	a.begin(1, 2, 1, 0)
	a.SetPixel(0, 0, 9, 9, 9)
	a.begin(2, 2, 1, 44100)
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0}, a.image)
	require.Equal(t, uint32(44100), a.rate)
	require.Equal(t, uint32(2), a.seq)
}

func TestDetachHandsOffBuffers(t *testing.T) {
	a := NewFrameAssembler(nil)
	a.begin(3, 1, 1, 8000)
	a.PutChar('x')
	a.PutByte(0x42)
	a.AddSample(1, 2)

	rec := a.detach(&FrameRecord{})
	require.Equal(t, uint32(3), rec.Seq)
	require.Equal(t, "x", string(rec.Text))
	require.Equal(t, []byte{0x42}, rec.Raw)
	require.Len(t, rec.Samples, 4)
	require.Len(t, rec.Image, 3)
	require.Equal(t, uint32(8000), rec.SampleRate)

	require.Empty(t, a.text)
	require.Empty(t, a.raw)
	require.Empty(t, a.samples)
}
