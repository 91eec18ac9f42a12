package ivm

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// frameProgram draws a single red pixel into frame 1:
// NEW_FRAME 1 1 0; SET_PIXEL 0 0 255 0 0; NEW_FRAME 0 0 0; EXIT.
var frameProgram = []byte{
	Push1, 1, Push1, 1, Push0, NewFrame,
	Push0, Push0, Push1, 255, Push0, Push0, SetPixel,
	Push0, Push0, Push0, NewFrame,
	Exit,
}

func runFrameProgram(t *testing.T, outDir string, parallel bool) *Machine {
	t.Helper()
	m := testMachine(t, Options{
		OutDir:         outDir,
		ParallelOutput: parallel,
		NumThreads:     3,
	})
	require.NoError(t, m.LoadProgramBytes(frameProgram))
	require.NoError(t, m.Run())
	return m
}

func checkRedPixelFrame(t *testing.T, outDir string) {
	t.Helper()
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "only the non-empty frame produces a file")
	require.Equal(t, "00000001.png", entries[0].Name())

	f, err := os.Open(filepath.Join(outDir, "00000001.png"))
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 1, 1), img.Bounds())
	r, g, b, _ := img.At(0, 0).RGBA()
	require.Equal(t, uint32(0xFFFF), r)
	require.Zero(t, g)
	require.Zero(t, b)
}

func TestFrameWriteSerial(t *testing.T) {
	dir := t.TempDir()
	runFrameProgram(t, dir, false)
	checkRedPixelFrame(t, dir)
}

func TestFrameWriteParallel(t *testing.T) {
	dir := t.TempDir()
	m := runFrameProgram(t, dir, true)
	checkRedPixelFrame(t, dir)
	require.Equal(t, m.out.Requested(), m.out.Processed(),
		"wait_until_processed leaves no pending frames")
}

func TestFrameTextAndSamples(t *testing.T) {
	dir := t.TempDir()
	m := testMachine(t, Options{OutDir: dir})
	// NEW_FRAME 0 0 8000; "Hi"; one byte; one sample; flush; EXIT.
	prog := []byte{
		Push0, Push0, Push2, 0x40, 0x1F, NewFrame,
		Push1, 'H', PutChar,
		Push1, 'i', PutChar,
		Push1, 0x7F, PutByte,
		Push1, 3, Push1, 4, AddSample,
		Push0, Push0, Push0, NewFrame,
		Exit,
	}
	require.NoError(t, m.LoadProgramBytes(prog))
	require.NoError(t, m.Run())

	text, err := os.ReadFile(filepath.Join(dir, "00000001.text"))
	require.NoError(t, err)
	require.Equal(t, "Hi", string(text))

	raw, err := os.ReadFile(filepath.Join(dir, "00000001.bytes"))
	require.NoError(t, err)
	require.Equal(t, []byte{0x7F}, raw)

	wav, err := os.ReadFile(filepath.Join(dir, "00000001.wav"))
	require.NoError(t, err)
	require.Len(t, wav, wavHeaderSize+4)
	require.Equal(t, "RIFF", string(wav[0:4]))
	require.Equal(t, "WAVE", string(wav[8:12]))
	// Sample rate 8000 at offset 24, little endian.
	require.Equal(t, []byte{0x40, 0x1F, 0, 0}, wav[24:28])
	// AddSample popped right then left: left=3, right=4.
	require.Equal(t, []byte{3, 0, 4, 0}, wav[wavHeaderSize:])

	// No PNG for a 0x0 frame.
	_, err = os.Stat(filepath.Join(dir, "00000001.png"))
	require.True(t, os.IsNotExist(err))
}

func TestQueueHandlerReusesBufferSets(t *testing.T) {
	h := newQueueHandler()
	rec := h.getFree()
	require.NotNil(t, rec)
	rec.Text = append(rec.Text, "hello"...)
	rec.reset()
	h.freeQueue.enqueue(rec)

	again := h.getFree()
	require.Same(t, rec, again, "free list hands the same set back")
	require.Empty(t, again.Text)

	// Nothing queued now: non-blocking dequeue reports empty.
	_, ok := h.freeQueue.dequeue(false)
	require.False(t, ok)
}

func TestLinkedQueueIsFIFO(t *testing.T) {
	q := newLinkedQueue()
	a, b := &FrameRecord{Seq: 1}, &FrameRecord{Seq: 2}
	q.enqueue(a)
	q.enqueue(b)
	got, ok := q.dequeue(true)
	require.True(t, ok)
	require.Same(t, a, got)
	got, ok = q.dequeue(false)
	require.True(t, ok)
	require.Same(t, b, got)
}

func TestManyFramesParallel(t *testing.T) {
	dir := t.TempDir()
	m := testMachine(t, Options{
		OutDir:         dir,
		ParallelOutput: true,
		NumThreads:     4,
	})
	// Emit 9 one-pixel frames through a countdown loop: the counter
	// lives in scratch memory, PUSH1 0/NOT/ADD decrements it, and
	// PUSH1 1/LT/JZ_BACK loops until it reaches zero.
	scratch := byte(0x80)
	prog := []byte{
		Push1, 9, Push1, scratch, Store1, // counter = 9
		// loop (offset 5):
		Push1, 1, Push1, 1, Push0, NewFrame,
		Push0, Push0, Push1, 200, Push0, Push0, SetPixel,
		Push1, scratch, Load1, Push1, 0, Not, Add, // counter-1
		Push1, scratch, Store1,
		Push1, scratch, Load1, // reload
		Push1, 1, Lt, // counter < 1 ?
		JzBack, 30, // not yet zero: back to loop
		Exit,
	}
	require.NoError(t, m.LoadProgramBytes(prog))
	require.NoError(t, m.Run())
	require.Equal(t, m.out.Requested(), m.out.Processed())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 9)
	require.Equal(t, "00000001.png", entries[0].Name())
	require.Equal(t, "00000009.png", entries[8].Name())
}
