package ivm

import (
	"encoding/binary"
	"io"
)

// Initial buffer capacities, 16 MiB each; the text and byte buffers
// spill to disk in serial mode once they outgrow this.
const (
	initialTextSize    = 0x1000000
	initialBytesSize   = 0x1000000
	initialSamplesSize = 0x1000000
)

// FrameRecord is one finished frame on its way to disk: the four
// buffers, the image geometry and the sequence number baked into the
// output filenames. Records double as the reusable buffer sets on the
// pipeline's free list.
type FrameRecord struct {
	Seq        uint32
	Text       []byte
	Raw        []byte
	Samples    []byte
	Image      []byte
	Width      uint16
	Height     uint16
	SampleRate uint32
}

// reset empties the buffers while keeping their capacity for reuse.
func (r *FrameRecord) reset() {
	r.Seq = 0
	r.Text = r.Text[:0]
	r.Raw = r.Raw[:0]
	r.Samples = r.Samples[:0]
	r.Image = r.Image[:0]
	r.Width, r.Height, r.SampleRate = 0, 0, 0
}

// FrameAssembler accumulates the current frame: UTF-8 text, raw bytes,
// 16-bit stereo samples and an RGB pixel plane. Exactly one frame is
// in flight per assembler; the pipeline moves the buffers out on each
// frame boundary.
type FrameAssembler struct {
	seq     uint32
	text    []byte
	raw     []byte
	samples []byte
	image   []byte

	width  uint16
	height uint16
	rate   uint32

	// diag mirrors every PutChar byte immediately so the guest can
	// drive a terminal; it must be unbuffered.
	diag io.Writer
}

func NewFrameAssembler(diag io.Writer) *FrameAssembler {
	return &FrameAssembler{diag: diag}
}

// begin stamps the next frame's sequence number and geometry and
// allocates the zeroed pixel plane of 3*w*h bytes.
func (a *FrameAssembler) begin(seq uint32, width, height uint16, rate uint32) {
	a.seq = seq
	a.width, a.height, a.rate = width, height, rate

	need := 3 * int(width) * int(height)
	if cap(a.image) < need {
		a.image = make([]byte, need)
	} else {
		a.image = a.image[:need]
		for i := range a.image {
			a.image[i] = 0
		}
	}
}

// PutChar appends the UTF-32 scalar as UTF-8 and mirrors the bytes to
// the diagnostic stream. Scalars beyond 21 bits keep only their low
// bits, matching the wire encoding.
func (a *FrameAssembler) PutChar(c uint32) {
	start := len(a.text)
	switch {
	case c < 0x80:
		a.text = append(a.text, byte(c))
	case c < 0x800:
		a.text = append(a.text, byte(0xc0|c>>6), byte(0x80|c&0x3f))
	case c < 0x10000:
		a.text = append(a.text, byte(0xe0|c>>12), byte(0x80|c>>6&0x3f), byte(0x80|c&0x3f))
	default:
		a.text = append(a.text,
			byte(0xf0|c>>18&0x07), byte(0x80|c>>12&0x3f),
			byte(0x80|c>>6&0x3f), byte(0x80|c&0x3f))
	}
	if a.diag != nil {
		a.diag.Write(a.text[start:])
	}
}

// PutByte appends one raw byte.
func (a *FrameAssembler) PutByte(b byte) { a.raw = append(a.raw, b) }

// AddSample appends one stereo sample pair as little-endian u16s.
func (a *FrameAssembler) AddSample(left, right uint16) {
	var pair [4]byte
	binary.LittleEndian.PutUint16(pair[0:], left)
	binary.LittleEndian.PutUint16(pair[2:], right)
	a.samples = append(a.samples, pair[:]...)
}

// SetPixel writes one RGB triple into the pixel plane. Out-of-bounds
// coordinates are dropped rather than corrupting neighboring memory.
func (a *FrameAssembler) SetPixel(x, y uint16, r, g, b byte) {
	if x >= a.width || y >= a.height {
		return
	}
	p := (int(y)*int(a.width) + int(x)) * 3
	a.image[p] = r
	a.image[p+1] = g
	a.image[p+2] = b
}

// detach moves the buffers out as a frame record and leaves the
// assembler with the replacement set.
func (a *FrameAssembler) detach(replacement *FrameRecord) *FrameRecord {
	rec := &FrameRecord{
		Seq:        a.seq,
		Text:       a.text,
		Raw:        a.raw,
		Samples:    a.samples,
		Image:      a.image,
		Width:      a.width,
		Height:     a.height,
		SampleRate: a.rate,
	}
	a.text = replacement.Text[:0]
	a.raw = replacement.Raw[:0]
	a.samples = replacement.Samples[:0]
	a.image = replacement.Image[:0]
	return rec
}

// record views the assembler's buffers as a frame record without
// giving up ownership; only the serial writer uses it.
func (a *FrameAssembler) record() *FrameRecord {
	return &FrameRecord{
		Seq:        a.seq,
		Text:       a.text,
		Raw:        a.raw,
		Samples:    a.samples,
		Image:      a.image,
		Width:      a.width,
		Height:     a.height,
		SampleRate: a.rate,
	}
}

// resetBuffers empties all four buffers in place.
func (a *FrameAssembler) resetBuffers() {
	a.text = a.text[:0]
	a.raw = a.raw[:0]
	a.samples = a.samples[:0]
	a.image = a.image[:0]
}
