package ivm

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

/*
	Per-frame file writers. Each frame produces up to four files under
	the output directory, sharing an 8-digit zero-padded stem:

		NNNNNNNN.text   UTF-8 text
		NNNNNNNN.bytes  raw bytes
		NNNNNNNN.wav    RIFF/WAVE, PCM, stereo, 16-bit
		NNNNNNNN.png    8-bit RGB, non-interlaced

	Empty buffers produce no file.
*/

func frameStem(dir string, seq uint32) string {
	return filepath.Join(dir, fmt.Sprintf("%08d.", seq))
}

// writeFrameFiles writes one record. appendConsole continues text and
// byte files already started by a console spill of the same frame.
func writeFrameFiles(dir string, rec *FrameRecord, appendConsole bool) error {
	if dir == "" {
		return nil
	}
	if err := writeConsoleFiles(dir, rec.Seq, rec.Text, rec.Raw, appendConsole); err != nil {
		return err
	}
	stem := frameStem(dir, rec.Seq)
	if len(rec.Samples) > 0 {
		if err := writeWav(stem+"wav", rec.Samples, rec.SampleRate); err != nil {
			return err
		}
	}
	if len(rec.Image) > 0 {
		if err := writePng(stem+"png", rec.Image, rec.Width, rec.Height); err != nil {
			return err
		}
	}
	return nil
}

func writeConsoleFiles(dir string, seq uint32, text, raw []byte, appendMode bool) error {
	stem := frameStem(dir, seq)
	if len(text) > 0 {
		if err := writeFileData(stem+"text", text, appendMode); err != nil {
			return err
		}
	}
	if len(raw) > 0 {
		if err := writeFileData(stem+"bytes", raw, appendMode); err != nil {
			return err
		}
	}
	return nil
}

func writeFileData(filename string, data []byte, appendMode bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if appendMode {
		flags = os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	f, err := os.OpenFile(filename, flags, 0o644)
	if err != nil {
		return fmt.Errorf("%w: trouble writing %s: %v", ErrOutputWrite, filename, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("%w: trouble writing %s: %v", ErrOutputWrite, filename, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: trouble writing %s: %v", ErrOutputWrite, filename, err)
	}
	return nil
}

const wavHeaderSize = 44

// writeWav prepends the standard 44-byte RIFF/WAVE header: PCM,
// stereo, 16 bits per sample at the frame's sample rate.
func writeWav(filename string, samples []byte, sampleRate uint32) error {
	h := make([]byte, wavHeaderSize)
	size := uint32(len(samples))
	copy(h[0:], "RIFF")
	binary.LittleEndian.PutUint32(h[4:], 36+size)
	copy(h[8:], "WAVE")
	copy(h[12:], "fmt ")
	binary.LittleEndian.PutUint32(h[16:], 16)
	binary.LittleEndian.PutUint16(h[20:], 1) // PCM
	binary.LittleEndian.PutUint16(h[22:], 2) // stereo
	binary.LittleEndian.PutUint32(h[24:], sampleRate)
	binary.LittleEndian.PutUint32(h[28:], 4*sampleRate)
	binary.LittleEndian.PutUint16(h[32:], 4)  // block align
	binary.LittleEndian.PutUint16(h[34:], 16) // bits per sample
	copy(h[36:], "data")
	binary.LittleEndian.PutUint32(h[40:], size)

	return writeFileData(filename, append(h, samples...), false)
}

// writePng encodes the row-major RGB24 plane as an 8-bit truecolor
// PNG, no interlacing, default filter and compression.
func writePng(filename string, rgb []byte, width, height uint16) error {
	img := image.NewNRGBA(image.Rect(0, 0, int(width), int(height)))
	for i, n := 0, int(width)*int(height); i < n; i++ {
		img.Pix[i*4+0] = rgb[i*3+0]
		img.Pix[i*4+1] = rgb[i*3+1]
		img.Pix[i*4+2] = rgb[i*3+2]
		img.Pix[i*4+3] = 0xff // opaque: encoded as color type 2 (RGB)
	}
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("%w: trouble writing %s: %v", ErrOutputWrite, filename, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("%w: trouble writing %s: %v", ErrOutputWrite, filename, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: trouble writing %s: %v", ErrOutputWrite, filename, err)
	}
	return nil
}
