package ivm

import "golang.org/x/term"

// I/O opcode handlers. These delegate to the frame assembler, the
// output pipeline and the input gallery; the interpreter itself never
// touches a file descriptor besides guest character input.

func (m *Machine) opPutChar(uint32) {
	m.asm.PutChar(uint32(m.pop()))
	if err := m.out.MaybeSpill(m.asm); err != nil {
		m.err = err
	}
}

func (m *Machine) opPutByte(uint32) {
	m.asm.PutByte(byte(m.pop()))
	if err := m.out.MaybeSpill(m.asm); err != nil {
		m.err = err
	}
}

func (m *Machine) opAddSample(uint32) {
	right := m.pop()
	left := m.pop()
	m.asm.AddSample(uint16(left), uint16(right))
}

func (m *Machine) opSetPixel(uint32) {
	b := m.pop()
	g := m.pop()
	r := m.pop()
	y := m.pop()
	x := m.pop()
	m.asm.SetPixel(uint16(x), uint16(y), byte(r), byte(g), byte(b))
}

func (m *Machine) opNewFrame(uint32) {
	rate := m.pop()
	height := m.pop()
	width := m.pop()
	if err := m.out.Flush(m.asm); err != nil {
		m.err = err
		return
	}
	m.out.BeginFrame(m.asm, uint16(width), uint16(height), uint32(rate))
}

func (m *Machine) opReadPixel(uint32) {
	y := m.pop()
	x := m.pop()
	m.push(uint64(m.gallery.ReadPixel(uint16(x), uint16(y))))
}

func (m *Machine) opReadFrame(uint32) {
	// Let pending frame writes land so the rescan can pick them up
	// when the input and output directories coincide.
	m.out.Drain()
	i := m.pop()
	width, height, err := m.gallery.ReadFrame(i)
	if err != nil {
		m.err = err
		return
	}
	m.push(width)
	m.push(height)
}

// opReadChar reads one UTF-8 character from the host, with the
// terminal switched out of canonical mode for the duration of the
// read. EOF becomes the EOF character (^D).
func (m *Machine) opReadChar(uint32) {
	if m.ttyFd >= 0 {
		if saved, err := term.MakeRaw(m.ttyFd); err == nil {
			defer term.Restore(m.ttyFd, saved)
		}
	}
	r, _, err := m.stdin.ReadRune()
	if err != nil {
		m.push(4)
		return
	}
	m.push(uint64(r))
}
