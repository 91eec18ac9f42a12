package ivm

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Diagnostics: instruction printing, stack dumps in the formats of the
// reference implementation, the post-halt report and the memory dump.

// stackDumpStart is the first valid stack position for dumps, one word
// over the initial SP.
func (m *Machine) stackDumpStart() uint64 {
	return uint64(len(m.mem)) - 2*bytesPerWord
}

// printInsn decodes the instruction at pc for a trace or fault report,
// showing the immediate operand per the catalog's opbytes.
func (m *Machine) printInsn(pc uint64) {
	op := m.peek1(pc)
	fmt.Fprintf(m.opts.Msg, "PC=%#x Mem[%d] -> op_code=%#02x %s\t",
		pc, pc, op, m.cat.Name(op))
	switch m.cat.Opbytes(op) {
	case 1:
		fmt.Fprintf(m.opts.Msg, "oper(1byte)=%#x", m.peek1(pc+1))
	case 2:
		fmt.Fprintf(m.opts.Msg, "oper(2bytes)=%#x", m.peek2(pc+1))
	case 4:
		fmt.Fprintf(m.opts.Msg, "oper(4bytes)=%#x", m.peek4(pc+1))
	case 8:
		fmt.Fprintf(m.opts.Msg, "oper(8bytes)=%#x", m.peek8(pc+1))
	}
	fmt.Fprintln(m.opts.Msg)
	if label, ok := m.syms.Lookup(pc); ok {
		fmt.Fprintf(m.opts.Msg, "--> %s\n", label)
	}
}

// printStackRow shows the last n stack elements in a row.
func (m *Machine) printStackRow(n uint64) {
	start := m.stackDumpStart()
	p := m.sp + n*bytesPerWord
	if p > start {
		p = start
	}
	fmt.Fprintf(m.opts.Msg, "\tSTACK = [")
	for ; p >= m.sp && p <= start; p -= bytesPerWord {
		fmt.Fprintf(m.opts.Msg, " | %#x", m.peek8(p))
	}
	fmt.Fprintf(m.opts.Msg, "]\n")
}

// printStackIVM prints the final stack the way the ivm application
// does, low 24 bits hex plus the signed value.
func (m *Machine) printStackIVM(n uint64) {
	start := m.stackDumpStart()
	top := m.sp + n*bytesPerWord
	if top > start {
		top = start
	}
	fmt.Fprintf(m.opts.Msg, "End stack:\n")
	for p := m.sp; p <= top; p += bytesPerWord {
		val := m.peek8(p)
		fmt.Fprintf(m.opts.Msg, "0x..%06x %8d\n", val&0xffffff, int64(val))
	}
	fmt.Fprintln(m.opts.Msg)
}

// printStackCompact is the per-trace-line stack format. Values inside
// the memory image print as start-relative addresses.
func (m *Machine) printStackCompact() {
	start := m.stackDumpStart()
	p := m.sp + 16*bytesPerWord
	if p > start {
		p = start
	}
	fmt.Fprintf(m.opts.Msg, " start+%#x: ", m.sp)
	for ; p >= m.sp && p <= start; p -= bytesPerWord {
		val := m.peek8(p)
		if val <= start {
			fmt.Fprintf(m.opts.Msg, " @start+%#-6x", val)
		} else {
			fmt.Fprintf(m.opts.Msg, " %d", int64(val))
		}
	}
	fmt.Fprintln(m.opts.Msg)
}

func (m *Machine) printStackStatus() {
	fmt.Fprintf(m.opts.Msg, "\tSP = %#x\n", m.sp)
	fmt.Fprintf(m.opts.Msg, "\tTOS = %#x\n", m.peek8(m.sp))
	m.printStackRow(16)
}

// verboseAction runs once per fetch when tracing; pc-1 is the opcode
// byte just fetched.
func (m *Machine) verboseAction() {
	switch {
	case m.opts.Verbose == 2:
		if m.trace > 1 {
			m.printStackStatus()
		}
		if m.trace > 0 {
			m.printInsn(m.pc - 1)
		}
	case m.opts.Verbose == 3:
		if m.traceStarted {
			m.printStackCompact()
			if label, ok := m.syms.Lookup(m.pc - 1); ok {
				fmt.Fprintf(m.opts.Msg, "-- %s --\n", label)
			}
		}
		m.traceStarted = true
		fmt.Fprintf(m.opts.Msg, "start+%#-9x: %-9s ", m.pc-1, m.cat.Name(m.peek1(m.pc-1)))
	case m.opts.Verbose >= 4:
		m.printStackStatus()
		m.printInsn(m.pc - 1)
	}
}

// DumpMemory prints a 16-bytes-per-row hex dump of a memory range.
func (m *Machine) DumpMemory(start, end uint64) {
	fmt.Fprintf(m.opts.Msg, "%#016x-..\t", start)
	for i := start; i <= end; i++ {
		k := i
		for ; k <= end && k < i+16; k++ {
			fmt.Fprintf(m.opts.Msg, "%02x  ", m.peek1(k))
		}
		i = k - 1
		fmt.Fprintln(m.opts.Msg)
		fmt.Fprintf(m.opts.Msg, "%#016x-..\t", k)
	}
	fmt.Fprint(m.opts.Msg, "\n\n")
}

func humanSize(x float64) (float64, string) {
	switch {
	case x > 1e12:
		return x / 1e12, "T"
	case x > 1e9:
		return x / 1e9, "G"
	case x > 1e6:
		return x / 1e6, "M"
	case x > 1e3:
		return x / 1e3, "K"
	}
	return x, ""
}

// dumpedStackCap resolves how many stack positions beyond the top the
// final dump shows: IVM_EMU_MAX_DUMPED_STACK=N shows N+1 positions,
// IVM_EMU_DUMP_FULL_STACK=1 shows all, default is the top 32.
func dumpedStackCap(nstack uint64) uint64 {
	if s := os.Getenv("IVM_EMU_MAX_DUMPED_STACK"); s != "" {
		if n, err := strconv.ParseUint(s, 10, 64); err == nil {
			return n
		}
	}
	if os.Getenv("IVM_EMU_DUMP_FULL_STACK") != "" {
		return nstack
	}
	return 31
}

// ReportHalt prints the post-halt report to the message stream: the
// error, execution statistics, the final stack and, on faults, the
// last known instruction with the nearest labels.
func (m *Machine) ReportHalt() {
	msg := m.opts.Msg

	switch {
	case m.err == nil:
	case errors.Is(m.err, ErrSegmentationFault):
		fmt.Fprintf(msg, "error: segmentation fault\n\n")
	case errors.Is(m.err, ErrDivisionByZero):
		fmt.Fprintf(msg, "error: division by zero\n\n")
	case errors.Is(m.err, ErrInterrupted):
		fmt.Fprintf(msg, "Program terminated by user request ^C\n\n")
	case errors.Is(m.err, ErrWrongBinaryVersion):
		fmt.Fprintf(msg, "Incompatible binary version: %d\n\n", m.badVersion)
	default:
		fmt.Fprintf(msg, "error: %v\n\n", m.err)
	}

	if m.opts.StepCount {
		steps := m.Steps()
		if steps != m.samples[0] {
			for i := 0; i < 256; i++ {
				if m.samples[i] > 0 {
					fmt.Fprintf(msg, "Probe %3d: %10d\n", i, m.samples[i])
				}
			}
		}
		binsize := m.execEnd - m.execStart + 1
		hs, hp := humanSize(float64(binsize))
		fmt.Fprintf(msg, "Binary file size: %d bytes (%.1f %sB)\n", binsize, hs, hp)
		if m.opts.Histogram {
			fmt.Fprintf(msg, "Executed %d instructions; %d fetches (%4.2f insn per fetch)\n\n",
				steps, m.fetches, float64(steps)/float64(m.fetches))
		} else {
			si, sp := humanSize(float64(steps))
			fmt.Fprintf(msg, "Executed %d instructions (%.2f %si)\n\n", steps, si, sp)
		}
	}

	if m.opts.Histogram {
		for i := 0; i < 256; i++ {
			if m.histogram[i] == 0 {
				continue
			}
			ratio := float64(m.histogram[i])
			if m.histo2[i] > 0 {
				ratio = float64(m.histogram[i]) / float64(m.histo2[i])
			}
			fmt.Fprintf(msg, "%15d\t%-10s\t%6.3f%%\t%15d\t%20.2f\n",
				m.histogram[i], m.cat.Name(Opcode(i)),
				float64(m.histogram[i])/float64(m.fetches)*100, m.histo2[i], ratio)
		}
	}

	if m.sp < m.execStart || m.sp >= uint64(len(m.mem)) {
		fmt.Fprintf(msg, "End stack:\nSP out of range: %#x [%#x %#x]\n",
			m.sp, m.execStart, uint64(len(m.mem)))
	} else {
		nstack := (uint64(len(m.mem)) - bytesPerWord - m.sp) / bytesPerWord
		ntop := dumpedStackCap(nstack)
		m.printStackIVM(ntop)
		shown := ntop + 1
		if nstack < shown {
			shown = nstack
		}
		fmt.Fprintf(msg, "Shown top %d out of %d stack positions\n", shown, nstack)
		fmt.Fprintf(msg, " (export IVM_EMU_MAX_DUMPED_STACK=N to show N+1 stack positions only)\n")
		fmt.Fprintf(msg, " (to show all stack positions, unset IVM_EMU_MAX_DUMPED_STACK and export IVM_EMU_DUMP_FULL_STACK=1)\n")
	}

	if m.err != nil {
		fmt.Fprintf(msg, "Last known instruction\n")
		if m.pc-1 < m.execStart || m.pc-1 > m.execEnd {
			fmt.Fprintf(msg, "PC=%#x out of range\n", m.pc-1)
		} else {
			m.printInsn(m.pc - 1)
		}
		lower, upper := m.syms.Nearest(m.pc - 1)
		if lower != "" {
			fmt.Fprintf(msg, "   Nearest lower label: %s\n", lower)
		}
		if upper != "" {
			fmt.Fprintf(msg, "   Nearest upper label: %s\n", upper)
		}
	}
}

// Err returns the halt condition, nil after a clean EXIT.
func (m *Machine) Err() error { return m.err }
