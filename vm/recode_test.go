package ivm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// runWithPanel loads and runs prog on a fresh machine with the given
// control panel.
func runWithPanel(t *testing.T, prog []byte, panel ControlPanel) *Machine {
	t.Helper()
	m := testMachine(t, Options{Panel: &panel, StepCount: true})
	require.NoError(t, m.LoadProgramBytes(prog))
	require.NoError(t, m.Run())
	return m
}

func TestNopRunFusion(t *testing.T) {
	prog := []byte{
		Nop, Nop, Nop, Nop, Nop, Nop, Nop, Nop,
		Push1, 0x2A,
		Exit,
	}
	m := runWithPanel(t, prog, DefaultControlPanel())
	require.Equal(t, uint64(0x2A), top(t, m))
	require.Equal(t, uint64(10), m.Steps(), "NOP8 fuses to one step of 8")
	require.Equal(t, uint64(3), m.Fetches(), "NOP8, PUSH1, EXIT")
	require.Equal(t, m.Catalog().Tag("NOP8"), m.mem[0], "first byte recoded")
}

func TestPCRelativeLoad(t *testing.T) {
	// GET_PC; PUSH1 15; ADD; LOAD4 lands on the data at offset 16.
	prog := []byte{
		GetPc, Push1, 15, Add, Load4, Exit,
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
		0xEF, 0xBE, 0xAD, 0xDE,
	}
	m := runWithPanel(t, prog, DefaultControlPanel())
	require.Equal(t, uint64(0xDEADBEEF), top(t, m))
	require.Equal(t, m.Catalog().Tag("LD4_PC_1"), m.mem[0])

	// Same program without patterns gives the same answer.
	m = runWithPanel(t, prog, PlainControlPanel())
	require.Equal(t, uint64(0xDEADBEEF), top(t, m))
	require.Equal(t, Opcode(GetPc), m.mem[0])
}

// E5: a program that executes the same GET_PC/PUSH1/ADD/LOAD8 site
// twice. The first execution rewrites the opcode byte, the second
// dispatches through the synthesized tag, and the observable behavior
// matches the pattern-disabled build.
func TestRecodingSelfConsistency(t *testing.T) {
	prog := []byte{
		GetPc, Push1, 43, Add, Load8, // 0: push data at 44
		GetSp, Store8, // 5: drop it
		Push1, 40, Load1, // 7: old pass flag
		Push1, 1, Push1, 40, Store1, // 10: set pass flag
		JzBack, 16, // 15: loop once
		Exit, // 17
		0, 0, 0, 0, 0, 0, // pad
		0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 24..35
		0, 0, 0, 0, // 36..39
		0, 0, 0, 0, // 40: pass flag
		0x88, 0x77, 0x66, 0x55, 0x44, 0x33, 0x22, 0x11, // 44: data
	}

	recoded := runWithPanel(t, prog, DefaultControlPanel())
	require.Equal(t, recoded.Catalog().Tag("LD8_PC_1"), recoded.mem[0])

	fused := runWithPanel(t, prog, PatternsOnlyControlPanel())
	require.Equal(t, Opcode(GetPc), fused.mem[0], "use mode must not rewrite")

	plain := runWithPanel(t, prog, PlainControlPanel())

	for _, m := range []*Machine{recoded, fused, plain} {
		require.NoError(t, m.Err())
		require.Equal(t, recoded.SP(), m.SP())
		require.Equal(t, top(t, recoded), top(t, m))
		require.Equal(t, recoded.Steps(), m.Steps())
	}
	require.Less(t, recoded.Fetches(), plain.Fetches())
}

func TestShortJumpFusion(t *testing.T) {
	// PUSH0; JZ_FWD is always taken and fuses to SHORT_JUMPF.
	prog := []byte{
		Push0, JzFwd, 2,
		Push1, 0xAA,
		Push1, 0x55,
		Exit,
	}
	m := runWithPanel(t, prog, DefaultControlPanel())
	require.Equal(t, uint64(0x55), top(t, m))
	require.Equal(t, m.Catalog().Tag("SHORT_JUMPF"), m.mem[0])

	plain := runWithPanel(t, prog, PlainControlPanel())
	require.Equal(t, top(t, m), top(t, plain))
	require.Equal(t, m.Steps(), plain.Steps())
}

func TestLtJzFusion(t *testing.T) {
	// v=7, u=3: 7 < 3 is false, LT pushes 0 and JZ_FWD is taken,
	// skipping the 0xAA push.
	prog := []byte{
		Push1, 7, Push1, 3, Lt,
		JzFwd, 2,
		Push1, 0xAA,
		Push1, 0x55,
		Exit,
	}
	for _, panel := range []ControlPanel{DefaultControlPanel(), PlainControlPanel()} {
		m := runWithPanel(t, prog, panel)
		require.Equal(t, uint64(0x55), top(t, m))
	}
	m := runWithPanel(t, prog, DefaultControlPanel())
	require.Equal(t, m.Catalog().Tag("LT_JZF"), m.mem[4])
}

func TestPush1RunFusion(t *testing.T) {
	prog := []byte{
		Push1, 1, Push1, 2, Push1, 3, Push1, 4, Push1, 5, Push1, 6,
		Exit,
	}
	m := runWithPanel(t, prog, DefaultControlPanel())
	require.Equal(t, uint64(6), top(t, m))
	require.Equal(t, m.Catalog().Tag("PUSH1X4"), m.mem[0])
	// PUSH1X4 then the greedy tail pair, then EXIT.
	require.Equal(t, uint64(2), m.Fetches())
	require.Equal(t, uint64(7), m.Steps())

	plain := runWithPanel(t, prog, PlainControlPanel())
	require.Equal(t, top(t, m), top(t, plain))
	require.Equal(t, m.SP(), plain.SP())
	require.Equal(t, m.Steps(), plain.Steps())
}

func TestDecSpFusion(t *testing.T) {
	// GET_SP; PUSH1 15; NOT; ADD; SET_SP reserves two stack words.
	prog := []byte{
		Push1, 0x0A,
		GetSp, Push1, 15, Not, Add, SetSp,
		Push1, 0x0B,
		Exit,
	}
	m := runWithPanel(t, prog, DefaultControlPanel())
	require.Equal(t, m.Catalog().Tag("DEC_SP_1"), m.mem[2])
	plain := runWithPanel(t, prog, PlainControlPanel())
	require.Equal(t, m.SP(), plain.SP())
	require.Equal(t, top(t, m), top(t, plain))
	require.Equal(t, uint64(0x0B), top(t, m))
}

func TestConstToStackFusion(t *testing.T) {
	// PUSH1 v; GET_SP; PUSH1 8; ADD; STORE8 stores the constant over
	// the word just below its own push (the PUSH2 value), netting no
	// stack change. The
	// leading PUSH2 keeps the site from fusing as a PUSH1 pair.
	prog := []byte{
		Push2, 0x11, 0x00,
		Push1, 0x99, GetSp, Push1, 8, Add, Store8,
		Exit,
	}
	m := runWithPanel(t, prog, DefaultControlPanel())
	require.Equal(t, m.Catalog().Tag("C1TOSTACK8"), m.mem[3])
	plain := runWithPanel(t, prog, PlainControlPanel())
	require.Equal(t, m.SP(), plain.SP())
	require.Equal(t, top(t, m), top(t, plain))
	require.Equal(t, uint64(0x99), top(t, m))
	require.Equal(t, m.Steps(), plain.Steps())
}

func TestFastPopFusion(t *testing.T) {
	prog := []byte{
		Push1, 0x0A,
		Push1, 0x0B,
		GetSp, Store8,
		Exit,
	}
	m := runWithPanel(t, prog, DefaultControlPanel())
	require.Equal(t, m.Catalog().Tag("FAST_POP"), m.mem[4])
	require.Equal(t, uint64(0x0A), top(t, m))

	plain := runWithPanel(t, prog, PlainControlPanel())
	require.Equal(t, m.SP(), plain.SP())
	require.Equal(t, top(t, m), top(t, plain))
}

func TestXorLtFusion(t *testing.T) {
	// (5 ^ 6) = 3 < 4 yields all-ones.
	prog := []byte{
		Push1, 5, Push1, 6, Xor, Push1, 4, Lt,
		Exit,
	}
	m := runWithPanel(t, prog, DefaultControlPanel())
	require.Equal(t, ^uint64(0), top(t, m))
	require.Equal(t, m.Catalog().Tag("XOR_1_LT"), m.mem[4])
	plain := runWithPanel(t, prog, PlainControlPanel())
	require.Equal(t, top(t, m), top(t, plain))
}

func TestPow2Fusion(t *testing.T) {
	// PUSH1 4; POW2; ADD adds 16 to the running value.
	prog := []byte{
		Push2, 0x0A, 0x00,
		Push1, 4, Pow2, Add,
		Exit,
	}
	m := runWithPanel(t, prog, DefaultControlPanel())
	require.Equal(t, uint64(0x1A), top(t, m))
	require.Equal(t, m.Catalog().Tag("POW2_1_ADD"), m.mem[3])
	plain := runWithPanel(t, prog, PlainControlPanel())
	require.Equal(t, top(t, m), top(t, plain))
	require.Equal(t, m.Steps(), plain.Steps())
}

func TestJumpPcFusion(t *testing.T) {
	// PUSH1 4; GET_PC; ADD; JUMP skips the 0xAA push.
	prog := []byte{
		Push1, 4, GetPc, Add, Jump,
		Push1, 0xAA,
		Push1, 0x55,
		Exit,
	}
	m := runWithPanel(t, prog, DefaultControlPanel())
	require.Equal(t, uint64(0x55), top(t, m))
	require.Equal(t, m.Catalog().Tag("JUMP_PC_1"), m.mem[0])
	plain := runWithPanel(t, prog, PlainControlPanel())
	require.Equal(t, top(t, m), top(t, plain))
	require.Equal(t, m.SP(), plain.SP())
}

// The PC advance of a synthesized opcode equals 1 + its opbytes on the
// straight-line path, here checked through the NOP8 and PC_OFFSET
// sites of a single program.
func TestSynthesizedAdvanceMatchesOpbytes(t *testing.T) {
	prog := []byte{
		Nop, Nop, Nop, Nop, Nop, Nop, Nop, Nop, // NOP8: opbytes 7
		GetPc, Push1, 7, Add, // PC_OFFSET: opbytes 3
		Exit,
	}
	m := runWithPanel(t, prog, DefaultControlPanel())
	require.NoError(t, m.Err())
	cat := m.Catalog()
	require.Equal(t, 7, cat.Opbytes(cat.Tag("NOP8")))
	require.Equal(t, 3, cat.Opbytes(cat.Tag("PC_OFFSET")))
	require.Equal(t, cat.Tag("NOP8"), m.mem[0])
	require.Equal(t, cat.Tag("PC_OFFSET"), m.mem[8])
	// PC_OFFSET pushed the address just past GET_PC plus 7.
	require.Equal(t, uint64(9+7), top(t, m))
}
