package ivm

import (
	"errors"
	"fmt"
)

// Attributes describes one opcode for diagnostics: its mnemonic and the
// size of its immediate operand in bytes. For synthesized opcodes the
// operand size is the full replaced pattern length minus the opcode byte,
// so the PC advance invariant holds on the direct dispatch path too.
type Attributes struct {
	Name    string
	Opbytes int
}

// Mode selects what a pattern family is allowed to do.
//
//	ModeNone   - family disabled: no tags assigned, no matching
//	ModeUse    - match and execute fused, but never rewrite memory
//	ModeRecode - match, execute fused, and overwrite the opcode byte
type Mode int

const (
	ModeNone Mode = iota
	ModeUse
	ModeRecode
)

// Family identifies one toggleable pattern family.
type Family int

const (
	FamRecodeNative Family = iota
	FamNopN
	FamGetPcPush8Add
	FamGetPcPush4Add
	FamGetPcPush2Add
	FamGetPcPush1Add
	FamGetSpPush1Add
	FamGetSpPush2Add
	FamGetSpPush1
	FamGetSpStore
	FamPush0
	FamPush1Alu
	FamPush1Pow2
	FamPush1N
	FamPush1High4
	FamPush2
	FamPush4
	FamLt
	FamXor

	familyCount
)

var familyNames = [familyCount]string{
	"RECODE_NATIVE",
	"NOPN",
	"GETPC_PUSH8_ADD",
	"GETPC_PUSH4_ADD",
	"GETPC_PUSH2_ADD",
	"GETPC_PUSH1_ADD",
	"GETSP_PUSH1_ADD",
	"GETSP_PUSH2_ADD",
	"GETSP_PUSH1",
	"GETSP_STORE",
	"PUSH0",
	"PUSH1_ALU",
	"PUSH1_POW2",
	"PUSH1N",
	"PUSH1_HIGH4",
	"PUSH2",
	"PUSH4",
	"LT",
	"XOR",
}

func (f Family) String() string { return familyNames[f] }

// ControlPanel selects the pattern families for one catalog build.
type ControlPanel struct {
	Modes [familyCount]Mode
}

// DefaultControlPanel enables every family with in-place recoding, the
// configuration the emulator ships with.
func DefaultControlPanel() ControlPanel {
	var p ControlPanel
	for f := range p.Modes {
		p.Modes[f] = ModeRecode
	}
	return p
}

// PatternsOnlyControlPanel matches and fuses but never rewrites memory.
func PatternsOnlyControlPanel() ControlPanel {
	var p ControlPanel
	for f := range p.Modes {
		p.Modes[f] = ModeUse
	}
	return p
}

// PlainControlPanel disables all pattern families.
func PlainControlPanel() ControlPanel { return ControlPanel{} }

// synthOp identifies one synthesized (or recoded-native) opcode
// independently of the numeric tag the catalog assigns to it.
type synthOp int

const (
	synNewNop synthOp = iota
	synNewGetPc
	synNewGetSp
	synNewPush0
	synNewPush1
	synNewPush2
	synNewPush4
	synNewLt
	synNewXor

	synNop2
	synNop4
	synNop8

	synLd1Pc8
	synLd2Pc8
	synLd4Pc8
	synLd8Pc8
	synSt1Pc8
	synSt2Pc8
	synSt4Pc8
	synSt8Pc8
	synPc8Jump
	synPc8

	synLd1Pc4
	synLd2Pc4
	synLd4Pc4
	synLd8Pc4
	synSt1Pc4
	synSt2Pc4
	synSt4Pc4
	synSt8Pc4
	synPc4Jump
	synPc4

	synLd1Pc2
	synLd2Pc2
	synLd4Pc2
	synLd8Pc2
	synSt1Pc2
	synSt2Pc2
	synSt4Pc2
	synSt8Pc2
	synPc2Jump
	synPc2

	synLd1Pc1
	synLd2Pc1
	synLd4Pc1
	synLd8Pc1
	synSt1Pc1
	synSt2Pc1
	synSt4Pc1
	synSt8Pc1
	synPc1Jump
	synPc1Nop
	synPcOffset

	synLd1Sp1
	synLd2Sp1
	synLd4Sp1
	synLd8Sp1
	synSt1Sp1
	synSt2Sp1
	synSt4Sp1
	synSt8Sp1
	synChangeSp
	synSpOffset

	synLd1Sp2
	synLd2Sp2
	synLd4Sp2
	synLd8Sp2
	synSt1Sp2
	synSt2Sp2
	synSt4Sp2
	synSt8Sp2
	synSp2

	synSp1
	synDecSp1

	synFastPop
	synFastPop2

	synShortJumpF
	synShortJumpB
	synXor0
	synNot0Mul
	synPush0x2
	synPush0x3
	synPush0x4

	synLt1Jzf
	synLt1Jzb
	synNot1Add
	synLt1Not
	synLt1Jnzf
	synLt1Jnzb

	synPow21Add
	synPow21Mul
	synPow21Lt
	synPow21Div
	synPow21

	synPush1x2
	synPush1x4

	synC1ToStack1
	synC1ToStack2
	synC1ToStack4
	synC1ToStack8
	synJumpPc1

	synJumpPc2
	synC2ToStack1
	synC2ToStack2
	synC2ToStack4
	synC2ToStack8

	synJumpPc4

	synLtJzf
	synLtNotJzf
	synLtJzb
	synLtNotJzb

	synXor1Lt

	synthOpCount
)

// synthSpec describes one synthesized opcode: the family that owns it,
// its attributes, and whether it is disabled regardless of family mode.
// The table order fixes the tag numbering for a given control panel.
type synthSpec struct {
	family  Family
	name    string
	opbytes int
	off     bool
}

var synthSpecs = [synthOpCount]synthSpec{
	synNewNop:   {FamRecodeNative, "NEW_NOP", 0, false},
	synNewGetPc: {FamRecodeNative, "NEW_GET_PC", 0, false},
	synNewGetSp: {FamRecodeNative, "NEW_GET_SP", 0, false},
	synNewPush0: {FamRecodeNative, "NEW_PUSH0", 0, false},
	synNewPush1: {FamRecodeNative, "NEW_PUSH1", 1, false},
	synNewPush2: {FamRecodeNative, "NEW_PUSH2", 2, false},
	synNewPush4: {FamRecodeNative, "NEW_PUSH4", 4, false},
	synNewLt:    {FamRecodeNative, "NEW_LT", 0, false},
	synNewXor:   {FamRecodeNative, "NEW_XOR", 0, false},

	synNop2: {FamNopN, "NOP2", 1, false},
	synNop4: {FamNopN, "NOP4", 3, false},
	synNop8: {FamNopN, "NOP8", 7, false},

	synLd1Pc8:  {FamGetPcPush8Add, "LD1_PC_8", 11, false},
	synLd2Pc8:  {FamGetPcPush8Add, "LD2_PC_8", 11, false},
	synLd4Pc8:  {FamGetPcPush8Add, "LD4_PC_8", 11, false},
	synLd8Pc8:  {FamGetPcPush8Add, "LD8_PC_8", 11, false},
	synSt1Pc8:  {FamGetPcPush8Add, "ST1_PC_8", 11, false},
	synSt2Pc8:  {FamGetPcPush8Add, "ST2_PC_8", 11, false},
	synSt4Pc8:  {FamGetPcPush8Add, "ST4_PC_8", 11, false},
	synSt8Pc8:  {FamGetPcPush8Add, "ST8_PC_8", 11, false},
	synPc8Jump: {FamGetPcPush8Add, "PC_8_JUMP", 11, false},
	synPc8:     {FamGetPcPush8Add, "PC_8", 9, false},

	synLd1Pc4:  {FamGetPcPush4Add, "LD1_PC_4", 7, false},
	synLd2Pc4:  {FamGetPcPush4Add, "LD2_PC_4", 7, false},
	synLd4Pc4:  {FamGetPcPush4Add, "LD4_PC_4", 7, false},
	synLd8Pc4:  {FamGetPcPush4Add, "LD8_PC_4", 7, false},
	synSt1Pc4:  {FamGetPcPush4Add, "ST1_PC_4", 7, false},
	synSt2Pc4:  {FamGetPcPush4Add, "ST2_PC_4", 7, false},
	synSt4Pc4:  {FamGetPcPush4Add, "ST4_PC_4", 7, false},
	synSt8Pc4:  {FamGetPcPush4Add, "ST8_PC_4", 7, false},
	synPc4Jump: {FamGetPcPush4Add, "PC_4_JUMP", 7, false},
	synPc4:     {FamGetPcPush4Add, "PC_4", 5, false},

	synLd1Pc2:  {FamGetPcPush2Add, "LD1_PC_2", 5, false},
	synLd2Pc2:  {FamGetPcPush2Add, "LD2_PC_2", 5, false},
	synLd4Pc2:  {FamGetPcPush2Add, "LD4_PC_2", 5, false},
	synLd8Pc2:  {FamGetPcPush2Add, "LD8_PC_2", 5, false},
	synSt1Pc2:  {FamGetPcPush2Add, "ST1_PC_2", 5, false},
	synSt2Pc2:  {FamGetPcPush2Add, "ST2_PC_2", 5, false},
	synSt4Pc2:  {FamGetPcPush2Add, "ST4_PC_2", 5, false},
	synSt8Pc2:  {FamGetPcPush2Add, "ST8_PC_2", 5, false},
	synPc2Jump: {FamGetPcPush2Add, "PC_2_JUMP", 5, false},
	synPc2:     {FamGetPcPush2Add, "PC_2", 3, false},

	synLd1Pc1:   {FamGetPcPush1Add, "LD1_PC_1", 4, false},
	synLd2Pc1:   {FamGetPcPush1Add, "LD2_PC_1", 4, false},
	synLd4Pc1:   {FamGetPcPush1Add, "LD4_PC_1", 4, false},
	synLd8Pc1:   {FamGetPcPush1Add, "LD8_PC_1", 4, false},
	synSt1Pc1:   {FamGetPcPush1Add, "ST1_PC_1", 4, false},
	synSt2Pc1:   {FamGetPcPush1Add, "ST2_PC_1", 4, false},
	synSt4Pc1:   {FamGetPcPush1Add, "ST4_PC_1", 4, false},
	synSt8Pc1:   {FamGetPcPush1Add, "ST8_PC_1", 4, false},
	synPc1Jump:  {FamGetPcPush1Add, "PC_1_JUMP", 4, false},
	synPc1Nop:   {FamGetPcPush1Add, "PC_1_NOP", 4, false},
	synPcOffset: {FamGetPcPush1Add, "PC_OFFSET", 3, false},

	synLd1Sp1:   {FamGetSpPush1Add, "LD1_SP_1", 4, false},
	synLd2Sp1:   {FamGetSpPush1Add, "LD2_SP_1", 4, false},
	synLd4Sp1:   {FamGetSpPush1Add, "LD4_SP_1", 4, false},
	synLd8Sp1:   {FamGetSpPush1Add, "LD8_SP_1", 4, false},
	synSt1Sp1:   {FamGetSpPush1Add, "ST1_SP_1", 4, false},
	synSt2Sp1:   {FamGetSpPush1Add, "ST2_SP_1", 4, false},
	synSt4Sp1:   {FamGetSpPush1Add, "ST4_SP_1", 4, false},
	synSt8Sp1:   {FamGetSpPush1Add, "ST8_SP_1", 4, false},
	synChangeSp: {FamGetSpPush1Add, "CHANGE_SP", 4, false},
	synSpOffset: {FamGetSpPush1Add, "SP_OFFSET", 3, false},

	synLd1Sp2: {FamGetSpPush2Add, "LD1_SP_2", 5, false},
	synLd2Sp2: {FamGetSpPush2Add, "LD2_SP_2", 5, false},
	synLd4Sp2: {FamGetSpPush2Add, "LD4_SP_2", 5, false},
	synLd8Sp2: {FamGetSpPush2Add, "LD8_SP_2", 5, false},
	synSt1Sp2: {FamGetSpPush2Add, "ST1_SP_2", 5, false},
	synSt2Sp2: {FamGetSpPush2Add, "ST2_SP_2", 5, false},
	synSt4Sp2: {FamGetSpPush2Add, "ST4_SP_2", 5, false},
	synSt8Sp2: {FamGetSpPush2Add, "ST8_SP_2", 5, false},
	synSp2:    {FamGetSpPush2Add, "SP_2", 3, false},

	// SP_1 buys nothing over the plain pair and stays off; the
	// frame-pointer decrement is the one worth a tag.
	synSp1:    {FamGetSpPush1, "SP_1", 2, true},
	synDecSp1: {FamGetSpPush1, "DEC_SP_1", 5, false},

	synFastPop:  {FamGetSpStore, "FAST_POP", 1, false},
	synFastPop2: {FamGetSpStore, "FAST_POP2", 3, false},

	synShortJumpF: {FamPush0, "SHORT_JUMPF", 2, false},
	synShortJumpB: {FamPush0, "SHORT_JUMPB", 2, false},
	synXor0:       {FamPush0, "XOR_0", 1, false},
	synNot0Mul:    {FamPush0, "NOT_0_MUL", 2, false},
	synPush0x2:    {FamPush0, "PUSH0X2", 1, false},
	synPush0x3:    {FamPush0, "PUSH0X3", 2, false},
	synPush0x4:    {FamPush0, "PUSH0X4", 3, false},

	synLt1Jzf:  {FamPush1Alu, "LT_1_JZF", 4, false},
	synLt1Jzb:  {FamPush1Alu, "LT_1_JZB", 4, false},
	synNot1Add: {FamPush1Alu, "NOT_1_ADD", 3, false},
	synLt1Not:  {FamPush1Alu, "LT_1_NOT", 3, false},
	synLt1Jnzf: {FamPush1Alu, "LT_1_JNZF", 5, false},
	synLt1Jnzb: {FamPush1Alu, "LT_1_JNZB", 5, false},

	synPow21Add: {FamPush1Pow2, "POW2_1_ADD", 3, false},
	synPow21Mul: {FamPush1Pow2, "POW2_1_MUL", 3, false},
	synPow21Lt:  {FamPush1Pow2, "POW2_1_LT", 3, false},
	synPow21Div: {FamPush1Pow2, "POW2_1_DIV", 3, false},
	synPow21:    {FamPush1Pow2, "POW2_1", 2, false},

	synPush1x2: {FamPush1N, "PUSH1X2", 3, false},
	synPush1x4: {FamPush1N, "PUSH1X4", 7, false},

	synC1ToStack1: {FamPush1High4, "C1TOSTACK1", 6, false},
	synC1ToStack2: {FamPush1High4, "C1TOSTACK2", 6, false},
	synC1ToStack4: {FamPush1High4, "C1TOSTACK4", 6, false},
	synC1ToStack8: {FamPush1High4, "C1TOSTACK8", 6, false},
	synJumpPc1:    {FamPush1High4, "JUMP_PC_1", 4, false},

	synJumpPc2:    {FamPush2, "JUMP_PC_2", 5, false},
	synC2ToStack1: {FamPush2, "C2TOSTACK1", 7, false},
	synC2ToStack2: {FamPush2, "C2TOSTACK2", 7, false},
	synC2ToStack4: {FamPush2, "C2TOSTACK4", 7, false},
	synC2ToStack8: {FamPush2, "C2TOSTACK8", 7, false},

	synJumpPc4: {FamPush4, "JUMP_PC_4", 7, false},

	synLtJzf:    {FamLt, "LT_JZF", 2, false},
	synLtNotJzf: {FamLt, "LT_NOT_JZF", 3, false},
	synLtJzb:    {FamLt, "LT_JZB", 2, false},
	synLtNotJzb: {FamLt, "LT_NOT_JZB", 3, false},

	synXor1Lt: {FamXor, "XOR_1_LT", 3, false},
}

var errOpcodeSpaceExhausted = errors.New("opcode space exhausted")

// Catalog is the build-time composition of the instruction set: numeric
// tag assignment, dispatch table and attribute table, all derived from
// one control panel. The three views stay in lockstep because they are
// produced by the same pass over synthSpecs.
type Catalog struct {
	panel ControlPanel

	attrs   [256]Attributes
	present [256]bool
	recode  [256]bool

	// tags maps synthOp -> assigned opcode byte; zero means the opcode
	// does not exist in this build (zero is EXIT, never assignable).
	tags  [synthOpCount]Opcode
	famOn [familyCount]bool

	handlers [256]func(*Machine, uint32)
}

// NewCatalog assigns opcode numbers and builds the dispatch and
// attribute tables for the given control panel. Numbering is dense,
// starts right after the highest fixed native, and is stable for a
// given panel.
func NewCatalog(panel ControlPanel) (*Catalog, error) {
	c := &Catalog{panel: panel}

	for op, attr := range nativeAttributes {
		c.attrs[op] = attr
		c.present[op] = true
	}
	for op := range c.handlers {
		c.handlers[op] = (*Machine).opUnreachable
	}
	for op, h := range nativeHandlers {
		c.handlers[op] = h
	}

	next := Opcode(firstDynamicOpcode)
	for id := synthOp(0); id < synthOpCount; id++ {
		spec := synthSpecs[id]
		mode := panel.Modes[spec.family]
		if mode == ModeNone || spec.off {
			continue
		}
		if next >= Break {
			return nil, fmt.Errorf("%w: %s does not fit", errOpcodeSpaceExhausted, spec.name)
		}
		tag := next
		next++

		c.tags[id] = tag
		c.famOn[spec.family] = true
		c.attrs[tag] = Attributes{Name: spec.name, Opbytes: spec.opbytes}
		c.present[tag] = true
		c.recode[tag] = mode == ModeRecode
		c.handlers[tag] = fusedHandlers[id]
	}

	return c, nil
}

// Enabled reports whether any opcode of the family was assigned a tag.
func (c *Catalog) Enabled(f Family) bool { return c.famOn[f] }

// Attributes returns the mnemonic and operand size for an opcode byte.
// Unassigned bytes report an empty name and zero operand bytes.
func (c *Catalog) Attributes(op Opcode) Attributes { return c.attrs[op] }

// Name returns the mnemonic for an opcode byte.
func (c *Catalog) Name(op Opcode) string {
	if !c.present[op] {
		return "?unknown?"
	}
	return c.attrs[op].Name
}

// Opbytes returns the immediate-operand size for an opcode byte.
func (c *Catalog) Opbytes(op Opcode) int { return c.attrs[op].Opbytes }

// Tag returns the assigned byte for a synthesized opcode name, or zero
// if it does not exist in this build. Intended for tests and tooling.
func (c *Catalog) Tag(name string) Opcode {
	for id := synthOp(0); id < synthOpCount; id++ {
		if synthSpecs[id].name == name {
			return c.tags[id]
		}
	}
	return 0
}
