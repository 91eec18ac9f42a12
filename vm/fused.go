package ivm

/*
	Handlers for the synthesized super-opcodes. Each performs the whole
	replaced sequence in one step, advances the PC over the full pattern,
	and records the fused instruction count.

	The handlers are reached two ways: from the native handler right
	after a pattern match, and directly through the dispatch table once
	the first byte has been recoded. Both paths see the same operand
	bytes, because recoding only ever rewrites the first byte of the
	pattern; the prefetched word w therefore decodes identically.

	In the prefetched word, w>>8 is the byte at PC, w>>16 the byte at
	PC+1 and w>>24 the byte at PC+2.
*/

// fusedHandlers maps synthOp identities to their handlers; the catalog
// copies the enabled ones into the 256-entry dispatch table.
var fusedHandlers = [synthOpCount]func(*Machine, uint32){
	synNewNop:   (*Machine).fNewNop,
	synNewGetPc: (*Machine).fNewGetPc,
	synNewGetSp: (*Machine).fNewGetSp,
	synNewPush0: (*Machine).fNewPush0,
	synNewPush1: (*Machine).fNewPush1,
	synNewPush2: (*Machine).fNewPush2,
	synNewPush4: (*Machine).fNewPush4,
	synNewLt:    (*Machine).fNewLt,
	synNewXor:   (*Machine).fNewXor,

	synNop2: (*Machine).fNop2,
	synNop4: (*Machine).fNop4,
	synNop8: (*Machine).fNop8,

	synLd1Pc8:  (*Machine).fLd1Pc8,
	synLd2Pc8:  (*Machine).fLd2Pc8,
	synLd4Pc8:  (*Machine).fLd4Pc8,
	synLd8Pc8:  (*Machine).fLd8Pc8,
	synSt1Pc8:  (*Machine).fSt1Pc8,
	synSt2Pc8:  (*Machine).fSt2Pc8,
	synSt4Pc8:  (*Machine).fSt4Pc8,
	synSt8Pc8:  (*Machine).fSt8Pc8,
	synPc8Jump: (*Machine).fPc8Jump,
	synPc8:     (*Machine).fPc8,

	synLd1Pc4:  (*Machine).fLd1Pc4,
	synLd2Pc4:  (*Machine).fLd2Pc4,
	synLd4Pc4:  (*Machine).fLd4Pc4,
	synLd8Pc4:  (*Machine).fLd8Pc4,
	synSt1Pc4:  (*Machine).fSt1Pc4,
	synSt2Pc4:  (*Machine).fSt2Pc4,
	synSt4Pc4:  (*Machine).fSt4Pc4,
	synSt8Pc4:  (*Machine).fSt8Pc4,
	synPc4Jump: (*Machine).fPc4Jump,
	synPc4:     (*Machine).fPc4,

	synLd1Pc2:  (*Machine).fLd1Pc2,
	synLd2Pc2:  (*Machine).fLd2Pc2,
	synLd4Pc2:  (*Machine).fLd4Pc2,
	synLd8Pc2:  (*Machine).fLd8Pc2,
	synSt1Pc2:  (*Machine).fSt1Pc2,
	synSt2Pc2:  (*Machine).fSt2Pc2,
	synSt4Pc2:  (*Machine).fSt4Pc2,
	synSt8Pc2:  (*Machine).fSt8Pc2,
	synPc2Jump: (*Machine).fPc2Jump,
	synPc2:     (*Machine).fPc2,

	synLd1Pc1:   (*Machine).fLd1Pc1,
	synLd2Pc1:   (*Machine).fLd2Pc1,
	synLd4Pc1:   (*Machine).fLd4Pc1,
	synLd8Pc1:   (*Machine).fLd8Pc1,
	synSt1Pc1:   (*Machine).fSt1Pc1,
	synSt2Pc1:   (*Machine).fSt2Pc1,
	synSt4Pc1:   (*Machine).fSt4Pc1,
	synSt8Pc1:   (*Machine).fSt8Pc1,
	synPc1Jump:  (*Machine).fPc1Jump,
	synPc1Nop:   (*Machine).fPc1Nop,
	synPcOffset: (*Machine).fPcOffset,

	synLd1Sp1:   (*Machine).fLd1Sp1,
	synLd2Sp1:   (*Machine).fLd2Sp1,
	synLd4Sp1:   (*Machine).fLd4Sp1,
	synLd8Sp1:   (*Machine).fLd8Sp1,
	synSt1Sp1:   (*Machine).fSt1Sp1,
	synSt2Sp1:   (*Machine).fSt2Sp1,
	synSt4Sp1:   (*Machine).fSt4Sp1,
	synSt8Sp1:   (*Machine).fSt8Sp1,
	synChangeSp: (*Machine).fChangeSp,
	synSpOffset: (*Machine).fSpOffset,

	synLd1Sp2: (*Machine).fLd1Sp2,
	synLd2Sp2: (*Machine).fLd2Sp2,
	synLd4Sp2: (*Machine).fLd4Sp2,
	synLd8Sp2: (*Machine).fLd8Sp2,
	synSt1Sp2: (*Machine).fSt1Sp2,
	synSt2Sp2: (*Machine).fSt2Sp2,
	synSt4Sp2: (*Machine).fSt4Sp2,
	synSt8Sp2: (*Machine).fSt8Sp2,
	synSp2:    (*Machine).fSp2,

	synSp1:    (*Machine).fSp1,
	synDecSp1: (*Machine).fDecSp1,

	synFastPop:  (*Machine).fFastPop,
	synFastPop2: (*Machine).fFastPop2,

	synShortJumpF: (*Machine).fShortJumpF,
	synShortJumpB: (*Machine).fShortJumpB,
	synXor0:       (*Machine).fXor0,
	synNot0Mul:    (*Machine).fNot0Mul,
	synPush0x2:    (*Machine).fPush0x2,
	synPush0x3:    (*Machine).fPush0x3,
	synPush0x4:    (*Machine).fPush0x4,

	synLt1Jzf:  (*Machine).fLt1Jzf,
	synLt1Jzb:  (*Machine).fLt1Jzb,
	synNot1Add: (*Machine).fNot1Add,
	synLt1Not:  (*Machine).fLt1Not,
	synLt1Jnzf: (*Machine).fLt1Jnzf,
	synLt1Jnzb: (*Machine).fLt1Jnzb,

	synPow21Add: (*Machine).fPow21Add,
	synPow21Mul: (*Machine).fPow21Mul,
	synPow21Lt:  (*Machine).fPow21Lt,
	synPow21Div: (*Machine).fPow21Div,
	synPow21:    (*Machine).fPow21,

	synPush1x2: (*Machine).fPush1x2,
	synPush1x4: (*Machine).fPush1x4,

	synC1ToStack1: (*Machine).fC1ToStack1,
	synC1ToStack2: (*Machine).fC1ToStack2,
	synC1ToStack4: (*Machine).fC1ToStack4,
	synC1ToStack8: (*Machine).fC1ToStack8,
	synJumpPc1:    (*Machine).fJumpPc1,

	synJumpPc2:    (*Machine).fJumpPc2,
	synC2ToStack1: (*Machine).fC2ToStack1,
	synC2ToStack2: (*Machine).fC2ToStack2,
	synC2ToStack4: (*Machine).fC2ToStack4,
	synC2ToStack8: (*Machine).fC2ToStack8,

	synJumpPc4: (*Machine).fJumpPc4,

	synLtJzf:    (*Machine).fLtJzf,
	synLtNotJzf: (*Machine).fLtNotJzf,
	synLtJzb:    (*Machine).fLtJzb,
	synLtNotJzb: (*Machine).fLtNotJzb,

	synXor1Lt: (*Machine).fXor1Lt,
}

// Recoded-native twins: plain native semantics without the pattern
// matching, dispatched on the second and later executions.

func (m *Machine) fNewNop(uint32) {}

func (m *Machine) fNewGetPc(uint32) { m.push(m.pc) }

func (m *Machine) fNewGetSp(uint32) { m.push(m.sp) }

func (m *Machine) fNewPush0(uint32) { m.push(0) }

func (m *Machine) fNewPush1(w uint32) {
	m.push(uint64(uint8(w >> 8)))
	m.pc++
}

func (m *Machine) fNewPush2(w uint32) {
	m.push(uint64(uint16(w >> 8)))
	m.pc += 2
}

func (m *Machine) fNewPush4(uint32) {
	m.push(uint64(m.peek4(m.pc)))
	m.pc += 4
}

func (m *Machine) fNewLt(uint32) {
	u := m.pop()
	v := m.pop()
	m.push(ltWord(v, u))
}

func (m *Machine) fNewXor(uint32) {
	u := m.pop()
	v := m.pop()
	m.push(u ^ v)
}

// NOP runs.

func (m *Machine) fNop2(uint32) {
	m.pc += 1
	m.step(1)
}

func (m *Machine) fNop4(uint32) {
	m.pc += 3
	m.step(3)
}

func (m *Machine) fNop8(uint32) {
	m.pc += 7
	m.step(7)
}

// GET_PC/PUSH1 k/ADD group: the operand is the byte at PC+1 and the
// effective address is PC plus that offset, PC taken right after the
// GET_PC byte.

func (m *Machine) fLd1Pc1(w uint32) {
	m.push(m.load1(m.pc + uint64(uint8(w>>16))))
	m.pc += 4
	m.step(3)
}

func (m *Machine) fLd2Pc1(w uint32) {
	m.push(m.load2(m.pc + uint64(uint8(w>>16))))
	m.pc += 4
	m.step(3)
}

func (m *Machine) fLd4Pc1(w uint32) {
	m.push(m.load4(m.pc + uint64(uint8(w>>16))))
	m.pc += 4
	m.step(3)
}

func (m *Machine) fLd8Pc1(w uint32) {
	m.push(m.load8(m.pc + uint64(uint8(w>>16))))
	m.pc += 4
	m.step(3)
}

func (m *Machine) fSt1Pc1(w uint32) {
	m.store1(m.pc+uint64(uint8(w>>16)), m.pop())
	m.pc += 4
	m.step(3)
}

func (m *Machine) fSt2Pc1(w uint32) {
	m.store2(m.pc+uint64(uint8(w>>16)), m.pop())
	m.pc += 4
	m.step(3)
}

func (m *Machine) fSt4Pc1(w uint32) {
	m.store4(m.pc+uint64(uint8(w>>16)), m.pop())
	m.pc += 4
	m.step(3)
}

func (m *Machine) fSt8Pc1(w uint32) {
	m.store8(m.pc+uint64(uint8(w>>16)), m.pop())
	m.pc += 4
	m.step(3)
}

func (m *Machine) fPc1Jump(w uint32) {
	m.pc += uint64(uint8(w >> 16))
	m.step(3)
}

func (m *Machine) fPc1Nop(w uint32) {
	m.push(m.pc + uint64(uint8(w>>16)))
	m.pc += 4
	m.step(3)
}

func (m *Machine) fPcOffset(w uint32) {
	m.push(m.pc + uint64(uint8(w>>16)))
	m.pc += 3
	m.step(2)
}

// GET_PC/PUSH2 group.

func (m *Machine) fLd1Pc2(w uint32) {
	m.push(m.load1(m.pc + uint64(uint16(w>>16))))
	m.pc += 5
	m.step(3)
}

func (m *Machine) fLd2Pc2(w uint32) {
	m.push(m.load2(m.pc + uint64(uint16(w>>16))))
	m.pc += 5
	m.step(3)
}

func (m *Machine) fLd4Pc2(w uint32) {
	m.push(m.load4(m.pc + uint64(uint16(w>>16))))
	m.pc += 5
	m.step(3)
}

func (m *Machine) fLd8Pc2(w uint32) {
	m.push(m.load8(m.pc + uint64(uint16(w>>16))))
	m.pc += 5
	m.step(3)
}

func (m *Machine) fSt1Pc2(w uint32) {
	m.store1(m.pc+uint64(uint16(w>>16)), m.pop())
	m.pc += 5
	m.step(3)
}

func (m *Machine) fSt2Pc2(w uint32) {
	m.store2(m.pc+uint64(uint16(w>>16)), m.pop())
	m.pc += 5
	m.step(3)
}

func (m *Machine) fSt4Pc2(w uint32) {
	m.store4(m.pc+uint64(uint16(w>>16)), m.pop())
	m.pc += 5
	m.step(3)
}

func (m *Machine) fSt8Pc2(w uint32) {
	m.store8(m.pc+uint64(uint16(w>>16)), m.pop())
	m.pc += 5
	m.step(3)
}

func (m *Machine) fPc2Jump(w uint32) {
	m.pc += uint64(uint16(w >> 16))
	m.step(3)
}

func (m *Machine) fPc2(w uint32) {
	m.push(m.pc)
	m.push(uint64(uint16(w >> 16)))
	m.pc += 3
	m.step(1)
}

// GET_PC/PUSH4 group. The 4-byte immediate starts at PC+1 and runs past
// the end of the prefetched word, so it is read from memory.

func (m *Machine) fLd1Pc4(uint32) {
	m.push(m.load1(m.pc + uint64(m.peek4(m.pc+1))))
	m.pc += 7
	m.step(3)
}

func (m *Machine) fLd2Pc4(uint32) {
	m.push(m.load2(m.pc + uint64(m.peek4(m.pc+1))))
	m.pc += 7
	m.step(3)
}

func (m *Machine) fLd4Pc4(uint32) {
	m.push(m.load4(m.pc + uint64(m.peek4(m.pc+1))))
	m.pc += 7
	m.step(3)
}

func (m *Machine) fLd8Pc4(uint32) {
	m.push(m.load8(m.pc + uint64(m.peek4(m.pc+1))))
	m.pc += 7
	m.step(3)
}

func (m *Machine) fSt1Pc4(uint32) {
	m.store1(m.pc+uint64(m.peek4(m.pc+1)), m.pop())
	m.pc += 7
	m.step(3)
}

func (m *Machine) fSt2Pc4(uint32) {
	m.store2(m.pc+uint64(m.peek4(m.pc+1)), m.pop())
	m.pc += 7
	m.step(3)
}

func (m *Machine) fSt4Pc4(uint32) {
	m.store4(m.pc+uint64(m.peek4(m.pc+1)), m.pop())
	m.pc += 7
	m.step(3)
}

func (m *Machine) fSt8Pc4(uint32) {
	m.store8(m.pc+uint64(m.peek4(m.pc+1)), m.pop())
	m.pc += 7
	m.step(3)
}

func (m *Machine) fPc4Jump(uint32) {
	m.pc += uint64(m.peek4(m.pc + 1))
	m.step(3)
}

func (m *Machine) fPc4(uint32) {
	m.push(m.pc)
	m.push(uint64(m.peek4(m.pc + 1)))
	m.pc += 5
	m.step(1)
}

// GET_PC/PUSH8 group.

func (m *Machine) fLd1Pc8(uint32) {
	m.push(m.load1(m.pc + m.peek8(m.pc+1)))
	m.pc += 11
	m.step(3)
}

func (m *Machine) fLd2Pc8(uint32) {
	m.push(m.load2(m.pc + m.peek8(m.pc+1)))
	m.pc += 11
	m.step(3)
}

func (m *Machine) fLd4Pc8(uint32) {
	m.push(m.load4(m.pc + m.peek8(m.pc+1)))
	m.pc += 11
	m.step(3)
}

func (m *Machine) fLd8Pc8(uint32) {
	m.push(m.load8(m.pc + m.peek8(m.pc+1)))
	m.pc += 11
	m.step(3)
}

func (m *Machine) fSt1Pc8(uint32) {
	m.store1(m.pc+m.peek8(m.pc+1), m.pop())
	m.pc += 11
	m.step(3)
}

func (m *Machine) fSt2Pc8(uint32) {
	m.store2(m.pc+m.peek8(m.pc+1), m.pop())
	m.pc += 11
	m.step(3)
}

func (m *Machine) fSt4Pc8(uint32) {
	m.store4(m.pc+m.peek8(m.pc+1), m.pop())
	m.pc += 11
	m.step(3)
}

func (m *Machine) fSt8Pc8(uint32) {
	m.store8(m.pc+m.peek8(m.pc+1), m.pop())
	m.pc += 11
	m.step(3)
}

func (m *Machine) fPc8Jump(uint32) {
	m.pc += m.peek8(m.pc + 1)
	m.step(3)
}

func (m *Machine) fPc8(uint32) {
	m.push(m.pc)
	m.push(m.peek8(m.pc + 1))
	m.pc += 9
	m.step(1)
}

// GET_SP/PUSH1 k/ADD group. The address is computed from SP before any
// pop so the fused store matches the unfused sequence.

func (m *Machine) fLd1Sp1(w uint32) {
	m.push(m.load1(m.sp + uint64(uint8(w>>16))))
	m.pc += 4
	m.step(3)
}

func (m *Machine) fLd2Sp1(w uint32) {
	m.push(m.load2(m.sp + uint64(uint8(w>>16))))
	m.pc += 4
	m.step(3)
}

func (m *Machine) fLd4Sp1(w uint32) {
	m.push(m.load4(m.sp + uint64(uint8(w>>16))))
	m.pc += 4
	m.step(3)
}

func (m *Machine) fLd8Sp1(w uint32) {
	m.push(m.load8(m.sp + uint64(uint8(w>>16))))
	m.pc += 4
	m.step(3)
}

func (m *Machine) fSt1Sp1(w uint32) {
	addr := m.sp + uint64(uint8(w>>16))
	m.store1(addr, m.pop())
	m.pc += 4
	m.step(3)
}

func (m *Machine) fSt2Sp1(w uint32) {
	addr := m.sp + uint64(uint8(w>>16))
	m.store2(addr, m.pop())
	m.pc += 4
	m.step(3)
}

func (m *Machine) fSt4Sp1(w uint32) {
	addr := m.sp + uint64(uint8(w>>16))
	m.store4(addr, m.pop())
	m.pc += 4
	m.step(3)
}

func (m *Machine) fSt8Sp1(w uint32) {
	addr := m.sp + uint64(uint8(w>>16))
	m.store8(addr, m.pop())
	m.pc += 4
	m.step(3)
}

func (m *Machine) fChangeSp(w uint32) {
	m.sp += uint64(uint8(w >> 16))
	m.pc += 4
	m.step(3)
}

func (m *Machine) fSpOffset(w uint32) {
	m.push(m.sp + uint64(uint8(w>>16)))
	m.pc += 3
	m.step(2)
}

// GET_SP/PUSH2 group.

func (m *Machine) fLd1Sp2(w uint32) {
	m.push(m.load1(m.sp + uint64(uint16(w>>16))))
	m.pc += 5
	m.step(3)
}

func (m *Machine) fLd2Sp2(w uint32) {
	m.push(m.load2(m.sp + uint64(uint16(w>>16))))
	m.pc += 5
	m.step(3)
}

func (m *Machine) fLd4Sp2(w uint32) {
	m.push(m.load4(m.sp + uint64(uint16(w>>16))))
	m.pc += 5
	m.step(3)
}

func (m *Machine) fLd8Sp2(w uint32) {
	m.push(m.load8(m.sp + uint64(uint16(w>>16))))
	m.pc += 5
	m.step(3)
}

func (m *Machine) fSt1Sp2(w uint32) {
	addr := m.sp + uint64(uint16(w>>16))
	m.store1(addr, m.pop())
	m.pc += 5
	m.step(3)
}

func (m *Machine) fSt2Sp2(w uint32) {
	addr := m.sp + uint64(uint16(w>>16))
	m.store2(addr, m.pop())
	m.pc += 5
	m.step(3)
}

func (m *Machine) fSt4Sp2(w uint32) {
	addr := m.sp + uint64(uint16(w>>16))
	m.store4(addr, m.pop())
	m.pc += 5
	m.step(3)
}

func (m *Machine) fSt8Sp2(w uint32) {
	addr := m.sp + uint64(uint16(w>>16))
	m.store8(addr, m.pop())
	m.pc += 5
	m.step(3)
}

func (m *Machine) fSp2(w uint32) {
	m.push(m.sp)
	m.push(uint64(uint16(w >> 16)))
	m.pc += 3
	m.step(1)
}

func (m *Machine) fSp1(w uint32) {
	m.push(m.sp)
	m.push(uint64(uint8(w >> 16)))
	m.pc += 2
	m.step(1)
}

// GET_SP/PUSH1 k/NOT/ADD/SET_SP: the frame-pointer decrement,
// SP = SP - k - 1.
func (m *Machine) fDecSp1(w uint32) {
	m.sp += ^uint64(uint8(w >> 16))
	m.pc += 5
	m.step(4)
}

// GET_SP/STORE* discards the top word; the doubled form discards two.

func (m *Machine) fFastPop(uint32) {
	m.sp += bytesPerWord
	m.pc += 1
	m.step(1)
}

func (m *Machine) fFastPop2(uint32) {
	m.sp += 2 * bytesPerWord
	m.pc += 3
	m.step(3)
}

// PUSH0 group.

func (m *Machine) fShortJumpF(w uint32) {
	m.pc += uint64(uint8(w>>16)) + 2
	m.step(1)
}

func (m *Machine) fShortJumpB(w uint32) {
	m.pc -= uint64(uint8(w>>16)) - 1
	m.step(1)
}

func (m *Machine) fXor0(uint32) {
	m.pc++
	m.step(1)
}

func (m *Machine) fNot0Mul(uint32) {
	u := m.pop()
	m.push(^u + 1)
	m.pc += 2
	m.step(2)
}

func (m *Machine) fPush0x2(uint32) {
	m.push(0)
	m.push(0)
	m.pc += 1
	m.step(1)
}

func (m *Machine) fPush0x3(uint32) {
	m.push(0)
	m.push(0)
	m.push(0)
	m.pc += 2
	m.step(2)
}

func (m *Machine) fPush0x4(uint32) {
	m.push(0)
	m.push(0)
	m.push(0)
	m.push(0)
	m.pc += 3
	m.step(3)
}

// PUSH1 k/LT/... comparisons against a constant. The immediate is the
// byte at PC.

func (m *Machine) fLt1Jzf(w uint32) {
	u := uint64(uint8(w >> 8))
	v := m.pop()
	m.step(2)
	if v < u {
		m.pc += 4
	} else {
		m.pc += uint64(m.peek1(m.pc+3)) + 4
	}
}

func (m *Machine) fLt1Jzb(w uint32) {
	u := uint64(uint8(w >> 8))
	v := m.pop()
	m.step(2)
	if v < u {
		m.pc += 4
	} else {
		m.pc -= uint64(m.peek1(m.pc+3)) - 3
	}
}

func (m *Machine) fLt1Jnzf(w uint32) {
	u := uint64(uint8(w >> 8))
	v := m.pop()
	m.step(3)
	if v >= u {
		m.pc += 5
	} else {
		m.pc += uint64(m.peek1(m.pc+4)) + 5
	}
}

func (m *Machine) fLt1Jnzb(w uint32) {
	u := uint64(uint8(w >> 8))
	v := m.pop()
	m.step(3)
	if v >= u {
		m.pc += 5
	} else {
		m.pc -= uint64(m.peek1(m.pc+4)) - 4
	}
}

func (m *Machine) fLt1Not(w uint32) {
	u := uint64(uint8(w >> 8))
	v := m.pop()
	if v < u {
		m.push(0)
	} else {
		m.push(^uint64(0))
	}
	m.pc += 3
	m.step(2)
}

// PUSH1 k/NOT/ADD: subtract k+1 from the top word.
func (m *Machine) fNot1Add(w uint32) {
	u := uint64(uint8(w >> 8))
	v := m.pop()
	m.push(v + ^u)
	m.pc += 3
	m.step(2)
}

// PUSH1 k/POW2 group.

func (m *Machine) fPow21Add(w uint32) {
	y := m.pop()
	m.push(pow2Word(uint64(uint8(w>>8))) + y)
	m.pc += 3
	m.step(2)
}

func (m *Machine) fPow21Mul(w uint32) {
	y := m.pop()
	m.push(pow2Word(uint64(uint8(w>>8))) * y)
	m.pc += 3
	m.step(2)
}

func (m *Machine) fPow21Lt(w uint32) {
	u := pow2Word(uint64(uint8(w >> 8)))
	v := m.pop()
	m.pc += 3
	m.step(2)
	m.push(ltWord(v, u))
}

func (m *Machine) fPow21Div(w uint32) {
	u := pow2Word(uint64(uint8(w >> 8)))
	v := m.pop()
	if q, ok := m.divide(v, u); ok {
		m.push(q)
	}
	m.pc += 3
	m.step(2)
}

func (m *Machine) fPow21(w uint32) {
	m.push(pow2Word(uint64(uint8(w >> 8))))
	m.pc += 2
	m.step(1)
}

// PUSH1 runs.

func (m *Machine) fPush1x2(w uint32) {
	m.push(uint64(uint8(w >> 8)))
	m.push(uint64(uint8(w >> 24)))
	m.pc += 3
	m.step(1)
}

// fPush1x4 pushes the four recoded immediates and then greedily
// consumes any further PUSH1 pairs that follow the pattern.
func (m *Machine) fPush1x4(w uint32) {
	high4 := m.peek4(m.pc + 3)
	m.push(uint64(uint8(w >> 8)))
	m.push(uint64(uint8(w >> 24)))
	m.push(uint64(uint8(high4 >> 8)))
	m.push(uint64(uint8(high4 >> 24)))
	m.pc += 7
	m.step(3)
	for {
		pair := m.peek4(m.pc)
		if pair&0x00ff00ff != uint32(Push1)<<16|uint32(Push1) {
			return
		}
		m.push(uint64(uint8(pair >> 8)))
		m.push(uint64(uint8(pair >> 24)))
		m.pc += 4
		m.step(2)
	}
}

// PUSH1 v/GET_SP/PUSH1 a/ADD/STOREn writes the constant v into the
// stack slot at SP+a-8, the address the unfused sequence would have
// produced with its own push in flight.

func (m *Machine) fC1ToStack1(w uint32) {
	addr := m.sp + uint64(m.peek1(m.pc+3)) - bytesPerWord
	m.store1(addr, uint64(uint8(w>>8)))
	m.pc += 6
	m.step(4)
}

func (m *Machine) fC1ToStack2(w uint32) {
	addr := m.sp + uint64(m.peek1(m.pc+3)) - bytesPerWord
	m.store2(addr, uint64(uint8(w>>8)))
	m.pc += 6
	m.step(4)
}

func (m *Machine) fC1ToStack4(w uint32) {
	addr := m.sp + uint64(m.peek1(m.pc+3)) - bytesPerWord
	m.store4(addr, uint64(uint8(w>>8)))
	m.pc += 6
	m.step(4)
}

func (m *Machine) fC1ToStack8(w uint32) {
	addr := m.sp + uint64(m.peek1(m.pc+3)) - bytesPerWord
	m.store8(addr, uint64(uint8(w>>8)))
	m.pc += 6
	m.step(4)
}

func (m *Machine) fJumpPc1(w uint32) {
	m.pc += uint64(uint8(w>>8)) + 2
	m.step(3)
}

func (m *Machine) fJumpPc2(w uint32) {
	m.pc += uint64(uint16(w>>8)) + 3
	m.step(3)
}

func (m *Machine) fC2ToStack1(w uint32) {
	addr := m.sp + uint64(m.peek1(m.pc+4)) - bytesPerWord
	m.store1(addr, uint64(uint16(w>>8)))
	m.pc += 7
	m.step(4)
}

func (m *Machine) fC2ToStack2(w uint32) {
	addr := m.sp + uint64(m.peek1(m.pc+4)) - bytesPerWord
	m.store2(addr, uint64(uint16(w>>8)))
	m.pc += 7
	m.step(4)
}

func (m *Machine) fC2ToStack4(w uint32) {
	addr := m.sp + uint64(m.peek1(m.pc+4)) - bytesPerWord
	m.store4(addr, uint64(uint16(w>>8)))
	m.pc += 7
	m.step(4)
}

func (m *Machine) fC2ToStack8(w uint32) {
	addr := m.sp + uint64(m.peek1(m.pc+4)) - bytesPerWord
	m.store8(addr, uint64(uint16(w>>8)))
	m.pc += 7
	m.step(4)
}

func (m *Machine) fJumpPc4(uint32) {
	m.pc += uint64(m.peek4(m.pc)) + 5
	m.step(3)
}

// LT followed by a conditional jump.

func (m *Machine) fLtJzf(w uint32) {
	u := m.pop()
	v := m.pop()
	m.step(1)
	if v < u {
		m.pc += 2
	} else {
		m.pc += uint64(uint8(w>>16)) + 2
	}
}

func (m *Machine) fLtJzb(w uint32) {
	u := m.pop()
	v := m.pop()
	m.step(1)
	if v < u {
		m.pc += 2
	} else {
		m.pc -= uint64(uint8(w>>16)) - 1
	}
}

func (m *Machine) fLtNotJzf(w uint32) {
	u := m.pop()
	v := m.pop()
	m.step(2)
	if v < u {
		m.pc += uint64(uint8(w>>24)) + 3
	} else {
		m.pc += 3
	}
}

func (m *Machine) fLtNotJzb(w uint32) {
	u := m.pop()
	v := m.pop()
	m.step(2)
	if v < u {
		m.pc -= uint64(uint8(w>>24)) - 2
	} else {
		m.pc += 3
	}
}

// XOR/PUSH1 k/LT.
func (m *Machine) fXor1Lt(w uint32) {
	k := uint64(uint8(w >> 16))
	u := m.pop()
	v := m.pop()
	m.pc += 3
	m.step(2)
	m.push(ltWord(u^v, k))
}
