package riscv

// decompress expands a 16-bit RVC (compressed) instruction into the
// equivalent 32-bit standard instruction word, for the RV64C subset the
// toolchain actually emits for straight-line integer code: stack-relative
// loads/stores, register-register arithmetic, immediate arithmetic,
// branches, and jumps. Registers in quadrants 0 and the "CA"-format of
// quadrant 1 use the compressed 3-bit register encoding (x8-x15); other
// encodings use the full 5-bit field. ok is false for an encoding this
// interpreter does not recognize, which the caller reports as a guest
// trap.
func decompress(raw uint16) (inst uint32, width uint64, ok bool) {
	width = 2
	quadrant := raw & 0x3
	funct3 := (raw >> 13) & 0x7

	if raw == 0 {
		return 0, 0, false
	}

	switch quadrant {
	case 0x0:
		rdp := crs(raw, 2)
		rs1p := crs(raw, 7)
		switch funct3 {
		case 0x0: // C.ADDI4SPN
			nzuimm := ciw(raw)
			if nzuimm == 0 {
				return 0, 0, false
			}
			return encodeI(0x13, rdp, 0, RegSP, int32(nzuimm)), width, true
		case 0x3: // C.LD
			off := cl_ld(raw)
			return encodeI(0x03, rdp, 0x3, rs1p, off), width, true
		case 0x7: // C.SD
			off := cl_ld(raw)
			return encodeS(0x23, 0x3, rs1p, rdp, off), width, true
		case 0x2: // C.LW
			off := cl_lw(raw)
			return encodeI(0x03, rdp, 0x2, rs1p, off), width, true
		case 0x6: // C.SW
			off := cl_lw(raw)
			return encodeS(0x23, 0x2, rs1p, rdp, off), width, true
		}
		return 0, 0, false

	case 0x1:
		switch funct3 {
		case 0x0: // C.ADDI / C.NOP
			rd := cr(raw, 7)
			imm := ci(raw)
			return encodeI(0x13, rd, 0x0, rd, imm), width, true
		case 0x1: // C.ADDIW
			rd := cr(raw, 7)
			imm := ci(raw)
			return encodeI(0x1b, rd, 0x0, rd, imm), width, true
		case 0x2: // C.LI
			rd := cr(raw, 7)
			imm := ci(raw)
			return encodeI(0x13, rd, 0x0, RegZero, imm), width, true
		case 0x3:
			rd := cr(raw, 7)
			if rd == RegSP { // C.ADDI16SP
				imm := ci16sp(raw)
				if imm == 0 {
					return 0, 0, false
				}
				return encodeI(0x13, RegSP, 0x0, RegSP, imm), width, true
			}
			imm := ciLui(raw) // C.LUI
			if imm == 0 {
				return 0, 0, false
			}
			return uint32(imm)<<12&0xfffff000 | rd<<7 | 0x37, width, true
		case 0x4:
			funct2 := (raw >> 10) & 0x3
			rdp := crs(raw, 7)
			switch funct2 {
			case 0x0: // C.SRLI
				shamt := cshamt(raw)
				return encodeShift(0x13, rdp, 0x5, rdp, shamt, 0x00), width, true
			case 0x1: // C.SRAI
				shamt := cshamt(raw)
				return encodeShift(0x13, rdp, 0x5, rdp, shamt, 0x20), width, true
			case 0x2: // C.ANDI
				imm := ci(raw)
				return encodeI(0x13, rdp, 0x7, rdp, imm), width, true
			case 0x3:
				rs2p := crs(raw, 2)
				funct6bit := (raw >> 12) & 0x1
				sub := (raw >> 5) & 0x3
				if funct6bit == 0 {
					switch sub {
					case 0x0: // C.SUB
						return encodeR(0x33, rdp, 0x0, rdp, rs2p, 0x20), width, true
					case 0x1: // C.XOR
						return encodeR(0x33, rdp, 0x4, rdp, rs2p, 0x00), width, true
					case 0x2: // C.OR
						return encodeR(0x33, rdp, 0x6, rdp, rs2p, 0x00), width, true
					case 0x3: // C.AND
						return encodeR(0x33, rdp, 0x7, rdp, rs2p, 0x00), width, true
					}
				} else {
					switch sub {
					case 0x0: // C.SUBW
						return encodeR(0x3b, rdp, 0x0, rdp, rs2p, 0x20), width, true
					case 0x1: // C.ADDW
						return encodeR(0x3b, rdp, 0x0, rdp, rs2p, 0x00), width, true
					}
				}
			}
			return 0, 0, false
		case 0x5: // C.J
			imm := cj(raw)
			return encodeJ(0x6f, RegZero, imm), width, true
		case 0x6: // C.BEQZ
			imm := cb(raw)
			rs1p := crs(raw, 7)
			return encodeB(0x63, 0x0, rs1p, RegZero, imm), width, true
		case 0x7: // C.BNEZ
			imm := cb(raw)
			rs1p := crs(raw, 7)
			return encodeB(0x63, 0x1, rs1p, RegZero, imm), width, true
		}
		return 0, 0, false

	case 0x2:
		switch funct3 {
		case 0x0: // C.SLLI
			rd := cr(raw, 7)
			shamt := cshamt(raw)
			return encodeShift(0x13, rd, 0x1, rd, shamt, 0x00), width, true
		case 0x3: // C.LDSP
			rd := cr(raw, 7)
			off := cldsp(raw)
			return encodeI(0x03, rd, 0x3, RegSP, off), width, true
		case 0x2: // C.LWSP
			rd := cr(raw, 7)
			off := clwsp(raw)
			return encodeI(0x03, rd, 0x2, RegSP, off), width, true
		case 0x4:
			bit12 := (raw >> 12) & 0x1
			rd := cr(raw, 7)
			rs2 := cr(raw, 2)
			if bit12 == 0 {
				if rs2 == 0 { // C.JR
					if rd == 0 {
						return 0, 0, false
					}
					return encodeI(0x67, RegZero, 0x0, rd, 0), width, true
				}
				// C.MV
				return encodeR(0x33, rd, 0x0, RegZero, rs2, 0x00), width, true
			}
			if rs2 == 0 {
				if rd == 0 { // C.EBREAK
					return 1 << 20 | 0x73, width, true
				}
				// C.JALR
				return encodeI(0x67, RegRA, 0x0, rd, 0), width, true
			}
			// C.ADD
			return encodeR(0x33, rd, 0x0, rd, rs2, 0x00), width, true
		case 0x7: // C.SDSP
			rs2 := cr(raw, 2)
			off := csdsp(raw)
			return encodeS(0x23, 0x3, RegSP, rs2, off), width, true
		case 0x6: // C.SWSP
			rs2 := cr(raw, 2)
			off := cswsp(raw)
			return encodeS(0x23, 0x2, RegSP, rs2, off), width, true
		}
		return 0, 0, false
	}
	return 0, 0, false
}

// crs extracts a compressed 3-bit register field at bit offset shift and
// maps it to the full x8-x15 register number (the "CA"/CIW/CL/CS forms).
func crs(raw uint16, shift uint) uint32 {
	return uint32((raw>>shift)&0x7) + 8
}

// cr extracts a full 5-bit register field at bit offset shift (CR/CI forms).
func cr(raw uint16, shift uint) uint32 {
	return uint32((raw >> shift) & 0x1f)
}

func ciw(raw uint16) uint32 {
	// nzuimm[5:4|9:6|2|3] sits in bits 12:5.
	nzuimm := (raw>>5&0x1)<<3 |
		(raw>>6&0x1)<<2 |
		(raw>>7&0xf)<<6 |
		(raw>>11&0x3)<<4
	return uint32(nzuimm & 0x3ff)
}

func cl_ld(raw uint16) int32 {
	off := ((raw>>5&0x1)<<6 | (raw>>10&0x7)<<3 | (raw>>6&0x1)<<7)
	return int32(off)
}

func cl_lw(raw uint16) int32 {
	off := ((raw>>5&0x1)<<6 | (raw>>10&0x7)<<3 | (raw>>6&0x1)<<2)
	return int32(off)
}

func ci(raw uint16) int32 {
	v := uint32((raw>>12&0x1)<<5 | (raw>>2&0x1f))
	return signExtendImm(v, 6)
}

func ci16sp(raw uint16) int32 {
	v := uint32((raw>>12&0x1)<<9 |
		(raw>>3&0x3)<<7 |
		(raw>>5&0x1)<<6 |
		(raw>>2&0x1)<<5 |
		(raw>>6&0x1)<<4)
	return signExtendImm(v, 10)
}

func ciLui(raw uint16) int32 {
	v := uint32((raw>>12&0x1)<<17 | (raw>>2&0x1f)<<12)
	return signExtendImm(v, 18) >> 12
}

func cshamt(raw uint16) uint32 {
	return uint32((raw>>12&0x1)<<5 | (raw>>2&0x1f))
}

func cj(raw uint16) int32 {
	v := uint32((raw>>12&0x1)<<11 |
		(raw>>8&0x1)<<10 |
		(raw>>9&0x3)<<8 |
		(raw>>6&0x1)<<7 |
		(raw>>7&0x1)<<6 |
		(raw>>2&0x1)<<5 |
		(raw>>11&0x1)<<4 |
		(raw>>3&0x7)<<1)
	return signExtendImm(v, 12)
}

func cb(raw uint16) int32 {
	v := uint32((raw>>12&0x1)<<8 |
		(raw>>5&0x3)<<6 |
		(raw>>2&0x1)<<5 |
		(raw>>10&0x3)<<3 |
		(raw>>3&0x3)<<1)
	return signExtendImm(v, 9)
}

func cldsp(raw uint16) int32 {
	v := uint32((raw>>12&0x1)<<5 | (raw>>2&0x7)<<6 | (raw>>5&0x3)<<3)
	return int32(v)
}

func clwsp(raw uint16) int32 {
	v := uint32((raw>>12&0x1)<<5 | (raw>>4&0x7)<<2 | (raw>>2&0x3)<<6)
	return int32(v)
}

func csdsp(raw uint16) int32 {
	v := uint32((raw>>10&0x7)<<3 | (raw>>7&0x7)<<6)
	return int32(v)
}

func cswsp(raw uint16) int32 {
	v := uint32((raw>>9&0xf)<<2 | (raw>>7&0x3)<<6)
	return int32(v)
}

// --- standard-instruction encoders, used to turn a decoded compressed
// instruction into the 32-bit word execute() already knows how to run.

func encodeI(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return uint32(imm)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeS(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	return (u>>5&0x7f)<<25 | rs2<<20 | rs1<<15 | funct3<<12 | (u&0x1f)<<7 | opcode
}

func encodeR(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encodeB(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	b12 := u >> 12 & 0x1
	b11 := u >> 11 & 0x1
	b10_5 := u >> 5 & 0x3f
	b4_1 := u >> 1 & 0xf
	return b12<<31 | b10_5<<25 | rs2<<20 | rs1<<15 | funct3<<12 | b4_1<<8 | b11<<7 | opcode
}

func encodeJ(opcode, rd uint32, imm int32) uint32 {
	u := uint32(imm)
	b20 := u >> 20 & 0x1
	b19_12 := u >> 12 & 0xff
	b11 := u >> 11 & 0x1
	b10_1 := u >> 1 & 0x3ff
	return b20<<31 | b10_1<<21 | b11<<20 | b19_12<<12 | rd<<7 | opcode
}

func encodeShift(opcode, rd, funct3, rs1, shamt, funct7 uint32) uint32 {
	return funct7<<25 | (shamt&0x3f)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}
