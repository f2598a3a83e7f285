package vm

// asm_test.go hand-assembles tiny RV64I programs for use as fake guest
// contracts in tests, the same manual instruction-encoding style the
// riscv package's own cpu_test.go uses (those encoders are unexported to
// package riscv, so this is a second, minimal copy scoped to what this
// package's tests need: ADDI, SB, and ECALL).

func asmBytes(words ...uint32) []byte {
	var out []byte
	for _, w := range words {
		out = append(out, byte(w), byte(w>>8), byte(w>>16), byte(w>>24))
	}
	return out
}

// iType builds an I-type instruction word (ADDI uses opcode 0x13, funct3 0).
func iType(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return uint32(imm)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

// sType builds an S-type instruction word (SB uses opcode 0x23, funct3 0).
func sType(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	u := uint32(imm)
	imm11_5 := (u >> 5) & 0x7f
	imm4_0 := u & 0x1f
	return imm11_5<<25 | rs2<<20 | rs1<<15 | funct3<<12 | imm4_0<<7 | opcode
}

const ecallWord = 0x00000073

func addi(rd, rs1 uint32, imm int32) uint32 { return iType(0x13, rd, 0x0, rs1, imm) }
func sb(rs1, rs2 uint32, imm int32) uint32  { return sType(0x23, 0x0, rs1, rs2, imm) }

// Register indices used by the RV64 calling convention this project's
// ECALL ABI keys off: t0=5 (syscall number), a0-a2=10-12.
const (
	regT0 = 5
	regA0 = 10
	regA1 = 11
	regA2 = 12
)

// returnProgram assembles a tiny program that stores the given bytes
// (each must fit a signed byte, which is all this helper needs) at
// offset dataOff via SB, then issues Return(dataOff, len(data)). x1 is
// used as scratch to hold each byte value before storing it.
func returnProgram(syscallNum uint32, data []byte, dataOff int32) []byte {
	var words []uint32
	for i, b := range data {
		words = append(words,
			addi(1, 0, int32(int8(b))),
			sb(0, 1, dataOff+int32(i)),
		)
	}
	words = append(words,
		addi(regT0, 0, int32(syscallNum)),
		addi(regA0, 0, dataOff),
		addi(regA1, 0, int32(len(data))),
		ecallWord,
	)
	return asmBytes(words...)
}
