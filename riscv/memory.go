package riscv

import "fmt"

// Memory is the guest's flat, bounded address space. It is private to the
// RISC-V interpreter; the host never addresses it directly, only through
// (offset, size) spans it copies in or out via Read/Write.
type Memory struct {
	data []byte
}

// NewMemory allocates a zeroed guest address space of the given size.
func NewMemory(size uint64) *Memory {
	return &Memory{data: make([]byte, size)}
}

// ErrOutOfBounds is returned when a guest memory access falls outside the
// reserved arena; the host interposer maps this to a frame revert.
type ErrOutOfBounds struct {
	Offset, Size, ArenaSize uint64
}

func (e *ErrOutOfBounds) Error() string {
	return fmt.Sprintf("riscv: memory access [%d:%d) out of bounds (arena size %d)", e.Offset, e.Offset+e.Size, e.ArenaSize)
}

// Read returns a copy of the size bytes at offset, or ErrOutOfBounds.
func (m *Memory) Read(offset, size uint64) ([]byte, error) {
	end := offset + size
	if size == 0 {
		return nil, nil
	}
	if end < offset || end > uint64(len(m.data)) {
		return nil, &ErrOutOfBounds{offset, size, uint64(len(m.data))}
	}
	out := make([]byte, size)
	copy(out, m.data[offset:end])
	return out, nil
}

// Write copies b into the arena starting at offset, or returns
// ErrOutOfBounds.
func (m *Memory) Write(offset uint64, b []byte) error {
	end := offset + uint64(len(b))
	if end < offset || end > uint64(len(m.data)) {
		return &ErrOutOfBounds{offset, uint64(len(b)), uint64(len(m.data))}
	}
	copy(m.data[offset:end], b)
	return nil
}

func (m *Memory) readByteAt(addr uint64) (byte, error) {
	if addr >= uint64(len(m.data)) {
		return 0, &ErrOutOfBounds{addr, 1, uint64(len(m.data))}
	}
	return m.data[addr], nil
}

func (m *Memory) writeByteAt(addr uint64, v byte) error {
	if addr >= uint64(len(m.data)) {
		return &ErrOutOfBounds{addr, 1, uint64(len(m.data))}
	}
	m.data[addr] = v
	return nil
}

func (m *Memory) readUint(addr, width uint64) (uint64, error) {
	if addr+width > uint64(len(m.data)) || addr+width < addr {
		return 0, &ErrOutOfBounds{addr, width, uint64(len(m.data))}
	}
	var v uint64
	for i := uint64(0); i < width; i++ {
		v |= uint64(m.data[addr+i]) << (8 * i)
	}
	return v, nil
}

func (m *Memory) writeUint(addr, width, v uint64) error {
	if addr+width > uint64(len(m.data)) || addr+width < addr {
		return &ErrOutOfBounds{addr, width, uint64(len(m.data))}
	}
	for i := uint64(0); i < width; i++ {
		m.data[addr+i] = byte(v >> (8 * i))
	}
	return nil
}

// Len reports the arena's total size in bytes.
func (m *Memory) Len() uint64 { return uint64(len(m.data)) }

// LoadProgram copies code into the arena at offset. The runtime bytecode
// format carries no section headers, just the raw bytes the toolchain
// produced.
func (m *Memory) LoadProgram(code []byte, offset uint64) error {
	return m.Write(offset, code)
}
