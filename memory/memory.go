// Package memory provides the 64k of RAM within which the emulator
// executes its programs.
package memory

// Memory provides 64K bytes array memory.
//
// Addresses are uint16 values so out-of-range access is impossible,
// and address arithmetic wraps at 64K.
type Memory struct {
	buf [65536]uint8
}

// Set sets a byte at addr of memory.
func (m *Memory) Set(addr uint16, value uint8) {
	m.buf[addr] = value
}

// Get returns a byte at addr of memory.
func (m *Memory) Get(addr uint16) uint8 {
	return m.buf[addr]
}

// GetU16 returns a word from the given address of memory.
//
// Words are stored little-endian, and the high byte may wrap around
// the end of RAM.
func (m *Memory) GetU16(addr uint16) uint16 {
	l := m.Get(addr)
	h := m.Get(addr + 1)
	return (uint16(h) << 8) | uint16(l)
}

// SetU16 stores a word at the given address of memory, little-endian.
func (m *Memory) SetU16(addr uint16, value uint16) {
	m.Set(addr, uint8(value&0xFF))
	m.Set(addr+1, uint8(value>>8))
}

// SetRange copies bytes from the given data to the specified
// starting address in RAM.
func (m *Memory) SetRange(addr uint16, data ...uint8) {
	for _, d := range data {
		m.buf[addr] = d
		addr++
	}
}

// FillRange fills an area of memory with the given byte.
func (m *Memory) FillRange(addr uint16, size int, char uint8) {
	for size > 0 {
		m.buf[addr] = char
		addr++
		size--
	}
}

// GetRange returns the contents of a given range.
func (m *Memory) GetRange(addr uint16, size int) []uint8 {
	var ret []uint8
	for size > 0 {
		ret = append(ret, m.buf[addr])
		addr++
		size--
	}
	return ret
}

// LoadBytes loads the given program into RAM at the specified address.
func (m *Memory) LoadBytes(addr uint16, data []byte) {
	m.SetRange(addr, data...)
}

// Clear resets every byte of RAM to zero.
func (m *Memory) Clear() {
	for i := range m.buf {
		m.buf[i] = 0x00
	}
}
