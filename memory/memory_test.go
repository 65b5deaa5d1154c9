package memory

import (
	"testing"
)

// TestMemoryTrivial just does basic get/set tests
func TestMemoryTrivial(t *testing.T) {

	mem := new(Memory)

	// Set
	mem.Set(0x00, 0x01)
	mem.Set(0x01, 0x02)

	// Get
	if mem.Get(0x00) != 0x01 {
		t.Fatalf("failed to get expected result")
	}
	if mem.Get(0x01) != 0x02 {
		t.Fatalf("failed to get expected result")
	}
	// GetU16
	if mem.GetU16(0x00) != 0x0201 {
		t.Fatalf("failed to get expected result")
	}

	// Fill with 0xCD
	mem.FillRange(0x00, 0xFFFF, 0xCD)

	if mem.Get(0xFFFE) != 0xCD {
		t.Fatalf("failed to get expected result")
	}
	// GetU16
	if mem.GetU16(0x0100) != 0xCDCD {
		t.Fatalf("failed to get expected result")
	}

	// Get a random range
	out := mem.GetRange(0x300, 0x00FF)
	for _, d := range out {
		if d != 0xCD {
			t.Fatalf("wrong result in GetRange")
		}
	}

	// Put a (small) range
	out = []uint8{0x01, 0x02, 0x03}
	mem.SetRange(0x0000, out[:]...)

	if mem.Get(0x00) != 0x01 {
		t.Fatalf("failed to get expected result")
	}
	if mem.GetU16(0x00) != 0x0201 {
		t.Fatalf("failed to get expected result")
	}
	if mem.GetU16(0x02) != 0xCD03 {
		t.Fatalf("failed to get expected result")
	}
}

// TestWordWrap ensures word access wraps around the end of RAM.
func TestWordWrap(t *testing.T) {

	mem := new(Memory)

	// low byte at the end of RAM, high byte at the start
	mem.Set(0xFFFF, 0x34)
	mem.Set(0x0000, 0x12)

	if mem.GetU16(0xFFFF) != 0x1234 {
		t.Fatalf("word read did not wrap, got %04X", mem.GetU16(0xFFFF))
	}

	mem.SetU16(0xFFFF, 0xBEEF)
	if mem.Get(0xFFFF) != 0xEF {
		t.Fatalf("low byte of wrapped write is wrong")
	}
	if mem.Get(0x0000) != 0xBE {
		t.Fatalf("high byte of wrapped write is wrong")
	}
}

// TestLoadAndClear ensures we can bulk-load a program, and wipe RAM.
func TestLoadAndClear(t *testing.T) {

	mem := new(Memory)

	prog := []byte{0xC3, 0x00, 0x00}
	mem.LoadBytes(0x0100, prog)

	for i, b := range prog {
		if mem.Get(0x0100+uint16(i)) != b {
			t.Fatalf("RAM had wrong contents at %d", i)
		}
	}

	mem.Clear()
	if mem.Get(0x0100) != 0x00 {
		t.Fatalf("Clear left data in RAM")
	}
}
