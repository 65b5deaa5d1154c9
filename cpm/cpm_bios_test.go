package cpm

import (
	"testing"

	"github.com/retroshell/cpm80/terminal"
)

// TestBiosConsoleStatus covers CONST in both states.
func TestBiosConsoleStatus(t *testing.T) {

	m, _ := testMachine()

	_ = BiosSysCallConsoleStatus(m)
	if m.CPU.A != 0x00 {
		t.Fatalf("no input should be pending")
	}

	m.Term.(*terminal.Buffered).Feed("k")
	_ = BiosSysCallConsoleStatus(m)
	if m.CPU.A != 0xFF {
		t.Fatalf("input should be pending")
	}
}

// TestBiosConsoleInput covers CONIN.
func TestBiosConsoleInput(t *testing.T) {

	m, _ := testMachine()
	m.Term.(*terminal.Buffered).Feed("k")

	err := BiosSysCallConsoleInput(m)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if m.CPU.A != 'k' {
		t.Fatalf("wrong key %c", m.CPU.A)
	}
}

// TestBiosConsoleOutput covers CONOUT.
func TestBiosConsoleOutput(t *testing.T) {

	m, out := testMachine()
	m.CPU.C = '*'

	_ = BiosSysCallConsoleOutput(m)
	if out.String() != "*" {
		t.Fatalf("wrong output %q", out.String())
	}
}

// TestBiosReader returns EOF.
func TestBiosReader(t *testing.T) {

	m, _ := testMachine()

	_ = BiosSysCallReader(m)
	if m.CPU.A != 0x1A {
		t.Fatalf("reader should return EOF")
	}
}

// TestBiosDiskStubs covers the geometry stubs and sector I/O.
func TestBiosDiskStubs(t *testing.T) {

	m, _ := testMachine()

	m.CPU.A = 0xFF
	m.CPU.SetHL(0xBEEF)
	_ = BiosSysCallDiskStub(m)
	if m.CPU.A != 0x00 || m.CPU.HL() != 0x0000 {
		t.Fatalf("disk stubs should zero A and HL")
	}

	m.CPU.A = 0xFF
	_ = BiosSysCallDiskSuccess(m)
	if m.CPU.A != 0x00 {
		t.Fatalf("sector I/O should report success")
	}
}

// TestBiosUnknownEntry ensures un-tabled entries are a no-op success.
func TestBiosUnknownEntry(t *testing.T) {

	m, _ := testMachine()

	m.CPU.A = 0xFF
	m.runBIOS(29)
	if m.CPU.A != 0x00 {
		t.Fatalf("unknown BIOS entries should succeed quietly")
	}
}

// TestBiosWarmBootHalts ensures WBOOT stops the stepping loop.
func TestBiosWarmBootHalts(t *testing.T) {

	m, _ := testMachine()

	m.dma = 0x2000
	_ = BiosSysCallWarmBoot(m)
	if !m.CPU.Halted {
		t.Fatalf("WBOOT should halt the CPU")
	}
	if m.dma != DefaultDMAAddress {
		t.Fatalf("WBOOT should reset the DMA address")
	}
}
