// This file implements the BIOS entry points.
//
// The jump table lives at the top of memory; each entry is three
// bytes apart and is reached through the CPU call hook, so the
// handlers here only touch registers, the console, and the run state
// (BOOT and WBOOT halt the CPU; WBOOT also resets the DMA address).
// The RET sled planted behind them covers anything un-intercepted.

package cpm

// BIOS entry numbers, in table order at three bytes per entry.
const (
	biosBoot   = 0  // BOOT
	biosWBoot  = 1  // WBOOT
	biosConst  = 2  // CONST
	biosConin  = 3  // CONIN
	biosConout = 4  // CONOUT
	biosList   = 5  // LIST
	biosPunch  = 6  // PUNCH
	biosReader = 7  // READER
	biosHome   = 8  // HOME
	biosSeldsk = 9  // SELDSK
	biosSettrk = 10 // SETTRK
	biosSetsec = 11 // SETSEC
	biosSetdma = 12 // SETDMA
	biosRead   = 13 // READ
	biosWrite  = 14 // WRITE
)

// biosSyscalls populates the BIOS handler table.
func biosSyscalls() map[uint8]Handler {
	sys := make(map[uint8]Handler)
	sys[biosBoot] = Handler{
		Desc:    "BOOT",
		Handler: BiosSysCallBoot,
	}
	sys[biosWBoot] = Handler{
		Desc:    "WBOOT",
		Handler: BiosSysCallWarmBoot,
	}
	sys[biosConst] = Handler{
		Desc:    "CONST",
		Handler: BiosSysCallConsoleStatus,
	}
	sys[biosConin] = Handler{
		Desc:    "CONIN",
		Handler: BiosSysCallConsoleInput,
	}
	sys[biosConout] = Handler{
		Desc:    "CONOUT",
		Handler: BiosSysCallConsoleOutput,
	}
	sys[biosList] = Handler{
		Desc:    "LIST",
		Handler: BiosSysCallDiscard,
	}
	sys[biosPunch] = Handler{
		Desc:    "PUNCH",
		Handler: BiosSysCallDiscard,
	}
	sys[biosReader] = Handler{
		Desc:    "READER",
		Handler: BiosSysCallReader,
	}
	sys[biosHome] = Handler{
		Desc:    "HOME",
		Handler: BiosSysCallDiskStub,
	}
	sys[biosSeldsk] = Handler{
		Desc:    "SELDSK",
		Handler: BiosSysCallDiskStub,
	}
	sys[biosSettrk] = Handler{
		Desc:    "SETTRK",
		Handler: BiosSysCallDiskStub,
	}
	sys[biosSetsec] = Handler{
		Desc:    "SETSEC",
		Handler: BiosSysCallDiskStub,
	}
	sys[biosSetdma] = Handler{
		Desc:    "SETDMA",
		Handler: BiosSysCallDiskStub,
	}
	sys[biosRead] = Handler{
		Desc:    "READ",
		Handler: BiosSysCallDiskSuccess,
	}
	sys[biosWrite] = Handler{
		Desc:    "WRITE",
		Handler: BiosSysCallDiskSuccess,
	}
	return sys
}

// BiosSysCallBoot handles a cold boot: a transient reaching it has
// finished, so the stepping loop is told to stop.
func BiosSysCallBoot(cpm *CPM) error {
	cpm.CPU.Halted = true
	return nil
}

// BiosSysCallWarmBoot handles a warm boot, which terminates the
// running transient.
func BiosSysCallWarmBoot(cpm *CPM) error {
	cpm.dma = DefaultDMAAddress
	cpm.CPU.Halted = true
	return nil
}

// BiosSysCallConsoleStatus returns 0xFF in A if there is input
// pending, otherwise 0x00.
func BiosSysCallConsoleStatus(cpm *CPM) error {

	if cpm.Term.PendingInput() {
		cpm.CPU.A = 0xFF
	} else {
		cpm.CPU.A = 0x00
	}
	return nil
}

// BiosSysCallConsoleInput blocks for a single character of input,
// and returns the character pressed in the A-register.
func BiosSysCallConsoleInput(cpm *CPM) error {

	out, err := cpm.Term.BlockForCharacter()
	cpm.CPU.A = out
	return err
}

// BiosSysCallConsoleOutput writes the single character in the
// C-register to the console.
func BiosSysCallConsoleOutput(cpm *CPM) error {

	cpm.Term.PutCharacter(cpm.CPU.C)
	return nil
}

// BiosSysCallDiscard swallows output to the list and punch devices.
func BiosSysCallDiscard(cpm *CPM) error {
	return nil
}

// BiosSysCallReader returns EOF; there is no paper tape here.
func BiosSysCallReader(cpm *CPM) error {
	cpm.CPU.A = 0x1A
	return nil
}

// BiosSysCallDiskStub answers the track/sector-level disk calls with
// zero; the virtual disk has no geometry.
func BiosSysCallDiskStub(cpm *CPM) error {
	cpm.CPU.A = 0x00
	cpm.CPU.SetHL(0x0000)
	return nil
}

// BiosSysCallDiskSuccess reports success for sector read/write,
// which the virtual disk never performs.
func BiosSysCallDiskSuccess(cpm *CPM) error {
	cpm.CPU.A = 0x00
	return nil
}
