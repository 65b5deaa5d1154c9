// Package cpm is the main package for our emulator: it wires the
// 8080 CPU to RAM, the virtual disk, and the console, and implements
// the CP/M 2.2 personality on top - a BIOS jump table, the BDOS
// system-call dispatcher, and the machinery for loading and running
// .COM binaries.
//
// The guest escapes into host code through the CPU's call hook: the
// well-known entry points at 0x0000, 0x0005, and the BIOS band are
// intercepted before any stack push; once a handler has run, the guest
// continues at the instruction after the CALL.
package cpm

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/retroshell/cpm80/ccp"
	"github.com/retroshell/cpm80/cpu"
	"github.com/retroshell/cpm80/disk"
	"github.com/retroshell/cpm80/fcb"
	"github.com/retroshell/cpm80/memory"
	"github.com/retroshell/cpm80/terminal"
	"github.com/retroshell/cpm80/version"
)

var (
	// ErrHalt names the condition of the CPU executing a HALT
	// operation.
	//
	// RunComFile does not return it: a program which halts ends
	// with a nil error and control goes back to the CCP.
	ErrHalt = errors.New("HALT")
)

// Well-known addresses of the CP/M memory map.
const (
	// WarmBootEntry is the warm-boot vector; a transient jumping or
	// returning here has finished.
	WarmBootEntry = 0x0000

	// BDOSEntry is the system-call vector transients CALL.
	BDOSEntry = 0x0005

	// PrimaryFCB is where the loader builds the FCB for the first
	// command-line argument.
	PrimaryFCB = 0x005C

	// SecondaryFCB is where the loader builds the FCB for the second
	// command-line argument.
	SecondaryFCB = 0x006C

	// DefaultDMAAddress is the command-tail buffer, and the initial
	// DMA area for block I/O.
	DefaultDMAAddress = 0x0080

	// TPAStart is where .COM binaries load and run.
	TPAStart = 0x0100

	// BDOSBase is where the single RET standing in for the BDOS
	// lives; the TPA ends just below it.
	BDOSBase = 0xEC00

	// BIOSBase is the bottom of the BIOS jump table.
	BIOSBase = 0xFE00
)

// instructionBudget bounds a single .COM run, as a guard against
// runaway programs.
const instructionBudget = 100000000

// HandlerFunc contains the signature of a BIOS or BDOS function.
type HandlerFunc func(cpm *CPM) error

// Handler contains details of a specific call we implement.
//
// While we mostly need a "number to handler" mapping, having a name
// is useful for the logs we produce.
type Handler struct {
	// Desc contains the human-readable name of the given CP/M call.
	Desc string

	// Handler contains the function which should be invoked for
	// this call.
	Handler HandlerFunc
}

// ProgramHandler is a host-side transient program, registered by name.
type ProgramHandler func(cpm *CPM, args string) error

// fileState records the host view of an open file, keyed by the FCB
// address in guest memory.
type fileState struct {
	// name holds the resolved filename.
	name string

	// offset is the position sequential I/O has reached.
	offset int
}

// CPM is the object that holds our emulator state.
type CPM struct {

	// CPU is the 8080 we drive.
	CPU *cpu.CPU

	// Memory contains the memory the system runs with.
	Memory *memory.Memory

	// Drive is the virtual disk.
	Drive *disk.Drive

	// Term is the console.
	Term terminal.Terminal

	// Logger holds a logger which we use for debugging and diagnostics.
	Logger *slog.Logger

	// BDOSSyscalls contains the BDOS functions we emulate, indexed
	// by the function number passed in the C register.
	BDOSSyscalls map[uint8]Handler

	// BIOSSyscalls contains the BIOS entry points we emulate,
	// indexed by entry number.
	BIOSSyscalls map[uint8]Handler

	// dma contains the offset of the DMA area which is used for
	// block I/O.
	dma uint16

	// files is the open-file table, keyed by FCB address.
	files map[uint16]fileState

	// findResults caches the matches of a find-first, so find-next
	// can walk them.
	findResults []string

	// findOffset is the position find-next has reached.
	findOffset int

	// programs holds host-side transients, keyed by lower-cased name.
	programs map[string]ProgramHandler

	// running is cleared by Stop, possibly from another goroutine.
	running atomic.Bool

	// fatal holds an error raised inside a syscall handler; it ends
	// the current run and is reported to the session.
	fatal error
}

// New returns a new emulation object talking to the given terminal.
func New(term terminal.Terminal, logger *slog.Logger) *CPM {

	mem := new(memory.Memory)

	machine := &CPM{
		Memory:   mem,
		CPU:      cpu.New(mem),
		Drive:    disk.New(),
		Term:     term,
		Logger:   logger,
		dma:      DefaultDMAAddress,
		files:    make(map[uint16]fileState),
		programs: make(map[string]ProgramHandler),
	}

	machine.BDOSSyscalls = bdosSyscalls()
	machine.BIOSSyscalls = biosSyscalls()

	// The CPU needs a hook pointing back at us; install it last.
	machine.CPU.OnCall = machine.interceptCall

	return machine
}

// RegisterProgram makes a host-side transient available to the CCP,
// by name.  Names are matched case-insensitively.
func (cpm *CPM) RegisterProgram(name string, handler ProgramHandler) {
	cpm.programs[strings.ToLower(name)] = handler
}

// Start boots the machine: RAM is cleared, the BIOS and page-zero
// vectors are installed, the banner is printed, and the CCP prompt
// runs until exit or shutdown.
func (cpm *CPM) Start() error {
	cpm.running.Store(true)

	cpm.Memory.Clear()
	cpm.installLowMemory()

	cpm.Term.WriteString(version.Banner())

	shell := &ccp.CCP{
		Term:          cpm.Term,
		Drive:         cpm.Drive,
		Logger:        cpm.Logger,
		LoadTransient: cpm.loadTransient,
		Stopped:       func() bool { return !cpm.running.Load() },
	}
	return shell.Run()
}

// Stop asks the machine to shut down: the CCP loop ends at its next
// iteration and any running .COM file stops stepping.
func (cpm *CPM) Stop() {
	cpm.running.Store(false)
	cpm.CPU.Halted = true
}

// installLowMemory installs the fixed parts of the memory map: the
// warm-boot and BDOS vectors in page zero, a RET at the BDOS base,
// and a RET sled across the whole BIOS band so that even an
// un-intercepted call into it returns harmlessly.
func (cpm *CPM) installLowMemory() {

	// JMP WBOOT at 0x0000.
	cpm.Memory.Set(0x0000, 0xC3)
	cpm.Memory.SetU16(0x0001, BIOSBase+0x03)

	// IOBYTE and current drive/user.
	cpm.Memory.Set(0x0003, 0x00)
	cpm.Memory.Set(0x0004, 0x00)

	// JMP BDOS at 0x0005.
	cpm.Memory.Set(0x0005, 0xC3)
	cpm.Memory.SetU16(0x0006, BDOSBase)

	// The BDOS is a single RET; the real work happens in the hook.
	cpm.Memory.Set(BDOSBase, 0xC9)

	// Fill the BIOS band with "RET; NOP; NOP" entries.
	for a := BIOSBase; a <= 0xFFFF; a += 3 {
		cpm.Memory.Set(uint16(a), 0xC9)
		for pad := a + 1; pad <= a+2 && pad <= 0xFFFF; pad++ {
			cpm.Memory.Set(uint16(pad), 0x00)
		}
	}
}

// interceptCall is the CPU call hook: it claims the three well-known
// CP/M entry points and routes them into host code.
func (cpm *CPM) interceptCall(addr uint16, c *cpu.CPU) bool {

	switch {
	case addr == BDOSEntry:
		cpm.runBDOS()

		// The intercepted CALL pushed nothing, so PC is already at
		// the instruction after the CALL and SP is untouched; the
		// guest sees a BDOS which returned.
		return true

	case addr == WarmBootEntry:
		// Warm boot: the transient is done.
		c.Halted = true
		return true

	case addr >= BIOSBase:
		cpm.runBIOS(uint8((addr - BIOSBase) / 3))
		return true
	}

	return false
}

// runBDOS dispatches the BDOS function selected by the C register.
func (cpm *CPM) runBDOS() {

	syscall := cpm.CPU.C

	handler, exists := cpm.BDOSSyscalls[syscall]
	if !exists {
		cpm.Logger.Warn("Unimplemented BDOS call",
			slog.Int("syscall", int(syscall)),
			slog.String("syscallHex", fmt.Sprintf("0x%02X", syscall)))

		cpm.CPU.A = 0xFF
		return
	}

	cpm.Logger.Debug("BDOS call",
		slog.String("name", handler.Desc),
		slog.Int("syscall", int(syscall)),
		slog.String("syscallHex", fmt.Sprintf("0x%02X", syscall)))

	err := handler.Handler(cpm)
	if err != nil {
		cpm.raise(err)
	}
}

// runBIOS dispatches a BIOS entry by number.  Unknown entries are a
// no-op success, because real programs probe the table.
func (cpm *CPM) runBIOS(entry uint8) {

	handler, exists := cpm.BIOSSyscalls[entry]
	if !exists {
		cpm.Logger.Debug("Unknown BIOS call treated as no-op",
			slog.Int("entry", int(entry)))

		cpm.CPU.A = 0x00
		return
	}

	cpm.Logger.Debug("BIOS call",
		slog.String("name", handler.Desc),
		slog.Int("entry", int(entry)))

	err := handler.Handler(cpm)
	if err != nil {
		cpm.raise(err)
	}
}

// raise records a fatal error from a handler and stops the current
// run; the console going away is a silent stop.
func (cpm *CPM) raise(err error) {
	if err != terminal.ErrClosed {
		cpm.fatal = err
	}
	cpm.running.Store(false)
	cpm.CPU.Halted = true
}

// loadTransient launches the named command: a registered host
// program if one matches, otherwise a .COM file from the disk.
func (cpm *CPM) loadTransient(command string, args string) error {

	if handler, ok := cpm.programs[strings.ToLower(command)]; ok {
		return handler(cpm, args)
	}

	name := command
	if !strings.Contains(name, ".") {
		name += ".COM"
	}

	data, ok := cpm.Drive.ReadBytes(name)
	if !ok {
		return ccp.ErrNotFound
	}

	return cpm.RunComFile(data, command, args)
}

// RunComFile loads a binary into the TPA and steps the CPU until the
// program terminates via the warm-boot vector, halts, or exhausts
// its instruction budget.
func (cpm *CPM) RunComFile(data []byte, command string, args string) error {

	cpm.Logger.Debug("running transient",
		slog.String("command", command),
		slog.String("args", args),
		slog.Int("size", len(data)))

	// A fresh program gets a fresh page zero and open-file table.
	cpm.resetPageZero()
	cpm.files = make(map[uint16]fileState)
	cpm.findResults = nil
	cpm.findOffset = 0
	cpm.dma = DefaultDMAAddress

	cpm.Memory.LoadBytes(TPAStart, data)

	// Arguments are always upper-cased.
	args = strings.ToUpper(strings.TrimSpace(args))
	fields := strings.Fields(args)

	// FCB1/FCB2 describe the first two arguments, if present.
	if len(fields) > 0 {
		x := fcb.FromString(fields[0])
		cpm.Memory.SetRange(PrimaryFCB, x.AsBytes()...)
	}
	if len(fields) > 1 {
		x := fcb.FromString(fields[1])
		cpm.Memory.SetRange(SecondaryFCB, x.AsBytes()...)
	}

	// The command tail is a length-prefixed " ARGS" string.
	tail := ""
	if args != "" {
		tail = " " + args
	}
	if len(tail) > 127 {
		tail = tail[:127]
	}
	cpm.Memory.Set(DefaultDMAAddress, uint8(len(tail)))
	cpm.Memory.SetRange(DefaultDMAAddress+1, append([]uint8(tail), 0x00)...)

	// Enter the program with a return-to-warm-boot on the stack, so
	// a plain RET terminates it.
	cpm.CPU.PC = TPAStart
	cpm.CPU.SP = BDOSBase - 2
	cpm.Memory.SetU16(cpm.CPU.SP, WarmBootEntry)
	cpm.CPU.Halted = false

	steps := 0
	for !cpm.CPU.Halted && cpm.running.Load() {

		// A jump or return to the warm-boot vector means the
		// transient is done; a CALL there is caught by the hook.
		if cpm.CPU.PC == WarmBootEntry {
			break
		}

		cpm.CPU.Step()

		steps++
		if steps >= instructionBudget {
			cpm.Logger.Warn("program halted",
				slog.String("command", command))
			break
		}
	}

	if cpm.fatal != nil {
		err := cpm.fatal
		cpm.fatal = nil
		return err
	}
	return nil
}

// resetPageZero restores the vectors and empties the default FCBs
// and the command tail, ready for a new transient.
func (cpm *CPM) resetPageZero() {

	cpm.Memory.FillRange(0x0000, 0x0100, 0x00)

	cpm.Memory.Set(0x0000, 0xC3)
	cpm.Memory.SetU16(0x0001, BIOSBase+0x03)
	cpm.Memory.Set(0x0005, 0xC3)
	cpm.Memory.SetU16(0x0006, BDOSBase)

	// FCB1/FCB2: default drive, spaces for filenames.
	cpm.Memory.Set(PrimaryFCB, 0x00)
	cpm.Memory.FillRange(PrimaryFCB+1, 11, ' ')
	cpm.Memory.Set(SecondaryFCB, 0x00)
	cpm.Memory.FillRange(SecondaryFCB+1, 11, ' ')
}
