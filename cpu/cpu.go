// Package cpu implements the Intel 8080 processor: registers, flags,
// instruction dispatch, interrupt entry, port I/O, and the pair of
// call/restart hooks which the CP/M layer uses to escape into host code.
//
// Execution never fails; undocumented opcodes decode to their documented
// aliases and anything else is a NOP, so the interpreter is total.
package cpu

import (
	"github.com/retroshell/cpm80/memory"
)

// Bus is the I/O port capability used by the IN and OUT opcodes.
type Bus interface {

	// In reads a byte from the given port.
	In(port uint8) uint8

	// Out writes a byte to the given port.
	Out(port uint8, value uint8)
}

// DefaultBus is the null port binding: reads return 0xFF, and writes
// are discarded.  CP/M itself never touches the ports.
type DefaultBus struct{}

// In reads a byte from the given port.
func (DefaultBus) In(port uint8) uint8 { return 0xFF }

// Out writes a byte to the given port.
func (DefaultBus) Out(port uint8, value uint8) {}

// CallHook is invoked for every CALL instruction, conditional or not,
// once the target address has been decoded but before the return
// address is pushed.  Returning true means the host handled the
// transfer: nothing is pushed, and execution continues at the
// instruction following the CALL.
type CallHook func(addr uint16, c *CPU) bool

// RSTHook is the same contract for the eight RST instructions, keyed
// by the restart number 0-7.
type RSTHook func(n uint8, c *CPU) bool

// CPU holds the processor state.
type CPU struct {

	// The seven working registers.
	A, B, C, D, E, H, L uint8

	// Condition flags.  The flag byte packs these as S Z 0 AC 0 P 1 CY.
	Sign, Zero, AuxCarry, Parity, Carry bool

	// SP is the stack pointer.
	SP uint16

	// PC is the program counter.
	PC uint16

	// InterruptsEnabled mirrors the INTE flip-flop, toggled by EI/DI.
	InterruptsEnabled bool

	// Halted is set by HLT, and cleared by an interrupt.
	Halted bool

	// Memory is the 64K RAM the processor executes against.
	Memory *memory.Memory

	// Bus handles the IN and OUT opcodes.
	Bus Bus

	// OnCall, when non-nil, may intercept CALL instructions.
	OnCall CallHook

	// OnRST, when non-nil, may intercept RST instructions.
	OnRST RSTHook
}

// parityTable holds the even-parity of every byte value, so the ALU
// doesn't recount bits on every operation.
var parityTable [256]bool

func init() {
	for i := 0; i < 256; i++ {
		bits := 0
		for b := 0; b < 8; b++ {
			if i&(1<<b) != 0 {
				bits++
			}
		}
		parityTable[i] = bits%2 == 0
	}
}

// New returns a processor wired to the given RAM, with the null
// port binding installed.
func New(mem *memory.Memory) *CPU {
	return &CPU{
		Memory: mem,
		Bus:    DefaultBus{},
	}
}

// Reset clears all registers, flags, and control state.
func (c *CPU) Reset() {
	c.A, c.B, c.C, c.D, c.E, c.H, c.L = 0, 0, 0, 0, 0, 0, 0
	c.Sign, c.Zero, c.AuxCarry, c.Parity, c.Carry = false, false, false, false, false
	c.SP = 0
	c.PC = 0
	c.InterruptsEnabled = false
	c.Halted = false
}

// Step fetches, decodes, and executes a single instruction, returning
// the nominal cycle count.  A halted processor consumes four cycles
// and changes no state.
func (c *CPU) Step() int {
	if c.Halted {
		return 4
	}

	op := c.Memory.Get(c.PC)
	c.PC++
	return c.execute(op)
}

// Interrupt delivers an external interrupt with the given opcode,
// conventionally an RST instruction.  If interrupts are enabled the
// processor clears the enable flag, leaves the halted state, and
// executes the opcode exactly as if it had just been fetched.
func (c *CPU) Interrupt(opcode uint8) {
	if !c.InterruptsEnabled {
		return
	}
	c.InterruptsEnabled = false
	c.Halted = false
	c.execute(opcode)
}

// BC returns the B/C register pair as a 16-bit value.
func (c *CPU) BC() uint16 { return uint16(c.B)<<8 | uint16(c.C) }

// DE returns the D/E register pair as a 16-bit value.
func (c *CPU) DE() uint16 { return uint16(c.D)<<8 | uint16(c.E) }

// HL returns the H/L register pair as a 16-bit value.
func (c *CPU) HL() uint16 { return uint16(c.H)<<8 | uint16(c.L) }

// SetBC stores a 16-bit value in the B/C pair.
func (c *CPU) SetBC(v uint16) { c.B = uint8(v >> 8); c.C = uint8(v) }

// SetDE stores a 16-bit value in the D/E pair.
func (c *CPU) SetDE(v uint16) { c.D = uint8(v >> 8); c.E = uint8(v) }

// SetHL stores a 16-bit value in the H/L pair.
func (c *CPU) SetHL(v uint16) { c.H = uint8(v >> 8); c.L = uint8(v) }

// FlagByte packs the condition flags into the 8080 flag byte.
//
// Bit 1 is always set, bits 3 and 5 are always clear.
func (c *CPU) FlagByte() uint8 {
	var f uint8 = 0x02
	if c.Sign {
		f |= 0x80
	}
	if c.Zero {
		f |= 0x40
	}
	if c.AuxCarry {
		f |= 0x10
	}
	if c.Parity {
		f |= 0x04
	}
	if c.Carry {
		f |= 0x01
	}
	return f
}

// SetFlagByte unpacks an 8080 flag byte into the condition flags.
// The fixed bits are ignored.
func (c *CPU) SetFlagByte(f uint8) {
	c.Sign = f&0x80 != 0
	c.Zero = f&0x40 != 0
	c.AuxCarry = f&0x10 != 0
	c.Parity = f&0x04 != 0
	c.Carry = f&0x01 != 0
}

// fetchByte consumes the next byte of the instruction stream.
func (c *CPU) fetchByte() uint8 {
	v := c.Memory.Get(c.PC)
	c.PC++
	return v
}

// fetchWord consumes a little-endian word from the instruction stream.
// The program counter wraps at 64K, so an operand may straddle the
// 0xFFFF/0x0000 boundary.
func (c *CPU) fetchWord() uint16 {
	lo := c.fetchByte()
	hi := c.fetchByte()
	return uint16(hi)<<8 | uint16(lo)
}

// getReg reads one of the eight register slots B,C,D,E,H,L,M,A where
// slot 6 is the byte of memory addressed by HL.
func (c *CPU) getReg(slot uint8) uint8 {
	switch slot {
	case 0:
		return c.B
	case 1:
		return c.C
	case 2:
		return c.D
	case 3:
		return c.E
	case 4:
		return c.H
	case 5:
		return c.L
	case 6:
		return c.Memory.Get(c.HL())
	default:
		return c.A
	}
}

// setReg writes one of the eight register slots.
func (c *CPU) setReg(slot uint8, v uint8) {
	switch slot {
	case 0:
		c.B = v
	case 1:
		c.C = v
	case 2:
		c.D = v
	case 3:
		c.E = v
	case 4:
		c.H = v
	case 5:
		c.L = v
	case 6:
		c.Memory.Set(c.HL(), v)
	default:
		c.A = v
	}
}

// getPair reads one of the register pairs BC,DE,HL,SP.
func (c *CPU) getPair(idx uint8) uint16 {
	switch idx {
	case 0:
		return c.BC()
	case 1:
		return c.DE()
	case 2:
		return c.HL()
	default:
		return c.SP
	}
}

// setPair writes one of the register pairs BC,DE,HL,SP.
func (c *CPU) setPair(idx uint8, v uint16) {
	switch idx {
	case 0:
		c.SetBC(v)
	case 1:
		c.SetDE(v)
	case 2:
		c.SetHL(v)
	default:
		c.SP = v
	}
}

// pushWord pushes a word onto the guest stack.  The stack pointer
// wraps, so pushing with SP at 0x0000 stores the word at 0xFFFE.
func (c *CPU) pushWord(v uint16) {
	c.SP -= 2
	c.Memory.SetU16(c.SP, v)
}

// popWord pops a word from the guest stack.
func (c *CPU) popWord() uint16 {
	v := c.Memory.GetU16(c.SP)
	c.SP += 2
	return v
}

// condition evaluates one of the eight flag conditions
// NZ,Z,NC,C,PO,PE,P,M used by conditional jumps, calls and returns.
func (c *CPU) condition(idx uint8) bool {
	switch idx {
	case 0:
		return !c.Zero
	case 1:
		return c.Zero
	case 2:
		return !c.Carry
	case 3:
		return c.Carry
	case 4:
		return !c.Parity
	case 5:
		return c.Parity
	case 6:
		return !c.Sign
	default:
		return c.Sign
	}
}
