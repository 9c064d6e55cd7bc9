package vm

import "log"

// Word is the machine's native 16-bit unit. All address and value arithmetic
// wraps modulo 1<<16.
type Word uint16

// Register indexes one of the eight general purpose registers. Values are
// always built from 3-bit instruction fields, so they are in range by
// construction.
type Register Word

// general purpose registers
const (
	R0 Register = 0b000
	R1 Register = 0b001
	R2 Register = 0b010
	R3 Register = 0b011
	R4 Register = 0b100
	R5 Register = 0b101
	R6 Register = 0b110
	R7 Register = 0b111
)

// Flag is a condition code value. Exactly one flag is set at any time,
// reflecting the sign of the last value written to a destination register.
type Flag Word

const (
	FlagPositive Flag = 0b001
	FlagZero     Flag = 0b010
	FlagNegative Flag = 0b100
)

// Opcode is the top 4 bits of an instruction.
type Opcode Word

const (
	OpBR   Opcode = iota // branch
	OpADD                // add
	OpLD                 // load
	OpST                 // store
	OpJSR                // jump to subroutine
	OpAND                // bitwise and
	OpLDR                // load base+offset
	OpSTR                // store base+offset
	OpRTI                // return from interrupt (unimplemented)
	OpNOT                // bitwise not
	OpLDI                // load indirect
	OpSTI                // store indirect
	OpJMP                // jump
	OpRES                // reserved (unimplemented)
	OpLEA                // load effective address
	OpTRAP               // execute trap routine
)

func (op Opcode) String() string {
	names := [...]string{
		"BR", "ADD", "LD", "ST", "JSR", "AND", "LDR", "STR",
		"RTI", "NOT", "LDI", "STI", "JMP", "RES", "LEA", "TRAP",
	}
	if int(op) < len(names) {
		return names[op]
	}
	return "???"
}

type cpu struct {
	generalPurposeRegisters [8]Word
	pc                      Word
	cond                    Flag
}

// read returns the value of a general purpose register.
func (c *cpu) read(r Register) Word {
	return c.generalPurposeRegisters[r]
}

// write stores into a general purpose register without touching the
// condition code: the R7 return-address save in JSR and the trap routines'
// R0 stores.
func (c *cpu) write(r Register, value Word) {
	c.generalPurposeRegisters[r] = value
}

// writeDest stores into a destination register and recomputes the condition
// code from the sign of the value just written. The two updates are
// inseparable: every destination-register write goes through here.
func (c *cpu) writeDest(r Register, value Word) {
	c.generalPurposeRegisters[r] = value
	switch {
	case value == 0:
		c.cond = FlagZero
	case value>>15 != 0:
		c.cond = FlagNegative
	default:
		c.cond = FlagPositive
	}
}

// instruction is one fetched 16-bit word, decoded field by field. It lives
// for a single cycle.
type instruction Word

func (in instruction) opcode() Opcode { return Opcode(in >> 12) }
func (in instruction) dr() Register { return Register((in >> 9) & 0b111) }
func (in instruction) sr() Register { return in.dr() } // same field; bits 11:9 hold SR in the store layouts
func (in instruction) sr1() Register { return Register((in >> 6) & 0b111) }
func (in instruction) sr2() Register { return Register(in & 0b111) }
func (in instruction) baseR() Register { return Register((in >> 6) & 0b111) }
func (in instruction) immediate() bool { return (in>>5)&0b1 == 1 }
func (in instruction) longJSR() bool { return (in>>11)&0b1 == 1 }
func (in instruction) nzp() Flag { return Flag((in >> 9) & 0b111) }
func (in instruction) imm5() Word { return sext(Word(in)&0x1F, 5) }
func (in instruction) offset6() Word { return sext(Word(in)&0x3F, 6) }
func (in instruction) offset9() Word { return sext(Word(in)&0x1FF, 9) }
func (in instruction) offset11() Word { return sext(Word(in)&0x7FF, 11) }
func (in instruction) trapVector() TrapVector { return TrapVector(in & 0xFF) }

// sext widens a bitCount-wide two's-complement value to 16 bits, preserving
// its signed magnitude.
func sext(x Word, bitCount uint) Word {
	if (x>>(bitCount-1))&0b1 != 0 {
		x |= 0xFFFF << bitCount
	}
	return x
}

// step runs one fetch-decode-execute cycle. Offsets are always applied to
// the already-incremented PC, the address of the following instruction.
func (vm *VM) step() error {
	fetchPC := vm.cpu.pc
	fetched, err := vm.mem.read(fetchPC)
	if err != nil {
		return err
	}
	vm.cpu.pc++
	in := instruction(fetched)

	switch op := in.opcode(); op {
	case OpADD:
		dr, sr1 := in.dr(), in.sr1()
		if in.immediate() {
			vm.trace("0x%04x ADD: dr=%03b sr1=%03b imm5=0x%02x", fetchPC, dr, sr1, in.imm5())
			vm.cpu.writeDest(dr, vm.cpu.read(sr1)+in.imm5())
		} else {
			vm.trace("0x%04x ADD: dr=%03b sr1=%03b sr2=%03b", fetchPC, dr, sr1, in.sr2())
			vm.cpu.writeDest(dr, vm.cpu.read(sr1)+vm.cpu.read(in.sr2()))
		}

	case OpAND:
		dr, sr1 := in.dr(), in.sr1()
		if in.immediate() {
			vm.trace("0x%04x AND: dr=%03b sr1=%03b imm5=0x%02x", fetchPC, dr, sr1, in.imm5())
			vm.cpu.writeDest(dr, vm.cpu.read(sr1)&in.imm5())
		} else {
			vm.trace("0x%04x AND: dr=%03b sr1=%03b sr2=%03b", fetchPC, dr, sr1, in.sr2())
			vm.cpu.writeDest(dr, vm.cpu.read(sr1)&vm.cpu.read(in.sr2()))
		}

	case OpNOT:
		vm.trace("0x%04x NOT: dr=%03b sr=%03b", fetchPC, in.dr(), in.sr1())
		vm.cpu.writeDest(in.dr(), ^vm.cpu.read(in.sr1()))

	case OpBR:
		vm.trace("0x%04x BR: nzp=%03b pcoffset9=0x%03x", fetchPC, in.nzp(), Word(in)&0x1FF)
		if in.nzp()&vm.cpu.cond != 0 {
			vm.cpu.pc += in.offset9()
		}

	case OpJMP:
		vm.trace("0x%04x JMP: baser=%03b", fetchPC, in.baseR())
		vm.cpu.pc = vm.cpu.read(in.baseR())

	case OpJSR:
		vm.cpu.write(R7, vm.cpu.pc)
		if in.longJSR() {
			vm.trace("0x%04x JSR: pcoffset11=0x%03x", fetchPC, Word(in)&0x7FF)
			vm.cpu.pc += in.offset11()
		} else {
			vm.trace("0x%04x JSRR: baser=%03b", fetchPC, in.baseR())
			vm.cpu.pc = vm.cpu.read(in.baseR())
		}

	case OpLD:
		vm.trace("0x%04x LD: dr=%03b pcoffset9=0x%03x", fetchPC, in.dr(), Word(in)&0x1FF)
		value, err := vm.mem.read(vm.cpu.pc + in.offset9())
		if err != nil {
			return err
		}
		vm.cpu.writeDest(in.dr(), value)

	case OpLDI:
		vm.trace("0x%04x LDI: dr=%03b pcoffset9=0x%03x", fetchPC, in.dr(), Word(in)&0x1FF)
		pointer, err := vm.mem.read(vm.cpu.pc + in.offset9())
		if err != nil {
			return err
		}
		value, err := vm.mem.read(pointer)
		if err != nil {
			return err
		}
		vm.cpu.writeDest(in.dr(), value)

	case OpLDR:
		vm.trace("0x%04x LDR: dr=%03b baser=%03b pcoffset6=0x%02x", fetchPC, in.dr(), in.baseR(), Word(in)&0x3F)
		value, err := vm.mem.read(vm.cpu.read(in.baseR()) + in.offset6())
		if err != nil {
			return err
		}
		vm.cpu.writeDest(in.dr(), value)

	case OpLEA:
		vm.trace("0x%04x LEA: dr=%03b pcoffset9=0x%03x", fetchPC, in.dr(), Word(in)&0x1FF)
		vm.cpu.writeDest(in.dr(), vm.cpu.pc+in.offset9())

	case OpST:
		vm.trace("0x%04x ST: sr=%03b pcoffset9=0x%03x", fetchPC, in.sr(), Word(in)&0x1FF)
		vm.mem.write(vm.cpu.pc+in.offset9(), vm.cpu.read(in.sr()))

	case OpSTI:
		vm.trace("0x%04x STI: sr=%03b pcoffset9=0x%03x", fetchPC, in.sr(), Word(in)&0x1FF)
		pointer, err := vm.mem.read(vm.cpu.pc + in.offset9())
		if err != nil {
			return err
		}
		vm.mem.write(pointer, vm.cpu.read(in.sr()))

	case OpSTR:
		vm.trace("0x%04x STR: sr=%03b baser=%03b pcoffset6=0x%02x", fetchPC, in.sr(), in.baseR(), Word(in)&0x3F)
		vm.mem.write(vm.cpu.read(in.baseR())+in.offset6(), vm.cpu.read(in.sr()))

	case OpTRAP:
		vm.trace("0x%04x TRAP: 0x%02x", fetchPC, Word(in)&0xFF)
		return vm.trap(in.trapVector())

	case OpRTI, OpRES:
		return &ReservedOpcodeError{Op: op, PC: fetchPC}

	default:
		return &UnknownOpcodeError{Op: op, PC: fetchPC}
	}

	return nil
}

func (vm *VM) trace(format string, args ...any) {
	if vm.Trace {
		log.Printf(format, args...)
	}
}
