package vm

import "fmt"

// TrapVector is the low 8 bits of a TRAP instruction, selecting one of the
// built-in console service routines.
type TrapVector Word

const (
	TrapGETC  TrapVector = 0x20 // get character from keyboard, not echoed onto the terminal
	TrapOUT   TrapVector = 0x21 // output a character
	TrapPUTS  TrapVector = 0x22 // output a word string
	TrapIN    TrapVector = 0x23 // get character from keyboard, echoed onto the terminal
	TrapPUTSP TrapVector = 0x24 // output a byte string
	TrapHALT  TrapVector = 0x25 // halt the program
)

func (t TrapVector) String() string {
	switch t {
	case TrapGETC:
		return "GETC"
	case TrapOUT:
		return "OUT"
	case TrapPUTS:
		return "PUTS"
	case TrapIN:
		return "IN"
	case TrapPUTSP:
		return "PUTSP"
	case TrapHALT:
		return "HALT"
	}
	return fmt.Sprintf("0x%02x", Word(t))
}

const inPrompt = "Enter a character: "

// haltMessage is printed by the HALT routine before the run loop stops.
const haltMessage = "HALT Trapcode received, Halting.\n"

func (vm *VM) trap(vector TrapVector) error {
	switch vector {
	case TrapGETC:
		c, err := vm.console.readKey()
		if err != nil {
			return err
		}
		// Trap routines store into R0 without recomputing the condition
		// code; only the seven destination-register opcodes do that.
		vm.cpu.write(R0, Word(c))

	case TrapOUT:
		return vm.console.writeByte(byte(vm.cpu.read(R0)))

	case TrapPUTS:
		// One character per word, low 8 bits, up to but not including the
		// first zero word.
		for addr := vm.cpu.read(R0); ; addr++ {
			w, err := vm.mem.read(addr)
			if err != nil {
				return err
			}
			if w == 0 {
				break
			}
			if err := vm.console.writeByte(byte(w)); err != nil {
				return err
			}
		}

	case TrapIN:
		if err := vm.console.print(inPrompt); err != nil {
			return err
		}
		c, err := vm.console.readKey()
		if err != nil {
			return err
		}
		if err := vm.console.writeByte(c); err != nil {
			return err
		}
		vm.cpu.write(R0, Word(c))

	case TrapPUTSP:
		// Two packed characters per word: low byte first, then the high
		// byte when nonzero. A zero word ends the string.
		for addr := vm.cpu.read(R0); ; addr++ {
			w, err := vm.mem.read(addr)
			if err != nil {
				return err
			}
			if w == 0 {
				break
			}
			if err := vm.console.writeByte(byte(w)); err != nil {
				return err
			}
			if w>>8 != 0 {
				if err := vm.console.writeByte(byte(w >> 8)); err != nil {
					return err
				}
			}
		}

	case TrapHALT:
		if err := vm.console.print(haltMessage); err != nil {
			return err
		}
		vm.running = false

	default:
		return &UnknownTrapError{Vector: vector, PC: vm.cpu.pc - 1}
	}

	return nil
}
