// Package vm implements an LC-3 virtual machine: a 16-bit word-addressed
// register machine with eight general purpose registers, a program counter,
// a three-valued condition code, 65536 words of memory with memory-mapped
// keyboard registers, and six trap routines backing console I/O.
package vm

import "os"

// VM is the machine: CPU registers, memory, and the console they share.
// It is owned by a single goroutine; nothing here is safe for concurrent
// use, and nothing needs to be.
type VM struct {
	// Trace enables per-instruction decode logging.
	Trace bool

	cpu     cpu
	mem     memory
	console *console
	running bool
}

// New returns a machine wired to the process's stdin and stdout, with
// memory zeroed, PC at the start of user space, and the condition code at
// ZRO.
func New() *VM {
	return newVM(newConsole(os.Stdin, os.Stdout))
}

func newVM(c *console) *VM {
	vm := &VM{console: c}
	vm.mem.console = c
	vm.cpu.pc = UserSpaceStart
	vm.cpu.cond = FlagZero
	return vm
}

// OpenConsole switches the terminal to raw mode. The caller owns the
// matching CloseConsole and must run it on every exit path, fatal ones
// included.
func (vm *VM) OpenConsole() error {
	return vm.console.enableRawMode()
}

// CloseConsole restores the terminal configuration saved by OpenConsole.
func (vm *VM) CloseConsole() error {
	return vm.console.disableRawMode()
}

// Run executes instructions from the current PC until the HALT trap stops
// the machine. It returns nil on HALT; any other outcome is a fatal error
// carrying its exit code, left for the caller to act on after cleanup.
func (vm *VM) Run() error {
	vm.running = true
	for vm.running {
		if err := vm.step(); err != nil {
			vm.running = false
			return err
		}
	}
	return nil
}

// Step executes a single instruction. Exposed for tools that drive the
// machine one cycle at a time.
func (vm *VM) Step() error {
	return vm.step()
}
