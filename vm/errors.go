package vm

import (
	"errors"
	"fmt"
)

// Process exit codes. The machine is either executing, halted cleanly, or
// dead with one of these.
const (
	ExitOK             = 0  // normal termination via HALT
	ExitFailure        = 1  // image load or console I/O failure
	ExitUsage          = 2  // missing image argument(s)
	ExitReservedOpcode = 10 // RES or RTI executed
	ExitUnknownOpcode  = 20 // opcode outside the defined set
	ExitUnknownTrap    = 21 // trap code outside the defined set
)

// ReservedOpcodeError reports execution of one of the two architecturally
// reserved encodings (RES, RTI), which this machine does not implement.
type ReservedOpcodeError struct {
	Op Opcode
	PC Word // address of the faulting instruction
}

func (e *ReservedOpcodeError) Error() string {
	return fmt.Sprintf("0x%04x: bad opcode %v: reserved, not implemented", e.PC, e.Op)
}

// UnknownOpcodeError reports an opcode value outside the defined set.
type UnknownOpcodeError struct {
	Op Opcode
	PC Word
}

func (e *UnknownOpcodeError) Error() string {
	return fmt.Sprintf("0x%04x: bad opcode %v", e.PC, e.Op)
}

// UnknownTrapError reports a TRAP instruction with a vector outside the
// defined set.
type UnknownTrapError struct {
	Vector TrapVector
	PC     Word
}

func (e *UnknownTrapError) Error() string {
	return fmt.Sprintf("0x%04x: bad trap vector %v", e.PC, e.Vector)
}

// ExitCode maps a Run or load error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		reserved *ReservedOpcodeError
		opcode   *UnknownOpcodeError
		trap     *UnknownTrapError
	)
	switch {
	case errors.As(err, &reserved):
		return ExitReservedOpcode
	case errors.As(err, &opcode):
		return ExitUnknownOpcode
	case errors.As(err, &trap):
		return ExitUnknownTrap
	}
	return ExitFailure
}
