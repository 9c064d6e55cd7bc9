package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testVM returns a machine whose console reads from the given input and
// writes to the returned buffer.
func testVM(input string) (*VM, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return newVM(newConsole(strings.NewReader(input), out)), out
}

// exec places one instruction at the PC and runs a single cycle.
func exec(t *testing.T, vm *VM, instr Word) {
	t.Helper()
	vm.mem.write(vm.cpu.pc, instr)
	require.NoError(t, vm.step())
}

func TestSext(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name     string
		x        Word
		bitCount uint
		want     Word
	}){
		{"neg_5bit", 0b11111, 5, 0xFFFF},
		{"pos_5bit", 0b01111, 5, 0x000F},
		{"neg_6bit", 0b100000, 6, 0xFFE0},
		{"pos_6bit", 0b011111, 6, 0x001F},
		{"neg_9bit", 0x100, 9, 0xFF00},
		{"pos_9bit", 0x0FF, 9, 0x00FF},
		{"neg_11bit", 0x400, 11, 0xFC00},
		{"zero", 0, 9, 0},
	}

	for _, entry := range table {
		assert.Equal(entry.want, sext(entry.x, entry.bitCount), entry.name)
	}
}

func TestWriteDestUpdatesCond(t *testing.T) {
	assert := assert.New(t)

	var c cpu
	c.writeDest(R0, 0)
	assert.Equal(FlagZero, c.cond)
	c.writeDest(R0, 0x8000)
	assert.Equal(FlagNegative, c.cond)
	c.writeDest(R0, 0x0001)
	assert.Equal(FlagPositive, c.cond)
}

func TestAddImmediate(t *testing.T) {
	vm, _ := testVM("")
	vm.cpu.write(R1, 5)

	// ADD R0, R1, #-1
	exec(t, vm, 0b0001_000_001_1_11111)

	assert.Equal(t, Word(4), vm.cpu.read(R0))
	assert.Equal(t, FlagPositive, vm.cpu.cond)
}

func TestAddRegisterWraparound(t *testing.T) {
	vm, _ := testVM("")
	vm.cpu.write(R1, 0xFFFF)
	vm.cpu.write(R2, 1)

	// ADD R0, R1, R2
	exec(t, vm, 0b0001_000_001_0_00_010)

	assert.Equal(t, Word(0), vm.cpu.read(R0))
	assert.Equal(t, FlagZero, vm.cpu.cond)
}

func TestAnd(t *testing.T) {
	vm, _ := testVM("")
	vm.cpu.write(R1, 0xF0F0)
	vm.cpu.write(R2, 0x00FF)

	// AND R0, R1, R2
	exec(t, vm, 0b0101_000_001_0_00_010)
	assert.Equal(t, Word(0x00F0), vm.cpu.read(R0))
	assert.Equal(t, FlagPositive, vm.cpu.cond)

	// AND R0, R1, #0
	exec(t, vm, 0b0101_000_001_1_00000)
	assert.Equal(t, Word(0), vm.cpu.read(R0))
	assert.Equal(t, FlagZero, vm.cpu.cond)
}

func TestNot(t *testing.T) {
	vm, _ := testVM("")
	vm.cpu.write(R1, 0x0F0F)

	// NOT R0, R1
	exec(t, vm, 0b1001_000_001_111111)

	assert.Equal(t, Word(0xF0F0), vm.cpu.read(R0))
	assert.Equal(t, FlagNegative, vm.cpu.cond)
}

func TestBranch(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name  string
		nzp   Word
		cond  Flag
		taken bool
	}){
		{"z_taken", 0b010, FlagZero, true},
		{"n_taken", 0b100, FlagNegative, true},
		{"p_taken", 0b001, FlagPositive, true},
		{"nzp_taken", 0b111, FlagNegative, true},
		{"p_not_taken", 0b001, FlagZero, false},
		{"never", 0b000, FlagZero, false},
	}

	for _, entry := range table {
		vm, _ := testVM("")
		vm.cpu.cond = entry.cond
		start := vm.cpu.pc

		// BRx #+8
		exec(t, vm, 0b0000_000_000000000|entry.nzp<<9|0x008)

		want := start + 1
		if entry.taken {
			want += 8
		}
		assert.Equal(want, vm.cpu.pc, entry.name)
	}
}

func TestBranchNegativeOffsetWraps(t *testing.T) {
	vm, _ := testVM("")
	vm.cpu.cond = FlagZero
	start := vm.cpu.pc

	// BRz #-2, taken: PC ends up one before the branch itself.
	exec(t, vm, 0b0000_010_111111110)

	assert.Equal(t, start-1, vm.cpu.pc)
}

func TestJump(t *testing.T) {
	vm, _ := testVM("")
	vm.cpu.write(R1, 0x4321)

	// JMP R1
	exec(t, vm, 0b1100_000_001_000000)
	assert.Equal(t, Word(0x4321), vm.cpu.pc)

	// RET is JMP through R7.
	vm.cpu.write(R7, 0x3000)
	exec(t, vm, 0b1100_000_111_000000)
	assert.Equal(t, Word(0x3000), vm.cpu.pc)
}

func TestJSR(t *testing.T) {
	vm, _ := testVM("")
	start := vm.cpu.pc

	// JSR #+16
	exec(t, vm, 0b0100_1_00000010000)

	assert.Equal(t, start+1, vm.cpu.read(R7), "return address")
	assert.Equal(t, start+1+16, vm.cpu.pc)
}

func TestJSRR(t *testing.T) {
	vm, _ := testVM("")
	start := vm.cpu.pc
	vm.cpu.write(R2, 0x5000)

	// JSRR R2
	exec(t, vm, 0b0100_0_00_010_000000)

	assert.Equal(t, start+1, vm.cpu.read(R7), "return address")
	assert.Equal(t, Word(0x5000), vm.cpu.pc)
}

func TestLoad(t *testing.T) {
	vm, _ := testVM("")
	vm.mem.write(vm.cpu.pc+1+4, 42)

	// LD R0, #+4
	exec(t, vm, 0b0010_000_000000100)

	assert.Equal(t, Word(42), vm.cpu.read(R0))
	assert.Equal(t, FlagPositive, vm.cpu.cond)
}

func TestLoadIndirect(t *testing.T) {
	vm, _ := testVM("")
	vm.mem.write(vm.cpu.pc+1+4, 0x4000)
	vm.mem.write(0x4000, 42)

	// LDI R0, #+4
	exec(t, vm, 0b1010_000_000000100)

	assert.Equal(t, Word(42), vm.cpu.read(R0))
}

func TestLoadRegister(t *testing.T) {
	vm, _ := testVM("")
	vm.cpu.write(R1, 0x4010)
	vm.mem.write(0x4010-2, 0x8000)

	// LDR R0, R1, #-2
	exec(t, vm, 0b0110_000_001_111110)

	assert.Equal(t, Word(0x8000), vm.cpu.read(R0))
	assert.Equal(t, FlagNegative, vm.cpu.cond)
}

func TestLoadEffectiveAddress(t *testing.T) {
	vm, _ := testVM("")
	start := vm.cpu.pc

	// LEA R0, #+5
	exec(t, vm, 0b1110_000_000000101)

	assert.Equal(t, start+1+5, vm.cpu.read(R0))
	assert.Equal(t, FlagPositive, vm.cpu.cond)
}

func TestStore(t *testing.T) {
	vm, _ := testVM("")
	vm.cpu.writeDest(R0, 0xBEEF)
	start := vm.cpu.pc

	// ST R0, #+3
	exec(t, vm, 0b0011_000_000000011)

	assert.Equal(t, Word(0xBEEF), vm.mem.ram[start+1+3])
}

func TestStoreIndirect(t *testing.T) {
	vm, _ := testVM("")
	vm.cpu.writeDest(R0, 0xBEEF)
	vm.mem.write(vm.cpu.pc+1+3, 0x4000)

	// STI R0, #+3
	exec(t, vm, 0b1011_000_000000011)

	assert.Equal(t, Word(0xBEEF), vm.mem.ram[0x4000])
}

func TestStoreRegister(t *testing.T) {
	vm, _ := testVM("")
	vm.cpu.writeDest(R0, 0xBEEF)
	vm.cpu.write(R1, 0x4010)

	// STR R0, R1, #+1
	exec(t, vm, 0b0111_000_001_000001)

	assert.Equal(t, Word(0xBEEF), vm.mem.ram[0x4011])
}

func TestStoreLeavesCondAlone(t *testing.T) {
	vm, _ := testVM("")
	vm.cpu.writeDest(R0, 0x8000)
	require.Equal(t, FlagNegative, vm.cpu.cond)

	// ST R0, #0
	exec(t, vm, 0b0011_000_000000000)

	assert.Equal(t, FlagNegative, vm.cpu.cond)
}

func TestReservedOpcodes(t *testing.T) {
	table := [](struct {
		name  string
		instr Word
		op    Opcode
	}){
		{"res", 0b1101_000000000000, OpRES},
		{"rti", 0b1000_000000000000, OpRTI},
	}

	for _, entry := range table {
		vm, _ := testVM("")
		start := vm.cpu.pc
		vm.mem.write(start, entry.instr)

		err := vm.step()
		require.Error(t, err, entry.name)

		var reserved *ReservedOpcodeError
		require.ErrorAs(t, err, &reserved, entry.name)
		assert.Equal(t, entry.op, reserved.Op, entry.name)
		assert.Equal(t, start, reserved.PC, entry.name)
		assert.Equal(t, ExitReservedOpcode, ExitCode(err), entry.name)
	}
}

func TestExitCodes(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitReservedOpcode, ExitCode(&ReservedOpcodeError{Op: OpRES}))
	assert.Equal(t, ExitUnknownOpcode, ExitCode(&UnknownOpcodeError{Op: Opcode(16)}))
	assert.Equal(t, ExitUnknownTrap, ExitCode(&UnknownTrapError{Vector: 0x26}))
	assert.Equal(t, ExitFailure, ExitCode(assert.AnError))
}

func TestOpcodeString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("ADD", OpADD.String())
	assert.Equal("RES", OpRES.String())
	assert.Equal("TRAP", OpTRAP.String())
	assert.Equal("???", Opcode(16).String())
}
