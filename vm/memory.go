package vm

// MemorySize is the word count of the address space. Addresses are 16 bits,
// so every Word is a valid address and no bounds check is ever needed.
const MemorySize = 1 << 16

// Address space landmarks.
const (
	TrapVectorTableStart       Word = 0x0000
	InterruptVectorTableStart  Word = 0x0100
	SystemSpaceStart           Word = 0x0200
	UserSpaceStart             Word = 0x3000
	MemoryMappedRegistersStart Word = 0xFE00
)

// Memory mapped keyboard registers. Bit 15 of KBSR signals that KBDR holds
// a fresh character.
const (
	KBSR Word = MemoryMappedRegistersStart          // keyboard status register
	KBDR Word = MemoryMappedRegistersStart + 0x0002 // keyboard data register
)

const kbsrReady Word = 1 << 15

type memory struct {
	ram     [MemorySize]Word
	console *console
}

// read returns the word at addr. A read of KBSR first polls the keyboard:
// the poll blocks until a character arrives, then latches it into KBDR and
// raises the ready bit. At end of input the ready bit reads as clear.
func (mem *memory) read(addr Word) (Word, error) {
	if addr == KBSR {
		if err := mem.pollKeyboard(); err != nil {
			return 0, err
		}
	}
	return mem.ram[addr], nil
}

// write stores unconditionally. The mapped registers are backed by ordinary
// cells, so a guest store to them is visible to a later read.
func (mem *memory) write(addr, value Word) {
	mem.ram[addr] = value
}

func (mem *memory) pollKeyboard() error {
	c, ok, err := mem.console.pollKey()
	if err != nil {
		return err
	}
	if ok {
		mem.ram[KBSR] = kbsrReady
		mem.ram[KBDR] = Word(c)
	} else {
		mem.ram[KBSR] = 0
	}
	return nil
}
