package vm

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
)

// LoadImage reads a program image file into memory. The format is a
// sequence of big-endian 16-bit words: the first word is the load address,
// every word after it is stored at consecutive (wrapping) addresses. There
// is no length field; the file size decides the word count, and a trailing
// odd byte is dropped.
func (vm *VM) LoadImage(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrapf(err, "load image %s", path)
	}
	return errors.Wrapf(vm.LoadImageBytes(data), "load image %s", path)
}

// LoadImageBytes loads one image from a byte slice. Images loaded later
// overwrite earlier ones where they collide: last write wins.
func (vm *VM) LoadImageBytes(data []byte) error {
	if len(data) < 2 {
		return errors.New("image too short: no load address")
	}
	origin := Word(binary.BigEndian.Uint16(data))
	addr := origin
	for i := 2; i+1 < len(data); i += 2 {
		vm.mem.write(addr, Word(binary.BigEndian.Uint16(data[i:])))
		addr++
	}
	return nil
}
