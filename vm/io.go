package vm

import (
	"bufio"
	goIO "io"
	"os"

	"github.com/pkg/errors"
	"github.com/pkg/term/termios"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// console couples the machine's keyboard and display to a byte reader and
// writer, normally the process's stdin and stdout. When the input really is
// a terminal it is switched to raw mode (no line buffering, no local echo)
// for the duration of a run; the prior configuration is restored afterwards.
type console struct {
	in     *bufio.Reader
	out    goIO.Writer
	termFd int // -1 when the input is not the process terminal
	saved  *unix.Termios
}

func newConsole(in goIO.Reader, out goIO.Writer) *console {
	c := &console{
		in:     bufio.NewReader(in),
		out:    out,
		termFd: -1,
	}
	if f, ok := in.(*os.File); ok {
		c.termFd = int(f.Fd())
	}
	return c
}

// enableRawMode puts the terminal in non-canonical, no-echo mode. A no-op
// when input is piped or redirected.
func (c *console) enableRawMode() error {
	if c.termFd < 0 || !term.IsTerminal(c.termFd) {
		return nil
	}
	var saved unix.Termios
	if err := termios.Tcgetattr(uintptr(c.termFd), &saved); err != nil {
		return errors.Wrap(err, "tcgetattr")
	}
	newTermios := saved
	newTermios.Lflag &^= unix.ICANON | unix.ECHO
	if err := termios.Tcsetattr(uintptr(c.termFd), termios.TCSANOW, &newTermios); err != nil {
		return errors.Wrap(err, "tcsetattr")
	}
	c.saved = &saved
	return nil
}

// disableRawMode restores the configuration captured by enableRawMode.
// Safe to call more than once.
func (c *console) disableRawMode() error {
	if c.saved == nil {
		return nil
	}
	saved := c.saved
	c.saved = nil
	if err := termios.Tcsetattr(uintptr(c.termFd), termios.TCSANOW, saved); err != nil {
		return errors.Wrap(err, "tcsetattr")
	}
	return nil
}

// readKey blocks until one character is available. End of input is an error
// here: the guest asked for a character that can never arrive.
func (c *console) readKey() (byte, error) {
	b, err := c.in.ReadByte()
	if err != nil {
		return 0, errors.Wrap(err, "keyboard read")
	}
	return b, nil
}

// pollKey is the KBSR-backed variant: it also blocks until a character is
// available, but reports end of input as "no key" so the status register
// reads as not-ready instead of killing the machine.
func (c *console) pollKey() (byte, bool, error) {
	b, err := c.in.ReadByte()
	if err == goIO.EOF {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "keyboard read")
	}
	return b, true, nil
}

func (c *console) writeByte(b byte) error {
	_, err := c.out.Write([]byte{b})
	return errors.Wrap(err, "display write")
}

func (c *console) print(s string) error {
	_, err := goIO.WriteString(c.out, s)
	return errors.Wrap(err, "display write")
}
