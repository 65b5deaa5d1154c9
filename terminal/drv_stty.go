// drv_stty.go reads from STDIN directly, with the console in RAW mode
// from Setup until TearDown.  It needs no screen library, which makes
// it a useful fallback when termbox misbehaves, but pending-input
// detection relies on select(2).

package terminal

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// SttyTerminal drives the local console with raw STDIN reads.
type SttyTerminal struct {

	// oldState contains the state of the terminal, before switching
	// to RAW mode.
	oldState *term.State
}

// Setup switches the console into RAW mode.
func (st *SttyTerminal) Setup() error {
	var err error

	st.oldState, err = term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("error making raw terminal %s", err)
	}
	return nil
}

// TearDown restores the console.
func (st *SttyTerminal) TearDown() error {
	if st.oldState != nil {
		return term.Restore(int(os.Stdin.Fd()), st.oldState)
	}
	return nil
}

// PutCharacter writes a single character to the console.
func (st *SttyTerminal) PutCharacter(c uint8) {
	fmt.Printf("%c", c)
}

// WriteString writes a string to the console.
func (st *SttyTerminal) WriteString(s string) {
	fmt.Print(s)
}

// WriteLine writes a string followed by CR LF.
func (st *SttyTerminal) WriteLine(s string) {
	fmt.Print(s + "\r\n")
}

// BlockForCharacter returns the next character from the console,
// blocking until one is available.
func (st *SttyTerminal) BlockForCharacter() (byte, error) {

	// read only a single byte
	b := make([]byte, 1)
	_, err := os.Stdin.Read(b)
	if err != nil {
		return 0x00, fmt.Errorf("error reading a byte from stdin %s", err)
	}

	return b[0], nil
}

// ReadLine reads an edited line of input.
func (st *SttyTerminal) ReadLine(max uint8) (string, error) {
	return readLine(st, max)
}

// PendingInput returns true if there is pending input from STDIN.
func (st *SttyTerminal) PendingInput() bool {
	return canSelect()
}

// init registers our driver, by name.
func init() {
	Register("stty", func() Terminal {
		return new(SttyTerminal)
	})
}
