// Package terminal is an abstraction over the console the emulator
// talks to.
//
// The CP/M layers need very little: write bytes, read a single
// character (blocking), test whether a key is waiting, and read an
// edited line.  Sessions use the Buffered implementation, which
// adapts those operations to an input queue and an output callback;
// interactive use gets real console drivers, which register
// themselves by name so one can be instantiated given just a string.
package terminal

import (
	"errors"
	"fmt"
	"strings"
)

// ErrClosed is returned by the blocking read operations once the
// terminal has been shut down.
//
// It should be handled and expected by callers.
var ErrClosed = errors.New("CLOSED")

// Terminal is the interface the CCP, BDOS, BIOS, and transient
// programs consume.
type Terminal interface {

	// PutCharacter writes a single character to the console.
	PutCharacter(c uint8)

	// WriteString writes a string to the console.
	WriteString(s string)

	// WriteLine writes a string followed by CR LF.
	WriteLine(s string)

	// BlockForCharacter returns the next character of input,
	// blocking until one is available.  No echo.
	BlockForCharacter() (byte, error)

	// ReadLine reads a line of input of at most max characters,
	// echoing as it goes and handling backspace.  The terminating
	// CR or LF is not included, and CR LF is echoed in its place.
	ReadLine(max uint8) (string, error)

	// PendingInput reports whether a key is waiting.
	PendingInput() bool
}

// Constructor is the signature of a constructor-function which is
// used to instantiate an instance of a driver.
type Constructor func() Terminal

// This is a map of known-drivers.
var handlers = struct {
	m map[string]Constructor
}{m: make(map[string]Constructor)}

// Register makes a terminal driver available, by name.
func Register(name string, obj Constructor) {
	// Downcase for consistency.
	name = strings.ToLower(name)

	handlers.m[name] = obj
}

// New returns a terminal using the driver with the given name, if
// one has been registered.
func New(name string) (Terminal, error) {
	// Downcase for consistency.
	name = strings.ToLower(name)

	ctor, ok := handlers.m[name]
	if !ok {
		return nil, fmt.Errorf("failed to lookup driver by name '%s'", name)
	}
	return ctor(), nil
}

// GetDrivers returns all available driver-names.
func GetDrivers() []string {
	valid := []string{}

	for x := range handlers.m {
		valid = append(valid, x)
	}
	return valid
}

// Interactive is implemented by drivers which own the host console
// and need setup/teardown around their use.
type Interactive interface {

	// Setup prepares the host console.
	Setup() error

	// TearDown restores the host console.
	TearDown() error
}

// readLine is the shared line editor: echo, backspace/DEL handling,
// termination on CR or LF with CR LF echoed to the console.
func readLine(t Terminal, max uint8) (string, error) {

	line := ""

	for {
		c, err := t.BlockForCharacter()
		if err != nil {
			return "", err
		}

		switch c {
		case '\r', '\n':
			t.WriteString("\r\n")
			return line, nil
		case 0x08, 0x7F:
			if len(line) > 0 {
				line = line[:len(line)-1]
				t.WriteString("\b \b")
			}
		default:
			// Silently drop anything beyond the caller's limit.
			if len(line) < int(max) {
				line += string(rune(c))
				t.PutCharacter(c)
			}
		}
	}
}
