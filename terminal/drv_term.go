// drv_term.go uses the Termbox library to handle console-based
// interactive use.
//
// A goroutine is launched which collects any keyboard input and
// saves that to a buffer where it can be peeled off on-demand.

package terminal

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/nsf/termbox-go"
	"golang.org/x/term"
)

// TermboxTerminal drives the local console via termbox.
type TermboxTerminal struct {

	// oldState contains the state of the terminal, before switching
	// to RAW mode.
	oldState *term.State

	// cancel stops the polling goroutine.
	cancel context.CancelFunc

	// mu guards keyBuffer.
	mu sync.Mutex

	// keyBuffer builds up keys read "in the background", via termbox.
	keyBuffer []byte
}

// Setup switches the console to RAW mode, initializes termbox, and
// starts collecting keyboard input.
func (tt *TermboxTerminal) Setup() error {

	var err error

	// switch STDIN into 'raw' mode - we must do this before
	// we setup termbox.
	tt.oldState, err = term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("error making raw terminal %s", err)
	}

	err = termbox.Init()
	if err != nil {
		return fmt.Errorf("error initializing termbox %s", err)
	}

	// This is "Show Cursor" which termbox hides by default.
	fmt.Printf("\x1b[?25h")

	ctx, cancel := context.WithCancel(context.Background())
	tt.cancel = cancel

	go tt.pollKeyboard(ctx)
	return nil
}

// pollKeyboard runs in a goroutine and collects keyboard input into
// a buffer where it will be read from in the future.
func (tt *TermboxTerminal) pollKeyboard(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		switch ev := termbox.PollEvent(); ev.Type {
		case termbox.EventKey:
			tt.mu.Lock()
			if ev.Ch != 0 {
				tt.keyBuffer = append(tt.keyBuffer, byte(ev.Ch))
			} else {
				tt.keyBuffer = append(tt.keyBuffer, byte(ev.Key))
			}
			tt.mu.Unlock()
		}
	}
}

// TearDown stops the polling goroutine and restores the console.
func (tt *TermboxTerminal) TearDown() error {
	if tt.cancel != nil {
		tt.cancel()
	}

	termbox.Close()

	if tt.oldState != nil {
		return term.Restore(int(os.Stdin.Fd()), tt.oldState)
	}
	return nil
}

// PutCharacter writes a single character to the console.
func (tt *TermboxTerminal) PutCharacter(c uint8) {
	fmt.Printf("%c", c)
}

// WriteString writes a string to the console.
func (tt *TermboxTerminal) WriteString(s string) {
	fmt.Print(s)
}

// WriteLine writes a string followed by CR LF.
func (tt *TermboxTerminal) WriteLine(s string) {
	fmt.Print(s + "\r\n")
}

// BlockForCharacter returns the next character from the console,
// blocking until one is available.
func (tt *TermboxTerminal) BlockForCharacter() (byte, error) {

	for {
		tt.mu.Lock()
		if len(tt.keyBuffer) > 0 {
			c := tt.keyBuffer[0]
			tt.keyBuffer = tt.keyBuffer[1:]
			tt.mu.Unlock()
			return c, nil
		}
		tt.mu.Unlock()

		time.Sleep(1 * time.Millisecond)
	}
}

// ReadLine reads an edited line of input.
func (tt *TermboxTerminal) ReadLine(max uint8) (string, error) {
	return readLine(tt, max)
}

// PendingInput returns true if there is pending input from STDIN.
func (tt *TermboxTerminal) PendingInput() bool {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	return len(tt.keyBuffer) > 0
}

// init registers our driver, by name.
func init() {
	Register("term", func() Terminal {
		return new(TermboxTerminal)
	})
}
