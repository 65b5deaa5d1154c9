package terminal

import (
	"strings"
	"testing"
	"time"
)

// collector returns a Buffered terminal along with the builder its
// output accumulates in.
func collector() (*Buffered, *strings.Builder) {
	out := &strings.Builder{}
	return NewBuffered(func(s string) { out.WriteString(s) }), out
}

// TestBufferedReadChar covers FIFO delivery and key-availability.
func TestBufferedReadChar(t *testing.T) {

	b, _ := collector()

	if b.PendingInput() {
		t.Fatalf("no input should be pending")
	}

	b.Feed("ab")
	if !b.PendingInput() {
		t.Fatalf("input should be pending")
	}

	c, err := b.BlockForCharacter()
	if err != nil || c != 'a' {
		t.Fatalf("wrong first character %c %v", c, err)
	}
	c, _ = b.BlockForCharacter()
	if c != 'b' {
		t.Fatalf("wrong second character %c", c)
	}
	if b.PendingInput() {
		t.Fatalf("queue should be drained")
	}
}

// TestBufferedBlocks ensures a reader blocks until input arrives.
func TestBufferedBlocks(t *testing.T) {

	b, _ := collector()

	got := make(chan byte)
	go func() {
		c, _ := b.BlockForCharacter()
		got <- c
	}()

	// Give the reader a moment to block, then feed it.
	time.Sleep(10 * time.Millisecond)
	b.Feed("x")

	select {
	case c := <-got:
		if c != 'x' {
			t.Fatalf("wrong character %c", c)
		}
	case <-time.After(time.Second):
		t.Fatalf("reader never woke up")
	}
}

// TestBufferedClose ensures Close releases blocked readers with
// ErrClosed.
func TestBufferedClose(t *testing.T) {

	b, _ := collector()

	errs := make(chan error)
	go func() {
		_, err := b.BlockForCharacter()
		errs <- err
	}()

	time.Sleep(10 * time.Millisecond)
	b.Close()

	select {
	case err := <-errs:
		if err != ErrClosed {
			t.Fatalf("expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("reader never released")
	}

	// Feeding a closed terminal is a no-op.
	b.Feed("zz")
	if b.PendingInput() {
		t.Fatalf("closed terminal should accept no input")
	}
}

// TestReadLine covers echo, editing, and termination.
func TestReadLine(t *testing.T) {

	b, out := collector()

	// "helo", backspace, "lo", return.
	b.Feed("helo\x08lo\r")

	line, err := b.ReadLine(20)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if line != "hello" {
		t.Fatalf("wrong line %q", line)
	}

	// The echo should include the backspace rub-out and end in CRLF.
	if !strings.Contains(out.String(), "\b \b") {
		t.Fatalf("backspace should rub out, got %q", out.String())
	}
	if !strings.HasSuffix(out.String(), "\r\n") {
		t.Fatalf("line end should echo CRLF, got %q", out.String())
	}
}

// TestReadLineTruncates ensures over-long input is dropped, not
// stored.
func TestReadLineTruncates(t *testing.T) {

	b, _ := collector()
	b.Feed("abcdef\n")

	line, err := b.ReadLine(3)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if line != "abc" {
		t.Fatalf("line should be truncated to 3, got %q", line)
	}
}

// TestWriteHelpers covers the output side.
func TestWriteHelpers(t *testing.T) {

	b, out := collector()

	b.PutCharacter('H')
	b.WriteString("i")
	b.WriteLine("!")

	if out.String() != "Hi!\r\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

// TestRegistry covers driver lookup by name.
func TestRegistry(t *testing.T) {

	// Registered by the driver files at init-time.
	for _, name := range []string{"term", "stty"} {
		d, err := New(name)
		if err != nil {
			t.Fatalf("driver %s should exist: %v", name, err)
		}
		if _, ok := d.(Interactive); !ok {
			t.Fatalf("driver %s should be interactive", name)
		}
	}

	_, err := New("bogus")
	if err == nil {
		t.Fatalf("unknown drivers should fail")
	}

	if len(GetDrivers()) < 2 {
		t.Fatalf("expected at least two registered drivers")
	}
}
