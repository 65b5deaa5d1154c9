// Package ccp implements the Console Command Processor: the prompt
// loop which reads commands, runs the built-ins, and hands anything
// else to the host to launch as a transient program.
package ccp

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/retroshell/cpm80/disk"
	"github.com/retroshell/cpm80/terminal"
)

// ErrNotFound is returned by the transient loader when the command
// names neither a registered program nor a .COM file on disk.
//
// It should be handled and expected by callers.
var ErrNotFound = errors.New("NOTFOUND")

// maxLine is the longest command line the prompt accepts.
const maxLine = 127

// CCP holds the state of the command processor.
type CCP struct {

	// Term is the console we prompt on.
	Term terminal.Terminal

	// Drive is the virtual disk the built-ins operate on.
	Drive *disk.Drive

	// Logger holds a logger which we use for debugging and diagnostics.
	Logger *slog.Logger

	// LoadTransient is the host callback which launches a named
	// program, consulting the registered-program table before the
	// disk.  It returns ErrNotFound when neither matches.
	LoadTransient func(command string, args string) error

	// Stopped, when non-nil, is polled each time around the loop so
	// a session shutdown can end the prompt.
	Stopped func() bool
}

// Run is the prompt loop.  It returns nil when the user runs EXIT,
// the session is stopped, or the terminal is closed; any other
// console error, or an error from the transient loader, is returned.
func (c *CCP) Run() error {

	for {
		if c.Stopped != nil && c.Stopped() {
			return nil
		}

		c.Term.WriteString(fmt.Sprintf("%c>", 'A'+c.Drive.CurrentDrive()))

		line, err := c.Term.ReadLine(maxLine)
		if err != nil {
			if err == terminal.ErrClosed {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// Split into COMMAND and ARGS on the first space.
		command := line
		args := ""
		if i := strings.Index(line, " "); i >= 0 {
			command = line[:i]
			args = strings.TrimSpace(line[i+1:])
		}
		command = strings.ToUpper(command)

		c.Logger.Debug("CCP command",
			slog.String("command", command),
			slog.String("args", args))

		// A bare "X:" switches drive.
		if len(command) == 2 && command[1] == ':' &&
			command[0] >= 'A' && command[0] <= 'P' {
			c.Drive.SetCurrentDrive(command[0] - 'A')
			continue
		}

		switch command {
		case "DIR":
			c.dir(args)
		case "TYPE":
			c.typeFile(args)
		case "ERA":
			c.era(args)
		case "REN":
			c.ren(args)
		case "USER":
			c.user(args)
		case "SAVE":
			// Dumping TPA pages is not supported; say so rather
			// than writing a file with the wrong contents.
			c.Term.WriteLine("SAVE is not implemented, sorry.")
		case "EXIT":
			return nil
		default:
			err := c.LoadTransient(command, args)
			if errors.Is(err, ErrNotFound) {
				c.Term.WriteLine(command + "?")
			} else if err != nil {
				return err
			}
		}
	}
}

// dir implements the DIR built-in: matching entries, sorted, four to
// a row, with the drive prefix on the first row only.
func (c *CCP) dir(args string) {

	pattern := args
	if pattern == "" {
		pattern = "*.*"
	}

	entries := c.Drive.List(pattern)
	if len(entries) == 0 {
		c.Term.WriteLine("No file")
		return
	}

	prefix := fmt.Sprintf("%c: ", 'A'+c.Drive.CurrentDrive())

	row := ""
	n := 0
	for _, entry := range entries {
		if row == "" {
			if n == 0 {
				row = prefix
			} else {
				row = strings.Repeat(" ", len(prefix))
			}
		} else {
			row += "  "
		}
		row += formatEntry(entry)
		n++

		if n%4 == 0 {
			c.Term.WriteLine(row)
			row = ""
		}
	}
	if row != "" {
		c.Term.WriteLine(row)
	}
}

// formatEntry renders a directory entry as "NAME     EXT" with the
// name padded to eight characters and the extension to three.
func formatEntry(name string) string {
	base := name
	ext := ""
	if i := strings.IndexByte(name, '.'); i >= 0 {
		base = name[:i]
		ext = name[i+1:]
	}
	return fmt.Sprintf("%-8s %-3s", base, ext)
}

// normalizeName applies the CCP filename convention: upper-case, and
// a .COM suffix when the user supplied no extension and no wildcard.
func normalizeName(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	if !strings.Contains(name, ".") && !strings.ContainsAny(name, "*?") {
		name += ".COM"
	}
	return name
}

// typeFile implements the TYPE built-in.
func (c *CCP) typeFile(args string) {
	if args == "" {
		c.Term.WriteLine("Type what?")
		return
	}

	text, ok := c.Drive.ReadText(normalizeName(args))
	if !ok {
		c.Term.WriteLine("No file")
		return
	}

	c.Term.WriteString(text)
	if !strings.HasSuffix(text, "\n") {
		c.Term.WriteString("\r\n")
	}
}

// era implements the ERA built-in.
func (c *CCP) era(args string) {
	if args == "" {
		c.Term.WriteLine("Era what?")
		return
	}

	if c.Drive.DeleteMatching(args) == 0 {
		c.Term.WriteLine("No file")
	}
}

// ren implements the REN built-in, whose argument is "NEW=OLD".
func (c *CCP) ren(args string) {
	parts := strings.SplitN(args, "=", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		c.Term.WriteLine("Ren what?")
		return
	}

	newName := strings.TrimSpace(parts[0])
	oldName := strings.TrimSpace(parts[1])

	if !c.Drive.Rename(oldName, newName) {
		c.Term.WriteLine("No file")
	}
}

// user implements the USER built-in.
func (c *CCP) user(args string) {
	n, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil || n < 0 || n > 15 {
		c.Term.WriteLine("User 0-15 only")
		return
	}
	c.Drive.SetUser(uint8(n))
}
