// entry point

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/retroshell/cpm80/cpm"
	"github.com/retroshell/cpm80/static"
	"github.com/retroshell/cpm80/terminal"
)

func main() {

	input := flag.String("input", "term",
		"The console driver to use ("+strings.Join(terminal.GetDrivers(), ", ")+")")
	flag.Parse()

	// Setup our logging level - default to warnings or higher.
	lvl := new(slog.LevelVar)
	lvl.Set(slog.LevelWarn)

	// But show "everything" if $DEBUG is non-empty.
	if os.Getenv("DEBUG") != "" {
		lvl.Set(slog.LevelDebug)
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	}))

	// Create the console.
	term, err := terminal.New(*input)
	if err != nil {
		fmt.Printf("%s\n", err)
		return
	}

	// Interactive drivers own the host console for the duration.
	if setup, ok := term.(terminal.Interactive); ok {
		err = setup.Setup()
		if err != nil {
			fmt.Printf("failed to setup driver: %s\n", err)
			return
		}
		defer func() {
			_ = setup.TearDown()
		}()
	}

	// Create the machine, with the default disk contents.
	machine := cpm.New(term, log)
	static.Populate(machine.Drive)

	err = machine.Start()
	if err != nil {
		fmt.Printf("Error running machine: %s\n", err)
	}
}
