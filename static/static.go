// Package static contains the default contents of the A: drive,
// embedded at build-time.  Every new machine's disk is seeded from
// here, so a fresh session has something to DIR, TYPE, and run.
package static

import (
	"embed"

	"github.com/retroshell/cpm80/disk"
)

//go:embed content
var content embed.FS

// Populate writes the embedded files onto the given drive.
func Populate(d *disk.Drive) {

	entries, err := content.ReadDir("content")
	if err != nil {
		return
	}

	for _, entry := range entries {
		data, err := content.ReadFile("content/" + entry.Name())
		if err != nil {
			continue
		}
		d.WriteBytes(entry.Name(), data)
	}
}
