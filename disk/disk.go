// Package disk implements the virtual disk the emulator exposes to
// CP/M: a collection of named byte blobs, with the 8.3 name
// normalization and wildcard matching that CP/M programs expect.
//
// Each session owns its own drive; there is no sharing and so no
// locking here.
package disk

import (
	"sort"
	"strings"
)

// eof is the CP/M text end-of-file marker.
const eof = 0x1A

// Drive holds the state of the virtual disk, along with the current
// drive index and user number which CP/M keeps alongside it.
type Drive struct {

	// files maps normalized "NAME.EXT" keys to contents.
	files map[string][]byte

	// current is the selected drive, 0 for A: up to 15 for P:.
	current uint8

	// user is the current user number, 0-15.
	user uint8
}

// New returns an empty drive.
func New() *Drive {
	return &Drive{
		files: make(map[string][]byte),
	}
}

// Normalize maps a filename to the canonical key form: trimmed,
// upper-cased, with a trailing dot appended when the name has no
// extension so that extensionless files still match "*.*".
func Normalize(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	if !strings.Contains(name, ".") {
		name += "."
	}
	return name
}

// WriteBytes stores the given contents under the given name,
// replacing any previous file.
func (d *Drive) WriteBytes(name string, data []byte) {
	d.files[Normalize(name)] = data
}

// WriteText stores a text file: newlines become CR/LF pairs and a
// single EOF marker is appended, which is the form CP/M tools expect.
func (d *Drive) WriteText(name string, text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\n", "\r\n")
	d.files[Normalize(name)] = append([]byte(text), eof)
}

// ReadBytes returns the raw contents of the named file.
func (d *Drive) ReadBytes(name string) ([]byte, bool) {
	data, ok := d.files[Normalize(name)]
	return data, ok
}

// ReadText returns the contents of the named file as text, stopping
// at the first EOF marker.
func (d *Drive) ReadText(name string) (string, bool) {
	data, ok := d.files[Normalize(name)]
	if !ok {
		return "", false
	}
	if i := strings.IndexByte(string(data), eof); i >= 0 {
		data = data[:i]
	}
	return string(data), true
}

// Exists reports whether the named file is present.
func (d *Drive) Exists(name string) bool {
	_, ok := d.files[Normalize(name)]
	return ok
}

// Delete removes the named file, reporting whether it existed.
func (d *Drive) Delete(name string) bool {
	key := Normalize(name)
	if _, ok := d.files[key]; !ok {
		return false
	}
	delete(d.files, key)
	return true
}

// DeleteMatching removes every file matching the given pattern, and
// returns how many were removed.
func (d *Drive) DeleteMatching(pattern string) int {
	n := 0
	for _, name := range d.List(pattern) {
		delete(d.files, name)
		n++
	}
	return n
}

// Rename gives the file oldName the name newName.
func (d *Drive) Rename(oldName string, newName string) bool {
	oldKey := Normalize(oldName)
	data, ok := d.files[oldKey]
	if !ok {
		return false
	}
	delete(d.files, oldKey)
	d.files[Normalize(newName)] = data
	return true
}

// Size returns the length, in bytes, of the named file.
func (d *Drive) Size(name string) (int, bool) {
	data, ok := d.files[Normalize(name)]
	if !ok {
		return 0, false
	}
	return len(data), true
}

// List returns the sorted names of every file matching the given
// wildcard pattern.
func (d *Drive) List(pattern string) []string {
	pattern = Normalize(pattern)

	var out []string
	for name := range d.files {
		if Match(pattern, name) {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// CurrentDrive returns the selected drive index, 0 for A:.
func (d *Drive) CurrentDrive() uint8 {
	return d.current
}

// SetCurrentDrive selects a drive, clamped to the CP/M maximum of P:.
func (d *Drive) SetCurrentDrive(n uint8) {
	if n > 15 {
		n = 15
	}
	d.current = n
}

// User returns the current user number.
func (d *Drive) User() uint8 {
	return d.user
}

// SetUser sets the current user number, 0-15.
func (d *Drive) SetUser(n uint8) {
	d.user = n & 0x0F
}

// Match tests a normalized filename against a normalized wildcard
// pattern using CP/M semantics: the name and extension halves are
// matched independently, "?" matches any single character including
// the space padding, and "*" matches the rest of its half.
func Match(pattern string, name string) bool {
	pName, pExt := splitName(pattern)
	nName, nExt := splitName(name)

	return matchField(pName, nName) && matchField(pExt, nExt)
}

// splitName divides "NAME.EXT" at the first dot.
func splitName(s string) (string, string) {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// matchField matches one half of a pattern against one half of a
// name, iteratively, with the usual backtracking for "*".
func matchField(pattern string, s string) bool {
	pi, si := 0, 0
	star, mark := -1, 0

	for si < len(s) {
		switch {
		case pi < len(pattern) && (pattern[pi] == '?' || pattern[pi] == s[si]):
			pi++
			si++
		case pi < len(pattern) && pattern[pi] == '*':
			star = pi
			mark = si
			pi++
		case star >= 0:
			pi = star + 1
			mark++
			si = mark
		default:
			return false
		}
	}

	// Trailing "*" matches nothing, and trailing "?" matches the
	// padding of a short name.
	for pi < len(pattern) && (pattern[pi] == '*' || pattern[pi] == '?') {
		pi++
	}
	return pi == len(pattern)
}
