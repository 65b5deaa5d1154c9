// Package fcb contains helpers for reading, writing, and working with
// the CP/M FCB structure.
package fcb

import (
	"strings"
)

// SIZE is the number of bytes an FCB occupies in guest memory.
const SIZE = 36

// FCB is the 36-byte File Control Block CP/M programs hand to the BDOS.
type FCB struct {
	// Drive holds the drive number for this entry, 0 meaning the
	// currently-selected drive and 1 meaning A:.
	Drive uint8

	// Name holds the filename, padded with spaces.
	Name [8]uint8

	// Type holds the suffix, padded with spaces.
	Type [3]uint8

	Ex uint8
	S1 uint8
	S2 uint8
	RC uint8
	Al [16]uint8

	// Cr is the current record, used by sequential I/O.
	Cr uint8

	// R0, R1, R2 hold the random record number, least significant
	// byte first.
	R0 uint8
	R1 uint8
	R2 uint8
}

// GetName returns the name component of an FCB entry.
//
// The high bit of each byte is masked off, because CP/M stores file
// attributes there.
func (f *FCB) GetName() string {
	t := ""

	for _, c := range f.Name {
		c &= 0x7F
		if c != 0x00 {
			t += string(rune(c))
		}
	}
	return strings.TrimSpace(t)
}

// GetType returns the type/extension component of an FCB entry, with
// attribute bits masked off.
func (f *FCB) GetType() string {
	t := ""

	for _, c := range f.Type {
		c &= 0x7F
		if c != 0x00 {
			t += string(rune(c))
		}
	}
	return strings.TrimSpace(t)
}

// GetFileName returns the "NAME.EXT" form of the entry, with no
// trailing dot when the extension is empty.
func (f *FCB) GetFileName() string {
	name := f.GetName()
	ext := f.GetType()

	if ext == "" {
		return name
	}
	return name + "." + ext
}

// RandomRecord returns the 16-bit random record number held in the
// R0/R1 bytes.
func (f *FCB) RandomRecord() uint16 {
	return uint16(f.R0) | uint16(f.R1)<<8
}

// AsBytes returns the entry of the FCB in a format suitable for
// copying to RAM.
func (f *FCB) AsBytes() []uint8 {

	var r []uint8

	r = append(r, f.Drive)
	r = append(r, f.Name[:]...)
	r = append(r, f.Type[:]...)
	r = append(r, f.Ex)
	r = append(r, f.S1)
	r = append(r, f.S2)
	r = append(r, f.RC)
	r = append(r, f.Al[:]...)
	r = append(r, f.Cr)
	r = append(r, f.R0)
	r = append(r, f.R1)
	r = append(r, f.R2)

	return r
}

// AsDirEntry returns the 32-byte directory-entry form used by the
// find-first/find-next results written to the DMA buffer: the drive
// byte, the padded name and type, and zeroes for the rest.
func (f *FCB) AsDirEntry() []uint8 {

	r := make([]uint8, 32)
	r[0] = f.Drive
	copy(r[1:9], f.Name[:])
	copy(r[9:12], f.Type[:])

	return r
}

// padField pads a name component with spaces, expanding "*" to the
// appropriate run of "?" markers.
func padField(val string, length int) string {
	for len(val) < length {
		val += " "
	}

	t := ""
	for _, c := range val {
		if c == '*' {
			t += strings.Repeat("?", length)
			break
		}
		t += string(c)
	}
	if len(t) > length {
		t = t[:length]
	}
	return t
}

// FromString returns an FCB entry from the given filename, which may
// carry an "X:" drive prefix and the wildcards "*" and "?".
func FromString(str string) FCB {

	tmp := FCB{}

	// Filenames are always upper-case.
	str = strings.ToUpper(strings.TrimSpace(str))

	// Does the string have a drive-prefix?
	if len(str) > 1 && str[1] == ':' {
		tmp.Drive = str[0] - 'A' + 1
		str = str[2:]
	}

	name := str
	ext := ""
	if i := strings.IndexByte(str, '.'); i >= 0 {
		name = str[:i]
		ext = str[i+1:]
	}

	copy(tmp.Name[:], padField(name, 8))
	copy(tmp.Type[:], padField(ext, 3))

	return tmp
}

// FromBytes returns an FCB entry from the given bytes.
func FromBytes(bytes []uint8) FCB {

	tmp := FCB{}

	tmp.Drive = bytes[0]
	copy(tmp.Name[:], bytes[1:])
	copy(tmp.Type[:], bytes[9:])
	tmp.Ex = bytes[12]
	tmp.S1 = bytes[13]
	tmp.S2 = bytes[14]
	tmp.RC = bytes[15]
	copy(tmp.Al[:], bytes[16:])
	tmp.Cr = bytes[32]
	tmp.R0 = bytes[33]
	tmp.R1 = bytes[34]
	tmp.R2 = bytes[35]

	return tmp
}
