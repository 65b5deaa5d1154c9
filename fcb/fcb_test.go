package fcb

import (
	"testing"
)

// TestFromString covers parsing of plain names, extensions, and
// drive prefixes.
func TestFromString(t *testing.T) {

	f := FromString("b:hello.com")

	if f.Drive != 2 {
		t.Fatalf("drive should be 2 for B:, got %d", f.Drive)
	}
	if string(f.Name[:]) != "HELLO   " {
		t.Fatalf("name should be padded, got %q", string(f.Name[:]))
	}
	if string(f.Type[:]) != "COM" {
		t.Fatalf("type wrong, got %q", string(f.Type[:]))
	}

	f = FromString("readme")
	if f.Drive != 0 {
		t.Fatalf("drive should default to zero")
	}
	if string(f.Name[:]) != "README  " || string(f.Type[:]) != "   " {
		t.Fatalf("extensionless parse wrong: %q %q", string(f.Name[:]), string(f.Type[:]))
	}
}

// TestFromStringWildcards ensures "*" expands to runs of "?".
func TestFromStringWildcards(t *testing.T) {

	f := FromString("*.COM")
	if string(f.Name[:]) != "????????" {
		t.Fatalf("name glob should expand, got %q", string(f.Name[:]))
	}
	if string(f.Type[:]) != "COM" {
		t.Fatalf("type wrong, got %q", string(f.Type[:]))
	}

	f = FromString("AB*.*")
	if string(f.Name[:]) != "AB??????" {
		t.Fatalf("partial glob should expand, got %q", string(f.Name[:]))
	}
	if string(f.Type[:]) != "???" {
		t.Fatalf("type glob should expand, got %q", string(f.Type[:]))
	}
}

// TestRoundTrip ensures serializing to bytes and parsing back
// recovers the same name.
func TestRoundTrip(t *testing.T) {

	f := FromString("C:TEST.TXT")

	b := f.AsBytes()
	if len(b) != SIZE {
		t.Fatalf("AsBytes should produce %d bytes, got %d", SIZE, len(b))
	}

	g := FromBytes(b)
	if g.GetFileName() != "TEST.TXT" {
		t.Fatalf("round trip lost the name: %q", g.GetFileName())
	}
	if g.Drive != 3 {
		t.Fatalf("round trip lost the drive")
	}
}

// TestAttributeBitsMasked ensures the high attribute bits don't leak
// into names.
func TestAttributeBitsMasked(t *testing.T) {

	f := FromString("HELLO.COM")
	f.Name[0] |= 0x80
	f.Type[0] |= 0x80

	if f.GetFileName() != "HELLO.COM" {
		t.Fatalf("attribute bits leaked: %q", f.GetFileName())
	}
}

// TestAsDirEntry checks the 32-byte directory form.
func TestAsDirEntry(t *testing.T) {

	f := FromString("HI.TXT")
	e := f.AsDirEntry()

	if len(e) != 32 {
		t.Fatalf("directory entries are 32 bytes, got %d", len(e))
	}
	if string(e[1:9]) != "HI      " || string(e[9:12]) != "TXT" {
		t.Fatalf("directory entry name wrong: %q", string(e[1:12]))
	}
	for _, b := range e[12:] {
		if b != 0 {
			t.Fatalf("directory entry tail should be zero")
		}
	}
}

// TestGetFileName covers the extensionless form.
func TestGetFileName(t *testing.T) {

	f := FromString("NOTES")
	if f.GetFileName() != "NOTES" {
		t.Fatalf("unexpected name %q", f.GetFileName())
	}

	f = FromString("A:X.Y")
	if f.GetFileName() != "X.Y" {
		t.Fatalf("unexpected name %q", f.GetFileName())
	}
}
