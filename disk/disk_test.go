package disk

import (
	"testing"
)

// TestBytesRoundTrip ensures write-bytes then read-bytes is the identity.
func TestBytesRoundTrip(t *testing.T) {

	d := New()

	data := []byte{0x01, 0x02, 0x1A, 0x03}
	d.WriteBytes("test.bin", data)

	out, ok := d.ReadBytes("TEST.BIN")
	if !ok {
		t.Fatalf("file should exist")
	}
	if string(out) != string(data) {
		t.Fatalf("contents changed on the way through")
	}

	if n, _ := d.Size("test.bin"); n != 4 {
		t.Fatalf("wrong size %d", n)
	}
}

// TestTextRoundTrip ensures a canonicalized text is a fixed point of
// write-text then read-text.
func TestTextRoundTrip(t *testing.T) {

	d := New()

	d.WriteText("a.txt", "hello\nworld\n")
	out, ok := d.ReadText("A.TXT")
	if !ok {
		t.Fatalf("file should exist")
	}
	if out != "hello\r\nworld\r\n" {
		t.Fatalf("unexpected text %q", out)
	}

	// Writing the canonical form back must be a fixed point.
	d.WriteText("b.txt", out)
	again, _ := d.ReadText("b.txt")
	if again != out {
		t.Fatalf("canonical text is not a fixed point: %q", again)
	}
}

// TestReadTextStopsAtEOF ensures text reads stop at the 0x1A marker.
func TestReadTextStopsAtEOF(t *testing.T) {

	d := New()
	d.WriteBytes("x.txt", []byte("abc\x1adef"))

	out, _ := d.ReadText("x.txt")
	if out != "abc" {
		t.Fatalf("text read should stop at EOF, got %q", out)
	}
}

// TestNormalize covers the trailing-dot rule for extensionless names.
func TestNormalize(t *testing.T) {

	if Normalize(" readme.txt ") != "README.TXT" {
		t.Fatalf("normalization failed")
	}
	if Normalize("data") != "DATA." {
		t.Fatalf("extensionless names should gain a trailing dot")
	}
}

// TestDeleteRename covers delete, wildcard delete, and rename.
func TestDeleteRename(t *testing.T) {

	d := New()
	d.WriteBytes("a.txt", []byte("a"))
	d.WriteBytes("b.txt", []byte("b"))
	d.WriteBytes("c.doc", []byte("c"))

	if !d.Delete("a.txt") {
		t.Fatalf("delete of an existing file should succeed")
	}
	if d.Delete("a.txt") {
		t.Fatalf("delete of a missing file should fail")
	}

	if n := d.DeleteMatching("*.txt"); n != 1 {
		t.Fatalf("wildcard delete removed %d files", n)
	}

	if !d.Rename("c.doc", "d.doc") {
		t.Fatalf("rename should succeed")
	}
	if d.Exists("c.doc") || !d.Exists("d.doc") {
		t.Fatalf("rename left the wrong files behind")
	}
}

// TestList ensures wildcard listing is sorted and honours both halves
// of the pattern.
func TestList(t *testing.T) {

	d := New()
	d.WriteBytes("README.TXT", []byte("r"))
	d.WriteBytes("HELLO.COM", []byte("h"))
	d.WriteBytes("NOTES", []byte("n"))

	out := d.List("*.*")
	if len(out) != 3 {
		t.Fatalf("*.* should match everything, got %v", out)
	}
	if out[0] != "HELLO.COM" || out[1] != "NOTES." || out[2] != "README.TXT" {
		t.Fatalf("listing should be sorted, got %v", out)
	}

	out = d.List("*.COM")
	if len(out) != 1 || out[0] != "HELLO.COM" {
		t.Fatalf("extension filter failed, got %v", out)
	}

	if len(d.List("Z*.*")) != 0 {
		t.Fatalf("no file should match Z*.*")
	}
}

// TestMatch covers the CP/M wildcard semantics.
func TestMatch(t *testing.T) {

	type testCase struct {
		pattern string
		name    string
		want    bool
	}

	tests := []testCase{
		{"HELLO.COM", "HELLO.COM", true},
		{"HELLO.COM", "HELLO.TXT", false},
		{"*.*", "HELLO.COM", true},
		{"*.*", "NOTES.", true},
		{"*.COM", "HELLO.COM", true},
		{"*.COM", "HELLO.", false},
		{"H?LLO.COM", "HELLO.COM", true},
		{"H?LLO.COM", "HALLO.COM", true},
		{"H?LLO.COM", "HLLO.COM", false},
		{"????????.???", "HELLO.COM", true},
		{"????????.???", "A.B", true},
		{"HE*.COM", "HELLO.COM", true},
		{"HE*.COM", "HOLLOW.COM", false},
		{"A*.*", "ABC.TXT", true},
	}

	for _, tc := range tests {
		if Match(tc.pattern, tc.name) != tc.want {
			t.Fatalf("Match(%q, %q) != %v", tc.pattern, tc.name, tc.want)
		}
	}
}

// TestDriveAndUser covers the drive/user state.
func TestDriveAndUser(t *testing.T) {

	d := New()
	if d.CurrentDrive() != 0 {
		t.Fatalf("default drive should be A:")
	}

	d.SetCurrentDrive(3)
	if d.CurrentDrive() != 3 {
		t.Fatalf("drive not set")
	}
	d.SetCurrentDrive(200)
	if d.CurrentDrive() != 15 {
		t.Fatalf("drive should clamp to P:")
	}

	d.SetUser(5)
	if d.User() != 5 {
		t.Fatalf("user not set")
	}
	d.SetUser(0xFF)
	if d.User() != 15 {
		t.Fatalf("user should mask to 0-15")
	}
}
