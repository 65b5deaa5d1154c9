package version

import (
	"strings"
	"testing"
)

// TestBanner ensures the banner carries the version and ends with a
// CP/M-style line ending.
func TestBanner(t *testing.T) {

	if !strings.Contains(Banner(), GetVersion()) {
		t.Fatalf("banner should contain the version")
	}
	if !strings.HasSuffix(Banner(), "\r\n") {
		t.Fatalf("banner should end in CRLF")
	}
}
