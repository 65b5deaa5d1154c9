//go:build !unix

package terminal

// canSelect always reports no pending input on platforms without
// select(2); the termbox driver is the one to use there.
func canSelect() bool {
	return false
}
