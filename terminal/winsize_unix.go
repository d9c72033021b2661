//go:build unix

package terminal

import (
	"os"

	"golang.org/x/sys/unix"
)

// winsize queries the terminal dimensions of f directly, for when the tty
// layer cannot report them.
func winsize(f *os.File) (w, h int, ok bool) {
	if f == nil {
		return 0, 0, false
	}
	ws, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, false
	}
	return int(ws.Col), int(ws.Row), true
}
