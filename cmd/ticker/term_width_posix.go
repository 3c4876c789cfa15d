//go:build !windows

package main

import (
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// terminalWidth reports stdout's width and whether it is a terminal.
// Output redirected to a file falls back to $COLUMNS.
func terminalWidth() (int, bool) {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err == nil && ws != nil && ws.Col > 0 {
		return int(ws.Col), true
	}
	return columnsEnv(), false
}

func columnsEnv() int {
	if n, err := strconv.Atoi(os.Getenv("COLUMNS")); err == nil && n > 0 {
		return n
	}
	return 0
}
