//go:build windows

package main

import (
	"os"
	"strconv"
)

// terminalWidth only knows $COLUMNS on Windows; color stays on when it is set.
func terminalWidth() (int, bool) {
	n, err := strconv.Atoi(os.Getenv("COLUMNS"))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
