//go:build linux || darwin

package main

import (
	"context"
	"os"

	"golang.org/x/sys/unix"

	"github.com/abrezinsky/courtboard/internal/logger"
)

// listenForKeyboard switches the console to single-key input and handles
// shortcuts until quit is requested. Output processing stays on so log lines
// still end with a newline.
func listenForKeyboard(urls shortcutURLs, appLog *logger.SlogLogger, quit context.CancelFunc) {
	fd := int(os.Stdin.Fd())
	oldState, err := unix.IoctlGetTermios(fd, ioctlReadTermios)
	if err != nil {
		return
	}

	newState := *oldState
	newState.Lflag &^= unix.ICANON | unix.ECHO
	newState.Cc[unix.VMIN] = 1
	newState.Cc[unix.VTIME] = 0
	if err := unix.IoctlSetTermios(fd, ioctlWriteTermios, &newState); err != nil {
		return
	}
	defer unix.IoctlSetTermios(fd, ioctlWriteTermios, oldState)

	runShortcuts(os.Stdin.Read, urls, appLog, quit)
}
