//go:build windows

package main

import (
	"context"
	"os"

	"github.com/abrezinsky/courtboard/internal/logger"
)

// listenForKeyboard reads shortcuts line by line; the console stays in
// cooked mode on Windows.
func listenForKeyboard(urls shortcutURLs, appLog *logger.SlogLogger, quit context.CancelFunc) {
	runShortcuts(os.Stdin.Read, urls, appLog, quit)
}
