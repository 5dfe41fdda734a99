//go:build !linux && !darwin && !windows

package main

import (
	"context"

	"github.com/abrezinsky/courtboard/internal/logger"
)

func listenForKeyboard(shortcutURLs, *logger.SlogLogger, context.CancelFunc) {}
