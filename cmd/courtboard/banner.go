package main

import (
	"fmt"
	"strings"
	"time"
)

const bannerWidth = 62

var logo = []string{
	"     ____                  _   _                         _  ",
	"    / ___|___  _   _ _ __| |_| |__   ___   __ _ _ __ __| | ",
	"   | |   / _ \\| | | | '__| __| '_ \\ / _ \\ / _` | '__/ _` | ",
	"   | |__| (_) | |_| | |  | |_| |_) | (_) | (_| | | | (_| | ",
	"    \\____\\___/ \\__,_|_|   \\__|_.__/ \\___/ \\__,_|_|  \\__,_| ",
}

// showStartupAnimation displays the logo and, unless skipped, a short rally
// over the net.
func showStartupAnimation(skipRally bool) {
	border := strings.Repeat("═", bannerWidth)

	fmt.Printf("\n  %s╔%s╗%s\n", cyan, border, reset)
	for _, line := range logo {
		fmt.Printf("  %s║%s%-*s%s║%s\n", cyan, yellow, bannerWidth, line, cyan, reset)
	}
	fmt.Printf("  %s╚%s╝%s\n", cyan, border, reset)

	if skipRally {
		fmt.Print("\n")
		return
	}

	// Turn the bottom border into a divider and draw the court below it
	fmt.Printf(moveUp, 1)
	fmt.Printf("%s  %s╠%s╣%s\n", clearLine, cyan, border, reset)

	frames := rallyFrames(bannerWidth, 2)
	for i, frame := range frames {
		fmt.Printf("%s  %s║%s%s║%s\n", clearLine, cyan, frame, cyan, reset)
		fmt.Printf("%s  %s╚%s╝%s\n", clearLine, cyan, border, reset)
		if i < len(frames)-1 {
			fmt.Printf(moveUp, 2)
		}
		time.Sleep(40 * time.Millisecond)
	}
	fmt.Print("\n")
}

// rallyFrames returns one court row per frame with the ball crossing the net
// passes times.
func rallyFrames(width, passes int) []string {
	net := width / 2
	var frames []string
	for p := 0; p < passes; p++ {
		for step := 1; step < width-1; step += 2 {
			pos := step
			if p%2 == 1 {
				pos = width - 1 - step
			}
			row := []rune(strings.Repeat(" ", width))
			row[net] = '|'
			if pos != net {
				row[pos] = 'o'
			}
			frames = append(frames, yellow+string(row)+reset)
		}
	}
	return frames
}
