package display

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/abrezinsky/courtboard/internal/models"
	"github.com/abrezinsky/courtboard/internal/presentation"
)

const clearScreen = "\033[H\033[2J"

// TextRenderer draws the scoreboard as plain text, e.g. for a terminal.
type TextRenderer struct {
	mu      sync.Mutex
	w       io.Writer
	clear   bool
	view    presentation.View
	drawn   bool
	timeout string
}

// NewTextRenderer writes frames to w. With clear set each frame first clears
// an ANSI terminal.
func NewTextRenderer(w io.Writer, clear bool) *TextRenderer {
	return &TextRenderer{w: w, clear: clear}
}

func (r *TextRenderer) Render(view presentation.View) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.view, r.drawn = view, true
	return r.draw()
}

func (r *TextRenderer) ShowTimeout(side models.Side, number int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeout = fmt.Sprintf("TIMEOUT %d  %s", number, arrowFor(side))
	return r.draw()
}

func (r *TextRenderer) HideTimeout() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timeout == "" {
		return nil
	}
	r.timeout = ""
	return r.draw()
}

func (r *TextRenderer) draw() error {
	if !r.drawn {
		return nil
	}
	var b strings.Builder
	if r.clear {
		b.WriteString(clearScreen)
	}
	b.WriteString(FormatView(r.view))
	if r.timeout != "" {
		b.WriteString(r.timeout)
		b.WriteByte('\n')
	}
	_, err := io.WriteString(r.w, b.String())
	return err
}

// FormatView renders a view as a few lines of text in physical order.
func FormatView(v presentation.View) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s | Set %d | Sets %s\n", v.TournamentName, v.CurrentSet, v.SetScoreText())
	fmt.Fprintf(&b, "%s %-20s %3d  %s\n", serveMark(v, models.SideLeft), v.LeftTeam.Name, v.LeftScore, timeoutMarks(v.LeftTimeouts))
	fmt.Fprintf(&b, "%s %-20s %3d  %s\n", serveMark(v, models.SideRight), v.RightTeam.Name, v.RightScore, timeoutMarks(v.RightTimeouts))
	if v.ServeLabel != "" {
		fmt.Fprintf(&b, "Serve: %s %s\n", v.ServeLabel, arrowFor(v.ServeDirection))
	}
	if v.VideoReviewActive {
		fmt.Fprintf(&b, "VIDEO REVIEW: %s\n", v.VideoReviewType)
	}
	return b.String()
}

func serveMark(v presentation.View, side models.Side) string {
	if v.ServerSide == side {
		return "*"
	}
	return " "
}

func timeoutMarks(slots []bool) string {
	var b strings.Builder
	b.WriteString("TO ")
	for _, used := range slots {
		if used {
			b.WriteByte('#')
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

func arrowFor(side models.Side) string {
	switch side {
	case models.SideLeft:
		return "<-"
	case models.SideRight:
		return "->"
	}
	return ""
}
