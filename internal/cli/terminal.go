package cli

import (
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/vijay-prabhu/bursary-matcher/internal/matching"
)

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[34m"
	ColorPurple = "\033[35m"
	ColorCyan   = "\033[36m"
	ColorWhite  = "\033[37m"
)

// Spinner frames for animated progress
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Terminal provides terminal-aware output utilities
type Terminal struct {
	IsTerminal   bool
	UseColor     bool
	spinnerIndex int
}

// NewTerminal creates a new Terminal instance
func NewTerminal() *Terminal {
	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	return &Terminal{
		IsTerminal: isTerminal,
		UseColor:   isTerminal, // Only use color in terminal
	}
}

// ClearLine clears the current line (terminal only)
func (t *Terminal) ClearLine() {
	if t.IsTerminal {
		fmt.Print("\r\033[K")
	}
}

// Flush ensures output is written immediately
func (t *Terminal) Flush() {
	os.Stdout.Sync()
}

// Spinner returns the next spinner frame
func (t *Terminal) Spinner() string {
	if !t.IsTerminal {
		return ""
	}
	frame := spinnerFrames[t.spinnerIndex]
	t.spinnerIndex = (t.spinnerIndex + 1) % len(spinnerFrames)
	return frame
}

// Color wraps text in ANSI color codes (terminal only)
func (t *Terminal) Color(color, text string) string {
	if !t.UseColor {
		return text
	}
	return color + text + ColorReset
}

// FormatETA formats a duration as a human-readable ETA string
func FormatETA(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	d = d.Round(time.Second)
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		if s > 0 {
			return fmt.Sprintf("%dm%ds", m, s)
		}
		return fmt.Sprintf("%dm", m)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}

// PhaseColor returns the appropriate color for a run phase
func PhaseColor(phase matching.Phase) string {
	switch phase {
	case matching.PhaseFiltering:
		return ColorYellow
	case matching.PhaseStoring:
		return ColorBlue
	case matching.PhaseScoring:
		return ColorPurple
	case matching.PhaseEmbedding:
		return ColorCyan
	case matching.PhaseSaving:
		return ColorGreen
	default:
		return ColorWhite
	}
}

// ProgressPrinter returns a progress callback that redraws one status line
// on a terminal and prints a line per phase change otherwise. Scoring and
// embedding workers call it concurrently.
func (t *Terminal) ProgressPrinter() matching.ProgressCallback {
	var (
		mu        sync.Mutex
		lastPhase matching.Phase
	)

	return func(p matching.Progress) {
		mu.Lock()
		defer mu.Unlock()

		var msg string
		if p.Total > 0 {
			var eta string
			if d := p.ETA(); d > 0 {
				eta = fmt.Sprintf(" (ETA: %s)", FormatETA(d))
			}
			msg = fmt.Sprintf("%s: %d/%d (%d%%)%s", p.Description, p.Current, p.Total, p.Percentage(), eta)
		} else {
			msg = fmt.Sprintf("%s %s...", t.Spinner(), p.Description)
		}
		msg = t.Color(PhaseColor(p.Phase), msg)

		if t.IsTerminal {
			t.ClearLine()
			fmt.Print(msg)
			t.Flush()
		} else {
			shouldPrint := p.Phase != lastPhase
			if p.Phase == matching.PhaseScoring || p.Phase == matching.PhaseEmbedding {
				shouldPrint = shouldPrint || (p.Current > 0 && p.Current%25 == 0) || (p.Total > 0 && p.Current == p.Total)
			}
			if shouldPrint {
				fmt.Println(msg)
			}
		}
		lastPhase = p.Phase
	}
}

// Done clears the progress line
func (t *Terminal) Done() {
	t.ClearLine()
}
