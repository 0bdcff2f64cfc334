package ui

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var (
	silentMode  bool
	noColorMode bool
	uiMu        sync.RWMutex

	ttyOnce sync.Once
	ttyOK   bool
)

// IsTerminal reports whether stderr is an interactive terminal.
// Returns false when output is piped or TERM is "dumb".
func IsTerminal() bool {
	ttyOnce.Do(func() {
		if os.Getenv("TERM") == "dumb" {
			return
		}
		ttyOK = term.IsTerminal(int(os.Stderr.Fd()))
	})
	return ttyOK
}

// SetSilent suppresses most terminal output.
func SetSilent(silent bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	silentMode = silent
}

// IsSilent returns whether silent mode is enabled.
func IsSilent() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return silentMode
}

// SetNoColor disables colored output.
func SetNoColor(noColor bool) {
	uiMu.Lock()
	defer uiMu.Unlock()
	noColorMode = noColor
	if noColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// IsNoColor returns whether color is disabled.
func IsNoColor() bool {
	uiMu.RLock()
	defer uiMu.RUnlock()
	return noColorMode
}
