package theme

import (
	"fmt"

	"github.com/pterm/pterm"
)

// Theme defines the colour scheme and styling for the application
type Theme struct {
	// Log level colours
	Debug *pterm.Style
	Info  *pterm.Style
	Warn  *pterm.Style
	Error *pterm.Style

	// Component colours
	Success   *pterm.Style
	Highlight *pterm.Style
	Muted     *pterm.Style
	Accent    *pterm.Style

	// Functional colours
	Node        pterm.Color
	NodeAlive   pterm.Color
	NodeDead    pterm.Color
	Numbers     pterm.Color
	SplashColor pterm.Color
}

// Default returns the default application theme
func Default() *Theme {
	return &Theme{
		Debug: pterm.NewStyle(pterm.FgLightBlue),
		Info:  pterm.NewStyle(pterm.FgGreen),
		Warn:  pterm.NewStyle(pterm.FgYellow, pterm.Bold),
		Error: pterm.NewStyle(pterm.FgRed, pterm.Bold),

		Success:   pterm.NewStyle(pterm.FgGreen, pterm.Bold),
		Highlight: pterm.NewStyle(pterm.FgCyan, pterm.Bold),
		Muted:     pterm.NewStyle(pterm.FgGray),
		Accent:    pterm.NewStyle(pterm.FgMagenta),

		Node:        pterm.FgCyan,
		NodeAlive:   pterm.FgGreen,
		NodeDead:    pterm.FgRed,
		Numbers:     pterm.FgLightMagenta,
		SplashColor: pterm.FgBlue,
	}
}

// Dark returns a dark theme variant
func Dark() *Theme {
	t := Default()
	t.Info = pterm.NewStyle(pterm.FgLightGreen)
	t.Warn = pterm.NewStyle(pterm.FgLightYellow, pterm.Bold)
	t.Error = pterm.NewStyle(pterm.FgLightRed, pterm.Bold)
	t.Node = pterm.FgLightCyan
	t.NodeAlive = pterm.FgLightGreen
	t.NodeDead = pterm.FgLightRed
	t.SplashColor = pterm.FgLightBlue
	return t
}

// GetTheme resolves a configured theme name, falling back to default.
func GetTheme(name string) *Theme {
	switch name {
	case "dark":
		return Dark()
	default:
		return Default()
	}
}

// Hyperlink renders an OSC-8 terminal hyperlink.
func Hyperlink(uri, text string) string {
	return fmt.Sprintf("\x1b]8;;%s\x1b\\%s\x1b]8;;\x1b\\", uri, text)
}

// ColourSplash styles banner text.
func ColourSplash(text string) string {
	return pterm.NewStyle(Default().SplashColor).Sprint(text)
}

// StyleUrl styles a URL for terminal display.
func StyleUrl(text string) string {
	return pterm.NewStyle(pterm.FgLightBlue, pterm.Underscore).Sprint(text)
}

// ColourVersion styles a version string.
func ColourVersion(text string) string {
	return pterm.NewStyle(pterm.FgLightMagenta).Sprint(text)
}
