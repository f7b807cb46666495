// Package styles provides the lipgloss palette and composed styles for
// bizadmin's terminal output.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette
var (
	Teal     = lipgloss.Color("#14b8a6")
	Sky      = lipgloss.Color("#38bdf8")
	Amber    = lipgloss.Color("#fbbf24")
	Rose     = lipgloss.Color("#fb7185")
	Gray200  = lipgloss.Color("#e5e5e5")
	Gray500  = lipgloss.Color("#737373")
	Gray700  = lipgloss.Color("#404040")
	BgBlack  = lipgloss.Color("#000000")
	ColorRed = lipgloss.Color("#ff4444")

	ColorPrimary   = Teal
	ColorSuccess   = Teal
	ColorWarning   = Amber
	ColorError     = ColorRed
	ColorInfo      = Sky
	ColorAdmin     = Rose
	ColorText      = Gray200
	ColorTextMuted = Gray500
	ColorBorder    = Gray700
	ColorBg        = BgBlack
)

// Status icons. Plain unicode so no patched font is needed.
const (
	IconSuccess = "✓"
	IconError   = "✗"
	IconWarning = "!"
	IconInfo    = "i"
)

// Theme groups the composed styles.
var Theme = struct {
	Title   lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	BadgeAdmin  lipgloss.Style
	BadgeBanned lipgloss.Style
}{
	Title: lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorPrimary),
	Muted: lipgloss.NewStyle().
		Foreground(ColorTextMuted),
	Success: lipgloss.NewStyle().
		Foreground(ColorSuccess),
	Error: lipgloss.NewStyle().
		Foreground(ColorError),
	Warning: lipgloss.NewStyle().
		Foreground(ColorWarning),
	Info: lipgloss.NewStyle().
		Foreground(ColorInfo),

	BadgeAdmin: lipgloss.NewStyle().
		Foreground(ColorAdmin).
		Bold(true),
	BadgeBanned: lipgloss.NewStyle().
		Foreground(ColorError),
}

// RenderSuccess renders a success line.
func RenderSuccess(msg string) string {
	return Theme.Success.Render(IconSuccess + " " + msg)
}

// RenderError renders an error line.
func RenderError(msg string) string {
	return Theme.Error.Render(IconError + " " + msg)
}

// RenderWarning renders a warning line.
func RenderWarning(msg string) string {
	return Theme.Warning.Render(IconWarning + " " + msg)
}

// RenderInfo renders an informational line.
func RenderInfo(msg string) string {
	return Theme.Info.Render(IconInfo + " " + msg)
}
