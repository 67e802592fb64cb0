package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used by the renderer.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	// Syllable highlights phoneme text such as fragments and spellings.
	Syllable lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

// NewStyles builds styles for r. A renderer bound to a non-terminal
// writer produces plain text.
func NewStyles(r *lipgloss.Renderer) *Styles {
	green := lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#81C784"}
	red := lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#E57373"}
	yellow := lipgloss.AdaptiveColor{Light: "#F57F17", Dark: "#FFD54F"}
	blue := lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#64B5F6"}
	gray := lipgloss.AdaptiveColor{Light: "#757575", Dark: "#9E9E9E"}

	return &Styles{
		Header1:  r.NewStyle().Bold(true).Foreground(blue),
		Header2:  r.NewStyle().Bold(true),
		Bold:     r.NewStyle().Bold(true),
		Muted:    r.NewStyle().Foreground(gray),
		Success:  r.NewStyle().Foreground(green),
		Warning:  r.NewStyle().Foreground(yellow),
		Error:    r.NewStyle().Foreground(red),
		Info:     r.NewStyle().Foreground(blue),
		Syllable: r.NewStyle().Bold(true).Foreground(yellow),

		StatusSuccess: r.NewStyle().Foreground(green).SetString("✓"),
		StatusFailed:  r.NewStyle().Foreground(red).SetString("✗"),
	}
}
