package bubbletea

import "github.com/charmbracelet/bubbles/key"

// ReviewKeyMap defines the key bindings for the failure reviewer.
type ReviewKeyMap struct {
	// Navigation
	NextCase key.Binding
	PrevCase key.Binding

	// Panels
	TicketPanel key.Binding
	ResultPanel key.Binding

	// Scrolling
	ScrollDown   key.Binding
	ScrollUp     key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// General
	Quit key.Binding
}

// DefaultReviewKeyMap returns the default key bindings for the
// failure reviewer.
func DefaultReviewKeyMap() ReviewKeyMap {
	return ReviewKeyMap{
		NextCase: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next case"),
		),
		PrevCase: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "previous case"),
		),
		TicketPanel: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "ticket panel"),
		),
		ResultPanel: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "result panel"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j", "scroll down"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k", "scroll up"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "half page down"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
