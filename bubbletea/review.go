// Package bubbletea provides the interactive failure review UI.
package bubbletea

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/triageval"
)

// Panel identifies which panel is active.
type Panel int

// Panel constants.
const (
	PanelTicket Panel = iota
	PanelResult
)

// ReviewModel is the Bubble Tea model for reviewing imperfect cases
// from a run: pipeline failures and field mismatches, with the ticket
// text beside the expected-vs-actual breakdown.
type ReviewModel struct {
	// Data
	cases        []ReviewCase
	currentIndex int

	// UI Components
	ticketViewport viewport.Model
	resultViewport viewport.Model

	// State
	activePanel Panel
	ready       bool

	// Rendering
	width, height int

	// Keybindings
	keymap ReviewKeyMap
}

// ReviewCase pairs a scored result with the ticket text it was scored
// on. The dataset carries the text; the result log does not.
type ReviewCase struct {
	Result    triageval.CaseResult
	InputText string
}

// ReviewCases joins results with their dataset cases and keeps only
// the imperfect ones, in result order. Results without a matching
// dataset case keep an empty ticket pane rather than being dropped.
func ReviewCases(results []triageval.CaseResult, dataset []triageval.GoldenCase) []ReviewCase {
	byID := make(map[string]string, len(dataset))
	for _, c := range dataset {
		byID[c.ID] = c.InputText
	}

	var out []ReviewCase
	for _, r := range results {
		if r.FullyCorrect {
			continue
		}
		out = append(out, ReviewCase{Result: r, InputText: byID[r.CaseID]})
	}
	return out
}

// NewReviewModel creates a new ReviewModel over the given cases.
func NewReviewModel(cases []ReviewCase) ReviewModel {
	return ReviewModel{
		cases:       cases,
		activePanel: PanelTicket,
		keymap:      DefaultReviewKeyMap(),
	}
}

// Init implements tea.Model.
func (m ReviewModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeys(msg)

	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)
	}

	var cmd tea.Cmd
	if m.activePanel == PanelTicket {
		m.ticketViewport, cmd = m.ticketViewport.Update(msg)
	} else {
		m.resultViewport, cmd = m.resultViewport.Update(msg)
	}
	return m, cmd
}

func (m ReviewModel) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keymap.NextCase):
		if m.currentIndex < len(m.cases)-1 {
			m.currentIndex++
			m.updateViewportContent()
		}
		return m, nil

	case key.Matches(msg, m.keymap.PrevCase):
		if m.currentIndex > 0 {
			m.currentIndex--
			m.updateViewportContent()
		}
		return m, nil

	case key.Matches(msg, m.keymap.TicketPanel):
		m.activePanel = PanelTicket
		return m, nil

	case key.Matches(msg, m.keymap.ResultPanel):
		m.activePanel = PanelResult
		return m, nil

	case key.Matches(msg, m.keymap.ScrollDown):
		m.activeViewport().ScrollDown(1)
		return m, nil

	case key.Matches(msg, m.keymap.ScrollUp):
		m.activeViewport().ScrollUp(1)
		return m, nil

	case key.Matches(msg, m.keymap.HalfPageDown):
		m.activeViewport().HalfPageDown()
		return m, nil

	case key.Matches(msg, m.keymap.HalfPageUp):
		m.activeViewport().HalfPageUp()
		return m, nil
	}

	return m, nil
}

func (m *ReviewModel) activeViewport() *viewport.Model {
	if m.activePanel == PanelTicket {
		return &m.ticketViewport
	}
	return &m.resultViewport
}

func (m *ReviewModel) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	// Reserve: two panel headers (2), status bar (1), spacing (2).
	usableHeight := msg.Height - 5
	if usableHeight < 2 {
		usableHeight = 2
	}
	ticketHeight := usableHeight * 40 / 100
	resultHeight := usableHeight - ticketHeight

	if !m.ready {
		m.ticketViewport = viewport.New(msg.Width, ticketHeight)
		m.resultViewport = viewport.New(msg.Width, resultHeight)
		m.updateViewportContent()
		m.ready = true
	} else {
		m.ticketViewport.Width = msg.Width
		m.ticketViewport.Height = ticketHeight
		m.resultViewport.Width = msg.Width
		m.resultViewport.Height = resultHeight
	}

	return m, nil
}

func (m *ReviewModel) updateViewportContent() {
	if len(m.cases) == 0 {
		m.ticketViewport.SetContent("No failed cases")
		m.resultViewport.SetContent("")
		return
	}

	c := m.cases[m.currentIndex]

	ticket := c.InputText
	if ticket == "" {
		ticket = "[ticket text not in dataset]"
	}
	m.ticketViewport.SetContent(ticket)
	m.ticketViewport.GotoTop()

	m.resultViewport.SetContent(renderResult(c.Result))
	m.resultViewport.GotoTop()
}

// renderResult formats the expected-vs-actual breakdown for one case.
func renderResult(r triageval.CaseResult) string {
	var sb strings.Builder

	if r.Cause != nil {
		fmt.Fprintf(&sb, "FAILURE: %s\n\n", *r.Cause)
		if r.RawText != "" {
			sb.WriteString("Raw model output:\n")
			sb.WriteString(r.RawText)
			sb.WriteString("\n\n")
		}
	}

	sb.WriteString("                     expected              actual\n")
	writeRow := func(field, expected, actual string) {
		marker := " "
		if expected != actual {
			marker = "✗"
		}
		fmt.Fprintf(&sb, "%s %-18s %-21s %s\n", marker, field, expected, actual)
	}

	actual := r.Actual
	if actual == nil {
		actual = &triageval.TriageDecision{}
	}
	writeRow("category", string(r.Expected.Category), string(actual.Category))
	writeRow("priority", string(r.Expected.Priority), string(actual.Priority))
	writeRow("device", string(r.Expected.Device), string(actual.Device))
	writeRow("clarification",
		fmt.Sprintf("%t", r.Expected.NeedsClarification),
		fmt.Sprintf("%t", actual.NeedsClarification))
	writeRow("missing_fields",
		strings.Join(triageval.SortedFields(r.Expected.MissingFields), ","),
		strings.Join(triageval.SortedFields(actual.MissingFields), ","))

	if len(r.UnknownMissingFields) > 0 {
		fmt.Fprintf(&sb, "\nOut-of-vocabulary fields: %s\n", strings.Join(r.UnknownMissingFields, ", "))
	}
	fmt.Fprintf(&sb, "\nlatency: %.1f ms\n", r.LatencyMS)

	return sb.String()
}

// View implements tea.Model.
func (m ReviewModel) View() string {
	if !m.ready {
		return "Loading..."
	}

	var s strings.Builder

	s.WriteString(m.renderPanelHeader("TICKET", m.activePanel == PanelTicket))
	s.WriteString("\n")
	s.WriteString(m.ticketViewport.View())
	s.WriteString("\n")

	s.WriteString(m.renderPanelHeader("RESULT", m.activePanel == PanelResult))
	s.WriteString("\n")
	s.WriteString(m.resultViewport.View())
	s.WriteString("\n")

	s.WriteString(m.renderStatusBar())

	return s.String()
}

func (m ReviewModel) renderPanelHeader(name string, active bool) string {
	style := lipgloss.NewStyle().Bold(true)
	if active {
		return style.Render(fmt.Sprintf("%s [active]", name))
	}
	return style.Render(name)
}

func (m ReviewModel) renderStatusBar() string {
	if len(m.cases) == 0 {
		return "No failed cases"
	}

	c := m.cases[m.currentIndex]
	label := "mismatch"
	if c.Result.Cause != nil {
		label = string(*c.Result.Cause)
	}

	caseInfo := fmt.Sprintf("case %d/%d", m.currentIndex+1, len(m.cases))
	help := "[t]icket [r]esult [n/N]case [j/k]scroll [q]uit"

	return fmt.Sprintf("%s │ %s │ %s │ %s", caseInfo, c.Result.CaseID, label, help)
}
