package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/npratt/walletshell/internal/balance"
	"github.com/npratt/walletshell/internal/events"
	"github.com/npratt/walletshell/internal/lifecycle"
)

const (
	minWidth  = 50
	minHeight = 16

	// mainHeight is the height of the loader, login or balance panel.
	mainHeight = 6
	// mainPanelRows is everything but the event log: borders (2), header (1),
	// dividers (3), main panel and footer (1).
	mainPanelRows = 7 + mainHeight
	// maxVisibleEvents caps the event log.
	maxVisibleEvents = 8
)

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.width < minWidth || m.height < minHeight {
		return m.renderTooSmall()
	}

	w := safeWidth(m.width - 4)
	sections := []string{
		m.renderHeader(w),
		m.renderDivider(w),
		lipgloss.PlaceVertical(mainHeight, lipgloss.Top, m.renderMain(w)),
		m.renderDivider(w),
		m.renderEvents(w),
		m.renderDivider(w),
		m.renderFooter(),
	}

	rendered := styles.Container.
		Width(safeWidth(m.width - 2)).
		Render(strings.Join(sections, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Left, lipgloss.Top, rendered)
}

// renderTooSmall renders a minimal message for terminals that are too small.
func (m model) renderTooSmall() string {
	return fmt.Sprintf("Terminal too small (%dx%d). Need %dx%d minimum.",
		m.width, m.height, minWidth, minHeight)
}

func (m model) renderHeader(w int) string {
	title := styles.Title.Render("walletshell")
	if m.version != "" {
		title += " " + styles.Version.Render(m.version)
	}
	phase := m.renderPhase()
	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		title,
		strings.Repeat(" ", max(1, w-lipgloss.Width(title)-lipgloss.Width(phase))),
		phase,
	)
}

// renderPhase renders the phase badge.
func (m model) renderPhase() string {
	text := strings.ToUpper(m.snap.Phase)
	if text == "" {
		text = "UNKNOWN"
	}
	var style lipgloss.Style
	switch m.snap.Phase {
	case lifecycle.PhaseReady.String():
		style = styles.PhaseReady
	case lifecycle.PhaseLogin.String(), lifecycle.PhaseLoading.String():
		style = styles.PhaseLogin
	case lifecycle.PhaseQuitting.String():
		style = styles.PhaseQuitting
	default:
		style = styles.PhaseBusy
	}
	if m.snap.PendingVersion != "" {
		text += " " + m.snap.PendingVersion
	}
	return style.Render(text)
}

func (m model) renderDivider(w int) string {
	return styles.Divider.Render(strings.Repeat("─", w))
}

// renderMain picks the panel for the current phase. Busy phases show the
// loader; the balances are only rendered once the shell is ready.
func (m model) renderMain(w int) string {
	switch {
	case m.snap.Busy():
		return m.renderLoader(w)
	case m.snap.AwaitingLogin():
		return m.renderLogin(w)
	case m.snap.Ready:
		return m.renderCards(w)
	default:
		return m.renderLoader(w)
	}
}

func (m model) renderLoader(w int) string {
	lines := []string{
		"",
		lipgloss.PlaceHorizontal(w, lipgloss.Center,
			m.spinner.View()+" "+styles.StatusText.Render(m.snap.StatusText)),
	}
	if m.snap.StatusSubtext != "" {
		lines = append(lines, lipgloss.PlaceHorizontal(w, lipgloss.Center,
			styles.Subtext.Render(m.snap.StatusSubtext)))
	}
	return strings.Join(lines, "\n")
}

func (m model) renderLogin(w int) string {
	note := "Daemon running."
	if m.snap.Phase == lifecycle.PhaseLoading.String() {
		note = "Daemon ready."
	}
	lines := []string{
		styles.Prompt.Render("Unlock wallet for staking"),
		styles.Subtext.Render(note + " Enter your passphrase."),
		"",
	}
	switch {
	case m.unlocking:
		lines = append(lines, m.spinner.View()+" Unlocking...")
	default:
		lines = append(lines, m.passphrase.View())
	}
	if m.loginErr != "" {
		lines = append(lines, styles.Error.Render(truncate(m.loginErr, w)))
	}
	return strings.Join(lines, "\n")
}

func (m model) renderCards(w int) string {
	if len(m.cards) == 0 {
		return styles.Muted.Render("No currencies configured.")
	}
	cardWidth := max(16, w/len(m.cards)-2)
	rendered := make([]string, 0, len(m.cards))
	for _, c := range m.cards {
		rendered = append(rendered, styles.Card.Width(cardWidth).Render(renderCard(c)))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

// renderCard renders one currency. Unloaded cards show placeholders, never
// formatted zeros.
func renderCard(c card) string {
	if !c.Loaded {
		ph := styles.Placeholder.Render(balance.Placeholder(c.Currency))
		title := styles.CardTitle.Render(string(c.Currency))
		if c.Err != "" {
			title += " " + styles.Error.Render("!")
		}
		return strings.Join([]string{title, ph, ph}, "\n")
	}

	d := balance.Format(c.Balance.Confirmed, c.Balance.Unconfirmed, c.Currency)
	return strings.Join([]string{
		styles.CardTitle.Render(d.Unit(c.Currency)),
		styles.Amount.Render(d.Confirmed),
		styles.Pending.Render("+" + d.Unconfirmed + " pending"),
	}, "\n")
}

func (m model) renderEvents(w int) string {
	visible := m.visibleEvents()
	start := max(0, len(m.eventLines)-visible)

	lines := make([]string, 0, visible)
	for _, el := range m.eventLines[start:] {
		lines = append(lines, renderEventLine(el, w))
	}
	for len(lines) < visible {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// renderEventLine renders a single event with timestamp and styling.
func renderEventLine(el eventLine, maxWidth int) string {
	prefix := el.Time.Format("15:04:05") + " "
	text := truncate(el.Text, max(10, maxWidth-len(prefix)))
	return styles.Muted.Render(prefix) + el.Style.Render(text)
}

func (m model) renderFooter() string {
	var help string
	switch {
	case m.quitSent || m.snap.Phase == lifecycle.PhaseQuitting.String():
		help = "ctrl+c: force quit"
	case m.passphrase.Focused():
		help = "enter: unlock  esc: clear  ctrl+c: quit"
	case m.snap.Ready:
		help = "r: refresh  q: quit"
	default:
		help = "q: quit"
	}
	return styles.Footer.Render(help)
}

// safeWidth returns a width that is at least 1 to prevent negative values.
func safeWidth(w int) int {
	if w < 1 {
		return 1
	}
	return w
}

// StyleForEvent returns the style for an event type.
func StyleForEvent(event events.Event) lipgloss.Style {
	switch event.(type) {
	case *events.RequestEvent:
		return styles.Request
	case *events.AnomalyEvent:
		return styles.Warning
	case *events.ErrorEvent:
		return styles.Error
	case *events.IgnoredEvent:
		return styles.Muted
	default:
		return styles.Event
	}
}
