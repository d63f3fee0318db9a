package ui

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	overlay "github.com/rmhubbert/bubbletea-overlay"
)

const toastDuration = 4 * time.Second

// ToastModel is a short-lived notification drawn over the current screen
type ToastModel struct {
	title   string
	body    string
	isError bool
	visible bool
	seq     int
	width   int
}

// toastExpired hides the toast it was scheduled for, unless a newer one replaced it
type toastExpired struct {
	seq int
}

// Show displays a toast and returns the command that hides it again
func (m *ToastModel) Show(title, body string, isError bool) tea.Cmd {
	m.seq++
	m.title = title
	m.body = body
	m.isError = isError
	m.visible = true

	seq := m.seq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpired{seq: seq}
	})
}

// HandleExpiry hides the toast when its timer fires. It reports whether msg
// was a toast timer.
func (m *ToastModel) HandleExpiry(msg tea.Msg) bool {
	expired, ok := msg.(toastExpired)
	if !ok {
		return false
	}
	if expired.seq == m.seq {
		m.visible = false
	}
	return true
}

func (m *ToastModel) Hide() {
	m.visible = false
}

func (m ToastModel) IsVisible() bool {
	return m.visible
}

func (m *ToastModel) SetWidth(width int) {
	m.width = width
}

func (m ToastModel) Init() tea.Cmd {
	return nil
}

func (m ToastModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

func (m ToastModel) View() string {
	style := ToastInfoStyle
	if m.isError {
		style = ToastErrorStyle
	}

	w := m.width / 3
	if w < 30 {
		w = 30
	}

	var b strings.Builder
	titleStyle := ToastTitleStyle.Foreground(style.GetBorderTopForeground())
	b.WriteString(titleStyle.Render(m.title))
	if m.body != "" {
		b.WriteString("\n" + m.body)
	}
	return style.Width(w).Render(b.String())
}

// RenderOverlay draws the toast in the top right corner of backgroundView
func (m ToastModel) RenderOverlay(backgroundView string) string {
	if !m.visible {
		return backgroundView
	}

	return overlay.New(
		m,
		&staticViewModel{content: backgroundView},
		overlay.Right,
		overlay.Top,
		-1,
		1,
	).View()
}

// staticViewModel is a simple model that renders static content (background)
type staticViewModel struct {
	content string
}

func (m staticViewModel) Init() tea.Cmd {
	return nil
}

func (m staticViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m, nil
}

func (m staticViewModel) View() string {
	return m.content
}
