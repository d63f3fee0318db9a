package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	overlay "github.com/rmhubbert/bubbletea-overlay"

	"gemini-terminal/internal/config"
	"gemini-terminal/internal/logging"
	"gemini-terminal/internal/markup"
	"gemini-terminal/internal/models"
	"gemini-terminal/internal/session"
	"gemini-terminal/internal/settings"
)

const (
	titleHeight    = 4
	textareaHeight = 5
	helpHeight     = 2
	padding        = 2
)

type ChatViewModel struct {
	session  *session.Session
	repo     *settings.Repository
	model    string
	renderer string

	viewport    viewport.Model
	textarea    textarea.Model
	spinner     spinner.Model
	mdRenderer  *glamour.TermRenderer
	panel       SettingsModel
	showPanel   bool
	width       int
	height      int
	sendStarted time.Time
	lastLatency time.Duration
}

// Notify asks the root model to show a toast
type Notify struct {
	Title   string
	Body    string
	IsError bool
}

type turnFinished struct {
	reply models.Message
	err   error
}

func notify(title, body string, isError bool) tea.Cmd {
	return func() tea.Msg {
		return Notify{Title: title, Body: body, IsError: isError}
	}
}

// createMarkdownRenderer creates a markdown renderer with fallback handling
func createMarkdownRenderer(width int) *glamour.TermRenderer {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-10),
	)
	if err == nil {
		return renderer
	}

	logging.Error("Failed to create markdown renderer with auto style: %v, trying fallback", err)

	renderer, err = glamour.NewTermRenderer(
		glamour.WithWordWrap(width - 10),
	)
	if err != nil {
		logging.Error("Failed to create markdown renderer: %v, using basic renderer", err)
		return nil
	}
	return renderer
}

func NewChatViewModel(sess *session.Session, repo *settings.Repository, model, renderer string, width, height int) ChatViewModel {
	ta := textarea.New()
	ta.Placeholder = "Type your message here..."
	ta.Focus()
	ta.CharLimit = 4000
	ta.SetWidth(width - 4)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))
	ta.KeyMap.LineNext = key.NewBinding()
	ta.KeyMap.LinePrevious = key.NewBinding()

	vp := viewport.New(width-6, viewportHeight(height))
	vp.MouseWheelDelta = 2
	vp.KeyMap.Down = key.NewBinding(key.WithKeys("down"))
	vp.KeyMap.Up = key.NewBinding(key.WithKeys("up"))
	vp.KeyMap.PageDown = key.NewBinding(key.WithKeys("pgdown"))
	vp.KeyMap.PageUp = key.NewBinding(key.WithKeys("pgup"))
	vp.KeyMap.HalfPageDown = key.NewBinding()
	vp.KeyMap.HalfPageUp = key.NewBinding()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	m := ChatViewModel{
		session:  sess,
		repo:     repo,
		model:    model,
		renderer: renderer,
		viewport: vp,
		textarea: ta,
		spinner:  sp,
		width:    width,
		height:   height,
	}
	if renderer == config.RendererGlamour {
		m.mdRenderer = createMarkdownRenderer(width)
	}
	m.updatePlaceholder()
	m.renderMessages()
	return m
}

func viewportHeight(height int) int {
	h := height - titleHeight - textareaHeight - helpHeight - padding
	if h < 3 {
		h = 3
	}
	return h
}

func (m ChatViewModel) Init() tea.Cmd {
	cmds := []tea.Cmd{textarea.Blink, m.spinner.Tick}
	if !m.repo.Current().HasAPIKey() {
		cmds = append(cmds, notify("API Key Required", "Please configure your Gemini API key in settings first (Ctrl+S).", true))
	}
	return tea.Batch(cmds...)
}

func (m ChatViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.showPanel {
		switch msg := msg.(type) {
		case SettingsClosed:
			m.closePanel()
			return m, nil
		case SettingsSaved:
			m.closePanel()
			return m, notify("Settings Saved", "Your configuration has been saved successfully.", false)
		case tea.KeyMsg, settingsSaveFailed:
			if k, ok := msg.(tea.KeyMsg); ok && k.String() == "ctrl+x" {
				m.session.Close()
				return m, tea.Quit
			}
			newPanel, cmd := m.panel.Update(msg)
			m.panel = newPanel.(SettingsModel)
			return m, cmd
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = msg.Width - 6
		m.viewport.Height = viewportHeight(msg.Height)
		m.textarea.SetWidth(msg.Width - 4)
		if m.showPanel {
			m.panel.resize(msg.Width, msg.Height)
		}
		if m.renderer == config.RendererGlamour {
			m.mdRenderer = createMarkdownRenderer(msg.Width)
		}
		m.renderMessages()
		return m, nil

	case turnFinished:
		m.lastLatency = time.Since(m.sendStarted)
		m.renderMessages()
		m.viewport.GotoBottom()
		m.textarea.Focus()

		switch {
		case msg.err == nil:
			return m, nil
		case errors.Is(msg.err, session.ErrDiscarded):
			return m, nil
		default:
			logging.Error("Chat turn failed: %v", msg.err)
			return m, notify("Error", "Failed to send message. Please check your API key and try again.", true)
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+x":
			m.session.Close()
			return m, tea.Quit

		case "esc":
			if m.session.State() == session.Sending {
				m.session.Cancel()
				m.renderMessages()
				return m, notify("Cancelled", "The pending request was cancelled.", false)
			}
			return m, func() tea.Msg { return BackToLanding{} }

		case "ctrl+l":
			if m.session.State() != session.Idle {
				return m, nil
			}
			m.session.Clear()
			m.lastLatency = 0
			m.renderMessages()
			return m, notify("Chat Cleared", "Your conversation history has been cleared.", false)

		case "ctrl+s":
			if m.session.State() != session.Idle {
				return m, nil
			}
			m.panel = NewSettingsModel(m.repo, m.width, m.height, true)
			m.showPanel = true
			m.textarea.Blur()
			return m, m.panel.Init()

		case "enter":
			return m.send()
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		if m.session.State() == session.Sending {
			m.renderMessages()
		}
		return m, cmd
	}

	if m.inputEnabled() {
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m ChatViewModel) send() (tea.Model, tea.Cmd) {
	if m.session.State() != session.Idle {
		return m, nil
	}

	turn, err := m.session.Submit(m.textarea.Value())
	switch {
	case errors.Is(err, session.ErrEmptyInput), errors.Is(err, session.ErrBusy):
		return m, nil
	case errors.Is(err, session.ErrMissingAPIKey):
		return m, notify("API Key Missing", "Please configure your API key in settings.", true)
	case err != nil:
		logging.Error("Failed to start turn: %v", err)
		return m, notify("Error", "Failed to send message. Please try again.", true)
	}

	m.textarea.Reset()
	m.sendStarted = time.Now()
	m.renderMessages()
	m.viewport.GotoBottom()

	return m, tea.Batch(waitForTurn(turn), m.spinner.Tick)
}

// waitForTurn runs the outbound call off the UI goroutine
func waitForTurn(turn *session.Turn) tea.Cmd {
	return func() tea.Msg {
		reply, err := turn.Wait(context.Background())
		return turnFinished{reply: reply, err: err}
	}
}

func (m *ChatViewModel) closePanel() {
	m.showPanel = false
	m.updatePlaceholder()
	m.textarea.Focus()
}

func (m ChatViewModel) inputEnabled() bool {
	return m.session.State() == session.Idle && m.repo.Current().HasAPIKey()
}

func (m *ChatViewModel) updatePlaceholder() {
	if m.repo.Current().HasAPIKey() {
		m.textarea.Placeholder = "Type your message here..."
	} else {
		m.textarea.Placeholder = "Configure your API key first (Ctrl+S)"
	}
}

func (m ChatViewModel) View() string {
	var b strings.Builder

	b.WriteString(TitleWithPaddingStyle.Render("Mental Health Support Chat") + "\n")

	statusLine := fmt.Sprintf("Model: %s | Renderer: %s | Messages: %d", m.model, m.renderer, len(m.session.Messages()))
	switch m.session.State() {
	case session.Sending:
		statusLine += " | " + m.spinner.View() + " Thinking..."
	case session.Idle:
		if m.lastLatency > 0 {
			statusLine += fmt.Sprintf(" | Last reply: %.1fs", m.lastLatency.Seconds())
		}
	}
	b.WriteString(statusBarStyle.Render(statusLine) + "\n\n")

	b.WriteString(RenderViewportWithBorder(m.viewport.View()))
	b.WriteString("\n")
	if scrollInfo := m.renderScrollIndicator(); scrollInfo != "" {
		b.WriteString(scrollInfo)
	}
	b.WriteString("\n")

	b.WriteString(m.textarea.View() + "\n")

	helpText := "Enter: Send • Alt+Enter: Newline • Ctrl+L: Clear • Ctrl+S: Settings • ↑/↓: Scroll • Esc: Cancel/Back • Ctrl+X: Exit"
	b.WriteString(helpStyle.Render(helpText))

	baseView := b.String()
	if !m.showPanel {
		return baseView
	}

	return overlay.New(
		m.panel,
		&staticViewModel{content: baseView},
		overlay.Center,
		overlay.Center,
		0,
		0,
	).View()
}

func (m *ChatViewModel) renderMessages() {
	messages := m.session.Messages()
	contentWidth := m.viewport.Width

	if len(messages) == 0 {
		welcome := lipgloss.JoinVertical(lipgloss.Center,
			"",
			EmptyStateTitle.Width(contentWidth).Render("Welcome to your safe space"),
			EmptyStateStyle.Width(contentWidth).Render("I'm here to listen and support you. Feel free to share what's on your mind."),
		)
		m.viewport.SetContent(welcome)
		return
	}

	var b strings.Builder
	for _, msg := range messages {
		stamp := TimestampStyle.Render(msg.Timestamp.Format("15:04"))

		if msg.Role == models.RoleUser {
			label := UserMessageLabelStyle.Render("You") + " " + stamp
			b.WriteString(GetUserMessageContentStyle(m.width).Render(label + "\n" + msg.Content))
		} else {
			label := AssistantMessageLabelStyle.Render("Assistant") + " " + stamp
			b.WriteString(GetAssistantMessageContentStyle(m.width).Render(label + "\n" + m.renderContent(msg.Content)))
		}
		b.WriteString("\n")
	}

	if m.session.State() == session.Sending {
		label := AssistantMessageLabelStyle.Render("Assistant")
		b.WriteString(GetAssistantMessageContentStyle(m.width).Render(label + "\n" + m.spinner.View() + " Thinking..."))
	}

	m.viewport.SetContent(b.String())
}

// renderContent draws an assistant reply with the configured renderer
func (m *ChatViewModel) renderContent(content string) string {
	if m.renderer == config.RendererGlamour && m.mdRenderer != nil {
		if rendered, ok := m.safeRenderMarkdown(content); ok {
			return rendered
		}
	}
	return markup.Render(content, MessageStyles)
}

// safeRenderMarkdown renders through glamour, recovering from renderer panics
func (m *ChatViewModel) safeRenderMarkdown(content string) (out string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Panic in markdown rendering: %v", r)
			out, ok = "", false
		}
	}()

	rendered, err := m.mdRenderer.Render(content)
	if err != nil {
		logging.Error("Markdown rendering error: %v, falling back to basic renderer", err)
		return "", false
	}
	return strings.TrimRight(rendered, "\n"), true
}

func (m ChatViewModel) renderScrollIndicator() string {
	if m.viewport.TotalLineCount() <= m.viewport.Height {
		return ""
	}

	scrollPercent := int(m.viewport.ScrollPercent() * 100)
	return ScrollIndicatorStyle.Render(fmt.Sprintf("Scroll: %d%% ↕", scrollPercent))
}
