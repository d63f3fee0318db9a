package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"gemini-terminal/internal/logging"
	"gemini-terminal/internal/settings"
)

type settingsField int

const (
	fieldAPIKey settingsField = iota
	fieldSystemPrompt
	fieldSaveButton
	fieldResetButton
	fieldBackButton
)

// SettingsModel edits the API key and system prompt. It runs as a full
// screen or, when embedded, as a panel drawn over the chat.
type SettingsModel struct {
	repo         *settings.Repository
	apiKeyInput  textinput.Model
	promptArea   textarea.Model
	currentField settingsField
	embedded     bool
	saving       bool
	err          string
	width        int
	height       int
}

// SettingsSaved is sent after both values were persisted
type SettingsSaved struct {
	Settings settings.Settings
}

// SettingsClosed is sent when the user leaves the settings without saving
type SettingsClosed struct{}

type settingsSaveFailed struct {
	err error
}

func NewSettingsModel(repo *settings.Repository, width, height int, embedded bool) SettingsModel {
	current := repo.Current()

	apiKeyInput := textinput.New()
	apiKeyInput.Placeholder = "Enter your Gemini API key..."
	apiKeyInput.EchoMode = textinput.EchoPassword
	apiKeyInput.EchoCharacter = '•'
	apiKeyInput.CharLimit = 200
	apiKeyInput.Width = 50
	apiKeyInput.SetValue(current.APIKey)
	apiKeyInput.Focus()

	promptArea := textarea.New()
	promptArea.Placeholder = "Enter your custom system prompt..."
	promptArea.ShowLineNumbers = false
	promptArea.CharLimit = 0
	promptArea.SetWidth(60)
	promptArea.SetHeight(8)
	promptArea.SetValue(current.SystemPrompt)

	m := SettingsModel{
		repo:        repo,
		apiKeyInput: apiKeyInput,
		promptArea:  promptArea,
		embedded:    embedded,
		width:       width,
		height:      height,
	}
	m.resize(width, height)
	return m
}

func (m SettingsModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m SettingsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil

	case settingsSaveFailed:
		m.saving = false
		var vErr *settings.ValidationError
		if errors.As(msg.err, &vErr) {
			m.err = "Please enter your Gemini API key to continue."
		} else {
			logging.Error("Failed to save settings: %v", msg.err)
			m.err = "Settings could not be saved. See the log for details."
		}
		return m, nil

	case SettingsSaved:
		m.saving = false
		m.err = ""
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+x":
			if !m.embedded {
				return m, tea.Quit
			}

		case "esc":
			return m, func() tea.Msg { return SettingsClosed{} }

		case "ctrl+s":
			return m.startSave()

		case "ctrl+r":
			if m.apiKeyInput.EchoMode == textinput.EchoPassword {
				m.apiKeyInput.EchoMode = textinput.EchoNormal
			} else {
				m.apiKeyInput.EchoMode = textinput.EchoPassword
			}
			return m, nil

		case "tab":
			m.nextField()
			return m, nil

		case "shift+tab":
			m.prevField()
			return m, nil

		case "enter":
			switch m.currentField {
			case fieldSystemPrompt:
				var cmd tea.Cmd
				m.promptArea, cmd = m.promptArea.Update(msg)
				return m, cmd
			case fieldSaveButton:
				return m.startSave()
			case fieldResetButton:
				m.promptArea.SetValue(settings.ResetPrompt())
				return m, nil
			case fieldBackButton:
				return m, func() tea.Msg { return SettingsClosed{} }
			}
			m.nextField()
			return m, nil
		}
	}

	switch m.currentField {
	case fieldAPIKey:
		var cmd tea.Cmd
		m.apiKeyInput, cmd = m.apiKeyInput.Update(msg)
		cmds = append(cmds, cmd)
		if _, ok := msg.(tea.KeyMsg); ok {
			m.err = ""
		}
	case fieldSystemPrompt:
		var cmd tea.Cmd
		m.promptArea, cmd = m.promptArea.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m SettingsModel) startSave() (tea.Model, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	m.saving = true

	s := settings.Settings{
		APIKey:       m.apiKeyInput.Value(),
		SystemPrompt: m.promptArea.Value(),
	}
	repo := m.repo
	return m, func() tea.Msg {
		if err := repo.Save(context.Background(), s); err != nil {
			return settingsSaveFailed{err: err}
		}
		logging.Info("Settings saved")
		return SettingsSaved{Settings: s}
	}
}

func (m SettingsModel) View() string {
	var b strings.Builder

	b.WriteString(TitleStyle.Render("Settings") + "\n")
	b.WriteString(MetadataStyle.Render("Your API key and prompt are stored only on this machine.") + "\n\n")

	b.WriteString(RenderFieldLabel("Gemini API Key:", m.currentField == fieldAPIKey) + "\n")
	b.WriteString(m.apiKeyInput.View() + "\n")
	if m.err != "" {
		b.WriteString(RenderError(m.err) + "\n")
	}
	b.WriteString(HelpTextSimpleStyle.Render("Get a key at https://aistudio.google.com/app/apikey") + "\n\n")

	b.WriteString(RenderFieldLabel("System Prompt:", m.currentField == fieldSystemPrompt) + "\n")
	b.WriteString(m.promptArea.View() + "\n\n")

	b.WriteString(RenderButton("Save", m.currentField == fieldSaveButton) + "  ")
	b.WriteString(RenderButton("Reset Prompt", m.currentField == fieldResetButton) + "  ")
	b.WriteString(RenderButton("Back", m.currentField == fieldBackButton))
	if m.saving {
		b.WriteString("  " + MetadataStyle.Render("Saving..."))
	}
	b.WriteString("\n")

	helpText := "Tab/Shift+Tab: Navigate • Enter: Select • Ctrl+S: Save • Ctrl+R: Show/Hide Key • Esc: Back"
	if !m.embedded {
		helpText += " • Ctrl+X: Exit"
	}
	b.WriteString(helpStyle.Render(helpText))

	if m.embedded {
		return GetPanelBorderStyle(m.width).Render(b.String())
	}
	return b.String()
}

func (m *SettingsModel) resize(width, height int) {
	m.width = width
	m.height = height

	inner := width - 8
	if m.embedded {
		inner = width*2/3 - 6
	}
	if inner < 40 {
		inner = 40
	}
	m.apiKeyInput.Width = inner - 2
	m.promptArea.SetWidth(inner)

	promptHeight := height - 22
	if promptHeight < 4 {
		promptHeight = 4
	}
	if promptHeight > 12 {
		promptHeight = 12
	}
	m.promptArea.SetHeight(promptHeight)
}

func (m *SettingsModel) nextField() {
	m.currentField++
	if m.currentField > fieldBackButton {
		m.currentField = fieldAPIKey
	}
	m.updateFocus()
}

func (m *SettingsModel) prevField() {
	m.currentField--
	if m.currentField < fieldAPIKey {
		m.currentField = fieldBackButton
	}
	m.updateFocus()
}

func (m *SettingsModel) updateFocus() {
	m.apiKeyInput.Blur()
	m.promptArea.Blur()

	switch m.currentField {
	case fieldAPIKey:
		m.apiKeyInput.Focus()
	case fieldSystemPrompt:
		m.promptArea.Focus()
	}
}
