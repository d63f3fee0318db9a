package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"gemini-terminal/internal/gemini"
)

// ModelSelectModel lists the models the configured key can use
type ModelSelectModel struct {
	list    list.Model
	spinner spinner.Model
	current string
	loading bool
	err     error
	width   int
	height  int
}

type modelItem struct {
	model gemini.Model
}

func (i modelItem) Title() string {
	if i.model.DisplayName != "" {
		return i.model.DisplayName
	}
	return i.model.ID()
}

func (i modelItem) Description() string {
	return fmt.Sprintf("%s | in: %d tokens | out: %d tokens", i.model.ID(), i.model.InputTokenLimit, i.model.OutputTokenLimit)
}

func (i modelItem) FilterValue() string { return i.model.ID() + " " + i.model.DisplayName }

// ModelsLoaded carries the result of listing models
type ModelsLoaded struct {
	Models []gemini.Model
	Err    error
}

// ModelChosen is sent when the user picks a model
type ModelChosen struct {
	ID string
}

// BackToLanding returns to the landing screen
type BackToLanding struct{}

func NewModelSelectModel(current string, width, height int) ModelSelectModel {
	l := list.New(nil, CreateThemedDelegate(), width, height-4)
	l.Title = "Select Gemini Model"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	ConfigureListStyles(&l)

	l.KeyMap.CursorUp = key.NewBinding(key.WithKeys("up"))
	l.KeyMap.CursorDown = key.NewBinding(key.WithKeys("down"))
	l.KeyMap.Filter = key.NewBinding(key.WithKeys("/"))
	l.KeyMap.ClearFilter = key.NewBinding(key.WithKeys("esc"))
	l.KeyMap.CancelWhileFiltering = key.NewBinding(key.WithKeys("esc"))
	l.KeyMap.AcceptWhileFiltering = key.NewBinding(key.WithKeys("enter"))
	l.KeyMap.Quit = key.NewBinding()
	l.KeyMap.ForceQuit = key.NewBinding()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = SpinnerStyle

	return ModelSelectModel{
		list:    l,
		spinner: sp,
		current: current,
		loading: true,
		width:   width,
		height:  height,
	}
}

func (m ModelSelectModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m ModelSelectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case ModelsLoaded:
		m.loading = false
		m.err = msg.Err
		items := make([]list.Item, len(msg.Models))
		selected := 0
		for i, model := range msg.Models {
			items[i] = modelItem{model: model}
			if model.ID() == m.current {
				selected = i
			}
		}
		cmd := m.list.SetItems(items)
		m.list.Select(selected)
		return m, cmd

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch msg.String() {
		case "ctrl+c", "ctrl+x":
			return m, tea.Quit

		case "enter":
			selectedItem, ok := m.list.SelectedItem().(modelItem)
			if !ok {
				return m, nil
			}
			id := selectedItem.model.ID()
			return m, func() tea.Msg { return ModelChosen{ID: id} }

		case "esc":
			if m.list.FilterState() == list.Unfiltered {
				return m, func() tea.Msg { return BackToLanding{} }
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m ModelSelectModel) View() string {
	if m.loading {
		return lipgloss.JoinVertical(lipgloss.Left,
			TitleWithPaddingStyle.Render("Select Gemini Model"),
			"",
			statusBarStyle.Render(m.spinner.View()+" Loading models..."),
		)
	}

	if m.err != nil {
		return errorStyle.Render("Could not load the model list. Check your API key and connection.\n\nPress Esc to go back")
	}

	status := fmt.Sprintf("Current model: %s", m.current)
	helpText := "↑/↓: Navigate • /: Filter • Enter: Select • Esc: Back • Ctrl+X: Quit"

	return lipgloss.JoinVertical(lipgloss.Left,
		m.list.View(),
		statusBarStyle.Render(status),
		helpStyle.Render(helpText),
	)
}
