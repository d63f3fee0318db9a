package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// LandingModel is the first screen: what the app is and where to go next
type LandingModel struct {
	hasAPIKey bool
	model     string
	width     int
	height    int
}

// OpenChat, OpenSettings and OpenModelSelect request a screen change
type (
	OpenChat        struct{}
	OpenSettings    struct{}
	OpenModelSelect struct{}
)

type feature struct {
	title string
	body  string
}

var features = []feature{
	{"Private & Secure", "Your conversations stay between you and the AI. Your own API key is used and nothing is stored remotely."},
	{"24/7 Availability", "Support doesn't keep office hours. Talk whenever you need to, day or night."},
	{"Personalized Care", "Customize your companion with your own system prompt to get the support that works for you."},
}

var steps = []feature{
	{"Configure Settings", "Add your Gemini API key and customize your companion's personality"},
	{"Start Chatting", "Begin your conversation in a safe, judgment-free environment"},
	{"Feel Better", "Get support, insights and coping strategies tailored to your needs"},
}

const disclaimer = "Important: this chatbot provides support and information, but it is not a replacement " +
	"for professional mental health treatment. If you are in crisis, contact a healthcare " +
	"professional or emergency services immediately."

func NewLandingModel(hasAPIKey bool, model string, width, height int) LandingModel {
	return LandingModel{
		hasAPIKey: hasAPIKey,
		model:     model,
		width:     width,
		height:    height,
	}
}

// SetHasAPIKey updates the hint shown under the menu
func (m *LandingModel) SetHasAPIKey(ok bool) {
	m.hasAPIKey = ok
}

func (m *LandingModel) SetModel(model string) {
	m.model = model
}

func (m LandingModel) Init() tea.Cmd {
	return nil
}

func (m LandingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+x":
			return m, tea.Quit
		case "enter", "c":
			return m, func() tea.Msg { return OpenChat{} }
		case "s":
			return m, func() tea.Msg { return OpenSettings{} }
		case "m":
			return m, func() tea.Msg { return OpenModelSelect{} }
		}
	}
	return m, nil
}

func (m LandingModel) View() string {
	var b strings.Builder

	b.WriteString(TitleWithPaddingStyle.Render("♥ Mental Health Chatbot") + "\n\n")
	b.WriteString(SubtitleStyle.Padding(0, 1).Render("Your personal mental health companion. A safe, private space to talk about your thoughts and feelings.") + "\n\n")

	cardWidth := (m.width - 8) / len(features)
	if cardWidth < 24 {
		cardWidth = 24
	}
	cards := make([]string, 0, len(features))
	for _, f := range features {
		cards = append(cards, CardStyle.Width(cardWidth).Render(CardTitleStyle.Render(f.title)+"\n"+f.body))
	}
	if m.width >= cardWidth*len(features)+6 {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cards...) + "\n\n")
	} else {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, cards...) + "\n\n")
	}

	b.WriteString(TitleStyle.Padding(0, 1).Render("Getting Started") + "\n")
	for i, s := range steps {
		b.WriteString(fmt.Sprintf(" %s %s  %s\n", StepNumberStyle.Render(fmt.Sprint(i+1)), ActiveLabelStyle.Render(s.title), MetadataStyle.Render(s.body)))
	}
	b.WriteString("\n")

	disclaimerWidth := m.width - 4
	if disclaimerWidth < 30 {
		disclaimerWidth = 30
	}
	b.WriteString(DisclaimerStyle.Width(disclaimerWidth).Render(disclaimer) + "\n\n")

	status := fmt.Sprintf("Model: %s", m.model)
	if !m.hasAPIKey {
		status += " | No API key configured yet, press S to add one"
	}
	b.WriteString(statusBarStyle.Render(status) + "\n")

	b.WriteString(helpStyle.Render("Enter/C: Start Chat • S: Settings • M: Model • Q: Quit"))

	return b.String()
}
