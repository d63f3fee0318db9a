package ui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemini-terminal/internal/config"
	"gemini-terminal/internal/conversation"
	"gemini-terminal/internal/gemini"
	"gemini-terminal/internal/models"
	"gemini-terminal/internal/session"
	"gemini-terminal/internal/settings"
)

type echoSender struct{}

func (echoSender) GenerateContent(ctx context.Context, apiKey string, req *gemini.GenerateContentRequest) (string, error) {
	last := req.Contents[len(req.Contents)-1]
	return "You said **" + last.Parts[0].Text + "**", nil
}

func newRepo(t *testing.T, apiKey string) (*settings.Repository, *settings.MemoryStore) {
	t.Helper()
	store := settings.NewMemoryStore()
	repo := settings.NewRepository(store)
	if apiKey != "" {
		require.NoError(t, repo.Save(context.Background(), settings.Settings{APIKey: apiKey, SystemPrompt: "Be kind"}))
	}
	_, err := repo.Load(context.Background())
	require.NoError(t, err)
	return repo, store
}

// runCmd executes cmd and flattens batches into the resulting messages
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, runCmd(c)...)
	}
	return out
}

func findMsg[T any](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func TestToastExpiry(t *testing.T) {
	var toast ToastModel
	toast.SetWidth(90)

	first := toast.Show("Saved", "done", false)
	require.NotNil(t, first)
	assert.True(t, toast.IsVisible())
	assert.Contains(t, toast.View(), "Saved")

	toast.Show("Error", "failed", true)

	// The first timer must not hide the newer toast
	assert.True(t, toast.HandleExpiry(toastExpired{seq: 1}))
	assert.True(t, toast.IsVisible())

	assert.True(t, toast.HandleExpiry(toastExpired{seq: 2}))
	assert.False(t, toast.IsVisible())

	assert.False(t, toast.HandleExpiry(tea.KeyMsg{}))
	assert.Equal(t, "background", toast.RenderOverlay("background"))
}

func TestSettingsSaveRejectsBlankKey(t *testing.T) {
	repo, store := newRepo(t, "")
	m := NewSettingsModel(repo, 100, 40, false)
	m.apiKeyInput.SetValue("   ")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(SettingsModel)
	msgs := runCmd(cmd)
	failed, ok := findMsg[settingsSaveFailed](msgs)
	require.True(t, ok)

	next, _ = m.Update(failed)
	m = next.(SettingsModel)
	assert.Contains(t, m.View(), "Please enter your Gemini API key to continue.")
	assert.Zero(t, store.Writes())
}

func TestSettingsSave(t *testing.T) {
	repo, _ := newRepo(t, "")
	m := NewSettingsModel(repo, 100, 40, true)
	assert.Equal(t, settings.DefaultSystemPrompt, m.promptArea.Value())

	m.apiKeyInput.SetValue("AIza-test")
	m.promptArea.SetValue("Be brief")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	saved, ok := findMsg[SettingsSaved](runCmd(cmd))
	require.True(t, ok)
	assert.Equal(t, settings.Settings{APIKey: "AIza-test", SystemPrompt: "Be brief"}, saved.Settings)
	assert.Equal(t, saved.Settings, repo.Current())
}

func TestSettingsResetPrompt(t *testing.T) {
	repo, _ := newRepo(t, "key")
	m := NewSettingsModel(repo, 100, 40, false)
	assert.Equal(t, "Be kind", m.promptArea.Value())

	for i := 0; i < 3; i++ {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m = next.(SettingsModel)
	}
	require.Equal(t, fieldResetButton, m.currentField)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(SettingsModel)
	assert.Equal(t, settings.DefaultSystemPrompt, m.promptArea.Value())
	// Reset only edits the form
	assert.Equal(t, "Be kind", repo.Current().SystemPrompt)
}

func TestSettingsEscCloses(t *testing.T) {
	repo, _ := newRepo(t, "key")
	m := NewSettingsModel(repo, 100, 40, false)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	_, ok := findMsg[SettingsClosed](runCmd(cmd))
	assert.True(t, ok)
}

func TestLandingNavigation(t *testing.T) {
	tests := []struct {
		key  tea.KeyMsg
		want tea.Msg
	}{
		{tea.KeyMsg{Type: tea.KeyEnter}, OpenChat{}},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")}, OpenChat{}},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")}, OpenSettings{}},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")}, OpenModelSelect{}},
	}

	for _, tt := range tests {
		t.Run(tt.key.String(), func(t *testing.T) {
			m := NewLandingModel(false, "gemini-test", 120, 40)
			_, cmd := m.Update(tt.key)
			require.NotNil(t, cmd)
			assert.Equal(t, tt.want, cmd())
		})
	}
}

func TestLandingView(t *testing.T) {
	m := NewLandingModel(false, "gemini-test", 120, 40)
	view := m.View()
	assert.Contains(t, view, "gemini-test")
	assert.Contains(t, view, "No API key configured")

	m.SetHasAPIKey(true)
	assert.NotContains(t, m.View(), "No API key configured")
}

func newChat(t *testing.T, apiKey string) (ChatViewModel, *session.Session) {
	t.Helper()
	repo, _ := newRepo(t, apiKey)
	sess := session.New(repo, echoSender{}, conversation.ShapeSystemInstruction)
	t.Cleanup(sess.Close)
	return NewChatViewModel(sess, repo, "gemini-test", config.RendererBasic, 100, 40), sess
}

func TestChatSendAndReply(t *testing.T) {
	m, sess := newChat(t, "key")
	m.textarea.SetValue("Hello")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(ChatViewModel)
	assert.Equal(t, session.Sending, sess.State())
	assert.Empty(t, m.textarea.Value())

	finished, ok := findMsg[turnFinished](runCmd(cmd))
	require.True(t, ok)
	require.NoError(t, finished.err)

	next, cmd = m.Update(finished)
	m = next.(ChatViewModel)
	assert.Nil(t, cmd)

	messages := sess.Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, models.RoleUser, messages[0].Role)
	assert.Equal(t, "You said **Hello**", messages[1].Content)
	assert.Equal(t, session.Idle, sess.State())
	assert.Contains(t, m.viewport.View(), "You said Hello")
}

func TestChatSendWithoutKeyNotifies(t *testing.T) {
	m, sess := newChat(t, "")
	m.textarea.SetValue("Hello")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	n, ok := findMsg[Notify](runCmd(cmd))
	require.True(t, ok)
	assert.True(t, n.IsError)
	assert.Empty(t, sess.Messages())
}

func TestChatClear(t *testing.T) {
	m, sess := newChat(t, "key")
	_, err := sess.Send(context.Background(), "Hello")
	require.NoError(t, err)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	n, ok := findMsg[Notify](runCmd(cmd))
	require.True(t, ok)
	assert.Equal(t, "Chat Cleared", n.Title)
	assert.Empty(t, sess.Messages())
}

func TestChatEscGoesBackWhenIdle(t *testing.T) {
	m, _ := newChat(t, "key")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	_, ok := findMsg[BackToLanding](runCmd(cmd))
	assert.True(t, ok)
}

func TestChatSettingsPanel(t *testing.T) {
	m, _ := newChat(t, "key")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlS})
	m = next.(ChatViewModel)
	require.True(t, m.showPanel)
	assert.Contains(t, m.View(), "Settings")

	next, _ = m.Update(SettingsClosed{})
	m = next.(ChatViewModel)
	assert.False(t, m.showPanel)
}
