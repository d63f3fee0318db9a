package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemini-terminal/internal/conversation"
	"gemini-terminal/internal/gemini"
	"gemini-terminal/internal/session"
	"gemini-terminal/internal/settings"
)

type stubSender struct {
	reply string
	err   error
}

func (s stubSender) GenerateContent(ctx context.Context, apiKey string, req *gemini.GenerateContentRequest) (string, error) {
	return s.reply, s.err
}

func newOneShotSession(t *testing.T, sender session.Sender, apiKey string) *session.Session {
	t.Helper()
	repo := settings.NewRepository(settings.NewMemoryStore())
	if apiKey != "" {
		require.NoError(t, repo.Save(context.Background(), settings.Settings{APIKey: apiKey}))
	}
	sess := session.New(repo, sender, conversation.ShapeSystemInstruction)
	t.Cleanup(sess.Close)
	return sess
}

func TestRunOneShotFormats(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{format: formatHTML, want: "Hi <strong>there</strong>\n"},
		{format: formatMarkdown, want: "Hi **there**\n"},
		{format: formatText, want: "Hi there\n"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			sess := newOneShotSession(t, stubSender{reply: "Hi **there**"}, "key")
			var out bytes.Buffer
			require.NoError(t, runOneShot(context.Background(), sess, "Hello", tt.format, &out))
			assert.Equal(t, tt.want, out.String())
		})
	}
}

func TestRunOneShotHidesTransportDetails(t *testing.T) {
	sender := stubSender{err: &gemini.TransportError{StatusCode: 403, Message: "API key not valid"}}
	sess := newOneShotSession(t, sender, "key")

	var out bytes.Buffer
	err := runOneShot(context.Background(), sess, "Hello", formatText, &out)
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "403")
	assert.Empty(t, out.String())
}

func TestRunOneShotMissingKey(t *testing.T) {
	sess := newOneShotSession(t, stubSender{reply: "unused"}, "")
	err := runOneShot(context.Background(), sess, "Hello", formatText, &bytes.Buffer{})
	assert.ErrorContains(t, err, "no API key configured")
}

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, validateFormat("text"))
	assert.NoError(t, validateFormat("html"))
	assert.NoError(t, validateFormat("markdown"))
	assert.Error(t, validateFormat("pdf"))
}
