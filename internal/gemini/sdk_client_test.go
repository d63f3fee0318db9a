package gemini

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestToGenaiContents(t *testing.T) {
	contents := []Content{
		TextContent(RoleUser, "Hi"),
		TextContent(RoleModel, "Hello, how are you?"),
		TextContent(RoleUser, "Fine"),
	}

	out := toGenaiContents(contents)
	require.Len(t, out, 3)
	for i, c := range out {
		assert.Equal(t, contents[i].Role, c.Role)
		require.Len(t, c.Parts, 1)
		assert.Equal(t, contents[i].Parts[0].Text, c.Parts[0].Text)
	}
}

func TestToGenaiConfig(t *testing.T) {
	cfg := toGenaiConfig(sampleRequest())

	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "Be kind", cfg.SystemInstruction.Parts[0].Text)
	require.NotNil(t, cfg.Temperature)
	assert.InDelta(t, 0.7, *cfg.Temperature, 1e-6)
	require.NotNil(t, cfg.TopP)
	assert.InDelta(t, 0.95, *cfg.TopP, 1e-6)
	require.NotNil(t, cfg.TopK)
	assert.Equal(t, float32(40), *cfg.TopK)
	assert.Equal(t, int32(1024), cfg.MaxOutputTokens)
}

func TestToGenaiConfigWithoutInstruction(t *testing.T) {
	cfg := toGenaiConfig(&GenerateContentRequest{})
	assert.Nil(t, cfg.SystemInstruction)
	assert.Nil(t, cfg.Temperature)
}

func TestFirstGenaiText(t *testing.T) {
	_, ok := firstGenaiText(nil)
	assert.False(t, ok)

	_, ok = firstGenaiText(&genai.GenerateContentResponse{})
	assert.False(t, ok)

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: genai.NewContentFromText("Hi there", genai.RoleModel)},
		},
	}
	text, ok := firstGenaiText(resp)
	require.True(t, ok)
	assert.Equal(t, "Hi there", text)
}

func TestToTransportError(t *testing.T) {
	tErr := toTransportError(genai.APIError{Code: 403, Message: "denied"})
	assert.Equal(t, 403, tErr.StatusCode)
	assert.Equal(t, "denied", tErr.Message)

	plain := toTransportError(errors.New("connection reset"))
	assert.Equal(t, 0, plain.StatusCode)
	assert.ErrorContains(t, plain, "connection reset")
}
