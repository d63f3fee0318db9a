package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemini-terminal/internal/gemini"
	"gemini-terminal/internal/models"
)

func history() []models.Message {
	return []models.Message{
		models.NewMessage(models.RoleUser, "first question"),
		models.NewMessage(models.RoleAssistant, "first answer"),
		models.NewMessage(models.RoleUser, "second question"),
		models.NewMessage(models.RoleAssistant, "second answer"),
	}
}

func TestBuildRequestSystemInstruction(t *testing.T) {
	req := BuildRequest(nil, "Hello", "Be kind", ShapeSystemInstruction)

	require.Len(t, req.Contents, 1)
	assert.Equal(t, gemini.TextContent(gemini.RoleUser, "Hello"), req.Contents[0])

	require.NotNil(t, req.SystemInstruction)
	require.Len(t, req.SystemInstruction.Parts, 1)
	assert.Equal(t, "Be kind", req.SystemInstruction.Parts[0].Text)
}

func TestBuildRequestInlineTurn(t *testing.T) {
	req := BuildRequest(nil, "Hello", "Be kind", ShapeInlineTurn)

	assert.Nil(t, req.SystemInstruction)
	require.Len(t, req.Contents, 2)
	assert.Equal(t, gemini.TextContent(gemini.RoleUser, "Be kind"), req.Contents[0])
	assert.Equal(t, gemini.TextContent(gemini.RoleUser, "Hello"), req.Contents[1])
}

func TestBuildRequestPreservesOrder(t *testing.T) {
	h := history()

	tests := []struct {
		name   string
		shape  Shape
		offset int
	}{
		{name: "system instruction", shape: ShapeSystemInstruction, offset: 0},
		{name: "inline turn", shape: ShapeInlineTurn, offset: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := BuildRequest(h, "third question", "Be kind", tt.shape)
			require.Len(t, req.Contents, len(h)+tt.offset+1)

			for i, msg := range h {
				turn := req.Contents[i+tt.offset]
				assert.Equal(t, APIRole(msg.Role), turn.Role)
				assert.Equal(t, msg.Content, turn.Parts[0].Text)
			}

			last := req.Contents[len(req.Contents)-1]
			assert.Equal(t, gemini.RoleUser, last.Role)
			assert.Equal(t, "third question", last.Parts[0].Text)
		})
	}
}

func TestBuildRequestBlankPrompt(t *testing.T) {
	for _, shape := range []Shape{ShapeSystemInstruction, ShapeInlineTurn} {
		req := BuildRequest(nil, "Hello", "  \n", shape)
		assert.Nil(t, req.SystemInstruction)
		assert.Len(t, req.Contents, 1)
	}
}

func TestBuildRequestGenerationConfig(t *testing.T) {
	req := BuildRequest(history(), "x", "", ShapeSystemInstruction)
	require.NotNil(t, req.GenerationConfig)
	assert.Equal(t, gemini.GenerationConfig{
		Temperature:     0.7,
		TopK:            40,
		TopP:            0.95,
		MaxOutputTokens: 1024,
	}, *req.GenerationConfig)
}

func TestBuildRequestDoesNotMutateHistory(t *testing.T) {
	h := history()
	before := append([]models.Message(nil), h...)
	BuildRequest(h, "more", "prompt", ShapeInlineTurn)
	assert.Equal(t, before, h)
}

func TestAPIRole(t *testing.T) {
	assert.Equal(t, gemini.RoleModel, APIRole(models.RoleAssistant))
	assert.Equal(t, gemini.RoleUser, APIRole(models.RoleUser))
}

func TestParseShape(t *testing.T) {
	tests := []struct {
		in      string
		want    Shape
		wantErr bool
	}{
		{in: "", want: ShapeSystemInstruction},
		{in: "system_instruction", want: ShapeSystemInstruction},
		{in: "inline_turn", want: ShapeInlineTurn},
		{in: "prepend", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseShape(tt.in)
		if tt.wantErr {
			assert.Error(t, err)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
