package conversation

import (
	"fmt"
	"strings"

	"gemini-terminal/internal/gemini"
	"gemini-terminal/internal/models"
)

// Shape selects where the system prompt travels in a request
type Shape string

const (
	// ShapeSystemInstruction sends the prompt in the top-level systemInstruction field
	ShapeSystemInstruction Shape = "system_instruction"
	// ShapeInlineTurn sends the prompt as a leading user turn
	ShapeInlineTurn Shape = "inline_turn"
)

// Fixed sampling parameters attached to every request
const (
	Temperature     = 0.7
	TopP            = 0.95
	TopK            = 40
	MaxOutputTokens = 1024
)

// ParseShape converts a configuration value into a Shape. An empty value
// selects ShapeSystemInstruction.
func ParseShape(s string) (Shape, error) {
	switch Shape(strings.TrimSpace(s)) {
	case "", ShapeSystemInstruction:
		return ShapeSystemInstruction, nil
	case ShapeInlineTurn:
		return ShapeInlineTurn, nil
	}
	return "", fmt.Errorf("unknown request shape %q", s)
}

// APIRole maps a message role onto the role the API expects
func APIRole(role models.Role) string {
	if role == models.RoleAssistant {
		return gemini.RoleModel
	}
	return gemini.RoleUser
}

// BuildRequest assembles the request for one user turn. History is replayed
// in order and the new user text is always the last turn. The system prompt
// is attached on every call; a blank prompt is omitted entirely.
func BuildRequest(history []models.Message, newUserText, systemPrompt string, shape Shape) *gemini.GenerateContentRequest {
	hasPrompt := strings.TrimSpace(systemPrompt) != ""

	contents := make([]gemini.Content, 0, len(history)+2)
	if hasPrompt && shape == ShapeInlineTurn {
		contents = append(contents, gemini.TextContent(gemini.RoleUser, systemPrompt))
	}
	for _, msg := range history {
		contents = append(contents, gemini.TextContent(APIRole(msg.Role), msg.Content))
	}
	contents = append(contents, gemini.TextContent(gemini.RoleUser, newUserText))

	req := &gemini.GenerateContentRequest{
		Contents: contents,
		GenerationConfig: &gemini.GenerationConfig{
			Temperature:     Temperature,
			TopK:            TopK,
			TopP:            TopP,
			MaxOutputTokens: MaxOutputTokens,
		},
	}

	if hasPrompt && shape != ShapeInlineTurn {
		req.SystemInstruction = &gemini.Content{
			Parts: []gemini.Part{{Text: systemPrompt}},
		}
	}

	return req
}
