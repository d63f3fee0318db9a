package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"gemini-terminal/internal/logging"
	"gemini-terminal/internal/telemetry"
)

// SDKClient serves the same contract as Client through the official genai SDK
type SDKClient struct {
	baseURL    string
	apiVersion string
	httpClient *http.Client

	mu     sync.Mutex
	model  string
	apiKey string
	client *genai.Client
}

func NewSDKClient(baseURL, apiVersion, model string, timeout time.Duration) *SDKClient {
	return &SDKClient{
		baseURL:    strings.TrimRight(baseURL, "/") + "/",
		apiVersion: apiVersion,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *SDKClient) Model() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

func (c *SDKClient) SetModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = model
}

// genaiClient returns a client bound to apiKey, rebuilding it when the key changes
func (c *SDKClient) genaiClient(ctx context.Context, apiKey string) (*genai.Client, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil && c.apiKey == apiKey {
		return c.client, c.model, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    c.baseURL,
			APIVersion: c.apiVersion,
		},
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to create genai client: %w", err)
	}

	c.client = client
	c.apiKey = apiKey
	return client, c.model, nil
}

func (c *SDKClient) GenerateContent(ctx context.Context, apiKey string, req *GenerateContentRequest) (string, error) {
	client, model, err := c.genaiClient(ctx, apiKey)
	if err != nil {
		return "", &TransportError{Err: err}
	}

	ctx, span := telemetry.Tracer().Start(ctx, "gemini.generate_content",
		trace.WithAttributes(
			attribute.String("gemini.model", model),
			attribute.String("gemini.transport", "sdk"),
			attribute.Int("gemini.turns", len(req.Contents)),
			attribute.Bool("gemini.system_instruction", req.SystemInstruction != nil),
		),
	)
	defer span.End()

	resp, err := client.Models.GenerateContent(ctx, model, toGenaiContents(req.Contents), toGenaiConfig(req))
	if err != nil {
		tErr := toTransportError(err)
		if tErr.StatusCode != 0 {
			span.SetAttributes(attribute.Int("http.status_code", tErr.StatusCode))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, tErr.Error())
		return "", tErr
	}

	// the SDK turns every non-2xx into an APIError
	span.SetAttributes(attribute.Int("http.status_code", http.StatusOK))
	if resp != nil && resp.UsageMetadata != nil {
		span.SetAttributes(attribute.Int("gemini.total_tokens", int(resp.UsageMetadata.TotalTokenCount)))
	}

	text, ok := firstGenaiText(resp)
	if !ok {
		logging.Debug("SDK response from %s had no candidate text, using fallback reply", model)
		span.SetAttributes(attribute.Bool("gemini.fallback", true))
		return FallbackReply, nil
	}
	return text, nil
}

func toGenaiContents(contents []Content) []*genai.Content {
	out := make([]*genai.Content, 0, len(contents))
	for _, c := range contents {
		out = append(out, toGenaiContent(c))
	}
	return out
}

func toGenaiContent(c Content) *genai.Content {
	parts := make([]*genai.Part, 0, len(c.Parts))
	for _, p := range c.Parts {
		parts = append(parts, genai.NewPartFromText(p.Text))
	}
	return &genai.Content{Role: c.Role, Parts: parts}
}

func toGenaiConfig(req *GenerateContentRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.SystemInstruction != nil {
		cfg.SystemInstruction = toGenaiContent(*req.SystemInstruction)
	}
	if g := req.GenerationConfig; g != nil {
		cfg.Temperature = genai.Ptr(float32(g.Temperature))
		cfg.TopP = genai.Ptr(float32(g.TopP))
		cfg.TopK = genai.Ptr(float32(g.TopK))
		cfg.MaxOutputTokens = int32(g.MaxOutputTokens)
	}
	return cfg
}

func firstGenaiText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", false
	}
	c := resp.Candidates[0].Content
	if c == nil || len(c.Parts) == 0 || c.Parts[0] == nil || c.Parts[0].Text == "" {
		return "", false
	}
	return c.Parts[0].Text, true
}

func toTransportError(err error) *TransportError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &TransportError{StatusCode: apiErr.Code, Message: apiErr.Message, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &TransportError{StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message, Err: err}
	}
	return &TransportError{Err: err}
}
