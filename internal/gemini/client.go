package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"gemini-terminal/internal/logging"
	"gemini-terminal/internal/telemetry"
)

// Client talks to the Generative Language REST API directly
type Client struct {
	baseURL    string
	apiVersion string
	httpClient *http.Client

	mu    sync.RWMutex
	model string
}

// NewClient creates a REST client. A zero timeout leaves the request bound
// only by its context.
func NewClient(baseURL, apiVersion, model string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	if apiVersion == "" {
		apiVersion = "v1beta"
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiVersion: apiVersion,
		model:      model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Model returns the model used for new requests
func (c *Client) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model
}

// SetModel switches the model for subsequent requests
func (c *Client) SetModel(model string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.model = model
}

// GenerateContent sends one request and returns the reply text. It makes
// exactly one attempt. A successful response without text yields
// FallbackReply rather than an error.
func (c *Client) GenerateContent(ctx context.Context, apiKey string, req *GenerateContentRequest) (string, error) {
	model := c.Model()

	ctx, span := telemetry.Tracer().Start(ctx, "gemini.generate_content",
		trace.WithAttributes(
			attribute.String("gemini.model", model),
			attribute.String("gemini.transport", "rest"),
			attribute.Int("gemini.turns", len(req.Contents)),
			attribute.Bool("gemini.system_instruction", req.SystemInstruction != nil),
		),
	)
	defer span.End()

	resp, err := c.doRequest(ctx, http.MethodPost, "/models/"+model+":generateContent", apiKey, nil, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		tErr := statusError(resp)
		span.SetStatus(codes.Error, tErr.Error())
		return "", tErr
	}

	var completion GenerateContentResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "undecodable response")
		return "", &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("failed to decode generate content response: %w", err)}
	}

	span.SetAttributes(attribute.Int("gemini.total_tokens", completion.UsageMetadata.TotalTokenCount))

	text, ok := completion.FirstText()
	if !ok {
		logging.Debug("Response from %s had no candidate text, using fallback reply", model)
		span.SetAttributes(attribute.Bool("gemini.fallback", true))
		return FallbackReply, nil
	}

	return text, nil
}

// ListModels returns the models that can serve generateContent
func (c *Client) ListModels(ctx context.Context, apiKey string) ([]Model, error) {
	var models []Model
	pageToken := ""

	for {
		query := url.Values{}
		query.Set("pageSize", "1000")
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}

		resp, err := c.doRequest(ctx, http.MethodGet, "/models", apiKey, query, nil)
		if err != nil {
			return nil, &TransportError{Err: err}
		}

		if resp.StatusCode != http.StatusOK {
			tErr := statusError(resp)
			resp.Body.Close()
			return nil, tErr
		}

		var page listModelsResponse
		err = json.NewDecoder(resp.Body).Decode(&page)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to decode models response: %w", err)
		}

		for _, m := range page.Models {
			if m.SupportsGenerateContent() {
				models = append(models, m)
			}
		}

		if page.NextPageToken == "" {
			return models, nil
		}
		pageToken = page.NextPageToken
	}
}

// statusError reads the API error envelope, if any, into a TransportError
func statusError(resp *http.Response) *TransportError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	tErr := &TransportError{StatusCode: resp.StatusCode}
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		tErr.Message = envelope.Error.Message
	} else {
		tErr.Message = strings.TrimSpace(string(body))
	}
	return tErr
}

func (c *Client) doRequest(ctx context.Context, method, endpoint, apiKey string, query url.Values, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("key", apiKey)

	fullURL := c.baseURL + "/" + c.apiVersion + endpoint + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// url.Error embeds the full URL, which carries the API key
		if uErr, ok := err.(*url.Error); ok {
			return nil, fmt.Errorf("failed to execute request: %s %s: %w", uErr.Op, c.redact(uErr.URL), uErr.Err)
		}
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}

	return resp, nil
}

func (c *Client) redact(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return c.baseURL
	}
	q := u.Query()
	if q.Has("key") {
		q.Set("key", "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}
