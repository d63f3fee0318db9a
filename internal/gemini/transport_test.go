package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type generator interface {
	GenerateContent(ctx context.Context, apiKey string, req *GenerateContentRequest) (string, error)
}

// transports lists both implementations so every case runs against each
var transports = []struct {
	name string
	new  func(baseURL string) generator
}{
	{name: "rest", new: func(u string) generator { return NewClient(u, "v1beta", "gemini-test", 5*time.Second) }},
	{name: "sdk", new: func(u string) generator { return NewSDKClient(u, "v1beta", "gemini-test", 5*time.Second) }},
}

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		tp.Shutdown(context.Background())
	})
	return rec
}

func spanAttr(t *testing.T, rec *tracetest.SpanRecorder, key string) (attribute.Value, bool) {
	t.Helper()
	spans := rec.Ended()
	require.Len(t, spans, 1)
	for _, kv := range spans[0].Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

// requestKey accepts the key as the REST query parameter or the SDK header
func requestKey(r *http.Request) string {
	if k := r.URL.Query().Get("key"); k != "" {
		return k
	}
	return r.Header.Get("x-goog-api-key")
}

func TestTransportsSuccess(t *testing.T) {
	for _, tr := range transports {
		t.Run(tr.name, func(t *testing.T) {
			rec := recordSpans(t)

			var gotPath, gotKey string
			var gotBody map[string]interface{}
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path
				gotKey = requestKey(r)
				data, _ := io.ReadAll(r.Body)
				json.Unmarshal(data, &gotBody)

				w.Header().Set("Content-Type", "application/json")
				io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Hi there"}]}}]}`)
			}))
			defer srv.Close()

			reply, err := tr.new(srv.URL).GenerateContent(context.Background(), "secret-key", sampleRequest())
			require.NoError(t, err)
			assert.Equal(t, "Hi there", reply)

			assert.Equal(t, "/v1beta/models/gemini-test:generateContent", gotPath)
			assert.Equal(t, "secret-key", gotKey)
			assert.Contains(t, gotBody, "contents")
			assert.Contains(t, gotBody, "systemInstruction")

			status, ok := spanAttr(t, rec, "http.status_code")
			require.True(t, ok)
			assert.Equal(t, int64(http.StatusOK), status.AsInt64())
			_, fallback := spanAttr(t, rec, "gemini.fallback")
			assert.False(t, fallback)
		})
	}
}

func TestTransportsFallback(t *testing.T) {
	bodies := map[string]string{
		"no candidates":    `{}`,
		"empty candidates": `{"candidates":[]}`,
		"no content":       `{"candidates":[{"finishReason":"SAFETY"}]}`,
		"no parts":         `{"candidates":[{"content":{"parts":[]}}]}`,
		"empty text":       `{"candidates":[{"content":{"parts":[{"text":""}]}}]}`,
	}

	for _, tr := range transports {
		for name, body := range bodies {
			t.Run(tr.name+"/"+name, func(t *testing.T) {
				rec := recordSpans(t)
				srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Header().Set("Content-Type", "application/json")
					io.WriteString(w, body)
				}))
				defer srv.Close()

				reply, err := tr.new(srv.URL).GenerateContent(context.Background(), "k", sampleRequest())
				require.NoError(t, err)
				assert.Equal(t, FallbackReply, reply)

				fallback, ok := spanAttr(t, rec, "gemini.fallback")
				require.True(t, ok)
				assert.True(t, fallback.AsBool())
			})
		}
	}
}

func TestTransportsForbidden(t *testing.T) {
	for _, tr := range transports {
		t.Run(tr.name, func(t *testing.T) {
			rec := recordSpans(t)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				io.WriteString(w, `{"error":{"code":403,"message":"API key not valid","status":"PERMISSION_DENIED"}}`)
			}))
			defer srv.Close()

			reply, err := tr.new(srv.URL).GenerateContent(context.Background(), "bad-key", sampleRequest())
			assert.Empty(t, reply)

			var tErr *TransportError
			require.True(t, errors.As(err, &tErr))
			assert.Equal(t, http.StatusForbidden, tErr.StatusCode)
			assert.Equal(t, "API key not valid", tErr.Message)

			status, ok := spanAttr(t, rec, "http.status_code")
			require.True(t, ok)
			assert.Equal(t, int64(http.StatusForbidden), status.AsInt64())
		})
	}
}
