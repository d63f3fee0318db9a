package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Keys under which settings are persisted
const (
	KeyAPIKey       = "gemini-api-key"
	KeySystemPrompt = "system-prompt"
)

const DefaultSystemPrompt = `You are a compassionate and empathetic mental health support AI. Your role is to:

- Listen actively and provide emotional support
- Offer evidence-based coping strategies and techniques
- Help users process their thoughts and feelings
- Provide psychoeducation about mental health topics
- Encourage healthy habits and self-care
- Recognize when professional help may be needed

Guidelines:
- Always be non-judgmental, warm, and understanding
- Use person-first language
- Validate emotions while offering helpful perspectives
- Never diagnose mental health conditions
- Encourage professional help for serious concerns
- Maintain appropriate boundaries as an AI assistant

Remember: You are here to support, not replace, professional mental health care.`

// Settings are the two user-supplied values the chat needs
type Settings struct {
	APIKey       string
	SystemPrompt string
}

// HasAPIKey reports whether a non-blank key is configured
func (s Settings) HasAPIKey() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

// ValidationError reports a settings field that cannot be accepted
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the settings can be saved
func (s Settings) Validate() error {
	if !s.HasAPIKey() {
		return &ValidationError{Field: "api_key", Message: "API key is required"}
	}
	return nil
}

// Repository loads and saves Settings through a Store and caches the last
// known value. One Repository is shared by every screen that needs settings.
type Repository struct {
	store Store

	mu     sync.RWMutex
	cached *Settings
}

func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

// Load returns the saved settings. Keys never saved come back as an empty API
// key and DefaultSystemPrompt.
func (r *Repository) Load(ctx context.Context) (Settings, error) {
	r.mu.RLock()
	if r.cached != nil {
		s := *r.cached
		r.mu.RUnlock()
		return s, nil
	}
	r.mu.RUnlock()

	return r.Reload(ctx)
}

// Reload bypasses the cache and reads the store again
func (r *Repository) Reload(ctx context.Context) (Settings, error) {
	apiKey, err := r.get(ctx, KeyAPIKey, "")
	if err != nil {
		return Settings{}, err
	}

	prompt, err := r.get(ctx, KeySystemPrompt, DefaultSystemPrompt)
	if err != nil {
		return Settings{}, err
	}

	s := Settings{APIKey: apiKey, SystemPrompt: prompt}

	r.mu.Lock()
	r.cached = &s
	r.mu.Unlock()

	return s, nil
}

func (r *Repository) get(ctx context.Context, key, fallback string) (string, error) {
	v, err := r.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}
	return v, nil
}

// Save validates and persists both fields exactly as given. A blank API key
// returns a *ValidationError and leaves the store untouched.
func (r *Repository) Save(ctx context.Context, s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	err := r.store.Put(ctx, map[string]string{
		KeyAPIKey:       s.APIKey,
		KeySystemPrompt: s.SystemPrompt,
	})
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	r.mu.Lock()
	r.cached = &s
	r.mu.Unlock()

	return nil
}

// Current returns the cached settings, or the defaults if nothing was loaded yet
func (r *Repository) Current() Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cached == nil {
		return Settings{SystemPrompt: DefaultSystemPrompt}
	}
	return *r.cached
}

// ResetPrompt returns the built-in prompt for a "reset to default" action.
// Nothing is saved until Save is called.
func ResetPrompt() string {
	return DefaultSystemPrompt
}

// Close closes the underlying store
func (r *Repository) Close() error {
	return r.store.Close()
}
