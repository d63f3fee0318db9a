package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"gemini-terminal/internal/conversation"
	"gemini-terminal/internal/gemini"
	"gemini-terminal/internal/logging"
	"gemini-terminal/internal/models"
	"gemini-terminal/internal/settings"
)

var (
	ErrEmptyInput = errors.New("message is empty")
	ErrBusy       = errors.New("a message is already being sent")
	// ErrDiscarded is returned for a reply that arrives after the
	// conversation was cleared or the turn was cancelled.
	ErrDiscarded = errors.New("reply discarded")
	// ErrMissingAPIKey wraps a *settings.ValidationError
	ErrMissingAPIKey = fmt.Errorf("cannot send: %w", &settings.ValidationError{Field: "api_key", Message: "API key is required"})
)

// Sender performs the single outbound call for a turn
type Sender interface {
	GenerateContent(ctx context.Context, apiKey string, req *gemini.GenerateContentRequest) (string, error)
}

type State int

const (
	Idle State = iota
	Sending
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Session owns one conversation. All methods are safe for concurrent use;
// the UI reads state while a turn runs in a command goroutine.
type Session struct {
	repo   *settings.Repository
	sender Sender
	shape  conversation.Shape

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	messages   []models.Message
	state      State
	generation uint64
	inflight   context.CancelFunc
	lastErr    error

	metrics *sessionMetrics
}

// New creates an idle session with an empty conversation
func New(repo *settings.Repository, sender Sender, shape conversation.Shape) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		repo:    repo,
		sender:  sender,
		shape:   shape,
		ctx:     ctx,
		cancel:  cancel,
		metrics: newSessionMetrics(),
	}
}

// Turn is one dispatched user message awaiting its reply
type Turn struct {
	User models.Message

	s          *Session
	ctx        context.Context
	cancel     context.CancelFunc
	generation uint64
	apiKey     string
	req        *gemini.GenerateContentRequest

	once  sync.Once
	reply models.Message
	err   error
}

// Submit validates the input, appends the user message and moves the
// session to Sending. The returned Turn must be waited on.
func (s *Session) Submit(text string) (*Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	cfg, err := s.repo.Load(s.ctx)
	if err != nil {
		return nil, err
	}
	if !cfg.HasAPIKey() {
		return nil, ErrMissingAPIKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Sending {
		return nil, ErrBusy
	}
	if s.ctx.Err() != nil {
		return nil, s.ctx.Err()
	}

	req := conversation.BuildRequest(s.messages, text, cfg.SystemPrompt, s.shape)
	user := models.NewMessage(models.RoleUser, text)
	s.messages = append(s.messages, user)

	ctx, cancel := context.WithCancel(s.ctx)
	s.state = Sending
	s.inflight = cancel
	s.lastErr = nil

	logging.Debug("Dispatching turn %s with %d history messages", user.ID, len(s.messages)-1)
	s.metrics.sent.Add(ctx, 1)

	return &Turn{
		User:       user,
		s:          s,
		ctx:        ctx,
		cancel:     cancel,
		generation: s.generation,
		apiKey:     cfg.APIKey,
		req:        req,
	}, nil
}

// Wait performs the call and records its outcome. On success exactly one
// assistant message is appended; on failure the user message stays and
// nothing else is added. Cancelling ctx aborts the call. Calling Wait again
// returns the first result.
func (t *Turn) Wait(ctx context.Context) (models.Message, error) {
	t.once.Do(func() {
		t.reply, t.err = t.run(ctx)
	})
	return t.reply, t.err
}

func (t *Turn) run(ctx context.Context) (models.Message, error) {
	stop := context.AfterFunc(ctx, t.cancel)
	defer stop()
	defer t.cancel()

	start := time.Now()
	text, err := t.s.sender.GenerateContent(t.ctx, t.apiKey, t.req)
	elapsed := time.Since(start)

	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != t.generation {
		logging.Debug("Dropping reply for turn %s: conversation changed", t.User.ID)
		s.metrics.discarded.Add(context.Background(), 1)
		return models.Message{}, ErrDiscarded
	}

	s.state = Idle
	s.inflight = nil
	s.metrics.latency.Record(context.Background(), elapsed.Seconds(),
		metric.WithAttributes(attribute.Bool("success", err == nil)))

	if err != nil {
		logging.Error("Turn %s failed after %v: %v", t.User.ID, elapsed, err)
		s.lastErr = err
		s.metrics.failures.Add(context.Background(), 1)
		return models.Message{}, err
	}

	reply := models.NewMessage(models.RoleAssistant, text)
	s.messages = append(s.messages, reply)
	s.metrics.replies.Add(context.Background(), 1)
	logging.Debug("Turn %s answered in %v (%d chars)", t.User.ID, elapsed, len(text))

	return reply, nil
}

// Send submits text and waits for the reply
func (s *Session) Send(ctx context.Context, text string) (models.Message, error) {
	turn, err := s.Submit(text)
	if err != nil {
		return models.Message{}, err
	}
	return turn.Wait(ctx)
}

// Clear empties the conversation. An in-flight call is cancelled and its
// reply discarded.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.abortLocked()
	s.messages = nil
	s.lastErr = nil
	logging.Debug("Conversation cleared")
}

// Cancel aborts the in-flight call, if any. The user message stays.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Sending {
		s.abortLocked()
		s.lastErr = context.Canceled
		logging.Debug("In-flight turn cancelled")
	}
}

func (s *Session) abortLocked() {
	if s.inflight != nil {
		s.inflight()
		s.inflight = nil
	}
	s.generation++
	s.state = Idle
}

// Close cancels everything the session started. Submit fails afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	s.abortLocked()
	s.mu.Unlock()
	s.cancel()
}

// Messages returns a copy of the conversation in insertion order
func (s *Session) Messages() []models.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastError returns the error of the most recent turn, nil after a success
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}
