// Package orchestrator owns the conversation state of one chat user: the
// known sessions, the active session and its messages, the loading flag, and
// the single-slot held error. Presentation layers read snapshots and invoke
// intents; they never mutate state directly. All network access goes through
// the chatapi client.
package orchestrator

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/lexhub/lexchat/chatapi"
)

var (
	// ErrBusy is returned when a mutating intent is invoked while another one
	// is still in flight. Mutations are strictly serialized; retrying after
	// the loading flag clears is the caller's decision.
	ErrBusy = errors.New("another operation is in flight")

	// ErrEmptyMessage is returned by SendMessage for whitespace-only content.
	// No network call is made and the held error is not touched.
	ErrEmptyMessage = errors.New("message content is empty")

	// ErrNoActiveSession is returned when no active session could be resolved.
	ErrNoActiveSession = errors.New("no active session")
)

// Client is the messaging surface the orchestrator depends on. *chatapi.Client
// satisfies it; tests substitute a fake.
type Client interface {
	CreateSession(ctx context.Context, create chatapi.CreateSessionRequest) (*chatapi.Session, error)
	ListSessions(ctx context.Context) ([]chatapi.SessionSummary, error)
	DeleteSession(ctx context.Context, sessionID string) error
	SendMessage(ctx context.Context, sessionID, content string, attachments []string) (*chatapi.SendMessageResult, error)
	GetHistory(ctx context.Context, sessionID string) ([]chatapi.Message, error)
}

// Recorder receives orchestrator instrumentation. Implemented by
// metrics.Exporter; nil disables recording.
type Recorder interface {
	RecordIntent(intent string, latency time.Duration, success bool)
	SetKnownSessions(count int)
}

// Orchestrator serializes all mutations of one user's ConversationState
// behind a mutex. The mutex is never held across a network call: an intent
// marks the state loading, releases the lock, performs its single client
// call, then reacquires the lock to apply or discard the result.
type Orchestrator struct {
	client   Client
	userID   string
	logger   *slog.Logger
	recorder Recorder

	mu      sync.Mutex
	state   State
	history map[string][]chatapi.Message // loaded message cache per session

	createFlight singleflight.Group
	bus          *eventBus
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithRecorder enables metrics recording.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// New creates an orchestrator for the given user identity. The identity comes
// from an external auth collaborator and is only forwarded on session
// creation.
func New(client Client, userID string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:  client,
		userID:  userID,
		logger:  slog.Default(),
		history: make(map[string][]chatapi.Message),
		bus:     newEventBus(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Subscribe registers a listener for orchestrator events. Listeners run
// synchronously after the state transition committed.
func (o *Orchestrator) Subscribe(t EventType, l Listener) {
	o.bus.subscribe(t, l)
}

// Snapshot returns a defensive copy of the current state.
func (o *Orchestrator) Snapshot() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// ClearError empties the held-error slot. Presentation calls this once the
// error has been shown; the orchestrator never clears it on its own.
func (o *Orchestrator) ClearError() {
	o.mu.Lock()
	o.state.Err = nil
	o.mu.Unlock()
	o.publishState()
}

// EnsureActiveSession resolves the session-availability invariant: if no
// session is active and nothing is in flight, the first known session is
// selected without a network call, or, when none exist, exactly one
// CreateSession is issued and its result adopted. Concurrent callers share a
// single creation call.
func (o *Orchestrator) EnsureActiveSession(ctx context.Context) error {
	o.mu.Lock()
	if o.state.ActiveSessionID != "" || o.state.Loading {
		o.mu.Unlock()
		return nil
	}
	if len(o.state.Sessions) > 0 {
		first := o.state.Sessions[0].ID
		o.state.ActiveSessionID = first
		o.state.Messages = append([]chatapi.Message(nil), o.history[first]...)
		o.mu.Unlock()
		o.publishState()
		return nil
	}
	o.state.Loading = true
	o.mu.Unlock()

	start := time.Now()
	v, err, _ := o.createFlight.Do("create_session", func() (any, error) {
		return o.client.CreateSession(ctx, chatapi.CreateSessionRequest{UserID: o.userID})
	})
	o.record("ensure_active_session", start, err == nil)
	if err != nil {
		return o.failIntent("ensure_active_session", err)
	}
	o.adoptSession(v.(*chatapi.Session))
	return nil
}

// CreateNewSession opens a fresh session, inserts it at the head of the known
// list, and makes it active with an empty message list.
func (o *Orchestrator) CreateNewSession(ctx context.Context) error {
	if err := o.begin(); err != nil {
		return err
	}

	start := time.Now()
	session, err := o.client.CreateSession(ctx, chatapi.CreateSessionRequest{UserID: o.userID})
	o.record("create_session", start, err == nil)
	if err != nil {
		return o.failIntent("create_session", err)
	}
	o.adoptSession(session)
	return nil
}

// SendMessage posts content to the active session and appends the confirmed
// message pair in server-declared order. Nothing is appended on failure: the
// contract is non-optimistic. A result arriving for a session that is no
// longer active is discarded.
func (o *Orchestrator) SendMessage(ctx context.Context, content string, attachments []string) error {
	if isBlank(content) {
		return ErrEmptyMessage
	}

	o.mu.Lock()
	if o.state.Loading {
		o.mu.Unlock()
		return ErrBusy
	}
	if o.state.ActiveSessionID == "" {
		o.mu.Unlock()
		if err := o.EnsureActiveSession(ctx); err != nil {
			return err
		}
		o.mu.Lock()
		if o.state.Loading {
			o.mu.Unlock()
			return ErrBusy
		}
		if o.state.ActiveSessionID == "" {
			o.mu.Unlock()
			return ErrNoActiveSession
		}
	}
	target := o.state.ActiveSessionID
	o.state.Loading = true
	o.mu.Unlock()

	start := time.Now()
	result, err := o.client.SendMessage(ctx, target, content, attachments)
	o.record("send_message", start, err == nil)

	o.mu.Lock()
	o.state.Loading = false
	if o.state.ActiveSessionID != target {
		active := o.state.ActiveSessionID
		o.mu.Unlock()
		o.logger.Info("discarding send result for inactive session",
			"session_id", target,
			"active_session_id", active,
		)
		return nil
	}
	if err != nil {
		return o.failLocked("send_message", err)
	}

	appended := make([]chatapi.Message, 0, 2)
	if result.Message != nil {
		appended = append(appended, *result.Message)
	}
	appended = append(appended, *result.Reply)
	o.state.Messages = append(o.state.Messages, appended...)
	o.history[target] = append(o.history[target], appended...)
	o.mu.Unlock()
	o.publishState()
	return nil
}

// SelectSession makes sessionID active. If its history is already cached the
// switch is synchronous; otherwise the history is fetched first. Selecting
// the active session is a no-op.
func (o *Orchestrator) SelectSession(ctx context.Context, sessionID string) error {
	o.mu.Lock()
	if o.state.ActiveSessionID == sessionID {
		o.mu.Unlock()
		return nil
	}
	if o.state.Loading {
		o.mu.Unlock()
		return ErrBusy
	}
	if cached, ok := o.history[sessionID]; ok {
		o.state.ActiveSessionID = sessionID
		o.state.Messages = append([]chatapi.Message(nil), cached...)
		o.mu.Unlock()
		o.publishState()
		return nil
	}
	o.state.Loading = true
	o.mu.Unlock()

	start := time.Now()
	messages, err := o.client.GetHistory(ctx, sessionID)
	o.record("select_session", start, err == nil)
	if err != nil {
		return o.failIntent("select_session", err)
	}

	o.mu.Lock()
	o.state.Loading = false
	o.history[sessionID] = append([]chatapi.Message(nil), messages...)
	o.state.ActiveSessionID = sessionID
	o.state.Messages = append([]chatapi.Message(nil), messages...)
	o.mu.Unlock()
	o.publishState()
	return nil
}

// FetchSessions refreshes the known-sessions list wholesale from the backend.
// On failure the prior list stays intact. The initialization rule re-runs
// afterwards since the session set may have changed.
func (o *Orchestrator) FetchSessions(ctx context.Context) error {
	if err := o.begin(); err != nil {
		return err
	}

	start := time.Now()
	sessions, err := o.client.ListSessions(ctx)
	o.record("fetch_sessions", start, err == nil)
	if err != nil {
		return o.failIntent("fetch_sessions", err)
	}

	o.mu.Lock()
	o.state.Loading = false
	o.state.Sessions = sessions
	o.mu.Unlock()
	o.publishState()
	return o.EnsureActiveSession(ctx)
}

// DeleteSession removes a session server-side and locally. Deleting the
// active session clears the selection, after which the initialization rule
// converges to a new active session.
func (o *Orchestrator) DeleteSession(ctx context.Context, sessionID string) error {
	if err := o.begin(); err != nil {
		return err
	}

	start := time.Now()
	err := o.client.DeleteSession(ctx, sessionID)
	o.record("delete_session", start, err == nil)
	if err != nil {
		return o.failIntent("delete_session", err)
	}

	o.mu.Lock()
	o.state.Loading = false
	kept := o.state.Sessions[:0:0]
	for _, s := range o.state.Sessions {
		if s.ID != sessionID {
			kept = append(kept, s)
		}
	}
	o.state.Sessions = kept
	delete(o.history, sessionID)
	if o.state.ActiveSessionID == sessionID {
		o.state.ActiveSessionID = ""
		o.state.Messages = nil
	}
	o.mu.Unlock()
	o.publishState()
	return o.EnsureActiveSession(ctx)
}

// begin marks a mutating intent in flight, rejecting overlap.
func (o *Orchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state.Loading {
		return ErrBusy
	}
	o.state.Loading = true
	return nil
}

// adoptSession installs a freshly created session as known and active.
func (o *Orchestrator) adoptSession(session *chatapi.Session) {
	summary := chatapi.SessionSummary{
		ID:        session.ID,
		Title:     session.Title,
		UpdatedTs: session.UpdatedTs,
	}
	o.mu.Lock()
	o.state.Loading = false
	o.state.Sessions = append([]chatapi.SessionSummary{summary}, o.state.Sessions...)
	o.state.ActiveSessionID = session.ID
	o.state.Messages = nil
	o.history[session.ID] = nil
	o.mu.Unlock()
	o.publishState()
}

func (o *Orchestrator) failIntent(intent string, err error) error {
	o.mu.Lock()
	return o.failLocked(intent, err)
}

// failLocked stores the failure in the held-error slot (last-write-wins),
// clears loading, and publishes an error event. Callers must hold o.mu; the
// lock is released before publishing.
func (o *Orchestrator) failLocked(intent string, err error) error {
	apiErr := toAPIError(err)
	o.state.Loading = false
	o.state.Err = apiErr
	snap := o.state.clone()
	o.mu.Unlock()

	o.logger.Warn("intent failed",
		"intent", intent,
		"status", apiErr.StatusCode,
		"error", apiErr.Message,
	)
	o.bus.publish(Event{Type: EventErrorSet, Err: apiErr, State: snap})
	return apiErr
}

func (o *Orchestrator) publishState() {
	o.mu.Lock()
	snap := o.state.clone()
	o.mu.Unlock()

	if o.recorder != nil {
		o.recorder.SetKnownSessions(len(snap.Sessions))
	}
	o.bus.publish(Event{Type: EventStateChanged, State: snap})
}

func (o *Orchestrator) record(intent string, start time.Time, success bool) {
	if o.recorder != nil {
		o.recorder.RecordIntent(intent, time.Since(start), success)
	}
}

func toAPIError(err error) *chatapi.APIError {
	if apiErr, ok := chatapi.AsAPIError(err); ok {
		return apiErr
	}
	return &chatapi.APIError{Message: err.Error()}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
