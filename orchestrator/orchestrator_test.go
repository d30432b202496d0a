package orchestrator

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexhub/lexchat/chatapi"
)

type fakeClient struct {
	mu           sync.Mutex
	createCalls  int
	listCalls    int
	sendCalls    int
	historyCalls int
	deleteCalls  int

	sessions  []chatapi.SessionSummary
	histories map[string][]chatapi.Message

	createErr  error
	listErr    error
	sendErr    error
	historyErr error
	deleteErr  error

	// sendStarted/sendRelease, when set, make SendMessage block until released.
	sendStarted chan struct{}
	sendRelease chan struct{}
	// listStarted/listRelease do the same for ListSessions.
	listStarted chan struct{}
	listRelease chan struct{}
}

func newFakeClient() *fakeClient {
	return &fakeClient{histories: map[string][]chatapi.Message{}}
}

func (f *fakeClient) CreateSession(_ context.Context, create chatapi.CreateSessionRequest) (*chatapi.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	id := fmt.Sprintf("created-%d", f.createCalls)
	return &chatapi.Session{ID: id, UserID: create.UserID, CreatedTs: 100, UpdatedTs: 100}, nil
}

func (f *fakeClient) ListSessions(_ context.Context) ([]chatapi.SessionSummary, error) {
	f.mu.Lock()
	f.listCalls++
	started, release := f.listStarted, f.listRelease
	f.mu.Unlock()
	if started != nil {
		close(started)
		<-release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]chatapi.SessionSummary(nil), f.sessions...), nil
}

func (f *fakeClient) DeleteSession(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	return f.deleteErr
}

func (f *fakeClient) SendMessage(_ context.Context, sessionID, content string, _ []string) (*chatapi.SendMessageResult, error) {
	f.mu.Lock()
	f.sendCalls++
	started, release := f.sendStarted, f.sendRelease
	f.mu.Unlock()
	if started != nil {
		close(started)
		<-release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	n := f.sendCalls
	return &chatapi.SendMessageResult{
		Message: &chatapi.Message{ID: fmt.Sprintf("u%d", n), SessionID: sessionID, Role: chatapi.RoleUser, Content: content},
		Reply:   &chatapi.Message{ID: fmt.Sprintf("a%d", n), SessionID: sessionID, Role: chatapi.RoleAssistant, Content: "reply"},
	}, nil
}

func (f *fakeClient) GetHistory(_ context.Context, sessionID string) ([]chatapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.historyCalls++
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return append([]chatapi.Message(nil), f.histories[sessionID]...), nil
}

func TestEnsureActiveSessionCreatesWhenEmpty(t *testing.T) {
	client := newFakeClient()
	orch := New(client, "user-1")

	require.NoError(t, orch.EnsureActiveSession(context.Background()))

	state := orch.Snapshot()
	assert.Equal(t, 1, client.createCalls)
	assert.Equal(t, "created-1", state.ActiveSessionID)
	require.Len(t, state.Sessions, 1)
	assert.Empty(t, state.Messages)
	assert.False(t, state.Loading)
}

func TestEnsureActiveSessionSelectsFirstKnown(t *testing.T) {
	client := newFakeClient()
	client.sessions = []chatapi.SessionSummary{{ID: "s1"}, {ID: "s2"}}
	orch := New(client, "user-1")

	require.NoError(t, orch.FetchSessions(context.Background()))

	state := orch.Snapshot()
	assert.Equal(t, "s1", state.ActiveSessionID)
	assert.Zero(t, client.createCalls, "known sessions must be reused without a create call")
}

func TestEnsureActiveSessionIdempotent(t *testing.T) {
	client := newFakeClient()
	orch := New(client, "user-1")

	ctx := context.Background()
	require.NoError(t, orch.EnsureActiveSession(ctx))
	require.NoError(t, orch.EnsureActiveSession(ctx))

	assert.Equal(t, 1, client.createCalls)
}

func TestCreateNewSessionPrependsAndActivates(t *testing.T) {
	client := newFakeClient()
	client.sessions = []chatapi.SessionSummary{{ID: "old"}}
	orch := New(client, "user-1")
	ctx := context.Background()
	require.NoError(t, orch.FetchSessions(ctx))

	require.NoError(t, orch.CreateNewSession(ctx))

	state := orch.Snapshot()
	require.Len(t, state.Sessions, 2)
	assert.Equal(t, "created-1", state.Sessions[0].ID)
	assert.Equal(t, "created-1", state.ActiveSessionID)
	assert.Empty(t, state.Messages)
}

func TestSendMessageAppendsConfirmedPair(t *testing.T) {
	client := newFakeClient()
	orch := New(client, "user-1")
	ctx := context.Background()
	require.NoError(t, orch.EnsureActiveSession(ctx))

	require.NoError(t, orch.SendMessage(ctx, "hello", nil))

	state := orch.Snapshot()
	require.Len(t, state.Messages, 2)
	assert.Equal(t, chatapi.RoleUser, state.Messages[0].Role)
	assert.Equal(t, "hello", state.Messages[0].Content)
	assert.Equal(t, chatapi.RoleAssistant, state.Messages[1].Role)
	assert.False(t, state.Loading)
	assert.Nil(t, state.Err)
}

func TestSendMessageBlankContent(t *testing.T) {
	client := newFakeClient()
	orch := New(client, "user-1")

	err := orch.SendMessage(context.Background(), "   \t  ", nil)
	require.ErrorIs(t, err, ErrEmptyMessage)
	assert.Zero(t, client.sendCalls)
	assert.Nil(t, orch.Snapshot().Err, "blank input must not touch the held error")
}

func TestSendMessageFailureSetsHeldError(t *testing.T) {
	client := newFakeClient()
	client.sendErr = &chatapi.APIError{Op: "send_message", StatusCode: http.StatusBadGateway, Message: "assistant is unavailable"}
	orch := New(client, "user-1")
	ctx := context.Background()
	require.NoError(t, orch.EnsureActiveSession(ctx))

	var gotEvent *Event
	orch.Subscribe(EventErrorSet, func(e Event) { gotEvent = &e })

	err := orch.SendMessage(ctx, "hello", nil)
	require.Error(t, err)

	state := orch.Snapshot()
	require.NotNil(t, state.Err)
	assert.Equal(t, "assistant is unavailable", state.Err.Message)
	assert.Empty(t, state.Messages, "nothing may be appended on failure")
	assert.False(t, state.Loading)

	require.NotNil(t, gotEvent)
	assert.Equal(t, EventErrorSet, gotEvent.Type)
	assert.Equal(t, state.Err.Message, gotEvent.Err.Message)

	orch.ClearError()
	assert.Nil(t, orch.Snapshot().Err)
}

func TestSendMessageErrorOverwritesPrevious(t *testing.T) {
	client := newFakeClient()
	client.sendErr = &chatapi.APIError{Message: "first failure"}
	orch := New(client, "user-1")
	ctx := context.Background()
	require.NoError(t, orch.EnsureActiveSession(ctx))

	require.Error(t, orch.SendMessage(ctx, "one", nil))
	client.mu.Lock()
	client.sendErr = &chatapi.APIError{Message: "second failure"}
	client.mu.Unlock()
	require.Error(t, orch.SendMessage(ctx, "two", nil))

	assert.Equal(t, "second failure", orch.Snapshot().Err.Message)
}

func TestSendMessageStaleResultDropped(t *testing.T) {
	client := newFakeClient()
	client.sendStarted = make(chan struct{})
	client.sendRelease = make(chan struct{})
	orch := New(client, "user-1")
	ctx := context.Background()
	require.NoError(t, orch.EnsureActiveSession(ctx))

	done := make(chan error, 1)
	go func() { done <- orch.SendMessage(ctx, "hello", nil) }()

	<-client.sendStarted
	// The active session changes while the send is in flight, as after a
	// full state reset.
	orch.mu.Lock()
	orch.state.ActiveSessionID = "other"
	orch.state.Messages = nil
	orch.mu.Unlock()
	close(client.sendRelease)

	require.NoError(t, <-done)
	state := orch.Snapshot()
	assert.Equal(t, "other", state.ActiveSessionID)
	assert.Empty(t, state.Messages, "result for a stale session must be discarded")
}

func TestMutationsRejectedWhileBusy(t *testing.T) {
	client := newFakeClient()
	client.listStarted = make(chan struct{})
	client.listRelease = make(chan struct{})
	orch := New(client, "user-1")
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- orch.FetchSessions(ctx) }()
	<-client.listStarted

	assert.ErrorIs(t, orch.SendMessage(ctx, "hello", nil), ErrBusy)
	assert.ErrorIs(t, orch.CreateNewSession(ctx), ErrBusy)
	assert.ErrorIs(t, orch.DeleteSession(ctx, "s1"), ErrBusy)
	assert.ErrorIs(t, orch.SelectSession(ctx, "s1"), ErrBusy)

	close(client.listRelease)
	require.NoError(t, <-done)
	assert.False(t, orch.Snapshot().Loading)
}

func TestSelectSessionUsesCache(t *testing.T) {
	client := newFakeClient()
	client.sessions = []chatapi.SessionSummary{{ID: "s1"}, {ID: "s2"}}
	client.histories["s2"] = []chatapi.Message{{ID: "m1", SessionID: "s2", Role: chatapi.RoleUser, Content: "q"}}
	orch := New(client, "user-1")
	ctx := context.Background()
	require.NoError(t, orch.FetchSessions(ctx))

	require.NoError(t, orch.SelectSession(ctx, "s2"))
	assert.Equal(t, 1, client.historyCalls)
	require.Len(t, orch.Snapshot().Messages, 1)

	// Switching away and back must be served from the cache.
	require.NoError(t, orch.SelectSession(ctx, "s1"))
	require.NoError(t, orch.SelectSession(ctx, "s2"))
	assert.Equal(t, 1, client.historyCalls)
	assert.Equal(t, "s2", orch.Snapshot().ActiveSessionID)
}

func TestSelectActiveSessionIsNoop(t *testing.T) {
	client := newFakeClient()
	client.sessions = []chatapi.SessionSummary{{ID: "s1"}}
	orch := New(client, "user-1")
	ctx := context.Background()
	require.NoError(t, orch.FetchSessions(ctx))

	require.NoError(t, orch.SelectSession(ctx, "s1"))
	assert.Zero(t, client.historyCalls)
}

func TestFetchSessionsFailureKeepsList(t *testing.T) {
	client := newFakeClient()
	client.sessions = []chatapi.SessionSummary{{ID: "s1"}}
	orch := New(client, "user-1")
	ctx := context.Background()
	require.NoError(t, orch.FetchSessions(ctx))

	client.mu.Lock()
	client.listErr = &chatapi.APIError{Op: "list_sessions", StatusCode: http.StatusInternalServerError, Message: "failed to load conversations"}
	client.mu.Unlock()

	require.Error(t, orch.FetchSessions(ctx))
	state := orch.Snapshot()
	require.Len(t, state.Sessions, 1, "prior list must survive a failed refresh")
	assert.NotNil(t, state.Err)
	assert.False(t, state.Loading)
}

func TestDeleteActiveSessionConverges(t *testing.T) {
	client := newFakeClient()
	client.sessions = []chatapi.SessionSummary{{ID: "s1"}, {ID: "s2"}}
	orch := New(client, "user-1")
	ctx := context.Background()
	require.NoError(t, orch.FetchSessions(ctx))
	require.Equal(t, "s1", orch.Snapshot().ActiveSessionID)

	require.NoError(t, orch.DeleteSession(ctx, "s1"))

	state := orch.Snapshot()
	require.Len(t, state.Sessions, 1)
	assert.Equal(t, "s2", state.ActiveSessionID, "deletion of the active session must converge to the next one")
	assert.Zero(t, client.createCalls)
}

func TestDeleteLastSessionCreatesReplacement(t *testing.T) {
	client := newFakeClient()
	orch := New(client, "user-1")
	ctx := context.Background()
	require.NoError(t, orch.EnsureActiveSession(ctx))
	require.Equal(t, 1, client.createCalls)

	require.NoError(t, orch.DeleteSession(ctx, orch.Snapshot().ActiveSessionID))

	state := orch.Snapshot()
	assert.Equal(t, 2, client.createCalls)
	assert.Equal(t, "created-2", state.ActiveSessionID)
	require.Len(t, state.Sessions, 1)
}

func TestStateChangedEvents(t *testing.T) {
	client := newFakeClient()
	orch := New(client, "user-1")

	var events []Event
	var mu sync.Mutex
	orch.Subscribe(EventStateChanged, func(e Event) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	})

	require.NoError(t, orch.EnsureActiveSession(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, events)
	assert.Equal(t, "created-1", events[len(events)-1].State.ActiveSessionID)
}

type fakeRecorder struct {
	mu       sync.Mutex
	intents  []string
	sessions int
}

func (r *fakeRecorder) RecordIntent(intent string, _ time.Duration, _ bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, intent)
}

func (r *fakeRecorder) SetKnownSessions(count int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions = count
}

func TestRecorderReceivesIntents(t *testing.T) {
	client := newFakeClient()
	recorder := &fakeRecorder{}
	orch := New(client, "user-1", WithRecorder(recorder))
	ctx := context.Background()

	require.NoError(t, orch.EnsureActiveSession(ctx))
	require.NoError(t, orch.SendMessage(ctx, "hello", nil))

	recorder.mu.Lock()
	defer recorder.mu.Unlock()
	assert.Contains(t, recorder.intents, "ensure_active_session")
	assert.Contains(t, recorder.intents, "send_message")
	assert.Equal(t, 1, recorder.sessions)
}

func TestSnapshotIsDefensiveCopy(t *testing.T) {
	client := newFakeClient()
	orch := New(client, "user-1")
	ctx := context.Background()
	require.NoError(t, orch.EnsureActiveSession(ctx))
	require.NoError(t, orch.SendMessage(ctx, "hello", nil))

	snap := orch.Snapshot()
	snap.Messages[0].Content = "mutated"
	snap.Sessions[0].ID = "mutated"

	fresh := orch.Snapshot()
	assert.Equal(t, "hello", fresh.Messages[0].Content)
	assert.Equal(t, "created-1", fresh.Sessions[0].ID)
}
