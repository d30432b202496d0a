package chatapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSession(t *testing.T) {
	var gotAuth, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/sessions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-Id")

		var create CreateSessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&create))
		assert.Equal(t, "user-1", create.UserID)

		_ = json.NewEncoder(w).Encode(Session{ID: "s1", UserID: create.UserID, CreatedTs: 100, UpdatedTs: 100})
	}))
	defer server.Close()

	client := NewClient(server.URL, WithToken("secret-token"))
	session, err := client.CreateSession(context.Background(), CreateSessionRequest{UserID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, "s1", session.ID)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestListSessionsEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	sessions, err := client.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSendMessageEmptyContentSkipsNetwork(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.SendMessage(context.Background(), "s1", "   \t\n  ", nil)
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "message content is empty", apiErr.Message)
	assert.Equal(t, "send_message", apiErr.Op)
	assert.False(t, called, "empty content must be rejected before any network call")
}

func TestSendMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sessions/s1/messages", r.URL.Path)
		_ = json.NewEncoder(w).Encode(SendMessageResult{
			Message: &Message{ID: "m1", SessionID: "s1", Role: RoleUser, Content: "hello"},
			Reply:   &Message{ID: "m2", SessionID: "s1", Role: RoleAssistant, Content: "hi"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.SendMessage(context.Background(), "s1", "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "m1", result.Message.ID)
	assert.Equal(t, RoleAssistant, result.Reply.Role)
}

func TestSendMessageMissingReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(SendMessageResult{Message: &Message{ID: "m1"}})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.SendMessage(context.Background(), "s1", "hello", nil)
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, "failed to send message", apiErr.Message)
}

func TestErrorMessagePrecedence(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{"message field wins", http.StatusBadRequest, `{"message":"rate limited","error":"ignored"}`, "rate limited"},
		{"error field is fallback", http.StatusBadRequest, `{"error":"bad input"}`, "bad input"},
		{"default for empty body", http.StatusInternalServerError, ``, "failed to load conversations"},
		{"default for non-JSON body", http.StatusBadGateway, `<html>boom</html>`, "failed to load conversations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(server.URL)
			_, err := client.ListSessions(context.Background())
			require.Error(t, err)

			apiErr, ok := AsAPIError(err)
			require.True(t, ok)
			assert.Equal(t, tt.expected, apiErr.Message)
			assert.Equal(t, tt.status, apiErr.StatusCode)
		})
	}
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewClient(server.URL)
	_, err := client.ListSessions(context.Background())
	require.Error(t, err)

	apiErr, ok := AsAPIError(err)
	require.True(t, ok)
	assert.Zero(t, apiErr.StatusCode)
	assert.NotEmpty(t, apiErr.Message)
}

func TestDeleteSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/sessions/s1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	require.NoError(t, client.DeleteSession(context.Background(), "s1"))
}

func TestGetHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sessions/s1/messages", r.URL.Path)
		_ = json.NewEncoder(w).Encode([]Message{
			{ID: "m1", Role: RoleUser, Content: "q"},
			{ID: "m2", Role: RoleAssistant, Content: "a"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	messages, err := client.GetHistory(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, RoleUser, messages[0].Role)
}

func TestSubmitFeedback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sessions/s1/messages/m2/feedback", r.URL.Path)
		var body struct {
			Rating  int    `json:"rating"`
			Comment string `json:"comment"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 5, body.Rating)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	require.NoError(t, client.SubmitFeedback(context.Background(), "s1", "m2", 5, "helpful"))
}

func TestUploadFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/upload", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "contract.txt", header.Filename)

		_ = json.NewEncoder(w).Encode(UploadResult{ID: "a1", Filename: header.Filename, ContentType: "text/plain", Size: 11})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	result, err := client.UploadFile(context.Background(), "contract.txt", strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, "a1", result.ID)
}
