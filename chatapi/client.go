// Package chatapi is the typed messaging client for the lexchat backend.
// Every operation wraps one HTTP endpoint and normalizes all failure modes
// into a single *APIError; no transport error shape leaks to callers.
package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

const defaultTimeout = 30 * time.Second

// Operation default messages, used when the server returns no usable error
// body.
const (
	msgCreateSessionFailed  = "failed to start a new conversation"
	msgListSessionsFailed   = "failed to load conversations"
	msgDeleteSessionFailed  = "failed to delete conversation"
	msgSendMessageFailed    = "failed to send message"
	msgGetHistoryFailed     = "failed to load conversation history"
	msgSubmitFeedbackFailed = "failed to submit feedback"
	msgUploadFileFailed     = "failed to upload file"
	msgEmptyMessage         = "message content is empty"
)

// TokenProvider supplies the bearer token attached to every request. The
// caller identity behind the token is managed by an external auth layer.
type TokenProvider func() string

// Client performs the seven backend operations. It holds no mutable
// conversation state and is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenProvider
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken attaches a static bearer token to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = func() string { return token } }
}

// WithTokenProvider attaches a dynamic bearer token source.
func WithTokenProvider(tp TokenProvider) Option {
	return func(c *Client) { c.token = tp }
}

// WithSendRateLimit throttles SendMessage to r events with the given burst.
// Other operations are not limited.
func WithSendRateLimit(r rate.Limit, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(r, burst) }
}

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateSession asks the server to open a new conversation. The returned
// Session is canonical; the server assigns its identifier.
func (c *Client) CreateSession(ctx context.Context, create CreateSessionRequest) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodPost, "/sessions", create, &session, "create_session", msgCreateSessionFailed); err != nil {
		return nil, err
	}
	return &session, nil
}

// ListSessions returns the caller's sessions in server order. An empty list
// is a valid, non-error result.
func (c *Client) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	var sessions []SessionSummary
	if err := c.do(ctx, http.MethodGet, "/sessions", nil, &sessions, "list_sessions", msgListSessionsFailed); err != nil {
		return nil, err
	}
	return sessions, nil
}

// DeleteSession removes a session and its messages. Fails if the session does
// not exist or is not owned by the caller.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	path := "/sessions/" + url.PathEscape(sessionID)
	return c.do(ctx, http.MethodDelete, path, nil, nil, "delete_session", msgDeleteSessionFailed)
}

// SendMessage posts one user turn and returns the persisted message plus the
// assistant reply. Content that is empty after trimming is rejected without a
// network call.
func (c *Client) SendMessage(ctx context.Context, sessionID, content string, attachments []string) (*SendMessageResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &APIError{Op: "send_message", Message: msgEmptyMessage}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, newTransportError("send_message", err)
		}
	}

	body := struct {
		Content     string   `json:"content"`
		Attachments []string `json:"attachments,omitempty"`
	}{Content: content, Attachments: attachments}

	var result SendMessageResult
	path := "/sessions/" + url.PathEscape(sessionID) + "/messages"
	if err := c.do(ctx, http.MethodPost, path, body, &result, "send_message", msgSendMessageFailed); err != nil {
		return nil, err
	}
	if result.Reply == nil {
		return nil, &APIError{Op: "send_message", Message: msgSendMessageFailed, err: errors.New("response missing assistant reply")}
	}
	return &result, nil
}

// GetHistory returns the full ordered message history of a session.
func (c *Client) GetHistory(ctx context.Context, sessionID string) ([]Message, error) {
	var messages []Message
	path := "/sessions/" + url.PathEscape(sessionID) + "/messages"
	if err := c.do(ctx, http.MethodGet, path, nil, &messages, "get_history", msgGetHistoryFailed); err != nil {
		return nil, err
	}
	return messages, nil
}

// SubmitFeedback records a rating for one assistant message. The rating scale
// is enforced server-side.
func (c *Client) SubmitFeedback(ctx context.Context, sessionID, messageID string, rating int, comment string) error {
	body := struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment,omitempty"`
	}{Rating: rating, Comment: comment}

	path := fmt.Sprintf("/sessions/%s/messages/%s/feedback", url.PathEscape(sessionID), url.PathEscape(messageID))
	return c.do(ctx, http.MethodPost, path, body, nil, "submit_feedback", msgSubmitFeedbackFailed)
}

// UploadFile sends file bytes as multipart form data and returns a reference
// usable as a SendMessage attachment.
func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	const op = "upload_file"

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, newTransportError(op, errors.Wrap(err, "create multipart part"))
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, newTransportError(op, errors.Wrap(err, "read file"))
	}
	if err := mw.Close(); err != nil {
		return nil, newTransportError(op, errors.Wrap(err, "finalize multipart body"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return nil, newTransportError(op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	c.setCommonHeaders(req)

	var result UploadResult
	if err := c.send(req, &result, op, msgUploadFileFailed); err != nil {
		return nil, err
	}
	return &result, nil
}

// do performs one JSON request/response round trip.
func (c *Client) do(ctx context.Context, method, path string, in, out any, op, defaultMsg string) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return newTransportError(op, errors.Wrap(err, "encode request"))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return newTransportError(op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setCommonHeaders(req)

	return c.send(req, out, op, defaultMsg)
}

func (c *Client) setCommonHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if c.token != nil {
		if token := c.token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

func (c *Client) send(req *http.Request, out any, op, defaultMsg string) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("chat api request failed",
			"op", op,
			"method", req.Method,
			"path", req.URL.Path,
			"error", err,
		)
		return newTransportError(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return newTransportError(op, errors.Wrap(err, "read response"))
	}

	c.logger.Debug("chat api request",
		"op", op,
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"latency", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(op, resp.StatusCode, data, defaultMsg)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &APIError{
			Op:         op,
			StatusCode: resp.StatusCode,
			Message:    defaultMsg,
			err:        errors.Wrap(err, "decode response"),
		}
	}
	return nil
}
