package v1

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/lexhub/lexchat/chatapi"
	"github.com/lexhub/lexchat/chatutil"
	"github.com/lexhub/lexchat/store"
)

// CreateSession opens a new conversation for the authenticated user.
func (s *APIV1Service) CreateSession(c echo.Context) error {
	ctx := c.Request().Context()
	userID := authedUserID(c)

	var request chatapi.CreateSessionRequest
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	now := time.Now().Unix()
	session, err := s.Store.CreateChatSession(ctx, &store.ChatSession{
		ID:        shortuuid.New(),
		UserID:    userID,
		Title:     request.Title,
		CreatedTs: now,
		UpdatedTs: now,
	})
	if err != nil {
		slog.Error("failed to create chat session", "user_id", userID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create session")
	}

	slog.Info("chat session created", "user_id", userID, "session_id", session.ID)
	return c.JSON(http.StatusOK, convertSession(session))
}

// ListSessions returns the caller's sessions newest-first, each with a preview
// derived from its first user message.
func (s *APIV1Service) ListSessions(c echo.Context) error {
	ctx := c.Request().Context()
	userID := authedUserID(c)

	sessions, err := s.Store.ListChatSessions(ctx, &store.FindChatSession{UserID: &userID})
	if err != nil {
		slog.Error("failed to list chat sessions", "user_id", userID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list sessions")
	}

	summaries := make([]chatapi.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		messages, err := s.Store.ListChatMessages(ctx, &store.FindChatMessage{SessionID: &session.ID})
		if err != nil {
			slog.Error("failed to load session messages", "session_id", session.ID, "error", err)
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to list sessions")
		}
		summaries = append(summaries, chatapi.SessionSummary{
			ID:        session.ID,
			Title:     session.Title,
			Preview:   chatutil.DerivePreview(convertMessages(messages), chatutil.DefaultPreviewLength),
			UpdatedTs: session.UpdatedTs,
		})
	}
	return c.JSON(http.StatusOK, summaries)
}

// DeleteSession removes a session and all of its messages.
func (s *APIV1Service) DeleteSession(c echo.Context) error {
	ctx := c.Request().Context()
	userID := authedUserID(c)
	sessionID := c.Param("sessionID")

	if _, err := s.findOwnedSession(ctx, sessionID, userID); err != nil {
		return err
	}
	if err := s.Store.DeleteChatSession(ctx, &store.DeleteChatSession{ID: sessionID}); err != nil {
		slog.Error("failed to delete chat session", "session_id", sessionID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete session")
	}

	slog.Info("chat session deleted", "user_id", userID, "session_id", sessionID)
	return c.NoContent(http.StatusNoContent)
}

// findOwnedSession loads a session and checks caller ownership. Sessions owned
// by another user are reported as not found.
func (s *APIV1Service) findOwnedSession(ctx context.Context, sessionID, userID string) (*store.ChatSession, error) {
	sessions, err := s.Store.ListChatSessions(ctx, &store.FindChatSession{ID: &sessionID})
	if err != nil {
		slog.Error("failed to find chat session", "session_id", sessionID, "error", err)
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "failed to load session")
	}
	if len(sessions) == 0 || sessions[0].UserID != userID {
		return nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return sessions[0], nil
}

func convertSession(session *store.ChatSession) chatapi.Session {
	return chatapi.Session{
		ID:        session.ID,
		UserID:    session.UserID,
		Title:     session.Title,
		CreatedTs: session.CreatedTs,
		UpdatedTs: session.UpdatedTs,
	}
}

func convertMessages(messages []*store.ChatMessage) []chatapi.Message {
	list := make([]chatapi.Message, 0, len(messages))
	for _, message := range messages {
		list = append(list, chatapi.Message{
			ID:          message.ID,
			SessionID:   message.SessionID,
			Role:        chatapi.Role(message.Role),
			Content:     message.Content,
			CreatedTs:   message.CreatedTs,
			Attachments: message.Attachments,
		})
	}
	return list
}
