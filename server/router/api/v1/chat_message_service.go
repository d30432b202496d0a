package v1

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/lexhub/lexchat/chatapi"
	"github.com/lexhub/lexchat/store"
)

type sendMessageRequest struct {
	Content     string   `json:"content"`
	Attachments []string `json:"attachments"`
}

// SendMessage appends one user turn to the session, produces the assistant
// reply, and returns both persisted messages.
func (s *APIV1Service) SendMessage(c echo.Context) error {
	ctx := c.Request().Context()
	userID := authedUserID(c)
	sessionID := c.Param("sessionID")

	var request sendMessageRequest
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if strings.TrimSpace(request.Content) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message content is empty")
	}

	session, err := s.findOwnedSession(ctx, sessionID, userID)
	if err != nil {
		return err
	}

	history, err := s.Store.ListChatMessages(ctx, &store.FindChatMessage{SessionID: &sessionID})
	if err != nil {
		slog.Error("failed to load message history", "session_id", sessionID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to send message")
	}

	now := time.Now().Unix()
	userMessage, err := s.Store.CreateChatMessage(ctx, &store.ChatMessage{
		ID:          shortuuid.New(),
		SessionID:   sessionID,
		Role:        store.ChatMessageRoleUser,
		Content:     request.Content,
		Attachments: request.Attachments,
		CreatedTs:   now,
	})
	if err != nil {
		slog.Error("failed to persist user message", "session_id", sessionID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to send message")
	}

	replyContent, err := s.Responder.Reply(ctx, convertMessages(history), request.Content)
	if err != nil {
		slog.Error("assistant responder failed", "session_id", sessionID, "error", err)
		return echo.NewHTTPError(http.StatusBadGateway, "assistant is unavailable")
	}

	reply, err := s.Store.CreateChatMessage(ctx, &store.ChatMessage{
		ID:        shortuuid.New(),
		SessionID: sessionID,
		Role:      store.ChatMessageRoleAssistant,
		Content:   replyContent,
		CreatedTs: time.Now().Unix(),
	})
	if err != nil {
		slog.Error("failed to persist assistant message", "session_id", sessionID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to send message")
	}

	updatedTs := reply.CreatedTs
	if _, err := s.Store.UpdateChatSession(ctx, &store.UpdateChatSession{ID: session.ID, UpdatedTs: &updatedTs}); err != nil {
		slog.Warn("failed to bump session timestamp", "session_id", session.ID, "error", err)
	}

	userMsg := convertMessage(userMessage)
	replyMsg := convertMessage(reply)
	return c.JSON(http.StatusOK, chatapi.SendMessageResult{
		Message: &userMsg,
		Reply:   &replyMsg,
	})
}

// GetHistory returns the full ordered message history of a session.
func (s *APIV1Service) GetHistory(c echo.Context) error {
	ctx := c.Request().Context()
	userID := authedUserID(c)
	sessionID := c.Param("sessionID")

	if _, err := s.findOwnedSession(ctx, sessionID, userID); err != nil {
		return err
	}

	messages, err := s.Store.ListChatMessages(ctx, &store.FindChatMessage{SessionID: &sessionID})
	if err != nil {
		slog.Error("failed to load message history", "session_id", sessionID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load history")
	}
	return c.JSON(http.StatusOK, convertMessages(messages))
}

func convertMessage(message *store.ChatMessage) chatapi.Message {
	return chatapi.Message{
		ID:          message.ID,
		SessionID:   message.SessionID,
		Role:        chatapi.Role(message.Role),
		Content:     message.Content,
		CreatedTs:   message.CreatedTs,
		Attachments: message.Attachments,
	}
}
