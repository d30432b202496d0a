package v1

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/lexhub/lexchat/store"
)

type submitFeedbackRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// SubmitFeedback records a rating for one assistant message. Ratings are
// constrained to the 1..5 scale.
func (s *APIV1Service) SubmitFeedback(c echo.Context) error {
	ctx := c.Request().Context()
	userID := authedUserID(c)
	sessionID := c.Param("sessionID")
	messageID := c.Param("messageID")

	var request submitFeedbackRequest
	if err := c.Bind(&request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if request.Rating < 1 || request.Rating > 5 {
		return echo.NewHTTPError(http.StatusBadRequest, "rating must be between 1 and 5")
	}

	if _, err := s.findOwnedSession(ctx, sessionID, userID); err != nil {
		return err
	}

	messages, err := s.Store.ListChatMessages(ctx, &store.FindChatMessage{ID: &messageID, SessionID: &sessionID})
	if err != nil {
		slog.Error("failed to find message", "message_id", messageID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to submit feedback")
	}
	if len(messages) == 0 {
		return echo.NewHTTPError(http.StatusNotFound, "message not found")
	}
	if messages[0].Role != store.ChatMessageRoleAssistant {
		return echo.NewHTTPError(http.StatusBadRequest, "feedback applies to assistant messages only")
	}

	if _, err := s.Store.CreateMessageFeedback(ctx, &store.MessageFeedback{
		SessionID: sessionID,
		MessageID: messageID,
		Rating:    request.Rating,
		Comment:   request.Comment,
		CreatedTs: time.Now().Unix(),
	}); err != nil {
		slog.Error("failed to persist feedback", "message_id", messageID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to submit feedback")
	}

	slog.Info("message feedback recorded", "session_id", sessionID, "message_id", messageID, "rating", request.Rating)
	return c.NoContent(http.StatusNoContent)
}
