// Package v1 implements the REST API consumed by the chat client.
package v1

import (
	"github.com/labstack/echo/v4"
	"golang.org/x/sync/semaphore"

	"github.com/lexhub/lexchat/internal/profile"
	"github.com/lexhub/lexchat/server/auth"
	"github.com/lexhub/lexchat/store"
)

type APIV1Service struct {
	Secret    string
	Profile   *profile.Profile
	Store     *store.Store
	Responder Responder

	// uploadSemaphore limits concurrent attachment decoding to prevent memory
	// exhaustion from large image uploads.
	uploadSemaphore *semaphore.Weighted
}

func NewAPIV1Service(secret string, profile *profile.Profile, store *store.Store) *APIV1Service {
	service := &APIV1Service{
		Secret:          secret,
		Profile:         profile,
		Store:           store,
		Responder:       NewCannedResponder(),
		uploadSemaphore: semaphore.NewWeighted(3),
	}
	if profile.IsLLMEnabled() {
		service.Responder = NewOpenAIResponder(profile)
	}
	return service
}

// Register mounts all chat routes on the given Echo instance. Every route
// requires a valid bearer token.
func (s *APIV1Service) Register(echoServer *echo.Echo) {
	g := echoServer.Group("/api/v1", auth.Middleware(s.Secret))

	g.POST("/sessions", s.CreateSession)
	g.GET("/sessions", s.ListSessions)
	g.DELETE("/sessions/:sessionID", s.DeleteSession)
	g.POST("/sessions/:sessionID/messages", s.SendMessage)
	g.GET("/sessions/:sessionID/messages", s.GetHistory)
	g.POST("/sessions/:sessionID/messages/:messageID/feedback", s.SubmitFeedback)
	g.POST("/upload", s.UploadFile)
}

// authedUserID returns the user identifier set by the auth middleware.
func authedUserID(c echo.Context) string {
	return auth.GetUserID(c)
}
