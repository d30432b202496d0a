package store

// ChatMessageRole is the author of a message turn.
type ChatMessageRole string

const (
	ChatMessageRoleUser      ChatMessageRole = "user"
	ChatMessageRoleAssistant ChatMessageRole = "assistant"
)

// ChatMessage is one persisted turn in a session. Messages are totally
// ordered by CreatedTs with the ID as tie-breaker; they are never updated,
// only deleted together with their session.
type ChatMessage struct {
	ID          string
	SessionID   string
	Role        ChatMessageRole
	Content     string
	Attachments []string
	CreatedTs   int64
}

type FindChatMessage struct {
	ID        *string
	SessionID *string
}
