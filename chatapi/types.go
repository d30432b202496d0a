package chatapi

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Session is a server-tracked conversation thread. The ID is assigned by the
// server and immutable once set.
type Session struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Title     string `json:"title,omitempty"`
	CreatedTs int64  `json:"created_ts"`
	UpdatedTs int64  `json:"updated_ts"`
}

// SessionSummary is the lightweight listing projection of a Session. It never
// carries the message payload.
type SessionSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	Preview   string `json:"preview,omitempty"`
	UpdatedTs int64  `json:"updated_ts"`
}

// Message is a single turn in a session. Messages are ordered by CreatedTs,
// with the server-assigned ID breaking ties.
type Message struct {
	ID          string   `json:"id"`
	SessionID   string   `json:"session_id"`
	Role        Role     `json:"role"`
	Content     string   `json:"content"`
	CreatedTs   int64    `json:"created_ts"`
	Streaming   bool     `json:"streaming,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

// CreateSessionRequest carries the optional fields of a new session. The
// server assigns the identifier and timestamps.
type CreateSessionRequest struct {
	Title  string `json:"title,omitempty"`
	UserID string `json:"user_id"`
}

// SendMessageResult is the reply payload of a successful send. Message is the
// persisted user message, Reply the assistant's answer, in server-declared
// append order.
type SendMessageResult struct {
	Message *Message `json:"message,omitempty"`
	Reply   *Message `json:"reply"`
}

// UploadResult references an uploaded file. The ID is usable as an attachment
// reference in SendMessage.
type UploadResult struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}
