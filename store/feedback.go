package store

// MessageFeedback is a single rating submitted for an assistant message.
// Write-once; the rating scale is validated at the service boundary.
type MessageFeedback struct {
	ID        int64
	SessionID string
	MessageID string
	Rating    int
	Comment   string
	CreatedTs int64
}
