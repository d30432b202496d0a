package orchestrator

import "github.com/lexhub/lexchat/chatapi"

// State is the conversation state snapshot exposed to presentation layers.
// The orchestrator is its single owner; readers get defensive copies and must
// go through intents to change anything.
type State struct {
	// Sessions are the known sessions in server (recency) order, unique by ID.
	Sessions []chatapi.SessionSummary
	// ActiveSessionID is the session targeted by send/select operations.
	// Empty only transiently; the initialization rule converges it.
	ActiveSessionID string
	// Messages is the active session's ordered message list.
	Messages []chatapi.Message
	// Loading is true while exactly one mutating intent is in flight.
	Loading bool
	// Err is the single-slot held error. A new failure overwrites it; clearing
	// is explicit via ClearError.
	Err *chatapi.APIError
}

func (s State) clone() State {
	out := s
	out.Sessions = append([]chatapi.SessionSummary(nil), s.Sessions...)
	out.Messages = append([]chatapi.Message(nil), s.Messages...)
	return out
}
