package chatutil

import (
	"strings"

	"github.com/lexhub/lexchat/chatapi"
)

// DefaultPreviewLength is the preview cutoff used when maxLength is not
// positive.
const DefaultPreviewLength = 60

// EmptyPreview is returned when a session has no user message to preview.
const EmptyPreview = "New conversation"

// DerivePreview builds a short listing preview from a session's messages: the
// trimmed content of the first user message, truncated to maxLength runes with
// a "..." marker. Truncation is a plain character count, not word-boundary
// aware. Assistant-only histories yield EmptyPreview.
func DerivePreview(messages []chatapi.Message, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultPreviewLength
	}

	for _, msg := range messages {
		if msg.Role != chatapi.RoleUser {
			continue
		}
		content := strings.TrimSpace(msg.Content)
		runes := []rune(content)
		if len(runes) <= maxLength {
			return content
		}
		return strings.TrimSpace(string(runes[:maxLength])) + "..."
	}
	return EmptyPreview
}
