package chatutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lexhub/lexchat/chatapi"
)

func TestDerivePreview(t *testing.T) {
	t.Run("first user message wins", func(t *testing.T) {
		messages := []chatapi.Message{
			{Role: chatapi.RoleAssistant, Content: "How can I help?"},
			{Role: chatapi.RoleUser, Content: "I need help with a lease dispute"},
			{Role: chatapi.RoleUser, Content: "second question"},
		}
		assert.Equal(t, "I need help with a lease dispute", DerivePreview(messages, DefaultPreviewLength))
	})

	t.Run("content is trimmed", func(t *testing.T) {
		messages := []chatapi.Message{
			{Role: chatapi.RoleUser, Content: "  padded question  "},
		}
		assert.Equal(t, "padded question", DerivePreview(messages, DefaultPreviewLength))
	})

	t.Run("no user message", func(t *testing.T) {
		messages := []chatapi.Message{
			{Role: chatapi.RoleAssistant, Content: "Welcome!"},
		}
		assert.Equal(t, EmptyPreview, DerivePreview(messages, DefaultPreviewLength))
		assert.Equal(t, EmptyPreview, DerivePreview(nil, DefaultPreviewLength))
	})

	t.Run("long content is truncated with marker", func(t *testing.T) {
		messages := []chatapi.Message{
			{Role: chatapi.RoleUser, Content: strings.Repeat("a", 100)},
		}
		got := DerivePreview(messages, 10)
		assert.Equal(t, strings.Repeat("a", 10)+"...", got)
	})

	t.Run("truncation counts runes not bytes", func(t *testing.T) {
		messages := []chatapi.Message{
			{Role: chatapi.RoleUser, Content: strings.Repeat("世", 20)},
		}
		got := DerivePreview(messages, 5)
		assert.Equal(t, strings.Repeat("世", 5)+"...", got)
	})

	t.Run("non-positive max falls back to default", func(t *testing.T) {
		messages := []chatapi.Message{
			{Role: chatapi.RoleUser, Content: strings.Repeat("b", 200)},
		}
		got := DerivePreview(messages, 0)
		assert.Equal(t, strings.Repeat("b", DefaultPreviewLength)+"...", got)
	})
}
