package sqlite

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"github.com/lexhub/lexchat/store"
)

func (d *DB) CreateChatMessage(ctx context.Context, create *store.ChatMessage) (*store.ChatMessage, error) {
	attachments, err := json.Marshal(create.Attachments)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode attachments")
	}

	stmt := `INSERT INTO chat_message (id, session_id, role, content, attachments, created_ts)
		VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID,
		create.SessionID,
		string(create.Role),
		create.Content,
		string(attachments),
		create.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create chat message")
	}
	return create, nil
}

func (d *DB) ListChatMessages(ctx context.Context, find *store.FindChatMessage) ([]*store.ChatMessage, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != nil {
		where, args = append(where, "id = ?"), append(args, *find.ID)
	}
	if find.SessionID != nil {
		where, args = append(where, "session_id = ?"), append(args, *find.SessionID)
	}

	// Total order: created_ts first, server-assigned id as tie-breaker.
	query := `SELECT id, session_id, role, content, attachments, created_ts
		FROM chat_message
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts ASC, id ASC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list chat messages")
	}
	defer rows.Close()

	list := []*store.ChatMessage{}
	for rows.Next() {
		var message store.ChatMessage
		var role, attachments string
		if err := rows.Scan(
			&message.ID,
			&message.SessionID,
			&role,
			&message.Content,
			&attachments,
			&message.CreatedTs,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan chat message")
		}
		message.Role = store.ChatMessageRole(role)
		if err := json.Unmarshal([]byte(attachments), &message.Attachments); err != nil {
			return nil, errors.Wrap(err, "failed to decode attachments")
		}
		list = append(list, &message)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate chat messages")
	}
	return list, nil
}
