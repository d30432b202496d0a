package sqlite

import (
	"context"

	"github.com/pkg/errors"

	"github.com/lexhub/lexchat/store"
)

func (d *DB) CreateMessageFeedback(ctx context.Context, create *store.MessageFeedback) (*store.MessageFeedback, error) {
	stmt := `INSERT INTO message_feedback (session_id, message_id, rating, comment, created_ts)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.SessionID,
		create.MessageID,
		create.Rating,
		create.Comment,
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		return nil, errors.Wrap(err, "failed to create message feedback")
	}
	return create, nil
}
