package postgres

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/lexhub/lexchat/store"
)

func (d *DB) CreateAttachment(ctx context.Context, create *store.Attachment) (*store.Attachment, error) {
	stmt := `INSERT INTO attachment (id, filename, content_type, size, path, created_ts)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := d.db.ExecContext(ctx, stmt,
		create.ID,
		create.Filename,
		create.ContentType,
		create.Size,
		create.Path,
		create.CreatedTs,
	); err != nil {
		return nil, errors.Wrap(err, "failed to create attachment")
	}
	return create, nil
}

func (d *DB) GetAttachment(ctx context.Context, id string) (*store.Attachment, error) {
	query := `SELECT id, filename, content_type, size, path, created_ts
		FROM attachment
		WHERE id = $1`

	var attachment store.Attachment
	if err := d.db.QueryRowContext(ctx, query, id).Scan(
		&attachment.ID,
		&attachment.Filename,
		&attachment.ContentType,
		&attachment.Size,
		&attachment.Path,
		&attachment.CreatedTs,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Errorf("attachment not found: %s", id)
		}
		return nil, errors.Wrap(err, "failed to get attachment")
	}
	return &attachment, nil
}
