package db

import (
	"context"
	"database/sql"
)

const createMessage = `
INSERT INTO messages (id, chat_id, user_id, role, content)
VALUES (?, ?, ?, ?, ?)
RETURNING id, chat_id, user_id, role, content, created_at, updated_at
`

type CreateMessageParams struct {
	ID      string
	ChatID  string
	UserID  string
	Role    string
	Content string
}

func (q *Queries) CreateMessage(ctx context.Context, arg CreateMessageParams) (*Message, error) {
	row := q.db.QueryRowContext(ctx, createMessage,
		arg.ID,
		arg.ChatID,
		arg.UserID,
		arg.Role,
		arg.Content,
	)
	var m Message
	err := row.Scan(&m.ID, &m.ChatID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const getMessage = `
SELECT id, chat_id, user_id, role, content, created_at, updated_at
FROM messages WHERE id = ?
`

func (q *Queries) GetMessage(ctx context.Context, id string) (*Message, error) {
	row := q.db.QueryRowContext(ctx, getMessage, id)
	var m Message
	err := row.Scan(&m.ID, &m.ChatID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const listMessagesByChat = `
SELECT id, chat_id, user_id, role, content, created_at, updated_at
FROM messages WHERE chat_id = ?
ORDER BY created_at ASC, rowid ASC
`

func (q *Queries) ListMessagesByChat(ctx context.Context, chatID string) ([]*Message, error) {
	rows, err := q.db.QueryContext(ctx, listMessagesByChat, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

const listRecentMessagesByChat = `
SELECT id, chat_id, user_id, role, content, created_at, updated_at
FROM messages WHERE chat_id = ?
ORDER BY created_at DESC, rowid DESC
LIMIT ?
`

// ListRecentMessagesByChat returns the newest messages first; callers that
// need chronological order reverse the slice. created_at has one-second
// granularity, so rowid breaks ties by insertion order.
func (q *Queries) ListRecentMessagesByChat(ctx context.Context, chatID string, limit int64) ([]*Message, error) {
	rows, err := q.db.QueryContext(ctx, listRecentMessagesByChat, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

const listMessagesByUser = `
SELECT id, chat_id, user_id, role, content, created_at, updated_at
FROM messages WHERE user_id = ?
ORDER BY created_at DESC, rowid DESC
`

func (q *Queries) ListMessagesByUser(ctx context.Context, userID string) ([]*Message, error) {
	rows, err := q.db.QueryContext(ctx, listMessagesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMessages(rows)
}

const updateMessageContent = `
UPDATE messages SET content = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
RETURNING id, chat_id, user_id, role, content, created_at, updated_at
`

func (q *Queries) UpdateMessageContent(ctx context.Context, id, content string) (*Message, error) {
	row := q.db.QueryRowContext(ctx, updateMessageContent, content, id)
	var m Message
	err := row.Scan(&m.ID, &m.ChatID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

const deleteMessage = `
DELETE FROM messages WHERE id = ?
`

func (q *Queries) DeleteMessage(ctx context.Context, id string) error {
	result, err := q.db.ExecContext(ctx, deleteMessage, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMessages(rows *sql.Rows) ([]*Message, error) {
	var messages []*Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.ChatID, &m.UserID, &m.Role, &m.Content, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}
