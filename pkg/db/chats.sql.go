package db

import (
	"context"
)

const createChat = `
INSERT INTO chats (id, user_id, title)
VALUES (?, ?, ?)
RETURNING id, user_id, title, created_at, updated_at
`

type CreateChatParams struct {
	ID     string
	UserID string
	Title  string
}

func (q *Queries) CreateChat(ctx context.Context, arg CreateChatParams) (*Chat, error) {
	row := q.db.QueryRowContext(ctx, createChat, arg.ID, arg.UserID, arg.Title)
	var c Chat
	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const getChat = `
SELECT id, user_id, title, created_at, updated_at
FROM chats WHERE id = ?
`

func (q *Queries) GetChat(ctx context.Context, id string) (*Chat, error) {
	row := q.db.QueryRowContext(ctx, getChat, id)
	var c Chat
	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const listChatsByUser = `
SELECT id, user_id, title, created_at, updated_at
FROM chats WHERE user_id = ?
ORDER BY updated_at DESC
`

func (q *Queries) ListChatsByUser(ctx context.Context, userID string) ([]*Chat, error) {
	rows, err := q.db.QueryContext(ctx, listChatsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var chats []*Chat
	for rows.Next() {
		var c Chat
		if err := rows.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		chats = append(chats, &c)
	}
	return chats, rows.Err()
}

const updateChatTitle = `
UPDATE chats SET title = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
RETURNING id, user_id, title, created_at, updated_at
`

func (q *Queries) UpdateChatTitle(ctx context.Context, id, title string) (*Chat, error) {
	row := q.db.QueryRowContext(ctx, updateChatTitle, title, id)
	var c Chat
	err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

const touchChat = `
UPDATE chats SET updated_at = CURRENT_TIMESTAMP WHERE id = ?
`

func (q *Queries) TouchChat(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, touchChat, id)
	return err
}

const deleteChat = `
DELETE FROM chats WHERE id = ?
`

func (q *Queries) DeleteChat(ctx context.Context, id string) error {
	result, err := q.db.ExecContext(ctx, deleteChat, id)
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
