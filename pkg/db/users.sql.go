package db

import (
	"context"
	"database/sql"
)

const createUser = `
INSERT INTO users (id, privy_id, email, wallet_address, linked_accounts)
VALUES (?, ?, ?, ?, ?)
RETURNING id, privy_id, email, wallet_address, linked_accounts, created_at, updated_at
`

type CreateUserParams struct {
	ID             string
	PrivyID        string
	Email          sql.NullString
	WalletAddress  sql.NullString
	LinkedAccounts sql.NullString
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (*User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.ID,
		arg.PrivyID,
		arg.Email,
		arg.WalletAddress,
		arg.LinkedAccounts,
	)
	var u User
	err := row.Scan(&u.ID, &u.PrivyID, &u.Email, &u.WalletAddress, &u.LinkedAccounts, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const upsertUser = `
INSERT INTO users (id, privy_id, email, wallet_address, linked_accounts)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (privy_id) DO UPDATE SET
    email = excluded.email,
    wallet_address = excluded.wallet_address,
    linked_accounts = excluded.linked_accounts,
    updated_at = CURRENT_TIMESTAMP
RETURNING id, privy_id, email, wallet_address, linked_accounts, created_at, updated_at
`

type UpsertUserParams struct {
	ID             string
	PrivyID        string
	Email          sql.NullString
	WalletAddress  sql.NullString
	LinkedAccounts sql.NullString
}

func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) (*User, error) {
	row := q.db.QueryRowContext(ctx, upsertUser,
		arg.ID,
		arg.PrivyID,
		arg.Email,
		arg.WalletAddress,
		arg.LinkedAccounts,
	)
	var u User
	err := row.Scan(&u.ID, &u.PrivyID, &u.Email, &u.WalletAddress, &u.LinkedAccounts, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const getUser = `
SELECT id, privy_id, email, wallet_address, linked_accounts, created_at, updated_at
FROM users WHERE id = ?
`

func (q *Queries) GetUser(ctx context.Context, id string) (*User, error) {
	row := q.db.QueryRowContext(ctx, getUser, id)
	var u User
	err := row.Scan(&u.ID, &u.PrivyID, &u.Email, &u.WalletAddress, &u.LinkedAccounts, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const getUserByPrivyID = `
SELECT id, privy_id, email, wallet_address, linked_accounts, created_at, updated_at
FROM users WHERE privy_id = ?
`

func (q *Queries) GetUserByPrivyID(ctx context.Context, privyID string) (*User, error) {
	row := q.db.QueryRowContext(ctx, getUserByPrivyID, privyID)
	var u User
	err := row.Scan(&u.ID, &u.PrivyID, &u.Email, &u.WalletAddress, &u.LinkedAccounts, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

const getUserByChatID = `
SELECT u.id, u.privy_id, u.email, u.wallet_address, u.linked_accounts, u.created_at, u.updated_at
FROM users u
JOIN chats c ON c.user_id = u.id
WHERE c.id = ?
`

func (q *Queries) GetUserByChatID(ctx context.Context, chatID string) (*User, error) {
	row := q.db.QueryRowContext(ctx, getUserByChatID, chatID)
	var u User
	err := row.Scan(&u.ID, &u.PrivyID, &u.Email, &u.WalletAddress, &u.LinkedAccounts, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
