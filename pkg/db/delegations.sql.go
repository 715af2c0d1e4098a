package db

import (
	"context"
	"database/sql"
)

const createDelegation = `
INSERT INTO delegations (id, user_id, chain_id, delegator, delegatee, nonce, authority, signature, status, transaction_hash)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING id, user_id, chain_id, delegator, delegatee, nonce, authority, signature, status, transaction_hash, created_at
`

type CreateDelegationParams struct {
	ID              string
	UserID          string
	ChainID         int64
	Delegator       string
	Delegatee       string
	Nonce           string
	Authority       sql.NullString
	Signature       string
	Status          string
	TransactionHash sql.NullString
}

func (q *Queries) CreateDelegation(ctx context.Context, arg CreateDelegationParams) (*Delegation, error) {
	row := q.db.QueryRowContext(ctx, createDelegation,
		arg.ID,
		arg.UserID,
		arg.ChainID,
		arg.Delegator,
		arg.Delegatee,
		arg.Nonce,
		arg.Authority,
		arg.Signature,
		arg.Status,
		arg.TransactionHash,
	)
	var d Delegation
	err := row.Scan(&d.ID, &d.UserID, &d.ChainID, &d.Delegator, &d.Delegatee, &d.Nonce,
		&d.Authority, &d.Signature, &d.Status, &d.TransactionHash, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

const listDelegationsByUser = `
SELECT id, user_id, chain_id, delegator, delegatee, nonce, authority, signature, status, transaction_hash, created_at
FROM delegations WHERE user_id = ?
ORDER BY created_at DESC
`

func (q *Queries) ListDelegationsByUser(ctx context.Context, userID string) ([]*Delegation, error) {
	rows, err := q.db.QueryContext(ctx, listDelegationsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDelegations(rows)
}

const listDelegationsByDelegator = `
SELECT id, user_id, chain_id, delegator, delegatee, nonce, authority, signature, status, transaction_hash, created_at
FROM delegations
WHERE delegator = ? AND (? = 0 OR chain_id = ?)
ORDER BY created_at DESC
`

// ListDelegationsByDelegator filters by delegator address; chainID 0 means all
// chains.
func (q *Queries) ListDelegationsByDelegator(ctx context.Context, delegator string, chainID int64) ([]*Delegation, error) {
	rows, err := q.db.QueryContext(ctx, listDelegationsByDelegator, delegator, chainID, chainID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDelegations(rows)
}

func scanDelegations(rows *sql.Rows) ([]*Delegation, error) {
	var delegations []*Delegation
	for rows.Next() {
		var d Delegation
		if err := rows.Scan(&d.ID, &d.UserID, &d.ChainID, &d.Delegator, &d.Delegatee, &d.Nonce,
			&d.Authority, &d.Signature, &d.Status, &d.TransactionHash, &d.CreatedAt); err != nil {
			return nil, err
		}
		delegations = append(delegations, &d)
	}
	return delegations, rows.Err()
}
