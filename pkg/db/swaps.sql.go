package db

import (
	"context"
	"database/sql"
)

const swapTransactionColumns = `id, user_id, chat_id, message_id, src_chain_id, dst_chain_id,
src_token_address, dst_token_address, amount, wallet_address, status, order_hash,
quote, secrets, secret_hashes, error_details, created_at, updated_at`

const createSwapTransaction = `
INSERT INTO swap_transactions (id, user_id, chat_id, message_id, src_chain_id, dst_chain_id,
    src_token_address, dst_token_address, amount, wallet_address, status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
RETURNING ` + swapTransactionColumns

type CreateSwapTransactionParams struct {
	ID              string
	UserID          string
	ChatID          sql.NullString
	MessageID       sql.NullString
	SrcChainID      int64
	DstChainID      int64
	SrcTokenAddress string
	DstTokenAddress string
	Amount          string
	WalletAddress   string
	Status          string
}

func (q *Queries) CreateSwapTransaction(ctx context.Context, arg CreateSwapTransactionParams) (*SwapTransaction, error) {
	row := q.db.QueryRowContext(ctx, createSwapTransaction,
		arg.ID,
		arg.UserID,
		arg.ChatID,
		arg.MessageID,
		arg.SrcChainID,
		arg.DstChainID,
		arg.SrcTokenAddress,
		arg.DstTokenAddress,
		arg.Amount,
		arg.WalletAddress,
		arg.Status,
	)
	return scanSwapTransaction(row)
}

const getSwapTransaction = `
SELECT ` + swapTransactionColumns + `
FROM swap_transactions WHERE id = ?
`

func (q *Queries) GetSwapTransaction(ctx context.Context, id string) (*SwapTransaction, error) {
	return scanSwapTransaction(q.db.QueryRowContext(ctx, getSwapTransaction, id))
}

const getSwapTransactionByOrderHash = `
SELECT ` + swapTransactionColumns + `
FROM swap_transactions WHERE order_hash = ?
`

func (q *Queries) GetSwapTransactionByOrderHash(ctx context.Context, orderHash string) (*SwapTransaction, error) {
	return scanSwapTransaction(q.db.QueryRowContext(ctx, getSwapTransactionByOrderHash, orderHash))
}

const listSwapTransactionsByUser = `
SELECT ` + swapTransactionColumns + `
FROM swap_transactions WHERE user_id = ?
ORDER BY created_at DESC
LIMIT ? OFFSET ?
`

func (q *Queries) ListSwapTransactionsByUser(ctx context.Context, userID string, limit, offset int64) ([]*SwapTransaction, error) {
	rows, err := q.db.QueryContext(ctx, listSwapTransactionsByUser, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var swaps []*SwapTransaction
	for rows.Next() {
		s, err := scanSwapTransactionRows(rows)
		if err != nil {
			return nil, err
		}
		swaps = append(swaps, s)
	}
	return swaps, rows.Err()
}

const updateSwapTransactionStatus = `
UPDATE swap_transactions SET status = ?, error_details = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

func (q *Queries) UpdateSwapTransactionStatus(ctx context.Context, id, status string, errorDetails sql.NullString) error {
	_, err := q.db.ExecContext(ctx, updateSwapTransactionStatus, status, errorDetails, id)
	return err
}

const updateSwapTransactionOrder = `
UPDATE swap_transactions SET status = ?, order_hash = ?, quote = ?, secrets = ?, secret_hashes = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

type UpdateSwapTransactionOrderParams struct {
	ID           string
	Status       string
	OrderHash    sql.NullString
	Quote        sql.NullString
	Secrets      sql.NullString
	SecretHashes sql.NullString
}

func (q *Queries) UpdateSwapTransactionOrder(ctx context.Context, arg UpdateSwapTransactionOrderParams) error {
	_, err := q.db.ExecContext(ctx, updateSwapTransactionOrder,
		arg.Status,
		arg.OrderHash,
		arg.Quote,
		arg.Secrets,
		arg.SecretHashes,
		arg.ID,
	)
	return err
}

func scanSwapTransaction(row *sql.Row) (*SwapTransaction, error) {
	var s SwapTransaction
	err := row.Scan(&s.ID, &s.UserID, &s.ChatID, &s.MessageID, &s.SrcChainID, &s.DstChainID,
		&s.SrcTokenAddress, &s.DstTokenAddress, &s.Amount, &s.WalletAddress, &s.Status, &s.OrderHash,
		&s.Quote, &s.Secrets, &s.SecretHashes, &s.ErrorDetails, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanSwapTransactionRows(rows *sql.Rows) (*SwapTransaction, error) {
	var s SwapTransaction
	err := rows.Scan(&s.ID, &s.UserID, &s.ChatID, &s.MessageID, &s.SrcChainID, &s.DstChainID,
		&s.SrcTokenAddress, &s.DstTokenAddress, &s.Amount, &s.WalletAddress, &s.Status, &s.OrderHash,
		&s.Quote, &s.Secrets, &s.SecretHashes, &s.ErrorDetails, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
