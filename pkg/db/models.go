package db

import (
	"database/sql"
	"time"
)

type User struct {
	ID             string
	PrivyID        string
	Email          sql.NullString
	WalletAddress  sql.NullString
	LinkedAccounts sql.NullString
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type Chat struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Message struct {
	ID        string
	ChatID    string
	UserID    string
	Role      string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Delegation struct {
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
	CreatedAt       time.Time
}

type SwapTransaction struct {
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
	OrderHash       sql.NullString
	Quote           sql.NullString
	Secrets         sql.NullString
	SecretHashes    sql.NullString
	ErrorDetails    sql.NullString
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
