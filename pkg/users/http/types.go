package http

import (
	"encoding/json"
	"time"

	"github.com/Next-Gen-Coders/limitless-server/pkg/db"
)

// UserResponse is the JSON shape of a user.
type UserResponse struct {
	ID             string          `json:"id"`
	PrivyID        string          `json:"privyId"`
	Email          *string         `json:"email,omitempty"`
	WalletAddress  *string         `json:"walletAddress,omitempty"`
	LinkedAccounts json.RawMessage `json:"linkedAccounts,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// DelegationResponse is the JSON shape of a stored delegation.
type DelegationResponse struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	ChainID         int64     `json:"chainId"`
	Delegator       string    `json:"delegator"`
	Delegatee       string    `json:"delegatee"`
	Nonce           string    `json:"nonce"`
	Authority       *string   `json:"authority,omitempty"`
	Signature       string    `json:"signature"`
	Status          string    `json:"status"`
	TransactionHash *string   `json:"transactionHash,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// SyncResponse is returned by POST /sync.
type SyncResponse struct {
	User        UserResponse         `json:"user"`
	Delegations []DelegationResponse `json:"delegations"`
}

// StoreDelegationRequest is the payload for POST /delegations.
type StoreDelegationRequest struct {
	ChainID         int64  `json:"chainId" validate:"required,gt=0"`
	Delegator       string `json:"delegator" validate:"required,eth_addr"`
	Delegatee       string `json:"delegatee" validate:"required,eth_addr"`
	Nonce           string `json:"nonce" validate:"required"`
	Authority       string `json:"authority,omitempty"`
	Signature       string `json:"signature" validate:"required"`
	TransactionHash string `json:"transactionHash,omitempty"`
}

func toUserResponse(u *db.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		PrivyID:   u.PrivyID,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if u.Email.Valid {
		resp.Email = &u.Email.String
	}
	if u.WalletAddress.Valid {
		resp.WalletAddress = &u.WalletAddress.String
	}
	if u.LinkedAccounts.Valid {
		resp.LinkedAccounts = json.RawMessage(u.LinkedAccounts.String)
	}
	return resp
}

func toDelegationResponse(d *db.Delegation) DelegationResponse {
	resp := DelegationResponse{
		ID:        d.ID,
		UserID:    d.UserID,
		ChainID:   d.ChainID,
		Delegator: d.Delegator,
		Delegatee: d.Delegatee,
		Nonce:     d.Nonce,
		Signature: d.Signature,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
	}
	if d.Authority.Valid {
		resp.Authority = &d.Authority.String
	}
	if d.TransactionHash.Valid {
		resp.TransactionHash = &d.TransactionHash.String
	}
	return resp
}

func toDelegationResponses(delegations []*db.Delegation) []DelegationResponse {
	out := make([]DelegationResponse, 0, len(delegations))
	for _, d := range delegations {
		out = append(out, toDelegationResponse(d))
	}
	return out
}
