package ai

import (
	"context"

	"github.com/Next-Gen-Coders/limitless-server/pkg/db"
)

// ChatUserSource resolves the owner of a chat. *db.Queries satisfies it.
type ChatUserSource interface {
	GetUserByChatID(ctx context.Context, chatID string) (*db.User, error)
}

// StoreUserResolver resolves the prompt user context from the store.
type StoreUserResolver struct {
	store ChatUserSource
}

// NewStoreUserResolver creates a resolver over the given store.
func NewStoreUserResolver(store ChatUserSource) *StoreUserResolver {
	return &StoreUserResolver{store: store}
}

func (r *StoreUserResolver) ResolveUser(ctx context.Context, chatID string) (*UserContext, error) {
	user, err := r.store.GetUserByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	return &UserContext{
		ID:            user.ID,
		WalletAddress: user.WalletAddress.String,
		Email:         user.Email.String,
	}, nil
}
