package store

import (
	"context"

	"github.com/mvidal/replydraft/internal/model"
)

// TokenStore owns the single OAuth token record for the mail provider.
// Replace has replace-all semantics: re-authorization discards any prior
// token row.
type TokenStore interface {
	LoadToken(ctx context.Context) (*model.Token, error)
	ReplaceToken(ctx context.Context, t model.Token) error
	UpdateAccountID(ctx context.Context, accountID string) error
}

// ProcessedStore is the append-only set of message ids for which a draft
// has already been created.
type ProcessedStore interface {
	IsProcessed(ctx context.Context, messageID string) (bool, error)
	MarkProcessed(ctx context.Context, messageID string) error
}

// Store combines the persistence interfaces backed by one database.
type Store interface {
	TokenStore
	ProcessedStore
	Close() error
}
