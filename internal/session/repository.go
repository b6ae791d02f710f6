package session

import (
	"context"

	"github.com/google/uuid"

	"healthgate/internal/upstream"
)

// Repository defines the interface for session persistence.
type Repository interface {
	Create(ctx context.Context, rec Record, tokenHash string) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*Record, error)
	ReplaceUser(ctx context.Context, id uuid.UUID, user upstream.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context) (int64, error)
}
