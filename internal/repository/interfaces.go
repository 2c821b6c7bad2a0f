package repository

import (
	"context"
	"time"

	"userhub/internal/model"
)

// UserRepository is the authoritative store for user records. All
// writes are atomic with respect to the nickname uniqueness
// invariant: the store's unique constraint decides races, not
// application code.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByNickname(ctx context.Context, nickname string) (*model.User, error)
	GetAll(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, user *model.User) error
	Delete(ctx context.Context, nickname string) error
	ExistsByNickname(ctx context.Context, nickname string) (bool, error)
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *model.RefreshToken) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error)
	Revoke(ctx context.Context, id string, replacedBy *string) error
	RevokeAllForUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) (int64, error)
}

// AuditRepository persists operation-outcome records consumed from the
// identity event stream. The log is append-only.
type AuditRepository interface {
	Create(ctx context.Context, entry *model.AuditEntry) error
}
