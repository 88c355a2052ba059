package repository

import (
	"context"

	"github.com/uniscout/identity-engine/internal/domain/entity"
)

// UserRepository defines credential storage for the identity service.
// Lookups return (nil, nil) when no row matches.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
}

// ProfileRepository defines profile-record storage for the identity service.
// GetByID returns (nil, nil) when no record exists, matching the wire
// contract the sync engine relies on.
type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*entity.ProfileRecord, error)
	Upsert(ctx context.Context, rec *entity.ProfileRecord) error
	// UpdateFields applies a partial update; keys are remote field names
	// already filtered against the updatable-column allowlist.
	UpdateFields(ctx context.Context, id string, fields map[string]any) error
}
