package repository

import (
	"context"

	"github.com/praveen-kumars/pillremander-sub001/internal/domain/entity"
)

// ProfileRepository is the embedded store for the singleton profile row.
type ProfileRepository interface {
	// Init ensures the schema exists. Idempotent and safe to call again
	// after a failure.
	Init(ctx context.Context) error
	// Save upserts the singleton row. Implementations must serialize
	// concurrent callers so the table never holds more than one row.
	Save(ctx context.Context, info *entity.PersonalInfo) error
	// Get returns the row, or nil without error when none exists.
	Get(ctx context.Context) (*entity.PersonalInfo, error)
	// Update overwrites the existing row, repairing by lowest id if
	// duplicates ever exist.
	Update(ctx context.Context, info *entity.PersonalInfo) error
	// Delete removes the row. No-op when absent.
	Delete(ctx context.Context) error
}

// PreferenceRepository stores generic app settings keyed by name.
type PreferenceRepository interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, bool, error)
	Delete(ctx context.Context, key string) error
}
