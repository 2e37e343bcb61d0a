package repository

import (
	"context"

	"github.com/praveen-kumars/pillremander-sub001/internal/domain/entity"
)

// CacheRepository is the fast-path key/value tier. Entries have no TTL and
// stay valid until explicitly invalidated.
type CacheRepository interface {
	GetSession(ctx context.Context) (*entity.Session, error)
	SetSession(ctx context.Context, session *entity.Session) error
	DeleteSession(ctx context.Context) error

	// GetOnboardingStatus returns (value, found, error).
	GetOnboardingStatus(ctx context.Context, accountID string) (bool, bool, error)
	SetOnboardingStatus(ctx context.Context, accountID string, completed bool) error

	// GetOnboardingData returns the serialized onboarding payload.
	GetOnboardingData(ctx context.Context, accountID string) (string, bool, error)
	SetOnboardingData(ctx context.Context, accountID string, payload string) error

	// ClearAccount removes every cached key scoped to the account, plus the
	// session entry.
	ClearAccount(ctx context.Context, accountID string) error
}
