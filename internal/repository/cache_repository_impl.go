package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/praveen-kumars/pillremander-sub001/internal/domain/entity"
	domainRepo "github.com/praveen-kumars/pillremander-sub001/internal/domain/repository"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	// Cache key layout. Onboarding keys are namespaced by account id so a
	// different sign-in never reads another account's flag.
	SessionKey              = "session"
	OnboardingStatusPrefix  = "onboarding_status_"
	OnboardingDataPrefix    = "onboarding_data_"
	accountScopedKeyPattern = "onboarding_*_%s"
)

type cacheRepository struct {
	client *redis.Client
	log    *logrus.Logger
}

func NewCacheRepository(client *redis.Client, log *logrus.Logger) domainRepo.CacheRepository {
	return &cacheRepository{client: client, log: log}
}

func (r *cacheRepository) GetSession(ctx context.Context) (*entity.Session, error) {
	raw, err := r.client.Get(ctx, SessionKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cached session: %w", err)
	}

	var session entity.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		// A corrupt entry is treated as a miss, not a failure.
		r.log.Warnf("Dropping malformed cached session: %+v", err)
		r.client.Del(ctx, SessionKey)
		return nil, nil
	}
	return &session, nil
}

func (r *cacheRepository) SetSession(ctx context.Context, session *entity.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	// No TTL: the entry stays until sign-out or account change.
	if err := r.client.Set(ctx, SessionKey, raw, 0).Err(); err != nil {
		return fmt.Errorf("cache session: %w", err)
	}
	return nil
}

func (r *cacheRepository) DeleteSession(ctx context.Context) error {
	if err := r.client.Del(ctx, SessionKey).Err(); err != nil {
		return fmt.Errorf("delete cached session: %w", err)
	}
	return nil
}

func (r *cacheRepository) GetOnboardingStatus(ctx context.Context, accountID string) (bool, bool, error) {
	raw, err := r.client.Get(ctx, OnboardingStatusPrefix+accountID).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("get onboarding status: %w", err)
	}

	completed, err := strconv.ParseBool(raw)
	if err != nil {
		r.log.Warnf("Dropping malformed onboarding status for %s: %+v", accountID, err)
		r.client.Del(ctx, OnboardingStatusPrefix+accountID)
		return false, false, nil
	}
	return completed, true, nil
}

func (r *cacheRepository) SetOnboardingStatus(ctx context.Context, accountID string, completed bool) error {
	key := OnboardingStatusPrefix + accountID
	if err := r.client.Set(ctx, key, strconv.FormatBool(completed), 0).Err(); err != nil {
		return fmt.Errorf("cache onboarding status: %w", err)
	}
	return nil
}

func (r *cacheRepository) GetOnboardingData(ctx context.Context, accountID string) (string, bool, error) {
	raw, err := r.client.Get(ctx, OnboardingDataPrefix+accountID).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get onboarding data: %w", err)
	}
	return raw, true, nil
}

func (r *cacheRepository) SetOnboardingData(ctx context.Context, accountID string, payload string) error {
	if err := r.client.Set(ctx, OnboardingDataPrefix+accountID, payload, 0).Err(); err != nil {
		return fmt.Errorf("cache onboarding data: %w", err)
	}
	return nil
}

func (r *cacheRepository) ClearAccount(ctx context.Context, accountID string) error {
	pattern := fmt.Sprintf(accountScopedKeyPattern, accountID)
	keys, err := r.client.Keys(ctx, pattern).Result()
	if err != nil {
		return fmt.Errorf("list account keys: %w", err)
	}

	keys = append(keys, SessionKey)
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("delete account keys: %w", err)
	}

	r.log.Debugf("Cleared %d cache keys for account %s", len(keys), accountID)
	return nil
}
