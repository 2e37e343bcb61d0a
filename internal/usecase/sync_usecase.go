package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/praveen-kumars/pillremander-sub001/internal/converter"
	"github.com/praveen-kumars/pillremander-sub001/internal/domain/entity"
	"github.com/praveen-kumars/pillremander-sub001/internal/domain/repository"
	"github.com/praveen-kumars/pillremander-sub001/internal/remote"
	"github.com/praveen-kumars/pillremander-sub001/pkg/validator"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

var (
	ErrNotSignedIn     = errors.New("no signed-in account")
	ErrProfileNotFound = errors.New("no profile record exists")
)

// ValidationError carries one message per failed field. It is a normal
// outcome, never fatal.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// Write tiers, in write order.
const (
	TierStore  = "store"
	TierRemote = "remote"
	TierCache  = "cache"
)

// TierResult records the outcome of one tier of a multi-tier write.
type TierResult struct {
	Tier string
	Err  error
}

// SaveResult reports a profile write per tier rather than as one boolean.
// The local store succeeding is a precondition, so a SaveResult always
// means the durable local write went through.
type SaveResult struct {
	Profile *entity.PersonalInfo
	Tiers   []TierResult
}

// RemoteSynced reports whether the authoritative tier accepted the write.
func (r *SaveResult) RemoteSynced() bool {
	for _, t := range r.Tiers {
		if t.Tier == TierRemote {
			return t.Err == nil
		}
	}
	return false
}

// FailedTiers names the tiers that failed.
func (r *SaveResult) FailedTiers() []string {
	var failed []string
	for _, t := range r.Tiers {
		if t.Err != nil {
			failed = append(failed, t.Tier)
		}
	}
	return failed
}

// RemoteService is the authoritative backend surface the coordinator needs.
type RemoteService interface {
	SignUp(ctx context.Context, email, password string) (*entity.Session, error)
	SignIn(ctx context.Context, email, password string) (*entity.Session, error)
	SignOut(ctx context.Context) error
	GetSession(ctx context.Context) (*entity.Session, error)
	GetProfile(ctx context.Context, accountID string) (*remote.ProfileRow, error)
	UpdateProfile(ctx context.Context, accountID string, row remote.ProfileRow) error
	GetOnboardingFlag(ctx context.Context, accountID string) (bool, error)
	SetOnboardingComplete(ctx context.Context, accountID string, update remote.OnboardingUpdate) error
	DeleteAccount(ctx context.Context, accountID string) (*remote.DeleteAccountResult, error)
}

// SyncUsecase coordinates the three tiers. All callers go through it; the
// tier ordering below is the contract, not incidental code order.
//
// Writes: validate, then store (durable local truth), then remote
// (authoritative), then cache (fast-path mirror).
// Reads: cache, then remote, then store.
type SyncUsecase interface {
	Init(ctx context.Context) error

	SignUp(ctx context.Context, email, password string) (*entity.Session, error)
	SignIn(ctx context.Context, email, password string) (*entity.Session, error)
	SignOut(ctx context.Context) error
	GetSession(ctx context.Context) (*entity.Session, error)

	SaveProfile(ctx context.Context, info *entity.PersonalInfo) (*SaveResult, error)
	GetProfile(ctx context.Context) (*entity.PersonalInfo, error)
	DeleteAccount(ctx context.Context) (*remote.DeleteAccountResult, error)

	ResolveOnboarding(ctx context.Context) (entity.OnboardingState, error)
	CompleteOnboarding(ctx context.Context, info *entity.PersonalInfo) (*SaveResult, error)
	OnboardingState() entity.OnboardingState

	SetPreference(ctx context.Context, key, value string) error
	GetPreference(ctx context.Context, key string) (string, bool, error)
}

type syncUsecase struct {
	log         *logrus.Logger
	profileRepo repository.ProfileRepository
	prefRepo    repository.PreferenceRepository
	cacheRepo   repository.CacheRepository
	remoteSvc   RemoteService

	// Onboarding state machine. Terminal once resolved; re-enters UNKNOWN
	// only when the signed-in account changes.
	stateMu      sync.Mutex
	state        entity.OnboardingState
	stateAccount string
	checkGroup   singleflight.Group
}

func NewSyncUsecase(
	log *logrus.Logger,
	profileRepo repository.ProfileRepository,
	prefRepo repository.PreferenceRepository,
	cacheRepo repository.CacheRepository,
	remoteSvc RemoteService,
) SyncUsecase {
	return &syncUsecase{
		log:         log,
		profileRepo: profileRepo,
		prefRepo:    prefRepo,
		cacheRepo:   cacheRepo,
		remoteSvc:   remoteSvc,
		state:       entity.OnboardingUnknown,
	}
}

func (u *syncUsecase) Init(ctx context.Context) error {
	return u.profileRepo.Init(ctx)
}

func (u *syncUsecase) SignUp(ctx context.Context, email, password string) (*entity.Session, error) {
	if !validator.ValidateEmail(email) {
		return nil, &ValidationError{Messages: []string{"email must be a valid email address"}}
	}

	session, err := u.remoteSvc.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}
	u.resetStateForAccount(session.AccountID)
	return session, nil
}

func (u *syncUsecase) SignIn(ctx context.Context, email, password string) (*entity.Session, error) {
	session, err := u.remoteSvc.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	u.resetStateForAccount(session.AccountID)
	return session, nil
}

func (u *syncUsecase) SignOut(ctx context.Context) error {
	err := u.remoteSvc.SignOut(ctx)
	u.resetStateForAccount("")
	return err
}

func (u *syncUsecase) GetSession(ctx context.Context) (*entity.Session, error) {
	session, err := u.remoteSvc.GetSession(ctx)
	if err != nil {
		if errors.Is(err, remote.ErrNoSession) {
			return nil, ErrNotSignedIn
		}
		return nil, err
	}
	return session, nil
}

// SaveProfile validates, then writes store-first. A store failure aborts;
// remote and cache failures degrade and are reported per tier.
func (u *syncUsecase) SaveProfile(ctx context.Context, info *entity.PersonalInfo) (*SaveResult, error) {
	if err := u.validateProfile(info); err != nil {
		return nil, err
	}

	session := u.currentSession(ctx)
	if session != nil {
		info.AccountID = session.AccountID
	}

	if err := u.profileRepo.Save(ctx, info); err != nil {
		u.log.Warnf("Failed to save profile locally: %+v", err)
		return nil, err
	}

	result := &SaveResult{
		Profile: info,
		Tiers:   []TierResult{{Tier: TierStore}},
	}

	if session == nil {
		result.Tiers = append(result.Tiers,
			TierResult{Tier: TierRemote, Err: ErrNotSignedIn},
			TierResult{Tier: TierCache, Err: ErrNotSignedIn},
		)
		return result, nil
	}

	remoteErr := u.remoteSvc.UpdateProfile(ctx, session.AccountID, converter.PersonalInfoToRemoteRow(info))
	if remoteErr != nil {
		u.log.Warnf("Remote profile update failed, local copy retained: %+v", remoteErr)
	}
	result.Tiers = append(result.Tiers, TierResult{Tier: TierRemote, Err: remoteErr})

	cacheErr := u.mirrorProfile(ctx, session.AccountID, info)
	if cacheErr != nil {
		u.log.Warnf("Failed to mirror profile into cache: %+v", cacheErr)
	}
	result.Tiers = append(result.Tiers, TierResult{Tier: TierCache, Err: cacheErr})

	return result, nil
}

// GetProfile walks the fallback chain: cache, then remote, then store.
// Each source declares where its answer is written through on success.
func (u *syncUsecase) GetProfile(ctx context.Context) (*entity.PersonalInfo, error) {
	session := u.currentSession(ctx)

	type profileSource struct {
		name string
		load func(context.Context) (*entity.PersonalInfo, error)
		// mirror writes the answer through to faster or more durable
		// tiers. Best-effort.
		mirror func(context.Context, *entity.PersonalInfo)
	}

	chain := []profileSource{
		{
			name: TierCache,
			load: func(ctx context.Context) (*entity.PersonalInfo, error) {
				if session == nil {
					return nil, ErrNotSignedIn
				}
				return u.cachedProfile(ctx, session.AccountID)
			},
			mirror: nil,
		},
		{
			name: TierRemote,
			load: func(ctx context.Context) (*entity.PersonalInfo, error) {
				if session == nil {
					return nil, ErrNotSignedIn
				}
				row, err := u.remoteSvc.GetProfile(ctx, session.AccountID)
				if err != nil {
					return nil, err
				}
				return converter.RemoteRowToPersonalInfo(row), nil
			},
			mirror: func(ctx context.Context, info *entity.PersonalInfo) {
				if err := u.mirrorProfile(ctx, session.AccountID, info); err != nil {
					u.log.Warnf("Failed to mirror remote profile into cache: %+v", err)
				}
			},
		},
		{
			name: TierStore,
			load: func(ctx context.Context) (*entity.PersonalInfo, error) {
				info, err := u.profileRepo.Get(ctx)
				if err != nil {
					return nil, err
				}
				if info == nil {
					return nil, ErrProfileNotFound
				}
				return info, nil
			},
			mirror: func(ctx context.Context, info *entity.PersonalInfo) {
				if session == nil {
					return
				}
				if err := u.mirrorProfile(ctx, session.AccountID, info); err != nil {
					u.log.Warnf("Failed to mirror stored profile into cache: %+v", err)
				}
			},
		},
	}

	var lastErr error
	for _, source := range chain {
		info, err := source.load(ctx)
		if err != nil {
			u.log.Debugf("Profile source %s unavailable: %v", source.name, err)
			lastErr = err
			continue
		}
		if source.mirror != nil {
			source.mirror(ctx, info)
		}
		return info, nil
	}

	if errors.Is(lastErr, ErrProfileNotFound) {
		return nil, ErrProfileNotFound
	}
	return nil, lastErr
}

// DeleteAccount removes the account across all tiers. The remote sub-steps
// are reported individually; the local row is removed afterwards and its
// outcome appended as one more step.
func (u *syncUsecase) DeleteAccount(ctx context.Context) (*remote.DeleteAccountResult, error) {
	session := u.currentSession(ctx)
	if session == nil {
		return nil, ErrNotSignedIn
	}

	result, remoteErr := u.remoteSvc.DeleteAccount(ctx, session.AccountID)
	if result == nil {
		result = &remote.DeleteAccountResult{}
	}

	localErr := u.profileRepo.Delete(ctx)
	if localErr != nil {
		u.log.Warnf("Failed to delete local profile row: %+v", localErr)
	}
	result.Steps = append(result.Steps, remote.StepResult{Name: "delete_local_profile", Err: localErr})

	u.resetStateForAccount("")
	return result, remoteErr
}

// ResolveOnboarding runs the UNKNOWN -> CHECKING -> {NEEDED, COMPLETED}
// machine. Inability to confirm completion resolves NEEDED, never
// COMPLETED. At most one check runs per identity at a time.
func (u *syncUsecase) ResolveOnboarding(ctx context.Context) (entity.OnboardingState, error) {
	session := u.currentSession(ctx)
	if session == nil {
		return entity.OnboardingUnknown, ErrNotSignedIn
	}

	u.stateMu.Lock()
	if u.stateAccount == session.AccountID &&
		(u.state == entity.OnboardingNeeded || u.state == entity.OnboardingCompleted) {
		state := u.state
		u.stateMu.Unlock()
		return state, nil
	}
	u.state = entity.OnboardingChecking
	u.stateAccount = session.AccountID
	u.stateMu.Unlock()

	resolved, err, _ := u.checkGroup.Do(session.AccountID, func() (interface{}, error) {
		return u.checkOnboarding(ctx, session.AccountID), nil
	})
	if err != nil {
		return entity.OnboardingUnknown, err
	}

	state := resolved.(entity.OnboardingState)
	u.stateMu.Lock()
	if u.stateAccount == session.AccountID {
		u.state = state
	}
	u.stateMu.Unlock()
	return state, nil
}

func (u *syncUsecase) checkOnboarding(ctx context.Context, accountID string) entity.OnboardingState {
	completed, found, err := u.cacheRepo.GetOnboardingStatus(ctx, accountID)
	if err != nil {
		u.log.Warnf("Onboarding cache read failed: %+v", err)
	}
	if found && completed {
		return entity.OnboardingCompleted
	}

	flag, err := u.remoteSvc.GetOnboardingFlag(ctx, accountID)
	if err != nil {
		// Fail-safe: an unconfirmed completion is treated as not completed.
		u.log.Warnf("Onboarding remote check failed, defaulting to needed: %+v", err)
		return entity.OnboardingNeeded
	}
	if !flag {
		return entity.OnboardingNeeded
	}

	if err := u.cacheRepo.SetOnboardingStatus(ctx, accountID, true); err != nil {
		u.log.Warnf("Failed to cache onboarding status: %+v", err)
	}
	return entity.OnboardingCompleted
}

// CompleteOnboarding persists the submitted profile and records completion
// on the authoritative account record. A remote failure keeps the local
// profile but leaves the machine on NEEDED until the flag write succeeds.
func (u *syncUsecase) CompleteOnboarding(ctx context.Context, info *entity.PersonalInfo) (*SaveResult, error) {
	if err := u.validateProfile(info); err != nil {
		return nil, err
	}

	session := u.currentSession(ctx)
	if session == nil {
		return nil, ErrNotSignedIn
	}
	info.AccountID = session.AccountID

	if err := u.profileRepo.Save(ctx, info); err != nil {
		u.log.Warnf("Failed to save onboarding profile locally: %+v", err)
		return nil, err
	}

	result := &SaveResult{
		Profile: info,
		Tiers:   []TierResult{{Tier: TierStore}},
	}

	remoteErr := u.remoteSvc.SetOnboardingComplete(ctx, session.AccountID, converter.PersonalInfoToOnboardingUpdate(info))
	result.Tiers = append(result.Tiers, TierResult{Tier: TierRemote, Err: remoteErr})

	u.stateMu.Lock()
	u.stateAccount = session.AccountID
	if remoteErr == nil {
		u.state = entity.OnboardingCompleted
	} else {
		u.state = entity.OnboardingNeeded
	}
	u.stateMu.Unlock()

	if remoteErr != nil {
		u.log.Warnf("Onboarding completion not confirmed remotely: %+v", remoteErr)
		// Cache flag untouched: the next check must still report NEEDED.
		result.Tiers = append(result.Tiers, TierResult{Tier: TierCache, Err: remoteErr})
		return result, nil
	}

	// The completion flag was write-through cached by the remote service;
	// the profile payload is mirrored here so cache reads see the same
	// shape every other write produces.
	cacheErr := u.mirrorProfile(ctx, session.AccountID, info)
	if cacheErr != nil {
		u.log.Warnf("Failed to mirror onboarding profile into cache: %+v", cacheErr)
	}
	result.Tiers = append(result.Tiers, TierResult{Tier: TierCache, Err: cacheErr})
	return result, nil
}

func (u *syncUsecase) OnboardingState() entity.OnboardingState {
	u.stateMu.Lock()
	defer u.stateMu.Unlock()
	return u.state
}

func (u *syncUsecase) SetPreference(ctx context.Context, key, value string) error {
	return u.prefRepo.Set(ctx, key, value)
}

func (u *syncUsecase) GetPreference(ctx context.Context, key string) (string, bool, error) {
	return u.prefRepo.Get(ctx, key)
}

func (u *syncUsecase) validateProfile(info *entity.PersonalInfo) error {
	result := validator.ValidateProfile(validator.ProfileFields{
		Email:                 info.Email,
		Phone:                 info.Phone,
		DateOfBirth:           info.DateOfBirth,
		Weight:                info.Weight,
		Height:                info.Height,
		EmergencyContactPhone: info.EmergencyContactPhone,
		EmergencyContactEmail: info.EmergencyContactEmail,
		DoctorPhone:           info.DoctorPhone,
	})
	if !result.Valid {
		return &ValidationError{Messages: result.Errors}
	}
	return nil
}

// currentSession resolves the signed-in identity, or nil when there is
// none. Session lookup failures degrade to local-only operation.
func (u *syncUsecase) currentSession(ctx context.Context) *entity.Session {
	session, err := u.remoteSvc.GetSession(ctx)
	if err != nil {
		if !errors.Is(err, remote.ErrNoSession) {
			u.log.Debugf("Session lookup failed: %v", err)
		}
		return nil
	}
	return session
}

func (u *syncUsecase) cachedProfile(ctx context.Context, accountID string) (*entity.PersonalInfo, error) {
	raw, found, err := u.cacheRepo.GetOnboardingData(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrProfileNotFound
	}

	var info entity.PersonalInfo
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (u *syncUsecase) mirrorProfile(ctx context.Context, accountID string, info *entity.PersonalInfo) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return u.cacheRepo.SetOnboardingData(ctx, accountID, string(raw))
}

func (u *syncUsecase) resetStateForAccount(accountID string) {
	u.stateMu.Lock()
	defer u.stateMu.Unlock()
	if u.stateAccount != accountID {
		u.state = entity.OnboardingUnknown
		u.stateAccount = accountID
	}
}
