package usecase_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/praveen-kumars/pillremander-sub001/config"
	"github.com/praveen-kumars/pillremander-sub001/internal/domain/entity"
	"github.com/praveen-kumars/pillremander-sub001/internal/remote"
	"github.com/praveen-kumars/pillremander-sub001/internal/remote/remotetest"
	"github.com/praveen-kumars/pillremander-sub001/internal/usecase"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileRepoMock struct {
	InitFunc   func(ctx context.Context) error
	SaveFunc   func(ctx context.Context, info *entity.PersonalInfo) error
	GetFunc    func(ctx context.Context) (*entity.PersonalInfo, error)
	UpdateFunc func(ctx context.Context, info *entity.PersonalInfo) error
	DeleteFunc func(ctx context.Context) error
}

func (m *profileRepoMock) Init(ctx context.Context) error {
	if m.InitFunc != nil {
		return m.InitFunc(ctx)
	}
	return nil
}

func (m *profileRepoMock) Save(ctx context.Context, info *entity.PersonalInfo) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, info)
	}
	return nil
}

func (m *profileRepoMock) Get(ctx context.Context) (*entity.PersonalInfo, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx)
	}
	return nil, nil
}

func (m *profileRepoMock) Update(ctx context.Context, info *entity.PersonalInfo) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, info)
	}
	return nil
}

func (m *profileRepoMock) Delete(ctx context.Context) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx)
	}
	return nil
}

type prefRepoMock struct {
	values map[string]string
}

func (m *prefRepoMock) Set(_ context.Context, key, value string) error {
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

func (m *prefRepoMock) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *prefRepoMock) Delete(_ context.Context, key string) error {
	delete(m.values, key)
	return nil
}

type cacheRepoMock struct {
	GetOnboardingStatusFunc func(ctx context.Context, accountID string) (bool, bool, error)
	GetOnboardingDataFunc   func(ctx context.Context, accountID string) (string, bool, error)

	session      *entity.Session
	statusWrites map[string]bool
	dataWrites   map[string]string
}

func (m *cacheRepoMock) GetSession(context.Context) (*entity.Session, error) { return m.session, nil }

func (m *cacheRepoMock) SetSession(_ context.Context, session *entity.Session) error {
	m.session = session
	return nil
}

func (m *cacheRepoMock) DeleteSession(context.Context) error {
	m.session = nil
	return nil
}

func (m *cacheRepoMock) GetOnboardingStatus(ctx context.Context, accountID string) (bool, bool, error) {
	if m.GetOnboardingStatusFunc != nil {
		return m.GetOnboardingStatusFunc(ctx, accountID)
	}
	v, ok := m.statusWrites[accountID]
	return v, ok, nil
}

func (m *cacheRepoMock) SetOnboardingStatus(_ context.Context, accountID string, completed bool) error {
	if m.statusWrites == nil {
		m.statusWrites = make(map[string]bool)
	}
	m.statusWrites[accountID] = completed
	return nil
}

func (m *cacheRepoMock) GetOnboardingData(ctx context.Context, accountID string) (string, bool, error) {
	if m.GetOnboardingDataFunc != nil {
		return m.GetOnboardingDataFunc(ctx, accountID)
	}
	v, ok := m.dataWrites[accountID]
	return v, ok, nil
}

func (m *cacheRepoMock) SetOnboardingData(_ context.Context, accountID, payload string) error {
	if m.dataWrites == nil {
		m.dataWrites = make(map[string]string)
	}
	m.dataWrites[accountID] = payload
	return nil
}

func (m *cacheRepoMock) ClearAccount(context.Context, string) error { return nil }

type remoteServiceMock struct {
	SignUpFunc                func(ctx context.Context, email, password string) (*entity.Session, error)
	SignInFunc                func(ctx context.Context, email, password string) (*entity.Session, error)
	SignOutFunc               func(ctx context.Context) error
	GetSessionFunc            func(ctx context.Context) (*entity.Session, error)
	GetProfileFunc            func(ctx context.Context, accountID string) (*remote.ProfileRow, error)
	UpdateProfileFunc         func(ctx context.Context, accountID string, row remote.ProfileRow) error
	GetOnboardingFlagFunc     func(ctx context.Context, accountID string) (bool, error)
	SetOnboardingCompleteFunc func(ctx context.Context, accountID string, update remote.OnboardingUpdate) error
	DeleteAccountFunc         func(ctx context.Context, accountID string) (*remote.DeleteAccountResult, error)
}

func (m *remoteServiceMock) SignUp(ctx context.Context, email, password string) (*entity.Session, error) {
	if m.SignUpFunc != nil {
		return m.SignUpFunc(ctx, email, password)
	}
	return &entity.Session{AccountID: "acct-1", Email: email, AccessToken: "tok"}, nil
}

func (m *remoteServiceMock) SignIn(ctx context.Context, email, password string) (*entity.Session, error) {
	if m.SignInFunc != nil {
		return m.SignInFunc(ctx, email, password)
	}
	return &entity.Session{AccountID: "acct-1", Email: email, AccessToken: "tok"}, nil
}

func (m *remoteServiceMock) SignOut(ctx context.Context) error {
	if m.SignOutFunc != nil {
		return m.SignOutFunc(ctx)
	}
	return nil
}

func (m *remoteServiceMock) GetSession(ctx context.Context) (*entity.Session, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx)
	}
	return nil, remote.ErrNoSession
}

func (m *remoteServiceMock) GetProfile(ctx context.Context, accountID string) (*remote.ProfileRow, error) {
	if m.GetProfileFunc != nil {
		return m.GetProfileFunc(ctx, accountID)
	}
	return nil, remote.ErrNotFound
}

func (m *remoteServiceMock) UpdateProfile(ctx context.Context, accountID string, row remote.ProfileRow) error {
	if m.UpdateProfileFunc != nil {
		return m.UpdateProfileFunc(ctx, accountID, row)
	}
	return nil
}

func (m *remoteServiceMock) GetOnboardingFlag(ctx context.Context, accountID string) (bool, error) {
	if m.GetOnboardingFlagFunc != nil {
		return m.GetOnboardingFlagFunc(ctx, accountID)
	}
	return false, nil
}

func (m *remoteServiceMock) SetOnboardingComplete(ctx context.Context, accountID string, update remote.OnboardingUpdate) error {
	if m.SetOnboardingCompleteFunc != nil {
		return m.SetOnboardingCompleteFunc(ctx, accountID, update)
	}
	return nil
}

func (m *remoteServiceMock) DeleteAccount(ctx context.Context, accountID string) (*remote.DeleteAccountResult, error) {
	if m.DeleteAccountFunc != nil {
		return m.DeleteAccountFunc(ctx, accountID)
	}
	return &remote.DeleteAccountResult{Success: true}, nil
}

func signedInAs(accountID string) func(context.Context) (*entity.Session, error) {
	return func(context.Context) (*entity.Session, error) {
		return &entity.Session{AccountID: accountID, Email: "foo@bar.com", AccessToken: "tok"}, nil
	}
}

func newCoordinator(profileRepo *profileRepoMock, cacheRepo *cacheRepoMock, remoteSvc *remoteServiceMock) usecase.SyncUsecase {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return usecase.NewSyncUsecase(log, profileRepo, &prefRepoMock{}, cacheRepo, remoteSvc)
}

func validProfile() *entity.PersonalInfo {
	return &entity.PersonalInfo{
		FirstName:   "Praveen",
		LastName:    "Kumar",
		Email:       "foo@bar.com",
		Phone:       "(555) 123-4567",
		DateOfBirth: "01/15/1990",
		Weight:      "150 lbs",
		Height:      `5'10"`,
	}
}

func TestSaveProfile_ValidationBlocksStoreWrite(t *testing.T) {
	storeWritten := false
	profileRepo := &profileRepoMock{
		SaveFunc: func(context.Context, *entity.PersonalInfo) error {
			storeWritten = true
			return nil
		},
	}
	uc := newCoordinator(profileRepo, &cacheRepoMock{}, &remoteServiceMock{})

	info := validProfile()
	info.Email = "foo@bar"
	_, err := uc.SaveProfile(context.Background(), info)

	var vErr *usecase.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Messages, 1)
	assert.False(t, storeWritten, "invalid input must never reach the store")
}

func TestSaveProfile_AllTiers(t *testing.T) {
	cacheRepo := &cacheRepoMock{}
	remoteSvc := &remoteServiceMock{GetSessionFunc: signedInAs("acct-1")}
	uc := newCoordinator(&profileRepoMock{}, cacheRepo, remoteSvc)

	result, err := uc.SaveProfile(context.Background(), validProfile())
	require.NoError(t, err)
	assert.True(t, result.RemoteSynced())
	assert.Empty(t, result.FailedTiers())
	assert.Equal(t, "acct-1", result.Profile.AccountID)
	assert.Contains(t, cacheRepo.dataWrites, "acct-1")
}

func TestSaveProfile_RemoteFailureDegrades(t *testing.T) {
	remoteSvc := &remoteServiceMock{
		GetSessionFunc: signedInAs("acct-1"),
		UpdateProfileFunc: func(context.Context, string, remote.ProfileRow) error {
			return remote.ErrRemoteUnavailable
		},
	}
	uc := newCoordinator(&profileRepoMock{}, &cacheRepoMock{}, remoteSvc)

	result, err := uc.SaveProfile(context.Background(), validProfile())
	require.NoError(t, err, "a remote failure must not fail the write")
	assert.False(t, result.RemoteSynced())
	assert.Equal(t, []string{usecase.TierRemote}, result.FailedTiers())
}

func TestSaveProfile_StoreFailureAborts(t *testing.T) {
	storeErr := errors.New("disk full")
	profileRepo := &profileRepoMock{
		SaveFunc: func(context.Context, *entity.PersonalInfo) error { return storeErr },
	}
	remoteCalled := false
	remoteSvc := &remoteServiceMock{
		GetSessionFunc: signedInAs("acct-1"),
		UpdateProfileFunc: func(context.Context, string, remote.ProfileRow) error {
			remoteCalled = true
			return nil
		},
	}
	uc := newCoordinator(profileRepo, &cacheRepoMock{}, remoteSvc)

	_, err := uc.SaveProfile(context.Background(), validProfile())
	assert.ErrorIs(t, err, storeErr)
	assert.False(t, remoteCalled, "store failure must abort before the remote tier")
}

func TestSaveProfile_SignedOutKeepsLocalOnly(t *testing.T) {
	uc := newCoordinator(&profileRepoMock{}, &cacheRepoMock{}, &remoteServiceMock{})

	result, err := uc.SaveProfile(context.Background(), validProfile())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{usecase.TierRemote, usecase.TierCache}, result.FailedTiers())
	for _, tier := range result.Tiers {
		if tier.Tier != usecase.TierStore {
			assert.ErrorIs(t, tier.Err, usecase.ErrNotSignedIn)
		}
	}
}

func TestGetProfile_FallsBackToStore(t *testing.T) {
	stored := validProfile()
	profileRepo := &profileRepoMock{
		GetFunc: func(context.Context) (*entity.PersonalInfo, error) { return stored, nil },
	}
	cacheRepo := &cacheRepoMock{}
	remoteSvc := &remoteServiceMock{
		GetSessionFunc: signedInAs("acct-1"),
		GetProfileFunc: func(context.Context, string) (*remote.ProfileRow, error) {
			return nil, remote.ErrRemoteUnavailable
		},
	}
	uc := newCoordinator(profileRepo, cacheRepo, remoteSvc)

	info, err := uc.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Praveen", info.FirstName)
	// The store answer is mirrored back into the cache tier.
	assert.Contains(t, cacheRepo.dataWrites, "acct-1")
}

func TestGetProfile_CacheHitSkipsRemote(t *testing.T) {
	remoteCalled := false
	cacheRepo := &cacheRepoMock{
		GetOnboardingDataFunc: func(context.Context, string) (string, bool, error) {
			return `{"first_name":"Cached"}`, true, nil
		},
	}
	remoteSvc := &remoteServiceMock{
		GetSessionFunc: signedInAs("acct-1"),
		GetProfileFunc: func(context.Context, string) (*remote.ProfileRow, error) {
			remoteCalled = true
			return nil, remote.ErrNotFound
		},
	}
	uc := newCoordinator(&profileRepoMock{}, cacheRepo, remoteSvc)

	info, err := uc.GetProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Cached", info.FirstName)
	assert.False(t, remoteCalled)
}

func TestGetProfile_NothingAnywhere(t *testing.T) {
	uc := newCoordinator(&profileRepoMock{}, &cacheRepoMock{}, &remoteServiceMock{})

	_, err := uc.GetProfile(context.Background())
	assert.ErrorIs(t, err, usecase.ErrProfileNotFound)
}

func TestResolveOnboarding_NotSignedIn(t *testing.T) {
	uc := newCoordinator(&profileRepoMock{}, &cacheRepoMock{}, &remoteServiceMock{})

	state, err := uc.ResolveOnboarding(context.Background())
	assert.ErrorIs(t, err, usecase.ErrNotSignedIn)
	assert.Equal(t, entity.OnboardingUnknown, state)
}

func TestResolveOnboarding_RemoteConfirmsCompleted(t *testing.T) {
	cacheRepo := &cacheRepoMock{}
	remoteSvc := &remoteServiceMock{
		GetSessionFunc:        signedInAs("acct-1"),
		GetOnboardingFlagFunc: func(context.Context, string) (bool, error) { return true, nil },
	}
	uc := newCoordinator(&profileRepoMock{}, cacheRepo, remoteSvc)

	state, err := uc.ResolveOnboarding(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.OnboardingCompleted, state)
	assert.Equal(t, entity.OnboardingCompleted, uc.OnboardingState())
	assert.True(t, cacheRepo.statusWrites["acct-1"], "confirmed completion is cached")
}

func TestResolveOnboarding_RemoteFailureIsNeeded(t *testing.T) {
	remoteSvc := &remoteServiceMock{
		GetSessionFunc: signedInAs("acct-1"),
		GetOnboardingFlagFunc: func(context.Context, string) (bool, error) {
			return false, remote.ErrRemoteUnavailable
		},
	}
	uc := newCoordinator(&profileRepoMock{}, &cacheRepoMock{}, remoteSvc)

	state, err := uc.ResolveOnboarding(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.OnboardingNeeded, state, "unconfirmed completion must resolve to needed")
}

func TestResolveOnboarding_CachedFlagSkipsRemote(t *testing.T) {
	remoteCalled := false
	cacheRepo := &cacheRepoMock{
		GetOnboardingStatusFunc: func(context.Context, string) (bool, bool, error) {
			return true, true, nil
		},
	}
	remoteSvc := &remoteServiceMock{
		GetSessionFunc: signedInAs("acct-1"),
		GetOnboardingFlagFunc: func(context.Context, string) (bool, error) {
			remoteCalled = true
			return true, nil
		},
	}
	uc := newCoordinator(&profileRepoMock{}, cacheRepo, remoteSvc)

	state, err := uc.ResolveOnboarding(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.OnboardingCompleted, state)
	assert.False(t, remoteCalled, "a cached completion answers without the remote")
}

func TestResolveOnboarding_TerminalStateShortCircuits(t *testing.T) {
	remoteCalls := 0
	remoteSvc := &remoteServiceMock{
		GetSessionFunc: signedInAs("acct-1"),
		GetOnboardingFlagFunc: func(context.Context, string) (bool, error) {
			remoteCalls++
			return true, nil
		},
	}
	uc := newCoordinator(&profileRepoMock{}, &cacheRepoMock{}, remoteSvc)
	ctx := context.Background()

	_, err := uc.ResolveOnboarding(ctx)
	require.NoError(t, err)
	_, err = uc.ResolveOnboarding(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, remoteCalls, "a resolved identity is never re-checked")
}

func TestSignIn_DifferentAccountResetsState(t *testing.T) {
	account := "acct-1"
	remoteSvc := &remoteServiceMock{
		GetOnboardingFlagFunc: func(context.Context, string) (bool, error) { return true, nil },
		SignInFunc: func(_ context.Context, email, _ string) (*entity.Session, error) {
			return &entity.Session{AccountID: account, Email: email, AccessToken: "tok"}, nil
		},
	}
	remoteSvc.GetSessionFunc = func(context.Context) (*entity.Session, error) {
		return &entity.Session{AccountID: account, Email: "foo@bar.com", AccessToken: "tok"}, nil
	}
	uc := newCoordinator(&profileRepoMock{}, &cacheRepoMock{}, remoteSvc)
	ctx := context.Background()

	_, err := uc.SignIn(ctx, "foo@bar.com", "pw")
	require.NoError(t, err)
	_, err = uc.ResolveOnboarding(ctx)
	require.NoError(t, err)
	require.Equal(t, entity.OnboardingCompleted, uc.OnboardingState())

	// Same account signing in again keeps the resolved state.
	_, err = uc.SignIn(ctx, "foo@bar.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, entity.OnboardingCompleted, uc.OnboardingState())

	// A different identity drops the machine back to unknown.
	account = "acct-2"
	_, err = uc.SignIn(ctx, "other@bar.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, entity.OnboardingUnknown, uc.OnboardingState())
}

func TestCompleteOnboarding(t *testing.T) {
	var recorded remote.OnboardingUpdate
	remoteSvc := &remoteServiceMock{
		GetSessionFunc: signedInAs("acct-1"),
		SetOnboardingCompleteFunc: func(_ context.Context, _ string, update remote.OnboardingUpdate) error {
			recorded = update
			return nil
		},
	}
	uc := newCoordinator(&profileRepoMock{}, &cacheRepoMock{}, remoteSvc)

	result, err := uc.CompleteOnboarding(context.Background(), validProfile())
	require.NoError(t, err)
	assert.True(t, result.RemoteSynced())
	assert.Equal(t, entity.OnboardingCompleted, uc.OnboardingState())
	assert.Equal(t, "Praveen Kumar", recorded.FullName)
}

func TestCompleteOnboarding_RemoteFailureStaysNeeded(t *testing.T) {
	remoteSvc := &remoteServiceMock{
		GetSessionFunc: signedInAs("acct-1"),
		SetOnboardingCompleteFunc: func(context.Context, string, remote.OnboardingUpdate) error {
			return remote.ErrRemoteUnavailable
		},
	}
	uc := newCoordinator(&profileRepoMock{}, &cacheRepoMock{}, remoteSvc)

	result, err := uc.CompleteOnboarding(context.Background(), validProfile())
	require.NoError(t, err, "local save still succeeds")
	assert.False(t, result.RemoteSynced())
	assert.Equal(t, entity.OnboardingNeeded, uc.OnboardingState())
}

// Runs the coordinator against the real remote service and fake backend,
// with all three sharing one cache. Whatever CompleteOnboarding mirrors
// into the cache must read back as the full profile, not a partial shape.
func TestCompleteOnboarding_CachedCopyReadsBackFull(t *testing.T) {
	backend := remotetest.New()
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	backend.SeedAccount("foo@bar.com", "secret123", false)

	log := logrus.New()
	log.SetOutput(io.Discard)

	cacheRepo := &cacheRepoMock{}
	client := remote.NewClient(config.RemoteConfig{BaseURL: srv.URL, Timeout: 5 * time.Second}, log)
	remoteSvc := remote.NewProfileService(client, cacheRepo, log)

	var stored *entity.PersonalInfo
	profileRepo := &profileRepoMock{
		SaveFunc: func(_ context.Context, info *entity.PersonalInfo) error {
			stored = info
			return nil
		},
		GetFunc: func(context.Context) (*entity.PersonalInfo, error) { return stored, nil },
	}

	uc := usecase.NewSyncUsecase(log, profileRepo, &prefRepoMock{}, cacheRepo, remoteSvc)
	ctx := context.Background()

	_, err := uc.SignIn(ctx, "foo@bar.com", "secret123")
	require.NoError(t, err)

	result, err := uc.CompleteOnboarding(ctx, validProfile())
	require.NoError(t, err)
	require.True(t, result.RemoteSynced())
	require.Empty(t, result.FailedTiers())

	got, err := uc.GetProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Praveen", got.FirstName)
	assert.Equal(t, "Kumar", got.LastName)
	assert.Equal(t, "foo@bar.com", got.Email)
	assert.Equal(t, "(555) 123-4567", got.Phone)
}

func TestDeleteAccount(t *testing.T) {
	remoteSvc := &remoteServiceMock{GetSessionFunc: signedInAs("acct-1")}
	localDeleted := false
	profileRepo := &profileRepoMock{
		DeleteFunc: func(context.Context) error {
			localDeleted = true
			return nil
		},
	}
	uc := newCoordinator(profileRepo, &cacheRepoMock{}, remoteSvc)

	result, err := uc.DeleteAccount(context.Background())
	require.NoError(t, err)
	assert.True(t, localDeleted)
	require.NotEmpty(t, result.Steps)
	assert.Equal(t, "delete_local_profile", result.Steps[len(result.Steps)-1].Name)
	assert.Equal(t, entity.OnboardingUnknown, uc.OnboardingState())
}

func TestDeleteAccount_NotSignedIn(t *testing.T) {
	uc := newCoordinator(&profileRepoMock{}, &cacheRepoMock{}, &remoteServiceMock{})

	_, err := uc.DeleteAccount(context.Background())
	assert.ErrorIs(t, err, usecase.ErrNotSignedIn)
}

func TestPreferences(t *testing.T) {
	uc := newCoordinator(&profileRepoMock{}, &cacheRepoMock{}, &remoteServiceMock{})
	ctx := context.Background()

	_, found, err := uc.GetPreference(ctx, "units")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, uc.SetPreference(ctx, "units", "Metric"))
	value, found, err := uc.GetPreference(ctx, "units")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Metric", value)
}
