package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/praveen-kumars/pillremander-sub001/internal/domain/entity"
	domainRepo "github.com/praveen-kumars/pillremander-sub001/internal/domain/repository"
	"github.com/praveen-kumars/pillremander-sub001/pkg/token"

	"github.com/sirupsen/logrus"
)

var (
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoSession          = errors.New("no active session")
	// ErrPartialFailure marks a multi-step operation where some sub-steps
	// failed. The accompanying result names them.
	ErrPartialFailure = errors.New("operation partially failed")
)

// ProfileRow mirrors the backend user_profiles record.
type ProfileRow struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	PhoneNumber  string `json:"phone_number"`
	DateOfBirth  string `json:"date_of_birth"`
	Age          *int   `json:"age,omitempty"`
	IsOnboarding bool   `json:"isOnboarding"`
}

// OnboardingUpdate enumerates every field the onboarding completion write
// may touch. The merge into the backend row is explicit: exactly these
// fields plus the isOnboarding flag, nothing else.
type OnboardingUpdate struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	DateOfBirth string `json:"date_of_birth"`
	Age         *int   `json:"age,omitempty"`
}

type onboardingPayload struct {
	FullName     string `json:"full_name"`
	PhoneNumber  string `json:"phone_number"`
	DateOfBirth  string `json:"date_of_birth"`
	Age          *int   `json:"age,omitempty"`
	IsOnboarding bool   `json:"isOnboarding"`
}

func (u OnboardingUpdate) payload() onboardingPayload {
	return onboardingPayload{
		FullName:     u.FullName,
		PhoneNumber:  u.PhoneNumber,
		DateOfBirth:  u.DateOfBirth,
		Age:          u.Age,
		IsOnboarding: true,
	}
}

type authResponse struct {
	Account struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"account"`
	AccessToken string `json:"access_token"`
}

// StepResult records one sub-step of a multi-step operation.
type StepResult struct {
	Name string
	Err  error
}

// DeleteAccountResult reports account deletion per sub-step. Success means
// both destructive remote steps went through; cache cleanup is best-effort
// and attempted regardless.
type DeleteAccountResult struct {
	Success bool
	Steps   []StepResult
}

func (r *DeleteAccountResult) FailedSteps() []string {
	var failed []string
	for _, s := range r.Steps {
		if s.Err != nil {
			failed = append(failed, s.Name)
		}
	}
	return failed
}

// ProfileService talks to the authoritative account backend and mirrors
// confirmed state into the cache tier.
type ProfileService struct {
	client *Client
	cache  domainRepo.CacheRepository
	log    *logrus.Logger
}

func NewProfileService(client *Client, cache domainRepo.CacheRepository, log *logrus.Logger) *ProfileService {
	return &ProfileService{client: client, cache: cache, log: log}
}

// SignUp creates the account and its profile row. The duplicate check is an
// explicit lookup first, not a bet on the backend's uniqueness error.
func (s *ProfileService) SignUp(ctx context.Context, email, password string) (*entity.Session, error) {
	_, err := s.lookupProfileByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, ErrNotFound):
		return nil, err
	}

	var auth authResponse
	body := map[string]string{"email": email, "password": password}
	if err := s.client.doJSON(ctx, http.MethodPost, "/auth/v1/signup", body, &auth); err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrEmailTaken
		}
		s.log.Warnf("Failed to sign up: %+v", err)
		return nil, err
	}

	s.client.SetAccessToken(auth.AccessToken)

	row := ProfileRow{ID: auth.Account.ID, Email: auth.Account.Email}
	if err := s.client.doJSON(ctx, http.MethodPost, "/rest/v1/user_profiles", row, nil); err != nil {
		s.log.Warnf("Failed to create profile row for new account: %+v", err)
		return nil, err
	}

	session := &entity.Session{
		AccountID:   auth.Account.ID,
		Email:       auth.Account.Email,
		AccessToken: auth.AccessToken,
	}
	s.cacheSession(ctx, session)
	return session, nil
}

func (s *ProfileService) SignIn(ctx context.Context, email, password string) (*entity.Session, error) {
	var auth authResponse
	body := map[string]string{"email": email, "password": password}
	if err := s.client.doJSON(ctx, http.MethodPost, "/auth/v1/signin", body, &auth); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, ErrInvalidCredentials
		}
		s.log.Warnf("Failed to sign in: %+v", err)
		return nil, err
	}

	s.client.SetAccessToken(auth.AccessToken)

	// A sign-up that failed after the auth step leaves an account with no
	// profile row. Repair it here so the identity is usable again.
	if err := s.ensureProfileRow(ctx, auth.Account.ID, auth.Account.Email); err != nil {
		s.log.Warnf("Failed to restore missing profile row: %+v", err)
	}

	session := &entity.Session{
		AccountID:   auth.Account.ID,
		Email:       auth.Account.Email,
		AccessToken: auth.AccessToken,
	}
	s.cacheSession(ctx, session)
	return session, nil
}

// SignOut revokes the remote session and clears the cached identity. Both
// steps are always attempted; one failing does not block the other.
func (s *ProfileService) SignOut(ctx context.Context) error {
	var remoteErr error
	if s.client.AccessToken() != "" {
		remoteErr = s.client.doJSON(ctx, http.MethodPost, "/auth/v1/signout", nil, nil)
		if remoteErr != nil {
			s.log.Warnf("Failed to revoke remote session: %+v", remoteErr)
		}
	}
	s.client.ClearAccessToken()

	cacheErr := s.cache.DeleteSession(ctx)
	if cacheErr != nil {
		s.log.Warnf("Failed to clear cached session: %+v", cacheErr)
	}

	return errors.Join(remoteErr, cacheErr)
}

// GetSession resolves the signed-in identity, cache first. The order is
// fixed: a warm start must not pay a network round trip.
func (s *ProfileService) GetSession(ctx context.Context) (*entity.Session, error) {
	cached, err := s.cache.GetSession(ctx)
	if err != nil {
		s.log.Warnf("Session cache read failed, falling back to remote: %+v", err)
	}
	if cached.Valid() {
		if _, err := token.ParseClaims(cached.AccessToken); err == nil {
			s.client.SetAccessToken(cached.AccessToken)
			return cached, nil
		}
		s.log.Debug("Cached session token expired, checking remote")
	}

	if s.client.AccessToken() == "" {
		return nil, ErrNoSession
	}

	var auth authResponse
	if err := s.client.doJSON(ctx, http.MethodGet, "/auth/v1/session", nil, &auth); err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return nil, ErrNoSession
		}
		return nil, err
	}

	session := &entity.Session{
		AccountID:   auth.Account.ID,
		Email:       auth.Account.Email,
		AccessToken: auth.AccessToken,
	}
	s.client.SetAccessToken(auth.AccessToken)
	s.cacheSession(ctx, session)
	return session, nil
}

// UpdateProfile pushes profile fields to the backend row.
func (s *ProfileService) UpdateProfile(ctx context.Context, accountID string, row ProfileRow) error {
	path := "/rest/v1/user_profiles/" + url.PathEscape(accountID)
	if err := s.client.doJSON(ctx, http.MethodPatch, path, row, nil); err != nil {
		s.log.Warnf("Failed to update remote profile: %+v", err)
		return err
	}
	return nil
}

// GetOnboardingFlag reads the authoritative onboarding flag.
func (s *ProfileService) GetOnboardingFlag(ctx context.Context, accountID string) (bool, error) {
	var row ProfileRow
	path := "/rest/v1/user_profiles/" + url.PathEscape(accountID)
	if err := s.client.doJSON(ctx, http.MethodGet, path, nil, &row); err != nil {
		return false, err
	}
	return row.IsOnboarding, nil
}

// GetProfile reads the backend profile row.
func (s *ProfileService) GetProfile(ctx context.Context, accountID string) (*ProfileRow, error) {
	var row ProfileRow
	path := "/rest/v1/user_profiles/" + url.PathEscape(accountID)
	if err := s.client.doJSON(ctx, http.MethodGet, path, nil, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

// SetOnboardingComplete updates the account row with the enumerated fields
// plus isOnboarding=true. The cached completion flag is written only after
// the remote confirms: an unconfirmed completion must keep reporting NEEDED.
// The profile payload itself is mirrored by the coordinator, which owns the
// serialized shape of the onboarding data key.
func (s *ProfileService) SetOnboardingComplete(ctx context.Context, accountID string, update OnboardingUpdate) error {
	path := "/rest/v1/user_profiles/" + url.PathEscape(accountID)
	if err := s.client.doJSON(ctx, http.MethodPatch, path, update.payload(), nil); err != nil {
		s.log.Warnf("Failed to record onboarding completion remotely: %+v", err)
		return err
	}

	if err := s.cache.SetOnboardingStatus(ctx, accountID, true); err != nil {
		s.log.Warnf("Failed to cache onboarding status: %+v", err)
	}
	return nil
}

// DeleteAccount runs each destructive step independently and reports them
// per step. Local cache cleanup happens regardless of the remote outcome.
func (s *ProfileService) DeleteAccount(ctx context.Context, accountID string) (*DeleteAccountResult, error) {
	result := &DeleteAccountResult{}

	profilePath := "/rest/v1/user_profiles/" + url.PathEscape(accountID)
	profileErr := s.client.doJSON(ctx, http.MethodDelete, profilePath, nil, nil)
	if errors.Is(profileErr, ErrNotFound) {
		profileErr = nil // already gone
	}
	result.Steps = append(result.Steps, StepResult{Name: "delete_profile_row", Err: profileErr})

	authPath := "/auth/v1/admin/users/" + url.PathEscape(accountID)
	authErr := s.client.doJSON(ctx, http.MethodDelete, authPath, nil, nil)
	if errors.Is(authErr, ErrNotFound) {
		authErr = nil
	}
	result.Steps = append(result.Steps, StepResult{Name: "delete_auth_identity", Err: authErr})

	signOutErr := s.SignOut(ctx)
	result.Steps = append(result.Steps, StepResult{Name: "sign_out", Err: signOutErr})

	cacheErr := s.cache.ClearAccount(ctx, accountID)
	result.Steps = append(result.Steps, StepResult{Name: "clear_cache", Err: cacheErr})

	result.Success = profileErr == nil && authErr == nil
	if !result.Success {
		return result, fmt.Errorf("%w: %s", ErrPartialFailure, strings.Join(result.FailedSteps(), ", "))
	}
	return result, nil
}

// ensureProfileRow creates the backend profile row when the account exists
// without one. Best-effort: sign-in itself does not depend on it.
func (s *ProfileService) ensureProfileRow(ctx context.Context, accountID, email string) error {
	path := "/rest/v1/user_profiles/" + url.PathEscape(accountID)
	err := s.client.doJSON(ctx, http.MethodGet, path, nil, nil)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	row := ProfileRow{ID: accountID, Email: email}
	return s.client.doJSON(ctx, http.MethodPost, "/rest/v1/user_profiles", row, nil)
}

func (s *ProfileService) lookupProfileByEmail(ctx context.Context, email string) (*ProfileRow, error) {
	var row ProfileRow
	path := "/rest/v1/user_profiles/lookup?email=" + url.QueryEscape(email)
	if err := s.client.doJSON(ctx, http.MethodGet, path, nil, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

// cacheSession mirrors a confirmed session into the cache. A failure here
// only costs the fast path, so it is logged and swallowed.
func (s *ProfileService) cacheSession(ctx context.Context, session *entity.Session) {
	if err := s.cache.SetSession(ctx, session); err != nil {
		s.log.Warnf("Failed to cache session: %+v", err)
	}
}
