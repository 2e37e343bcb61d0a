package entity

// Session is the cached identity of the signed-in account. It exists to
// avoid a network round trip on every start and only becomes invalid on
// sign-out, sign-in of a different account, or account deletion.
type Session struct {
	AccountID   string `json:"account_id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
}

// Valid reports whether the session carries enough identity to be usable.
func (s *Session) Valid() bool {
	return s != nil && s.AccountID != "" && s.Email != ""
}

// OnboardingState is the resolution state of the one-time onboarding check.
type OnboardingState string

const (
	OnboardingUnknown   OnboardingState = "UNKNOWN"
	OnboardingChecking  OnboardingState = "CHECKING"
	OnboardingNeeded    OnboardingState = "NEEDED"
	OnboardingCompleted OnboardingState = "COMPLETED"
)
