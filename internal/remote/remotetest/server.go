// Package remotetest provides an in-memory stand-in for the account backend,
// for use behind httptest.Server in client tests.
package remotetest

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/praveen-kumars/pillremander-sub001/pkg/token"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

type account struct {
	ID           string
	Email        string
	PasswordHash []byte
}

type profileRecord struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	PhoneNumber  string `json:"phone_number"`
	DateOfBirth  string `json:"date_of_birth"`
	Age          *int   `json:"age,omitempty"`
	IsOnboarding bool   `json:"isOnboarding"`
}

// Server holds backend state. The Fail* knobs force specific endpoints to
// return 500 so partial-failure paths can be exercised.
type Server struct {
	mu       sync.Mutex
	tokens   *token.Service
	accounts map[string]*account // keyed by email
	profiles map[string]*profileRecord
	revoked  map[string]bool

	Down              bool
	FailProfileCreate bool
	FailProfileDelete bool
	FailAuthDelete    bool
	FailSignOut       bool

	router *mux.Router
}

func New() *Server {
	s := &Server{
		tokens:   token.NewService("remotetest-secret", time.Hour),
		accounts: make(map[string]*account),
		profiles: make(map[string]*profileRecord),
		revoked:  make(map[string]bool),
	}

	r := mux.NewRouter()
	r.HandleFunc("/auth/v1/signup", s.signUp).Methods(http.MethodPost)
	r.HandleFunc("/auth/v1/signin", s.signIn).Methods(http.MethodPost)
	r.HandleFunc("/auth/v1/signout", s.signOut).Methods(http.MethodPost)
	r.HandleFunc("/auth/v1/session", s.session).Methods(http.MethodGet)
	r.HandleFunc("/auth/v1/admin/users/{id}", s.deleteUser).Methods(http.MethodDelete)
	r.HandleFunc("/rest/v1/user_profiles", s.createProfile).Methods(http.MethodPost)
	r.HandleFunc("/rest/v1/user_profiles/lookup", s.lookupProfile).Methods(http.MethodGet)
	r.HandleFunc("/rest/v1/user_profiles/{id}", s.getProfile).Methods(http.MethodGet)
	r.HandleFunc("/rest/v1/user_profiles/{id}", s.patchProfile).Methods(http.MethodPatch)
	r.HandleFunc("/rest/v1/user_profiles/{id}", s.deleteProfile).Methods(http.MethodDelete)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	down := s.Down
	s.mu.Unlock()
	if down {
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	s.router.ServeHTTP(w, r)
}

// SeedAccount registers an account (and profile row) directly, returning the
// account id.
func (s *Server) SeedAccount(email, password string, onboarded bool) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	id := uuid.New().String()
	s.accounts[email] = &account{ID: id, Email: email, PasswordHash: hash}
	s.profiles[id] = &profileRecord{ID: id, Email: email, IsOnboarding: onboarded}
	return id
}

// Profile returns a copy of the stored profile row, if any.
func (s *Server) Profile(accountID string) (profileRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[accountID]
	if !ok {
		return profileRecord{}, false
	}
	return *p, true
}

// HasAccount reports whether an auth identity still exists.
func (s *Server) HasAccount(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.accounts[email]
	return ok
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[creds.Email]; exists {
		http.Error(w, "email already registered", http.StatusConflict)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.MinCost)
	if err != nil {
		http.Error(w, "hash failure", http.StatusInternalServerError)
		return
	}

	acct := &account{ID: uuid.New().String(), Email: creds.Email, PasswordHash: hash}
	s.accounts[creds.Email] = acct

	s.writeAuthResponse(w, http.StatusCreated, acct)
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := s.accounts[creds.Email]
	if !ok || bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(creds.Password)) != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	s.writeAuthResponse(w, http.StatusOK, acct)
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	fail := s.FailSignOut
	s.mu.Unlock()
	if fail {
		http.Error(w, "signout failed", http.StatusInternalServerError)
		return
	}

	raw, claims := s.authorize(r)
	if claims == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	s.mu.Lock()
	s.revoked[raw] = true
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) {
	raw, claims := s.authorize(r)
	if claims == nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"account":      map[string]string{"id": claims.AccountID, "email": claims.Email},
		"access_token": raw,
	})
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailAuthDelete {
		http.Error(w, "auth deletion failed", http.StatusInternalServerError)
		return
	}

	id := mux.Vars(r)["id"]
	for email, acct := range s.accounts {
		if acct.ID == id {
			delete(s.accounts, email)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

func (s *Server) createProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	fail := s.FailProfileCreate
	s.mu.Unlock()
	if fail {
		http.Error(w, "profile creation failed", http.StatusInternalServerError)
		return
	}

	var row profileRecord
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil || row.ID == "" {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.profiles[row.ID] = &row
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, row)
}

func (s *Server) lookupProfile(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.profiles {
		if strings.EqualFold(row.Email, email) {
			writeJSON(w, http.StatusOK, row)
			return
		}
	}
	http.Error(w, "not found", http.StatusNotFound)
}

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.profiles[mux.Vars(r)["id"]]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (s *Server) patchProfile(w http.ResponseWriter, r *http.Request) {
	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.profiles[mux.Vars(r)["id"]]
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	if v, ok := patch["full_name"].(string); ok {
		row.FullName = v
	}
	if v, ok := patch["phone_number"].(string); ok {
		row.PhoneNumber = v
	}
	if v, ok := patch["date_of_birth"].(string); ok {
		row.DateOfBirth = v
	}
	if v, ok := patch["age"].(float64); ok {
		age := int(v)
		row.Age = &age
	}
	if v, ok := patch["isOnboarding"].(bool); ok {
		row.IsOnboarding = v
	}

	writeJSON(w, http.StatusOK, row)
}

func (s *Server) deleteProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailProfileDelete {
		http.Error(w, "profile deletion failed", http.StatusInternalServerError)
		return
	}

	id := mux.Vars(r)["id"]
	if _, ok := s.profiles[id]; !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	delete(s.profiles, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) authorize(r *http.Request) (string, *token.SessionClaims) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", nil
	}

	s.mu.Lock()
	revoked := s.revoked[parts[1]]
	s.mu.Unlock()
	if revoked {
		return "", nil
	}

	claims, err := s.tokens.Validate(parts[1])
	if err != nil {
		return "", nil
	}
	return parts[1], claims
}

func (s *Server) writeAuthResponse(w http.ResponseWriter, status int, acct *account) {
	signed, err := s.tokens.Mint(acct.ID, acct.Email)
	if err != nil {
		http.Error(w, "token failure", http.StatusInternalServerError)
		return
	}

	writeJSON(w, status, map[string]any{
		"account":      map[string]string{"id": acct.ID, "email": acct.Email},
		"access_token": signed,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
