package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/praveen-kumars/pillremander-sub001/internal/delivery/dto"
	"github.com/praveen-kumars/pillremander-sub001/internal/remote"
	"github.com/praveen-kumars/pillremander-sub001/internal/usecase"
	"github.com/praveen-kumars/pillremander-sub001/pkg/response"
	"github.com/praveen-kumars/pillremander-sub001/pkg/validator"
)

type AuthHandler struct {
	syncUsecase usecase.SyncUsecase
	validator   *validator.CustomValidator
}

func NewAuthHandler(syncUsecase usecase.SyncUsecase, validator *validator.CustomValidator) *AuthHandler {
	return &AuthHandler{
		syncUsecase: syncUsecase,
		validator:   validator,
	}
}

// SignUp creates a new account on the remote backend.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	session, err := h.syncUsecase.SignUp(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, remote.ErrEmailTaken):
			response.Error(w, http.StatusConflict, "Email already exists", nil)
		case errors.Is(err, remote.ErrRemoteUnavailable):
			response.ServiceUnavailable(w, "Account service unavailable")
		default:
			response.InternalServerError(w, "Failed to sign up")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Account created", dto.SessionResponse{
		AccountID: session.AccountID,
		Email:     session.Email,
	})
}

// SignIn authenticates against the remote backend.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	session, err := h.syncUsecase.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, remote.ErrInvalidCredentials):
			response.Unauthorized(w, "Invalid email or password")
		case errors.Is(err, remote.ErrRemoteUnavailable):
			response.ServiceUnavailable(w, "Account service unavailable")
		default:
			response.InternalServerError(w, "Failed to sign in")
		}
		return
	}

	response.Success(w, http.StatusOK, "Signed in", dto.SessionResponse{
		AccountID: session.AccountID,
		Email:     session.Email,
	})
}

// SignOut revokes the remote session and clears the cached identity.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.syncUsecase.SignOut(r.Context()); err != nil {
		// Both cleanup steps were attempted; the session is gone locally.
		response.Success(w, http.StatusOK, "Signed out with remote cleanup pending", nil)
		return
	}

	response.Success(w, http.StatusOK, "Signed out", nil)
}

// GetSession returns the current signed-in identity.
func (h *AuthHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.syncUsecase.GetSession(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrNotSignedIn):
			response.Unauthorized(w, "No active session")
		case errors.Is(err, remote.ErrRemoteUnavailable):
			response.ServiceUnavailable(w, "Account service unavailable")
		default:
			response.InternalServerError(w, "Failed to get session")
		}
		return
	}

	response.Success(w, http.StatusOK, "Session retrieved", dto.SessionResponse{
		AccountID: session.AccountID,
		Email:     session.Email,
	})
}
