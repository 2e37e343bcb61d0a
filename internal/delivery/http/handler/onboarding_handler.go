package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/praveen-kumars/pillremander-sub001/internal/converter"
	"github.com/praveen-kumars/pillremander-sub001/internal/delivery/dto"
	"github.com/praveen-kumars/pillremander-sub001/internal/usecase"
	"github.com/praveen-kumars/pillremander-sub001/pkg/response"
	"github.com/praveen-kumars/pillremander-sub001/pkg/validator"
)

type OnboardingHandler struct {
	syncUsecase usecase.SyncUsecase
	validator   *validator.CustomValidator
}

func NewOnboardingHandler(syncUsecase usecase.SyncUsecase, validator *validator.CustomValidator) *OnboardingHandler {
	return &OnboardingHandler{
		syncUsecase: syncUsecase,
		validator:   validator,
	}
}

// GetStatus resolves the onboarding state for the signed-in account.
// Inability to confirm completion reports NEEDED.
func (h *OnboardingHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	state, err := h.syncUsecase.ResolveOnboarding(r.Context())
	if err != nil {
		if errors.Is(err, usecase.ErrNotSignedIn) {
			response.Unauthorized(w, "Sign in required")
			return
		}
		response.InternalServerError(w, "Failed to resolve onboarding state")
		return
	}

	response.Success(w, http.StatusOK, "Onboarding state resolved", dto.OnboardingStatusResponse{
		State: string(state),
	})
}

// Complete saves the submitted profile and records onboarding completion on
// the authoritative account record.
func (h *OnboardingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req dto.SaveProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.syncUsecase.CompleteOnboarding(r.Context(), converter.SaveProfileRequestToEntity(&req))
	if err != nil {
		var validationErr *usecase.ValidationError
		switch {
		case errors.As(err, &validationErr):
			response.ValidationError(w, validationErr.Messages)
		case errors.Is(err, usecase.ErrNotSignedIn):
			response.Unauthorized(w, "Sign in required")
		default:
			response.InternalServerError(w, "Failed to complete onboarding")
		}
		return
	}

	status := dto.SyncStatusResponse{
		RemoteSynced: result.RemoteSynced(),
		FailedTiers:  result.FailedTiers(),
	}
	if !result.RemoteSynced() {
		// Saved locally, but completion is not confirmed by the backend:
		// the next status check still reports NEEDED.
		response.JSON(w, http.StatusAccepted, response.Response{
			Success: true,
			Message: "Profile saved locally, completion pending remote confirmation",
			Data:    status,
		})
		return
	}

	response.Success(w, http.StatusOK, "Onboarding completed", status)
}
