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

type ProfileHandler struct {
	syncUsecase usecase.SyncUsecase
	validator   *validator.CustomValidator
}

func NewProfileHandler(syncUsecase usecase.SyncUsecase, validator *validator.CustomValidator) *ProfileHandler {
	return &ProfileHandler{
		syncUsecase: syncUsecase,
		validator:   validator,
	}
}

// GetProfile resolves the profile through the fallback chain.
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	info, err := h.syncUsecase.GetProfile(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrProfileNotFound):
			response.NotFound(w, "No profile record exists")
		default:
			response.InternalServerError(w, "Failed to get profile")
		}
		return
	}

	response.Success(w, http.StatusOK, "Profile retrieved", converter.PersonalInfoToResponse(info))
}

// SaveProfile writes the profile across all three tiers and reports the
// per-tier outcome.
func (h *ProfileHandler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.SaveProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	result, err := h.syncUsecase.SaveProfile(r.Context(), converter.SaveProfileRequestToEntity(&req))
	if err != nil {
		var validationErr *usecase.ValidationError
		if errors.As(err, &validationErr) {
			response.ValidationError(w, validationErr.Messages)
			return
		}
		response.InternalServerError(w, "Failed to save profile")
		return
	}

	response.Success(w, http.StatusOK, "Profile saved", dto.SyncStatusResponse{
		RemoteSynced: result.RemoteSynced(),
		FailedTiers:  result.FailedTiers(),
	})
}

// DeleteAccount removes the account across all tiers, reporting failed
// sub-steps by name.
func (h *ProfileHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	result, err := h.syncUsecase.DeleteAccount(r.Context())
	if err != nil && result == nil {
		if errors.Is(err, usecase.ErrNotSignedIn) {
			response.Unauthorized(w, "Sign in required")
			return
		}
		response.InternalServerError(w, "Failed to delete account")
		return
	}

	body := dto.DeleteAccountResponse{
		Success:     result.Success,
		FailedSteps: result.FailedSteps(),
	}
	if !result.Success {
		response.JSON(w, http.StatusMultiStatus, response.Response{
			Success: false,
			Message: "Account deletion partially failed",
			Data:    body,
		})
		return
	}

	response.Success(w, http.StatusOK, "Account deleted", body)
}

// GetPreference reads one app preference.
func (h *ProfileHandler) GetPreference(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		response.Error(w, http.StatusBadRequest, "Missing key parameter", nil)
		return
	}

	value, found, err := h.syncUsecase.GetPreference(r.Context(), key)
	if err != nil {
		response.InternalServerError(w, "Failed to get preference")
		return
	}
	if !found {
		response.NotFound(w, "Preference not found")
		return
	}

	response.Success(w, http.StatusOK, "Preference retrieved", dto.PreferenceResponse{Key: key, Value: value})
}

// SetPreference writes one app preference.
func (h *ProfileHandler) SetPreference(w http.ResponseWriter, r *http.Request) {
	var req dto.PreferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	if err := h.syncUsecase.SetPreference(r.Context(), req.Key, req.Value); err != nil {
		response.InternalServerError(w, "Failed to set preference")
		return
	}

	response.Success(w, http.StatusOK, "Preference saved", nil)
}
