package dto

// Request DTOs

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Response DTOs

type SessionResponse struct {
	AccountID string `json:"account_id"`
	Email     string `json:"email"`
}
