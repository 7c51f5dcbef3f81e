package dto

import "github.com/google/uuid"

// CreateAccountResponse carries the minted anonymous credentials. The secret
// is returned exactly once; only its hash is stored.
type CreateAccountResponse struct {
	UserId uuid.UUID `json:"user_id"`
	Secret string    `json:"secret"`
	Token  string    `json:"token"`
}

type LoginRequest struct {
	UserId uuid.UUID `json:"user_id" validate:"required"`
	Secret string    `json:"secret" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
}
