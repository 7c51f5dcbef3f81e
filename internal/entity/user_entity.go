package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is an anonymous account. Accounts are minted on demand and carry no
// profile beyond the credential hash.
type User struct {
	Id         uuid.UUID
	SecretHash string
	CreatedAt  time.Time
}
