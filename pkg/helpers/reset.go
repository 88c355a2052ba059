package helpers

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// Password reset helpers

// ResetClaim is what a pending reset token resolves to. Stored as JSON in
// Redis under KeyResetToken with the configured TTL.
type ResetClaim struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	RequestedAt time.Time `json:"requested_at"`
}

// KeyResetToken is the Redis key holding a pending reset token's claim.
func KeyResetToken(token string) string {
	return "reset:token:" + token
}

// GenResetToken generates an opaque URL-safe reset token.
func GenResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
