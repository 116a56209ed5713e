package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/radu9120/ZeroDue-sub000/internal/config"
)

// HashAPIKey creates a SHA-256 hash of the API key
func HashAPIKey(key string) string {
	hasher := sha256.New()
	hasher.Write([]byte(key))
	return hex.EncodeToString(hasher.Sum(nil))
}

// ValidateAdminAPIKey reports whether key matches the configured admin key.
// An empty configuration disables admin access.
func ValidateAdminAPIKey(cfg *config.Configuration, key string) bool {
	if cfg.Auth.AdminAPIKey == "" || key == "" {
		return false
	}
	expected := HashAPIKey(cfg.Auth.AdminAPIKey)
	return subtle.ConstantTimeCompare([]byte(HashAPIKey(key)), []byte(expected)) == 1
}
