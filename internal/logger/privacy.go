package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// MinHashSaltLength is the minimum accepted length for LOG_HASH_SALT.
const MinHashSaltLength = 32

var hashSalt = "caja-gym-development-salt-not-for-production"

// InitHashSalt installs the salt used to pseudonymize user ids in logs.
func InitHashSalt(salt string) error {
	if salt == "" {
		return errors.New("LOG_HASH_SALT is required")
	}
	if len(salt) < MinHashSaltLength {
		return fmt.Errorf("LOG_HASH_SALT must be at least %d characters", MinHashSaltLength)
	}
	hashSalt = salt
	return nil
}

// InitHashSaltForTesting sets the salt without validation.
func InitHashSaltForTesting(salt string) {
	hashSalt = salt
}

// HashUserID creates a privacy-preserving hash of a back-office user ID.
func HashUserID(userID int) string {
	data := fmt.Sprintf("%d:%s", userID, hashSalt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:8]
}

// SanitizeText redacts free text such as client names and notes, keeping
// only enough shape to debug with.
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return "<empty>"
	}

	runes := []rune(text)
	if len(runes) <= 10 {
		return fmt.Sprintf("<%d chars>", len(runes))
	}

	return fmt.Sprintf("%s...<%d chars>", string(runes[:3]), len(runes))
}

// SanitizePtr is SanitizeText for optional fields.
func SanitizePtr(text *string) string {
	if text == nil {
		return "<nil>"
	}
	return SanitizeText(*text)
}
