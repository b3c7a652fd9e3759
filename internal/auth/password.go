package auth

import (
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	timingOnce sync.Once
	timingHash []byte
)

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// BurnPasswordCheck spends one bcrypt comparison when no account matched,
// so unknown emails cost the same as wrong passwords.
func BurnPasswordCheck(plain string, cost int) {
	timingOnce.Do(func() {
		timingHash, _ = bcrypt.GenerateFromPassword([]byte("timing-equalizer"), cost)
	})
	_ = bcrypt.CompareHashAndPassword(timingHash, []byte(plain))
}
