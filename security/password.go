// security/password.go
package security

import (
	"crypto/rand"
	"sync"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// bcrypt only looks at the first 72 bytes and rejects longer input.
const maxPasswordBytes = 72

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(truncatePassword(password)), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(truncatePassword(password))) == nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// DummyHash returns a bcrypt hash of a random secret nobody knows. Checking
// a password against it costs the same as checking a real record.
func DummyHash() string {
	dummyHashOnce.Do(func() {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return
		}
		hash, err := bcrypt.GenerateFromPassword(secret, bcrypt.DefaultCost)
		if err != nil {
			return
		}
		dummyHash = string(hash)
	})
	return dummyHash
}

// truncatePassword cuts to 72 bytes without splitting a UTF-8 sequence.
func truncatePassword(password string) string {
	if len(password) <= maxPasswordBytes {
		return password
	}
	cut := maxPasswordBytes
	for cut > 0 && !utf8.RuneStart(password[cut]) {
		cut--
	}
	return password[:cut]
}
