package utils

import (
	"crypto/rand"
	"errors"
)

// GenerateSecret returns n random bytes for use as a signing key.
func GenerateSecret(n int) ([]byte, error) {
	if n <= 0 {
		return nil, errors.New("secret length must be positive")
	}
	secret := make([]byte, n)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	return secret, nil
}
