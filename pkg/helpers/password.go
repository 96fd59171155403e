package helpers

import (
	"crypto/sha256"
	"encoding/base64"

	"golang.org/x/crypto/bcrypt"
)

// prehash condenses the password to 44 bytes so bcrypt's 72-byte input
// limit never truncates or rejects it.
func prehash(plain string) []byte {
	sum := sha256.Sum256([]byte(plain))
	out := make([]byte, base64.StdEncoding.EncodedLen(len(sum)))
	base64.StdEncoding.Encode(out, sum[:])
	return out
}

// HashPasswordWithCost hashes the plain text password using bcrypt at the given work factor.
func HashPasswordWithCost(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword(prehash(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareHashAndPassword compares a bcrypt hash with a plain password
func CompareHashAndPassword(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(plain)) == nil
}
