package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// TokenIdentifierBytes is the amount of randomness behind every token,
// refresh token and authorization code identifier (320 bits).
const TokenIdentifierBytes = 40

// CryptoRandomBytes generates cryptographically secure random bytes
func CryptoRandomBytes(length int64) ([]byte, error) {
	buf := make([]byte, length)
	_, err := rand.Read(buf)
	return buf, err
}

// CryptoRandomString generates a random hex string of the given length
func CryptoRandomString(length int) (string, error) {
	bytes, err := CryptoRandomBytes(int64((length + 1) / 2))
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes)[:length], nil
}

// RandomIdentifier returns a hex encoded identifier backed by
// TokenIdentifierBytes random bytes.
func RandomIdentifier() (string, error) {
	bytes, err := CryptoRandomBytes(TokenIdentifierBytes)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// SHA256Hex returns the SHA-256 hash of s as a lowercase hex string.
// Intended for use with high-entropy, unguessable values (e.g., randomly
// generated codes); for such inputs, a salt is not required for security.
func SHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
