package utils

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters for PIN storage.
const (
	pinIterations = 100_000
	pinSaltBytes  = 16
	pinKeyBytes   = sha256.Size
)

// MakePinHash derives a PBKDF2-SHA256 hash for the given PIN and
// returns (saltHex, hashHex).
func MakePinHash(pin string) (string, string, error) {
	salt := make([]byte, pinSaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", "", err
	}
	dk := pbkdf2.Key([]byte(pin), salt, pinIterations, pinKeyBytes, sha256.New)
	return hex.EncodeToString(salt), hex.EncodeToString(dk), nil
}

// VerifyPin re-derives the hash from the submitted PIN and compares it
// in constant time against the stored value.
func VerifyPin(pin, saltHex, hashHex string) bool {
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	expected, err := hex.DecodeString(hashHex)
	if err != nil {
		return false
	}
	dk := pbkdf2.Key([]byte(pin), salt, pinIterations, pinKeyBytes, sha256.New)
	return hmac.Equal(dk, expected)
}
