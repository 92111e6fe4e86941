package invitations

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

const (
	secretBytes = 32 // 256 bits of entropy per token
	saltBytes   = 16
)

// encodedSecretLen is the length of a base64url-encoded secret.
var encodedSecretLen = base64.RawURLEncoding.EncodedLen(secretBytes)

// Codec generates and verifies invitation tokens. The raw secret is only ever
// held in memory on its way into an email; storage sees the salted hash.
type Codec struct{}

// Generate draws a fresh secret and an independent salt, returning the raw
// secret (for the invite link) and the hash+salt pair (for storage).
func (Codec) Generate() (rawSecret, tokenHash, salt string, err error) {
	sb := make([]byte, secretBytes)
	if _, err = rand.Read(sb); err != nil {
		return "", "", "", err
	}
	rawSecret = base64.RawURLEncoding.EncodeToString(sb)

	saltB := make([]byte, saltBytes)
	if _, err = rand.Read(saltB); err != nil {
		return "", "", "", err
	}
	salt = hex.EncodeToString(saltB)

	return rawSecret, hashSecret(salt, rawSecret), salt, nil
}

// Verify recomputes the salted hash and compares it in constant time.
// Malformed candidates are rejected by the cheap shape check before any
// hashing happens; the rate limiter in front of every verification keeps the
// timing difference between those paths unusable at scale.
func (Codec) Verify(rawSecret, salt, tokenHash string) bool {
	if !wellFormedSecret(rawSecret) {
		return false
	}
	computed := hashSecret(salt, rawSecret)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(tokenHash)) == 1
}

func hashSecret(salt, rawSecret string) string {
	sum := sha256.Sum256([]byte(salt + rawSecret))
	return hex.EncodeToString(sum[:])
}

// wellFormedSecret bounds attacker-driven CPU cost: fixed length and
// base64url charset only.
func wellFormedSecret(s string) bool {
	if len(s) != encodedSecretLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}

// FormatToken builds the user-facing token "<invite-id>.<secret>". The id part
// gives the indexed lookup; the secret part proves possession.
func FormatToken(id uuid.UUID, rawSecret string) string {
	return id.String() + "." + rawSecret
}

// ParseToken splits a candidate token into id and secret. It rejects malformed
// candidates without touching the hash function or the store.
func ParseToken(raw string) (uuid.UUID, string, bool) {
	dot := strings.IndexByte(raw, '.')
	if dot < 0 {
		return uuid.Nil, "", false
	}
	idPart, secret := raw[:dot], raw[dot+1:]
	if !wellFormedSecret(secret) {
		return uuid.Nil, "", false
	}
	id, err := uuid.Parse(idPart)
	if err != nil {
		return uuid.Nil, "", false
	}
	return id, secret, true
}
