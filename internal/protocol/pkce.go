package protocol

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// MethodS256 is the only code_challenge_method the gateway offers.
const MethodS256 = "S256"

// DefaultVerifierLength is used when no explicit length is requested.
const DefaultVerifierLength = 64

// verifierCharset is the RFC 7636 unreserved character set. One random byte
// is drawn per character; the slight modulo bias over 66 symbols is accepted.
const verifierCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

// Challenge is a single-use PKCE pair. The verifier travels only inside the
// short-lived correlation cookie and is never persisted server-side.
type Challenge struct {
	Verifier  string
	Challenge string
	Method    string
}

// NewChallenge generates a PKCE verifier of the given length (0 selects the
// default) and its derived S256 challenge.
func NewChallenge(length int) (Challenge, error) {
	if length <= 0 {
		length = DefaultVerifierLength
	}
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return Challenge{}, err
	}
	for i, b := range buf {
		buf[i] = verifierCharset[int(b)%len(verifierCharset)]
	}
	verifier := string(buf)
	return Challenge{
		Verifier:  verifier,
		Challenge: ChallengeFor(verifier),
		Method:    MethodS256,
	}, nil
}

// ChallengeFor computes base64url(SHA-256(verifier)) without padding.
func ChallengeFor(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// RandomHex generates a hex-encoded random string of n bytes.
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// RandomState generates the opaque state token binding an authorization
// request to its callback.
func RandomState() (string, error) {
	return RandomHex(16)
}
