package protocol

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"
)

func TestNewChallenge(t *testing.T) {
	t.Run("default length", func(t *testing.T) {
		c, err := NewChallenge(0)
		if err != nil {
			t.Fatalf("NewChallenge: %v", err)
		}
		if len(c.Verifier) != DefaultVerifierLength {
			t.Errorf("verifier length = %d, want %d", len(c.Verifier), DefaultVerifierLength)
		}
		if c.Method != MethodS256 {
			t.Errorf("method = %q, want S256", c.Method)
		}
	})

	t.Run("explicit length", func(t *testing.T) {
		c, err := NewChallenge(43)
		if err != nil {
			t.Fatalf("NewChallenge: %v", err)
		}
		if len(c.Verifier) != 43 {
			t.Errorf("verifier length = %d, want 43", len(c.Verifier))
		}
	})

	t.Run("verifier uses only unreserved characters", func(t *testing.T) {
		c, err := NewChallenge(128)
		if err != nil {
			t.Fatalf("NewChallenge: %v", err)
		}
		for _, r := range c.Verifier {
			if !strings.ContainsRune(verifierCharset, r) {
				t.Fatalf("verifier contains %q outside charset", r)
			}
		}
	})

	t.Run("challenge matches verifier", func(t *testing.T) {
		c, err := NewChallenge(0)
		if err != nil {
			t.Fatalf("NewChallenge: %v", err)
		}
		if c.Challenge != ChallengeFor(c.Verifier) {
			t.Error("challenge does not derive from verifier")
		}
	})
}

func TestChallengeForDeterministic(t *testing.T) {
	const verifier = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"

	first := ChallengeFor(verifier)
	second := ChallengeFor(verifier)
	if first != second {
		t.Fatalf("ChallengeFor not deterministic: %q vs %q", first, second)
	}

	sum := sha256.Sum256([]byte(verifier))
	want := base64.RawURLEncoding.EncodeToString(sum[:])
	if first != want {
		t.Errorf("ChallengeFor = %q, want %q", first, want)
	}
	if strings.ContainsAny(first, "=+/") {
		t.Errorf("challenge %q is not unpadded base64url", first)
	}
}

func TestRandomState(t *testing.T) {
	a, err := RandomState()
	if err != nil {
		t.Fatalf("RandomState: %v", err)
	}
	b, err := RandomState()
	if err != nil {
		t.Fatalf("RandomState: %v", err)
	}
	if a == b {
		t.Error("two states are identical")
	}
	if len(a) != 32 {
		t.Errorf("state length = %d, want 32 hex chars", len(a))
	}
}
