package security

import (
	"strings"
	"testing"
)

func TestHashAndVerify_RoundTrip(t *testing.T) {
	hasher := NewPasswordHasher()

	hash, err := hasher.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("expected argon2id PHC format, got %s", hash)
	}

	if !hasher.Verify("correct horse battery staple", hash) {
		t.Error("expected correct password to verify")
	}
	if hasher.Verify("wrong password", hash) {
		t.Error("expected wrong password to fail verification")
	}
}

func TestHash_ProducesUniqueSalts(t *testing.T) {
	hasher := NewPasswordHasher()

	first, err := hasher.Hash("same password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := hasher.Hash("same password")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first == second {
		t.Error("expected different hashes for the same password (random salt)")
	}

	// どちらのハッシュでも検証は成功する
	if !hasher.Verify("same password", first) || !hasher.Verify("same password", second) {
		t.Error("expected both hashes to verify")
	}
}

func TestVerify_MalformedHashFailsClosed(t *testing.T) {
	hasher := NewPasswordHasher()

	for _, hash := range []string{
		"",
		"plaintext",
		"$argon2id$v=19$m=65536,t=1,p=4$invalid",
		"$bcrypt$not-argon2",
	} {
		if hasher.Verify("password", hash) {
			t.Errorf("expected verification to fail for malformed hash %q", hash)
		}
	}
}

func TestVerify_EmptyPasswordFailsAgainstRealHash(t *testing.T) {
	hasher := NewPasswordHasher()

	hash, err := hasher.Hash("non-empty")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if hasher.Verify("", hash) {
		t.Error("expected empty password to fail verification")
	}
}
