package token

import (
	"strings"
	"testing"
	"time"

	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/model"
)

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	tokenStr, err := svc.Issue("user-1", "alice", model.RoleAdmin)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokenStr == "" {
		t.Fatal("expected non-empty token")
	}

	claims := svc.Verify(tokenStr)
	if claims == nil {
		t.Fatal("expected valid claims, got nil")
	}
	if claims.UserID != "user-1" {
		t.Errorf("expected user ID user-1, got %s", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("expected username alice, got %s", claims.Username)
	}
	if claims.Role != model.RoleAdmin {
		t.Errorf("expected role admin, got %s", claims.Role)
	}
}

func TestVerify_TamperedTokenReturnsNil(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	tokenStr, err := svc.Issue("user-1", "alice", model.RoleUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// ペイロード部分を改変する
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		t.Fatalf("expected 3 token parts, got %d", len(parts))
	}
	tampered := parts[0] + ".eyJ1aWQiOiJvdGhlciJ9." + parts[2]

	if claims := svc.Verify(tampered); claims != nil {
		t.Error("expected nil claims for tampered token")
	}
}

func TestVerify_WrongSecretReturnsNil(t *testing.T) {
	issuer := NewService("secret-a", time.Hour)
	verifier := NewService("secret-b", time.Hour)

	tokenStr, err := issuer.Issue("user-1", "alice", model.RoleUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if claims := verifier.Verify(tokenStr); claims != nil {
		t.Error("expected nil claims for token signed with different secret")
	}
}

func TestVerify_ExpiredTokenReturnsNil(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	issuedAt := time.Now()
	svc.now = func() time.Time { return issuedAt }

	tokenStr, err := svc.Issue("user-1", "alice", model.RoleUser)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 有効期限直前は有効
	svc.now = func() time.Time { return issuedAt.Add(time.Hour - time.Second) }
	if claims := svc.Verify(tokenStr); claims == nil {
		t.Error("expected valid claims just before expiry")
	}

	// 有効期限経過後は無効
	svc.now = func() time.Time { return issuedAt.Add(time.Hour + time.Second) }
	if claims := svc.Verify(tokenStr); claims != nil {
		t.Error("expected nil claims after expiry")
	}
}

func TestVerify_MalformedTokenReturnsNil(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	for _, tokenStr := range []string{"", "not-a-token", "a.b", "a.b.c"} {
		if claims := svc.Verify(tokenStr); claims != nil {
			t.Errorf("expected nil claims for malformed token %q", tokenStr)
		}
	}
}

func TestTTL_ReturnsConfiguredDuration(t *testing.T) {
	svc := NewService("test-secret", 7*24*time.Hour)

	if got := svc.TTL(); got != 7*24*time.Hour {
		t.Errorf("expected 168h, got %s", got)
	}
}
