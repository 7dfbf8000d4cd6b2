package otp

import (
	"context"
	"testing"
	"time"

	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/repository"
)

func TestIssue_GeneratesSixDigitCode(t *testing.T) {
	svc := NewService(repository.NewMemoryOTPRepo(), 5*time.Minute)

	code, err := svc.Issue(context.Background(), "alice@example.com", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}
	for _, c := range code {
		if c < '0' || c > '9' {
			t.Fatalf("expected numeric code, got %q", code)
		}
	}
}

func TestVerifyAndConsume_SucceedsOnceOnly(t *testing.T) {
	svc := NewService(repository.NewMemoryOTPRepo(), 5*time.Minute)
	ctx := context.Background()

	code, err := svc.Issue(ctx, "alice@example.com", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record, err := svc.VerifyAndConsume(ctx, "alice@example.com", code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil {
		t.Fatal("expected record on first verification")
	}
	if record.Username != "alice" {
		t.Errorf("expected username alice, got %s", record.Username)
	}

	// 同一コードの2回目の検証は失敗する
	record, err = svc.VerifyAndConsume(ctx, "alice@example.com", code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record != nil {
		t.Error("expected nil record on second verification")
	}
}

func TestVerifyAndConsume_WrongCodeReturnsNil(t *testing.T) {
	svc := NewService(repository.NewMemoryOTPRepo(), 5*time.Minute)
	ctx := context.Background()

	code, err := svc.Issue(ctx, "alice@example.com", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	record, err := svc.VerifyAndConsume(ctx, "alice@example.com", wrong)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record != nil {
		t.Error("expected nil record for wrong code")
	}

	// 不一致の検証は正しいコードを消費しない
	record, err = svc.VerifyAndConsume(ctx, "alice@example.com", code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil {
		t.Error("expected correct code to remain valid after failed attempt")
	}
}

func TestVerifyAndConsume_ExpiredCodeReturnsNil(t *testing.T) {
	svc := NewService(repository.NewMemoryOTPRepo(), 5*time.Minute)
	ctx := context.Background()

	issuedAt := time.Now()
	svc.now = func() time.Time { return issuedAt }

	code, err := svc.Issue(ctx, "alice@example.com", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 有効期限経過後
	svc.now = func() time.Time { return issuedAt.Add(5*time.Minute + time.Second) }

	record, err := svc.VerifyAndConsume(ctx, "alice@example.com", code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record != nil {
		t.Error("expected nil record for expired code")
	}
}

func TestIssue_OverwritesPreviousCode(t *testing.T) {
	svc := NewService(repository.NewMemoryOTPRepo(), 5*time.Minute)
	ctx := context.Background()

	first, err := svc.Issue(ctx, "alice@example.com", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Issue(ctx, "alice@example.com", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first != second {
		// 旧コードは無効化されている
		record, err := svc.VerifyAndConsume(ctx, "alice@example.com", first)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if record != nil {
			t.Error("expected old code to be invalidated after reissue")
		}
	}

	record, err := svc.VerifyAndConsume(ctx, "alice@example.com", second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil {
		t.Error("expected latest code to be valid")
	}
}

func TestVerifyAndConsume_NormalizesEmail(t *testing.T) {
	svc := NewService(repository.NewMemoryOTPRepo(), 5*time.Minute)
	ctx := context.Background()

	code, err := svc.Issue(ctx, "  Alice@Example.COM ", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	record, err := svc.VerifyAndConsume(ctx, "alice@example.com", code)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record == nil {
		t.Fatal("expected verification to succeed with normalized email")
	}
	if record.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %s", record.Email)
	}
}
