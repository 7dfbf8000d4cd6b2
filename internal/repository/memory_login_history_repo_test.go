package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/arpitthakur0208/adohealthicmr-sub000/internal/model"
)

func TestMemoryLoginHistoryRepo_ListNewestFirst(t *testing.T) {
	repo := NewMemoryLoginHistoryRepo()
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 5; i++ {
		record := &model.LoginRecord{
			ID:       fmt.Sprintf("rec-%d", i),
			Username: fmt.Sprintf("user-%d", i),
			LoginAt:  base.Add(time.Duration(i) * time.Second),
		}
		if err := repo.Insert(ctx, record); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	records, total, err := repo.List(ctx, 3, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 5 {
		t.Errorf("expected total 5, got %d", total)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].ID != "rec-4" || records[2].ID != "rec-2" {
		t.Errorf("expected newest-first order, got %s..%s", records[0].ID, records[2].ID)
	}

	// オフセット付きページング
	records, _, err = repo.List(ctx, 3, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 || records[0].ID != "rec-1" {
		t.Errorf("unexpected page: %+v", records)
	}
}

func TestMemoryLoginHistoryRepo_CapDropsOldest(t *testing.T) {
	repo := NewMemoryLoginHistoryRepo()
	repo.cap = 3
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		record := &model.LoginRecord{ID: fmt.Sprintf("rec-%d", i)}
		if err := repo.Insert(ctx, record); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	records, total, err := repo.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 3 {
		t.Errorf("expected total 3 after cap, got %d", total)
	}
	if len(records) != 3 || records[0].ID != "rec-4" || records[2].ID != "rec-2" {
		t.Errorf("expected oldest records dropped, got %+v", records)
	}
}

func TestMemoryLoginHistoryRepo_EmptyList(t *testing.T) {
	repo := NewMemoryLoginHistoryRepo()

	records, total, err := repo.List(context.Background(), 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 || len(records) != 0 {
		t.Errorf("expected empty history, got total=%d records=%+v", total, records)
	}
}
