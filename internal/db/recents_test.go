package db

import (
	"context"
	"testing"
	"time"

	"github.com/arcticalls/arcticalls/internal/models"
)

func TestCallRecordRepository_Create(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	name := "Alice"
	contactID := int64(1)
	rec := &models.CallRecord{
		Phone:           "+447700900123",
		DisplayName:     &name,
		ContactID:       &contactID,
		Direction:       models.DirectionOutbound,
		DurationSeconds: 65,
		StartedAt:       time.Now().Add(-65 * time.Second),
		EndedAt:         time.Now(),
		Status:          models.CallStatusCompleted,
	}

	if err := db.Recents.Create(ctx, rec); err != nil {
		t.Fatalf("Failed to create call record: %v", err)
	}
	if rec.ID == 0 {
		t.Error("Expected record ID to be set after creation")
	}

	retrieved, err := db.Recents.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Failed to get call record: %v", err)
	}
	if retrieved.DisplayName == nil || *retrieved.DisplayName != "Alice" {
		t.Errorf("Expected display name snapshot Alice, got %v", retrieved.DisplayName)
	}
	if retrieved.DurationSeconds != 65 {
		t.Errorf("Expected duration 65, got %d", retrieved.DurationSeconds)
	}
}

func TestCallRecordRepository_Create_NullableFields(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	rec := &models.CallRecord{
		Phone:     "+447700900999",
		Direction: models.DirectionInbound,
		StartedAt: time.Now(),
		EndedAt:   time.Now(),
		Status:    models.CallStatusFailed,
	}

	if err := db.Recents.Create(ctx, rec); err != nil {
		t.Fatalf("Failed to create call record: %v", err)
	}

	retrieved, err := db.Recents.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Failed to get call record: %v", err)
	}
	if retrieved.DisplayName != nil {
		t.Errorf("Expected nil display name, got %v", *retrieved.DisplayName)
	}
	if retrieved.ContactID != nil {
		t.Errorf("Expected nil contact ID, got %v", *retrieved.ContactID)
	}
}

func TestCallRecordRepository_List_MostRecentFirst(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rec := &models.CallRecord{
			Phone:     "+447700900123",
			Direction: models.DirectionOutbound,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			EndedAt:   base.Add(time.Duration(i)*time.Minute + 30*time.Second),
			Status:    models.CallStatusCompleted,
		}
		if err := db.Recents.Create(ctx, rec); err != nil {
			t.Fatalf("Failed to create call record: %v", err)
		}
	}

	records, err := db.Recents.List(ctx, 100)
	if err != nil {
		t.Fatalf("Failed to list call records: %v", err)
	}

	if len(records) != 5 {
		t.Fatalf("Expected 5 records, got %d", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i].StartedAt.After(records[i-1].StartedAt) {
			t.Errorf("Records not ordered by start time descending at position %d", i)
		}
	}
}

func TestCallRecordRepository_List_Bounded(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 7; i++ {
		rec := &models.CallRecord{
			Phone:     "+447700900123",
			Direction: models.DirectionOutbound,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
			EndedAt:   base.Add(time.Duration(i) * time.Minute),
			Status:    models.CallStatusCompleted,
		}
		if err := db.Recents.Create(ctx, rec); err != nil {
			t.Fatalf("Failed to create call record: %v", err)
		}
	}

	records, err := db.Recents.List(ctx, 3)
	if err != nil {
		t.Fatalf("Failed to list call records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	// The newest record is the last one inserted
	if !records[0].StartedAt.Equal(base.Add(6 * time.Minute)) {
		t.Errorf("Expected newest record first, got started_at %v", records[0].StartedAt)
	}

	count, err := db.Recents.Count(ctx)
	if err != nil {
		t.Fatalf("Failed to count call records: %v", err)
	}
	if count != 7 {
		t.Errorf("Expected count 7, got %d", count)
	}
}
