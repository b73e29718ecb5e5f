package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/lumiere/internal/db"
	"github.com/erazemk/lumiere/internal/model"
)

func TestLockStation(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	locked, err := IsStationLocked(ctx, database, "jti-1")
	if err != nil {
		t.Fatalf("IsStationLocked: %v", err)
	}
	if locked {
		t.Error("expected token not to be locked")
	}

	if err := LockStation(ctx, database, "jti-1", model.RoleKitchen, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("LockStation: %v", err)
	}

	tests := []struct {
		jti  string
		want bool
	}{
		{"jti-1", true},
		{"jti-2", false},
	}
	for _, tt := range tests {
		locked, err := IsStationLocked(ctx, database, tt.jti)
		if err != nil {
			t.Fatalf("IsStationLocked(%s): %v", tt.jti, err)
		}
		if locked != tt.want {
			t.Errorf("IsStationLocked(%s) = %v, want %v", tt.jti, locked, tt.want)
		}
	}
}

func TestLockStationIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := LockStation(ctx, database, "jti-1", model.RoleCashier, time.Now().Add(time.Hour)); err != nil {
			t.Fatalf("LockStation #%d: %v", i+1, err)
		}
	}
}

func TestPurgeStationLocks(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now()

	if err := LockStation(ctx, database, "short", model.RoleCashier, now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := LockStation(ctx, database, "long", model.RoleCashier, now.Add(2*time.Hour)); err != nil {
		t.Fatal(err)
	}

	n, err := PurgeStationLocks(ctx, database, now.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("PurgeStationLocks: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 purged lock, got %d", n)
	}
	if locked, _ := IsStationLocked(ctx, database, "long"); !locked {
		t.Error("unexpired lock was purged")
	}
}
