package store

import (
	"context"
	"testing"

	"github.com/erazemk/lumiere/internal/db"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestEnsureSettingKeepsFirstValue(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	tests := []struct {
		gen  string
		want string
	}{
		{"first", "first"},
		{"second", "first"},
	}
	for _, tt := range tests {
		got, err := ensureSetting(ctx, database, "k", func() (string, error) { return tt.gen, nil })
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("ensureSetting with %q = %q, want %q", tt.gen, got, tt.want)
		}
	}
}
