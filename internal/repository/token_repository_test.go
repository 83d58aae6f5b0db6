package repository

import (
	"database/sql"
	"errors"
	"testing"
	"time"
)

func TestClassifyRefresh(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	revoked := sql.NullTime{Time: now.Add(-time.Hour), Valid: true}

	tests := []struct {
		name      string
		expiresAt time.Time
		revokedAt sql.NullTime
		want      error
	}{
		{"usable", now.Add(time.Hour), sql.NullTime{}, nil},
		{"expired", now.Add(-time.Minute), sql.NullTime{}, sql.ErrNoRows},
		{"revoked", now.Add(time.Hour), revoked, ErrTokenReused},
		{"revoked and expired", now.Add(-time.Minute), revoked, ErrTokenReused},
		{"expires this instant", now, sql.NullTime{}, nil},
	}
	for _, tt := range tests {
		if got := classifyRefresh(tt.expiresAt, tt.revokedAt, now); !errors.Is(got, tt.want) {
			t.Fatalf("%s: got %v want %v", tt.name, got, tt.want)
		}
	}
}
