package database

import (
	"strings"
	"testing"
)

func TestDSN(t *testing.T) {
	got := DSN("auction", "s3cret", "db", "3306", "marketplace")
	want := "auction:s3cret@tcp(db:3306)/marketplace?charset=utf8mb4&parseTime=true&loc=UTC"
	if got != want {
		t.Fatalf("DSN=%q want=%q", got, want)
	}
}

func TestDSNWithoutPassword(t *testing.T) {
	got := DSN("auction", "", "localhost", "3306", "marketplace")
	if strings.Contains(got, ":@") {
		t.Fatalf("empty password must not leave a dangling colon: %q", got)
	}
	if !strings.HasPrefix(got, "auction@tcp(localhost:3306)/marketplace?") {
		t.Fatalf("unexpected DSN %q", got)
	}
}

// The auction window comparisons rely on DATETIME values arriving as UTC
// time.Time; the driver parameters that guarantee it must always be set.
func TestDSNTimeParameters(t *testing.T) {
	got := DSN("u", "", "h", "3306", "d")
	for _, param := range []string{"parseTime=true", "loc=UTC"} {
		if !strings.Contains(got, param) {
			t.Fatalf("DSN missing %s: %q", param, got)
		}
	}
}
