package trip

import (
	"context"
	"errors"
	"testing"
	"time"
)

// Monday, 2025-06-02.
var ref = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

func TestNormalize_Deterministic(t *testing.T) {
	n := NewDateNormalizer(nil)

	tests := []struct {
		raw  string
		want string
	}{
		{"2025-09-10", "2025-09-10"},
		{"28-08-2025", "2025-08-28"},
		{"2025/09/10", "2025-09-10"},
		{"28.08.2025", "2025-08-28"},
		{"departing 2025-09-10", "2025-09-10"},
		{"today", "2025-06-02"},
		{"tomorrow", "2025-06-03"},
		{"day after tomorrow", "2025-06-04"},
		{"next week", "2025-06-09"},
		{"next month", "2025-07-02"},
		{"in 3 days", "2025-06-05"},
		{"in 2 weeks", "2025-06-16"},
		{"in 2 months", "2025-08-02"},
		{"friday", "2025-06-06"},
		{"next friday", "2025-06-06"},
		{"monday", "2025-06-09"}, // same weekday means next occurrence
		{"aug 28", "2025-08-28"},
		{"28 aug", "2025-08-28"},
		{"28th august", "2025-08-28"},
		{"august 28, 2026", "2026-08-28"},
		{"march 15", "2026-03-15"}, // already past this year, rolls forward
		{"summer", "2025-06-21"},
		{"end of summer", "2025-09-14"},
		{"winter", "2025-12-21"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := n.Normalize(context.Background(), tt.raw, ref)
			if err != nil {
				t.Fatalf("Normalize(%q): %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalize_InvalidWithoutOracle(t *testing.T) {
	n := NewDateNormalizer(nil)
	for _, raw := range []string{"", "whenever", "asdf qwer"} {
		if _, err := n.Normalize(context.Background(), raw, ref); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("Normalize(%q) err = %v, want ErrInvalidDate", raw, err)
		}
	}
}

func TestNormalize_OracleFallback(t *testing.T) {
	n := NewDateNormalizer(&oracleStub{
		normalize: func(raw string, _ time.Time) (string, error) {
			if raw == "the day we met" {
				return "2025-12-25", nil
			}
			return "invalid", nil
		},
	})

	got, err := n.Normalize(context.Background(), "the day we met", ref)
	if err != nil {
		t.Fatal(err)
	}
	if got != "2025-12-25" {
		t.Errorf("got %q, want oracle's date", got)
	}

	if _, err := n.Normalize(context.Background(), "no date here", ref); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("oracle 'invalid' must yield ErrInvalidDate, got %v", err)
	}
}

func TestNormalize_OracleGarbageRejected(t *testing.T) {
	n := NewDateNormalizer(&oracleStub{
		normalize: func(_ string, _ time.Time) (string, error) {
			return "sure, how about September?", nil
		},
	})
	if _, err := n.Normalize(context.Background(), "someday", ref); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("non-date oracle reply must be rejected, got %v", err)
	}
}

func TestClampProviderDate(t *testing.T) {
	tests := []struct {
		name string
		date string
		want string
	}{
		{"near future unchanged", "2025-09-10", "2025-09-10"},
		{"exactly a year out unchanged", "2026-06-02", "2026-06-02"},
		{"far future clamped", "2027-01-01", "2025-07-02"},
		{"unparseable passthrough", "not-a-date", "not-a-date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampProviderDate(tt.date, ref); got != tt.want {
				t.Errorf("ClampProviderDate(%q) = %q, want %q", tt.date, got, tt.want)
			}
		})
	}
}

func TestLooksLikeDate(t *testing.T) {
	tests := []struct {
		s    string
		want bool
	}{
		{"2025-09-10", true},
		{"10/09/2025", true},
		{"28 aug", true},
		{"departing 2025-09-10", true},
		{"next december", true},
		{"Tokyo", false},
		{"5 days", false},
		{"from Boston", false},
	}
	for _, tt := range tests {
		if got := LooksLikeDate(tt.s); got != tt.want {
			t.Errorf("LooksLikeDate(%q) = %v, want %v", tt.s, got, tt.want)
		}
	}
}

func TestCalculateReturnDate(t *testing.T) {
	got, err := CalculateReturnDate("2025-06-01", 5)
	if err != nil {
		t.Fatal(err)
	}
	if got != "2025-06-06" {
		t.Errorf("got %q, want 2025-06-06", got)
	}

	if _, err := CalculateReturnDate("June 1st", 5); err == nil {
		t.Error("non-canonical departure must error")
	}
}
