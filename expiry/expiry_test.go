package expiry

import (
	"errors"
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  uint64
	}{
		{"2s", 2_000_000_000},
		{"5m", 300_000_000_000},
		{"1h", 3_600_000_000_000},
		{"1d", 86_400_000_000_000},
		{"0s", 0},
		{"007m", 420_000_000_000},
		{"18446744073s", 18_446_744_073_000_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			if err != nil {
				t.Fatalf("ParseDuration(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDuration(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDurationRejects(t *testing.T) {
	inputs := []string{
		"",
		"s",
		"1x",
		"abc",
		"+5m",
		"-5m",
		"1.5h",
		" 5m",
		"5m ",
		"1h30m",
		"5",
		"5M",
		"18446744074s",          // overflows after unit multiplication
		"99999999999999999999d", // overflows while reading digits
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDuration(in)
			if !errors.Is(err, ErrInvalidDuration) {
				t.Errorf("ParseDuration(%q) error = %v, want ErrInvalidDuration", in, err)
			}
		})
	}
}

func TestDeadline(t *testing.T) {
	got, err := Deadline(100, 200)
	if err != nil || got != 300 {
		t.Fatalf("Deadline(100, 200) = %d, %v", got, err)
	}

	if _, err := Deadline(^uint64(0), 1); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("expected overflow error, got %v", err)
	}
}

func TestEntryIsExpired(t *testing.T) {
	e := &Entry{TokenID: "t1", ExpiresAt: 300}

	if e.IsExpired(299) {
		t.Error("entry must be live before its deadline")
	}
	if e.IsExpired(300) {
		t.Error("entry must be live exactly at its deadline")
	}
	if !e.IsExpired(301) {
		t.Error("entry must be expired after its deadline")
	}

	var absent *Entry
	if absent.IsExpired(^uint64(0)) {
		t.Error("absent entry must never expire")
	}
}

func TestEntryTime(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC)
	e := &Entry{ExpiresAt: Nanos(ts)}
	if !e.Time().Equal(ts) {
		t.Errorf("Time() = %v, want %v", e.Time(), ts)
	}
	if Nanos(time.Unix(-5, 0)) != 0 {
		t.Error("pre-epoch times must clamp to zero")
	}
}
