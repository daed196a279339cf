package event

import (
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	now := time.Date(2025, time.October, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		dateText string
		want     time.Time
	}{
		{"abbreviated weekday and month", "VIE. 24 OCT.", time.Date(2025, time.October, 24, 0, 0, 0, 0, time.UTC)},
		{"long form with year", "sábado 3 de enero de 2026", time.Date(2026, time.January, 3, 0, 0, 0, 0, time.UTC)},
		{"month in the past rolls over", "Sáb, 3 ene", time.Date(2026, time.January, 3, 0, 0, 0, 0, time.UTC)},
		{"recent past stays in year", "1 sept", time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)},
		{"numeric day/month", "24/10", time.Date(2025, time.October, 24, 0, 0, 0, 0, time.UTC)},
		{"numeric with short year", "24/10/26", time.Date(2026, time.October, 24, 0, 0, 0, 0, time.UTC)},
		{"empty", "", time.Time{}},
		{"not a date", "Próximamente", time.Time{}},
		{"invalid month", "23.30", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDate(tt.dateText, now)
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.dateText, got, tt.want)
			}
		})
	}
}

func TestIsUpcoming(t *testing.T) {
	now := time.Date(2025, time.October, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		date string
		want bool
	}{
		{"10/10/2025", true},
		{"9/10/2025", false},
		{"sin fecha", true},
	}

	for _, tt := range tests {
		rec := &Record{Date: tt.date}
		if got := rec.IsUpcoming(now); got != tt.want {
			t.Errorf("IsUpcoming(%q) = %v, want %v", tt.date, got, tt.want)
		}
	}
}
