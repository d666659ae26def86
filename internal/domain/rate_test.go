package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestToHome(t *testing.T) {
	tests := []struct {
		amount   string
		rate     string
		expected string
	}{
		{"100", "4", "25"},
		{"100", "2.5", "40"},
		{"5000", "0.75", "6666.67"},
		{"100", "0.75", "133.33"},
		{"-25", "1", "-25"},
		{"125", "1.25", "100"},
		{"1", "3", "0.33"},
		// half away from zero
		{"0.005", "1", "0.01"},
		{"-0.005", "1", "-0.01"},
	}

	for _, tt := range tests {
		got := ToHome(decimal.RequireFromString(tt.amount), decimal.RequireFromString(tt.rate))
		if !got.Equal(decimal.RequireFromString(tt.expected)) {
			t.Errorf("ToHome(%s, %s): expected %s, got %s", tt.amount, tt.rate, tt.expected, got)
		}
	}
}

func TestRateAsOf(t *testing.T) {
	rates := []Rate{
		{ID: "g1", Currency: "EUR", Date: day(2024, 1, 1), Rate: decimal.RequireFromString("0.75")},
		{ID: "g2", Currency: "EUR", Date: day(2024, 2, 1), Rate: decimal.RequireFromString("1.00")},
		{ID: "c2", Currency: "EUR", CompanyID: "co", Date: day(2024, 2, 1), Rate: decimal.RequireFromString("1.10")},
		{ID: "g3", Currency: "EUR", Date: day(2024, 3, 1), Rate: decimal.RequireFromString("1.25")},
	}

	tests := []struct {
		name     string
		date     time.Time
		expected string
		found    bool
	}{
		{"before first rate", day(2023, 12, 31), "", false},
		{"exact date", day(2024, 1, 1), "g1", true},
		{"between rates", day(2024, 1, 15), "g1", true},
		{"company rate wins on same date", day(2024, 2, 10), "c2", true},
		{"latest", day(2025, 1, 1), "g3", true},
		{"time of day ignored", time.Date(2024, 3, 1, 23, 59, 0, 0, time.UTC), "g3", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := RateAsOf(rates, tt.date)
			if ok != tt.found {
				t.Fatalf("expected found=%v, got %v", tt.found, ok)
			}
			if ok && r.ID != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, r.ID)
			}
		})
	}
}

func TestSortRates(t *testing.T) {
	rates := []Rate{
		{ID: "a", Date: day(2024, 1, 1)},
		{ID: "c", Date: day(2024, 3, 1)},
		{ID: "b", Date: day(2024, 2, 1)},
	}
	SortRates(rates)
	if rates[0].ID != "c" || rates[1].ID != "b" || rates[2].ID != "a" {
		t.Errorf("expected newest first, got %s %s %s", rates[0].ID, rates[1].ID, rates[2].ID)
	}
}
