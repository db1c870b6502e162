package util

import (
	"testing"
	"time"
)

func TestAddMonths_SameYear(t *testing.T) {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	got := AddMonths(start, 3)
	want := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestAddMonths_YearWrap(t *testing.T) {
	start := time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)
	got := AddMonths(start, 3)
	want := time.Date(2025, 2, 5, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestAddMonths_ClampsDayToShortMonth(t *testing.T) {
	start := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	got := AddMonths(start, 1)
	// 2024 is a leap year
	want := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestAddMonths_Zero(t *testing.T) {
	start := time.Date(2024, 6, 10, 13, 45, 0, 0, time.UTC)
	got := AddMonths(start, 0)
	want := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestAddMonths_Negative(t *testing.T) {
	start := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)
	got := AddMonths(start, -1)
	want := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestClampDay(t *testing.T) {
	tests := []struct {
		name    string
		year    int
		month   time.Month
		day     int
		wantDay int
	}{
		{"Normal day", 2024, time.March, 15, 15},
		{"Day 31 in February leap year", 2024, time.February, 31, 29},
		{"Day 31 in February non-leap", 2023, time.February, 31, 28},
		{"Day 31 in April", 2024, time.April, 31, 30},
		{"Zero day clamps to 1", 2024, time.March, 0, 1},
		{"Negative day clamps to 1", 2024, time.March, -5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampDay(tt.year, tt.month, tt.day)
			if got.Day() != tt.wantDay {
				t.Errorf("Expected day %d, got %d", tt.wantDay, got.Day())
			}
			if got.Year() != tt.year || got.Month() != tt.month {
				t.Errorf("Expected %d-%02d, got %d-%02d", tt.year, tt.month, got.Year(), got.Month())
			}
		})
	}
}

func TestDateOnly(t *testing.T) {
	in := time.Date(2024, 5, 20, 17, 30, 45, 999, time.UTC)
	got := DateOnly(in)
	want := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}
