package core

import (
	"errors"
	"testing"
	"time"
)

func TestValidateUser(t *testing.T) {
	known := []string{"alice", "bob", "carol "}
	cases := []struct {
		in   string
		want error
	}{
		{"alice", nil},
		{"bob", nil},
		{"", ErrEmptyUser},
		{"   ", ErrUnknownUser},
		{"carol ", nil},
		{"carol", ErrUnknownUser},
		{"Alice", ErrUnknownUser},
	}
	for _, tc := range cases {
		if err := ValidateUser(tc.in, known); !errors.Is(err, tc.want) {
			t.Fatalf("%q: expected %v, got %v", tc.in, tc.want, err)
		}
	}
}

func TestMonthStart(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2024, 1, 5, 13, 30, 0, 0, time.UTC), time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 2, 1, 0, 0, 0, 0, time.FixedZone("CET", 3600)), time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := MonthStart(tc.in); !got.Equal(tc.want) {
			t.Fatalf("MonthStart(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSelectionIsEmpty(t *testing.T) {
	if !(Selection{User: "alice"}).IsEmpty() {
		t.Fatalf("selection without toggles should be empty")
	}
	if (Selection{ShowMonths: true}).IsEmpty() {
		t.Fatalf("selection with months toggled should not be empty")
	}
}
