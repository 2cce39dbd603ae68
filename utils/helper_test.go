package utils

import (
	"testing"
	"time"
)

func TestConvertToDate_FirstOfMonthKeepsCalendarDay(t *testing.T) {
	// 2026-02-28 18:30 UTC is already 2026-03-01 01:30 in Asia/Jakarta.
	input := time.Date(2026, time.February, 28, 18, 30, 0, 0, time.UTC)

	got, err := ConvertToDate(input, "Asia/Jakarta")
	if err != nil {
		t.Fatal(err)
	}

	want := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
	// The MySQL driver writes the UTC rendering; it must stay on day 1 of
	// March so SQL MONTH()/YEAR() buckets the row in the entered month.
	if utc := got.UTC(); utc.Year() != 2026 || utc.Month() != time.March || utc.Day() != 1 {
		t.Fatalf("UTC rendering %s left the entered calendar day", utc)
	}
}

func TestConvertToDate_LocalMidnightStaysOnItsDay(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	if err != nil {
		t.Fatal(err)
	}
	input := time.Date(2026, time.March, 1, 0, 0, 0, 0, jakarta)

	got, err := ConvertToDate(input, "Asia/Jakarta")
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestConvertToDate_EmptyTimezoneUsesDefault(t *testing.T) {
	input := time.Date(2026, time.July, 31, 20, 0, 0, 0, time.UTC)

	got, err := ConvertToDate(input, "")
	if err != nil {
		t.Fatal(err)
	}
	// 20:00 UTC is past midnight in Asia/Jakarta (UTC+7): August 1st.
	want := time.Date(2026, time.August, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestConvertToDate_BadTimezone(t *testing.T) {
	if _, err := ConvertToDate(time.Now(), "Not/AZone"); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}
