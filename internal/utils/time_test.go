package utils

import (
	"testing"
	"time"
)

func TestDayNormalizesToCalendarDate(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	at := time.Date(2024, 2, 29, 22, 15, 0, 0, loc)
	got := Day(at)
	if DayKey(got) != "2024-02-29" {
		t.Errorf("expected 2024-02-29, got %s", DayKey(got))
	}
	if got.Location() != time.UTC || got.Hour() != 0 {
		t.Errorf("expected midnight UTC, got %v", got)
	}
}

func TestDaysBetween(t *testing.T) {
	a, _ := ParseDay("2024-02-27")
	b, _ := ParseDay("2024-03-02")
	if n := DaysBetween(a, b); n != 4 {
		t.Errorf("expected 4 days, got %d", n)
	}
}

func TestParseDayRejectsGarbage(t *testing.T) {
	if _, err := ParseDay("2024/01/01"); err == nil {
		t.Error("expected error for slash-separated date")
	}
}

func TestToday(t *testing.T) {
	clock := FixedClock{At: time.Date(2024, 5, 1, 1, 0, 0, 0, time.UTC)}
	tokyo := time.FixedZone("JST", 9*3600)
	ny := time.FixedZone("EST", -5*3600)
	if got := DayKey(Today(clock, tokyo)); got != "2024-05-01" {
		t.Errorf("expected 2024-05-01 in Tokyo, got %s", got)
	}
	if got := DayKey(Today(clock, ny)); got != "2024-04-30" {
		t.Errorf("expected 2024-04-30 in New York, got %s", got)
	}
}

func TestValidateTimezone(t *testing.T) {
	if !ValidateTimezone("Local") || !ValidateTimezone("") {
		t.Error("expected Local and empty to be valid")
	}
	if ValidateTimezone("Mars/Olympus_Mons") {
		t.Error("expected bogus timezone to be invalid")
	}
}
