package rules

import (
	"strings"
	"time"
)

const (
	MinAge        = 18
	MaxPartnerAge = 99
	DateLayout    = "2006-01-02"
)

type BirthDateProblem int

const (
	BirthDateOK BirthDateProblem = iota
	BirthDateMalformed
	BirthDateInFuture
	BirthDateUnderage
)

func (p BirthDateProblem) String() string {
	switch p {
	case BirthDateOK:
		return "ok"
	case BirthDateMalformed:
		return "malformed"
	case BirthDateInFuture:
		return "in_future"
	case BirthDateUnderage:
		return "underage"
	default:
		return "unknown"
	}
}

type BirthDateCheck struct {
	Date    time.Time
	Age     int
	Problem BirthDateProblem
}

func (c BirthDateCheck) OK() bool {
	return c.Problem == BirthDateOK
}

// CheckBirthDate parses a YYYY-MM-DD date and classifies it against now.
// Turning 18 today counts as adult.
func CheckBirthDate(raw string, now time.Time) BirthDateCheck {
	date, err := time.Parse(DateLayout, strings.TrimSpace(raw))
	if err != nil {
		return BirthDateCheck{Problem: BirthDateMalformed}
	}

	today := truncateDay(now.UTC())
	if date.After(today) {
		return BirthDateCheck{Date: date, Problem: BirthDateInFuture}
	}

	age := AgeYears(date, now)
	if age < MinAge {
		return BirthDateCheck{Date: date, Age: age, Problem: BirthDateUnderage}
	}

	return BirthDateCheck{Date: date, Age: age, Problem: BirthDateOK}
}

func AgeYears(birth, now time.Time) int {
	birth = birth.UTC()
	now = now.UTC()

	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	if years < 0 {
		return 0
	}
	return years
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
