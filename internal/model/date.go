package model

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Date is a calendar date without time of day or zone. Text and JSON forms
// are yyyy-mm-dd, inherited from civil.Date.
type Date struct {
	civil.Date
}

// NewDate normalizes the given fields (Oct 32 becomes Nov 1)
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the date of t in t's location
func DateOf(t time.Time) Date {
	return Date{civil.DateOf(t)}
}

// Today returns the local date
func Today() Date {
	return DateOf(time.Now())
}

// ParseDate parses a yyyy-mm-dd date
func ParseDate(s string) (Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected yyyy-mm-dd", s)
	}
	return Date{d}, nil
}

func (d Date) AddDays(n int) Date { return Date{d.Date.AddDays(n)} }
func (d Date) Before(o Date) bool { return d.Date.Before(o.Date) }
func (d Date) After(o Date) bool  { return d.Date.After(o.Date) }
func (d Date) Equal(o Date) bool  { return d == o }

// Weekday returns the day of the week of d
func (d Date) Weekday() time.Weekday {
	return d.In(time.UTC).Weekday()
}
