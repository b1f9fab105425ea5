package model

import "time"

// ExpiryDays is how long an event stays listed after its date
const ExpiryDays = 3

// Scheduler is anything that can be asked whether it applies on a date
type Scheduler interface {
	ForDate(date Date) bool
}

// NextOccurrence returns the first date on or after from that falls on wd
func NextOccurrence(wd time.Weekday, from Date) Date {
	offset := (int(wd) - int(from.Weekday()) + 7) % 7
	return from.AddDays(offset)
}

// ForWeekday reports whether s applies on the next occurrence of wd,
// counting from today
func ForWeekday(s Scheduler, wd time.Weekday, today Date) bool {
	return s.ForDate(NextOccurrence(wd, today))
}

// ForToday reports whether s applies on today
func ForToday(s Scheduler, today Date) bool {
	return s.ForDate(today)
}

// meta carries the container bookkeeping shared by every item kind
type meta struct {
	state State
	id    int
}
