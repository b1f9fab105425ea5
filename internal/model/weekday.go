package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// Week lists the days starting on Monday, the order used for listings
var Week = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// ParseWeekday accepts short or long English day names, case-insensitive
func ParseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("cannot parse %q to a weekday", s)
	}
	return wd, nil
}

// ShortWeekday returns the three letter name (Mon, Tue, ...)
func ShortWeekday(wd time.Weekday) string {
	return wd.String()[:3]
}

// WeekdayMask is a set of weekdays, bit i standing for time.Weekday(i).
// The empty mask means every day.
type WeekdayMask uint8

const allDays WeekdayMask = 1<<7 - 1

// MaskOf builds a mask from the given days
func MaskOf(days ...time.Weekday) WeekdayMask {
	var m WeekdayMask
	for _, d := range days {
		m = m.With(d)
	}
	return m
}

// With returns the mask with wd added
func (m WeekdayMask) With(wd time.Weekday) WeekdayMask {
	return m | 1<<uint(wd)
}

// Has reports whether wd is in the mask
func (m WeekdayMask) Has(wd time.Weekday) bool {
	return m&(1<<uint(wd)) != 0
}

// Empty reports whether no day is set
func (m WeekdayMask) Empty() bool {
	return m&allDays == 0
}

// Days returns the set days in Monday-first order
func (m WeekdayMask) Days() []time.Weekday {
	var days []time.Weekday
	for _, wd := range Week {
		if m.Has(wd) {
			days = append(days, wd)
		}
	}
	return days
}

func (m WeekdayMask) String() string {
	if m.Empty() {
		return "every day"
	}
	names := make([]string, 0, 7)
	for _, wd := range m.Days() {
		names = append(names, ShortWeekday(wd))
	}
	return strings.Join(names, ",")
}

// ParseWeekdayMask parses a comma separated day list. An empty string yields
// the empty mask.
func ParseWeekdayMask(s string) (WeekdayMask, error) {
	var m WeekdayMask
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		wd, err := ParseWeekday(part)
		if err != nil {
			return 0, err
		}
		m = m.With(wd)
	}
	return m, nil
}

// MarshalJSON encodes the mask as a list of short day names
func (m WeekdayMask) MarshalJSON() ([]byte, error) {
	names := []string{}
	for _, wd := range m.Days() {
		names = append(names, ShortWeekday(wd))
	}
	return json.Marshal(names)
}

// UnmarshalJSON decodes a list of day names
func (m *WeekdayMask) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return fmt.Errorf("weekdays: %w", err)
	}
	var out WeekdayMask
	for _, name := range names {
		wd, err := ParseWeekday(name)
		if err != nil {
			return err
		}
		out = out.With(wd)
	}
	*m = out
	return nil
}
