package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/existflow/mtc/internal/model"
)

// Item kinds as typed on the command line
const (
	kindTodo  = "todo"
	kindTask  = "task"
	kindEvent = "event"
)

// parseKind accepts singular and plural kind names
func parseKind(s string) (string, error) {
	switch strings.ToLower(s) {
	case "todo", "todos":
		return kindTodo, nil
	case "task", "tasks":
		return kindTask, nil
	case "event", "events":
		return kindEvent, nil
	}
	return "", fmt.Errorf("unknown item type %q (want todo, task or event)", s)
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// joinBody joins the remaining words into an item body
func joinBody(args []string) (string, error) {
	body := strings.TrimSpace(strings.Join(args, " "))
	if body == "" {
		return "", errors.New("empty body")
	}
	return body, nil
}

// parseOptionalWeekday returns nil for "", "any" and "none"
func parseOptionalWeekday(s string) (*time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "any", "none":
		return nil, nil
	}
	wd, err := model.ParseWeekday(s)
	if err != nil {
		return nil, err
	}
	return &wd, nil
}

// parseWeekdays accepts a day list, "daily" or "every" for the empty mask
func parseWeekdays(s string) (model.WeekdayMask, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "every", "all":
		return 0, nil
	}
	return model.ParseWeekdayMask(s)
}

func parseDuration(s string) (uint32, error) {
	if d, err := time.ParseDuration(s); err == nil {
		if d < time.Minute {
			return 0, fmt.Errorf("duration %s is shorter than a minute", d)
		}
		return uint32(d / time.Minute), nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid duration %q (minutes, or e.g. 1h30m)", s)
	}
	return uint32(n), nil
}

// parseDate understands today, tomorrow, +N days, a weekday name (its next
// occurrence) and YYYY-MM-DD
func parseDate(s string, today model.Date) (model.Date, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return model.Date{}, errors.New("missing date")
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDays(1), nil
	}
	if strings.HasPrefix(s, "+") {
		n, err := strconv.Atoi(s[1:])
		if err != nil || n < 0 {
			return model.Date{}, fmt.Errorf("invalid day offset %q", s)
		}
		return today.AddDays(n), nil
	}
	if wd, err := model.ParseWeekday(s); err == nil {
		return model.NextOccurrence(wd, today), nil
	}
	return model.ParseDate(s)
}
