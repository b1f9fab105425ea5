package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Task is a repeating piece of work with a duration in minutes
type Task struct {
	Body     string
	Weekdays WeekdayMask
	Duration uint32
	meta
}

// NewTask creates a task; an empty mask means every day
func NewTask(body string, duration uint32, weekdays WeekdayMask) Task {
	return Task{Body: body, Weekdays: weekdays, Duration: duration}
}

func (t Task) State() State { return t.state }
func (t Task) ID() int      { return t.id }

// WithState returns a copy of t in the given state
func (t Task) WithState(s State) Task {
	t.state = s
	return t
}

// WithID returns a copy of t with the given id
func (t Task) WithID(id int) Task {
	t.id = id
	return t
}

// ForDate is true when the mask is empty or contains date's weekday
func (t Task) ForDate(date Date) bool {
	return t.Weekdays.Empty() || t.Weekdays.Has(date.Weekday())
}

// ContentEquals compares body, weekdays and duration
func (t Task) ContentEquals(o Task) bool {
	return t.Body == o.Body && t.Weekdays == o.Weekdays && t.Duration == o.Duration
}

// Expired is always false for tasks
func (t Task) Expired(Date) bool { return false }

// Less orders tasks by body
func (t Task) Less(o Task) bool { return t.Body < o.Body }

// Length returns the duration as a time.Duration
func (t Task) Length() time.Duration {
	return time.Duration(t.Duration) * time.Minute
}

func (t Task) String() string {
	return fmt.Sprintf("%d: %s, %d min (%s)", t.id, t.Body, t.Duration, t.Weekdays)
}

type taskJSON struct {
	Body     string      `json:"body"`
	Weekdays WeekdayMask `json:"weekdays"`
	Duration uint32      `json:"duration"`
	State    State       `json:"state"`
	ID       int         `json:"id"`
}

// MarshalJSON encodes the task with its state and id
func (t Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(taskJSON{
		Body:     t.Body,
		Weekdays: t.Weekdays,
		Duration: t.Duration,
		State:    t.state,
		ID:       t.id,
	})
}

// UnmarshalJSON decodes a task written by MarshalJSON
func (t *Task) UnmarshalJSON(data []byte) error {
	var in taskJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*t = Task{
		Body:     in.Body,
		Weekdays: in.Weekdays,
		Duration: in.Duration,
		meta:     meta{state: in.State, id: in.ID},
	}
	return nil
}
