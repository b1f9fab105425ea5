package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Todo is a short term item, optionally bound to one weekday
type Todo struct {
	Body    string
	Weekday *time.Weekday
	meta
}

// NewTodo creates a todo; weekday may be nil for "any day"
func NewTodo(body string, weekday *time.Weekday) Todo {
	return Todo{Body: body, Weekday: weekday}
}

func (t Todo) State() State { return t.state }
func (t Todo) ID() int      { return t.id }

// WithState returns a copy of t in the given state
func (t Todo) WithState(s State) Todo {
	t.state = s
	t.Weekday = copyWeekday(t.Weekday)
	return t
}

// WithID returns a copy of t with the given id
func (t Todo) WithID(id int) Todo {
	t.id = id
	t.Weekday = copyWeekday(t.Weekday)
	return t
}

// ForDate is true when no weekday is set or it matches date's weekday
func (t Todo) ForDate(date Date) bool {
	return t.Weekday == nil || *t.Weekday == date.Weekday()
}

// ContentEquals compares body and weekday, ignoring state and id
func (t Todo) ContentEquals(o Todo) bool {
	return t.Body == o.Body && sameWeekday(t.Weekday, o.Weekday)
}

// Expired is always false for todos
func (t Todo) Expired(Date) bool { return false }

// Less orders todos by body
func (t Todo) Less(o Todo) bool { return t.Body < o.Body }

func (t Todo) String() string {
	if t.Weekday == nil {
		return fmt.Sprintf("%d: %s", t.id, t.Body)
	}
	return fmt.Sprintf("%d: %s (%s)", t.id, t.Body, ShortWeekday(*t.Weekday))
}

func copyWeekday(wd *time.Weekday) *time.Weekday {
	if wd == nil {
		return nil
	}
	c := *wd
	return &c
}

func sameWeekday(a, b *time.Weekday) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

type todoJSON struct {
	Body    string `json:"body"`
	Weekday string `json:"weekday,omitempty"`
	State   State  `json:"state"`
	ID      int    `json:"id"`
}

// MarshalJSON encodes the todo with its state and id
func (t Todo) MarshalJSON() ([]byte, error) {
	out := todoJSON{Body: t.Body, State: t.state, ID: t.id}
	if t.Weekday != nil {
		out.Weekday = ShortWeekday(*t.Weekday)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a todo written by MarshalJSON
func (t *Todo) UnmarshalJSON(data []byte) error {
	var in todoJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	var weekday *time.Weekday
	if in.Weekday != "" {
		wd, err := ParseWeekday(in.Weekday)
		if err != nil {
			return err
		}
		weekday = &wd
	}
	*t = Todo{Body: in.Body, Weekday: weekday, meta: meta{state: in.State, id: in.ID}}
	return nil
}
