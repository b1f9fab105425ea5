package model

import (
	"encoding/json"
	"fmt"
)

// Event happens once, on a given date
type Event struct {
	Body string
	Date Date
	meta
}

// NewEvent creates an event
func NewEvent(body string, date Date) Event {
	return Event{Body: body, Date: date}
}

func (e Event) State() State { return e.state }
func (e Event) ID() int      { return e.id }

// WithState returns a copy of e in the given state
func (e Event) WithState(s State) Event {
	e.state = s
	return e
}

// WithID returns a copy of e with the given id
func (e Event) WithID(id int) Event {
	e.id = id
	return e
}

// ForDate is true only on the event's own date
func (e Event) ForDate(date Date) bool {
	return e.Date.Equal(date)
}

// ContentEquals compares body and date
func (e Event) ContentEquals(o Event) bool {
	return e.Body == o.Body && e.Date.Equal(o.Date)
}

// Expired reports whether the event lies more than ExpiryDays before today
func (e Event) Expired(today Date) bool {
	return e.Date.Before(today.AddDays(-ExpiryDays))
}

// Less orders events by date, then body
func (e Event) Less(o Event) bool {
	if !e.Date.Equal(o.Date) {
		return e.Date.Before(o.Date)
	}
	return e.Body < o.Body
}

func (e Event) String() string {
	return fmt.Sprintf("%d: %s %s", e.id, e.Date, e.Body)
}

type eventJSON struct {
	Body  string `json:"body"`
	Date  Date   `json:"date"`
	State State  `json:"state"`
	ID    int    `json:"id"`
}

// MarshalJSON encodes the event with its state and id
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal(eventJSON{Body: e.Body, Date: e.Date, State: e.state, ID: e.id})
}

// UnmarshalJSON decodes an event written by MarshalJSON
func (e *Event) UnmarshalJSON(data []byte) error {
	var in eventJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*e = Event{Body: in.Body, Date: in.Date, meta: meta{state: in.State, id: in.ID}}
	return nil
}
