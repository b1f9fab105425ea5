package container

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/existflow/mtc/internal/model"
)

func todo(body string) model.Todo {
	return model.NewTodo(body, nil)
}

func clientOf(bodies ...string) *Container[model.Todo] {
	c := New[model.Todo](false)
	for _, b := range bodies {
		c.Add(todo(b))
	}
	return c
}

func serverOf(bodies ...string) *Container[model.Todo] {
	c := New[model.Todo](true)
	for _, b := range bodies {
		c.Add(todo(b))
	}
	return c
}

func bodies(c *Container[model.Todo]) []string {
	var out []string
	for _, item := range c.Items() {
		out = append(out, item.Body)
	}
	return out
}

// assertSettled checks the post-normalization invariants: no Removed items,
// dense ids and every item Neutral.
func assertSettled(t *testing.T, c *Container[model.Todo]) {
	t.Helper()
	for i, item := range c.items {
		if item.State() != model.StateNeutral {
			t.Errorf("item %d (%s) state = %s, want Neutral", i, item.Body, item.State())
		}
		if item.ID() != i {
			t.Errorf("item %q id = %d, want %d", item.Body, item.ID(), i)
		}
	}
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAddStampsStateAndID(t *testing.T) {
	client := New[model.Todo](false)
	server := New[model.Todo](true)

	for i := 0; i < 3; i++ {
		if id := client.Add(todo("c")); id != i {
			t.Errorf("client Add returned %d, want %d", id, i)
		}
		if id := server.Add(todo("s")); id != i {
			t.Errorf("server Add returned %d, want %d", id, i)
		}
	}

	for _, item := range client.Items() {
		if item.State() != model.StateNew {
			t.Errorf("client item state = %s, want New", item.State())
		}
	}
	for _, item := range server.Items() {
		if item.State() != model.StateNeutral {
			t.Errorf("server item state = %s, want Neutral", item.State())
		}
	}
}

func TestMarkRemovedClient(t *testing.T) {
	c := clientOf("a", "b", "c")

	if err := c.MarkRemoved(1); err != nil {
		t.Fatalf("MarkRemoved(1): %v", err)
	}
	if c.Len() != 3 {
		t.Errorf("client should keep the slot, Len = %d", c.Len())
	}
	if _, ok := c.GetByID(1); ok {
		t.Error("GetByID on a removed item should report false")
	}
	if item, ok := c.GetByID(2); !ok || item.Body != "c" {
		t.Errorf("GetByID(2) = %v, %v; ids of other items must hold", item, ok)
	}
	if got := bodies(c); !equalStrings(got, []string{"a", "c"}) {
		t.Errorf("Items() = %v", got)
	}

	err := c.MarkRemoved(1)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("second MarkRemoved(1) = %v, want ErrNotFound", err)
	}
}

func TestMarkRemovedServer(t *testing.T) {
	s := serverOf("a", "b", "c")

	if err := s.MarkRemoved(0); err != nil {
		t.Fatalf("MarkRemoved(0): %v", err)
	}
	if s.Len() != 2 {
		t.Fatalf("server should delete at once, Len = %d", s.Len())
	}
	for i, item := range s.Items() {
		if item.ID() != i {
			t.Errorf("item %q id = %d, want %d", item.Body, item.ID(), i)
		}
	}
	if item, _ := s.GetByID(0); item.Body != "b" {
		t.Errorf("GetByID(0) = %q, want b", item.Body)
	}
}

func TestMarkRemovedOutOfRange(t *testing.T) {
	for _, c := range []*Container[model.Todo]{clientOf("a"), serverOf("a")} {
		for _, id := range []int{-1, 1, 100} {
			if err := c.MarkRemoved(id); !errors.Is(err, ErrNotFound) {
				t.Errorf("MarkRemoved(%d) = %v, want ErrNotFound", id, err)
			}
		}
		if c.Len() != 1 {
			t.Error("failed MarkRemoved must leave the container unchanged")
		}
	}
}

func TestSyncSelfIdempotent(t *testing.T) {
	c := clientOf("a", "b", "c", "d")
	_ = c.MarkRemoved(0)
	_ = c.MarkRemoved(2)

	c.SyncSelf()
	assertSettled(t, c)
	once := bodies(c)

	c.SyncSelf()
	assertSettled(t, c)
	if twice := bodies(c); !equalStrings(once, twice) {
		t.Errorf("SyncSelf not idempotent: %v then %v", once, twice)
	}
	if !equalStrings(once, []string{"b", "d"}) {
		t.Errorf("SyncSelf kept %v, want [b d]", once)
	}
}

func TestRemoveExpired(t *testing.T) {
	today := model.NewDate(2026, time.October, 18)
	c := New[model.Event](false)
	c.Add(model.NewEvent("old", today.AddDays(-4)))
	c.Add(model.NewEvent("edge", today.AddDays(-3)))
	c.Add(model.NewEvent("soon", today.AddDays(1)))

	if n := c.RemoveExpired(today); n != 1 {
		t.Errorf("RemoveExpired flagged %d, want 1", n)
	}
	if c.Len() != 3 {
		t.Error("RemoveExpired must not compact")
	}
	c.SyncSelf()

	var got []string
	for _, e := range c.Items() {
		got = append(got, e.Body)
	}
	if !equalStrings(got, []string{"edge", "soon"}) {
		t.Errorf("after expiry sweep got %v, want [edge soon]", got)
	}
}

func TestItemsForDateAndWeekday(t *testing.T) {
	mon := time.Monday
	c := New[model.Todo](false)
	c.Add(model.NewTodo("any", nil))
	c.Add(model.NewTodo("monday", &mon))
	c.Add(model.NewTodo("gone", nil))
	_ = c.MarkRemoved(2)

	// 2021-12-07 was a Tuesday
	tuesday := model.NewDate(2021, time.December, 7)
	if got := c.ItemsForDate(tuesday); len(got) != 1 || got[0].Body != "any" {
		t.Errorf("ItemsForDate(Tue) = %v", got)
	}
	if got := c.ItemsForWeekday(time.Monday, tuesday); len(got) != 2 {
		t.Errorf("ItemsForWeekday(Mon) = %v", got)
	}
}

func TestContainerJSONRoundTrip(t *testing.T) {
	c := clientOf("a", "b")
	_ = c.MarkRemoved(0)

	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	restored := New[model.Todo](true)
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if restored.IsServer() {
		t.Error("role not restored")
	}
	if restored.Len() != 2 {
		t.Fatalf("Len = %d, want 2", restored.Len())
	}
	for i := range c.items {
		want, got := c.items[i], restored.items[i]
		if !got.ContentEquals(want) || got.State() != want.State() || got.ID() != want.ID() {
			t.Errorf("item %d: got %+v, want %+v", i, got, want)
		}
	}
}

func TestCloneAs(t *testing.T) {
	c := clientOf("a")
	c.SyncSelf()
	s := c.CloneAs(true)
	if !s.IsServer() || c.IsServer() {
		t.Fatal("CloneAs must set the role on the copy only")
	}
	s.Add(todo("b"))
	if c.Len() != 1 {
		t.Error("CloneAs must not share the backing slice")
	}
}

func TestCloneAsCopiesWeekday(t *testing.T) {
	wd := time.Tuesday
	c := New[model.Todo](false)
	c.Add(model.NewTodo("swim", &wd))

	clone := c.CloneAs(true)
	*clone.items[0].Weekday = time.Sunday
	if got := *c.items[0].Weekday; got != time.Tuesday {
		t.Errorf("original weekday changed through the clone: %s", got)
	}
}
