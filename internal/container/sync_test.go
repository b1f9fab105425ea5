package container

import (
	"errors"
	"sort"
	"testing"

	"github.com/existflow/mtc/internal/model"
)

func sorted(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func TestSyncScenario(t *testing.T) {
	client := clientOf("A", "B", "C")
	client.SyncSelf()
	client.Add(todo("D"))
	if err := client.MarkRemoved(1); err != nil {
		t.Fatalf("MarkRemoved: %v", err)
	}
	server := serverOf("A", "B", "E")

	report := Sync(client, server)

	want := []string{"A", "D", "E"}
	if got := sorted(bodies(client)); !equalStrings(got, want) {
		t.Errorf("client = %v, want %v", got, want)
	}
	if got := sorted(bodies(server)); !equalStrings(got, want) {
		t.Errorf("server = %v, want %v", got, want)
	}
	assertSettled(t, client)
	assertSettled(t, server)

	wantReport := Report{Pushed: 1, Pulled: 1, RemovedRemote: 1, DroppedLocal: 1}
	if report != wantReport {
		t.Errorf("report = %+v, want %+v", report, wantReport)
	}
}

func TestSyncArgumentOrder(t *testing.T) {
	client := clientOf("x")
	server := serverOf("y")

	Sync(server, client)

	if got := sorted(bodies(client)); !equalStrings(got, []string{"x", "y"}) {
		t.Errorf("client = %v", got)
	}
	if got := sorted(bodies(server)); !equalStrings(got, []string{"x", "y"}) {
		t.Errorf("server = %v", got)
	}
}

func TestSyncPreconditionPanics(t *testing.T) {
	tests := []struct {
		name string
		a, b *Container[model.Todo]
	}{
		{"both servers", serverOf("a"), serverOf("b")},
		{"neither server", clientOf("a"), clientOf("b")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				r := recover()
				if r == nil {
					t.Fatal("expected panic")
				}
				err, ok := r.(error)
				if !ok || !errors.Is(err, ErrPrecondition) {
					t.Errorf("panic value = %v, want ErrPrecondition", r)
				}
				if tt.a.Len() != 1 || tt.b.Len() != 1 {
					t.Error("containers must be untouched")
				}
			}()
			Sync(tt.a, tt.b)
		})
	}
}

func TestSyncIdempotent(t *testing.T) {
	client := clientOf("A", "B", "B")
	client.SyncSelf()
	client.Add(todo("C"))
	_ = client.MarkRemoved(0)
	server := serverOf("A", "B", "Z", "Z")

	Sync(client, server)
	firstClient, firstServer := bodies(client), bodies(server)

	report := Sync(client, server)
	if report.Changed() {
		t.Errorf("second sync changed something: %+v", report)
	}
	if got := bodies(client); !equalStrings(got, firstClient) {
		t.Errorf("client changed: %v -> %v", firstClient, got)
	}
	if got := bodies(server); !equalStrings(got, firstServer) {
		t.Errorf("server changed: %v -> %v", firstServer, got)
	}
}

func TestSyncRemovalPropagation(t *testing.T) {
	client := clientOf("X", "Y")
	client.SyncSelf()
	server := serverOf("X", "Y")

	if err := client.MarkRemoved(0); err != nil {
		t.Fatal(err)
	}
	Sync(client, server)

	for _, c := range []*Container[model.Todo]{client, server} {
		for _, item := range c.Items() {
			if item.Body == "X" {
				t.Errorf("X survived removal in container (server=%v)", c.IsServer())
			}
		}
	}
}

func TestSyncRemovalHitsOneDuplicate(t *testing.T) {
	client := clientOf("D")
	client.SyncSelf()
	_ = client.MarkRemoved(0)
	server := serverOf("D", "D", "D")

	report := Sync(client, server)

	if report.RemovedRemote != 1 {
		t.Errorf("RemovedRemote = %d, want 1", report.RemovedRemote)
	}
	if n := len(server.Items()); n != 2 {
		t.Errorf("server kept %d duplicates, want 2", n)
	}
	// The client is back-filled with a single copy.
	if got := bodies(client); !equalStrings(got, []string{"D"}) {
		t.Errorf("client = %v, want [D]", got)
	}
}

func TestSyncRemovalOfUnknownItemIsNoop(t *testing.T) {
	client := clientOf("ghost", "kept")
	client.SyncSelf()
	_ = client.MarkRemoved(0)
	server := serverOf("kept")

	report := Sync(client, server)

	if report.RemovedRemote != 0 {
		t.Errorf("RemovedRemote = %d, want 0", report.RemovedRemote)
	}
	if got := bodies(server); !equalStrings(got, []string{"kept"}) {
		t.Errorf("server = %v", got)
	}
}

func TestSyncAdditionPropagation(t *testing.T) {
	client := New[model.Task](false)
	client.Add(model.NewTask("run", 30, model.MaskOf(1, 3)))
	server := New[model.Task](true)
	server.Add(model.NewTask("read", 20, 0))

	Sync(client, server)

	has := func(c *Container[model.Task], body string) bool {
		for _, item := range c.Items() {
			if item.Body == body {
				return true
			}
		}
		return false
	}
	if !has(server, "run") {
		t.Error("new client task missing on server")
	}
	if !has(client, "read") {
		t.Error("new server task missing on client")
	}
}

func TestSyncDropsItemsDeletedElsewhere(t *testing.T) {
	client := clientOf("keep", "deleted-elsewhere")
	client.SyncSelf()
	server := serverOf("keep")

	report := Sync(client, server)

	if report.DroppedLocal != 1 {
		t.Errorf("DroppedLocal = %d, want 1", report.DroppedLocal)
	}
	if got := bodies(client); !equalStrings(got, []string{"keep"}) {
		t.Errorf("client = %v", got)
	}
}

func TestSyncReAddAfterRemoveKeepsOneCopy(t *testing.T) {
	client := clientOf("A")
	client.SyncSelf()
	_ = client.MarkRemoved(0)
	client.Add(todo("A"))
	server := serverOf("A")

	Sync(client, server)

	if got := bodies(client); !equalStrings(got, []string{"A"}) {
		t.Errorf("client = %v, want [A]", got)
	}
	if got := bodies(server); !equalStrings(got, []string{"A"}) {
		t.Errorf("server = %v, want [A]", got)
	}
}

func TestSyncNoFanOut(t *testing.T) {
	client := clientOf("A", "A")
	server := serverOf("A", "B")

	Sync(client, server)

	count := func(c *Container[model.Todo], body string) int {
		n := 0
		for _, item := range c.Items() {
			if item.Body == body {
				n++
			}
		}
		return n
	}
	// B is pulled exactly once and the client keeps its own two copies of A.
	if n := count(client, "B"); n != 1 {
		t.Errorf("client has %d B, want 1", n)
	}
	if n := count(client, "A"); n != 2 {
		t.Errorf("client has %d A, want 2", n)
	}
}

func TestSyncEventsWithExpiry(t *testing.T) {
	today := model.NewDate(2026, 10, 18)
	client := New[model.Event](false)
	client.Add(model.NewEvent("old", today.AddDays(-10)))
	client.Add(model.NewEvent("new", today.AddDays(2)))
	client.SyncSelf()
	server := client.CloneAs(true)

	client.RemoveExpired(today)
	Sync(client, server)

	for _, c := range []*Container[model.Event]{client, server} {
		items := c.Items()
		if len(items) != 1 || items[0].Body != "new" {
			t.Errorf("container (server=%v) = %v, want only the upcoming event", c.IsServer(), items)
		}
	}
}
