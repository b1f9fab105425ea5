package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/existflow/mtc/internal/model"
)

func TestLoadEmptyDir(t *testing.T) {
	items, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if items.Todos.IsServer() || items.Tasks.IsServer() || items.Events.IsServer() {
		t.Error("fresh containers must be clients")
	}
	if items.Todos.Len()+items.Tasks.Len()+items.Events.Len() != 0 {
		t.Error("fresh containers must be empty")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	sat := time.Saturday

	items := NewItems()
	items.Todos.Add(model.NewTodo("laundry", &sat))
	items.Todos.Add(model.NewTodo("call mom", nil))
	items.Tasks.Add(model.NewTask("piano", 30, model.MaskOf(time.Monday)))
	items.Events.Add(model.NewEvent("concert", model.NewDate(2026, time.December, 1)))
	if err := items.Todos.MarkRemoved(1); err != nil {
		t.Fatal(err)
	}

	if err := Save(dir, items); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Todos.Len() != 2 {
		t.Fatalf("todos Len = %d, want 2 (removed slot kept)", loaded.Todos.Len())
	}
	if _, ok := loaded.Todos.GetByID(1); ok {
		t.Error("removed state lost in round trip")
	}
	todo, ok := loaded.Todos.GetByID(0)
	if !ok || todo.State() != model.StateNew || todo.Weekday == nil || *todo.Weekday != time.Saturday {
		t.Errorf("todo round trip mismatch: %+v", todo)
	}
	task, _ := loaded.Tasks.GetByID(0)
	if task.Duration != 30 || !task.Weekdays.Has(time.Monday) {
		t.Errorf("task round trip mismatch: %+v", task)
	}

	entries, _ := os.ReadDir(dir)
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestLoadCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, TasksFile), []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(dir)
	if err == nil || !strings.Contains(err.Error(), TasksFile) {
		t.Errorf("Load error = %v, want parse error naming %s", err, TasksFile)
	}
}

func TestLockDirExcludesSecondHolder(t *testing.T) {
	dir := t.TempDir()
	first, err := LockDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("LockDir: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := LockDir(ctx, dir); !errors.Is(err, ErrLocked) {
		t.Fatalf("second LockDir = %v, want ErrLocked", err)
	}

	if err := first.Unlock(); err != nil {
		t.Fatal(err)
	}
	if err := first.Unlock(); err != nil {
		t.Errorf("second Unlock = %v", err)
	}
	second, err := LockDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("LockDir after Unlock: %v", err)
	}
	second.Unlock()
}

// A writer that loads, changes and saves under the lock cannot lose an item
// added by another writer in between.
func TestLockedWritersDoNotLoseItems(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	adder, err := LockDir(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		lock, err := LockDir(ctx, dir)
		if err != nil {
			done <- err
			return
		}
		defer lock.Unlock()
		items, err := Load(dir)
		if err != nil {
			done <- err
			return
		}
		items.SyncSelf()
		done <- Save(dir, items)
	}()

	items, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	items.Todos.Add(model.NewTodo("added meanwhile", nil))
	if err := Save(dir, items); err != nil {
		t.Fatal(err)
	}
	adder.Unlock()

	if err := <-done; err != nil {
		t.Fatalf("locked writer: %v", err)
	}
	final, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got := final.Todos.Items(); len(got) != 1 || got[0].Body != "added meanwhile" {
		t.Errorf("todos after both writers = %+v", got)
	}
}

func TestHasRemoved(t *testing.T) {
	items := NewItems()
	items.Tasks.Add(model.NewTask("read", 20, 0))
	if items.HasRemoved() {
		t.Error("nothing removed yet")
	}
	items.Tasks.MarkRemoved(0)
	if !items.HasRemoved() {
		t.Error("removed task not reported")
	}
}
