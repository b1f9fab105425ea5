// Package store keeps the three client containers as JSON files in the data
// directory.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/existflow/mtc/internal/container"
	"github.com/existflow/mtc/internal/model"
)

// File names, shared with the remote side
const (
	TodosFile  = "todos.json"
	TasksFile  = "tasks.json"
	EventsFile = "events.json"
)

// Items is the full local state of one client
type Items struct {
	Todos  *container.Container[model.Todo]
	Tasks  *container.Container[model.Task]
	Events *container.Container[model.Event]
}

// NewItems returns empty client containers
func NewItems() *Items {
	return &Items{
		Todos:  container.New[model.Todo](false),
		Tasks:  container.New[model.Task](false),
		Events: container.New[model.Event](false),
	}
}

// SyncSelf normalizes every container
func (i *Items) SyncSelf() {
	i.Todos.SyncSelf()
	i.Tasks.SyncSelf()
	i.Events.SyncSelf()
}

// HasRemoved reports whether any container holds Removed items
func (i *Items) HasRemoved() bool {
	return i.Todos.HasRemoved() || i.Tasks.HasRemoved() || i.Events.HasRemoved()
}

// Load reads the containers from dir. Missing files yield empty client
// containers.
func Load(dir string) (*Items, error) {
	items := NewItems()
	if err := readFile(filepath.Join(dir, TodosFile), items.Todos); err != nil {
		return nil, err
	}
	if err := readFile(filepath.Join(dir, TasksFile), items.Tasks); err != nil {
		return nil, err
	}
	if err := readFile(filepath.Join(dir, EventsFile), items.Events); err != nil {
		return nil, err
	}
	return items, nil
}

// Save writes every container to dir
func Save(dir string, items *Items) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := writeFile(filepath.Join(dir, TodosFile), items.Todos); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, TasksFile), items.Tasks); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, EventsFile), items.Events)
}

func readFile(path string, into json.Unmarshaler) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(b, into); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

func writeFile(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	return WriteAtomic(path, b, 0o644)
}

// WriteAtomic writes data next to path and renames it into place, so readers
// see either the old or the new content.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	tmp := fmt.Sprintf("%s.%s.tmp", path, uuid.NewString())
	if err := os.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
