package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/existflow/mtc/internal/store"
)

// ErrSnapshotNotFound is returned by Get for a name never stored
var ErrSnapshotNotFound = errors.New("snapshot not found")

// Snapshot is one stored server list
type Snapshot struct {
	Name      string
	Data      []byte
	UpdatedAt time.Time
}

// SnapshotStore keeps the latest snapshot per name
type SnapshotStore interface {
	Get(ctx context.Context, name string) (Snapshot, error)
	Put(ctx context.Context, name string, data []byte) error
	Ping(ctx context.Context) error
	Close() error
}

// snapshotNames are the only names a client may use
var snapshotNames = map[string]bool{
	store.TodosFile:  true,
	store.TasksFile:  true,
	store.EventsFile: true,
}

// ValidName reports whether name is one of the list files
func ValidName(name string) bool {
	return snapshotNames[name]
}

// FileStore keeps snapshots as files in a directory, the same layout the ssh
// transport writes
type FileStore struct {
	dir string
}

// NewFileStore creates dir if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) Get(_ context.Context, name string) (Snapshot, error) {
	path := filepath.Join(f.dir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Snapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return Snapshot{}, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Name: name, Data: data, UpdatedAt: info.ModTime()}, nil
}

func (f *FileStore) Put(_ context.Context, name string, data []byte) error {
	return store.WriteAtomic(filepath.Join(f.dir, name), data, 0644)
}

func (f *FileStore) Ping(context.Context) error {
	_, err := os.Stat(f.dir)
	return err
}

func (f *FileStore) Close() error { return nil }
