package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/existflow/mtc/internal/container"
)

// SyncRemote reconciles client with the server container stored under name.
// With overwrite set the remote is replaced by the normalized client instead.
//
// client is only modified once the new server state has been stored, so a
// failed run leaves it as it was.
func SyncRemote[T container.Item[T]](ctx context.Context, t Transport, codec Codec, client *container.Container[T], name string, overwrite bool) (container.Report, error) {
	if client.IsServer() {
		return container.Report{}, fmt.Errorf("%s: local list is marked as a server list", name)
	}
	if codec == nil {
		codec = Plain{}
	}

	work := client.CloneAs(false)

	if overwrite {
		work.SyncSelf()
		if err := push(ctx, t, codec, work.CloneAs(true), name); err != nil {
			return container.Report{}, err
		}
		*client = *work
		return container.Report{Pushed: work.Len()}, nil
	}

	server, err := fetch[T](ctx, t, codec, name)
	if err != nil {
		return container.Report{}, err
	}

	report := container.Sync(work, server)
	if err := push(ctx, t, codec, server, name); err != nil {
		return container.Report{}, err
	}
	*client = *work
	return report, nil
}

func fetch[T container.Item[T]](ctx context.Context, t Transport, codec Codec, name string) (*container.Container[T], error) {
	stored, err := t.Fetch(ctx, name)
	if errors.Is(err, ErrRemoteNotFound) {
		return nil, fmt.Errorf("%w; run 'mtc sync overwrite' to create it", err)
	}
	if err != nil {
		return nil, err
	}

	data, err := codec.Decode(stored)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	server := container.New[T](true)
	if err := json.Unmarshal(data, server); err != nil {
		return nil, fmt.Errorf("failed to parse remote %s: %w", name, err)
	}
	if !server.IsServer() {
		return nil, fmt.Errorf("remote %s is not a server list", name)
	}
	return server, nil
}

func push[T container.Item[T]](ctx context.Context, t Transport, codec Codec, server *container.Container[T], name string) error {
	data, err := json.Marshal(server)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	stored, err := codec.Encode(data)
	if err != nil {
		return err
	}
	return t.Store(ctx, name, stored)
}
