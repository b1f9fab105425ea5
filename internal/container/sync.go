package container

import (
	"errors"
	"fmt"

	"github.com/existflow/mtc/internal/model"
)

// ErrPrecondition describes a Sync call without exactly one server container.
// Sync panics with an error wrapping it.
var ErrPrecondition = errors.New("sync needs exactly one server container")

// Report counts what a Sync changed
type Report struct {
	Pushed        int // client additions copied to the server
	Pulled        int // server items copied to the client
	RemovedRemote int // server items removed on behalf of the client
	DroppedLocal  int // client items dropped because the server no longer has them
}

// Changed reports whether the sync moved anything across
func (r Report) Changed() bool {
	return r.Pushed+r.Pulled+r.RemovedRemote+r.DroppedLocal > 0
}

// Add sums two reports
func (r Report) Add(o Report) Report {
	return Report{
		Pushed:        r.Pushed + o.Pushed,
		Pulled:        r.Pulled + o.Pulled,
		RemovedRemote: r.RemovedRemote + o.RemovedRemote,
		DroppedLocal:  r.DroppedLocal + o.DroppedLocal,
	}
}

// Sync reconciles a client container with a server container. The arguments
// may come in either order; exactly one of them must be the server, anything
// else is a programming error and panics before either side is touched.
//
// Matching is by ContentEquals only and always takes the first live match, so
// one client removal deletes at most one server duplicate. Both containers end
// normalized by SyncSelf.
func Sync[T Item[T]](a, b *Container[T]) Report {
	if a.isServer == b.isServer {
		panic(fmt.Errorf("%w: got is_server=%v and is_server=%v", ErrPrecondition, a.isServer, b.isServer))
	}
	client, server := a, b
	if client.isServer {
		client, server = b, a
	}

	var report Report

	// Client removals land on the server first, so the back-fill below cannot
	// bring a removed item back.
	for _, item := range client.items {
		if item.State() != model.StateRemoved {
			continue
		}
		if i := server.indexOf(item); i >= 0 {
			server.items[i] = server.items[i].WithState(model.StateRemoved)
			report.RemovedRemote++
		}
	}

	// Settled client items the server no longer has were deleted elsewhere.
	for i, item := range client.items {
		if item.State() != model.StateNeutral {
			continue
		}
		if server.indexOf(item) < 0 {
			client.items[i] = item.WithState(model.StateRemoved)
			report.DroppedLocal++
		}
	}

	for _, item := range client.items {
		if item.State() == model.StateNew {
			server.Add(item)
			report.Pushed++
		}
	}

	// Back-fill the client with what only the server has. Items added here
	// are New until SyncSelf below settles them.
	for _, item := range server.items {
		if item.State() == model.StateRemoved {
			continue
		}
		if client.indexOf(item) < 0 {
			client.Add(item)
			report.Pulled++
		}
	}

	client.SyncSelf()
	server.SyncSelf()
	return report
}
