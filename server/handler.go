package server

import (
	"context"
	"net"
	"time"

	"github.com/marmeladema/kodimpd/protocol"
)

// CommandHandler is the backend a session drives. The session owns the
// wire protocol; the handler owns the semantics. Every method takes a
// context derived from the connection's; a handler must return promptly
// once it is canceled.
//
// Handlers signal protocol-level failures by returning a *protocol.Ack
// (possibly wrapped); any other error is reported to the client as a
// system error.
type CommandHandler interface {
	// Status reports the current playback state. Fields the backend
	// cannot determine are left nil and omitted from the response.
	Status(ctx context.Context) (*protocol.Status, error)

	// CurrentSong returns the playing or paused queue entry, or nil
	// when playback is stopped.
	CurrentSong(ctx context.Context) (*protocol.QueueEntry, error)

	// Playback control.
	Play(ctx context.Context, pos *int) error
	PlayID(ctx context.Context, id *int) error
	Pause(ctx context.Context, toggle *bool) error
	Stop(ctx context.Context) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Seek(ctx context.Context, pos int, offset time.Duration) error
	SeekID(ctx context.Context, id int, offset time.Duration) error
	SeekCurrent(ctx context.Context, offset time.Duration) error

	// Playback options.
	Random(ctx context.Context, state bool) error
	Repeat(ctx context.Context, state bool) error
	Single(ctx context.Context, state bool) error
	Consume(ctx context.Context, state bool) error
	Volume(ctx context.Context) (int, error)
	SetVolume(ctx context.Context, volume int) error

	// Queue management. QueueAdd returns the id assigned to the first
	// added song. A nil rng in QueueList means the whole queue.
	QueueList(ctx context.Context, rng *protocol.Range) ([]protocol.QueueEntry, error)
	QueueGet(ctx context.Context, id int) (*protocol.QueueEntry, error)
	QueueAdd(ctx context.Context, uri string, pos *int) (int, error)
	QueueDelete(ctx context.Context, rng protocol.Range) error
	QueueDeleteID(ctx context.Context, id int) error
	QueueMove(ctx context.Context, from protocol.Range, to int) error
	QueueMoveID(ctx context.Context, id, to int) error
	QueueSwap(ctx context.Context, pos1, pos2 int) error
	QueueSwapID(ctx context.Context, id1, id2 int) error
	QueueClear(ctx context.Context) error

	// Library browsing and lookup.
	ListDirectory(ctx context.Context, uri string) ([]protocol.LibraryEntry, error)
	Find(ctx context.Context, filters []protocol.TagFilter) ([]protocol.Song, error)
	Search(ctx context.Context, filters []protocol.TagFilter) ([]protocol.Song, error)
	List(ctx context.Context, tag protocol.TagType, filters []protocol.TagFilter, groups []protocol.TagType) ([]protocol.Tag, error)
	Update(ctx context.Context, uri string) (int, error)

	// Idle blocks until at least one of the wanted subsystems changes,
	// then returns the changed subset. When ctx is canceled before any
	// change it returns the empty set and ctx.Err().
	Idle(ctx context.Context, wanted protocol.SubsystemSet) (protocol.SubsystemSet, error)

	// Close releases per-connection resources. It is called exactly
	// once, after the connection is torn down.
	Close() error
}

// HandlerFactory builds one CommandHandler per accepted connection.
// Handlers are never shared between connections.
type HandlerFactory func(conn net.Conn) CommandHandler
