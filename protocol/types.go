package protocol

import "time"

// State is the playback state reported in status.
type State int

const (
	StateStop State = iota
	StatePlay
	StatePause
)

func (s State) String() string {
	switch s {
	case StatePlay:
		return "play"
	case StatePause:
		return "pause"
	}
	return "stop"
}

// Status mirrors the fields of the MPD status response. Pointer fields
// are omitted from the encoded response when nil; this is how missing
// backend data degrades instead of failing the command.
type Status struct {
	Volume         *int
	Repeat         *bool
	Random         *bool
	Single         *bool
	Consume        *bool
	Playlist       *int // queue version
	PlaylistLength *int
	State          State
	Song           *int
	SongID         *int
	NextSong       *int
	NextSongID     *int
	Elapsed        *time.Duration
	Duration       *time.Duration
	Xfade          *int
	MixRampDB      *float64
	MixRampDelay   *int
}

// Song is one library or queue entry's metadata.
type Song struct {
	Path         string
	LastModified *time.Time
	Format       string
	Duration     *int // seconds
	Tags         []Tag
}

// QueueEntry is a song at a position in the queue.
type QueueEntry struct {
	Song     Song
	ID       int
	Position int
}

// LibraryEntry is either a directory or a song, as listed by lsinfo.
type LibraryEntry interface {
	libraryEntry()
}

// DirEntry is a directory in the virtual library tree.
type DirEntry struct {
	Path         string
	LastModified *time.Time
}

// FileEntry is a playable file in the virtual library tree.
type FileEntry struct {
	Song Song
}

func (DirEntry) libraryEntry()  {}
func (FileEntry) libraryEntry() {}
