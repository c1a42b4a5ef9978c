package protocol

// Subsystem is a category of server state an idle notification can
// report. The declaration order is the order `changed:` lines are
// emitted in.
type Subsystem int

const (
	// SubsystemDatabase: the song database has been modified.
	SubsystemDatabase Subsystem = iota
	// SubsystemMessage: a message was received on a subscribed channel.
	SubsystemMessage
	// SubsystemMixer: the volume has been changed.
	SubsystemMixer
	// SubsystemMount: the mount list has changed.
	SubsystemMount
	// SubsystemNeighbor: a neighbor was found or lost.
	SubsystemNeighbor
	// SubsystemOptions: repeat, random, single, consume or similar changed.
	SubsystemOptions
	// SubsystemOutput: an audio output has been changed.
	SubsystemOutput
	// SubsystemPartition: a partition was added, removed or changed.
	SubsystemPartition
	// SubsystemPlayer: playback has been started, stopped, paused or seeked.
	SubsystemPlayer
	// SubsystemPlaylist: the queue has been modified.
	SubsystemPlaylist
	// SubsystemSticker: the sticker database has been modified.
	SubsystemSticker
	// SubsystemStoredPlaylist: a stored playlist has been modified.
	SubsystemStoredPlaylist
	// SubsystemSubscription: a client subscribed or unsubscribed.
	SubsystemSubscription
	// SubsystemUpdate: a database update has started or finished.
	SubsystemUpdate

	numSubsystems
)

var subsystemNames = [numSubsystems]string{
	SubsystemDatabase:       "database",
	SubsystemMessage:        "message",
	SubsystemMixer:          "mixer",
	SubsystemMount:          "mount",
	SubsystemNeighbor:       "neighbor",
	SubsystemOptions:        "options",
	SubsystemOutput:         "output",
	SubsystemPartition:      "partition",
	SubsystemPlayer:         "player",
	SubsystemPlaylist:       "playlist",
	SubsystemSticker:        "sticker",
	SubsystemStoredPlaylist: "stored_playlist",
	SubsystemSubscription:   "subscription",
	SubsystemUpdate:         "update",
}

func (s Subsystem) String() string {
	if s < 0 || s >= numSubsystems {
		return "unknown"
	}
	return subsystemNames[s]
}

// SubsystemFromName maps a wire name back to its subsystem.
func SubsystemFromName(name string) (Subsystem, bool) {
	for sub, n := range subsystemNames {
		if n == name {
			return Subsystem(sub), true
		}
	}
	return 0, false
}

// SubsystemSet is a set of subsystems. The zero value is the empty set.
type SubsystemSet uint16

// AllSubsystems contains every subsystem; an idle command with no
// arguments subscribes to it.
const AllSubsystems SubsystemSet = 1<<numSubsystems - 1

// NewSubsystemSet builds a set from its members.
func NewSubsystemSet(subs ...Subsystem) SubsystemSet {
	var set SubsystemSet
	for _, s := range subs {
		set = set.With(s)
	}
	return set
}

// With returns the set extended by s.
func (set SubsystemSet) With(s Subsystem) SubsystemSet {
	return set | 1<<uint(s)
}

// Has reports membership.
func (set SubsystemSet) Has(s Subsystem) bool {
	return set&(1<<uint(s)) != 0
}

// Intersect returns the members present in both sets.
func (set SubsystemSet) Intersect(other SubsystemSet) SubsystemSet {
	return set & other
}

// IsEmpty reports whether the set has no members.
func (set SubsystemSet) IsEmpty() bool {
	return set == 0
}

// Subsystems returns the members in declaration order.
func (set SubsystemSet) Subsystems() []Subsystem {
	var subs []Subsystem
	for s := Subsystem(0); s < numSubsystems; s++ {
		if set.Has(s) {
			subs = append(subs, s)
		}
	}
	return subs
}
