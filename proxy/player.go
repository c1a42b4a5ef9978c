package proxy

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/marmeladema/kodimpd/kodi"
	"github.com/marmeladema/kodimpd/protocol"
)

// audioPlaylistID is Kodi's conventional playlist for music. It is
// replaced by whatever the active audio player actually reports.
const audioPlaylistID = 0

// Player polls Kodi and caches the state all connections share. Kodi
// has no push channel, so subsystem change notifications are derived
// by diffing consecutive polls; per-subsystem event counters let each
// connection track what it has already reported.
type Player struct {
	kodi     *kodi.Client
	log      *slog.Logger
	interval time.Duration

	mu         sync.RWMutex
	playerID   int // -1 when no audio player is active
	playlistID int
	app        kodi.ApplicationProperties
	props      kodi.PlayerProperties
	items      []kodi.ListItem
	updateJob  int
	events     map[protocol.Subsystem]uint64
	notify     chan struct{}
}

func NewPlayer(client *kodi.Client, interval time.Duration, log *slog.Logger) *Player {
	return &Player{
		kodi:       client,
		log:        log,
		interval:   interval,
		playerID:   -1,
		playlistID: audioPlaylistID,
		events:     make(map[protocol.Subsystem]uint64),
		notify:     make(chan struct{}),
	}
}

// Run polls Kodi until ctx is canceled.
func (p *Player) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Refresh(ctx)
		}
	}
}

// Refresh fetches the current Kodi state, diffs it against the cached
// one and fires subsystem events for what changed. A failed poll is
// logged and skipped; the next tick retries.
func (p *Player) Refresh(ctx context.Context) {
	app, err := p.kodi.ApplicationGetProperties(ctx)
	if err != nil {
		p.log.Warn("poll: application properties", "error", err)
		return
	}

	playerID := -1
	players, err := p.kodi.PlayerGetActivePlayers(ctx)
	if err != nil {
		p.log.Warn("poll: active players", "error", err)
		return
	}
	for _, pl := range players {
		if pl.Type == kodi.PlayerAudio {
			playerID = pl.PlayerID
			break
		}
	}

	props := kodi.PlayerProperties{
		Position:   -1,
		Repeat:     kodi.RepeatOff,
		PlaylistID: p.PlaylistID(),
	}
	if playerID >= 0 {
		got, err := p.kodi.PlayerGetProperties(ctx, playerID)
		if err != nil {
			p.log.Warn("poll: player properties", "error", err, "player", playerID)
			return
		}
		props = *got
	}

	items, err := p.kodi.PlaylistGetItems(ctx, props.PlaylistID)
	if err != nil {
		p.log.Warn("poll: playlist items", "error", err, "playlist", props.PlaylistID)
		return
	}

	p.mu.Lock()
	changed := diffState(p.playerID, p.app, p.props, p.items, playerID, *app, props, items)
	p.playerID = playerID
	p.playlistID = props.PlaylistID
	p.app = *app
	p.props = props
	p.items = items
	p.fireLocked(changed)
	p.mu.Unlock()
}

// diffState maps raw state deltas to the MPD subsystems they affect.
func diffState(
	oldPlayerID int, oldApp kodi.ApplicationProperties, oldProps kodi.PlayerProperties, oldItems []kodi.ListItem,
	newPlayerID int, newApp kodi.ApplicationProperties, newProps kodi.PlayerProperties, newItems []kodi.ListItem,
) protocol.SubsystemSet {
	var changed protocol.SubsystemSet
	if oldApp.Volume != newApp.Volume || oldApp.Muted != newApp.Muted {
		changed = changed.With(protocol.SubsystemMixer)
	}
	if oldPlayerID != newPlayerID || oldProps.Position != newProps.Position || oldProps.Speed != newProps.Speed {
		changed = changed.With(protocol.SubsystemPlayer)
	}
	if oldProps.Shuffled != newProps.Shuffled || oldProps.Repeat != newProps.Repeat {
		changed = changed.With(protocol.SubsystemOptions)
	}
	if !sameItems(oldItems, newItems) {
		changed = changed.With(protocol.SubsystemPlaylist)
	}
	return changed
}

func sameItems(a, b []kodi.ListItem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].File != b[i].File {
			return false
		}
	}
	return true
}

// Event fires one subsystem event, for changes the proxy caused itself
// and the poll diff cannot see (seeks, proxy-local options).
func (p *Player) Event(sub protocol.Subsystem) {
	p.mu.Lock()
	p.fireLocked(protocol.NewSubsystemSet(sub))
	p.mu.Unlock()
}

func (p *Player) fireLocked(set protocol.SubsystemSet) {
	if set.IsEmpty() {
		return
	}
	for _, sub := range set.Subsystems() {
		p.events[sub]++
	}
	close(p.notify)
	p.notify = make(chan struct{})
}

// Wait returns a channel closed on the next event, whichever subsystem
// it is for.
func (p *Player) Wait() <-chan struct{} {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.notify
}

// EventCounts snapshots the per-subsystem event counters.
func (p *Player) EventCounts() map[protocol.Subsystem]uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	counts := make(map[protocol.Subsystem]uint64, len(p.events))
	for sub, n := range p.events {
		counts[sub] = n
	}
	return counts
}

// EventCount returns the counter of one subsystem.
func (p *Player) EventCount(sub protocol.Subsystem) uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.events[sub]
}

// PlayerID returns the active audio player id, or -1.
func (p *Player) PlayerID() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.playerID
}

// PlaylistID returns the audio playlist id.
func (p *Player) PlaylistID() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.playlistID
}

// Volume returns the cached application volume.
func (p *Player) Volume() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.app.Volume
}

// Position returns the playing queue position, or -1 when stopped.
func (p *Player) Position() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.playerID < 0 {
		return -1
	}
	return p.props.Position
}

// Speed returns the playback speed; 0 means paused.
func (p *Player) Speed() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.props.Speed
}

// Shuffled reports Kodi's shuffle state.
func (p *Player) Shuffled() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.props.Shuffled
}

// RepeatMode returns Kodi's repeat mode ("off", "all" or "one").
func (p *Player) RepeatMode() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.props.Repeat == "" {
		return kodi.RepeatOff
	}
	return p.props.Repeat
}

// Times returns the cached elapsed and total playback time. ok is
// false when nothing is playing.
func (p *Player) Times() (elapsed, total time.Duration, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.playerID < 0 || p.props.Position < 0 {
		return 0, 0, false
	}
	return p.props.Time.Duration(), p.props.TotalTime.Duration(), true
}

// Items returns the cached queue. Callers must not mutate it.
func (p *Player) Items() []kodi.ListItem {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.items
}

// NextUpdateJob allocates a library update job id.
func (p *Player) NextUpdateJob() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updateJob++
	return p.updateJob
}
