package proxy

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/marmeladema/kodimpd/kodi"
	"github.com/marmeladema/kodimpd/protocol"
	"github.com/marmeladema/kodimpd/server"
)

// Handler translates MPD commands into Kodi JSON-RPC calls. One
// Handler serves one client connection; the shared Player carries the
// polled state and the event counters behind idle.
type Handler struct {
	kodi   *kodi.Client
	player *Player
	log    *slog.Logger

	// seen tracks, per subsystem, the last event counter reported to
	// this connection. Only Idle reads and advances it.
	seen map[protocol.Subsystem]uint64

	// consume is connection-local: Kodi has no such mode, so the flag
	// only round-trips through status. Toggling it queues an options
	// event in pending for this connection alone. The session runs
	// commands sequentially, so neither field needs a lock.
	consume bool
	pending protocol.SubsystemSet
}

var _ server.CommandHandler = (*Handler)(nil)

// NewHandler creates the handler for one connection. Events fired
// before this point are not replayed to the new client.
func NewHandler(client *kodi.Client, player *Player, log *slog.Logger) *Handler {
	return &Handler{
		kodi:   client,
		player: player,
		log:    log,
		seen:   player.EventCounts(),
	}
}

func (h *Handler) Close() error {
	return nil
}

func (h *Handler) pathMapper(ctx context.Context) (*PathMapper, error) {
	sources, err := h.kodi.AudioLibraryGetSources(ctx)
	if err != nil {
		return nil, err
	}
	return NewPathMapper(sources), nil
}

// posForID resolves a queue song id to its position, or -1. Scanned in
// reverse so a duplicated library item resolves to its last occurrence.
func (h *Handler) posForID(id int) int {
	items := h.player.Items()
	for pos := len(items) - 1; pos >= 0; pos-- {
		if items[pos].ID == id {
			return pos
		}
	}
	return -1
}

func errNoSuchSong(id int) error {
	return protocol.NewAck(protocol.AckNoExist, "no such song id: %d", id)
}

// playerIDOrDefault falls back to player 0 for calls made right after
// the proxy itself started playback, before the poller has observed
// the new active player.
func (h *Handler) playerIDOrDefault() int {
	if id := h.player.PlayerID(); id >= 0 {
		return id
	}
	return 0
}

// Status is served from the poll cache; it makes no Kodi calls.
func (h *Handler) Status(ctx context.Context) (*protocol.Status, error) {
	items := h.player.Items()

	st := &protocol.Status{}
	volume := h.player.Volume()
	st.Volume = &volume

	random := h.player.Shuffled()
	st.Random = &random
	mode := h.player.RepeatMode()
	repeat := mode == kodi.RepeatAll
	single := mode == kodi.RepeatOne
	st.Repeat = &repeat
	st.Single = &single
	consume := h.consume
	st.Consume = &consume

	version := int(h.player.EventCount(protocol.SubsystemPlaylist))
	st.Playlist = &version
	length := len(items)
	st.PlaylistLength = &length

	pos := h.player.Position()
	if pos >= 0 {
		if h.player.Speed() == 0 {
			st.State = protocol.StatePause
		} else {
			st.State = protocol.StatePlay
		}
		st.Song = &pos
		if pos < len(items) {
			id := items[pos].ID
			st.SongID = &id
		}
		if next := pos + 1; next < len(items) {
			st.NextSong = &next
			nextID := items[next].ID
			st.NextSongID = &nextID
		}
		if elapsed, total, ok := h.player.Times(); ok {
			e, d := elapsed, total
			st.Elapsed = &e
			if d > 0 {
				st.Duration = &d
			}
		}
	}
	return st, nil
}

func (h *Handler) CurrentSong(ctx context.Context) (*protocol.QueueEntry, error) {
	pos := h.player.Position()
	items := h.player.Items()
	if pos < 0 || pos >= len(items) {
		return nil, nil
	}
	mapper, err := h.pathMapper(ctx)
	if err != nil {
		return nil, err
	}
	entry, ok := itemToEntry(mapper, items[pos], pos)
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// itemToEntry converts a queue item, dropping items whose path lies
// outside every configured source.
func itemToEntry(mapper *PathMapper, item kodi.ListItem, pos int) (protocol.QueueEntry, bool) {
	external, ok := mapper.ToExternal(item.File)
	if !ok {
		return protocol.QueueEntry{}, false
	}
	song := protocol.Song{Path: external, Tags: itemTags(item)}
	if item.Duration > 0 {
		d := item.Duration
		song.Duration = &d
	}
	// TODO: queue items outside the library all report id 0; derive a
	// stable synthetic id for them instead.
	return protocol.QueueEntry{Song: song, ID: item.ID, Position: pos}, true
}

func itemTags(item kodi.ListItem) []protocol.Tag {
	var tags []protocol.Tag
	for _, artist := range item.Artist {
		tags = append(tags, protocol.Tag{Kind: protocol.TagArtist, Value: artist})
	}
	for _, artist := range item.AlbumArtist {
		tags = append(tags, protocol.Tag{Kind: protocol.TagAlbumArtist, Value: artist})
	}
	if item.Album != "" {
		tags = append(tags, protocol.Tag{Kind: protocol.TagAlbum, Value: item.Album})
	}
	for _, genre := range item.Genre {
		tags = append(tags, protocol.Tag{Kind: protocol.TagGenre, Value: genre})
	}
	if item.Title != "" {
		tags = append(tags, protocol.Tag{Kind: protocol.TagTitle, Value: item.Title})
	}
	if item.Disc > 0 {
		tags = append(tags, protocol.Tag{Kind: protocol.TagDisc, Value: strconv.Itoa(item.Disc)})
	}
	if item.Track > 0 {
		tags = append(tags, protocol.Tag{Kind: protocol.TagTrack, Value: strconv.Itoa(item.Track)})
	}
	if item.Year > 0 {
		tags = append(tags, protocol.Tag{Kind: protocol.TagDate, Value: strconv.Itoa(item.Year)})
	}
	return tags
}

// Playback control.

func (h *Handler) Play(ctx context.Context, pos *int) error {
	// A bare play while paused resumes; anything else (re)starts at
	// the requested or first position.
	if pos == nil && h.player.Position() >= 0 && h.player.Speed() == 0 {
		return h.kodi.PlayerPlayPause(ctx, h.playerIDOrDefault(), kodi.ToggleTo(true))
	}
	position := 0
	if pos != nil {
		position = *pos
	}
	return h.kodi.PlayerOpen(ctx, h.player.PlaylistID(), position)
}

func (h *Handler) PlayID(ctx context.Context, id *int) error {
	if id == nil {
		return h.Play(ctx, nil)
	}
	pos := h.posForID(*id)
	if pos < 0 {
		return errNoSuchSong(*id)
	}
	return h.kodi.PlayerOpen(ctx, h.player.PlaylistID(), pos)
}

func (h *Handler) Pause(ctx context.Context, toggle *bool) error {
	if h.player.PlayerID() < 0 {
		return nil
	}
	play := kodi.ToggleFlip
	if toggle != nil {
		play = kodi.ToggleTo(!*toggle)
	}
	return h.kodi.PlayerPlayPause(ctx, h.player.PlayerID(), play)
}

func (h *Handler) Stop(ctx context.Context) error {
	id := h.player.PlayerID()
	if id < 0 {
		return nil
	}
	return h.kodi.PlayerStop(ctx, id)
}

func (h *Handler) Next(ctx context.Context) error {
	id := h.player.PlayerID()
	if id < 0 {
		return nil
	}
	return h.kodi.PlayerGoTo(ctx, id, "next")
}

func (h *Handler) Previous(ctx context.Context) error {
	id := h.player.PlayerID()
	if id < 0 {
		return nil
	}
	return h.kodi.PlayerGoTo(ctx, id, "previous")
}

func (h *Handler) Seek(ctx context.Context, pos int, offset time.Duration) error {
	if h.player.Position() != pos {
		if err := h.kodi.PlayerOpen(ctx, h.player.PlaylistID(), pos); err != nil {
			return err
		}
	}
	return h.seekTo(ctx, offset)
}

func (h *Handler) SeekID(ctx context.Context, id int, offset time.Duration) error {
	pos := h.posForID(id)
	if pos < 0 {
		return errNoSuchSong(id)
	}
	return h.Seek(ctx, pos, offset)
}

func (h *Handler) SeekCurrent(ctx context.Context, offset time.Duration) error {
	return h.seekTo(ctx, offset)
}

// seekTo fires the player event itself: the poll diff only sees
// position and speed, not elapsed time.
func (h *Handler) seekTo(ctx context.Context, offset time.Duration) error {
	if err := h.kodi.PlayerSeekTime(ctx, h.playerIDOrDefault(), kodi.TimeFromDuration(offset)); err != nil {
		return err
	}
	h.player.Event(protocol.SubsystemPlayer)
	return nil
}

// Playback options.

func (h *Handler) Random(ctx context.Context, state bool) error {
	id := h.player.PlayerID()
	if id < 0 {
		return nil
	}
	return h.kodi.PlayerSetShuffle(ctx, id, state)
}

func (h *Handler) Repeat(ctx context.Context, state bool) error {
	mode := kodi.RepeatOff
	if state {
		mode = kodi.RepeatAll
	}
	return h.setRepeat(ctx, mode)
}

// Single maps to Kodi's repeat-one; it shares the underlying mode with
// Repeat, so enabling one clears the other.
func (h *Handler) Single(ctx context.Context, state bool) error {
	mode := kodi.RepeatOff
	if state {
		mode = kodi.RepeatOne
	}
	return h.setRepeat(ctx, mode)
}

func (h *Handler) setRepeat(ctx context.Context, mode string) error {
	id := h.player.PlayerID()
	if id < 0 {
		return nil
	}
	return h.kodi.PlayerSetRepeat(ctx, id, mode)
}

func (h *Handler) Consume(ctx context.Context, state bool) error {
	if h.consume != state {
		h.consume = state
		h.pending = h.pending.With(protocol.SubsystemOptions)
	}
	return nil
}

func (h *Handler) Volume(ctx context.Context) (int, error) {
	return h.player.Volume(), nil
}

func (h *Handler) SetVolume(ctx context.Context, volume int) error {
	return h.kodi.ApplicationSetVolume(ctx, volume)
}

// Queue management.

func (h *Handler) QueueList(ctx context.Context, rng *protocol.Range) ([]protocol.QueueEntry, error) {
	items := h.player.Items()
	start := 0
	if rng != nil {
		if rng.Start >= len(items) {
			return nil, nil
		}
		end := rng.End + 1
		if end > len(items) {
			end = len(items)
		}
		items = items[rng.Start:end]
		start = rng.Start
	}
	mapper, err := h.pathMapper(ctx)
	if err != nil {
		return nil, err
	}
	var entries []protocol.QueueEntry
	for i, item := range items {
		if entry, ok := itemToEntry(mapper, item, start+i); ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func (h *Handler) QueueGet(ctx context.Context, id int) (*protocol.QueueEntry, error) {
	pos := h.posForID(id)
	if pos < 0 {
		return nil, errNoSuchSong(id)
	}
	mapper, err := h.pathMapper(ctx)
	if err != nil {
		return nil, err
	}
	items := h.player.Items()
	entry, ok := itemToEntry(mapper, items[pos], pos)
	if !ok {
		return nil, errNoSuchSong(id)
	}
	return &entry, nil
}

// QueueAdd resolves uri against the sources and enqueues it; a
// directory is added recursively. The returned id is the library id of
// the added file, or 0 for directories.
func (h *Handler) QueueAdd(ctx context.Context, uri string, pos *int) (int, error) {
	mapper, err := h.pathMapper(ctx)
	if err != nil {
		return 0, err
	}
	internal, ok := mapper.ToInternal(strings.Trim(uri, "/"))
	if !ok {
		return 0, protocol.NewAck(protocol.AckNoExist, "no such directory")
	}

	var item kodi.PlaylistItem
	var id int
	if details, err := h.kodi.FilesGetFileDetails(ctx, internal, kodi.MediaMusic); err == nil {
		item = kodi.PlaylistItem{File: internal}
		id = details.ID
	} else {
		// Not a file; it must list as a directory to be addable.
		if _, err := h.kodi.FilesGetDirectory(ctx, internal, kodi.MediaFiles); err != nil {
			return 0, protocol.NewAck(protocol.AckNoExist, "no such directory")
		}
		item = kodi.PlaylistItem{
			Directory: internal,
			Media:     kodi.MediaMusic,
			Recursive: true,
		}
	}

	playlistID := h.player.PlaylistID()
	if pos != nil {
		err = h.kodi.PlaylistInsert(ctx, playlistID, *pos, item)
	} else {
		err = h.kodi.PlaylistAdd(ctx, playlistID, item)
	}
	if err != nil {
		return 0, err
	}
	h.player.Event(protocol.SubsystemPlaylist)
	return id, nil
}

// QueueDelete removes positions back to front so the earlier removals
// do not shift the later ones.
func (h *Handler) QueueDelete(ctx context.Context, rng protocol.Range) error {
	playlistID := h.player.PlaylistID()
	for pos := rng.End; pos >= rng.Start; pos-- {
		if err := h.kodi.PlaylistRemove(ctx, playlistID, pos); err != nil {
			return err
		}
	}
	h.player.Event(protocol.SubsystemPlaylist)
	return nil
}

func (h *Handler) QueueDeleteID(ctx context.Context, id int) error {
	pos := h.posForID(id)
	if pos < 0 {
		return errNoSuchSong(id)
	}
	return h.QueueDelete(ctx, protocol.Range{Start: pos, End: pos})
}

// QueueMove walks the item to its target with adjacent swaps; Kodi's
// playlist API has no move operation.
func (h *Handler) QueueMove(ctx context.Context, from protocol.Range, to int) error {
	if from.Len() != 1 {
		return protocol.NewAck(protocol.AckArg, "moving ranges is not supported")
	}
	return h.movePosition(ctx, from.Start, to)
}

func (h *Handler) QueueMoveID(ctx context.Context, id, to int) error {
	pos := h.posForID(id)
	if pos < 0 {
		return errNoSuchSong(id)
	}
	return h.movePosition(ctx, pos, to)
}

func (h *Handler) movePosition(ctx context.Context, from, to int) error {
	playlistID := h.player.PlaylistID()
	for pos := from; pos < to; pos++ {
		if err := h.kodi.PlaylistSwap(ctx, playlistID, pos, pos+1); err != nil {
			return err
		}
	}
	for pos := from; pos > to; pos-- {
		if err := h.kodi.PlaylistSwap(ctx, playlistID, pos, pos-1); err != nil {
			return err
		}
	}
	if from != to {
		h.player.Event(protocol.SubsystemPlaylist)
	}
	return nil
}

func (h *Handler) QueueSwap(ctx context.Context, pos1, pos2 int) error {
	if err := h.kodi.PlaylistSwap(ctx, h.player.PlaylistID(), pos1, pos2); err != nil {
		return err
	}
	h.player.Event(protocol.SubsystemPlaylist)
	return nil
}

func (h *Handler) QueueSwapID(ctx context.Context, id1, id2 int) error {
	pos1 := h.posForID(id1)
	if pos1 < 0 {
		return errNoSuchSong(id1)
	}
	pos2 := h.posForID(id2)
	if pos2 < 0 {
		return errNoSuchSong(id2)
	}
	return h.QueueSwap(ctx, pos1, pos2)
}

func (h *Handler) QueueClear(ctx context.Context) error {
	if err := h.kodi.PlaylistClear(ctx, h.player.PlaylistID()); err != nil {
		return err
	}
	h.player.Event(protocol.SubsystemPlaylist)
	return nil
}

// Library.

func (h *Handler) ListDirectory(ctx context.Context, uri string) ([]protocol.LibraryEntry, error) {
	sources, err := h.kodi.AudioLibraryGetSources(ctx)
	if err != nil {
		return nil, err
	}

	uri = strings.Trim(uri, "/")
	if uri == "" {
		entries := make([]protocol.LibraryEntry, 0, len(sources))
		for _, src := range sources {
			entries = append(entries, protocol.DirEntry{Path: src.Label})
		}
		return entries, nil
	}

	mapper := NewPathMapper(sources)
	internal, ok := mapper.ToInternal(uri)
	if !ok {
		return nil, protocol.NewAck(protocol.AckNoExist, "no such directory")
	}
	files, err := h.kodi.FilesGetDirectory(ctx, internal, kodi.MediaMusic)
	if err != nil {
		return nil, err
	}

	var entries []protocol.LibraryEntry
	for _, file := range files {
		external, ok := mapper.ToExternal(file.File)
		if !ok {
			continue
		}
		modified := parseKodiTime(file.LastModified)
		if file.FileType == "directory" {
			entries = append(entries, protocol.DirEntry{Path: external, LastModified: modified})
			continue
		}
		song := protocol.Song{
			Path:         external,
			LastModified: modified,
			Tags:         itemTags(file),
		}
		if file.Duration > 0 {
			d := file.Duration
			song.Duration = &d
		}
		entries = append(entries, protocol.FileEntry{Song: song})
	}
	return entries, nil
}

// parseKodiTime parses Kodi's "2006-01-02 15:04:05" timestamps. The
// timezone is unknown; assume UTC.
func parseKodiTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		return nil
	}
	return &t
}

func (h *Handler) Find(ctx context.Context, filters []protocol.TagFilter) ([]protocol.Song, error) {
	return h.findSongs(ctx, filters, "is")
}

func (h *Handler) Search(ctx context.Context, filters []protocol.TagFilter) ([]protocol.Song, error) {
	return h.findSongs(ctx, filters, "contains")
}

func (h *Handler) findSongs(ctx context.Context, filters []protocol.TagFilter, operator string) ([]protocol.Song, error) {
	filter, err := buildSongFilter(filters, operator)
	if err != nil {
		return nil, err
	}
	kodiSongs, err := h.kodi.AudioLibraryGetSongs(ctx, filter)
	if err != nil {
		return nil, err
	}
	mapper, err := h.pathMapper(ctx)
	if err != nil {
		return nil, err
	}

	var songs []protocol.Song
	for _, ks := range kodiSongs {
		external, ok := mapper.ToExternal(ks.File)
		if !ok {
			continue
		}
		song := protocol.Song{
			Path: external,
			Tags: itemTags(kodi.ListItem{
				Title:       ks.Title,
				Artist:      ks.Artist,
				AlbumArtist: ks.AlbumArtist,
				Album:       ks.Album,
				Genre:       ks.Genre,
				Track:       ks.Track,
				Disc:        ks.Disc,
				Year:        ks.Year,
			}),
		}
		if ks.Duration > 0 {
			d := ks.Duration
			song.Duration = &d
		}
		songs = append(songs, song)
	}
	return songs, nil
}

// buildSongFilter converts MPD tag filters into a Kodi songs filter.
// Kodi stores disc and track in one packed tracknumber column, hence
// the range tricks.
func buildSongFilter(filters []protocol.TagFilter, operator string) (*kodi.Filter, error) {
	if len(filters) == 0 {
		return nil, nil
	}
	filter := &kodi.Filter{}
	for _, f := range filters {
		var rule kodi.FieldFilter
		switch f.Tag {
		case protocol.TagAlbum:
			rule = kodi.FieldFilter{Field: "album", Operator: operator, Value: f.Value}
		case protocol.TagAlbumArtist:
			rule = kodi.FieldFilter{Field: "albumartist", Operator: operator, Value: f.Value}
		case protocol.TagArtist:
			rule = kodi.FieldFilter{Field: "artist", Operator: operator, Value: f.Value}
		case protocol.TagComment:
			rule = kodi.FieldFilter{Field: "comment", Operator: operator, Value: f.Value}
		case protocol.TagDate:
			rule = kodi.FieldFilter{Field: "year", Operator: operator, Value: f.Value}
		case protocol.TagGenre:
			rule = kodi.FieldFilter{Field: "genre", Operator: operator, Value: f.Value}
		case protocol.TagTitle:
			rule = kodi.FieldFilter{Field: "title", Operator: operator, Value: f.Value}
		case protocol.TagDisc:
			disc, err := strconv.Atoi(f.Value)
			if err != nil {
				rule = kodi.FieldFilter{Field: "tracknumber", Operator: "is", Value: f.Value}
				break
			}
			rule = kodi.FieldFilter{
				Field:    "tracknumber",
				Operator: "between",
				Value: []string{
					strconv.Itoa(disc << 16),
					strconv.Itoa(disc<<16 + 0xffff - 1),
				},
			}
		case protocol.TagTrack:
			track, err := strconv.Atoi(f.Value)
			if err != nil {
				rule = kodi.FieldFilter{Field: "tracknumber", Operator: "is", Value: f.Value}
				break
			}
			// The disc is unknown; match the track on discs 1 to 64.
			values := make([]string, 0, 64)
			for disc := 1; disc <= 64; disc++ {
				values = append(values, strconv.Itoa(disc<<16|track))
			}
			rule = kodi.FieldFilter{Field: "tracknumber", Operator: "is", Value: values}
		default:
			return nil, protocol.NewAck(protocol.AckArg, "unsupported filter: %s", f.Tag)
		}
		filter.And = append(filter.And, rule)
	}
	return filter, nil
}

// List groups the matching songs' tag values, the way the list command
// wants them: group header tags first, then the distinct values.
func (h *Handler) List(ctx context.Context, tag protocol.TagType, filters []protocol.TagFilter, groups []protocol.TagType) ([]protocol.Tag, error) {
	songs, err := h.Find(ctx, filters)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		groupTags []protocol.Tag
		values    map[string]struct{}
	}
	buckets := make(map[string]*bucket)
	var order []string
	for _, song := range songs {
		value := ""
		for _, songTag := range song.Tags {
			if songTag.Kind == tag {
				value = songTag.Value
				break
			}
		}
		groupTags := make([]protocol.Tag, 0, len(groups))
		var key strings.Builder
		for i := len(groups) - 1; i >= 0; i-- {
			groupValue := ""
			for _, songTag := range song.Tags {
				if songTag.Kind == groups[i] {
					groupValue = songTag.Value
					break
				}
			}
			groupTags = append(groupTags, protocol.Tag{Kind: groups[i], Value: groupValue})
			key.WriteString(groupValue)
			key.WriteByte(0)
		}
		b, ok := buckets[key.String()]
		if !ok {
			b = &bucket{groupTags: groupTags, values: make(map[string]struct{})}
			buckets[key.String()] = b
			order = append(order, key.String())
		}
		b.values[value] = struct{}{}
	}

	sort.Strings(order)
	var tags []protocol.Tag
	for _, key := range order {
		b := buckets[key]
		tags = append(tags, b.groupTags...)
		values := make([]string, 0, len(b.values))
		for value := range b.values {
			values = append(values, value)
		}
		sort.Strings(values)
		for _, value := range values {
			tags = append(tags, protocol.Tag{Kind: tag, Value: value})
		}
	}
	return tags, nil
}

// Update starts a Kodi library scan. The job id is only there to give
// the update command something to report; Kodi does not hand one out.
func (h *Handler) Update(ctx context.Context, uri string) (int, error) {
	directory := ""
	if uri = strings.Trim(uri, "/"); uri != "" {
		mapper, err := h.pathMapper(ctx)
		if err != nil {
			return 0, err
		}
		internal, ok := mapper.ToInternal(uri)
		if !ok {
			return 0, protocol.NewAck(protocol.AckNoExist, "no such directory")
		}
		directory = internal
	}
	if err := h.kodi.AudioLibraryScan(ctx, directory); err != nil {
		return 0, err
	}
	job := h.player.NextUpdateJob()
	h.player.Event(protocol.SubsystemUpdate)
	return job, nil
}

// Idle blocks until one of the wanted subsystems has an event counter
// this connection has not reported yet.
func (h *Handler) Idle(ctx context.Context, wanted protocol.SubsystemSet) (protocol.SubsystemSet, error) {
	for {
		wakeup := h.player.Wait()
		if set := h.takeEvents(wanted); !set.IsEmpty() {
			return set, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-wakeup:
		}
	}
}

// takeEvents consumes pending events for the wanted subsystems only;
// the rest stay pending for a later idle with a wider subscription.
func (h *Handler) takeEvents(wanted protocol.SubsystemSet) protocol.SubsystemSet {
	set := h.pending.Intersect(wanted)
	h.pending &^= set
	counts := h.player.EventCounts()
	for _, sub := range wanted.Subsystems() {
		if counts[sub] > h.seen[sub] {
			h.seen[sub] = counts[sub]
			set = set.With(sub)
		}
	}
	return set
}
