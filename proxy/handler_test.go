package proxy

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmeladema/kodimpd/kodi"
	"github.com/marmeladema/kodimpd/protocol"
)

func newTestHandler(t *testing.T) (*fakeKodi, *Player, *Handler) {
	t.Helper()
	fake, client := newFakeKodi(t)
	fake.respondPlaying()

	player := NewPlayer(client, time.Minute, discardLogger())
	player.Refresh(context.Background())

	return fake, player, NewHandler(client, player, discardLogger())
}

func requireAckCode(t *testing.T, err error, code protocol.AckCode) {
	t.Helper()
	var ack *protocol.Ack
	require.True(t, errors.As(err, &ack), "expected an ack, got %v", err)
	assert.Equal(t, code, ack.Code)
}

func TestStatusPlaying(t *testing.T) {
	_, _, h := newTestHandler(t)

	st, err := h.Status(context.Background())
	require.NoError(t, err)

	require.NotNil(t, st.Volume)
	assert.Equal(t, 70, *st.Volume)
	assert.Equal(t, protocol.StatePlay, st.State)
	require.NotNil(t, st.Song)
	assert.Equal(t, 0, *st.Song)
	require.NotNil(t, st.SongID)
	assert.Equal(t, 17, *st.SongID)
	require.NotNil(t, st.NextSong)
	assert.Equal(t, 1, *st.NextSong)
	require.NotNil(t, st.NextSongID)
	assert.Equal(t, 23, *st.NextSongID)
	require.NotNil(t, st.PlaylistLength)
	assert.Equal(t, 2, *st.PlaylistLength)
	require.NotNil(t, st.Elapsed)
	assert.Equal(t, 90*time.Second, *st.Elapsed)
	require.NotNil(t, st.Repeat)
	assert.False(t, *st.Repeat)
	require.NotNil(t, st.Single)
	assert.False(t, *st.Single)
	require.NotNil(t, st.Consume)
	assert.False(t, *st.Consume)
}

func TestStatusStopped(t *testing.T) {
	fake, player, h := newTestHandler(t)
	fake.respond("Player.GetActivePlayers", []map[string]any{})
	player.Refresh(context.Background())

	st, err := h.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, protocol.StateStop, st.State)
	assert.Nil(t, st.Song)
	assert.Nil(t, st.Elapsed)
	require.NotNil(t, st.PlaylistLength)
	assert.Equal(t, 2, *st.PlaylistLength)
}

func TestCurrentSong(t *testing.T) {
	_, _, h := newTestHandler(t)

	entry, err := h.CurrentSong(context.Background())
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Music/a/one.flac", entry.Song.Path)
	assert.Equal(t, 17, entry.ID)
	assert.Equal(t, 0, entry.Position)
	assert.Contains(t, entry.Song.Tags, protocol.Tag{Kind: protocol.TagTitle, Value: "One"})
	assert.Contains(t, entry.Song.Tags, protocol.Tag{Kind: protocol.TagArtist, Value: "Ann"})
}

func TestCurrentSongStopped(t *testing.T) {
	fake, player, h := newTestHandler(t)
	fake.respond("Player.GetActivePlayers", []map[string]any{})
	player.Refresh(context.Background())

	entry, err := h.CurrentSong(context.Background())
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestQueueList(t *testing.T) {
	_, _, h := newTestHandler(t)

	entries, err := h.QueueList(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Music/a/one.flac", entries[0].Song.Path)
	assert.Equal(t, "Music/b/two.flac", entries[1].Song.Path)
	assert.Equal(t, 1, entries[1].Position)

	entries, err = h.QueueList(context.Background(), &protocol.Range{Start: 1, End: 1})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 23, entries[0].ID)
	assert.Equal(t, 1, entries[0].Position)

	entries, err = h.QueueList(context.Background(), &protocol.Range{Start: 5, End: 9})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestQueueGet(t *testing.T) {
	_, _, h := newTestHandler(t)

	entry, err := h.QueueGet(context.Background(), 23)
	require.NoError(t, err)
	assert.Equal(t, "Music/b/two.flac", entry.Song.Path)

	_, err = h.QueueGet(context.Background(), 999)
	requireAckCode(t, err, protocol.AckNoExist)
}

func TestQueueAddFile(t *testing.T) {
	fake, player, h := newTestHandler(t)
	fake.respond("Files.GetFileDetails", map[string]any{
		"filedetails": map[string]any{
			"id": 42, "file": "smb://nas/music/c/three.flac", "title": "Three",
		},
	})
	fake.respond("Playlist.Add", "OK")

	before := player.EventCount(protocol.SubsystemPlaylist)
	id, err := h.QueueAdd(context.Background(), "Music/c/three.flac", nil)
	require.NoError(t, err)
	assert.Equal(t, 42, id)
	assert.Equal(t, before+1, player.EventCount(protocol.SubsystemPlaylist))

	adds := fake.callsTo("Playlist.Add")
	require.Len(t, adds, 1)
	var params struct {
		PlaylistID int `json:"playlistid"`
		Item       []struct {
			File string `json:"file"`
		} `json:"item"`
	}
	unmarshalParams(t, adds[0], &params)
	require.Len(t, params.Item, 1)
	assert.Equal(t, "smb://nas/music/c/three.flac", params.Item[0].File)
}

func TestQueueAddDirectory(t *testing.T) {
	fake, _, h := newTestHandler(t)
	// Not a file, but listable as a directory.
	fake.handle("Files.GetFileDetails", func(json.RawMessage) (any, error) {
		return nil, errors.New("Invalid params.")
	})
	fake.respond("Files.GetDirectory", map[string]any{"files": []map[string]any{}})
	fake.respond("Playlist.Add", "OK")

	id, err := h.QueueAdd(context.Background(), "Music/c", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, id)

	adds := fake.callsTo("Playlist.Add")
	require.Len(t, adds, 1)
	var params struct {
		Item []struct {
			Directory string `json:"directory"`
			Media     string `json:"media"`
			Recursive bool   `json:"recursive"`
		} `json:"item"`
	}
	unmarshalParams(t, adds[0], &params)
	require.Len(t, params.Item, 1)
	assert.Equal(t, "smb://nas/music/c", params.Item[0].Directory)
	assert.Equal(t, "music", params.Item[0].Media)
	assert.True(t, params.Item[0].Recursive)
}

func TestQueueAddAtPosition(t *testing.T) {
	fake, _, h := newTestHandler(t)
	fake.respond("Files.GetFileDetails", map[string]any{
		"filedetails": map[string]any{"id": 42, "file": "smb://nas/music/c/three.flac"},
	})
	fake.respond("Playlist.Insert", "OK")

	pos := 1
	_, err := h.QueueAdd(context.Background(), "Music/c/three.flac", &pos)
	require.NoError(t, err)

	inserts := fake.callsTo("Playlist.Insert")
	require.Len(t, inserts, 1)
	var params struct {
		Position int `json:"position"`
	}
	unmarshalParams(t, inserts[0], &params)
	assert.Equal(t, 1, params.Position)
	assert.Empty(t, fake.callsTo("Playlist.Add"))
}

func TestQueueAddUnknownPath(t *testing.T) {
	fake, _, h := newTestHandler(t)
	fake.handle("Files.GetFileDetails", func(json.RawMessage) (any, error) {
		return nil, errors.New("Invalid params.")
	})
	fake.handle("Files.GetDirectory", func(json.RawMessage) (any, error) {
		return nil, errors.New("Invalid params.")
	})

	_, err := h.QueueAdd(context.Background(), "Music/missing.flac", nil)
	requireAckCode(t, err, protocol.AckNoExist)

	_, err = h.QueueAdd(context.Background(), "Nowhere/at/all", nil)
	requireAckCode(t, err, protocol.AckNoExist)
}

func TestQueueDelete(t *testing.T) {
	fake, _, h := newTestHandler(t)
	fake.respond("Playlist.Remove", "OK")

	err := h.QueueDelete(context.Background(), protocol.Range{Start: 0, End: 1})
	require.NoError(t, err)

	removes := fake.callsTo("Playlist.Remove")
	require.Len(t, removes, 2)
	var first, second struct {
		Position int `json:"position"`
	}
	unmarshalParams(t, removes[0], &first)
	unmarshalParams(t, removes[1], &second)
	// Back to front, so positions do not shift under the removal.
	assert.Equal(t, 1, first.Position)
	assert.Equal(t, 0, second.Position)
}

func TestQueueDeleteID(t *testing.T) {
	fake, _, h := newTestHandler(t)
	fake.respond("Playlist.Remove", "OK")

	require.NoError(t, h.QueueDeleteID(context.Background(), 23))
	removes := fake.callsTo("Playlist.Remove")
	require.Len(t, removes, 1)
	var params struct {
		Position int `json:"position"`
	}
	unmarshalParams(t, removes[0], &params)
	assert.Equal(t, 1, params.Position)

	err := h.QueueDeleteID(context.Background(), 999)
	requireAckCode(t, err, protocol.AckNoExist)
}

func TestQueueMove(t *testing.T) {
	fake, _, h := newTestHandler(t)
	fake.respond("Playlist.Swap", "OK")

	err := h.QueueMove(context.Background(), protocol.Range{Start: 0, End: 0}, 1)
	require.NoError(t, err)

	swaps := fake.callsTo("Playlist.Swap")
	require.Len(t, swaps, 1)
	var params struct {
		Position1 int `json:"position1"`
		Position2 int `json:"position2"`
	}
	unmarshalParams(t, swaps[0], &params)
	assert.Equal(t, 0, params.Position1)
	assert.Equal(t, 1, params.Position2)

	err = h.QueueMove(context.Background(), protocol.Range{Start: 0, End: 1}, 1)
	requireAckCode(t, err, protocol.AckArg)
}

func TestQueueSwapID(t *testing.T) {
	fake, _, h := newTestHandler(t)
	fake.respond("Playlist.Swap", "OK")

	require.NoError(t, h.QueueSwapID(context.Background(), 17, 23))
	require.Len(t, fake.callsTo("Playlist.Swap"), 1)

	err := h.QueueSwapID(context.Background(), 17, 999)
	requireAckCode(t, err, protocol.AckNoExist)
}

func TestQueueClear(t *testing.T) {
	fake, player, h := newTestHandler(t)
	fake.respond("Playlist.Clear", "OK")

	before := player.EventCount(protocol.SubsystemPlaylist)
	require.NoError(t, h.QueueClear(context.Background()))
	require.Len(t, fake.callsTo("Playlist.Clear"), 1)
	assert.Equal(t, before+1, player.EventCount(protocol.SubsystemPlaylist))
}

func TestPlayResumesWhenPaused(t *testing.T) {
	fake, player, h := newTestHandler(t)
	fake.respond("Player.GetProperties", map[string]any{
		"type": "audio", "position": 0, "speed": 0,
		"shuffled": false, "repeat": "off", "playlistid": 0,
	})
	player.Refresh(context.Background())
	fake.respond("Player.PlayPause", "OK")

	require.NoError(t, h.Play(context.Background(), nil))
	require.Len(t, fake.callsTo("Player.PlayPause"), 1)
	assert.Empty(t, fake.callsTo("Player.Open"))
}

func TestPlayOpensPosition(t *testing.T) {
	fake, _, h := newTestHandler(t)
	fake.respond("Player.Open", "OK")

	pos := 1
	require.NoError(t, h.Play(context.Background(), &pos))

	opens := fake.callsTo("Player.Open")
	require.Len(t, opens, 1)
	var params struct {
		Item struct {
			PlaylistID int `json:"playlistid"`
			Position   int `json:"position"`
		} `json:"item"`
	}
	unmarshalParams(t, opens[0], &params)
	assert.Equal(t, 1, params.Item.Position)
}

func TestPlayID(t *testing.T) {
	fake, _, h := newTestHandler(t)
	fake.respond("Player.Open", "OK")

	id := 23
	require.NoError(t, h.PlayID(context.Background(), &id))

	opens := fake.callsTo("Player.Open")
	require.Len(t, opens, 1)
	var params struct {
		Item struct {
			Position int `json:"position"`
		} `json:"item"`
	}
	unmarshalParams(t, opens[0], &params)
	assert.Equal(t, 1, params.Item.Position)

	missing := 999
	err := h.PlayID(context.Background(), &missing)
	requireAckCode(t, err, protocol.AckNoExist)
}

func TestPauseToggle(t *testing.T) {
	fake, _, h := newTestHandler(t)
	fake.respond("Player.PlayPause", "OK")

	require.NoError(t, h.Pause(context.Background(), nil))
	calls := fake.callsTo("Player.PlayPause")
	require.Len(t, calls, 1)
	var params struct {
		Play json.RawMessage `json:"play"`
	}
	unmarshalParams(t, calls[0], &params)
	assert.JSONEq(t, `"toggle"`, string(params.Play))

	paused := true
	require.NoError(t, h.Pause(context.Background(), &paused))
	calls = fake.callsTo("Player.PlayPause")
	require.Len(t, calls, 2)
	unmarshalParams(t, calls[1], &params)
	assert.JSONEq(t, `false`, string(params.Play))
}

func TestStopWithoutPlayer(t *testing.T) {
	fake, player, h := newTestHandler(t)
	fake.respond("Player.GetActivePlayers", []map[string]any{})
	player.Refresh(context.Background())

	require.NoError(t, h.Stop(context.Background()))
	assert.Empty(t, fake.callsTo("Player.Stop"))
}

func TestSeekCurrentFiresPlayerEvent(t *testing.T) {
	fake, player, h := newTestHandler(t)
	fake.respond("Player.Seek", "OK")

	before := player.EventCount(protocol.SubsystemPlayer)
	require.NoError(t, h.SeekCurrent(context.Background(), 42*time.Second))
	assert.Equal(t, before+1, player.EventCount(protocol.SubsystemPlayer))

	seeks := fake.callsTo("Player.Seek")
	require.Len(t, seeks, 1)
	var params struct {
		Value struct {
			Time kodi.Time `json:"time"`
		} `json:"value"`
	}
	unmarshalParams(t, seeks[0], &params)
	assert.Equal(t, 42, params.Value.Time.Seconds)
}

func TestSingleAndRepeat(t *testing.T) {
	fake, _, h := newTestHandler(t)
	fake.respond("Player.SetRepeat", "OK")

	require.NoError(t, h.Repeat(context.Background(), true))
	require.NoError(t, h.Single(context.Background(), true))
	require.NoError(t, h.Repeat(context.Background(), false))

	calls := fake.callsTo("Player.SetRepeat")
	require.Len(t, calls, 3)
	modes := make([]string, 0, 3)
	for _, raw := range calls {
		var params struct {
			Repeat string `json:"repeat"`
		}
		unmarshalParams(t, raw, &params)
		modes = append(modes, params.Repeat)
	}
	assert.Equal(t, []string{"all", "one", "off"}, modes)
}

func TestConsumeIsLocal(t *testing.T) {
	fake, player, h1 := newTestHandler(t)
	h2 := NewHandler(h1.kodi, player, discardLogger())

	fake.mu.Lock()
	before := len(fake.calls)
	fake.mu.Unlock()

	require.NoError(t, h1.Consume(context.Background(), true))

	// Kodi has no consume mode, so the toggle makes no remote call.
	fake.mu.Lock()
	assert.Len(t, fake.calls, before)
	fake.mu.Unlock()

	st1, err := h1.Status(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st1.Consume)
	assert.True(t, *st1.Consume)

	// Another connection on the same shared poller keeps its own flag.
	st2, err := h2.Status(context.Background())
	require.NoError(t, err)
	require.NotNil(t, st2.Consume)
	assert.False(t, *st2.Consume)

	// The toggle raises options only for the connection that issued it.
	set, err := h1.Idle(context.Background(), protocol.NewSubsystemSet(protocol.SubsystemOptions))
	require.NoError(t, err)
	assert.True(t, set.Has(protocol.SubsystemOptions))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = h2.Idle(ctx, protocol.NewSubsystemSet(protocol.SubsystemOptions))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestConsumeRepeatedToggleIsOneEvent(t *testing.T) {
	_, _, h := newTestHandler(t)

	require.NoError(t, h.Consume(context.Background(), true))
	require.NoError(t, h.Consume(context.Background(), true))

	set, err := h.Idle(context.Background(), protocol.AllSubsystems)
	require.NoError(t, err)
	assert.Equal(t, protocol.NewSubsystemSet(protocol.SubsystemOptions), set)

	// The event was drained; a second idle blocks until cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = h.Idle(ctx, protocol.AllSubsystems)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestListDirectoryRoot(t *testing.T) {
	_, _, h := newTestHandler(t)

	entries, err := h.ListDirectory(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	dir, ok := entries[0].(protocol.DirEntry)
	require.True(t, ok)
	assert.Equal(t, "Music", dir.Path)
}

func TestListDirectory(t *testing.T) {
	fake, _, h := newTestHandler(t)
	fake.respond("Files.GetDirectory", map[string]any{
		"files": []map[string]any{
			{
				"file": "smb://nas/music/a/", "filetype": "directory",
				"label": "a", "lastmodified": "2024-05-01 10:00:00",
			},
			{
				"file": "smb://nas/music/one.flac", "filetype": "file",
				"title": "One", "artist": []string{"Ann"}, "duration": 180,
			},
		},
	})

	entries, err := h.ListDirectory(context.Background(), "Music")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	dir, ok := entries[0].(protocol.DirEntry)
	require.True(t, ok)
	assert.Equal(t, "Music/a", dir.Path)
	require.NotNil(t, dir.LastModified)
	assert.Equal(t, 2024, dir.LastModified.Year())

	file, ok := entries[1].(protocol.FileEntry)
	require.True(t, ok)
	assert.Equal(t, "Music/one.flac", file.Song.Path)
	require.NotNil(t, file.Song.Duration)
	assert.Equal(t, 180, *file.Song.Duration)

	_, err = h.ListDirectory(context.Background(), "Videos")
	requireAckCode(t, err, protocol.AckNoExist)
}

func respondSongs(fake *fakeKodi) {
	fake.respond("AudioLibrary.GetSongs", map[string]any{
		"songs": []map[string]any{
			{
				"songid": 1, "file": "smb://nas/music/a/one.flac",
				"title": "One", "artist": []string{"Ann"}, "album": "First",
				"genre": []string{"Rock"}, "track": 1, "year": 2001, "duration": 180,
			},
			{
				"songid": 2, "file": "smb://nas/music/a/two.flac",
				"title": "Two", "artist": []string{"Ann"}, "album": "First",
				"genre": []string{"Rock"}, "track": 2, "year": 2001, "duration": 200,
			},
			{
				"songid": 3, "file": "smb://nas/music/b/three.flac",
				"title": "Three", "artist": []string{"Bob"}, "album": "Second",
				"genre": []string{"Jazz"}, "track": 1, "year": 2003, "duration": 150,
			},
		},
	})
}

func TestFind(t *testing.T) {
	fake, _, h := newTestHandler(t)
	respondSongs(fake)

	songs, err := h.Find(context.Background(), []protocol.TagFilter{
		{Tag: protocol.TagArtist, Value: "Ann"},
	})
	require.NoError(t, err)
	require.Len(t, songs, 3) // the fake does not filter; check the request instead
	assert.Equal(t, "Music/a/one.flac", songs[0].Path)
	assert.Contains(t, songs[0].Tags, protocol.Tag{Kind: protocol.TagAlbum, Value: "First"})

	calls := fake.callsTo("AudioLibrary.GetSongs")
	require.Len(t, calls, 1)
	var params struct {
		Filter struct {
			And []struct {
				Field    string          `json:"field"`
				Operator string          `json:"operator"`
				Value    json.RawMessage `json:"value"`
			} `json:"and"`
		} `json:"filter"`
		IncludeSingles bool `json:"includesingles"`
	}
	unmarshalParams(t, calls[0], &params)
	assert.True(t, params.IncludeSingles)
	require.Len(t, params.Filter.And, 1)
	assert.Equal(t, "artist", params.Filter.And[0].Field)
	assert.Equal(t, "is", params.Filter.And[0].Operator)
	assert.JSONEq(t, `"Ann"`, string(params.Filter.And[0].Value))
}

func TestSearchUsesContains(t *testing.T) {
	fake, _, h := newTestHandler(t)
	respondSongs(fake)

	_, err := h.Search(context.Background(), []protocol.TagFilter{
		{Tag: protocol.TagTitle, Value: "on"},
	})
	require.NoError(t, err)

	calls := fake.callsTo("AudioLibrary.GetSongs")
	require.Len(t, calls, 1)
	var params struct {
		Filter struct {
			And []struct {
				Operator string `json:"operator"`
			} `json:"and"`
		} `json:"filter"`
	}
	unmarshalParams(t, calls[0], &params)
	require.Len(t, params.Filter.And, 1)
	assert.Equal(t, "contains", params.Filter.And[0].Operator)
}

func TestBuildSongFilter(t *testing.T) {
	filter, err := buildSongFilter([]protocol.TagFilter{
		{Tag: protocol.TagAlbum, Value: "First"},
		{Tag: protocol.TagDate, Value: "2001"},
	}, "is")
	require.NoError(t, err)
	require.Len(t, filter.And, 2)
	assert.Equal(t, kodi.FieldFilter{Field: "album", Operator: "is", Value: "First"}, filter.And[0])
	assert.Equal(t, kodi.FieldFilter{Field: "year", Operator: "is", Value: "2001"}, filter.And[1])

	filter, err = buildSongFilter(nil, "is")
	require.NoError(t, err)
	assert.Nil(t, filter)

	_, err = buildSongFilter([]protocol.TagFilter{
		{Tag: protocol.TagComposer, Value: "x"},
	}, "is")
	requireAckCode(t, err, protocol.AckArg)
}

// Kodi packs disc and track into one column as disc*2^16+track; the
// disc filter turns into a range and the track filter into the 64
// values it could take.
func TestBuildSongFilterDiscAndTrack(t *testing.T) {
	filter, err := buildSongFilter([]protocol.TagFilter{
		{Tag: protocol.TagDisc, Value: "2"},
	}, "is")
	require.NoError(t, err)
	require.Len(t, filter.And, 1)
	assert.Equal(t, "tracknumber", filter.And[0].Field)
	assert.Equal(t, "between", filter.And[0].Operator)
	assert.Equal(t, []string{"131072", "196606"}, filter.And[0].Value)

	filter, err = buildSongFilter([]protocol.TagFilter{
		{Tag: protocol.TagTrack, Value: "3"},
	}, "is")
	require.NoError(t, err)
	require.Len(t, filter.And, 1)
	assert.Equal(t, "tracknumber", filter.And[0].Field)
	assert.Equal(t, "is", filter.And[0].Operator)
	values, ok := filter.And[0].Value.([]string)
	require.True(t, ok)
	require.Len(t, values, 64)
	assert.Equal(t, "65539", values[0])  // disc 1
	assert.Equal(t, "131075", values[1]) // disc 2
}

func TestList(t *testing.T) {
	fake, _, h := newTestHandler(t)
	respondSongs(fake)

	tags, err := h.List(context.Background(), protocol.TagAlbum, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []protocol.Tag{
		{Kind: protocol.TagAlbum, Value: "First"},
		{Kind: protocol.TagAlbum, Value: "Second"},
	}, tags)
}

func TestListGrouped(t *testing.T) {
	fake, _, h := newTestHandler(t)
	respondSongs(fake)

	tags, err := h.List(context.Background(), protocol.TagAlbum, nil, []protocol.TagType{protocol.TagArtist})
	require.NoError(t, err)
	assert.Equal(t, []protocol.Tag{
		{Kind: protocol.TagArtist, Value: "Ann"},
		{Kind: protocol.TagAlbum, Value: "First"},
		{Kind: protocol.TagArtist, Value: "Bob"},
		{Kind: protocol.TagAlbum, Value: "Second"},
	}, tags)
}

func TestUpdate(t *testing.T) {
	fake, player, h := newTestHandler(t)
	fake.respond("AudioLibrary.Scan", "OK")

	job, err := h.Update(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, job)
	assert.Equal(t, uint64(1), player.EventCount(protocol.SubsystemUpdate))

	job, err = h.Update(context.Background(), "Music/a")
	require.NoError(t, err)
	assert.Equal(t, 2, job)

	scans := fake.callsTo("AudioLibrary.Scan")
	require.Len(t, scans, 2)
	var first, second struct {
		Directory string `json:"directory"`
	}
	unmarshalParams(t, scans[0], &first)
	unmarshalParams(t, scans[1], &second)
	assert.Empty(t, first.Directory)
	assert.Equal(t, "smb://nas/music/a", second.Directory)

	_, err = h.Update(context.Background(), "Videos")
	requireAckCode(t, err, protocol.AckNoExist)
}

func TestIdleReportsPendingEvent(t *testing.T) {
	_, player, h := newTestHandler(t)

	player.Event(protocol.SubsystemMixer)
	set, err := h.Idle(context.Background(), protocol.AllSubsystems)
	require.NoError(t, err)
	assert.True(t, set.Has(protocol.SubsystemMixer))

	// The event is consumed; a second idle times out.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = h.Idle(ctx, protocol.AllSubsystems)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestIdleWakesOnEvent(t *testing.T) {
	_, player, h := newTestHandler(t)

	go func() {
		time.Sleep(10 * time.Millisecond)
		player.Event(protocol.SubsystemPlayer)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	set, err := h.Idle(ctx, protocol.AllSubsystems)
	require.NoError(t, err)
	assert.True(t, set.Has(protocol.SubsystemPlayer))
}

func TestIdleKeepsUnwantedEventsPending(t *testing.T) {
	_, player, h := newTestHandler(t)

	player.Event(protocol.SubsystemMixer)
	player.Event(protocol.SubsystemPlaylist)

	set, err := h.Idle(context.Background(), protocol.NewSubsystemSet(protocol.SubsystemPlaylist))
	require.NoError(t, err)
	assert.Equal(t, protocol.NewSubsystemSet(protocol.SubsystemPlaylist), set)

	// The mixer event is still there for a wider subscription.
	set, err = h.Idle(context.Background(), protocol.AllSubsystems)
	require.NoError(t, err)
	assert.Equal(t, protocol.NewSubsystemSet(protocol.SubsystemMixer), set)
}

func TestNewHandlerSkipsPastEvents(t *testing.T) {
	fake, player, h := newTestHandler(t)
	_ = fake
	_ = h

	player.Event(protocol.SubsystemMixer)
	fresh := NewHandler(nil, player, discardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := fresh.Idle(ctx, protocol.AllSubsystems)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
