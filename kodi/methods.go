package kodi

import "context"

// Property lists requested from Kodi. Asking for a fixed subset keeps
// the poll responses small.
var (
	applicationProperties = []string{"volume", "muted"}
	playerProperties      = []string{
		"type", "position", "speed", "shuffled", "repeat",
		"playlistid", "time", "totaltime",
	}
	itemProperties = []string{
		"file", "title", "artist", "albumartist", "album", "genre",
		"track", "disc", "year", "duration",
	}
	fileProperties = []string{
		"file", "title", "artist", "albumartist", "album", "genre",
		"track", "disc", "year", "duration", "lastmodified",
	}
	songProperties = []string{
		"file", "title", "artist", "albumartist", "album", "genre",
		"track", "disc", "year", "duration",
	}
)

func (c *Client) ApplicationGetProperties(ctx context.Context) (*ApplicationProperties, error) {
	var props ApplicationProperties
	err := c.Call(ctx, "Application.GetProperties", map[string]any{
		"properties": applicationProperties,
	}, &props)
	if err != nil {
		return nil, err
	}
	return &props, nil
}

func (c *Client) ApplicationSetVolume(ctx context.Context, volume int) error {
	return c.Call(ctx, "Application.SetVolume", map[string]any{
		"volume": volume,
	}, nil)
}

func (c *Client) PlayerGetActivePlayers(ctx context.Context) ([]ActivePlayer, error) {
	var players []ActivePlayer
	if err := c.Call(ctx, "Player.GetActivePlayers", nil, &players); err != nil {
		return nil, err
	}
	return players, nil
}

func (c *Client) PlayerGetProperties(ctx context.Context, playerID int) (*PlayerProperties, error) {
	var props PlayerProperties
	err := c.Call(ctx, "Player.GetProperties", map[string]any{
		"playerid":   playerID,
		"properties": playerProperties,
	}, &props)
	if err != nil {
		return nil, err
	}
	return &props, nil
}

// PlayerOpen starts playback of the given playlist position.
func (c *Client) PlayerOpen(ctx context.Context, playlistID, position int) error {
	return c.Call(ctx, "Player.Open", map[string]any{
		"item": map[string]any{
			"playlistid": playlistID,
			"position":   position,
		},
	}, nil)
}

// PlayerGoTo jumps to "next", "previous" or an absolute position.
func (c *Client) PlayerGoTo(ctx context.Context, playerID int, to any) error {
	return c.Call(ctx, "Player.GoTo", map[string]any{
		"playerid": playerID,
		"to":       to,
	}, nil)
}

func (c *Client) PlayerPlayPause(ctx context.Context, playerID int, play Toggle) error {
	return c.Call(ctx, "Player.PlayPause", map[string]any{
		"playerid": playerID,
		"play":     play,
	}, nil)
}

func (c *Client) PlayerStop(ctx context.Context, playerID int) error {
	return c.Call(ctx, "Player.Stop", map[string]any{
		"playerid": playerID,
	}, nil)
}

func (c *Client) PlayerSeekTime(ctx context.Context, playerID int, t Time) error {
	return c.Call(ctx, "Player.Seek", map[string]any{
		"playerid": playerID,
		"value":    map[string]any{"time": t},
	}, nil)
}

func (c *Client) PlayerSetShuffle(ctx context.Context, playerID int, shuffle bool) error {
	return c.Call(ctx, "Player.SetShuffle", map[string]any{
		"playerid": playerID,
		"shuffle":  shuffle,
	}, nil)
}

func (c *Client) PlayerSetRepeat(ctx context.Context, playerID int, repeat string) error {
	return c.Call(ctx, "Player.SetRepeat", map[string]any{
		"playerid": playerID,
		"repeat":   repeat,
	}, nil)
}

func (c *Client) PlaylistGetItems(ctx context.Context, playlistID int) ([]ListItem, error) {
	var result struct {
		Items []ListItem `json:"items"`
	}
	err := c.Call(ctx, "Playlist.GetItems", map[string]any{
		"playlistid": playlistID,
		"properties": itemProperties,
	}, &result)
	if err != nil {
		return nil, err
	}
	return result.Items, nil
}

func (c *Client) PlaylistAdd(ctx context.Context, playlistID int, item PlaylistItem) error {
	return c.Call(ctx, "Playlist.Add", map[string]any{
		"playlistid": playlistID,
		"item":       []PlaylistItem{item},
	}, nil)
}

func (c *Client) PlaylistInsert(ctx context.Context, playlistID, position int, item PlaylistItem) error {
	return c.Call(ctx, "Playlist.Insert", map[string]any{
		"playlistid": playlistID,
		"position":   position,
		"item":       []PlaylistItem{item},
	}, nil)
}

func (c *Client) PlaylistRemove(ctx context.Context, playlistID, position int) error {
	return c.Call(ctx, "Playlist.Remove", map[string]any{
		"playlistid": playlistID,
		"position":   position,
	}, nil)
}

func (c *Client) PlaylistSwap(ctx context.Context, playlistID, position1, position2 int) error {
	return c.Call(ctx, "Playlist.Swap", map[string]any{
		"playlistid": playlistID,
		"position1":  position1,
		"position2":  position2,
	}, nil)
}

func (c *Client) PlaylistClear(ctx context.Context, playlistID int) error {
	return c.Call(ctx, "Playlist.Clear", map[string]any{
		"playlistid": playlistID,
	}, nil)
}

func (c *Client) FilesGetDirectory(ctx context.Context, directory, media string) ([]ListItem, error) {
	var result struct {
		Files []ListItem `json:"files"`
	}
	err := c.Call(ctx, "Files.GetDirectory", map[string]any{
		"directory":  directory,
		"media":      media,
		"properties": fileProperties,
	}, &result)
	if err != nil {
		return nil, err
	}
	return result.Files, nil
}

func (c *Client) FilesGetFileDetails(ctx context.Context, file, media string) (*ListItem, error) {
	var result struct {
		FileDetails ListItem `json:"filedetails"`
	}
	err := c.Call(ctx, "Files.GetFileDetails", map[string]any{
		"file":       file,
		"media":      media,
		"properties": fileProperties,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result.FileDetails, nil
}

func (c *Client) AudioLibraryGetSources(ctx context.Context) ([]Source, error) {
	var result struct {
		Sources []Source `json:"sources"`
	}
	if err := c.Call(ctx, "AudioLibrary.GetSources", nil, &result); err != nil {
		return nil, err
	}
	return result.Sources, nil
}

// AudioLibraryGetSongs returns the library songs matching filter; a nil
// filter returns everything.
func (c *Client) AudioLibraryGetSongs(ctx context.Context, filter *Filter) ([]Song, error) {
	params := map[string]any{
		"properties":     songProperties,
		"includesingles": true,
	}
	if filter != nil {
		params["filter"] = filter
	}
	var result struct {
		Songs []Song `json:"songs"`
	}
	if err := c.Call(ctx, "AudioLibrary.GetSongs", params, &result); err != nil {
		return nil, err
	}
	return result.Songs, nil
}

// AudioLibraryScan rescans the audio sources; an empty directory means
// all of them.
func (c *Client) AudioLibraryScan(ctx context.Context, directory string) error {
	params := map[string]any{"showdialogs": false}
	if directory != "" {
		params["directory"] = directory
	}
	return c.Call(ctx, "AudioLibrary.Scan", params, nil)
}
