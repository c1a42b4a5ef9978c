package kodi

import (
	"encoding/json"
	"time"
)

// Playlist type and repeat mode constants, as Kodi spells them.
const (
	MediaMusic = "music"
	MediaFiles = "files"

	PlayerAudio = "audio"

	RepeatOff = "off"
	RepeatAll = "all"
	RepeatOne = "one"
)

// Time is Kodi's split representation of a duration.
type Time struct {
	Hours        int `json:"hours"`
	Minutes      int `json:"minutes"`
	Seconds      int `json:"seconds"`
	Milliseconds int `json:"milliseconds"`
}

// Duration converts to a time.Duration.
func (t Time) Duration() time.Duration {
	return time.Duration(t.Hours)*time.Hour +
		time.Duration(t.Minutes)*time.Minute +
		time.Duration(t.Seconds)*time.Second +
		time.Duration(t.Milliseconds)*time.Millisecond
}

// TimeFromDuration converts a duration into Kodi's representation.
func TimeFromDuration(d time.Duration) Time {
	return Time{
		Hours:        int(d / time.Hour),
		Minutes:      int(d % time.Hour / time.Minute),
		Seconds:      int(d % time.Minute / time.Second),
		Milliseconds: int(d % time.Second / time.Millisecond),
	}
}

// Toggle marshals as either a boolean or the string "toggle", which is
// what Player.PlayPause and friends accept.
type Toggle struct {
	Value *bool
}

// ToggleFlip is the Toggle that inverts the current state.
var ToggleFlip = Toggle{}

// ToggleTo returns the Toggle that forces the given state.
func ToggleTo(state bool) Toggle {
	return Toggle{Value: &state}
}

func (t Toggle) MarshalJSON() ([]byte, error) {
	if t.Value == nil {
		return json.Marshal("toggle")
	}
	return json.Marshal(*t.Value)
}

// ActivePlayer is one entry of Player.GetActivePlayers.
type ActivePlayer struct {
	PlayerID int    `json:"playerid"`
	Type     string `json:"type"`
}

// ApplicationProperties is the subset of Application.GetProperties the
// proxy tracks.
type ApplicationProperties struct {
	Volume int  `json:"volume"`
	Muted  bool `json:"muted"`
}

// PlayerProperties is the subset of Player.GetProperties the proxy
// tracks. Position is -1 when the player has no current item.
type PlayerProperties struct {
	Type       string `json:"type"`
	Position   int    `json:"position"`
	Speed      int    `json:"speed"`
	Shuffled   bool   `json:"shuffled"`
	Repeat     string `json:"repeat"`
	PlaylistID int    `json:"playlistid"`
	Time       Time   `json:"time"`
	TotalTime  Time   `json:"totaltime"`
}

// ListItem is a playlist, directory or library item.
type ListItem struct {
	ID           int      `json:"id"`
	Type         string   `json:"type"`
	Label        string   `json:"label"`
	File         string   `json:"file"`
	FileType     string   `json:"filetype"`
	Title        string   `json:"title"`
	Artist       []string `json:"artist"`
	AlbumArtist  []string `json:"albumartist"`
	Album        string   `json:"album"`
	Genre        []string `json:"genre"`
	Track        int      `json:"track"`
	Disc         int      `json:"disc"`
	Year         int      `json:"year"`
	Duration     int      `json:"duration"`
	LastModified string   `json:"lastmodified"`
}

// Song is one entry of AudioLibrary.GetSongs. It carries the same
// metadata as ListItem but Kodi names the id field differently.
type Song struct {
	SongID      int      `json:"songid"`
	Label       string   `json:"label"`
	File        string   `json:"file"`
	Title       string   `json:"title"`
	Artist      []string `json:"artist"`
	AlbumArtist []string `json:"albumartist"`
	Album       string   `json:"album"`
	Genre       []string `json:"genre"`
	Track       int      `json:"track"`
	Disc        int      `json:"disc"`
	Year        int      `json:"year"`
	Duration    int      `json:"duration"`
}

// Source is a configured media source.
type Source struct {
	Label string `json:"label"`
	File  string `json:"file"`
}

// PlaylistItem is the item argument of Playlist.Add and
// Playlist.Insert: either a single file or a whole directory.
type PlaylistItem struct {
	File      string `json:"file,omitempty"`
	Directory string `json:"directory,omitempty"`
	Media     string `json:"media,omitempty"`
	Recursive bool   `json:"recursive,omitempty"`
}

// FieldFilter is one rule of a library filter. Value is a string for
// most operators; "between" takes a two-element list, and "is" also
// accepts a list of alternatives.
type FieldFilter struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

// Filter is a conjunction of rules for AudioLibrary.GetSongs.
type Filter struct {
	And []FieldFilter `json:"and"`
}
