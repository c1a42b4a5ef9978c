package protocol

import (
	"strings"
	"time"
)

// Command is one parsed protocol command. The concrete type determines
// the semantics; arguments are validated and typed at parse time and
// immutable afterwards.
type Command interface {
	Name() string
}

// Playback control.
type (
	CmdPlay     struct{ Pos *int }
	CmdPlayID   struct{ ID *int }
	CmdPause    struct{ Toggle *bool }
	CmdStop     struct{}
	CmdNext     struct{}
	CmdPrevious struct{}
	CmdSeek     struct {
		Pos  int
		Time time.Duration
	}
	CmdSeekID struct {
		ID   int
		Time time.Duration
	}
	CmdSeekCur struct{ Time time.Duration }
)

// Playback options.
type (
	CmdRandom  struct{ State bool }
	CmdRepeat  struct{ State bool }
	CmdSingle  struct{ State bool }
	CmdConsume struct{ State bool }
	CmdSetVol  struct{ Volume int }
	CmdGetVol  struct{}
)

// Queue management.
type (
	CmdAdd   struct{ URI string }
	CmdAddID struct {
		URI string
		Pos *int
	}
	CmdClear    struct{}
	CmdDelete   struct{ Range Range }
	CmdDeleteID struct{ ID int }
	CmdMove     struct {
		From Range
		To   int
	}
	CmdMoveID struct {
		ID int
		To int
	}
	CmdSwap struct{ Pos1, Pos2 int }
	CmdSwapID struct{ ID1, ID2 int }
	CmdCurrentSong  struct{}
	CmdPlaylistInfo struct{ Range *Range }
	CmdPlaylistID   struct{ ID *int }
	CmdPlaylistChanges struct {
		Version int
		Range   *Range
	}
	CmdPlaylistChangesPosID struct {
		Version int
		Range   *Range
	}
)

// Library.
type (
	CmdLsInfo struct{ URI string }
	CmdUpdate struct{ URI string }
	CmdRescan struct{ URI string }
	CmdFind   struct{ Filters []TagFilter }
	CmdSearch struct{ Filters []TagFilter }
	CmdList   struct {
		Tag     TagType
		Filters []TagFilter
		Groups  []TagType
	}
)

// Connection, reflection and no-op commands.
type (
	CmdStatus           struct{}
	CmdStats            struct{}
	CmdPing             struct{}
	CmdClose            struct{}
	CmdIdle             struct{ Subsystems SubsystemSet }
	CmdNoIdle           struct{}
	CmdCommands         struct{}
	CmdNotCommands      struct{}
	CmdDecoders         struct{}
	CmdOutputs          struct{}
	CmdChannels         struct{}
	CmdURLHandlers      struct{}
	CmdListPartitions   struct{}
	CmdListPlaylists    struct{}
	CmdListPlaylist     struct{ Playlist string }
	CmdListPlaylistInfo struct{ Playlist string }
	CmdReplayGainStatus struct{}
	CmdReplayGainMode   struct{ Mode string }
)

// TagTypesOp selects the tagtypes subcommand.
type TagTypesOp int

const (
	TagTypesList TagTypesOp = iota
	TagTypesAll
	TagTypesClear
	TagTypesEnable
	TagTypesDisable
)

// CmdTagTypes manages the set of tags the server sends to this client.
type CmdTagTypes struct {
	Op   TagTypesOp
	Tags TagSet
}

// Command list markers. These mutate connection mode in the session and
// never reach a handler.
type (
	CmdListBegin struct{ OK bool }
	CmdListEnd   struct{}
)

// CmdInvalid is a line that named a known verb with bad arguments, or an
// unknown verb. It carries its ack so command lists can buffer it and
// report the failure at the right position.
type CmdInvalid struct {
	Verb string
	Ack  *Ack
}

func (CmdPlay) Name() string                 { return "play" }
func (CmdPlayID) Name() string               { return "playid" }
func (CmdPause) Name() string                { return "pause" }
func (CmdStop) Name() string                 { return "stop" }
func (CmdNext) Name() string                 { return "next" }
func (CmdPrevious) Name() string             { return "previous" }
func (CmdSeek) Name() string                 { return "seek" }
func (CmdSeekID) Name() string               { return "seekid" }
func (CmdSeekCur) Name() string              { return "seekcur" }
func (CmdRandom) Name() string               { return "random" }
func (CmdRepeat) Name() string               { return "repeat" }
func (CmdSingle) Name() string               { return "single" }
func (CmdConsume) Name() string              { return "consume" }
func (CmdSetVol) Name() string               { return "setvol" }
func (CmdGetVol) Name() string               { return "getvol" }
func (CmdAdd) Name() string                  { return "add" }
func (CmdAddID) Name() string                { return "addid" }
func (CmdClear) Name() string                { return "clear" }
func (CmdDelete) Name() string               { return "delete" }
func (CmdDeleteID) Name() string             { return "deleteid" }
func (CmdMove) Name() string                 { return "move" }
func (CmdMoveID) Name() string               { return "moveid" }
func (CmdSwap) Name() string                 { return "swap" }
func (CmdSwapID) Name() string               { return "swapid" }
func (CmdCurrentSong) Name() string          { return "currentsong" }
func (CmdPlaylistInfo) Name() string         { return "playlistinfo" }
func (CmdPlaylistID) Name() string           { return "playlistid" }
func (CmdPlaylistChanges) Name() string      { return "plchanges" }
func (CmdPlaylistChangesPosID) Name() string { return "plchangesposid" }
func (CmdLsInfo) Name() string               { return "lsinfo" }
func (CmdUpdate) Name() string               { return "update" }
func (CmdRescan) Name() string               { return "rescan" }
func (CmdFind) Name() string                 { return "find" }
func (CmdSearch) Name() string               { return "search" }
func (CmdList) Name() string                 { return "list" }
func (CmdStatus) Name() string               { return "status" }
func (CmdStats) Name() string                { return "stats" }
func (CmdPing) Name() string                 { return "ping" }
func (CmdClose) Name() string                { return "close" }
func (CmdIdle) Name() string                 { return "idle" }
func (CmdNoIdle) Name() string               { return "noidle" }
func (CmdCommands) Name() string             { return "commands" }
func (CmdNotCommands) Name() string          { return "notcommands" }
func (CmdDecoders) Name() string             { return "decoders" }
func (CmdOutputs) Name() string              { return "outputs" }
func (CmdChannels) Name() string             { return "channels" }
func (CmdURLHandlers) Name() string          { return "urlhandlers" }
func (CmdListPartitions) Name() string       { return "listpartitions" }
func (CmdListPlaylists) Name() string        { return "listplaylists" }
func (CmdListPlaylist) Name() string         { return "listplaylist" }
func (CmdListPlaylistInfo) Name() string     { return "listplaylistinfo" }
func (CmdReplayGainStatus) Name() string     { return "replay_gain_status" }
func (CmdReplayGainMode) Name() string       { return "replay_gain_mode" }
func (CmdTagTypes) Name() string             { return "tagtypes" }
func (CmdListBegin) Name() string {
	return "command_list_begin"
}
func (CmdListEnd) Name() string  { return "command_list_end" }
func (c CmdInvalid) Name() string { return c.Verb }

// ParseLine parses one command line. An empty line yields nil. Argument
// and verb errors yield a CmdInvalid; ParseLine never fails outright so
// a command list can buffer bad commands and report them positionally.
func ParseLine(line string) Command {
	line = strings.TrimSuffix(line, "\r")
	verb, rawArgs := SplitLine(line)
	if verb == "" {
		return nil
	}
	tok := NewTokenizer(rawArgs)

	cmd := parseVerb(verb, tok)
	if inv, ok := cmd.(CmdInvalid); ok {
		return inv
	}
	if tok.More() {
		return wrongArgs(verb)
	}
	return cmd
}

func wrongArgs(verb string) Command {
	return CmdInvalid{Verb: verb, Ack: NewAck(AckArg, "wrong number of arguments for %q", verb)}
}

func invalidArg(verb string, err error) Command {
	if err == errMissingArg {
		return wrongArgs(verb)
	}
	return CmdInvalid{Verb: verb, Ack: NewAck(AckArg, "%s", err.Error())}
}

func parseVerb(verb string, tok *Tokenizer) Command {
	switch verb {
	case "add":
		uri, err := tok.Next()
		if err != nil {
			return invalidArg(verb, err)
		}
		return CmdAdd{URI: uri}
	case "addid":
		uri, err := tok.Next()
		if err != nil {
			return invalidArg(verb, err)
		}
		cmd := CmdAddID{URI: uri}
		if tok.More() {
			pos, err := tok.NextInt()
			if err != nil {
				return invalidArg(verb, err)
			}
			cmd.Pos = &pos
		}
		return cmd
	case "channels":
		return CmdChannels{}
	case "clear":
		return CmdClear{}
	case "close":
		return CmdClose{}
	case "command_list_begin":
		return CmdListBegin{OK: false}
	case "command_list_ok_begin":
		return CmdListBegin{OK: true}
	case "command_list_end":
		return CmdListEnd{}
	case "commands":
		return CmdCommands{}
	case "consume":
		state, err := tok.NextBool()
		if err != nil {
			return invalidArg(verb, err)
		}
		return CmdConsume{State: state}
	case "currentsong":
		return CmdCurrentSong{}
	case "decoders":
		return CmdDecoders{}
	case "delete":
		rng, err := tok.NextRange()
		if err != nil {
			return invalidArg(verb, err)
		}
		return CmdDelete{Range: rng}
	case "deleteid":
		id, err := tok.NextInt()
		if err != nil {
			return invalidArg(verb, err)
		}
		return CmdDeleteID{ID: id}
	case "find":
		filters, inv := parseFilters(verb, tok)
		if inv != nil {
			return inv
		}
		return CmdFind{Filters: filters}
	case "getvol":
		return CmdGetVol{}
	case "idle":
		return parseIdle(verb, tok)
	case "list":
		return parseList(verb, tok)
	case "listpartitions":
		return CmdListPartitions{}
	case "listplaylist":
		name, err := tok.Next()
		if err != nil {
			return invalidArg(verb, err)
		}
		return CmdListPlaylist{Playlist: name}
	case "listplaylistinfo":
		name, err := tok.Next()
		if err != nil {
			return invalidArg(verb, err)
		}
		return CmdListPlaylistInfo{Playlist: name}
	case "listplaylists":
		return CmdListPlaylists{}
	case "lsinfo":
		var uri string
		if tok.More() {
			var err error
			if uri, err = tok.Next(); err != nil {
				return invalidArg(verb, err)
			}
		}
		return CmdLsInfo{URI: uri}
	case "move":
		from, err := tok.NextRange()
		if err != nil {
			return invalidArg(verb, err)
		}
		to, err := tok.NextInt()
		if err != nil {
			return invalidArg(verb, err)
		}
		return CmdMove{From: from, To: to}
	case "moveid":
		id, err := tok.NextInt()
		if err != nil {
			return invalidArg(verb, err)
		}
		to, err := tok.NextInt()
		if err != nil {
			return invalidArg(verb, err)
		}
		return CmdMoveID{ID: id, To: to}
	case "next":
		return CmdNext{}
	case "noidle":
		return CmdNoIdle{}
	case "notcommands":
		return CmdNotCommands{}
	case "outputs":
		return CmdOutputs{}
	case "pause":
		var toggle *bool
		if tok.More() {
			state, err := tok.NextBool()
			if err != nil {
				return invalidArg(verb, err)
			}
			toggle = &state
		}
		return CmdPause{Toggle: toggle}
	case "ping":
		return CmdPing{}
	case "play":
		var pos *int
		if tok.More() {
			n, err := tok.NextInt()
			if err != nil {
				return invalidArg(verb, err)
			}
			pos = &n
		}
		return CmdPlay{Pos: pos}
	case "playid":
		var id *int
		if tok.More() {
			n, err := tok.NextInt()
			if err != nil {
				return invalidArg(verb, err)
			}
			id = &n
		}
		return CmdPlayID{ID: id}
	case "playlistid":
		var id *int
		if tok.More() {
			n, err := tok.NextInt()
			if err != nil {
				return invalidArg(verb, err)
			}
			id = &n
		}
		return CmdPlaylistID{ID: id}
	case "playlistinfo":
		rng, inv := parseOptRange(verb, tok)
		if inv != nil {
			return inv
		}
		return CmdPlaylistInfo{Range: rng}
	case "plchanges":
		version, err := tok.NextInt()
		if err != nil {
			return invalidArg(verb, err)
		}
		rng, inv := parseOptRange(verb, tok)
		if inv != nil {
			return inv
		}
		return CmdPlaylistChanges{Version: version, Range: rng}
	case "plchangesposid":
		version, err := tok.NextInt()
		if err != nil {
			return invalidArg(verb, err)
		}
		rng, inv := parseOptRange(verb, tok)
		if inv != nil {
			return inv
		}
		return CmdPlaylistChangesPosID{Version: version, Range: rng}
	case "previous":
		return CmdPrevious{}
	case "random":
		state, err := tok.NextBool()
		if err != nil {
			return invalidArg(verb, err)
		}
		return CmdRandom{State: state}
	case "repeat":
		state, err := tok.NextBool()
		if err != nil {
			return invalidArg(verb, err)
		}
		return CmdRepeat{State: state}
	case "replay_gain_mode":
		mode, err := tok.Next()
		if err != nil {
			return invalidArg(verb, err)
		}
		switch mode {
		case "off", "track", "album", "auto":
			return CmdReplayGainMode{Mode: mode}
		}
		return CmdInvalid{Verb: verb, Ack: NewAck(AckArg, "unrecognized replay gain mode")}
	case "replay_gain_status":
		return CmdReplayGainStatus{}
	case "rescan":
		var uri string
		if tok.More() {
			var err error
			if uri, err = tok.Next(); err != nil {
				return invalidArg(verb, err)
			}
		}
		return CmdRescan{URI: uri}
	case "search":
		filters, inv := parseFilters(verb, tok)
		if inv != nil {
			return inv
		}
		return CmdSearch{Filters: filters}
	case "seek":
		pos, err := tok.NextInt()
		if err != nil {
			return invalidArg(verb, err)
		}
		t, err := tok.NextDuration()
		if err != nil {
			return invalidArg(verb, err)
		}
		return CmdSeek{Pos: pos, Time: t}
	case "seekcur":
		t, err := tok.NextDuration()
		if err != nil {
			return invalidArg(verb, err)
		}
		return CmdSeekCur{Time: t}
	case "seekid":
		id, err := tok.NextInt()
		if err != nil {
			return invalidArg(verb, err)
		}
		t, err := tok.NextDuration()
		if err != nil {
			return invalidArg(verb, err)
		}
		return CmdSeekID{ID: id, Time: t}
	case "setvol":
		vol, err := tok.NextInt()
		if err != nil {
			return invalidArg(verb, err)
		}
		if vol > 100 {
			return CmdInvalid{Verb: verb, Ack: NewAck(AckArg, "volume out of range: %d", vol)}
		}
		return CmdSetVol{Volume: vol}
	case "single":
		state, err := tok.NextBool()
		if err != nil {
			return invalidArg(verb, err)
		}
		return CmdSingle{State: state}
	case "stats":
		return CmdStats{}
	case "status":
		return CmdStatus{}
	case "stop":
		return CmdStop{}
	case "swap":
		pos1, err := tok.NextInt()
		if err != nil {
			return invalidArg(verb, err)
		}
		pos2, err := tok.NextInt()
		if err != nil {
			return invalidArg(verb, err)
		}
		return CmdSwap{Pos1: pos1, Pos2: pos2}
	case "swapid":
		id1, err := tok.NextInt()
		if err != nil {
			return invalidArg(verb, err)
		}
		id2, err := tok.NextInt()
		if err != nil {
			return invalidArg(verb, err)
		}
		return CmdSwapID{ID1: id1, ID2: id2}
	case "tagtypes":
		return parseTagTypes(verb, tok)
	case "update":
		var uri string
		if tok.More() {
			var err error
			if uri, err = tok.Next(); err != nil {
				return invalidArg(verb, err)
			}
		}
		return CmdUpdate{URI: uri}
	case "urlhandlers":
		return CmdURLHandlers{}
	}
	return CmdInvalid{Verb: verb, Ack: NewAck(AckUnknown, "unknown command %q", verb)}
}

func parseOptRange(verb string, tok *Tokenizer) (*Range, Command) {
	if !tok.More() {
		return nil, nil
	}
	rng, err := tok.NextRange()
	if err != nil {
		return nil, invalidArg(verb, err)
	}
	return &rng, nil
}

func parseIdle(verb string, tok *Tokenizer) Command {
	var set SubsystemSet
	for tok.More() {
		name, err := tok.Next()
		if err != nil {
			return invalidArg(verb, err)
		}
		sub, ok := SubsystemFromName(strings.ToLower(name))
		if !ok {
			return CmdInvalid{Verb: verb, Ack: NewAck(AckUnknown, "unrecognized idle event: %s", name)}
		}
		set = set.With(sub)
	}
	if set.IsEmpty() {
		set = AllSubsystems
	}
	return CmdIdle{Subsystems: set}
}

// parseFilters reads TAG VALUE pairs until the arguments are exhausted,
// as find and search take them. sort and window are not supported.
func parseFilters(verb string, tok *Tokenizer) ([]TagFilter, Command) {
	var filters []TagFilter
	for tok.More() {
		name, err := tok.Next()
		if err != nil {
			return nil, invalidArg(verb, err)
		}
		lowered := strings.ToLower(name)
		if lowered == "sort" || lowered == "window" {
			return nil, CmdInvalid{Verb: verb, Ack: NewAck(AckArg, "unsupported argument: %s", lowered)}
		}
		tag, ok := TagFromName(lowered)
		if !ok {
			return nil, CmdInvalid{Verb: verb, Ack: NewAck(AckArg, "unknown filter type: %s", name)}
		}
		value, err := tok.Next()
		if err != nil {
			return nil, invalidArg(verb, err)
		}
		filters = append(filters, TagFilter{Tag: tag, Value: value})
	}
	return filters, nil
}

func parseList(verb string, tok *Tokenizer) Command {
	name, err := tok.Next()
	if err != nil {
		return invalidArg(verb, err)
	}
	tag, ok := TagFromName(strings.ToLower(name))
	if !ok {
		return CmdInvalid{Verb: verb, Ack: NewAck(AckArg, "unknown tag type: %s", name)}
	}

	var filters []TagFilter
	var groups []TagType
	for tok.More() {
		arg, err := tok.Next()
		if err != nil {
			return invalidArg(verb, err)
		}
		lowered := strings.ToLower(arg)
		if lowered == "group" {
			groupTag, inv := parseListGroup(verb, tok)
			if inv != nil {
				return inv
			}
			groups = append(groups, groupTag)
			continue
		}
		filterTag, ok := TagFromName(lowered)
		if !ok {
			// `list album X` is legacy shorthand for an artist filter.
			if len(filters) == 0 && !tok.More() && tag == TagAlbum {
				filters = append(filters, TagFilter{Tag: TagArtist, Value: arg})
				continue
			}
			return CmdInvalid{Verb: verb, Ack: NewAck(AckArg, "unknown filter type: %s", arg)}
		}
		value, err := tok.Next()
		if err != nil {
			return invalidArg(verb, err)
		}
		filters = append(filters, TagFilter{Tag: filterTag, Value: value})
	}
	return CmdList{Tag: tag, Filters: filters, Groups: groups}
}

func parseListGroup(verb string, tok *Tokenizer) (TagType, Command) {
	name, err := tok.Next()
	if err != nil {
		return 0, invalidArg(verb, err)
	}
	tag, ok := TagFromName(strings.ToLower(name))
	if !ok {
		return 0, CmdInvalid{Verb: verb, Ack: NewAck(AckArg, "unknown tag type: %s", name)}
	}
	return tag, nil
}

func parseTagTypes(verb string, tok *Tokenizer) Command {
	if !tok.More() {
		return CmdTagTypes{Op: TagTypesList}
	}
	sub, err := tok.Next()
	if err != nil {
		return invalidArg(verb, err)
	}
	switch sub {
	case "all":
		return CmdTagTypes{Op: TagTypesAll}
	case "clear":
		return CmdTagTypes{Op: TagTypesClear}
	case "enable", "disable":
		var tags TagSet
		for tok.More() {
			name, err := tok.Next()
			if err != nil {
				return invalidArg(verb, err)
			}
			tag, ok := TagFromName(strings.ToLower(name))
			if !ok {
				return CmdInvalid{Verb: verb, Ack: NewAck(AckArg, "unknown tag type: %s", name)}
			}
			tags = tags.With(tag)
		}
		if tags == 0 {
			return wrongArgs(verb)
		}
		if sub == "enable" {
			return CmdTagTypes{Op: TagTypesEnable, Tags: tags}
		}
		return CmdTagTypes{Op: TagTypesDisable, Tags: tags}
	}
	return CmdInvalid{Verb: verb, Ack: NewAck(AckArg, "unknown sub command")}
}
