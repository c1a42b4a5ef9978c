package server

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/marmeladema/kodimpd/protocol"
)

// protocolVersion is the MPD protocol version announced in the banner.
// Clients gate feature use on it; 0.22 covers everything served here.
const protocolVersion = "0.22.0"

// errCloseRequested ends a session cleanly, without logging a failure.
var errCloseRequested = errors.New("close requested")

// supportedCommands is what the commands verb reports, sorted.
var supportedCommands = []string{
	"add", "addid", "channels", "clear", "close", "commands", "consume",
	"currentsong", "decoders", "delete", "deleteid", "find", "getvol",
	"idle", "list", "listpartitions", "listplaylist", "listplaylistinfo",
	"listplaylists", "lsinfo", "move", "moveid", "next", "noidle",
	"notcommands", "outputs", "pause", "ping", "play", "playid",
	"playlistid", "playlistinfo", "plchanges", "plchangesposid",
	"previous", "random", "repeat", "replay_gain_mode",
	"replay_gain_status", "rescan", "search", "seek", "seekcur", "seekid",
	"setvol", "single", "stats", "status", "stop", "swap", "swapid",
	"tagtypes", "update", "urlhandlers",
}

// session runs the protocol state machine for one connection. It owns
// the wire; the handler owns the semantics.
type session struct {
	conn    net.Conn
	handler CommandHandler
	w       *protocol.Writer
	log     *slog.Logger
	started time.Time

	// tags is the per-connection set of tag types the client wants in
	// song responses, managed by the tagtypes command.
	tags protocol.TagSet

	// Command list accumulation state.
	inList bool
	listOK bool
	list   []protocol.Command
}

func newSession(conn net.Conn, handler CommandHandler, log *slog.Logger, started time.Time) *session {
	return &session{
		conn:    conn,
		handler: handler,
		w:       protocol.NewWriter(conn),
		log:     log,
		started: started,
		tags:    protocol.AllTags,
	}
}

// run serves the connection until the client disconnects, sends close,
// or ctx is canceled. Read errors are not reported; a vanished client
// is the normal way a session ends.
func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := s.w.Banner(protocolVersion); err != nil {
		return
	}

	// A dedicated reader goroutine feeds lines into a channel so the
	// idle state can select between incoming commands and subsystem
	// changes. The goroutine exits when the connection closes or the
	// session's context is canceled.
	lines := make(chan string)
	go readLines(ctx, s.conn, lines)

	for {
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return
		case line, ok = <-lines:
			if !ok {
				return
			}
		}

		cmd := protocol.ParseLine(line)
		if cmd == nil {
			continue
		}
		if err := s.dispatch(ctx, cmd, lines); err != nil {
			if !errors.Is(err, errCloseRequested) {
				s.log.Debug("session ended", "error", err)
			}
			return
		}
	}
}

func readLines(ctx context.Context, conn net.Conn, lines chan<- string) {
	defer close(lines)
	r := bufio.NewReaderSize(conn, 8192)
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			return
		}
		select {
		case lines <- strings.TrimSuffix(line, "\n"):
		case <-ctx.Done():
			return
		}
	}
}

// dispatch routes one parsed command according to the connection mode.
func (s *session) dispatch(ctx context.Context, cmd protocol.Command, lines <-chan string) error {
	if s.inList {
		return s.collectListCommand(ctx, cmd)
	}

	switch c := cmd.(type) {
	case protocol.CmdListBegin:
		s.inList = true
		s.listOK = c.OK
		s.list = nil
		return nil
	case protocol.CmdListEnd:
		return s.w.Ack(&protocol.Ack{
			Code:    protocol.AckNotList,
			Command: c.Name(),
			Message: "not in command list mode",
		})
	case protocol.CmdClose:
		return errCloseRequested
	case protocol.CmdIdle:
		return s.runIdle(ctx, c.Subsystems, lines)
	case protocol.CmdNoIdle:
		// Harmless outside idle.
		return s.w.OK()
	case protocol.CmdInvalid:
		return s.ackCommand(c, 0)
	}

	s.log.Debug("command", "verb", cmd.Name())
	if err := s.answer(ctx, cmd); err != nil {
		if errors.Is(err, errCloseRequested) {
			return err
		}
		return s.w.Ack(ackFromError(cmd.Name(), 0, err))
	}
	return s.w.OK()
}

// collectListCommand buffers commands until command_list_end, then
// executes the whole list. Parse failures are buffered too so the
// failure is reported at its position.
func (s *session) collectListCommand(ctx context.Context, cmd protocol.Command) error {
	switch cmd.(type) {
	case protocol.CmdListEnd:
		list := s.list
		s.inList = false
		s.list = nil
		return s.executeList(ctx, list)
	case protocol.CmdListBegin:
		// Lists do not nest.
		s.list = append(s.list, protocol.CmdInvalid{
			Verb: cmd.Name(),
			Ack:  protocol.NewAck(protocol.AckUnknown, "unknown command %q", cmd.Name()),
		})
		return nil
	}
	s.list = append(s.list, cmd)
	return nil
}

// executeList runs the buffered commands in order. The first failure
// acks with the 0-based index of the failing command and discards the
// rest; everything before it has already taken effect.
func (s *session) executeList(ctx context.Context, list []protocol.Command) error {
	s.log.Debug("command list", "len", len(list), "ok_mode", s.listOK)
	for i, cmd := range list {
		if inv, ok := cmd.(protocol.CmdInvalid); ok {
			return s.ackCommand(inv, i)
		}
		if err := s.answer(ctx, cmd); err != nil {
			if errors.Is(err, errCloseRequested) {
				return err
			}
			return s.w.Ack(ackFromError(cmd.Name(), i, err))
		}
		if s.listOK {
			if err := s.w.ListOK(); err != nil {
				return err
			}
		}
	}
	return s.w.OK()
}

func (s *session) ackCommand(inv protocol.CmdInvalid, index int) error {
	ack := *inv.Ack
	ack.Index = index
	ack.Command = inv.Verb
	return s.w.Ack(&ack)
}

// ackFromError converts a handler error into a protocol ack. A
// *protocol.Ack anywhere in the chain passes through; anything else
// becomes a system error.
func ackFromError(verb string, index int, err error) *protocol.Ack {
	var ack *protocol.Ack
	if errors.As(err, &ack) {
		out := *ack
		out.Index = index
		if out.Command == "" {
			out.Command = verb
		}
		return &out
	}
	return &protocol.Ack{
		Code:    protocol.AckSystem,
		Index:   index,
		Command: verb,
		Message: err.Error(),
	}
}

// runIdle blocks in the idle state: it waits for the handler to report
// a subsystem change while watching the line channel for noidle. Any
// other command cancels the wait and is refused with an UNKNOWN ack;
// the session stays usable afterwards.
func (s *session) runIdle(ctx context.Context, wanted protocol.SubsystemSet, lines <-chan string) error {
	ictx, cancel := context.WithCancel(ctx)
	defer cancel()

	type idleResult struct {
		changed protocol.SubsystemSet
		err     error
	}
	results := make(chan idleResult, 1)
	go func() {
		changed, err := s.handler.Idle(ictx, wanted)
		results <- idleResult{changed: changed, err: err}
	}()

	finish := func(res idleResult) error {
		if res.err != nil && !errors.Is(res.err, context.Canceled) {
			return s.w.Ack(ackFromError("idle", 0, res.err))
		}
		if !res.changed.IsEmpty() {
			if err := s.w.Changed(res.changed); err != nil {
				return err
			}
		}
		return s.w.OK()
	}

	select {
	case res := <-results:
		return finish(res)
	case line, ok := <-lines:
		cancel()
		res := <-results
		if !ok {
			return errCloseRequested
		}
		cmd := protocol.ParseLine(line)
		if _, isNoIdle := cmd.(protocol.CmdNoIdle); !isNoIdle && cmd != nil {
			return s.w.Ack(&protocol.Ack{
				Code:    protocol.AckUnknown,
				Command: cmd.Name(),
				Message: "only noidle may interrupt idle",
			})
		}
		return finish(res)
	}
}

// answer executes one command and writes its response body. The caller
// terminates the response with OK, list_OK or an ack.
func (s *session) answer(ctx context.Context, cmd protocol.Command) error {
	switch c := cmd.(type) {
	case protocol.CmdStatus:
		st, err := s.handler.Status(ctx)
		if err != nil {
			return err
		}
		return s.w.Status(st)
	case protocol.CmdCurrentSong:
		entry, err := s.handler.CurrentSong(ctx)
		if err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		return s.writeEntry(entry)

	case protocol.CmdPlay:
		return s.handler.Play(ctx, c.Pos)
	case protocol.CmdPlayID:
		return s.handler.PlayID(ctx, c.ID)
	case protocol.CmdPause:
		return s.handler.Pause(ctx, c.Toggle)
	case protocol.CmdStop:
		return s.handler.Stop(ctx)
	case protocol.CmdNext:
		return s.handler.Next(ctx)
	case protocol.CmdPrevious:
		return s.handler.Previous(ctx)
	case protocol.CmdSeek:
		return s.handler.Seek(ctx, c.Pos, c.Time)
	case protocol.CmdSeekID:
		return s.handler.SeekID(ctx, c.ID, c.Time)
	case protocol.CmdSeekCur:
		return s.handler.SeekCurrent(ctx, c.Time)

	case protocol.CmdRandom:
		return s.handler.Random(ctx, c.State)
	case protocol.CmdRepeat:
		return s.handler.Repeat(ctx, c.State)
	case protocol.CmdSingle:
		return s.handler.Single(ctx, c.State)
	case protocol.CmdConsume:
		return s.handler.Consume(ctx, c.State)
	case protocol.CmdSetVol:
		return s.handler.SetVolume(ctx, c.Volume)
	case protocol.CmdGetVol:
		vol, err := s.handler.Volume(ctx)
		if err != nil {
			return err
		}
		return s.w.Field("volume", vol)

	case protocol.CmdAdd:
		_, err := s.handler.QueueAdd(ctx, c.URI, nil)
		return err
	case protocol.CmdAddID:
		id, err := s.handler.QueueAdd(ctx, c.URI, c.Pos)
		if err != nil {
			return err
		}
		return s.w.Field("Id", id)
	case protocol.CmdClear:
		return s.handler.QueueClear(ctx)
	case protocol.CmdDelete:
		return s.handler.QueueDelete(ctx, c.Range)
	case protocol.CmdDeleteID:
		return s.handler.QueueDeleteID(ctx, c.ID)
	case protocol.CmdMove:
		return s.handler.QueueMove(ctx, c.From, c.To)
	case protocol.CmdMoveID:
		return s.handler.QueueMoveID(ctx, c.ID, c.To)
	case protocol.CmdSwap:
		return s.handler.QueueSwap(ctx, c.Pos1, c.Pos2)
	case protocol.CmdSwapID:
		return s.handler.QueueSwapID(ctx, c.ID1, c.ID2)

	case protocol.CmdPlaylistInfo:
		return s.writeQueue(ctx, c.Range)
	case protocol.CmdPlaylistID:
		if c.ID == nil {
			return s.writeQueue(ctx, nil)
		}
		entry, err := s.handler.QueueGet(ctx, *c.ID)
		if err != nil {
			return err
		}
		return s.writeEntry(entry)
	case protocol.CmdPlaylistChanges:
		// Versions are not tracked per entry; report the whole window
		// as changed, which clients treat as a full reload.
		return s.writeQueue(ctx, c.Range)
	case protocol.CmdPlaylistChangesPosID:
		entries, err := s.handler.QueueList(ctx, c.Range)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := s.w.Field("cpos", e.Position); err != nil {
				return err
			}
			if err := s.w.Field("Id", e.ID); err != nil {
				return err
			}
		}
		return nil

	case protocol.CmdLsInfo:
		entries, err := s.handler.ListDirectory(ctx, c.URI)
		if err != nil {
			return err
		}
		for _, e := range entries {
			if err := s.writeLibraryEntry(e); err != nil {
				return err
			}
		}
		return nil
	case protocol.CmdFind:
		songs, err := s.handler.Find(ctx, c.Filters)
		if err != nil {
			return err
		}
		return s.writeSongs(songs)
	case protocol.CmdSearch:
		songs, err := s.handler.Search(ctx, c.Filters)
		if err != nil {
			return err
		}
		return s.writeSongs(songs)
	case protocol.CmdList:
		tags, err := s.handler.List(ctx, c.Tag, c.Filters, c.Groups)
		if err != nil {
			return err
		}
		for _, tag := range tags {
			if err := s.w.Tag(tag); err != nil {
				return err
			}
		}
		return nil
	case protocol.CmdUpdate:
		return s.writeUpdate(ctx, c.URI)
	case protocol.CmdRescan:
		return s.writeUpdate(ctx, c.URI)

	case protocol.CmdPing:
		return nil
	case protocol.CmdClose:
		return errCloseRequested
	case protocol.CmdNoIdle:
		return nil
	case protocol.CmdIdle:
		// Only reachable from inside a command list.
		return protocol.NewAck(protocol.AckArg, "idle is not allowed here")
	case protocol.CmdStats:
		return s.writeStats()
	case protocol.CmdCommands:
		for _, name := range supportedCommands {
			if err := s.w.Field("command", name); err != nil {
				return err
			}
		}
		return nil
	case protocol.CmdNotCommands:
		return nil
	case protocol.CmdDecoders:
		return nil
	case protocol.CmdOutputs:
		if err := s.w.Field("outputid", 0); err != nil {
			return err
		}
		if err := s.w.Field("outputname", "Kodi"); err != nil {
			return err
		}
		return s.w.Field("outputenabled", 1)
	case protocol.CmdChannels:
		return nil
	case protocol.CmdURLHandlers:
		return nil
	case protocol.CmdListPartitions:
		return s.w.Field("partition", "default")
	case protocol.CmdListPlaylists:
		return nil
	case protocol.CmdListPlaylist:
		return protocol.NewAck(protocol.AckNoExist, "no such playlist: %s", c.Playlist)
	case protocol.CmdListPlaylistInfo:
		return protocol.NewAck(protocol.AckNoExist, "no such playlist: %s", c.Playlist)
	case protocol.CmdReplayGainStatus:
		return s.w.Field("replay_gain_mode", "off")
	case protocol.CmdReplayGainMode:
		return nil
	case protocol.CmdTagTypes:
		return s.answerTagTypes(c)
	case protocol.CmdInvalid:
		return c.Ack
	}
	return protocol.NewAck(protocol.AckUnknown, "unknown command %q", cmd.Name())
}

func (s *session) writeQueue(ctx context.Context, rng *protocol.Range) error {
	entries, err := s.handler.QueueList(ctx, rng)
	if err != nil {
		return err
	}
	for i := range entries {
		if err := s.writeEntry(&entries[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) writeEntry(e *protocol.QueueEntry) error {
	out := *e
	out.Song = s.filterTags(e.Song)
	return s.w.QueueEntry(&out)
}

func (s *session) writeSongs(songs []protocol.Song) error {
	for i := range songs {
		song := s.filterTags(songs[i])
		if err := s.w.Song(&song); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) writeLibraryEntry(entry protocol.LibraryEntry) error {
	if fe, ok := entry.(protocol.FileEntry); ok {
		fe.Song = s.filterTags(fe.Song)
		return s.w.LibraryEntry(fe)
	}
	return s.w.LibraryEntry(entry)
}

// filterTags drops tags the client disabled with tagtypes.
func (s *session) filterTags(song protocol.Song) protocol.Song {
	if s.tags == protocol.AllTags {
		return song
	}
	kept := song.Tags[:0:0]
	for _, tag := range song.Tags {
		if s.tags.Has(tag.Kind) {
			kept = append(kept, tag)
		}
	}
	song.Tags = kept
	return song
}

func (s *session) writeUpdate(ctx context.Context, uri string) error {
	job, err := s.handler.Update(ctx, uri)
	if err != nil {
		return err
	}
	return s.w.Field("updating_db", job)
}

// writeStats reports uptime and zeroes for the database counters; the
// backend has no cheap way to count artists or total play time.
func (s *session) writeStats() error {
	fields := []struct {
		key   string
		value any
	}{
		{"uptime", int(time.Since(s.started).Seconds())},
		{"playtime", 0},
		{"artists", 0},
		{"albums", 0},
		{"songs", 0},
		{"db_playtime", 0},
		{"db_update", 0},
	}
	for _, f := range fields {
		if err := s.w.Field(f.key, f.value); err != nil {
			return err
		}
	}
	return nil
}

func (s *session) answerTagTypes(c protocol.CmdTagTypes) error {
	switch c.Op {
	case protocol.TagTypesList:
		for _, t := range s.tags.TagTypes() {
			if err := s.w.Field("tagtype", t); err != nil {
				return err
			}
		}
		return nil
	case protocol.TagTypesAll:
		s.tags = protocol.AllTags
		return nil
	case protocol.TagTypesClear:
		s.tags = 0
		return nil
	case protocol.TagTypesEnable:
		s.tags = s.tags.Union(c.Tags)
		return nil
	case protocol.TagTypesDisable:
		s.tags = s.tags.Diff(c.Tags)
		return nil
	}
	return protocol.NewAck(protocol.AckArg, "unknown sub command")
}
