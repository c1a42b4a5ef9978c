package protocol

import (
	"bufio"
	"fmt"
	"io"
	"time"
)

// Writer encodes MPD responses onto a connection. Writes are buffered;
// OK, ListOK and Ack flush, so a response is fully on the wire before
// the session reads the next command.
type Writer struct {
	bw *bufio.Writer
}

// NewWriter wraps w in a response encoder.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// Banner writes the handshake line sent on accept.
func (w *Writer) Banner(version string) error {
	if _, err := fmt.Fprintf(w.bw, "OK MPD %s\n", version); err != nil {
		return err
	}
	return w.bw.Flush()
}

// Field writes one `key: value` line.
func (w *Writer) Field(key string, value any) error {
	_, err := fmt.Fprintf(w.bw, "%s: %v\n", key, value)
	return err
}

// OK terminates a successful response.
func (w *Writer) OK() error {
	if _, err := w.bw.WriteString("OK\n"); err != nil {
		return err
	}
	return w.bw.Flush()
}

// ListOK separates successful commands inside command_list_ok_begin.
func (w *Writer) ListOK() error {
	if _, err := w.bw.WriteString("list_OK\n"); err != nil {
		return err
	}
	return w.bw.Flush()
}

// Ack terminates a failed response.
func (w *Writer) Ack(a *Ack) error {
	if _, err := fmt.Fprintf(w.bw, "%s\n", a); err != nil {
		return err
	}
	return w.bw.Flush()
}

// Changed writes one `changed:` line per member of set, in declaration
// order.
func (w *Writer) Changed(set SubsystemSet) error {
	for _, sub := range set.Subsystems() {
		if err := w.Field("changed", sub); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) optInt(key string, v *int) error {
	if v == nil {
		return nil
	}
	return w.Field(key, *v)
}

func (w *Writer) optBool(key string, v *bool) error {
	if v == nil {
		return nil
	}
	n := 0
	if *v {
		n = 1
	}
	return w.Field(key, n)
}

// Status encodes a status response. Field order matches what MPD
// clients have come to expect.
func (w *Writer) Status(st *Status) error {
	if err := w.Field("partition", "default"); err != nil {
		return err
	}
	if err := w.optInt("volume", st.Volume); err != nil {
		return err
	}
	if err := w.optBool("repeat", st.Repeat); err != nil {
		return err
	}
	if err := w.optBool("random", st.Random); err != nil {
		return err
	}
	if err := w.optBool("single", st.Single); err != nil {
		return err
	}
	if err := w.optBool("consume", st.Consume); err != nil {
		return err
	}
	if err := w.optInt("playlist", st.Playlist); err != nil {
		return err
	}
	if err := w.optInt("playlistlength", st.PlaylistLength); err != nil {
		return err
	}
	if err := w.Field("state", st.State); err != nil {
		return err
	}
	if err := w.optInt("song", st.Song); err != nil {
		return err
	}
	if err := w.optInt("songid", st.SongID); err != nil {
		return err
	}
	if err := w.optInt("nextsong", st.NextSong); err != nil {
		return err
	}
	if err := w.optInt("nextsongid", st.NextSongID); err != nil {
		return err
	}
	if st.Elapsed != nil && st.Duration != nil {
		if err := w.Field("time", fmt.Sprintf("%d:%d", int(st.Elapsed.Seconds()), int(st.Duration.Seconds()))); err != nil {
			return err
		}
	}
	if st.Elapsed != nil {
		if err := w.Field("elapsed", fmt.Sprintf("%.3f", st.Elapsed.Seconds())); err != nil {
			return err
		}
	}
	if st.Duration != nil {
		if err := w.Field("duration", fmt.Sprintf("%.3f", st.Duration.Seconds())); err != nil {
			return err
		}
	}
	if err := w.optInt("xfade", st.Xfade); err != nil {
		return err
	}
	if st.MixRampDB != nil {
		if err := w.Field("mixrampdb", fmt.Sprintf("%f", *st.MixRampDB)); err != nil {
			return err
		}
	}
	return w.optInt("mixrampdelay", st.MixRampDelay)
}

// Song encodes one song's metadata block.
func (w *Writer) Song(s *Song) error {
	if err := w.Field("file", s.Path); err != nil {
		return err
	}
	if s.LastModified != nil {
		if err := w.Field("Last-Modified", s.LastModified.UTC().Format(time.RFC3339)); err != nil {
			return err
		}
	}
	if s.Format != "" {
		if err := w.Field("Format", s.Format); err != nil {
			return err
		}
	}
	if s.Duration != nil {
		if err := w.Field("Time", *s.Duration); err != nil {
			return err
		}
		if err := w.Field("duration", *s.Duration); err != nil {
			return err
		}
	}
	for _, tag := range s.Tags {
		if err := w.Field(tag.Kind.String(), tag.Value); err != nil {
			return err
		}
	}
	return nil
}

// QueueEntry encodes a song block followed by its queue position and id.
func (w *Writer) QueueEntry(e *QueueEntry) error {
	if err := w.Song(&e.Song); err != nil {
		return err
	}
	if err := w.Field("Pos", e.Position); err != nil {
		return err
	}
	return w.Field("Id", e.ID)
}

// LibraryEntry encodes a directory or file listing block.
func (w *Writer) LibraryEntry(entry LibraryEntry) error {
	switch e := entry.(type) {
	case DirEntry:
		if err := w.Field("directory", e.Path); err != nil {
			return err
		}
		if e.LastModified != nil {
			return w.Field("Last-Modified", e.LastModified.UTC().Format(time.RFC3339))
		}
		return nil
	case FileEntry:
		return w.Song(&e.Song)
	}
	return fmt.Errorf("protocol: unknown library entry %T", entry)
}

// Tag encodes one tag line, as produced by the list command.
func (w *Writer) Tag(t Tag) error {
	return w.Field(t.Kind.String(), t.Value)
}

// Flush forces buffered output onto the wire.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}
