package proxy

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marmeladema/kodimpd/kodi"
)

// fakeKodi is an httptest JSON-RPC endpoint with canned per-method
// responses. Calls are recorded for assertions.
type fakeKodi struct {
	t *testing.T

	mu       sync.Mutex
	handlers map[string]func(params json.RawMessage) (any, error)
	calls    []fakeCall
}

type fakeCall struct {
	Method string
	Params json.RawMessage
}

func newFakeKodi(t *testing.T) (*fakeKodi, *kodi.Client) {
	t.Helper()
	f := &fakeKodi{
		t:        t,
		handlers: make(map[string]func(json.RawMessage) (any, error)),
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	client := kodi.NewClient(srv.URL, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f, client
}

// respond registers a static result for a method.
func (f *fakeKodi) respond(method string, result any) {
	f.handle(method, func(json.RawMessage) (any, error) {
		return result, nil
	})
}

func (f *fakeKodi) handle(method string, fn func(params json.RawMessage) (any, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[method] = fn
}

// callsTo returns the recorded parameter payloads of one method.
func (f *fakeKodi) callsTo(method string) []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var params []json.RawMessage
	for _, call := range f.calls {
		if call.Method == method {
			params = append(params, call.Params)
		}
	}
	return params
}

func (f *fakeKodi) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     int64           `json:"id"`
		Method string          `json:"method"`
		Params json.RawMessage `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{Method: req.Method, Params: req.Params})
	fn := f.handlers[req.Method]
	f.mu.Unlock()

	resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
	if fn == nil {
		resp["error"] = map[string]any{"code": -32601, "message": "Method not found."}
	} else if result, err := fn(req.Params); err != nil {
		resp["error"] = map[string]any{"code": -32602, "message": err.Error()}
	} else {
		resp["result"] = result
	}
	json.NewEncoder(w).Encode(resp)
}

// unmarshalParams decodes one recorded parameter payload.
func unmarshalParams(t *testing.T, raw json.RawMessage, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(raw, into))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// respondPlaying wires the four poll methods with a plausible playing
// state: player 0 active at position 0 of a two item playlist.
func (f *fakeKodi) respondPlaying() {
	f.respond("Application.GetProperties", map[string]any{"volume": 70, "muted": false})
	f.respond("Player.GetActivePlayers", []map[string]any{
		{"playerid": 0, "type": "audio"},
	})
	f.respond("Player.GetProperties", map[string]any{
		"type": "audio", "position": 0, "speed": 1,
		"shuffled": false, "repeat": "off", "playlistid": 0,
		"time":      map[string]any{"hours": 0, "minutes": 1, "seconds": 30, "milliseconds": 0},
		"totaltime": map[string]any{"hours": 0, "minutes": 3, "seconds": 0, "milliseconds": 0},
	})
	f.respond("Playlist.GetItems", map[string]any{
		"items": []map[string]any{
			{
				"id": 17, "file": "smb://nas/music/a/one.flac",
				"title": "One", "artist": []string{"Ann"}, "album": "First",
				"track": 1, "duration": 180,
			},
			{
				"id": 23, "file": "smb://nas/music/b/two.flac",
				"title": "Two", "artist": []string{"Bob"}, "album": "Second",
				"track": 2, "duration": 210,
			},
		},
	})
	f.respond("AudioLibrary.GetSources", map[string]any{
		"sources": []map[string]any{
			{"label": "Music", "file": "smb://nas/music/"},
		},
	})
}
