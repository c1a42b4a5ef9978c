package proxy

import (
	"strings"

	"github.com/marmeladema/kodimpd/kodi"
)

// PathMapper translates between the virtual library tree exposed to
// MPD clients and Kodi's own paths. Each configured source is mounted
// under its label: the client sees "Music/Album/track.mp3" where Kodi
// sees "smb://nas/music/Album/track.mp3".
type PathMapper struct {
	sources []kodi.Source
}

func NewPathMapper(sources []kodi.Source) *PathMapper {
	return &PathMapper{sources: sources}
}

// ToInternal maps a client path to the Kodi path, matching the first
// source whose label prefixes it.
func (m *PathMapper) ToInternal(external string) (string, bool) {
	for _, src := range m.sources {
		if rest, ok := stripPrefix(external, src.Label); ok {
			return joinPath(src.File, rest), true
		}
	}
	return "", false
}

// ToExternal maps a Kodi path back under the matching source's label.
func (m *PathMapper) ToExternal(internal string) (string, bool) {
	for _, src := range m.sources {
		if rest, ok := stripPrefix(internal, src.File); ok {
			return joinPath(src.Label, rest), true
		}
	}
	return "", false
}

// stripPrefix removes a path prefix, requiring a separator boundary.
// Kodi source paths usually carry a trailing slash; tolerate both.
func stripPrefix(path, prefix string) (string, bool) {
	prefix = strings.TrimSuffix(prefix, "/")
	if path == prefix {
		return "", true
	}
	if strings.HasPrefix(path, prefix+"/") {
		return path[len(prefix)+1:], true
	}
	return "", false
}

func joinPath(base, rest string) string {
	if rest == "" {
		return base
	}
	return strings.TrimSuffix(base, "/") + "/" + rest
}
