package fetcher

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/voyagen/regiontv/internal/models"
)

// streamURLFields are tried in order; the first non-empty string wins.
var streamURLFields = []string{"url", "mjh_master", "stream"}

// streamSuffix is the only suffix accepted for stream URLs, whatever the playlist format.
const streamSuffix = ".m3u8"

// ResolveStreamURL returns the entry's stream URL from url, mjh_master or stream.
// Only string values count; the URL is returned untrimmed.
func ResolveStreamURL(raw RawEntry) string {
	for _, f := range streamURLFields {
		if s, ok := raw[f].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// IsValidStreamURL reports whether url is a playable HLS stream: it must end
// in ".m3u8" (case-sensitive).
func IsValidStreamURL(url string) bool {
	return url != "" && strings.HasSuffix(url, streamSuffix)
}

// Normalize converts one raw entry to a Channel. ok is false when the entry
// has no valid stream URL and must be dropped. JSON and PLS entries are
// validated the same way.
func Normalize(raw RawEntry) (ch models.Channel, ok bool) {
	url := ResolveStreamURL(raw)
	if !IsValidStreamURL(url) {
		return models.Channel{}, false
	}
	ch = models.Channel{
		Name:    stringField(raw, "name"),
		URL:     url,
		Logo:    optionalField(raw, "logo"),
		Group:   stringField(raw, "group-title"),
		Network: optionalField(raw, "network"),
	}
	if ch.Name == "" {
		ch.Name = models.DefaultChannelName
	}
	if ch.Group == "" {
		ch.Group = models.DefaultGroupTitle
	}
	ch.NowPlaying, ch.UpNext = guideInfo(raw)
	return ch, true
}

// NormalizeAll normalizes entries in order, dropping the invalid ones.
func NormalizeAll(entries []RawEntry) []models.Channel {
	out := make([]models.Channel, 0, len(entries))
	for _, raw := range entries {
		if ch, ok := Normalize(raw); ok {
			out = append(out, ch)
		}
	}
	return out
}

// guideInfo reads "programs": [[start, title, ...], [start, title, ...], ...].
// Element 0 is what is on now, element 1 what is on next. An untitled current
// program is kept as an empty title; renderers label it.
func guideInfo(raw RawEntry) (now, next *string) {
	programs, ok := raw["programs"].([]any)
	if !ok {
		return nil, nil
	}
	if t, ok := programTitle(programs, 0); ok {
		now = &t
	}
	if t, ok := programTitle(programs, 1); ok && t != "" {
		next = &t
	}
	return now, next
}

func programTitle(programs []any, i int) (string, bool) {
	if i >= len(programs) {
		return "", false
	}
	prog, ok := programs[i].([]any)
	if !ok || len(prog) < 2 {
		return "", false
	}
	return scalarText(prog[1]), true
}

func stringField(raw RawEntry, key string) string {
	return strings.TrimSpace(scalarText(raw[key]))
}

func optionalField(raw RawEntry, key string) *string {
	if s := stringField(raw, key); s != "" {
		return &s
	}
	return nil
}

// scalarText renders strings and numbers; everything else is empty.
func scalarText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}
