package service

import (
	"slices"
	"strings"

	"github.com/voyagen/regiontv/internal/models"
)

// View is the grouped, filtered channel list a renderer displays.
type View struct {
	Query  string         `json:"query,omitempty"`
	Total  int            `json:"total"`
	Groups []models.Group `json:"groups"`
}

// FilterChannels keeps channels whose name or raw now-playing title contains
// query, case-insensitively. The query is not trimmed, so surrounding spaces
// take part in the match; only an empty query keeps everything.
func FilterChannels(channels []models.Channel, query string) []models.Channel {
	q := strings.ToLower(query)
	if q == "" {
		return channels
	}
	out := make([]models.Channel, 0, len(channels))
	for _, ch := range channels {
		if matches(ch, q) {
			out = append(out, ch)
		}
	}
	return out
}

func matches(ch models.Channel, lowerQuery string) bool {
	if strings.Contains(strings.ToLower(ch.Name), lowerQuery) {
		return true
	}
	return ch.NowPlaying != nil && strings.Contains(strings.ToLower(*ch.NowPlaying), lowerQuery)
}

// GroupChannels partitions channels by group title. Groups are sorted by
// title; channels keep their input order within a group.
func GroupChannels(channels []models.Channel) []models.Group {
	index := make(map[string]int)
	groups := []models.Group{}
	for _, ch := range channels {
		i, ok := index[ch.Group]
		if !ok {
			i = len(groups)
			index[ch.Group] = i
			groups = append(groups, models.Group{Title: ch.Group})
		}
		groups[i].Channels = append(groups[i].Channels, ch)
		groups[i].Count++
	}
	slices.SortFunc(groups, func(a, b models.Group) int {
		return strings.Compare(a.Title, b.Title)
	})
	return groups
}

// BuildView filters then groups. It does no I/O and keeps no state.
func BuildView(channels []models.Channel, query string) View {
	filtered := FilterChannels(channels, query)
	return View{
		Query:  query,
		Total:  len(filtered),
		Groups: GroupChannels(filtered),
	}
}
