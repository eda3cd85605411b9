package models

// Channel is one playable entry after normalization (name, stream url, logo, group, guide).
type Channel struct {
	Name       string  `json:"name"`
	URL        string  `json:"url"`
	Logo       *string `json:"logo,omitempty"`
	Group      string  `json:"group"`
	Network    *string `json:"network,omitempty"`
	NowPlaying *string `json:"now_playing,omitempty"` // raw guide title, "" when untitled
	UpNext     *string `json:"up_next,omitempty"`
	Favorite   bool    `json:"favorite"` // populated by the server from the favorites store
}

// NowPlayingLabel is the now-playing text to display. A guide entry without a
// title shows as LiveProgram; no guide data shows nothing.
func (c Channel) NowPlayingLabel() string {
	switch {
	case c.NowPlaying == nil:
		return ""
	case *c.NowPlaying == "":
		return LiveProgram
	default:
		return *c.NowPlaying
	}
}
