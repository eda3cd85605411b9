package models

// Group is a category of channels as displayed (group-title from the playlist).
type Group struct {
	Title    string    `json:"title"`
	Count    int       `json:"count"`
	Channels []Channel `json:"channels"`
}
