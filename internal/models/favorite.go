package models

import "time"

// Favorite marks a stream URL as favorite within a region.
type Favorite struct {
	Region    Region     `json:"region"`
	URL       string     `json:"url"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}
