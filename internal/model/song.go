package model

import (
	"fmt"
	"time"
)

// Song is one playable item found by the library index.
type Song struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Artist     string        `json:"artist"`
	Album      string        `json:"album,omitempty"`
	AlbumID    string        `json:"album_id,omitempty"`
	Path       string        `json:"path"`
	ArtworkURI string        `json:"artwork_uri"`
	Duration   time.Duration `json:"duration"`

	// IsPlaying is owned by the list adapter and never persisted.
	IsPlaying bool `json:"is_playing"`
}

// DurationString returns mm:ss, or hh:mm:ss for long tracks, "--:--" when unknown.
func (s Song) DurationString() string {
	if s.Duration <= 0 {
		return "--:--"
	}
	total := int(s.Duration.Round(time.Second) / time.Second)
	h := total / 3600
	m := (total % 3600) / 60
	sec := total % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%02d:%02d", m, sec)
}

// DisplayLine is the single line shown for a song in lists.
func (s Song) DisplayLine() string {
	if s.Artist == "" {
		return s.Title
	}
	return s.Title + " - " + s.Artist
}
