// Package songlist holds the rows shown on the player screen and which one
// is flagged as playing.
package songlist

import (
	"sync"

	"musicplay/internal/model"
)

// Adapter owns the playing flag of its songs. Selection is reported through
// the callback given to New; the adapter never starts playback itself.
type Adapter struct {
	mu       sync.RWMutex
	songs    []model.Song
	playing  int
	onSelect func(int)
}

// New copies songs so the caller's slice is never mutated. Every IsPlaying
// flag starts cleared.
func New(songs []model.Song, onSelect func(int)) *Adapter {
	own := make([]model.Song, len(songs))
	copy(own, songs)
	for i := range own {
		own[i].IsPlaying = false
	}
	return &Adapter{songs: own, playing: -1, onSelect: onSelect}
}

func (a *Adapter) Count() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.songs)
}

func (a *Adapter) Item(i int) (model.Song, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if i < 0 || i >= len(a.songs) {
		return model.Song{}, false
	}
	return a.songs[i], true
}

// Items returns a copy of every row.
func (a *Adapter) Items() []model.Song {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]model.Song, len(a.songs))
	copy(out, a.songs)
	return out
}

// Select reports a click on row i. Out of range rows are ignored.
func (a *Adapter) Select(i int) bool {
	a.mu.RLock()
	ok := i >= 0 && i < len(a.songs)
	cb := a.onSelect
	a.mu.RUnlock()
	if !ok || cb == nil {
		return false
	}
	cb(i)
	return true
}

// UpdatePlaying flags row i and clears every other row. -1 clears all.
func (a *Adapter) UpdatePlaying(i int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i < -1 || i >= len(a.songs) {
		i = -1
	}
	for j := range a.songs {
		a.songs[j].IsPlaying = j == i
	}
	a.playing = i
}

func (a *Adapter) PlayingIndex() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.playing
}

// IndexOfPath finds the first row for path, -1 when absent.
func (a *Adapter) IndexOfPath(path string) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for i, s := range a.songs {
		if s.Path == path {
			return i
		}
	}
	return -1
}
