// Package player is the screen controller. It owns the song list, the
// current index and the engine, and moves between songs on user commands or
// when a song plays to the end.
package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"musicplay/internal/config"
	"musicplay/internal/library"
	"musicplay/internal/model"
	"musicplay/internal/songlist"
	"musicplay/pkg/spec"
)

var (
	ErrIndexOutOfRange = errors.New("song index out of range")
	ErrDestroyed       = errors.New("player destroyed")
	ErrNoSelection     = errors.New("no song selected")
)

// Engine is the playback engine life cycle the controller drives.
type Engine interface {
	Reset() error
	SetDataSource(path string) error
	Prepare() error
	Start() error
	Stop() error
	Pause() error
	Resume() error
	IsPlaying() bool
	IsPaused() bool
	Position() time.Duration
	Length() time.Duration
	Seek(d time.Duration) error
	SetVolume(db float64)
	Volume() float64
	SetOnCompletion(f func(gen uint64))
	Generation() uint64
	Release()
}

// Library is the media index the list is built from.
type Library interface {
	RequestAccess() (library.Grant, error)
	Query(ctx context.Context) ([]model.Song, error)
}

type Options struct {
	VolumeDB float64
}

type Controller struct {
	engine Engine
	lib    Library

	mu        sync.Mutex
	adapter   *songlist.Adapter
	index     int
	gen       uint64
	destroyed bool

	events *broker
}

// New wires the engine completion to PlayNext. The list starts empty until
// RequestAccess succeeds.
func New(engine Engine, lib Library, opts Options) *Controller {
	c := &Controller{
		engine: engine,
		lib:    lib,
		index:  spec.NoSelection,
		events: newBroker(),
	}
	c.adapter = songlist.New(nil, c.selectFromList)
	engine.SetVolume(config.ClampVolume(opts.VolumeDB))
	engine.SetOnCompletion(c.onCompletion)
	return c
}

// RequestAccess asks the index for the music roots and loads the list when
// at least one is readable.
func (c *Controller) RequestAccess(ctx context.Context) (library.Grant, error) {
	if c.isDestroyed() {
		return library.Grant{}, ErrDestroyed
	}
	grant, err := c.lib.RequestAccess()
	if err != nil || !grant.Ok() {
		log.Warn().Err(err).Int("denied", len(grant.Denied)).Msg("media access not granted")
		if err == nil {
			err = library.ErrAccessDenied
		}
		return grant, err
	}
	log.Info().Strs("roots", grant.Granted).Msg("media access granted")
	return grant, c.LoadSongs(ctx)
}

// LoadSongs rebuilds the list from the index. The current song keeps
// playing when its path is still listed; otherwise playback stops and
// nothing is selected.
func (c *Controller) LoadSongs(ctx context.Context) error {
	songs, err := c.lib.Query(ctx)
	if err != nil {
		return fmt.Errorf("query songs: %w", err)
	}

	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return ErrDestroyed
	}

	current := ""
	if s, ok := c.adapter.Item(c.index); ok {
		current = s.Path
	}
	wasPlaying := c.adapter.PlayingIndex() != spec.NoSelection

	c.adapter = songlist.New(songs, c.selectFromList)
	c.index = spec.NoSelection
	if current != "" {
		if i := c.adapter.IndexOfPath(current); i >= 0 {
			c.index = i
			if wasPlaying {
				c.adapter.UpdatePlaying(i)
			}
		} else {
			c.stopEngine()
		}
	}
	index := c.index
	c.mu.Unlock()

	log.Info().Int("songs", len(songs)).Int("index", index).Msg("song list loaded")
	c.events.publish(Event{Kind: EventListChanged, Index: index})
	return nil
}

func (c *Controller) selectFromList(i int) {
	if err := c.Select(i); err != nil {
		log.Error().Err(err).Int("index", i).Msg("select song")
	}
}

// Select makes song i current and plays it.
func (c *Controller) Select(i int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrDestroyed
	}
	if i < 0 || i >= c.adapter.Count() {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, i, c.adapter.Count())
	}
	if c.engine.IsPlaying() {
		c.stopEngine()
	}
	c.index = i
	return c.playSong()
}

// PlayNext advances when there is a next song. There is no wraparound.
func (c *Controller) PlayNext() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrDestroyed
	}
	if c.index == spec.NoSelection || c.index >= c.adapter.Count()-1 {
		return nil
	}
	c.index++
	return c.playSong()
}

// PlayPrevious steps back when there is a previous song.
func (c *Controller) PlayPrevious() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrDestroyed
	}
	if c.index == spec.NoSelection || c.index <= 0 {
		return nil
	}
	c.index--
	return c.playSong()
}

// playSong loads the current song into the engine and starts it. Callers
// hold c.mu.
func (c *Controller) playSong() error {
	song, _ := c.adapter.Item(c.index)
	err := c.load(song.Path)
	if err != nil {
		log.Error().Err(err).Str("path", song.Path).Msg("play song")
		c.gen = 0
		c.adapter.UpdatePlaying(spec.NoSelection)
		c.events.publish(Event{Kind: EventError, Index: c.index, Err: err.Error()})
		return err
	}
	c.gen = c.engine.Generation()
	c.adapter.UpdatePlaying(c.index)
	log.Info().Int("index", c.index).Str("title", song.Title).Msg("playing")
	c.events.publish(Event{Kind: EventTrackChanged, Index: c.index})
	return nil
}

func (c *Controller) load(path string) error {
	if err := c.engine.Reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if err := c.engine.SetDataSource(path); err != nil {
		return fmt.Errorf("set data source: %w", err)
	}
	if err := c.engine.Prepare(); err != nil {
		return fmt.Errorf("prepare: %w", err)
	}
	if err := c.engine.Start(); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	return nil
}

func (c *Controller) stopEngine() {
	if err := c.engine.Stop(); err != nil {
		log.Debug().Err(err).Msg("stop engine")
	}
	c.gen = 0
	c.adapter.UpdatePlaying(spec.NoSelection)
	c.events.publish(Event{Kind: EventStopped, Index: c.index})
}

// onCompletion advances past the song started under gen. A completion for
// a source the controller has since replaced or stopped is dropped.
func (c *Controller) onCompletion(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed || gen == 0 || gen != c.gen {
		log.Debug().Uint64("gen", gen).Uint64("current", c.gen).Msg("stale completion dropped")
		return
	}
	if c.index >= c.adapter.Count()-1 {
		log.Info().Int("index", c.index).Msg("end of list")
		c.events.publish(Event{Kind: EventCompleted, Index: c.index})
		return
	}
	c.index++
	if err := c.playSong(); err != nil {
		log.Error().Err(err).Msg("advance after completion")
	}
}

// TogglePause pauses a playing song, resumes a paused one and replays the
// current song when it has finished. It reports whether playback ends up
// paused.
func (c *Controller) TogglePause() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return false, ErrDestroyed
	}
	if c.index == spec.NoSelection {
		return false, ErrNoSelection
	}

	var err error
	paused := false
	switch {
	case c.engine.IsPlaying():
		err = c.engine.Pause()
		paused = err == nil
	case c.engine.IsPaused():
		err = c.engine.Resume()
		paused = err != nil
	default:
		return false, c.playSong()
	}
	if err != nil {
		return paused, err
	}
	c.events.publish(Event{Kind: EventStatus, Index: c.index})
	return paused, nil
}

// Pause pauses a playing song. It does nothing when nothing is playing.
func (c *Controller) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrDestroyed
	}
	if !c.engine.IsPlaying() {
		return nil
	}
	if err := c.engine.Pause(); err != nil {
		return err
	}
	c.events.publish(Event{Kind: EventStatus, Index: c.index})
	return nil
}

// Resume continues a paused song, or replays the current one when it has
// stopped.
func (c *Controller) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrDestroyed
	}
	if c.index == spec.NoSelection {
		return ErrNoSelection
	}
	switch {
	case c.engine.IsPlaying():
		return nil
	case c.engine.IsPaused():
		if err := c.engine.Resume(); err != nil {
			return err
		}
		c.events.publish(Event{Kind: EventStatus, Index: c.index})
		return nil
	}
	return c.playSong()
}

// Seek jumps within the current song.
func (c *Controller) Seek(d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return ErrDestroyed
	}
	if c.index == spec.NoSelection {
		return ErrNoSelection
	}
	if err := c.engine.Seek(d); err != nil {
		return err
	}
	c.events.publish(Event{Kind: EventStatus, Index: c.index})
	return nil
}

// SeekBy moves relative to the current position.
func (c *Controller) SeekBy(delta time.Duration) error {
	return c.Seek(c.engine.Position() + delta)
}

// SetVolume clamps db to the accepted range and returns what was applied.
func (c *Controller) SetVolume(db float64) (float64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return 0, ErrDestroyed
	}
	db = config.ClampVolume(db)
	c.engine.SetVolume(db)
	c.events.publish(Event{Kind: EventStatus, Index: c.index})
	return db, nil
}

// Songs returns a copy of the list with the playing flags.
func (c *Controller) Songs() []model.Song {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.adapter.Items()
}

// Adapter is the list backing the screen. It is replaced on every reload.
func (c *Controller) Adapter() *songlist.Adapter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.adapter
}

func (c *Controller) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Destroy releases the engine. Every later command returns ErrDestroyed.
func (c *Controller) Destroy() {
	c.mu.Lock()
	if c.destroyed {
		c.mu.Unlock()
		return
	}
	c.destroyed = true
	c.engine.Release()
	c.mu.Unlock()

	c.events.close()
	log.Info().Msg("player destroyed")
}

func (c *Controller) isDestroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}
