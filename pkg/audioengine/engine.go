// Package audioengine wraps beep into a media player with an explicit life
// cycle: Reset, SetDataSource, Prepare, Start, then Pause/Resume/Seek/Stop,
// and Release at the end.
package audioengine

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/rs/zerolog/log"

	"musicplay/pkg/spec"
)

type State int

const (
	StateIdle State = iota
	StateInitialized
	StatePrepared
	StateStarted
	StatePaused
	StateStopped
	StateCompleted
	StateError
	StateReleased
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInitialized:
		return "initialized"
	case StatePrepared:
		return "prepared"
	case StateStarted:
		return "started"
	case StatePaused:
		return "paused"
	case StateStopped:
		return "stopped"
	case StateCompleted:
		return "completed"
	case StateError:
		return "error"
	case StateReleased:
		return "released"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

var (
	ErrIllegalState = errors.New("illegal engine state")
	ErrReleased     = errors.New("engine released")
	ErrNoSource     = errors.New("no data source")
)

type Engine struct {
	sink Sink
	sr   beep.SampleRate
	tap  *Tap

	mu           sync.Mutex
	state        State
	path         string
	src          *source
	ctrl         *beep.Ctrl
	vol          *effects.Volume
	volumeDB     float64
	gen          uint64
	onCompletion func(gen uint64)
}

// New initialises the sink at the engine rate.
func New(sink Sink) (*Engine, error) {
	sr := beep.SampleRate(spec.SampleRate)
	if err := sink.Init(sr, sr.N(spec.SpeakerBuffer)); err != nil {
		return nil, fmt.Errorf("init audio output: %w", err)
	}
	return &Engine{
		sink: sink,
		sr:   sr,
		tap:  NewTap(spec.TapSize),
	}, nil
}

func (e *Engine) Tap() *Tap { return e.tap }

func (e *Engine) SampleRate() beep.SampleRate { return e.sr }

// SetOnCompletion registers f, called once per started source that plays to
// the end with the generation that source was started under. f runs on its
// own goroutine and may call back into the engine.
func (e *Engine) SetOnCompletion(f func(gen uint64)) {
	e.mu.Lock()
	e.onCompletion = f
	e.mu.Unlock()
}

// Generation identifies the source last started. It changes on every Start
// of a new chain and on every Reset or Stop.
func (e *Engine) Generation() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gen
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Reset drops the current source and returns to idle.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateReleased {
		return ErrReleased
	}
	e.teardown()
	e.path = ""
	e.state = StateIdle
	return nil
}

// teardown stops output and closes the source. Callers hold e.mu.
func (e *Engine) teardown() {
	e.gen++
	e.sink.Clear()
	e.ctrl = nil
	e.vol = nil
	if e.src != nil {
		if err := e.src.Close(); err != nil {
			log.Debug().Err(err).Str("path", e.src.path).Msg("closing source")
		}
		e.src = nil
	}
	e.tap.Reset()
}

func (e *Engine) SetDataSource(path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateReleased {
		return ErrReleased
	}
	if e.state != StateIdle {
		return fmt.Errorf("%w: set data source while %s", ErrIllegalState, e.state)
	}
	if _, err := os.Stat(path); err != nil {
		return err
	}
	e.path = path
	e.state = StateInitialized
	return nil
}

// Prepare opens and decodes the data source. It is also how a stopped
// engine gets ready again.
func (e *Engine) Prepare() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StateReleased:
		return ErrReleased
	case StateInitialized, StateStopped:
	default:
		return fmt.Errorf("%w: prepare while %s", ErrIllegalState, e.state)
	}
	if e.path == "" {
		return ErrNoSource
	}

	e.teardown()
	src, err := openSource(e.path)
	if err != nil {
		e.state = StateError
		return err
	}
	e.src = src
	e.state = StatePrepared
	return nil
}

// Start begins playback of a prepared source, resumes a paused one or
// replays a completed one from the beginning.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StateReleased:
		return ErrReleased
	case StatePaused:
		e.setPaused(false)
		e.state = StateStarted
		return nil
	case StateCompleted:
		if err := e.seekSamples(0); err != nil {
			return err
		}
	case StatePrepared:
	default:
		return fmt.Errorf("%w: start while %s", ErrIllegalState, e.state)
	}

	var s beep.Streamer = e.src.stream
	if e.src.format.SampleRate != e.sr {
		s = beep.Resample(spec.ResampleQuality, e.src.format.SampleRate, e.sr, s)
	}
	e.vol = &effects.Volume{Streamer: s, Base: 2, Volume: e.volumeDB}
	e.ctrl = &beep.Ctrl{Streamer: e.tap.Wrap(e.vol)}

	e.gen++
	gen := e.gen
	e.sink.Play(beep.Seq(e.ctrl, beep.Callback(func() {
		// runs under the sink lock, so hand off
		go e.complete(gen)
	})))
	e.state = StateStarted

	log.Debug().Str("path", e.src.path).Int("rate", int(e.src.format.SampleRate)).Msg("playback started")
	return nil
}

func (e *Engine) complete(gen uint64) {
	e.mu.Lock()
	if gen != e.gen || e.state != StateStarted {
		e.mu.Unlock()
		return
	}
	e.state = StateCompleted
	cb := e.onCompletion
	if e.src != nil {
		if err := e.src.stream.Err(); err != nil {
			log.Warn().Err(err).Str("path", e.src.path).Msg("source ended with error")
		}
	}
	e.mu.Unlock()

	if cb != nil {
		cb(gen)
	}
}

func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StateReleased:
		return ErrReleased
	case StatePrepared, StateStarted, StatePaused, StateCompleted, StateStopped:
	default:
		return fmt.Errorf("%w: stop while %s", ErrIllegalState, e.state)
	}
	e.gen++
	e.sink.Clear()
	e.ctrl = nil
	e.vol = nil
	e.state = StateStopped
	return nil
}

func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StateReleased:
		return ErrReleased
	case StatePaused:
		return nil
	case StateStarted:
	default:
		return fmt.Errorf("%w: pause while %s", ErrIllegalState, e.state)
	}
	e.setPaused(true)
	e.state = StatePaused
	return nil
}

// Resume is Start restricted to a paused engine.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StateReleased:
		return ErrReleased
	case StateStarted:
		return nil
	case StatePaused:
	default:
		return fmt.Errorf("%w: resume while %s", ErrIllegalState, e.state)
	}
	e.setPaused(false)
	e.state = StateStarted
	return nil
}

func (e *Engine) setPaused(p bool) {
	if e.ctrl == nil {
		return
	}
	e.sink.Lock()
	e.ctrl.Paused = p
	e.sink.Unlock()
}

func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StateStarted
}

func (e *Engine) IsPaused() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == StatePaused
}

// Position is the playback position in the source.
func (e *Engine) Position() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src == nil {
		return 0
	}
	e.sink.Lock()
	p := e.src.stream.Position()
	e.sink.Unlock()
	return e.src.format.SampleRate.D(p)
}

// Length is zero when the format cannot tell it up front.
func (e *Engine) Length() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.src == nil {
		return 0
	}
	return e.src.format.SampleRate.D(e.src.stream.Len())
}

// Seek moves to d, clamped to the source bounds.
func (e *Engine) Seek(d time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.state {
	case StateReleased:
		return ErrReleased
	case StatePrepared, StateStarted, StatePaused, StateCompleted:
	default:
		return fmt.Errorf("%w: seek while %s", ErrIllegalState, e.state)
	}
	return e.seekSamples(e.src.format.SampleRate.N(d))
}

func (e *Engine) seekSamples(p int) error {
	n := e.src.stream.Len()
	if p < 0 {
		p = 0
	}
	if n > 0 && p > n {
		p = n
	}
	e.sink.Lock()
	err := e.src.stream.Seek(p)
	e.sink.Unlock()
	return err
}

// SetVolume sets gain in base-2 steps: 0 is unchanged, -1 is half as loud.
func (e *Engine) SetVolume(db float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.volumeDB = db
	if e.vol == nil {
		return
	}
	e.sink.Lock()
	e.vol.Volume = db
	e.sink.Unlock()
}

func (e *Engine) Volume() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volumeDB
}

// Release frees the source and the output. The engine is unusable afterwards.
func (e *Engine) Release() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == StateReleased {
		return
	}
	e.teardown()
	e.sink.Close()
	e.state = StateReleased
}
