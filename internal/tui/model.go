// Package tui is the player screen: the song list, the now playing bar and
// an optional spectrum.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"musicplay/internal/codec"
	"musicplay/internal/player"
	"musicplay/internal/songlist"
	"musicplay/pkg/spec"
)

const (
	tickInterval  = 100 * time.Millisecond
	volumeStep    = 0.5
	spectrumBands = 32
)

// Player is the controller as seen by the screen.
type Player interface {
	Status() player.Status
	Adapter() *songlist.Adapter
	PlayNext() error
	PlayPrevious() error
	TogglePause() (bool, error)
	SeekBy(d time.Duration) error
	SetVolume(db float64) (float64, error)
	LoadSongs(ctx context.Context) error
	Subscribe() (<-chan player.Event, func())
}

// Samples feeds the spectrum and the level meter, usually the engine tap.
type Samples interface {
	Snapshot() []float64
}

type Options struct {
	Visualizer bool
	Samples    Samples

	// OnVisualizer is told when the user toggles the spectrum.
	OnVisualizer func(bool)
}

type Model struct {
	player Player
	opts   Options

	events <-chan player.Event
	cancel func()

	status   player.Status
	cursor   int
	width    int
	height   int
	bar      progress.Model
	spectrum *codec.Spectrum
	levels   []float64
	level    float64
	message  string
	scanning bool
}

type tickMsg time.Time

type eventMsg player.Event

type rescanMsg struct{ err error }

func New(p Player, opts Options) Model {
	events, cancel := p.Subscribe()
	m := Model{
		player:   p,
		opts:     opts,
		events:   events,
		cancel:   cancel,
		width:    80,
		height:   24,
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		spectrum: codec.NewSpectrum(spec.TapSize, spectrumBands),
	}
	m.status = p.Status()
	if m.status.Index >= 0 {
		m.cursor = m.status.Index
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), waitForEvent(m.events))
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func waitForEvent(events <-chan player.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg(ev)
	}
}

func (m Model) rescan() tea.Cmd {
	p := m.player
	return func() tea.Msg {
		return rescanMsg{err: p.LoadSongs(context.Background())}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.bar.Width = msg.Width - 20
		if m.bar.Width < 10 {
			m.bar.Width = 10
		}
		return m, nil

	case tickMsg:
		m.status = m.player.Status()
		if m.opts.Samples != nil {
			samples := m.opts.Samples.Snapshot()
			m.level = codec.Level(samples)
			if m.opts.Visualizer {
				m.levels = m.spectrum.Levels(samples)
			}
		}
		return m, tick()

	case eventMsg:
		m.status = m.player.Status()
		switch msg.Kind {
		case player.EventTrackChanged:
			m.cursor = msg.Index
			m.message = ""
		case player.EventError:
			m.message = "cannot play: " + msg.Err
		case player.EventListChanged:
			m.cursor = clamp(m.cursor, 0, m.status.Count-1)
		}
		return m, waitForEvent(m.events)

	case rescanMsg:
		m.scanning = false
		if msg.err != nil {
			m.message = "rescan failed: " + msg.err.Error()
		} else {
			m.message = ""
		}
		m.status = m.player.Status()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := m.player.Adapter().Count()

	var err error
	switch {
	case key.Matches(msg, keys.Quit):
		m.cancel()
		return m, tea.Quit
	case key.Matches(msg, keys.Up):
		m.cursor = clamp(m.cursor-1, 0, count-1)
	case key.Matches(msg, keys.Down):
		m.cursor = clamp(m.cursor+1, 0, count-1)
	case key.Matches(msg, keys.Top):
		m.cursor = 0
	case key.Matches(msg, keys.Bottom):
		m.cursor = clamp(count-1, 0, count-1)
	case key.Matches(msg, keys.Play):
		// a click on the row, the adapter reports it to the controller
		m.player.Adapter().Select(m.cursor)
	case key.Matches(msg, keys.Pause):
		_, err = m.player.TogglePause()
	case key.Matches(msg, keys.Next):
		err = m.player.PlayNext()
	case key.Matches(msg, keys.Prev):
		err = m.player.PlayPrevious()
	case key.Matches(msg, keys.Forward):
		err = m.player.SeekBy(spec.DefaultSeekStep)
	case key.Matches(msg, keys.Back):
		err = m.player.SeekBy(-spec.DefaultSeekStep)
	case key.Matches(msg, keys.VolumeUp):
		_, err = m.player.SetVolume(m.status.VolumeDB + volumeStep)
	case key.Matches(msg, keys.VolumeDown):
		_, err = m.player.SetVolume(m.status.VolumeDB - volumeStep)
	case key.Matches(msg, keys.Visualizer):
		m.opts.Visualizer = !m.opts.Visualizer
		m.levels = nil
		if m.opts.OnVisualizer != nil {
			m.opts.OnVisualizer(m.opts.Visualizer)
		}
	case key.Matches(msg, keys.Rescan):
		if !m.scanning {
			m.scanning = true
			m.message = "scanning…"
			return m, m.rescan()
		}
	}
	if err != nil {
		log.Debug().Err(err).Str("key", msg.String()).Msg("key command failed")
		m.message = err.Error()
	}
	m.status = m.player.Status()
	return m, nil
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
