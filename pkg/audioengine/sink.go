package audioengine

import (
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// Sink is where the engine sends its streamer. Lock/Unlock must exclude the
// goroutine that pulls samples, like speaker.Lock does.
type Sink interface {
	Init(sr beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
	Close()
}

// SpeakerSink plays through the default audio device.
type SpeakerSink struct {
	once sync.Once
	err  error
}

func (s *SpeakerSink) Init(sr beep.SampleRate, bufferSize int) error {
	s.once.Do(func() {
		s.err = speaker.Init(sr, bufferSize)
	})
	return s.err
}

func (s *SpeakerSink) Play(st beep.Streamer) { speaker.Play(st) }
func (s *SpeakerSink) Clear() { speaker.Clear() }
func (s *SpeakerSink) Lock() { speaker.Lock() }
func (s *SpeakerSink) Unlock() { speaker.Unlock() }
func (s *SpeakerSink) Close() { speaker.Close() }

// MemorySink mixes streamers only when Pump is called. It backs the silent
// output mode and the tests.
type MemorySink struct {
	mu        sync.Mutex
	sr        beep.SampleRate
	streamers []beep.Streamer
	pumped    int
}

func (m *MemorySink) Init(sr beep.SampleRate, bufferSize int) error {
	m.mu.Lock()
	m.sr = sr
	m.mu.Unlock()
	return nil
}

func (m *MemorySink) Play(st beep.Streamer) {
	m.mu.Lock()
	m.streamers = append(m.streamers, st)
	m.mu.Unlock()
}

func (m *MemorySink) Clear() {
	m.mu.Lock()
	m.streamers = nil
	m.mu.Unlock()
}

func (m *MemorySink) Lock() { m.mu.Lock() }
func (m *MemorySink) Unlock() { m.mu.Unlock() }
func (m *MemorySink) Close() { m.Clear() }

// Pump pulls n samples through every active streamer, dropping the ones
// that drain, and returns how many streamers are still active.
func (m *MemorySink) Pump(n int) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := make([][2]float64, n)
	active := m.streamers[:0]
	for _, st := range m.streamers {
		got, ok := st.Stream(buf)
		if ok && got == n {
			active = append(active, st)
		}
	}
	m.streamers = active
	m.pumped += n
	return len(m.streamers)
}

// Active is the number of streamers still playing.
func (m *MemorySink) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.streamers)
}

// Pumped is the total number of samples pulled so far.
func (m *MemorySink) Pumped() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pumped
}

// ClockSink is a MemorySink drained in real time, for machines without an
// audio device.
type ClockSink struct {
	MemorySink
	stop chan struct{}
	once sync.Once
}

func NewClockSink() *ClockSink {
	return &ClockSink{stop: make(chan struct{})}
}

func (c *ClockSink) Init(sr beep.SampleRate, bufferSize int) error {
	if err := c.MemorySink.Init(sr, bufferSize); err != nil {
		return err
	}
	tick := sr.D(bufferSize)
	if tick <= 0 {
		tick = 100 * time.Millisecond
	}
	go func() {
		t := time.NewTicker(tick)
		defer t.Stop()
		for {
			select {
			case <-c.stop:
				return
			case <-t.C:
				c.Pump(bufferSize)
			}
		}
	}()
	return nil
}

func (c *ClockSink) Close() {
	c.once.Do(func() { close(c.stop) })
	c.MemorySink.Close()
}
