package audioengine

import (
	"sync"

	"github.com/faiface/beep"
)

// Tap keeps the most recent mono samples that went to the output, for the
// spectrum view.
type Tap struct {
	mu     sync.Mutex
	buf    []float64
	pos    int
	filled bool
}

func NewTap(size int) *Tap {
	return &Tap{buf: make([]float64, size)}
}

// Wrap returns a streamer that copies everything s produces into the tap.
func (t *Tap) Wrap(s beep.Streamer) beep.Streamer {
	return &tapStreamer{s: s, tap: t}
}

func (t *Tap) write(samples [][2]float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range samples {
		t.buf[t.pos] = mono(s)
		t.pos++
		if t.pos == len(t.buf) {
			t.pos = 0
			t.filled = true
		}
	}
}

// Snapshot returns the window oldest first. Unfilled slots are zero.
func (t *Tap) Snapshot() []float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]float64, len(t.buf))
	if !t.filled {
		copy(out[len(out)-t.pos:], t.buf[:t.pos])
		return out
	}
	n := copy(out, t.buf[t.pos:])
	copy(out[n:], t.buf[:t.pos])
	return out
}

// Reset zeroes the window, used when the source changes.
func (t *Tap) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.buf {
		t.buf[i] = 0
	}
	t.pos = 0
	t.filled = false
}

type tapStreamer struct {
	s   beep.Streamer
	tap *Tap
}

func (ts *tapStreamer) Stream(samples [][2]float64) (int, bool) {
	n, ok := ts.s.Stream(samples)
	ts.tap.write(samples[:n])
	return n, ok
}

func (ts *tapStreamer) Err() error { return ts.s.Err() }
