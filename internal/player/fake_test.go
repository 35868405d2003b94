package player

import (
	"context"
	"errors"
	"sync"
	"time"

	"musicplay/internal/library"
	"musicplay/internal/model"
)

// fakeEngine records the calls made on it and plays nothing.
type fakeEngine struct {
	mu       sync.Mutex
	calls    []string
	path     string
	playing  bool
	paused   bool
	position time.Duration
	volume   float64
	failOn   map[string]error
	gen      uint64
	complete func(gen uint64)
	released bool
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{failOn: make(map[string]error)}
}

func (f *fakeEngine) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.failOn[call]
}

func (f *fakeEngine) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeEngine) ClearCalls() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

func (f *fakeEngine) Reset() error {
	if err := f.record("reset"); err != nil {
		return err
	}
	f.mu.Lock()
	f.playing, f.paused, f.path = false, false, ""
	f.mu.Unlock()
	return nil
}

func (f *fakeEngine) SetDataSource(path string) error {
	if err := f.record("source " + path); err != nil {
		return err
	}
	f.mu.Lock()
	f.path = path
	f.mu.Unlock()
	return nil
}

func (f *fakeEngine) Prepare() error { return f.record("prepare") }

func (f *fakeEngine) Start() error {
	if err := f.record("start"); err != nil {
		return err
	}
	f.mu.Lock()
	f.playing, f.paused = true, false
	f.gen++
	f.mu.Unlock()
	return nil
}

func (f *fakeEngine) Stop() error {
	f.record("stop")
	f.mu.Lock()
	f.playing, f.paused = false, false
	f.gen++
	f.mu.Unlock()
	return nil
}

func (f *fakeEngine) Pause() error {
	f.record("pause")
	f.mu.Lock()
	f.playing, f.paused = false, true
	f.mu.Unlock()
	return nil
}

func (f *fakeEngine) Resume() error {
	f.record("resume")
	f.mu.Lock()
	f.playing, f.paused = true, false
	f.mu.Unlock()
	return nil
}

func (f *fakeEngine) IsPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *fakeEngine) IsPaused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.paused
}

func (f *fakeEngine) Position() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.position
}

func (f *fakeEngine) Length() time.Duration { return 0 }

func (f *fakeEngine) Seek(d time.Duration) error {
	f.mu.Lock()
	f.position = d
	f.mu.Unlock()
	return nil
}

func (f *fakeEngine) SetVolume(db float64) {
	f.mu.Lock()
	f.volume = db
	f.mu.Unlock()
}

func (f *fakeEngine) Volume() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume
}

func (f *fakeEngine) SetOnCompletion(cb func(gen uint64)) { f.complete = cb }

func (f *fakeEngine) Generation() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gen
}

func (f *fakeEngine) Release() {
	f.record("release")
	f.mu.Lock()
	f.released = true
	f.mu.Unlock()
}

// finish simulates the current song playing to its end.
func (f *fakeEngine) finish() {
	f.mu.Lock()
	f.playing = false
	gen := f.gen
	f.mu.Unlock()
	f.complete(gen)
}

type fakeLibrary struct {
	mu    sync.Mutex
	songs []model.Song
	deny  bool
}

func (l *fakeLibrary) RequestAccess() (library.Grant, error) {
	if l.deny {
		return library.Grant{Denied: map[string]error{"/music": errors.New("permission denied")}}, library.ErrAccessDenied
	}
	return library.Grant{Granted: []string{"/music"}}, nil
}

func (l *fakeLibrary) Query(ctx context.Context) ([]model.Song, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Song(nil), l.songs...), nil
}

func (l *fakeLibrary) set(songs []model.Song) {
	l.mu.Lock()
	l.songs = songs
	l.mu.Unlock()
}
