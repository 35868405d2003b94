package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicplay/internal/model"
	"musicplay/internal/player"
)

type fakePlayer struct {
	mu      sync.Mutex
	index   int
	songs   []model.Song
	volume  float64
	seeked  time.Duration
	subs    []chan player.Event
	rescans int
}

func (f *fakePlayer) Status() player.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return player.Status{Index: f.index, Count: len(f.songs), VolumeDB: f.volume}
}

func (f *fakePlayer) Songs() []model.Song {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Song(nil), f.songs...)
}

func (f *fakePlayer) Select(i int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if i < 0 || i >= len(f.songs) {
		return player.ErrIndexOutOfRange
	}
	f.index = i
	f.emit(player.Event{Kind: player.EventTrackChanged, Index: i})
	return nil
}

func (f *fakePlayer) PlayNext() error { return nil }
func (f *fakePlayer) PlayPrevious() error { return nil }
func (f *fakePlayer) Pause() error { return nil }

func (f *fakePlayer) Resume() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index < 0 {
		return player.ErrNoSelection
	}
	return nil
}

func (f *fakePlayer) Seek(d time.Duration) error {
	f.mu.Lock()
	f.seeked = d
	f.mu.Unlock()
	return nil
}

func (f *fakePlayer) SetVolume(db float64) (float64, error) {
	if db > 2 {
		db = 2
	}
	f.mu.Lock()
	f.volume = db
	f.mu.Unlock()
	return db, nil
}

func (f *fakePlayer) LoadSongs(ctx context.Context) error {
	f.mu.Lock()
	f.rescans++
	f.mu.Unlock()
	return nil
}

func (f *fakePlayer) Subscribe() (<-chan player.Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan player.Event, 8)
	f.subs = append(f.subs, ch)
	return ch, func() {}
}

// emit is called with f.mu held.
func (f *fakePlayer) emit(ev player.Event) {
	for _, ch := range f.subs {
		ch <- ev
	}
}

type client struct {
	t  *testing.T
	c  net.Conn
	sc *bufio.Scanner
}

func dial(t *testing.T, path string) *client {
	t.Helper()
	var (
		c   net.Conn
		err error
	)
	require.Eventually(t, func() bool {
		c, err = net.Dial("unix", path)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)
	t.Cleanup(func() { c.Close() })
	return &client{t: t, c: c, sc: bufio.NewScanner(c)}
}

// send writes a command and returns the next non EVENT line.
func (cl *client) send(cmd string) string {
	cl.t.Helper()
	_, err := cl.c.Write([]byte(cmd + "\n"))
	require.NoError(cl.t, err)
	for {
		require.NoError(cl.t, cl.c.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.True(cl.t, cl.sc.Scan(), "no reply to %q", cmd)
		line := cl.sc.Text()
		if !strings.HasPrefix(line, "EVENT ") {
			return line
		}
	}
}

func startServer(t *testing.T, p Player) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mp.sock")
	ctx, cancel := context.WithCancel(context.Background())
	s := NewServer(path, p)
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("server did not stop")
		}
	})
	return path
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{
		index: -1,
		songs: []model.Song{{Title: "a", Path: "/m/a.mp3"}, {Title: "b", Path: "/m/b.mp3"}},
	}
}

func TestReadOnlyVerbs(t *testing.T) {
	path := startServer(t, newFakePlayer())
	cl := dial(t, path)

	assert.Equal(t, "PONG", cl.send("ping"))
	assert.Equal(t, "MusicPlay V.1.0", cl.send("ABOUT"))
	assert.Equal(t, "OBSERVER", cl.send("WHOAMI"))

	var st player.Status
	require.NoError(t, json.Unmarshal([]byte(cl.send("STATUS")), &st))
	assert.Equal(t, -1, st.Index)
	assert.Equal(t, 2, st.Count)

	var songs []model.Song
	require.NoError(t, json.Unmarshal([]byte(cl.send("LIST")), &songs))
	require.Len(t, songs, 2)
	assert.Equal(t, "b", songs[1].Title)

	assert.Equal(t, "ERR UNKNOWN", cl.send("DANCE"))
}

func TestControlVerbs(t *testing.T) {
	p := newFakePlayer()
	cl := dial(t, startServer(t, p))

	assert.Equal(t, "ERR NO_SELECTION", cl.send("RESUME"))
	assert.Equal(t, "OWNER", cl.send("WHOAMI"))
	assert.Equal(t, "OK", cl.send("PLAY 1"))
	assert.Equal(t, "ERR RANGE", cl.send("PLAY 7"))
	assert.Equal(t, "ERR ARG", cl.send("PLAY x"))
	assert.Equal(t, "OK", cl.send("NEXT"))
	assert.Equal(t, "OK", cl.send("PREV"))
	assert.Equal(t, "OK", cl.send("PAUSE"))
	assert.Equal(t, "OK", cl.send("SEEK 12.5"))
	assert.Equal(t, "OK 2", cl.send("VOLUME 9"))
	assert.Equal(t, "OK 2", cl.send("RESCAN"))

	p.mu.Lock()
	defer p.mu.Unlock()
	assert.Equal(t, 1, p.index)
	assert.Equal(t, 12500*time.Millisecond, p.seeked)
	assert.Equal(t, 1, p.rescans)
}

func TestOwnerGetsEvents(t *testing.T) {
	cl := dial(t, startServer(t, newFakePlayer()))

	_, err := cl.c.Write([]byte("PLAY 0\n"))
	require.NoError(t, err)

	var lines []string
	for len(lines) < 2 {
		require.NoError(t, cl.c.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.True(t, cl.sc.Scan())
		lines = append(lines, cl.sc.Text())
	}
	assert.Contains(t, lines, "OK")
	assert.Contains(t, lines, `EVENT {"type":"TRACK_CHANGED","index":0}`)
}

func TestSecondClientIsLockedOut(t *testing.T) {
	path := startServer(t, newFakePlayer())
	owner := dial(t, path)
	other := dial(t, path)

	assert.Equal(t, "OK", owner.send("PAUSE"))
	assert.Equal(t, "ERR CONTROL_LOCKED", other.send("PAUSE"))
	assert.Equal(t, "PONG", other.send("PING"))

	assert.Equal(t, "BYE", owner.send("QUIT"))
	assert.Eventually(t, func() bool {
		return other.send("PAUSE") == "OK"
	}, 2*time.Second, 20*time.Millisecond)
}

func TestErrorCode(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{fmt.Errorf("%w: 9 of 3", player.ErrIndexOutOfRange), "RANGE"},
		{player.ErrNoSelection, "NO_SELECTION"},
		{player.ErrDestroyed, "DESTROYED"},
		{fmt.Errorf("query songs: %w", context.Canceled), "CANCELED"},
		{errors.New("prepare: corrupt file"), "PLAYBACK"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.code, ErrorCode(tc.err), tc.err.Error())
	}
}
