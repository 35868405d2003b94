package audioengine

import (
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicplay/internal/testutil"
)

func newTestEngine(t *testing.T) (*Engine, *MemorySink) {
	t.Helper()
	sink := &MemorySink{}
	e, err := New(sink)
	require.NoError(t, err)
	t.Cleanup(e.Release)
	return e, sink
}

func fixture(t *testing.T, rate int, length time.Duration) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tone.wav")
	testutil.WriteWav(t, p, rate, length, 440)
	return p
}

func load(t *testing.T, e *Engine, path string) {
	t.Helper()
	require.NoError(t, e.Reset())
	require.NoError(t, e.SetDataSource(path))
	require.NoError(t, e.Prepare())
}

func TestLifecycle(t *testing.T) {
	e, sink := newTestEngine(t)
	load(t, e, fixture(t, 48000, 200*time.Millisecond))

	assert.Equal(t, StatePrepared, e.State())
	assert.Equal(t, 200*time.Millisecond, e.Length())
	assert.False(t, e.IsPlaying())

	require.NoError(t, e.Start())
	assert.True(t, e.IsPlaying())
	assert.Equal(t, 1, sink.Active())

	sink.Pump(4800)
	assert.Equal(t, 100*time.Millisecond, e.Position())

	require.NoError(t, e.Pause())
	assert.True(t, e.IsPaused())
	sink.Pump(4800)
	assert.Equal(t, 100*time.Millisecond, e.Position(), "paused engine must not advance")

	require.NoError(t, e.Resume())
	assert.True(t, e.IsPlaying())
}

func TestCompletionFiresOnce(t *testing.T) {
	e, sink := newTestEngine(t)
	load(t, e, fixture(t, 48000, 100*time.Millisecond))

	var calls atomic.Int32
	done := make(chan struct{}, 4)
	e.SetOnCompletion(func(uint64) {
		calls.Add(1)
		done <- struct{}{}
	})
	require.NoError(t, e.Start())

	for i := 0; i < 5; i++ {
		sink.Pump(4800)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("completion not delivered")
	}
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, StateCompleted, e.State())
	assert.Equal(t, 0, sink.Active())
}

func TestCompletionCarriesGeneration(t *testing.T) {
	e, sink := newTestEngine(t)
	load(t, e, fixture(t, 48000, 100*time.Millisecond))

	got := make(chan uint64, 1)
	e.SetOnCompletion(func(gen uint64) { got <- gen })
	require.NoError(t, e.Start())
	started := e.Generation()
	assert.NotZero(t, started)

	sink.Pump(4800 * 3)
	select {
	case gen := <-got:
		assert.Equal(t, started, gen)
	case <-time.After(2 * time.Second):
		t.Fatal("completion not delivered")
	}

	require.NoError(t, e.Reset())
	assert.NotEqual(t, started, e.Generation())
}

func TestStopSuppressesCompletion(t *testing.T) {
	e, sink := newTestEngine(t)
	load(t, e, fixture(t, 48000, 100*time.Millisecond))

	var calls atomic.Int32
	e.SetOnCompletion(func(uint64) { calls.Add(1) })
	require.NoError(t, e.Start())
	sink.Pump(2400)

	require.NoError(t, e.Stop())
	assert.Equal(t, 0, sink.Active())
	sink.Pump(4800)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls.Load())
	assert.Equal(t, StateStopped, e.State())

	assert.ErrorIs(t, e.Start(), ErrIllegalState, "stopped engine needs Prepare first")
	require.NoError(t, e.Prepare())
	require.NoError(t, e.Start())
}

func TestResetSuppressesCompletion(t *testing.T) {
	e, sink := newTestEngine(t)
	first := fixture(t, 48000, 100*time.Millisecond)
	second := fixture(t, 48000, 300*time.Millisecond)

	var calls atomic.Int32
	e.SetOnCompletion(func(uint64) { calls.Add(1) })

	load(t, e, first)
	require.NoError(t, e.Start())
	load(t, e, second)
	require.NoError(t, e.Start())

	sink.Pump(4800 * 2)
	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, calls.Load(), "old source must not complete the new one")
	assert.True(t, e.IsPlaying())
}

func TestSeekClamps(t *testing.T) {
	e, _ := newTestEngine(t)
	load(t, e, fixture(t, 48000, 200*time.Millisecond))

	require.NoError(t, e.Seek(50*time.Millisecond))
	assert.Equal(t, 50*time.Millisecond, e.Position())

	require.NoError(t, e.Seek(-time.Second))
	assert.Equal(t, time.Duration(0), e.Position())

	require.NoError(t, e.Seek(time.Hour))
	assert.Equal(t, e.Length(), e.Position())
}

func TestResampledSource(t *testing.T) {
	e, sink := newTestEngine(t)
	load(t, e, fixture(t, 22050, 100*time.Millisecond))

	done := make(chan struct{}, 1)
	e.SetOnCompletion(func(uint64) { done <- struct{}{} })
	require.NoError(t, e.Start())
	for i := 0; i < 4; i++ {
		sink.Pump(4800)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("resampled source never completed")
	}
}

func TestIllegalTransitions(t *testing.T) {
	e, _ := newTestEngine(t)

	assert.ErrorIs(t, e.Prepare(), ErrIllegalState)
	assert.ErrorIs(t, e.Start(), ErrIllegalState)
	assert.ErrorIs(t, e.Pause(), ErrIllegalState)
	assert.ErrorIs(t, e.Seek(time.Second), ErrIllegalState)

	require.NoError(t, e.SetDataSource(fixture(t, 48000, 50*time.Millisecond)))
	assert.ErrorIs(t, e.SetDataSource("again.wav"), ErrIllegalState)
}

func TestMissingAndUnsupportedSources(t *testing.T) {
	e, _ := newTestEngine(t)
	dir := t.TempDir()

	assert.Error(t, e.SetDataSource(filepath.Join(dir, "missing.mp3")))
	assert.Equal(t, StateIdle, e.State())

	txt := filepath.Join(dir, "notes.txt")
	testutil.WriteFile(t, txt, []byte("not audio"))
	require.NoError(t, e.SetDataSource(txt))
	assert.ErrorIs(t, e.Prepare(), ErrUnsupportedFormat)
	assert.Equal(t, StateError, e.State())

	require.NoError(t, e.Reset())
	assert.Equal(t, StateIdle, e.State())
}

func TestVolumeAndTap(t *testing.T) {
	e, sink := newTestEngine(t)
	e.SetVolume(-1)
	load(t, e, fixture(t, 48000, 200*time.Millisecond))
	require.NoError(t, e.Start())
	assert.Equal(t, -1.0, e.Volume())

	sink.Pump(4800)
	snap := e.Tap().Snapshot()
	require.Len(t, snap, 2048)

	peak := 0.0
	for _, v := range snap {
		if v > peak {
			peak = v
		}
	}
	// 12000/32768 at unit gain, halved by the -1 setting
	assert.Greater(t, peak, 0.1)
	assert.Less(t, peak, 0.25)
}

func TestReleased(t *testing.T) {
	sink := &MemorySink{}
	e, err := New(sink)
	require.NoError(t, err)

	e.Release()
	e.Release()
	assert.ErrorIs(t, e.Reset(), ErrReleased)
	assert.ErrorIs(t, e.Start(), ErrReleased)
	assert.Equal(t, StateReleased, e.State())
}
