package songlist

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"musicplay/internal/model"
)

func songs(n int) []model.Song {
	out := make([]model.Song, n)
	for i := range out {
		out[i] = model.Song{Title: fmt.Sprintf("t%d", i), Path: fmt.Sprintf("/m/%02d.mp3", i)}
	}
	return out
}

func TestNewCopiesAndClearsFlags(t *testing.T) {
	in := songs(3)
	in[1].IsPlaying = true

	a := New(in, nil)
	assert.Equal(t, 3, a.Count())
	assert.Equal(t, -1, a.PlayingIndex())
	for _, s := range a.Items() {
		assert.False(t, s.IsPlaying)
	}

	a.UpdatePlaying(0)
	assert.False(t, in[0].IsPlaying, "caller slice must not change")
}

func TestUpdatePlayingIsExclusive(t *testing.T) {
	a := New(songs(4), nil)

	a.UpdatePlaying(2)
	a.UpdatePlaying(1)
	items := a.Items()
	assert.True(t, items[1].IsPlaying)
	assert.False(t, items[2].IsPlaying)
	assert.Equal(t, 1, a.PlayingIndex())

	a.UpdatePlaying(-1)
	for _, s := range a.Items() {
		assert.False(t, s.IsPlaying)
	}

	a.UpdatePlaying(9)
	assert.Equal(t, -1, a.PlayingIndex())
}

func TestSelectReportsIndex(t *testing.T) {
	var got []int
	a := New(songs(3), func(i int) { got = append(got, i) })

	assert.True(t, a.Select(2))
	assert.False(t, a.Select(3))
	assert.False(t, a.Select(-1))
	assert.Equal(t, []int{2}, got)
}

func TestSelectDuplicatesUsesRow(t *testing.T) {
	list := songs(3)
	list[2] = list[0]

	var got int
	a := New(list, func(i int) { got = i })
	a.Select(2)
	assert.Equal(t, 2, got)
	assert.Equal(t, 0, a.IndexOfPath(list[2].Path))
	assert.Equal(t, -1, a.IndexOfPath("/nowhere"))
}

func TestItem(t *testing.T) {
	a := New(songs(2), nil)
	s, ok := a.Item(1)
	require.True(t, ok)
	assert.Equal(t, "t1", s.Title)

	_, ok = a.Item(2)
	assert.False(t, ok)
}

func TestRenderWindow(t *testing.T) {
	a := New(songs(10), nil)
	a.UpdatePlaying(9)

	rows := a.Render(0, 4)
	require.Len(t, rows, 4)
	assert.Equal(t, 0, rows[0].Index)
	assert.True(t, rows[0].Cursor)

	rows = a.Render(5, 4)
	assert.Equal(t, 3, rows[0].Index)
	assert.True(t, rows[2].Cursor)

	rows = a.Render(9, 4)
	assert.Equal(t, 6, rows[0].Index)
	assert.True(t, rows[3].Cursor)
	assert.True(t, rows[3].Playing)

	assert.Len(t, a.Render(42, 20), 10)
	assert.Nil(t, New(nil, nil).Render(0, 5))
}
