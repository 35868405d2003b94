package songlist

import "musicplay/internal/model"

// Row is one visible line of the list.
type Row struct {
	Index   int
	Song    model.Song
	Cursor  bool
	Playing bool
}

// Render returns at most height rows around cursor, scrolled so the cursor
// stays visible and the window stays full when the list allows it.
func (a *Adapter) Render(cursor, height int) []Row {
	a.mu.RLock()
	defer a.mu.RUnlock()

	n := len(a.songs)
	if n == 0 || height <= 0 {
		return nil
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= n {
		cursor = n - 1
	}

	start := cursor - height/2
	if start+height > n {
		start = n - height
	}
	if start < 0 {
		start = 0
	}
	end := start + height
	if end > n {
		end = n
	}

	rows := make([]Row, 0, end-start)
	for i := start; i < end; i++ {
		rows = append(rows, Row{
			Index:   i,
			Song:    a.songs[i],
			Cursor:  i == cursor,
			Playing: a.songs[i].IsPlaying,
		})
	}
	return rows
}
