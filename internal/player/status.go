package player

import (
	"time"

	"musicplay/internal/model"
)

// Status is a point in time view of the player.
type Status struct {
	Index    int         `json:"index"`
	Count    int         `json:"count"`
	Song     *model.Song `json:"song,omitempty"`
	Playing  bool        `json:"playing"`
	Paused   bool        `json:"paused"`
	Position float64     `json:"position"`
	Length   float64     `json:"length"`
	VolumeDB float64     `json:"volume_db"`
}

// PositionDuration is Position as a time.Duration.
func (s Status) PositionDuration() time.Duration {
	return time.Duration(s.Position * float64(time.Second))
}

func (s Status) LengthDuration() time.Duration {
	return time.Duration(s.Length * float64(time.Second))
}

// Status snapshots the player. Position and Length are in seconds. Length
// falls back to the tagged duration when the engine cannot tell it.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		Index:    c.index,
		Count:    c.adapter.Count(),
		VolumeDB: c.engine.Volume(),
	}
	if c.destroyed {
		return st
	}
	if song, ok := c.adapter.Item(c.index); ok {
		st.Song = &song
		st.Playing = c.engine.IsPlaying()
		st.Paused = c.engine.IsPaused()
		st.Position = c.engine.Position().Seconds()
		length := c.engine.Length()
		if length <= 0 {
			length = song.Duration
		}
		st.Length = length.Seconds()
	}
	return st
}
