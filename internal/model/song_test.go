package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDurationString(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "--:--"},
		{-time.Second, "--:--"},
		{59 * time.Second, "00:59"},
		{3*time.Minute + 4*time.Second, "03:04"},
		{time.Hour + 2*time.Minute + 3*time.Second, "01:02:03"},
		{1500 * time.Millisecond, "00:02"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Song{Duration: c.in}.DurationString(), c.in.String())
	}
}

func TestDisplayLine(t *testing.T) {
	assert.Equal(t, "Intro", Song{Title: "Intro"}.DisplayLine())
	assert.Equal(t, "Intro - Band", Song{Title: "Intro", Artist: "Band"}.DisplayLine())
}
