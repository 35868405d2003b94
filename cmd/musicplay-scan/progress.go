package main

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

type Progress struct {
	total   int
	current int
	mu      sync.Mutex
}

func NewProgress(total int) *Progress {
	return &Progress{total: total}
}

// Set moves the bar to n. Scan workers report out of order, so it never
// moves backwards.
func (p *Progress) Set(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n <= p.current {
		return
	}
	p.current = n
	p.draw()
}

func (p *Progress) draw() {
	if p.total == 0 {
		return
	}
	width := 30
	percent := float64(p.current) / float64(p.total)
	filled := int(float64(width) * percent)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	fmt.Fprintf(os.Stderr, "\r [SCANNING] [%s] %d%% (%d/%d files)", bar, int(percent*100), p.current, p.total)

	if p.current == p.total {
		fmt.Fprintln(os.Stderr)
	}
}
