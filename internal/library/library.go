// Package library is the media index: it finds music files under a set of
// root folders, reads their tags and answers artwork lookups.
package library

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
)

var ErrAccessDenied = errors.New("no readable music root")

// Grant is the outcome of an access request over the configured roots.
type Grant struct {
	Granted []string
	Denied  map[string]error
}

// Ok reports whether at least one root can be scanned.
func (g Grant) Ok() bool {
	return len(g.Granted) > 0
}

type Index struct {
	roots   []string
	workers int

	mu       sync.RWMutex
	granted  []string
	albums   map[string][]string // album id -> song paths, filled by Query
	progress func(done, total int)
}

func New(roots []string, workers int) *Index {
	if workers < 1 {
		workers = 1
	}
	return &Index{
		roots:   append([]string(nil), roots...),
		workers: workers,
		albums:  make(map[string][]string),
	}
}

// OnProgress registers f to be called after each file Query reads. Calls
// come from the scan workers.
func (ix *Index) OnProgress(f func(done, total int)) {
	ix.mu.Lock()
	ix.progress = f
	ix.mu.Unlock()
}

func (ix *Index) progressFunc() func(done, total int) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.progress
}

func (ix *Index) Roots() []string {
	return append([]string(nil), ix.roots...)
}

// RequestAccess checks every root is a directory the process can list. Only
// granted roots are scanned afterwards.
func (ix *Index) RequestAccess() (Grant, error) {
	g := Grant{Denied: make(map[string]error)}
	for _, root := range ix.roots {
		if err := checkReadable(root); err != nil {
			log.Warn().Err(err).Str("root", root).Msg("music root denied")
			g.Denied[root] = err
			continue
		}
		g.Granted = append(g.Granted, root)
	}

	ix.mu.Lock()
	ix.granted = g.Granted
	ix.mu.Unlock()

	if !g.Ok() {
		return g, ErrAccessDenied
	}
	return g, nil
}

func checkReadable(root string) error {
	fi, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}
	f, err := os.Open(root)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (ix *Index) grantedRoots() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return append([]string(nil), ix.granted...)
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}
