package library

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/dhowden/tag"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"musicplay/internal/model"
	"musicplay/pkg/spec"
)

// Query scans the granted roots and returns every music file ordered by
// path. Unreadable tags are not an error: the song falls back to its file name.
func (ix *Index) Query(ctx context.Context) ([]model.Song, error) {
	roots := ix.grantedRoots()
	if len(roots) == 0 {
		return nil, ErrAccessDenied
	}

	paths, err := findMusic(ctx, roots)
	if err != nil {
		return nil, err
	}

	songs := make([]model.Song, len(paths))
	ok := make([]bool, len(paths))
	progress := ix.progressFunc()
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(ix.workers)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, err := readSong(path)
			if progress != nil {
				progress(int(done.Add(1)), len(paths))
			}
			if err != nil {
				log.Debug().Err(err).Str("path", path).Msg("skipping unreadable file")
				return nil
			}
			songs[i] = s
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make([]model.Song, 0, len(songs))
	albums := make(map[string][]string)
	for i, s := range songs {
		if !ok[i] {
			continue
		}
		result = append(result, s)
		albums[s.AlbumID] = append(albums[s.AlbumID], s.Path)
	}

	ix.mu.Lock()
	ix.albums = albums
	ix.mu.Unlock()

	log.Info().Int("songs", len(result)).Strs("roots", roots).Msg("library scanned")
	return result, nil
}

// findMusic walks roots and returns the unique, sorted absolute paths of music
// files. Hidden entries and folders holding a .nomedia marker are skipped.
func findMusic(ctx context.Context, roots []string) ([]string, error) {
	seen := make(map[string]struct{})
	var paths []string

	for _, root := range roots {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, err
		}
		err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == absRoot {
					return err
				}
				log.Debug().Err(err).Str("path", path).Msg("walk error")
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}

			name := d.Name()
			if d.IsDir() {
				if path != absRoot && isHidden(name) {
					return fs.SkipDir
				}
				if hasNoMedia(path) {
					return fs.SkipDir
				}
				return nil
			}
			if isHidden(name) || !d.Type().IsRegular() {
				return nil
			}
			if !spec.IsMusicExt(filepath.Ext(name)) {
				return nil
			}
			if _, dup := seen[path]; dup {
				return nil
			}
			seen[path] = struct{}{}
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func hasNoMedia(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, spec.NoMediaMarker))
	return err == nil
}

func readSong(path string) (model.Song, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Song{}, err
	}

	var title, artist, album, albumArtist string
	m, err := tag.ReadFrom(f)
	f.Close()
	if err == nil {
		title = strings.TrimSpace(m.Title())
		artist = strings.TrimSpace(m.Artist())
		album = strings.TrimSpace(m.Album())
		albumArtist = strings.TrimSpace(m.AlbumArtist())
	}

	if title == "" {
		title = TitleFromPath(path)
	}
	if artist == "" {
		artist = spec.UnknownArtist
	}
	if album == "" {
		album = filepath.Base(filepath.Dir(path))
	}
	if albumArtist == "" {
		albumArtist = artist
	}

	dur, err := probeDuration(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("duration probe failed")
		dur = 0
	}

	albumID := AlbumKey(album, albumArtist)
	return model.Song{
		ID:         SongID(path),
		Title:      title,
		Artist:     artist,
		Album:      album,
		AlbumID:    albumID,
		Path:       path,
		ArtworkURI: ArtworkURI(albumID),
		Duration:   dur,
	}, nil
}

// TitleFromPath turns "02_some_song.mp3" into "02 some song".
func TitleFromPath(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
}

// SongID is stable for a given absolute path across scans.
func SongID(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+path)).String()
}
