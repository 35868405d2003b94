package library

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dhowden/tag"
	"golang.org/x/crypto/blake2b"

	"musicplay/pkg/spec"
)

var ErrNoArtwork = errors.New("no artwork for album")

// Artwork is an embedded cover picture.
type Artwork struct {
	MIMEType string
	Data     []byte
}

// AlbumKey groups songs the way the media store groups ALBUM_ID: by album
// title and album artist, case-insensitive.
func AlbumKey(album, albumArtist string) string {
	sum := blake2b.Sum256([]byte(strings.ToLower(album) + "\x00" + strings.ToLower(albumArtist)))
	return hex.EncodeToString(sum[:8])
}

func ArtworkURI(albumID string) string {
	return spec.ArtworkScheme + albumID
}

// AlbumIDFromURI is the inverse of ArtworkURI.
func AlbumIDFromURI(uri string) (string, bool) {
	if !strings.HasPrefix(uri, spec.ArtworkScheme) {
		return "", false
	}
	id := strings.TrimPrefix(uri, spec.ArtworkScheme)
	return id, id != ""
}

// Artwork returns the first embedded picture among the songs of an album
// seen by the last Query. albumID may also be the song's albumart:// URI.
func (ix *Index) Artwork(albumID string) (Artwork, error) {
	if id, ok := AlbumIDFromURI(albumID); ok {
		albumID = id
	}
	ix.mu.RLock()
	paths := append([]string(nil), ix.albums[albumID]...)
	ix.mu.RUnlock()

	for _, p := range paths {
		art, err := ExtractArtwork(p)
		if err == nil {
			return art, nil
		}
	}
	return Artwork{}, ErrNoArtwork
}

// ExtractArtwork reads the embedded picture of one file.
func ExtractArtwork(path string) (Artwork, error) {
	f, err := os.Open(path)
	if err != nil {
		return Artwork{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return Artwork{}, fmt.Errorf("failed to read tags: %w", err)
	}

	pic := m.Picture()
	if pic == nil || len(pic.Data) == 0 {
		return Artwork{}, ErrNoArtwork
	}

	contentType := pic.MIMEType
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return Artwork{MIMEType: contentType, Data: pic.Data}, nil
}
