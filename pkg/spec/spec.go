package spec

import (
	"strings"
	"time"
)

const (
	// === IDENTITY & VERSIONING ===
	AppName      = "MusicPlay"
	VersionMajor = 1
	VersionMinor = 0

	// === ENGINE SPECS ===
	SampleRate      = 48000
	Channels        = 2
	SpeakerBuffer   = 100 * time.Millisecond
	ResampleQuality = 4
	TapSize         = 2048

	// === INDEX ===
	UnknownArtist   = "<unknown>"
	ArtworkScheme   = "albumart://"
	NoMediaMarker   = ".nomedia"
	RescanDebounce  = 500 * time.Millisecond
	NoSelection     = -1
	DefaultSeekStep = 5 * time.Second
)

// Extensions the index treats as music and the engine knows how to decode.
var Extensions = []string{".mp3", ".wav", ".flac", ".ogg", ".opus"}

// === CONTROL SOCKET VERBS ===
const (
	CmdPing   = "PING"
	CmdAbout  = "ABOUT"
	CmdStatus = "STATUS"
	CmdList   = "LIST"
	CmdPlay   = "PLAY"
	CmdNext   = "NEXT"
	CmdPrev   = "PREV"
	CmdPause  = "PAUSE"
	CmdResume = "RESUME"
	CmdSeek   = "SEEK"
	CmdVolume = "VOLUME"
	CmdRescan = "RESCAN"
	CmdQuit   = "QUIT"
	CmdWhoAmI = "WHOAMI"

	DefaultSocket = "/tmp/musicplay.sock"
	DefaultListen = "127.0.0.1:7490"
)

// Verbs lists every control verb, used by the client for completion.
var Verbs = []string{
	CmdPing, CmdAbout, CmdStatus, CmdList, CmdPlay, CmdNext, CmdPrev,
	CmdPause, CmdResume, CmdSeek, CmdVolume, CmdRescan, CmdWhoAmI, CmdQuit,
}

// IsMusicExt reports whether ext (with dot, any case) is a supported extension.
func IsMusicExt(ext string) bool {
	for _, e := range Extensions {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}
