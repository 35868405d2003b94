// Package remote is the HTTP face of the player: JSON status and commands
// under /api, album artwork and a websocket that pushes status on every
// change.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/olahol/melody"
	"github.com/rs/zerolog/log"

	"musicplay/internal/library"
	"musicplay/internal/model"
	"musicplay/internal/player"
)

const RequestTimeout = 30 * time.Second

// Player is the part of the controller the remote drives.
type Player interface {
	Status() player.Status
	Songs() []model.Song
	Select(i int) error
	PlayNext() error
	PlayPrevious() error
	TogglePause() (bool, error)
	Seek(d time.Duration) error
	SetVolume(db float64) (float64, error)
	Subscribe() (<-chan player.Event, func())
}

// ArtworkSource answers albumart:// lookups.
type ArtworkSource interface {
	Artwork(albumID string) (library.Artwork, error)
}

type Server struct {
	player  Player
	artwork ArtworkSource
	ws      *melody.Melody
	router  chi.Router
}

func New(p Player, art ArtworkSource) *Server {
	s := &Server{player: p, artwork: art, ws: melody.New()}
	s.ws.Upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	s.ws.HandleMessage(func(ses *melody.Session, msg []byte) {
		if bytes.Equal(msg, []byte("ping")) {
			if err := ses.Write([]byte("pong")); err != nil {
				log.Debug().Err(err).Msg("sending pong")
			}
		}
	})
	s.ws.HandleConnect(func(ses *melody.Session) {
		if b, err := s.statusMessage(); err == nil {
			_ = ses.Write(b)
		}
	})
	s.router = s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"https://*", "http://*"},
		AllowedMethods: []string{"GET", "POST", "PUT"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	// the websocket outlives any request timeout
	r.Get("/api/ws", s.handleWebsocket)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(RequestTimeout))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))

			r.Get("/status", s.handleStatus)
			r.Get("/songs", s.handleSongs)
			r.Post("/play/{index}", s.handlePlay)
			r.Post("/next", s.handleCommand(s.player.PlayNext))
			r.Post("/previous", s.handleCommand(s.player.PlayPrevious))
			r.Post("/pause", s.handlePause)
			r.Put("/seek", s.handleSeek)
			r.Put("/volume", s.handleVolume)
		})

		r.Get("/artwork/{albumID}", s.handleArtwork)
	})
	return r
}

// Run listens on addr and serves until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve answers requests on ln until ctx is done, pushing a status frame to
// websocket clients after every player event.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	events, cancel := s.player.Subscribe()
	defer cancel()
	go s.broadcast(events)

	srv := &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdown, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = s.ws.Close()
		if err := srv.Shutdown(shutdown); err != nil {
			log.Warn().Err(err).Msg("remote shutdown")
		}
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("remote listening")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) broadcast(events <-chan player.Event) {
	for range events {
		b, err := s.statusMessage()
		if err != nil {
			log.Error().Err(err).Msg("encoding status")
			continue
		}
		if err := s.ws.Broadcast(b); err != nil && !errors.Is(err, melody.ErrClosed) {
			log.Error().Err(err).Msg("broadcasting status")
		}
	}
}

func (s *Server) statusMessage() ([]byte, error) {
	b, err := json.Marshal(s.player.Status())
	if err != nil {
		return nil, err
	}
	return append([]byte("STATUS "), b...), nil
}
