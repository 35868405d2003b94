package remote

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rs/zerolog/log"

	"musicplay/internal/codec"
	"musicplay/internal/library"
	"musicplay/internal/model"
	"musicplay/internal/player"
)

type StatusResponse struct {
	player.Status
}

func (sr *StatusResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type SongsResponse struct {
	Songs []model.Song `json:"songs"`
}

func (sr *SongsResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type PauseResponse struct {
	Paused bool `json:"paused"`
}

func (pr *PauseResponse) Render(w http.ResponseWriter, r *http.Request) error {
	return nil
}

type SeekRequest struct {
	Position *float64 `json:"position"`
}

func (sr *SeekRequest) Bind(r *http.Request) error {
	if sr.Position == nil {
		return errors.New("missing position")
	}
	return nil
}

type VolumeRequest struct {
	VolumeDB *float64 `json:"volume_db"`
}

func (vr *VolumeRequest) Bind(r *http.Request) error {
	if vr.VolumeDB == nil {
		return errors.New("missing volume_db")
	}
	return nil
}

type ErrResponse struct {
	HTTPStatusCode int    `json:"-"`
	Code           string `json:"code"`
	Message        string `json:"error"`
}

func (e *ErrResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}

func errorResponse(err error) *ErrResponse {
	resp := &ErrResponse{HTTPStatusCode: http.StatusInternalServerError, Code: "PLAYBACK", Message: err.Error()}
	switch {
	case errors.Is(err, player.ErrIndexOutOfRange):
		resp.HTTPStatusCode, resp.Code = http.StatusNotFound, "RANGE"
	case errors.Is(err, player.ErrNoSelection):
		resp.HTTPStatusCode, resp.Code = http.StatusConflict, "NO_SELECTION"
	case errors.Is(err, player.ErrDestroyed):
		resp.HTTPStatusCode, resp.Code = http.StatusServiceUnavailable, "DESTROYED"
	}
	return resp
}

func badRequest(err error) *ErrResponse {
	return &ErrResponse{HTTPStatusCode: http.StatusBadRequest, Code: "ARG", Message: err.Error()}
}

func (s *Server) writeStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{s.player.Status()}
	if err := render.Render(w, r, &resp); err != nil {
		log.Error().Err(err).Msg("error encoding status response")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeStatus(w, r)
}

func (s *Server) handleSongs(w http.ResponseWriter, r *http.Request) {
	resp := SongsResponse{Songs: s.player.Songs()}
	if err := render.Render(w, r, &resp); err != nil {
		log.Error().Err(err).Msg("error encoding songs response")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	i, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		_ = render.Render(w, r, badRequest(err))
		return
	}
	log.Info().Int("index", i).Msg("remote play request")
	if err := s.player.Select(i); err != nil {
		_ = render.Render(w, r, errorResponse(err))
		return
	}
	s.writeStatus(w, r)
}

func (s *Server) handleCommand(fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(); err != nil {
			_ = render.Render(w, r, errorResponse(err))
			return
		}
		s.writeStatus(w, r)
	}
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	paused, err := s.player.TogglePause()
	if err != nil {
		_ = render.Render(w, r, errorResponse(err))
		return
	}
	_ = render.Render(w, r, &PauseResponse{Paused: paused})
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req SeekRequest
	if err := render.Bind(r, &req); err != nil {
		_ = render.Render(w, r, badRequest(err))
		return
	}
	if err := s.player.Seek(time.Duration(*req.Position * float64(time.Second))); err != nil {
		_ = render.Render(w, r, errorResponse(err))
		return
	}
	s.writeStatus(w, r)
}

func (s *Server) handleVolume(w http.ResponseWriter, r *http.Request) {
	var req VolumeRequest
	if err := render.Bind(r, &req); err != nil {
		_ = render.Render(w, r, badRequest(err))
		return
	}
	if _, err := s.player.SetVolume(*req.VolumeDB); err != nil {
		_ = render.Render(w, r, errorResponse(err))
		return
	}
	s.writeStatus(w, r)
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	if err := s.ws.HandleRequest(w, r); err != nil {
		log.Error().Err(err).Msg("handling websocket request")
	}
}

// handleArtwork serves the album picture as a square PNG, ?size= bounds the
// edge. Pictures the image decoders cannot read are sent as stored.
func (s *Server) handleArtwork(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "albumID")
	art, err := s.artwork.Artwork(id)
	if errors.Is(err, library.ErrNoArtwork) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("album", id).Msg("reading artwork")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	body, mime := art.Data, art.MIMEType
	if thumb, err := codec.Thumbnail(bytes.NewReader(art.Data), size); err == nil {
		body, mime = thumb, "image/png"
	} else {
		log.Debug().Err(err).Str("album", id).Msg("artwork not resized")
	}

	w.Header().Set("Content-Type", mime)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}
