// Package ipc serves the player over a unix socket with a line protocol:
// one verb per line, one reply per line. Read only verbs are open to every
// connection; the first connection to send a control verb becomes the owner
// and receives EVENT lines until it disconnects.
package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"musicplay/internal/model"
	"musicplay/internal/player"
	"musicplay/pkg/spec"
)

// Player is what the socket controls.
type Player interface {
	Status() player.Status
	Songs() []model.Song
	Select(i int) error
	PlayNext() error
	PlayPrevious() error
	Pause() error
	Resume() error
	Seek(d time.Duration) error
	SetVolume(db float64) (float64, error)
	LoadSongs(ctx context.Context) error
	Subscribe() (<-chan player.Event, func())
}

type Server struct {
	path   string
	player Player

	mu    sync.Mutex
	owner *conn
	wg    sync.WaitGroup
}

func NewServer(path string, p Player) *Server {
	if path == "" {
		path = spec.DefaultSocket
	}
	return &Server{path: path, player: p}
}

func (s *Server) Path() string { return s.path }

// ListenAndServe removes a stale socket file, listens and serves until ctx
// is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	_ = os.Remove(s.path)
	ln, err := net.Listen("unix", s.path)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.path, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	log.Info().Str("addr", ln.Addr().String()).Msg("control socket listening")
	for {
		c, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				s.wg.Wait()
				return nil
			}
			log.Warn().Err(err).Msg("accept")
			continue
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(ctx, newConn(c))
		}()
	}
}

type conn struct {
	net.Conn
	wmu    sync.Mutex
	cancel func()
}

func newConn(c net.Conn) *conn {
	return &conn{Conn: c}
}

func (c *conn) writeLine(line string) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := c.Write([]byte(line + "\n"))
	return err
}

func (c *conn) writeJSON(v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return c.writeLine("ERR INTERNAL")
	}
	return c.writeLine(string(b))
}

func (s *Server) isOwner(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner == c
}

// claimOwner makes c the owner when nobody is, and starts its event feed.
func (s *Server) claimOwner(c *conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner == c {
		return true
	}
	if s.owner != nil {
		return false
	}
	s.owner = c

	events, cancel := s.player.Subscribe()
	c.cancel = cancel
	go func() {
		for ev := range events {
			b, _ := json.Marshal(ev)
			if err := c.writeLine("EVENT " + string(b)); err != nil {
				s.releaseOwner(c)
				return
			}
		}
	}()
	return true
}

func (s *Server) releaseOwner(c *conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owner != c {
		return
	}
	s.owner = nil
	if c.cancel != nil {
		c.cancel()
	}
}

func (s *Server) handle(ctx context.Context, c *conn) {
	stop := context.AfterFunc(ctx, func() { c.Close() })
	defer func() {
		stop()
		s.releaseOwner(c)
		c.Close()
	}()

	sc := bufio.NewScanner(c)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		verb := strings.ToUpper(parts[0])
		arg := ""
		if len(parts) == 2 {
			arg = strings.TrimSpace(parts[1])
		}

		if verb == spec.CmdQuit {
			c.writeLine("BYE")
			return
		}
		if err := s.dispatch(ctx, c, verb, arg); err != nil {
			log.Debug().Err(err).Msg("control client gone")
			return
		}
	}
}

func (s *Server) dispatch(ctx context.Context, c *conn, verb, arg string) error {
	switch verb {
	case spec.CmdAbout:
		return c.writeLine(fmt.Sprintf("%s V.%d.%d", spec.AppName, spec.VersionMajor, spec.VersionMinor))
	case spec.CmdPing:
		return c.writeLine("PONG")
	case spec.CmdWhoAmI:
		if s.isOwner(c) {
			return c.writeLine("OWNER")
		}
		return c.writeLine("OBSERVER")
	case spec.CmdStatus:
		return c.writeJSON(s.player.Status())
	case spec.CmdList:
		return c.writeJSON(s.player.Songs())
	}

	if !isControlVerb(verb) {
		return c.writeLine("ERR UNKNOWN")
	}
	if !s.claimOwner(c) {
		return c.writeLine("ERR CONTROL_LOCKED")
	}

	switch verb {
	case spec.CmdPlay:
		n, err := strconv.Atoi(arg)
		if err != nil {
			return c.writeLine("ERR ARG")
		}
		return s.reply(c, s.player.Select(n))
	case spec.CmdNext:
		return s.reply(c, s.player.PlayNext())
	case spec.CmdPrev:
		return s.reply(c, s.player.PlayPrevious())
	case spec.CmdPause:
		return s.reply(c, s.player.Pause())
	case spec.CmdResume:
		return s.reply(c, s.player.Resume())
	case spec.CmdSeek:
		sec, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return c.writeLine("ERR ARG")
		}
		return s.reply(c, s.player.Seek(time.Duration(sec*float64(time.Second))))
	case spec.CmdVolume:
		db, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return c.writeLine("ERR ARG")
		}
		applied, err := s.player.SetVolume(db)
		if err != nil {
			return s.reply(c, err)
		}
		return c.writeLine("OK " + strconv.FormatFloat(applied, 'f', -1, 64))
	case spec.CmdRescan:
		if err := s.player.LoadSongs(ctx); err != nil {
			return s.reply(c, err)
		}
		return c.writeLine(fmt.Sprintf("OK %d", s.player.Status().Count))
	}
	return c.writeLine("ERR UNKNOWN")
}

func isControlVerb(verb string) bool {
	switch verb {
	case spec.CmdPlay, spec.CmdNext, spec.CmdPrev, spec.CmdPause, spec.CmdResume,
		spec.CmdSeek, spec.CmdVolume, spec.CmdRescan:
		return true
	}
	return false
}

func (s *Server) reply(c *conn, err error) error {
	if err == nil {
		return c.writeLine("OK")
	}
	return c.writeLine("ERR " + ErrorCode(err))
}

// ErrorCode maps player errors onto the codes sent after ERR.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, player.ErrIndexOutOfRange):
		return "RANGE"
	case errors.Is(err, player.ErrNoSelection):
		return "NO_SELECTION"
	case errors.Is(err, player.ErrDestroyed):
		return "DESTROYED"
	case errors.Is(err, context.Canceled):
		return "CANCELED"
	}
	return "PLAYBACK"
}
