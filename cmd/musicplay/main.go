/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the musicplay project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"musicplay/internal/config"
	"musicplay/internal/ipc"
	"musicplay/internal/library"
	"musicplay/internal/logging"
	"musicplay/internal/player"
	"musicplay/internal/remote"
	"musicplay/internal/tui"
	"musicplay/pkg/audioengine"
	"musicplay/pkg/spec"
)

type rootsFlag []string

func (r *rootsFlag) String() string { return strings.Join(*r, ",") }

func (r *rootsFlag) Set(v string) error {
	*r = append(*r, v)
	return nil
}

func main() {
	var roots rootsFlag
	cfgPath := flag.String("config", "", "path to musicplay.toml")
	headless := flag.Bool("headless", false, "no screen, control through the socket only")
	silent := flag.Bool("silent", false, "do not open the audio device")
	flag.Var(&roots, "root", "music folder to scan, repeatable")
	flag.Parse()

	if err := run(*cfgPath, roots, *headless, *silent); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", spec.AppName, err)
		os.Exit(1)
	}
}

func run(cfgPath string, roots []string, headless, silent bool) error {
	cfg, err := config.NewConfig(cfgPath, config.BaseDefaults)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	// -root overrides the configured roots for this run only
	if len(roots) == 0 {
		roots = cfg.Roots()
	}

	if err := logging.Init(config.ConfigDir(), config.LogFile, headless, cfg.DebugLogging()); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	log.Info().Msgf("%s V.%d.%d starting", spec.AppName, spec.VersionMajor, spec.VersionMinor)
	cfg.LogValues()

	engine, err := newEngine(silent)
	if err != nil {
		return err
	}
	log.Info().Int("rate", int(engine.SampleRate())).Bool("silent", silent).Msg("audio output ready")

	ix := library.New(roots, cfg.ScanWorkers())
	ctrl := player.New(engine, ix, player.Options{VolumeDB: cfg.VolumeDB()})
	defer ctrl.Destroy()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := ctrl.RequestAccess(ctx); err != nil {
		log.Warn().Err(err).Msg("starting with an empty list")
	}

	go func() {
		if err := ipc.NewServer(cfg.ControlSocket(), ctrl).ListenAndServe(ctx); err != nil {
			log.Error().Err(err).Msg("control socket")
		}
	}()

	if cfg.RemoteEnabled() {
		go func() {
			if err := remote.New(ctrl, ix).Run(ctx, cfg.RemoteListen()); err != nil {
				log.Error().Err(err).Msg("remote")
			}
		}()
	}

	if cfg.Watch() {
		go func() {
			err := ix.Watch(ctx, func() {
				if err := ctrl.LoadSongs(ctx); err != nil && !errors.Is(err, context.Canceled) {
					log.Error().Err(err).Msg("rescan after change")
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Warn().Err(err).Msg("watching music roots")
			}
		}()
	}

	if headless {
		log.Info().Str("socket", cfg.ControlSocket()).Msg("running headless")
		<-ctx.Done()
	} else {
		screen := tui.New(ctrl, tui.Options{
			Visualizer:   cfg.Visualizer(),
			Samples:      engine.Tap(),
			OnVisualizer: cfg.SetVisualizer,
		})
		if _, err := tea.NewProgram(screen, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("screen: %w", err)
		}
	}

	cfg.SetVolumeDB(ctrl.Status().VolumeDB)
	if err := cfg.Save(); err != nil {
		log.Warn().Err(err).Msg("saving config")
	}
	log.Info().Msg("bye")
	return nil
}

// newEngine opens the audio device, or a clock driven silent output when
// asked to or when no device is available.
func newEngine(silent bool) (*audioengine.Engine, error) {
	if !silent {
		engine, err := audioengine.New(&audioengine.SpeakerSink{})
		if err == nil {
			return engine, nil
		}
		log.Warn().Err(err).Msg("no audio device, playing silently")
	}
	return audioengine.New(audioengine.NewClockSink())
}
