/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the musicplay project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"

	"musicplay/internal/config"
	"musicplay/internal/library"
	"musicplay/internal/logging"
	"musicplay/internal/model"
	"musicplay/pkg/spec"
)

const (
	app_name      = "MusicPlay-Scan"
	general_usage = "Usage: musicplay-scan [-root <dir>]... [-json] [-artwork <album id> -out <file>]"
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
	jsonDump := flag.Bool("json", false, "print songs as JSON")
	artID := flag.String("artwork", "", "album id or albumart:// URI whose artwork to extract")
	out := flag.String("out", "", "file to write the artwork to")
	workers := flag.Int("workers", 0, "tag reading workers, 0 uses the config")
	quiet := flag.Bool("quiet", false, "no progress bar")
	debug := flag.Bool("debug", false, "log to stderr")
	flag.Var(&roots, "root", "music folder to scan, repeatable")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "\n%s %d.%d\n%s\n", app_name, spec.VersionMajor, spec.VersionMinor, general_usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *debug {
		if err := logging.Init(os.TempDir(), config.LogFile, true, true); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	if len(roots) == 0 {
		cfg, err := config.NewConfig(*cfgPath, config.BaseDefaults)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		roots = cfg.Roots()
		if *workers == 0 {
			*workers = cfg.ScanWorkers()
		}
	}
	if *workers == 0 {
		*workers = config.BaseDefaults.ScanWorkers
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	ix := library.New(roots, *workers)
	grant, err := ix.RequestAccess()
	for root, why := range grant.Denied {
		fmt.Fprintf(os.Stderr, "[!] %s: %v\n", root, why)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	if !*quiet && !*jsonDump {
		var (
			bar  *Progress
			once sync.Once
		)
		ix.OnProgress(func(done, total int) {
			once.Do(func() { bar = NewProgress(total) })
			bar.Set(done)
		})
	}

	songs, err := ix.Query(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan: %v\n", err)
		os.Exit(1)
	}

	if *artID != "" {
		if err := dumpArtwork(ix, *artID, *out); err != nil {
			fmt.Fprintf(os.Stderr, "artwork: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *jsonDump {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(songs); err != nil {
			fmt.Fprintf(os.Stderr, "json: %v\n", err)
			os.Exit(1)
		}
		return
	}

	printTable(songs)
}

func printTable(songs []model.Song) {
	fmt.Println(strings.Repeat("=", 96))
	fmt.Printf(" %-4s | %-34s | %-24s | %-8s | %-16s\n", "NO", "TITLE", "ARTIST", "DURATION", "ALBUM ID")
	fmt.Println(strings.Repeat("-", 96))
	for i, s := range songs {
		fmt.Printf(" %4d | %-34s | %-24s | %-8s | %-16s\n",
			i, clip(s.Title, 34), clip(s.Artist, 24), s.DurationString(), s.AlbumID)
	}
	fmt.Println(strings.Repeat("=", 96))
	fmt.Printf(" %d songs\n", len(songs))
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func dumpArtwork(ix *library.Index, albumID, out string) error {
	art, err := ix.Artwork(albumID)
	if err != nil {
		return err
	}
	if out == "" {
		fmt.Printf(" ARTWORK   : %s\n FILE SIZE : %s\n", art.MIMEType, formatSize(int64(len(art.Data))))
		return nil
	}
	if err := os.WriteFile(out, art.Data, 0644); err != nil {
		return err
	}
	fmt.Printf(" ARTWORK   : %s -> %s (%s)\n", art.MIMEType, out, formatSize(int64(len(art.Data))))
	return nil
}

func formatSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	if exp == 0 {
		return fmt.Sprintf("%.2f Kb", float64(b)/float64(unit))
	}
	return fmt.Sprintf("%.2f Mb", float64(b)/float64(div))
}
