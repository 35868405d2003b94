/*
 * Copyright (c) 2025 Hardiyanto Y -Ebiet.
 * This software is part of the musicplay project.
 * This code is provided "as is", without warranty of any kind.
 */

package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"musicplay/internal/config"
	"musicplay/pkg/spec"
)

const (
	app_name = "MusicPlay-Client"
	maxReply = 16 * 1024 * 1024
)

func main() {
	socket := flag.String("socket", "", "control socket, defaults to the configured one")
	cfgPath := flag.String("config", "", "path to musicplay.toml")
	flag.Parse()

	path := *socket
	if path == "" {
		path = spec.DefaultSocket
		if cfg, err := config.NewConfig(*cfgPath, config.BaseDefaults); err == nil {
			path = cfg.ControlSocket()
		}
	}

	// one shot: musicplay-client STATUS
	if flag.NArg() > 0 {
		os.Exit(oneShot(path, strings.Join(flag.Args(), " ")))
	}

	fmt.Printf("\n%s V.%d.%d\n", app_name, spec.VersionMajor, spec.VersionMinor)
	conn, err := net.Dial("unix", path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect %s: %v\n", path, err)
		os.Exit(1)
	}
	defer conn.Close()

	items := make([]readline.PrefixCompleterInterface, 0, len(spec.Verbs))
	for _, v := range spec.Verbs {
		items = append(items, readline.PcItem(v))
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "musicplay> ",
		AutoComplete:    readline.NewPrefixCompleter(items...),
		HistoryFile:     filepath.Join(config.ConfigDir(), "client_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       spec.CmdQuit,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "readline: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	fmt.Println("Connected. TAB completes commands, QUIT exits.")

	done := make(chan struct{})
	go func() {
		defer close(done)
		sc := bufio.NewScanner(conn)
		sc.Buffer(make([]byte, 64*1024), maxReply)
		for sc.Scan() {
			fmt.Fprintln(rl.Stdout(), sc.Text())
		}
		fmt.Fprintln(rl.Stdout(), "SOCKET CLOSED")
		rl.Close()
	}()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				break
			}
			continue
		}
		if err != nil {
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, err := conn.Write([]byte(line + "\n")); err != nil {
			fmt.Fprintln(os.Stderr, "WRITE ERROR:", err)
			os.Exit(1)
		}
		if strings.EqualFold(line, spec.CmdQuit) {
			<-done
			break
		}
	}
}

// oneShot sends a single command, prints the reply and exits non zero on ERR.
func oneShot(path, cmd string) int {
	conn, err := net.Dial("unix", path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect %s: %v\n", path, err)
		return 1
	}
	defer conn.Close()

	if _, err := io.WriteString(conn, cmd+"\n"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 64*1024), maxReply)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, "EVENT ") {
			continue
		}
		fmt.Println(line)
		if strings.HasPrefix(line, "ERR") {
			return 2
		}
		return 0
	}
	return 1
}
