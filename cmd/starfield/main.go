package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/tomz197/starfield/internal/config"
	"github.com/tomz197/starfield/internal/draw"
	"github.com/tomz197/starfield/internal/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "starfield: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		logCfg  config.Log
		termCfg config.Terminal
		sfCfg   config.Starfield
	)
	for _, target := range []any{&logCfg, &termCfg, &sfCfg} {
		if err := config.ParseEnv(target); err != nil {
			return err
		}
	}

	// The terminal is the display, so logs only go to LOG_FILE.
	logger, closeLog, err := config.NewLogger(logCfg, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	profile, ok := draw.ParseProfile(termCfg.ColorProfile)
	if !ok {
		profile = termenv.EnvColorProfile()
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enable raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess := session.New(bufio.NewReader(os.Stdin), os.Stdout, session.Options{
		Profile:    profile,
		FPS:        termCfg.FPS,
		Mouse:      termCfg.Mouse,
		Banner:     termCfg.Banner,
		ShowStatus: termCfg.ShowStatus,
		Overrides:  sfCfg.Overrides(),
		Logger:     logger,
	})
	if err := sess.Run(ctx); err != nil && !errors.Is(err, session.ErrIdle) {
		return err
	}
	return nil
}
