package main

import (
	"fmt"
	"os"

	"github.com/tomz197/starfield/internal/config"
	"github.com/tomz197/starfield/internal/window"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "starfield window: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		logCfg config.Log
		winCfg config.Window
		sfCfg  config.Starfield
	)
	for _, target := range []any{&logCfg, &winCfg, &sfCfg} {
		if err := config.ParseEnv(target); err != nil {
			return err
		}
	}

	logger, closeLog, err := config.NewLogger(logCfg, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	logger.Info("Opening window", "width", winCfg.Width, "height", winCfg.Height)
	return window.Run(winCfg, sfCfg.Overrides(), logger)
}
