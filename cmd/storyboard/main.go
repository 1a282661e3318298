// Command storyboard opens the storyboard canvas in a window.
//
//	storyboard -config storyboard.toml
//
// The story is saved to the configured store after every change and resumed
// on the next start.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/storyboard"
)

const windowTitle = "Storyboard"

func main() {
	var (
		configPath = flag.String("config", "storyboard.toml", "configuration file")
		fresh      = flag.Bool("new", false, "start with an empty story")
		tutorial   = flag.Bool("tutorial", false, "start with the tutorial story")
	)
	flag.Parse()

	if err := run(*configPath, *fresh, *tutorial); err != nil {
		log.Fatal(err)
	}
}

func run(configPath string, fresh, tutorial bool) error {
	cfg, err := storyboard.LoadConfig(configPath)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stderr
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		w = f
	}
	logger := storyboard.NewLogger(cfg.Log.Level, w)
	for _, k := range cfg.Unrecognized {
		logger.Warn("unrecognized config key", "key", k)
	}

	store, err := storyboard.OpenBoltStore(cfg.Session.StorePath)
	if err != nil {
		return err
	}
	defer store.Close()

	c := storyboard.NewCanvas(storyboard.Options{
		Config: cfg,
		Store:  store,
		Logger: logger,
	})
	ctx := context.Background()
	switch {
	case fresh:
		c.NewStory(ctx)
	case tutorial:
		c.StartTutorial(ctx)
	default:
		c.Resume(ctx)
	}

	ebiten.SetWindowTitle(windowTitle)
	ebiten.SetWindowSize(cfg.Canvas.ViewWidth, cfg.Canvas.ViewHeight)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	err = ebiten.RunGame(c)
	c.Settle()
	if err != nil && !errors.Is(err, ebiten.Termination) {
		return err
	}
	return nil
}
