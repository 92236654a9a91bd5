package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/viper"

	"github.com/owlbox/owlcap/internal/annotate"
	"github.com/owlbox/owlcap/internal/camera"
	"github.com/owlbox/owlcap/internal/config"
	"github.com/owlbox/owlcap/internal/mirror"
	"github.com/owlbox/owlcap/internal/session"
	"github.com/owlbox/owlcap/internal/trigger"
	"github.com/owlbox/owlcap/pkg/logger"
)

// runSession wires up a capture session from the effective config and
// runs it until it completes or the process receives SIGINT/SIGTERM.
func runSession(mode session.Mode) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if cfg.LogLevel != "" {
		logger.GetLogger().SetLogLevel(cfg.LogLevel)
	}
	if debug {
		logger.GetLogger().SetLogLevel("debug")
	}

	driver, err := camera.NewStillCommand(camera.Settings{
		Width:  cfg.Capture.Width,
		Height: cfg.Capture.Height,
	})
	if err != nil {
		return err
	}

	annotator := annotate.New(cfg.Annotate.Enabled, annotate.Options{
		FontPath: cfg.Annotate.FontPath,
		Rotate:   cfg.Capture.Rotate,
	})

	var publisher mirror.Publisher
	if cfg.Remote.Enabled {
		m, err := mirror.New(cfg.Remote.Target())
		if err != nil {
			return err
		}
		publisher = m
	}

	var events trigger.Source
	if mode == session.ModeButton {
		button, err := trigger.NewGPIOButton(cfg.Button.Pin, cfg.Button.Debounce)
		if err != nil {
			return err
		}
		events = button
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	color.Blue("Capturing to %s (%s mode)", cfg.Capture.OutDir, mode)
	return session.New(cfg, mode, driver, annotator, publisher, events).Run(ctx)
}
