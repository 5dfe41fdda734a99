package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/abrezinsky/courtboard/internal/court"
	"github.com/abrezinsky/courtboard/internal/display"
	"github.com/abrezinsky/courtboard/internal/logger"
	"github.com/abrezinsky/courtboard/internal/match"
	"github.com/abrezinsky/courtboard/internal/propagation"
	"github.com/abrezinsky/courtboard/pkg/scoreboardapi"
)

func newWatchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "render a court's scoreboard in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: "http://localhost:8000", Usage: "base URL of the scoreboard endpoint"},
			&cli.StringFlag{Name: "court", Value: court.DefaultCourtID, Usage: "court id"},
			&cli.DurationFlag{Name: "interval", Usage: "poll interval (overrides config)"},
			&cli.StringFlag{Name: "nats", Usage: "NATS URL for instant updates and timeout flashes", EnvVars: []string{"NATS_URL"}},
			&cli.StringFlag{Name: "loglevel", Value: "warn", Usage: "log level: debug, info, warn, error"},
		},
		Action: watch,
	}
}

func watch(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	interval := cfg.Display.PollInterval
	if c.IsSet("interval") {
		interval = c.Duration("interval")
	}

	log := logger.NewWithWriter(os.Stderr, logger.ParseLevel(c.String("loglevel")))
	courts := court.NewRegistry(cfg.CourtEntries())
	id := courts.Resolve(c.String("court"))

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	renderer := display.NewTextRenderer(os.Stdout, term.IsTerminal(int(os.Stdout.Fd())))
	surface := display.NewSurface(ctx, id, renderer, log, display.WithTimeoutFlash(cfg.Display.TimeoutFlash))
	defer surface.Close()

	client := scoreboardapi.NewHTTPClient(c.String("server"), cfg.Remote.Timeout, log)
	display.NewPoller(client, surface, interval, log, nil).Start()

	if url := c.String("nats"); url != "" {
		transport, err := propagation.NewNATSTransport(url, log)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		topic := propagation.NewTopic(transport, cfg.PubSub.Topic, func(string) match.Variant { return id.Variant }, log, nil)
		defer topic.Close()
		if err := surface.AttachTopic(topic); err != nil {
			return fmt.Errorf("failed to subscribe to %s: %w", topic.Name(), err)
		}
	}

	<-ctx.Done()
	return nil
}
