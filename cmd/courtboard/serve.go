package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/abrezinsky/courtboard/internal/app"
	"github.com/abrezinsky/courtboard/internal/browser"
	"github.com/abrezinsky/courtboard/internal/logger"
	"github.com/abrezinsky/courtboard/internal/services"
	"github.com/abrezinsky/courtboard/web"
)

// shortcutURLs are the pages the console shortcuts open
type shortcutURLs struct {
	Dashboard string
	Display   string
}

func newServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the scoreboard server",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "HTTP server port (overrides config)"},
			&cli.StringFlag{Name: "db", Usage: "SQLite database path (overrides config)"},
			&cli.StringFlag{Name: "adminpw", Usage: "admin password (auto-generated if not set)"},
			&cli.StringFlag{Name: "loglevel", Usage: "log level: debug, info, warn, error"},
			&cli.StringFlag{Name: "pubsub", Usage: "topic transport: gochannel or nats"},
			&cli.BoolFlag{Name: "noanimate", Usage: "show logo only, skip the rally animation"},
			&cli.BoolFlag{Name: "nokeyboard", Usage: "disable keyboard shortcuts"},
		},
		Action: serve,
	}
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("port") {
		cfg.Server.Port = c.Int("port")
	}
	if c.IsSet("db") {
		cfg.Server.DB = c.String("db")
	}
	if c.IsSet("adminpw") {
		cfg.Auth.AdminPassword = c.String("adminpw")
	}
	if c.IsSet("loglevel") {
		cfg.Server.LogLevel = c.String("loglevel")
	}
	if c.IsSet("pubsub") {
		cfg.PubSub.Driver = c.String("pubsub")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	showStartupAnimation(c.Bool("noanimate"))

	appLog := logger.NewWithLevel(logger.ParseLevel(cfg.Server.LogLevel))

	a, err := app.New(appLog, cfg, web.GetTemplatesFS(), web.GetStaticFS())
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer a.Close()

	appLog.Info("Admin password", "password", a.AdminPassword())

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	local := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	urls := shortcutURLs{Dashboard: local + "/"}
	if courts := a.Courts().All(); len(courts) > 0 {
		urls.Display = local + services.DisplayPath(courts[0].CourtID)
	}

	if !c.Bool("nokeyboard") && term.IsTerminal(int(os.Stdin.Fd())) {
		printKeyboardHelp()
		go listenForKeyboard(urls, appLog, stop)
	} else {
		fmt.Printf("\n%sKeyboard shortcuts disabled%s\n\n", yellow, reset)
	}

	return a.Run(ctx, addr)
}

// handleShortcut performs one console shortcut. It reports false when the
// server should stop.
func handleShortcut(key byte, urls shortcutURLs, appLog *logger.SlogLogger) bool {
	switch key {
	case 'a', 'A':
		openURL("court dashboard", urls.Dashboard)
	case 'd', 'D':
		openURL("overlay", urls.Display)
	case 'h', 'H':
		if appLog.IsHTTPLoggingEnabled() {
			appLog.DisableHTTPLogging()
			fmt.Printf("%sHTTP logging disabled%s\n", yellow, reset)
		} else {
			appLog.EnableHTTPLogging()
			fmt.Printf("%sHTTP logging enabled%s\n", green, reset)
		}
	case 'l', 'L':
		cycleLogLevel(appLog)
	case '?':
		printKeyboardHelp()
	case 'q', 'Q', 0x03: // Ctrl+C arrives as a byte in raw mode
		fmt.Printf("%sShutting down server...%s\n", yellow, reset)
		return false
	}
	return true
}

func openURL(what, url string) {
	if url == "" {
		return
	}
	fmt.Printf("%sOpening %s in browser...%s\n", cyan, what, reset)
	if err := browser.Open(url); err != nil {
		fmt.Printf("%sError opening browser: %v%s\n", red, err, reset)
	}
}

// runShortcuts reads single keys until a quit key or a read error.
func runShortcuts(read func([]byte) (int, error), urls shortcutURLs, appLog *logger.SlogLogger, quit context.CancelFunc) {
	buf := make([]byte, 1)
	for {
		n, err := read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue
		}
		if !handleShortcut(buf[0], urls, appLog) {
			quit()
			return
		}
	}
}
