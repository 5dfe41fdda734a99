package handlers

import (
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/abrezinsky/courtboard/internal/auth"
	"github.com/abrezinsky/courtboard/internal/metrics"
	"github.com/abrezinsky/courtboard/internal/models"
	"github.com/abrezinsky/courtboard/internal/services"
	"github.com/abrezinsky/courtboard/internal/websocket"
)

// NewStaticServer creates a static file server from an fs.FS
func NewStaticServer(staticFS fs.FS) http.Handler {
	return http.FileServer(http.FS(staticFS))
}

// Templates holds all parsed HTML templates
type Templates struct {
	Dashboard *template.Template
	Login     *template.Template
	Control   *template.Template
	Display   *template.Template
}

// Services groups the services the handlers call into
type Services struct {
	Control  services.ControlServicer
	Courts   services.CourtServicer
	Publish  services.PublishServicer
	History  services.HistoryServicer
	Settings services.SettingsServicer
}

// DisplayOptions are handed to the overlay page's script
type DisplayOptions struct {
	PollInterval time.Duration
	TimeoutFlash time.Duration
}

// DefaultDisplayOptions matches the config defaults
var DefaultDisplayOptions = DisplayOptions{PollInterval: time.Second, TimeoutFlash: 5 * time.Second}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Control      services.ControlServicer
	Courts       services.CourtServicer
	Publish      services.PublishServicer
	History      services.HistoryServicer
	Settings     services.SettingsServicer
	Auth         *auth.Auth
	Hub          *websocket.Hub
	Metrics      *metrics.Metrics
	Limiter      *IPRateLimiter
	Display      DisplayOptions
	Log          HTTPLogger
	templates    *Templates
	staticServer http.Handler
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
}

// New creates a new Handlers instance with all dependencies
func New(
	svc Services,
	templatesFS fs.FS,
	staticServer http.Handler,
	courtAuth *auth.Auth,
	hub *websocket.Hub,
	m *metrics.Metrics,
	limiter *IPRateLimiter,
	log HTTPLogger,
) (*Handlers, error) {
	templates, err := loadTemplates(templatesFS)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	h := fromServices(svc, courtAuth)
	h.Hub = hub
	h.Metrics = m
	h.Limiter = limiter
	h.Log = log
	h.templates = templates
	h.staticServer = staticServer
	return h, nil
}

func fromServices(svc Services, courtAuth *auth.Auth) *Handlers {
	return &Handlers{
		Control:  svc.Control,
		Courts:   svc.Courts,
		Publish:  svc.Publish,
		History:  svc.History,
		Settings: svc.Settings,
		Auth:     courtAuth,
		Display:  DefaultDisplayOptions,
		Log:      NoopHTTPLogger{},
	}
}

// NoopHTTPLogger is a test logger that always returns false for HTTP logging
type NoopHTTPLogger struct{}

func (NoopHTTPLogger) IsHTTPLoggingEnabled() bool { return false }

// NewForTesting creates a Handlers instance without loading templates (for testing API endpoints)
func NewForTesting(svc Services, courtAuth *auth.Auth) *Handlers {
	return fromServices(svc, courtAuth)
}

// loadTemplates parses all templates once at startup
func loadTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{}
	var err error

	if t.Dashboard, err = template.New("dashboard.html").Funcs(templateFuncs).ParseFS(templatesFS, "layout.html", "dashboard.html"); err != nil {
		return nil, fmt.Errorf("dashboard template: %w", err)
	}
	if t.Login, err = template.New("login.html").Funcs(templateFuncs).ParseFS(templatesFS, "layout.html", "login.html"); err != nil {
		return nil, fmt.Errorf("login template: %w", err)
	}
	if t.Control, err = template.New("control.html").Funcs(templateFuncs).ParseFS(templatesFS, "layout.html", "control.html"); err != nil {
		return nil, fmt.Errorf("control template: %w", err)
	}
	if t.Display, err = template.New("display.html").Funcs(templateFuncs).ParseFS(templatesFS, "display.html"); err != nil {
		return nil, fmt.Errorf("display template: %w", err)
	}

	return t, nil
}

var templateFuncs = template.FuncMap{
	"millis": func(d time.Duration) int64 { return d.Milliseconds() },
	"slot": func(i int) int { return i + 1 },
	"sides": func() []string {
		return []string{string(models.SideLeft), string(models.SideRight)}
	},
}
