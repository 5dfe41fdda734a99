package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/abrezinsky/courtboard/internal/auth"
	"github.com/abrezinsky/courtboard/internal/config"
	"github.com/abrezinsky/courtboard/internal/court"
	"github.com/abrezinsky/courtboard/internal/handlers"
	"github.com/abrezinsky/courtboard/internal/logger"
	"github.com/abrezinsky/courtboard/internal/match"
	"github.com/abrezinsky/courtboard/internal/metrics"
	"github.com/abrezinsky/courtboard/internal/persistence"
	"github.com/abrezinsky/courtboard/internal/propagation"
	"github.com/abrezinsky/courtboard/internal/repository"
	"github.com/abrezinsky/courtboard/internal/services"
	"github.com/abrezinsky/courtboard/internal/websocket"
	"github.com/abrezinsky/courtboard/pkg/scoreboardapi"
)

const shutdownTimeout = 10 * time.Second

// App holds all application dependencies
type App struct {
	log      logger.Logger
	cfg      *config.Config
	handlers *handlers.Handlers
	repo     *repository.Repository
	courts   *court.Registry
	store    *persistence.Store
	topic    *propagation.Topic
	hub      *websocket.Hub

	adminPassword string
	hubDone       chan error
	cancel        context.CancelFunc
	closeOnce     sync.Once
}

// New creates and initializes a new application instance. The websocket hub
// and its topic subscription run until Close.
func New(log logger.Logger, cfg *config.Config, templatesFS, staticFS fs.FS) (*App, error) {
	repo, err := repository.New(cfg.Server.DB)
	if err != nil {
		return nil, err
	}

	courts := court.NewRegistry(cfg.CourtEntries())
	m := metrics.New(prometheus.NewRegistry())
	bus := propagation.NewBus(log, m)

	transport, err := newTransport(cfg.PubSub, log)
	if err != nil {
		repo.Close()
		return nil, err
	}
	topic := propagation.NewTopic(transport, cfg.PubSub.Topic, variantsOf(courts), log, m)

	// Writes go to this server's own endpoint unless another one is configured
	publishService := services.NewPublishService(log, repo)
	var remote persistence.Remote = publishService
	if cfg.Remote.BaseURL != "" {
		remote = scoreboardapi.NewHTTPClient(cfg.Remote.BaseURL, cfg.Remote.Timeout, log)
	}

	store := persistence.NewStore(log, repo,
		persistence.WithNotifier(bus),
		persistence.WithRemote(remote),
		persistence.WithMetrics(m),
		persistence.WithForwardTimeout(cfg.Remote.Timeout),
	)

	// Initialize services
	settingsService := services.NewSettingsService(log, repo)
	controlService := services.NewControlService(log, store, courts,
		services.WithPublisher(topic),
		services.WithMetrics(m),
	)
	courtService := services.NewCourtService(log, repo, store, courts, settingsService)
	historyService := services.NewHistoryService(log, controlService)

	ctx, cancel := context.WithCancel(context.Background())

	// Initialize WebSocket hub
	hub := websocket.New(log, courts, m)
	hubDone := make(chan error, 1)
	go func() { hubDone <- hub.Run(ctx) }()
	hub.AttachBus(bus)
	if err := hub.AttachTopic(ctx, topic); err != nil {
		cancel()
		store.Close()
		topic.Close()
		repo.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", topic.Name(), err)
	}
	settingsService.SetBroadcaster(hub)

	adminPassword := cfg.Auth.AdminPassword
	if adminPassword == "" {
		adminPassword = auth.GeneratePassword()
	}
	courtAuth := auth.New(courts, adminPassword, cfg.Auth.Secret, cfg.Auth.SessionTTL)

	h, err := handlers.New(
		handlers.Services{
			Control:  controlService,
			Courts:   courtService,
			Publish:  publishService,
			History:  historyService,
			Settings: settingsService,
		},
		templatesFS,
		handlers.NewStaticServer(staticFS),
		courtAuth,
		hub,
		m,
		handlers.NewIPRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		httpLogger(log),
	)
	if err != nil {
		cancel()
		store.Close()
		topic.Close()
		repo.Close()
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}
	h.Display = handlers.DisplayOptions{
		PollInterval: cfg.Display.PollInterval,
		TimeoutFlash: cfg.Display.TimeoutFlash,
	}

	return &App{
		log:           log,
		cfg:           cfg,
		handlers:      h,
		repo:          repo,
		courts:        courts,
		store:         store,
		topic:         topic,
		hub:           hub,
		adminPassword: adminPassword,
		hubDone:       hubDone,
		cancel:        cancel,
	}, nil
}

func newTransport(cfg config.PubSubConfig, log logger.Logger) (propagation.Transport, error) {
	switch cfg.Driver {
	case config.DriverNATS:
		t, err := propagation.NewNATSTransport(cfg.NATSURL, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		return t, nil
	case config.DriverGoChannel, "":
		return propagation.NewChannelTransport(log), nil
	default:
		return nil, fmt.Errorf("unknown pubsub driver %q", cfg.Driver)
	}
}

func variantsOf(courts *court.Registry) propagation.VariantFunc {
	return func(courtID string) match.Variant {
		return courts.Resolve(courtID).Variant
	}
}

// httpLogger keeps request logging switchable from the console when the
// logger supports it.
func httpLogger(log logger.Logger) handlers.HTTPLogger {
	if l, ok := log.(handlers.HTTPLogger); ok {
		return l
	}
	return handlers.NoopHTTPLogger{}
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Courts returns the configured courts
func (a *App) Courts() *court.Registry {
	return a.courts
}

// AdminPassword returns the configured or generated admin password
func (a *App) AdminPassword() string {
	return a.adminPassword
}

// Close performs graceful shutdown of app resources. Pending remote forwards
// are drained before the database closes.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.cancel()
		<-a.hubDone
		a.store.Close()
		if err := a.topic.Close(); err != nil {
			a.log.Warn("Failed to close topic", "error", err)
		}
		if err := a.repo.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	})
}

// Run serves HTTP on addr until ctx ends, then shuts the server down.
func (a *App) Run(ctx context.Context, addr string) error {
	baseURL := a.cfg.Server.BaseURL
	if baseURL == "" {
		ip := getPreferredIP(realNetworkProvider{})
		baseURL = fmt.Sprintf("http://%s%s", ip, addr)
	}
	a.setDefaultBaseURL(ctx, baseURL)

	srv := &http.Server{
		Addr:              addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("Server starting", "url", baseURL, "courts", len(a.courts.All()))
		for _, id := range a.courts.All() {
			a.log.Debug("Court", "court_id", id.CourtID, "display", baseURL+services.DisplayPath(id.CourtID))
		}
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.log.Info("Server stopping")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// setDefaultBaseURL sets the base URL setting if not already configured
// or if current value uses localhost (which isn't useful for QR codes).
// A base URL from the config always wins.
func (a *App) setDefaultBaseURL(ctx context.Context, baseURL string) {
	existing, _ := a.repo.GetSetting(ctx, services.SettingBaseURL)

	needsUpdate := existing == "" || strings.Contains(existing, "localhost") ||
		(a.cfg.Server.BaseURL != "" && existing != baseURL)
	if needsUpdate {
		if err := a.repo.SetSetting(ctx, services.SettingBaseURL, baseURL); err != nil {
			a.log.Warn("Failed to set default base_url", "error", err)
		} else {
			a.log.Info("Default base URL set", "url", baseURL)
		}
	}
}

// networkInterface wraps net.Interface for testing
type networkInterface interface {
	Flags() net.Flags
	Addrs() ([]net.Addr, error)
}

// realInterface wraps a real net.Interface
type realInterface struct {
	iface net.Interface
}

func (r realInterface) Flags() net.Flags {
	return r.iface.Flags
}

func (r realInterface) Addrs() ([]net.Addr, error) {
	return r.iface.Addrs()
}

// networkProvider is an interface for getting network interfaces (for testing)
type networkProvider interface {
	Interfaces() ([]networkInterface, error)
}

type realNetworkProvider struct{}

func (realNetworkProvider) Interfaces() ([]networkInterface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	result := make([]networkInterface, len(ifaces))
	for i, iface := range ifaces {
		result[i] = realInterface{iface: iface}
	}
	return result, nil
}

// getPreferredIP returns the address displays on the venue LAN should use.
// Private ranges win over other non-loopback IPv4 addresses; localhost is the
// last resort.
func getPreferredIP(provider networkProvider) string {
	ifaces, err := provider.Interfaces()
	if err != nil {
		return "localhost"
	}

	var candidates []net.IP
	for _, iface := range ifaces {
		flags := iface.Flags()
		if flags&net.FlagUp == 0 || flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			var ip net.IP
			switch v := addr.(type) {
			case *net.IPNet:
				ip = v.IP
			case *net.IPAddr:
				ip = v.IP
			}
			if ip == nil || ip.To4() == nil || ip.IsLoopback() {
				continue
			}
			candidates = append(candidates, ip)
		}
	}

	for _, ip := range candidates {
		s := ip.String()
		if strings.HasPrefix(s, "192.168.") || strings.HasPrefix(s, "10.") || isPrivate172(ip) {
			return s
		}
	}
	if len(candidates) > 0 {
		return candidates[0].String()
	}
	return "localhost"
}

// isPrivate172 checks if IP is in 172.16.0.0/12 range
func isPrivate172(ip net.IP) bool {
	if ip4 := ip.To4(); ip4 != nil {
		return ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31
	}
	return false
}
