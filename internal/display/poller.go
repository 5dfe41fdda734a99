package display

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/abrezinsky/courtboard/internal/logger"
	"github.com/abrezinsky/courtboard/internal/match"
	"github.com/abrezinsky/courtboard/internal/metrics"
	"github.com/abrezinsky/courtboard/pkg/scoreboardapi"
)

// DefaultPollInterval is the fixed remote polling cadence.
const DefaultPollInterval = time.Second

// Fetcher reads a court's last posted payload. scoreboardapi.Client satisfies it.
type Fetcher interface {
	Get(ctx context.Context, courtID string) ([]byte, error)
}

// Poller keeps a surface current from the remote endpoint. Failed fetches are
// retried on the next tick with no backoff.
type Poller struct {
	fetcher  Fetcher
	surface  *Surface
	interval time.Duration
	log      logger.Logger
	metrics  *metrics.Metrics

	failing bool
}

func NewPoller(f Fetcher, s *Surface, interval time.Duration, log logger.Logger, m *metrics.Metrics) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		fetcher:  f,
		surface:  s,
		interval: interval,
		log:      log.With("court_id", s.Court().CourtID),
		metrics:  m,
	}
}

// Start polls once immediately, then every interval until the surface closes.
func (p *Poller) Start() {
	p.surface.Guard().Go(func(ctx context.Context) {
		p.Poll(ctx)
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Poll(ctx)
			}
		}
	})
}

// Poll performs one fetch and applies the result if it is valid and new.
// It reports whether a frame was drawn.
func (p *Poller) Poll(ctx context.Context) bool {
	id := p.surface.Court()
	body, err := p.fetcher.Get(ctx, id.CourtID)
	if err != nil {
		if stderrors.Is(err, scoreboardapi.ErrNotFound) {
			p.metrics.PollFetch(metrics.ResultNotFound)
			p.log.Debug("Nothing posted for court yet")
			return false
		}
		p.metrics.PollFetch(metrics.ResultError)
		if p.failing {
			p.log.Debug("Poll failed", "error", err)
		} else {
			p.log.Warn("Poll failed, will retry", "error", err)
			p.failing = true
		}
		return false
	}
	if p.failing {
		p.log.Info("Poll recovered")
		p.failing = false
	}

	state, err := match.Decode(body, id.Variant)
	if err != nil {
		p.metrics.PollFetch(metrics.ResultInvalid)
		p.log.Warn("Ignoring invalid polled state", "error", err)
		return false
	}
	p.metrics.PollFetch(metrics.ResultOK)
	return p.surface.Apply(state)
}
