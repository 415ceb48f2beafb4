// Package connectivity answers whether the remote store is plausibly
// reachable right now. The oracle is injected everywhere it is needed so a
// fake can stand in during tests; nothing reads ambient network state.
package connectivity

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/yourmoney-sync-agent/internal/config"
)

// Oracle reports cached reachability and notifies subscribers on changes.
// Reachable must be cheap and non-blocking; it reads the last probe result.
type Oracle interface {
	Reachable(ctx context.Context) bool
	Subscribe() <-chan bool
}

// Dialer abstracts the network probe for tests
type Dialer func(network, address string, timeout time.Duration) (net.Conn, error)

// Probe is an Oracle backed by a periodic TCP dial against the remote
// store's host. On probe failure it errs toward reporting reachable: a
// wrong "online" just degrades to buffering when the real call fails,
// while a wrong "offline" would buffer needlessly.
type Probe struct {
	address  string
	timeout  time.Duration
	interval time.Duration
	dial     Dialer
	logger   *slog.Logger

	mu          sync.Mutex
	reachable   bool
	subscribers []chan bool
}

// NewProbe creates a probe oracle. The initial state is reachable, matching
// the optimism bias: the first real remote call settles the question.
func NewProbe(logger *slog.Logger, cfg *config.ConnectivityConfig) *Probe {
	return &Probe{
		address:   cfg.ProbeAddress,
		timeout:   cfg.ProbeTimeout,
		interval:  cfg.ProbeInterval,
		dial:      net.DialTimeout,
		logger:    logger,
		reachable: true,
	}
}

// Reachable returns the cached reachability state without blocking.
func (p *Probe) Reachable(_ context.Context) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reachable
}

// Subscribe returns a channel receiving the new state on each transition.
// Sends are non-blocking; a slow subscriber misses intermediate flips but
// always eventually observes the latest state on the next transition.
func (p *Probe) Subscribe() <-chan bool {
	ch := make(chan bool, 1)
	p.mu.Lock()
	p.subscribers = append(p.subscribers, ch)
	p.mu.Unlock()
	return ch
}

// Start probes on a ticker until the context is canceled. An immediate
// first probe runs before the ticker so startup state is fresh.
func (p *Probe) Start(ctx context.Context) {
	p.logger.Info("Starting connectivity probe",
		"address", p.address,
		"interval", p.interval.String(),
	)

	p.CheckNow(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Connectivity probe stopping due to context cancellation.")
			return
		case <-ticker.C:
			p.CheckNow(ctx)
		}
	}
}

// CheckNow runs a single probe and updates the cached state.
func (p *Probe) CheckNow(_ context.Context) bool {
	reachable := p.probe()
	p.setReachable(reachable)
	return reachable
}

func (p *Probe) probe() bool {
	if p.address == "" || p.dial == nil {
		// Cannot probe at all: stay optimistic. A wrong answer here only
		// costs one failed remote call before the gateway buffers.
		return true
	}

	conn, err := p.dial("tcp", p.address, p.timeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func (p *Probe) setReachable(reachable bool) {
	p.mu.Lock()
	changed := p.reachable != reachable
	p.reachable = reachable
	subscribers := p.subscribers
	p.mu.Unlock()

	if !changed {
		return
	}

	p.logger.Info("Connectivity state changed", "reachable", reachable)

	for _, ch := range subscribers {
		select {
		case ch <- reachable:
		default:
		}
	}
}
