package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Pinger is implemented by dependencies the monitor probes.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Monitor probes the identity service and the mail relay on a cron
// schedule and caches the result for the health endpoint.
type Monitor struct {
	identity Pinger
	mail     Pinger

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	cron     *cron.Cron
	logger   *zap.Logger
}

func New(identity, mail Pinger, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval < time.Second {
		interval = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Monitor{
		identity: identity,
		mail:     mail,
		interval: interval,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger,
	}

	schedule := fmt.Sprintf("@every %ds", int(interval.Seconds()))
	if _, err := m.cron.AddFunc(schedule, m.Refresh); err != nil {
		logger.Error("invalid monitor schedule", zap.String("schedule", schedule), zap.Error(err))
	}
	return m
}

// Start runs a first probe synchronously and then starts the schedule.
func (m *Monitor) Start() {
	m.Refresh()
	m.cron.Start()
}

// Stop halts the schedule and waits for a running probe to finish or ctx to end.
func (m *Monitor) Stop(ctx context.Context) {
	stopCtx := m.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Refresh probes every dependency once.
func (m *Monitor) Refresh() {
	status := Status{
		Identity:  m.probe("identity", m.identity),
		Mail:      m.probe("mail", m.mail),
		LastCheck: time.Now(),
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()
}

func (m *Monitor) probe(name string, p Pinger) bool {
	if p == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := p.Ping(ctx); err != nil {
		m.logger.Warn("dependency unreachable", zap.String("dependency", name), zap.Error(err))
		return false
	}
	return true
}
