package loader

import (
	"context"
	"strings"
	"sync"

	"github.com/robfig/cron/v3"

	"incidentdash/config"
	"incidentdash/core/utils"
)

// Scheduler reloads the configured CSV on a cron schedule.
type Scheduler struct {
	cfg    config.LoaderConfig
	loader *Loader
	logger *utils.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	running bool
}

func NewScheduler(cfg config.LoaderConfig, l *Loader, logger *utils.Logger) *Scheduler {
	return &Scheduler{cfg: cfg, loader: l, logger: logger}
}

func (s *Scheduler) enabled() bool {
	return s != nil && s.loader != nil &&
		strings.TrimSpace(s.cfg.ReloadSchedule) != "" && strings.TrimSpace(s.cfg.CSVPath) != ""
}

func (s *Scheduler) StartWithContext(ctx context.Context) error {
	if !s.enabled() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New()
	if _, err := c.AddFunc(s.cfg.ReloadSchedule, func() { s.RunOnce(runCtx) }); err != nil {
		cancel()
		return err
	}
	c.Start()
	s.cron = c
	s.cancel = cancel
	s.running = true
	s.logger.Printf("reload scheduled %q for %s", s.cfg.ReloadSchedule, s.cfg.CSVPath)
	return nil
}

// RunOnce performs one reload; failures are logged and recorded by the loader.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	_, _ = s.loader.Load(ctx, s.cfg.CSVPath)
}

// StopWithContext stops the schedule and waits for a running reload, or for ctx.
func (s *Scheduler) StopWithContext(ctx context.Context) error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	c, cancel, wasRunning := s.cron, s.cancel, s.running
	s.cron, s.cancel, s.running = nil, nil, false
	s.mu.Unlock()
	if !wasRunning {
		return nil
	}
	cancel()
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
