package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// JobFunc is a unit of scheduled work
type JobFunc func(ctx context.Context) error

// Manager runs named jobs on cron schedules (six fields, seconds first)
type Manager struct {
	cron    *cron.Cron
	jobs    map[string]cron.EntryID
	timeout time.Duration
	logger  *zap.Logger
	mu      sync.RWMutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewManager(logger *zap.Logger, jobTimeout time.Duration) *Manager {
	if jobTimeout <= 0 {
		jobTimeout = 5 * time.Minute
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		jobs:    make(map[string]cron.EntryID),
		timeout: jobTimeout,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Register schedules job under name, replacing any job already registered with that name
func (m *Manager) Register(name, spec string, job JobFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, exists := m.jobs[name]; exists {
		m.cron.Remove(id)
	}

	id, err := m.cron.AddFunc(spec, func() { m.run(name, job) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", spec, name, err)
	}
	m.jobs[name] = id
	m.logger.Info("Scheduled job registered", zap.String("job", name), zap.String("schedule", spec))
	return nil
}

func (m *Manager) run(name string, job JobFunc) {
	ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		m.logger.Error("Scheduled job failed", zap.String("job", name), zap.Error(err))
		return
	}
	m.logger.Debug("Scheduled job completed", zap.String("job", name), zap.Duration("took", time.Since(start)))
}

// NextRun reports when the named job fires next
func (m *Manager) NextRun(name string) (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, exists := m.jobs[name]
	if !exists {
		return time.Time{}, false
	}
	return m.cron.Entry(id).Next, true
}

func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return fmt.Errorf("scheduler already running")
	}
	m.running = true
	m.cron.Start()
	m.logger.Info("Scheduler started", zap.Int("jobs", len(m.jobs)))
	return nil
}

// Stop cancels running jobs and waits for them to return
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.cancel()
	<-m.cron.Stop().Done()
	m.running = false
	m.logger.Info("Scheduler stopped")
}
