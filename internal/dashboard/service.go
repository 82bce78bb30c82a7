package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	MaxTrendDays     = 365
	maxRecentAlerts  = 100
	activeUserWindow = 30 * 24 * time.Hour
)

var (
	ErrInvalidDays  = fmt.Errorf("days must be between 1 and %d", MaxTrendDays)
	ErrInvalidLevel = errors.New("level must be critical or warning")
)

// Service serves dashboard aggregates, caching each answer for the configured TTL
type Service struct {
	repo   Repository
	cache  *gocache.Cache
	logger *zap.Logger
	now    func() time.Time
}

func NewService(repo Repository, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Service{
		repo:   repo,
		cache:  gocache.New(ttl, 2*ttl),
		logger: logger,
		now:    time.Now,
	}
}

// cached returns the value stored under key or loads and stores it
func cached[T any](s *Service, key string, load func() (T, error)) (T, error) {
	if v, found := s.cache.Get(key); found {
		if typed, ok := v.(T); ok {
			return typed, nil
		}
	}
	v, err := load()
	if err != nil {
		var zero T
		return zero, err
	}
	s.cache.SetDefault(key, v)
	return v, nil
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return cached(s, "stats", func() (*Stats, error) { return s.repo.Stats(ctx) })
}

func (s *Service) Trends(ctx context.Context, days int) ([]Trend, error) {
	if days < 1 || days > MaxTrendDays {
		return nil, ErrInvalidDays
	}
	today := s.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))
	return cached(s, fmt.Sprintf("trends:%s:%d", today.Format("2006-01-02"), days), func() ([]Trend, error) {
		return s.repo.Trends(ctx, since, days)
	})
}

func (s *Service) Institutions(ctx context.Context) ([]InstitutionStats, error) {
	return cached(s, "institutions", func() ([]InstitutionStats, error) { return s.repo.Institutions(ctx) })
}

// RecentAlerts is never cached so resolutions show up immediately
func (s *Service) RecentAlerts(ctx context.Context, limit int, level string) ([]RecentAlert, error) {
	if limit <= 0 || limit > maxRecentAlerts {
		limit = 10
	}
	if level != "" && level != "critical" && level != "warning" {
		return nil, ErrInvalidLevel
	}
	return s.repo.RecentAlerts(ctx, limit, level)
}

func (s *Service) AIStats(ctx context.Context) (*AIStats, error) {
	return cached(s, "ai", func() (*AIStats, error) { return s.repo.AIStats(ctx) })
}

func (s *Service) UserStats(ctx context.Context) (*UserStats, error) {
	return cached(s, "users", func() (*UserStats, error) {
		return s.repo.UserStats(ctx, s.now().UTC().Add(-activeUserWindow))
	})
}

// Invalidate drops every cached aggregate
func (s *Service) Invalidate() {
	s.cache.Flush()
	s.logger.Debug("Dashboard cache flushed")
}
