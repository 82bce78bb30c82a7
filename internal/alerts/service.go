package alerts

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	MaxListLimit    = 500
	MaxBulkResolve  = 100
	maxExportAlerts = 10000
)

var (
	ErrAlertNotFound   = errors.New("alert not found")
	ErrAlreadyResolved = errors.New("alert is already resolved")
	ErrNotResolved     = errors.New("alert is not resolved")
	ErrInvalidLevel    = errors.New("level must be critical or warning")
	ErrTooManyAlerts   = fmt.Errorf("maximum %d alerts can be resolved at once", MaxBulkResolve)
)

// Broadcaster pushes events to live subscribers
type Broadcaster interface {
	Broadcast(event Event) error
}

// Service manages alert lifecycle and delivery
type Service struct {
	repo        Repository
	broadcaster Broadcaster
	notifier    Notifier
	digest      DigestSender
	recipients  []string
	logger      *zap.Logger
	now         func() time.Time
}

// Option configures optional delivery channels
type Option func(*Service)

func WithBroadcaster(b Broadcaster) Option { return func(s *Service) { s.broadcaster = b } }
func WithNotifier(n Notifier) Option       { return func(s *Service) { s.notifier = n } }

// WithDigest enables the periodic digest for the given recipients
func WithDigest(d DigestSender, recipients []string) Option {
	return func(s *Service) {
		s.digest = d
		s.recipients = recipients
	}
}

func NewService(repo Repository, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{repo: repo, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Alert, error) {
	if filter.Limit <= 0 || filter.Limit > MaxListLimit {
		filter.Limit = 100
	}
	if filter.Skip < 0 {
		filter.Skip = 0
	}
	if filter.Level != nil && !filter.Level.Valid() {
		return nil, ErrInvalidLevel
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Alert, error) {
	alert, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	if alert == nil {
		return nil, ErrAlertNotFound
	}
	return alert, nil
}

// Create raises a manual alert
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Alert, error) {
	if !req.Level.Valid() {
		return nil, ErrInvalidLevel
	}
	alert := New(req.CertID, strings.TrimSpace(req.Reason), req.Level)
	if err := s.repo.Create(ctx, &alert); err != nil {
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}
	s.Publish(ctx, []Alert{alert})
	return &alert, nil
}

func (s *Service) Resolve(ctx context.Context, id, by uuid.UUID) (*Alert, error) {
	alert, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if alert.Resolved {
		return nil, ErrAlreadyResolved
	}

	now := s.now().UTC()
	alert.Resolved = true
	alert.ResolvedAt = &now
	if by != uuid.Nil {
		alert.ResolvedBy = &by
	}
	if err := s.repo.Update(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to resolve alert: %w", err)
	}

	s.logger.Info("Alert resolved", zap.String("alert_id", id.String()), zap.String("resolved_by", by.String()))
	s.broadcast(EventResolved, *alert)
	return alert, nil
}

func (s *Service) Unresolve(ctx context.Context, id uuid.UUID) (*Alert, error) {
	alert, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !alert.Resolved {
		return nil, ErrNotResolved
	}

	alert.Resolved = false
	alert.ResolvedAt = nil
	alert.ResolvedBy = nil
	if err := s.repo.Update(ctx, alert); err != nil {
		return nil, fmt.Errorf("failed to unresolve alert: %w", err)
	}

	s.broadcast(EventUnresolved, *alert)
	return alert, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete alert: %w", err)
	}
	s.logger.Info("Alert deleted", zap.String("alert_id", id.String()))
	return nil
}

func (s *Service) ForCertificate(ctx context.Context, certID uuid.UUID) ([]Alert, error) {
	return s.repo.ListByCertificate(ctx, certID)
}

func (s *Service) CountForCertificate(ctx context.Context, certID uuid.UUID) (int64, error) {
	return s.repo.CountByCertificate(ctx, certID)
}

func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	summary, err := s.repo.Summary(ctx, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to summarise alerts: %w", err)
	}
	return summary, nil
}

// BulkResolve resolves each alert independently and reports the ones it skipped
func (s *Service) BulkResolve(ctx context.Context, ids []uuid.UUID, by uuid.UUID) (*BulkResolveResult, error) {
	if len(ids) > MaxBulkResolve {
		return nil, ErrTooManyAlerts
	}

	result := &BulkResolveResult{AlreadyResolved: []string{}, NotFound: []string{}}
	for _, id := range ids {
		_, err := s.Resolve(ctx, id, by)
		switch {
		case err == nil:
			result.Resolved++
		case errors.Is(err, ErrAlertNotFound):
			result.NotFound = append(result.NotFound, id.String())
		case errors.Is(err, ErrAlreadyResolved):
			result.AlreadyResolved = append(result.AlreadyResolved, id.String())
		default:
			return result, err
		}
	}
	return result, nil
}

// Export renders the filtered alerts as an XLSX workbook
func (s *Service) Export(ctx context.Context, filter ListFilter) ([]byte, error) {
	filter.Skip = 0
	filter.Limit = maxExportAlerts
	alerts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list alerts for export: %w", err)
	}
	return ExportXLSX(alerts)
}

// Publish delivers freshly committed alerts. Delivery failures are logged and never returned.
func (s *Service) Publish(ctx context.Context, alerts []Alert) {
	for _, a := range alerts {
		s.broadcast(EventRaised, a)
		if s.notifier != nil && a.Level == LevelCritical {
			if err := s.notifier.Notify(ctx, a); err != nil {
				s.logger.Warn("Failed to notify critical alert", zap.String("alert_id", a.ID.String()), zap.Error(err))
			}
		}
	}
}

func (s *Service) broadcast(eventType string, a Alert) {
	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Broadcast(Event{Type: eventType, Alert: a, Timestamp: s.now().UTC()}); err != nil {
		s.logger.Warn("Failed to broadcast alert event", zap.String("type", eventType), zap.Error(err))
	}
}

// SendDigest mails the unresolved critical alerts raised within window. It returns how many were included.
func (s *Service) SendDigest(ctx context.Context, window time.Duration) (int, error) {
	if s.digest == nil || len(s.recipients) == 0 {
		return 0, nil
	}

	now := s.now().UTC()
	alerts, err := s.repo.ListUnresolvedSince(ctx, LevelCritical, now.Add(-window))
	if err != nil {
		return 0, fmt.Errorf("failed to load alerts for digest: %w", err)
	}
	if len(alerts) == 0 {
		return 0, nil
	}

	subject, body := composeDigest(alerts, now, window)
	if err := s.digest.SendDigest(ctx, s.recipients, subject, body); err != nil {
		return 0, err
	}
	s.logger.Info("Alert digest sent", zap.Int("alerts", len(alerts)), zap.Strings("recipients", s.recipients))
	return len(alerts), nil
}

func composeDigest(alerts []Alert, now time.Time, window time.Duration) (string, string) {
	byCert := make(map[uuid.UUID][]Alert)
	for _, a := range alerts {
		byCert[a.CertID] = append(byCert[a.CertID], a)
	}
	certIDs := make([]uuid.UUID, 0, len(byCert))
	for id := range byCert {
		certIDs = append(certIDs, id)
	}
	sort.Slice(certIDs, func(i, j int) bool { return certIDs[i].String() < certIDs[j].String() })

	var b strings.Builder
	fmt.Fprintf(&b, "%d unresolved critical alerts across %d certificates since %s.\n\n",
		len(alerts), len(certIDs), now.Add(-window).Format(time.RFC1123))
	for _, id := range certIDs {
		fmt.Fprintf(&b, "Certificate %s\n", id)
		for _, a := range byCert[id] {
			fmt.Fprintf(&b, "  - %s  %s\n", a.FlaggedAt.Format("2006-01-02 15:04"), a.Reason)
		}
	}

	subject := fmt.Sprintf("Certificate verification digest: %d critical alerts", len(alerts))
	return subject, b.String()
}
