package alerts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, alert *Alert) error
	CreateBatch(ctx context.Context, alerts []Alert) error
	GetByID(ctx context.Context, id uuid.UUID) (*Alert, error)
	List(ctx context.Context, filter ListFilter) ([]Alert, error)
	ListByCertificate(ctx context.Context, certID uuid.UUID) ([]Alert, error)
	ListUnresolvedSince(ctx context.Context, level Level, since time.Time) ([]Alert, error)
	CountByCertificate(ctx context.Context, certID uuid.UUID) (int64, error)
	Update(ctx context.Context, alert *Alert) error
	Delete(ctx context.Context, id uuid.UUID) error
	Summary(ctx context.Context, now time.Time) (*Summary, error)
}

// GormRepository stores alerts through gorm
type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// WithTx returns a repository bound to an open transaction
func (r *GormRepository) WithTx(tx *gorm.DB) *GormRepository {
	return &GormRepository{db: tx}
}

func (r *GormRepository) Create(ctx context.Context, alert *Alert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

// CreateBatch inserts all alerts in one statement
func (r *GormRepository) CreateBatch(ctx context.Context, alerts []Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&alerts).Error
}

func (r *GormRepository) GetByID(ctx context.Context, id uuid.UUID) (*Alert, error) {
	var alert Alert
	err := r.db.WithContext(ctx).First(&alert, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (r *GormRepository) List(ctx context.Context, filter ListFilter) ([]Alert, error) {
	query := r.db.WithContext(ctx).Model(&Alert{})
	if filter.Level != nil {
		query = query.Where("level = ?", *filter.Level)
	}
	if filter.Resolved != nil {
		query = query.Where("resolved = ?", *filter.Resolved)
	}

	alerts := []Alert{}
	err := query.Order("flagged_at DESC").Offset(filter.Skip).Limit(filter.Limit).Find(&alerts).Error
	return alerts, err
}

func (r *GormRepository) ListByCertificate(ctx context.Context, certID uuid.UUID) ([]Alert, error) {
	alerts := []Alert{}
	err := r.db.WithContext(ctx).Where("cert_id = ?", certID).Order("flagged_at DESC").Find(&alerts).Error
	return alerts, err
}

func (r *GormRepository) ListUnresolvedSince(ctx context.Context, level Level, since time.Time) ([]Alert, error) {
	alerts := []Alert{}
	err := r.db.WithContext(ctx).
		Where("level = ? AND resolved = ? AND flagged_at >= ?", level, false, since).
		Order("flagged_at ASC").
		Find(&alerts).Error
	return alerts, err
}

func (r *GormRepository) CountByCertificate(ctx context.Context, certID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Alert{}).Where("cert_id = ?", certID).Count(&n).Error
	return n, err
}

func (r *GormRepository) Update(ctx context.Context, alert *Alert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}

func (r *GormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&Alert{}, "id = ?", id).Error
}

func (r *GormRepository) Summary(ctx context.Context, now time.Time) (*Summary, error) {
	var s Summary
	err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total_alerts,
			COUNT(*) FILTER (WHERE NOT resolved) AS unresolved_alerts,
			COUNT(*) FILTER (WHERE level = 'critical') AS critical_alerts,
			COUNT(*) FILTER (WHERE level = 'warning') AS warning_alerts,
			COUNT(*) FILTER (WHERE flagged_at >= ?) AS alerts_last24h,
			COUNT(*) FILTER (WHERE flagged_at >= ?) AS alerts_last7d
		FROM alerts`, now.Add(-24*time.Hour), now.Add(-7*24*time.Hour)).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	if s.TotalAlerts > 0 {
		s.ResolutionRate = float64(s.TotalAlerts-s.UnresolvedAlerts) / float64(s.TotalAlerts)
	}
	return &s, nil
}
