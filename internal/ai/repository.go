package ai

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Save(ctx context.Context, p *Prediction) error
	Latest(ctx context.Context, certID uuid.UUID) (*Prediction, error)
	ListForCertificate(ctx context.Context, certID uuid.UUID) ([]Prediction, error)
}

type GormRepository struct {
	db *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

func (r *GormRepository) Save(ctx context.Context, p *Prediction) error {
	return r.db.WithContext(ctx).Create(p).Error
}

// Latest returns nil when the certificate has no prediction
func (r *GormRepository) Latest(ctx context.Context, certID uuid.UUID) (*Prediction, error) {
	var p Prediction
	err := r.db.WithContext(ctx).
		Where("cert_id = ?", certID).
		Order("predicted_at DESC").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepository) ListForCertificate(ctx context.Context, certID uuid.UUID) ([]Prediction, error) {
	var predictions []Prediction
	err := r.db.WithContext(ctx).
		Where("cert_id = ?", certID).
		Order("predicted_at DESC").
		Find(&predictions).Error
	return predictions, err
}
