package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"certverify/verification-backend/internal/alerts"
	"certverify/verification-backend/internal/certificates"
	"certverify/verification-backend/pkg/workflows"
)

// OutcomeStore persists the result of one verification run atomically
type OutcomeStore interface {
	Commit(ctx context.Context, certID uuid.UUID, next certificates.Status, processedAt time.Time, raised []alerts.Alert) error
}

// GormOutcomeStore writes alerts and the certificate status in a single transaction,
// holding a row lock on the certificate so concurrent runs serialise
type GormOutcomeStore struct {
	db      *gorm.DB
	alerts  *alerts.GormRepository
	machine *workflows.StateMachine
}

func NewGormOutcomeStore(db *gorm.DB, alertRepo *alerts.GormRepository, machine *workflows.StateMachine) *GormOutcomeStore {
	return &GormOutcomeStore{db: db, alerts: alertRepo, machine: machine}
}

func (s *GormOutcomeStore) Commit(ctx context.Context, certID uuid.UUID, next certificates.Status, processedAt time.Time, raised []alerts.Alert) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cert certificates.Certificate
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id", "status").
			First(&cert, "id = ?", certID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return certificates.ErrCertificateNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock certificate: %w", err)
		}

		if err := s.machine.Transition(string(cert.Status), string(next)); err != nil {
			return err
		}

		if err := s.alerts.WithTx(tx).CreateBatch(ctx, raised); err != nil {
			return fmt.Errorf("failed to store alerts: %w", err)
		}

		res := tx.Model(&certificates.Certificate{}).
			Where("id = ?", certID).
			Updates(map[string]interface{}{"status": next, "processed_at": processedAt})
		if res.Error != nil {
			return fmt.Errorf("failed to update certificate status: %w", res.Error)
		}
		return nil
	})
}
