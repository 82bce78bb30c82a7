package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"certverify/verification-backend/internal/alerts"
	"certverify/verification-backend/internal/certificates"
	"certverify/verification-backend/pkg/workflows"
)

const (
	lockQuery   = `SELECT .* FROM "certificates" WHERE id = \$1 .*FOR UPDATE`
	insertAlert = `INSERT INTO "alerts"`
	updateCert  = `UPDATE "certificates" SET`
)

func newOutcomeStore(t *testing.T) (*GormOutcomeStore, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: gormlogger.Discard,
	})
	require.NoError(t, err)

	return NewGormOutcomeStore(db, alerts.NewGormRepository(db), workflows.NewStateMachine()), mock
}

func lockedCertificate(id uuid.UUID, status certificates.Status) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "status"}).AddRow(id.String(), string(status))
}

func raisedAlerts(certID uuid.UUID) []alerts.Alert {
	return []alerts.Alert{
		alerts.New(certID, reasonVerificationFailed, alerts.LevelCritical),
		alerts.New(certID, "low confidence score: 0.00", alerts.LevelWarning),
	}
}

func TestGormOutcomeStore_Commit(t *testing.T) {
	store, mock := newOutcomeStore(t)
	certID := uuid.New()
	raised := raisedAlerts(certID)

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WillReturnRows(lockedCertificate(certID, certificates.StatusPending))
	mock.ExpectQuery(insertAlert).WillReturnRows(sqlmock.NewRows([]string{"id"}).
		AddRow(raised[0].ID.String()).
		AddRow(raised[1].ID.String()))
	mock.ExpectExec(updateCert).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.Commit(context.Background(), certID, certificates.StatusForged, time.Now(), raised)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutcomeStore_AlertInsertFailureRollsBack(t *testing.T) {
	store, mock := newOutcomeStore(t)
	certID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WillReturnRows(lockedCertificate(certID, certificates.StatusPending))
	mock.ExpectQuery(insertAlert).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := store.Commit(context.Background(), certID, certificates.StatusForged, time.Now(), raisedAlerts(certID))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to store alerts")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutcomeStore_StatusUpdateFailureRollsBack(t *testing.T) {
	store, mock := newOutcomeStore(t)
	certID := uuid.New()
	raised := raisedAlerts(certID)

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WillReturnRows(lockedCertificate(certID, certificates.StatusPending))
	mock.ExpectQuery(insertAlert).WillReturnRows(sqlmock.NewRows([]string{"id"}).
		AddRow(raised[0].ID.String()).
		AddRow(raised[1].ID.String()))
	mock.ExpectExec(updateCert).WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	err := store.Commit(context.Background(), certID, certificates.StatusForged, time.Now(), raised)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to update certificate status")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutcomeStore_RejectedTransitionRollsBack(t *testing.T) {
	store, mock := newOutcomeStore(t)
	certID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WillReturnRows(lockedCertificate(certID, certificates.StatusVerified))
	mock.ExpectRollback()

	err := store.Commit(context.Background(), certID, certificates.StatusPending, time.Now(), raisedAlerts(certID))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status transition")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormOutcomeStore_UnknownCertificate(t *testing.T) {
	store, mock := newOutcomeStore(t)
	certID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(lockQuery).WillReturnRows(sqlmock.NewRows([]string{"id", "status"}))
	mock.ExpectRollback()

	err := store.Commit(context.Background(), certID, certificates.StatusVerified, time.Now(), nil)
	assert.ErrorIs(t, err, certificates.ErrCertificateNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
