package certificates

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository interface {
	Create(ctx context.Context, cert *Certificate) error
	GetByID(ctx context.Context, id uuid.UUID) (*Certificate, error)
	ListByUploader(ctx context.Context, uploaderID uuid.UUID, skip, limit int) ([]Certificate, error)
	StatsByUploader(ctx context.Context, uploaderID uuid.UUID) (*UploadStats, error)
	SaveExtraction(ctx context.Context, certID uuid.UUID, text string, data *CertificateData) error
	GetData(ctx context.Context, certID uuid.UUID) (*CertificateData, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PostgresRepository implements Repository for PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const certificateColumns = `id, uploader_id, filename, storage_key, content_type, file_size,
	extracted_text, status, submitted_at, processed_at`

func (r *PostgresRepository) Create(ctx context.Context, cert *Certificate) error {
	query := `
		INSERT INTO certificates (
			id, uploader_id, filename, storage_key, content_type, file_size, status, submitted_at
		) VALUES (
			:id, :uploader_id, :filename, :storage_key, :content_type, :file_size, :status, :submitted_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, cert)
	return err
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*Certificate, error) {
	var cert Certificate
	err := r.db.GetContext(ctx, &cert, "SELECT "+certificateColumns+" FROM certificates WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *PostgresRepository) ListByUploader(ctx context.Context, uploaderID uuid.UUID, skip, limit int) ([]Certificate, error) {
	certs := []Certificate{}
	query := "SELECT " + certificateColumns + ` FROM certificates
		WHERE uploader_id = $1
		ORDER BY submitted_at DESC
		OFFSET $2 LIMIT $3`
	err := r.db.SelectContext(ctx, &certs, query, uploaderID, skip, limit)
	return certs, err
}

func (r *PostgresRepository) StatsByUploader(ctx context.Context, uploaderID uuid.UUID) (*UploadStats, error) {
	var stats UploadStats
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'verified') AS verified,
			COUNT(*) FILTER (WHERE status = 'forged') AS forged,
			COUNT(*) FILTER (WHERE status = 'pending') AS pending
		FROM certificates
		WHERE uploader_id = $1`
	if err := r.db.GetContext(ctx, &stats, query, uploaderID); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SaveExtraction stores the raw text on the certificate and upserts its extracted fields
func (r *PostgresRepository) SaveExtraction(ctx context.Context, certID uuid.UUID, text string, data *CertificateData) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE certificates SET extracted_text = $1 WHERE id = $2", text, certID); err != nil {
		return fmt.Errorf("failed to store extracted text: %w", err)
	}

	query := `
		INSERT INTO certificate_data (
			id, cert_id, student_name, roll_number, marks, cert_number, confidence, extracted_at
		) VALUES (
			:id, :cert_id, :student_name, :roll_number, :marks, :cert_number, :confidence, :extracted_at
		)
		ON CONFLICT (cert_id) DO UPDATE SET
			student_name = EXCLUDED.student_name,
			roll_number = EXCLUDED.roll_number,
			marks = EXCLUDED.marks,
			cert_number = EXCLUDED.cert_number,
			confidence = EXCLUDED.confidence,
			extracted_at = EXCLUDED.extracted_at`
	if _, err := tx.NamedExecContext(ctx, query, data); err != nil {
		return fmt.Errorf("failed to store extracted data: %w", err)
	}

	return tx.Commit()
}

func (r *PostgresRepository) GetData(ctx context.Context, certID uuid.UUID) (*CertificateData, error) {
	var data CertificateData
	query := `SELECT id, cert_id, student_name, roll_number, marks, cert_number, confidence, extracted_at
		FROM certificate_data WHERE cert_id = $1`
	err := r.db.GetContext(ctx, &data, query, certID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &data, nil
}

// Delete removes a certificate with its extracted data and predictions. Alerts are kept.
func (r *PostgresRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, q := range []string{
		"DELETE FROM certificate_data WHERE cert_id = $1",
		"DELETE FROM ai_predictions WHERE cert_id = $1",
		"DELETE FROM certificates WHERE id = $1",
	} {
		if _, err := tx.ExecContext(ctx, q, id); err != nil {
			return fmt.Errorf("failed to delete certificate: %w", err)
		}
	}
	return tx.Commit()
}
