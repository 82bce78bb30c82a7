package records

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Repository is the store of verified records
type Repository interface {
	Find(ctx context.Context, criteria Criteria, limit int) ([]VerifiedRecord, error)
	GetByCertNumber(ctx context.Context, certNumber string) (*VerifiedRecord, error)
	Insert(ctx context.Context, record *VerifiedRecord) error
	Search(ctx context.Context, term string, limit int) ([]VerifiedRecord, error)
	Count(ctx context.Context) (int, error)
}

// PostgresRepository implements Repository for PostgreSQL
type PostgresRepository struct {
	db *sqlx.DB
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const recordColumns = "id, student_name, roll_number, marks, cert_number, issuer, issued_at, created_at"

// Find returns records matching every non-empty criterion, ordered by certificate number.
// Name, roll number and issuer match as case-insensitive substrings; certificate number matches exactly.
func (r *PostgresRepository) Find(ctx context.Context, criteria Criteria, limit int) ([]VerifiedRecord, error) {
	query := "SELECT " + recordColumns + " FROM verified_records WHERE 1=1"
	var args []interface{}
	argCount := 1

	if v := strings.TrimSpace(criteria.StudentName); v != "" {
		query += fmt.Sprintf(" AND student_name ILIKE $%d", argCount)
		args = append(args, containsPattern(v))
		argCount++
	}
	if v := strings.TrimSpace(criteria.RollNumber); v != "" {
		query += fmt.Sprintf(" AND roll_number ILIKE $%d", argCount)
		args = append(args, containsPattern(v))
		argCount++
	}
	if v := strings.TrimSpace(criteria.CertNumber); v != "" {
		query += fmt.Sprintf(" AND cert_number = $%d", argCount)
		args = append(args, v)
		argCount++
	}
	if v := strings.TrimSpace(criteria.Issuer); v != "" {
		query += fmt.Sprintf(" AND issuer ILIKE $%d", argCount)
		args = append(args, containsPattern(v))
		argCount++
	}

	query += fmt.Sprintf(" ORDER BY cert_number ASC LIMIT $%d", argCount)
	args = append(args, limit)

	var out []VerifiedRecord
	if err := r.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("failed to query verified records: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) GetByCertNumber(ctx context.Context, certNumber string) (*VerifiedRecord, error) {
	var rec VerifiedRecord
	err := r.db.GetContext(ctx, &rec, "SELECT "+recordColumns+" FROM verified_records WHERE cert_number = $1", certNumber)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Insert stores a record, returning ErrDuplicateRecord when the certificate number is taken
func (r *PostgresRepository) Insert(ctx context.Context, record *VerifiedRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO verified_records (
			id, student_name, roll_number, marks, cert_number, issuer, issued_at, created_at
		) VALUES (
			:id, :student_name, :roll_number, :marks, :cert_number, :issuer, :issued_at, :created_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicateRecord
		}
		return err
	}
	return nil
}

// Search matches the term against every identifying column
func (r *PostgresRepository) Search(ctx context.Context, term string, limit int) ([]VerifiedRecord, error) {
	query := "SELECT " + recordColumns + ` FROM verified_records
		WHERE student_name ILIKE $1 OR roll_number ILIKE $1 OR cert_number ILIKE $1 OR issuer ILIKE $1
		ORDER BY cert_number ASC LIMIT $2`

	var out []VerifiedRecord
	if err := r.db.SelectContext(ctx, &out, query, containsPattern(term), limit); err != nil {
		return nil, fmt.Errorf("failed to search verified records: %w", err)
	}
	return out, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM verified_records")
	return n, err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(v string) string {
	return "%" + likeEscaper.Replace(v) + "%"
}
