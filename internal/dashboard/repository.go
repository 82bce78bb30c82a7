package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// Repository runs the aggregate queries behind the admin dashboard
type Repository interface {
	Stats(ctx context.Context) (*Stats, error)
	Trends(ctx context.Context, since time.Time, days int) ([]Trend, error)
	Institutions(ctx context.Context) ([]InstitutionStats, error)
	RecentAlerts(ctx context.Context, limit int, level string) ([]RecentAlert, error)
	AIStats(ctx context.Context) (*AIStats, error)
	UserStats(ctx context.Context, activeSince time.Time) (*UserStats, error)
}

type PostgresRepository struct {
	db *sqlx.DB
}

func NewPostgresRepository(db *sqlx.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	query := `
		SELECT
			(SELECT COUNT(*) FROM certificates) AS total_certificates,
			(SELECT COUNT(*) FROM certificates WHERE status = 'verified') AS verified_certificates,
			(SELECT COUNT(*) FROM certificates WHERE status = 'forged') AS forged_certificates,
			(SELECT COUNT(*) FROM certificates WHERE status = 'pending') AS pending_certificates,
			(SELECT COUNT(*) FROM alerts) AS total_alerts,
			(SELECT COUNT(*) FROM alerts WHERE level = 'critical') AS critical_alerts`
	if err := r.db.GetContext(ctx, &s, query); err != nil {
		return nil, fmt.Errorf("failed to load dashboard stats: %w", err)
	}
	s.VerificationRate = rate(s.VerifiedCertificates, s.TotalCertificates)
	s.ForgeryRate = rate(s.ForgedCertificates, s.TotalCertificates)
	return &s, nil
}

// Trends returns one row per day starting at since, including days without activity.
// Verified and forged count processed certificates; pending counts submissions still pending.
func (r *PostgresRepository) Trends(ctx context.Context, since time.Time, days int) ([]Trend, error) {
	query := `
		SELECT
			d.day,
			COUNT(DISTINCT c.id) FILTER (WHERE c.status = 'verified' AND c.processed_at >= d.day AND c.processed_at < d.day + INTERVAL '1 day') AS verified_count,
			COUNT(DISTINCT c.id) FILTER (WHERE c.status = 'forged' AND c.processed_at >= d.day AND c.processed_at < d.day + INTERVAL '1 day') AS forged_count,
			COUNT(DISTINCT c.id) FILTER (WHERE c.status = 'pending' AND c.submitted_at >= d.day AND c.submitted_at < d.day + INTERVAL '1 day') AS pending_count
		FROM generate_series($1::date, $1::date + ($2 - 1) * INTERVAL '1 day', INTERVAL '1 day') AS d(day)
		LEFT JOIN certificates c
			ON (c.processed_at >= d.day AND c.processed_at < d.day + INTERVAL '1 day')
			OR (c.submitted_at >= d.day AND c.submitted_at < d.day + INTERVAL '1 day')
		GROUP BY d.day
		ORDER BY d.day`

	var trends []Trend
	if err := r.db.SelectContext(ctx, &trends, query, since, days); err != nil {
		return nil, fmt.Errorf("failed to load verification trends: %w", err)
	}
	return trends, nil
}

// Institutions joins registered records to certificates through the extracted certificate number
func (r *PostgresRepository) Institutions(ctx context.Context) ([]InstitutionStats, error) {
	query := `
		SELECT
			vr.issuer,
			COUNT(DISTINCT vr.id) AS total_uploads,
			COUNT(DISTINCT c.id) FILTER (WHERE c.status = 'verified') AS verified_certificates,
			COUNT(DISTINCT c.id) FILTER (WHERE c.status = 'forged') AS forged_certificates
		FROM verified_records vr
		LEFT JOIN certificate_data cd ON LOWER(cd.cert_number) = LOWER(vr.cert_number)
		LEFT JOIN certificates c ON c.id = cd.cert_id
		GROUP BY vr.issuer
		ORDER BY total_uploads DESC, vr.issuer`

	var stats []InstitutionStats
	if err := r.db.SelectContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("failed to load institution stats: %w", err)
	}
	for i := range stats {
		stats[i].VerificationRate = rate(stats[i].VerifiedCertificates, stats[i].TotalUploads)
		stats[i].ForgeryRate = rate(stats[i].ForgedCertificates, stats[i].TotalUploads)
	}
	return stats, nil
}

func (r *PostgresRepository) RecentAlerts(ctx context.Context, limit int, level string) ([]RecentAlert, error) {
	query := `SELECT id, cert_id, reason, level, flagged_at, resolved, resolved_at FROM alerts`
	args := []interface{}{}
	if level != "" {
		query += " WHERE level = $1"
		args = append(args, level)
	}
	query += fmt.Sprintf(" ORDER BY flagged_at DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	var recent []RecentAlert
	if err := r.db.SelectContext(ctx, &recent, query, args...); err != nil {
		return nil, fmt.Errorf("failed to load recent alerts: %w", err)
	}
	return recent, nil
}

func (r *PostgresRepository) AIStats(ctx context.Context) (*AIStats, error) {
	var s AIStats
	query := `
		SELECT
			COUNT(*) AS total_predictions,
			COALESCE(ROUND(AVG(confidence_score)::numeric, 3), 0)::float8 AS average_confidence,
			COUNT(*) FILTER (WHERE confidence_score > 0.8) AS high_confidence
		FROM ai_predictions`
	if err := r.db.GetContext(ctx, &s, query); err != nil {
		return nil, fmt.Errorf("failed to load AI prediction stats: %w", err)
	}

	s.ModelVersions = []VersionCount{}
	if err := r.db.SelectContext(ctx, &s.ModelVersions,
		`SELECT model_version, COUNT(*) AS count FROM ai_predictions GROUP BY model_version ORDER BY count DESC`); err != nil {
		return nil, fmt.Errorf("failed to load model versions: %w", err)
	}
	return &s, nil
}

func (r *PostgresRepository) UserStats(ctx context.Context, activeSince time.Time) (*UserStats, error) {
	var s UserStats
	query := `
		SELECT
			COUNT(*) AS total_users,
			COUNT(*) FILTER (WHERE created_at >= $1) AS active_users
		FROM users`
	if err := r.db.GetContext(ctx, &s, query, activeSince); err != nil {
		return nil, fmt.Errorf("failed to load user stats: %w", err)
	}

	s.UsersByRole = []RoleCount{}
	if err := r.db.SelectContext(ctx, &s.UsersByRole,
		`SELECT role, COUNT(*) AS count FROM users GROUP BY role ORDER BY role`); err != nil {
		return nil, fmt.Errorf("failed to load users by role: %w", err)
	}
	return &s, nil
}
