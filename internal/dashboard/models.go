package dashboard

import "time"

type Stats struct {
	TotalCertificates    int     `json:"total_certificates" db:"total_certificates"`
	VerifiedCertificates int     `json:"verified_certificates" db:"verified_certificates"`
	ForgedCertificates   int     `json:"forged_certificates" db:"forged_certificates"`
	PendingCertificates  int     `json:"pending_certificates" db:"pending_certificates"`
	TotalAlerts          int     `json:"total_alerts" db:"total_alerts"`
	CriticalAlerts       int     `json:"critical_alerts" db:"critical_alerts"`
	VerificationRate     float64 `json:"verification_rate"`
	ForgeryRate          float64 `json:"forgery_rate"`
}

// Trend is one day of verification activity
type Trend struct {
	Date          time.Time `json:"date" db:"day"`
	VerifiedCount int       `json:"verified_count" db:"verified_count"`
	ForgedCount   int       `json:"forged_count" db:"forged_count"`
	PendingCount  int       `json:"pending_count" db:"pending_count"`
}

// InstitutionStats relates an issuer's registered records to the certificates verified against them
type InstitutionStats struct {
	InstitutionName      string  `json:"institution_name" db:"issuer"`
	TotalUploads         int     `json:"total_uploads" db:"total_uploads"`
	VerifiedCertificates int     `json:"verified_certificates" db:"verified_certificates"`
	ForgedCertificates   int     `json:"forged_certificates" db:"forged_certificates"`
	VerificationRate     float64 `json:"verification_rate"`
	ForgeryRate          float64 `json:"forgery_rate"`
}

type RecentAlert struct {
	ID            string     `json:"id" db:"id"`
	CertificateID string     `json:"certificate_id" db:"cert_id"`
	Reason        string     `json:"reason" db:"reason"`
	Level         string     `json:"level" db:"level"`
	FlaggedAt     time.Time  `json:"flagged_at" db:"flagged_at"`
	Resolved      bool       `json:"resolved" db:"resolved"`
	ResolvedAt    *time.Time `json:"resolved_at" db:"resolved_at"`
}

type VersionCount struct {
	Version string `json:"version" db:"model_version"`
	Count   int    `json:"count" db:"count"`
}

type AIStats struct {
	TotalPredictions          int            `json:"total_predictions" db:"total_predictions"`
	AverageConfidence         float64        `json:"average_confidence" db:"average_confidence"`
	HighConfidencePredictions int            `json:"high_confidence_predictions" db:"high_confidence"`
	ModelVersions             []VersionCount `json:"model_versions"`
}

type RoleCount struct {
	Role  string `json:"role" db:"role"`
	Count int    `json:"count" db:"count"`
}

type UserStats struct {
	TotalUsers       int         `json:"total_users" db:"total_users"`
	ActiveUsers30Day int         `json:"active_users_30_days" db:"active_users"`
	UsersByRole      []RoleCount `json:"users_by_role"`
}

func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total)
}
