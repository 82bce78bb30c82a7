package alerts

import (
	"time"

	"github.com/google/uuid"
)

type Level string

const (
	LevelCritical Level = "critical"
	LevelWarning  Level = "warning"
)

// Valid reports whether l is a known level
func (l Level) Valid() bool {
	return l == LevelCritical || l == LevelWarning
}

// Alert flags a verification outcome that needs human attention.
// Alerts are only removed by an explicit admin delete.
type Alert struct {
	ID         uuid.UUID  `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CertID     uuid.UUID  `json:"cert_id" gorm:"type:uuid;not null;index"`
	Reason     string     `json:"reason" gorm:"type:text;not null"`
	Level      Level      `json:"level" gorm:"type:varchar(20);not null;index"`
	FlaggedAt  time.Time  `json:"flagged_at" gorm:"not null;index"`
	Resolved   bool       `json:"resolved" gorm:"not null;default:false;index"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy *uuid.UUID `json:"resolved_by,omitempty" gorm:"type:uuid"`
}

func (Alert) TableName() string { return "alerts" }

// New builds an unresolved alert flagged now
func New(certID uuid.UUID, reason string, level Level) Alert {
	return Alert{
		ID:        uuid.New(),
		CertID:    certID,
		Reason:    reason,
		Level:     level,
		FlaggedAt: time.Now().UTC(),
	}
}

// ListFilter narrows alert listings
type ListFilter struct {
	Skip     int
	Limit    int
	Level    *Level
	Resolved *bool
}

// Summary aggregates alert counts
type Summary struct {
	TotalAlerts      int64   `json:"total_alerts"`
	UnresolvedAlerts int64   `json:"unresolved_alerts"`
	CriticalAlerts   int64   `json:"critical_alerts"`
	WarningAlerts    int64   `json:"warning_alerts"`
	AlertsLast24h    int64   `json:"alerts_last_24h"`
	AlertsLast7d     int64   `json:"alerts_last_7d"`
	ResolutionRate   float64 `json:"resolution_rate"`
}

type CreateRequest struct {
	CertID uuid.UUID `json:"cert_id" binding:"required"`
	Reason string    `json:"reason" binding:"required"`
	Level  Level     `json:"level" binding:"required"`
}

// BulkResolveResult reports which alerts a bulk resolve touched
type BulkResolveResult struct {
	Resolved        int      `json:"resolved_count"`
	AlreadyResolved []string `json:"already_resolved"`
	NotFound        []string `json:"not_found"`
}

// Event is pushed to live subscribers whenever alerts are raised or change state
type Event struct {
	Type      string    `json:"type"`
	Alert     Alert     `json:"alert"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	EventRaised     = "alert.raised"
	EventResolved   = "alert.resolved"
	EventUnresolved = "alert.unresolved"
)
