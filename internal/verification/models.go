package verification

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"certverify/verification-backend/internal/ai"
	"certverify/verification-backend/internal/alerts"
	"certverify/verification-backend/internal/certificates"
	"certverify/verification-backend/internal/config"
	"certverify/verification-backend/internal/records"
)

const (
	MismatchNoComparableFields = "no comparable fields found"
	MismatchNoCandidates       = "no matching verified records found"
	MismatchCertificateMissing = "certificate not found"
	MismatchNoCertificateData  = "no certificate data available"
)

// ExtractedFields are the OCR-derived values for one certificate. Empty means absent.
type ExtractedFields struct {
	StudentName string
	RollNumber  string
	Marks       string
	CertNumber  string
}

// FieldsFromData converts stored extraction output. A nil row yields empty fields.
func FieldsFromData(d *certificates.CertificateData) ExtractedFields {
	if d == nil {
		return ExtractedFields{}
	}
	return ExtractedFields{
		StudentName: certificates.Value(d.StudentName),
		RollNumber:  certificates.Value(d.RollNumber),
		Marks:       certificates.Value(d.Marks),
		CertNumber:  certificates.Value(d.CertNumber),
	}
}

// Request carries caller-supplied criteria that take precedence over extracted values
type Request struct {
	StudentName string `json:"student_name,omitempty"`
	RollNumber  string `json:"roll_number,omitempty"`
	CertNumber  string `json:"cert_number,omitempty"`
	Issuer      string `json:"issuer,omitempty"`
}

// Thresholds tune the matcher and the alert rules
type Thresholds struct {
	NameSimilarity        float64
	MarksSimilarity       float64
	Verified              float64
	LowConfidence         float64
	MultipleMismatchCount int
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		NameSimilarity:        0.8,
		MarksSimilarity:       0.7,
		Verified:              0.8,
		LowConfidence:         0.5,
		MultipleMismatchCount: 2,
	}
}

func ThresholdsFromConfig(cfg config.VerificationConfig) Thresholds {
	return Thresholds{
		NameSimilarity:        cfg.NameSimilarityThreshold,
		MarksSimilarity:       cfg.MarksSimilarityThreshold,
		Verified:              cfg.VerifiedThreshold,
		LowConfidence:         cfg.LowConfidenceThreshold,
		MultipleMismatchCount: cfg.MultipleMismatchCount,
	}
}

// MatchResult scores one candidate record. Comparable is false when no field pair could be compared.
type MatchResult struct {
	Score      float64
	Mismatches []string
	Comparable bool
}

// Decision is the outcome of scoring every candidate
type Decision struct {
	IsVerified bool
	Score      float64
	Record     *records.VerifiedRecord
	Mismatches []string
	Comparable bool
}

// AlertSpec is an alert to be raised for a decision
type AlertSpec struct {
	Reason string
	Level  alerts.Level
}

// Verdict is returned to callers of a verification run
type Verdict struct {
	IsVerified       bool                    `json:"is_verified"`
	ConfidenceScore  float64                 `json:"confidence_score"`
	MatchedRecord    *records.VerifiedRecord `json:"matched_record"`
	Mismatches       []string                `json:"mismatches"`
	NoComparableData bool                    `json:"no_comparable_data,omitempty"`
	Alerts           []alerts.Alert          `json:"alerts"`
	AIPrediction     *ai.Prediction          `json:"ai_prediction"`
}

func failedVerdict(reason string) *Verdict {
	return &Verdict{
		Mismatches: []string{reason},
		Alerts:     []alerts.Alert{},
	}
}

// BulkResult summarises a bulk verification
type BulkResult struct {
	TotalCertificates int                 `json:"total_certificates"`
	Verified          int                 `json:"verified"`
	Failed            int                 `json:"failed"`
	VerificationRate  float64             `json:"verification_rate"`
	Results           map[string]*Verdict `json:"results"`
}

// StatusReport describes where a certificate stands without re-running verification
type StatusReport struct {
	CertificateID    uuid.UUID           `json:"certificate_id"`
	Status           certificates.Status `json:"status"`
	SubmittedAt      time.Time           `json:"submitted_at"`
	ProcessedAt      *time.Time          `json:"processed_at"`
	HasExtractedData bool                `json:"has_extracted_data"`
	AlertCount       int64               `json:"alert_count"`
	HasAIPrediction  bool                `json:"has_ai_prediction"`
	AIConfidence     *float64            `json:"ai_confidence"`
}

func trimmed(s string) string { return strings.TrimSpace(s) }
