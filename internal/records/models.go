package records

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// VerifiedRecord is an authoritative certificate registered by an issuing institution.
// CertNumber is unique across the store.
type VerifiedRecord struct {
	ID          uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	StudentName string    `json:"student_name" db:"student_name" gorm:"not null;index"`
	RollNumber  string    `json:"roll_number" db:"roll_number" gorm:"not null;index"`
	Marks       *string   `json:"marks,omitempty" db:"marks"`
	CertNumber  string    `json:"cert_number" db:"cert_number" gorm:"not null;uniqueIndex"`
	Issuer      string    `json:"issuer" db:"issuer" gorm:"not null;index"`
	IssuedAt    time.Time `json:"issued_at" db:"issued_at" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at" db:"created_at" gorm:"autoCreateTime"`
}

func (VerifiedRecord) TableName() string { return "verified_records" }

// MarksValue returns the marks or an empty string when none were registered
func (r VerifiedRecord) MarksValue() string {
	if r.Marks == nil {
		return ""
	}
	return *r.Marks
}

// Criteria narrows a candidate lookup. Empty fields do not constrain the query.
type Criteria struct {
	StudentName string `json:"student_name,omitempty"`
	RollNumber  string `json:"roll_number,omitempty"`
	CertNumber  string `json:"cert_number,omitempty"`
	Issuer      string `json:"issuer,omitempty"`
}

// IsEmpty reports whether no field carries a usable value
func (c Criteria) IsEmpty() bool {
	return strings.TrimSpace(c.StudentName) == "" &&
		strings.TrimSpace(c.RollNumber) == "" &&
		strings.TrimSpace(c.CertNumber) == "" &&
		strings.TrimSpace(c.Issuer) == ""
}

// RecordInput is a record as submitted by an institution, before validation.
type RecordInput struct {
	StudentName string `json:"student_name" validate:"required,max=255"`
	RollNumber  string `json:"roll_number" validate:"required,max=100"`
	Marks       string `json:"marks,omitempty" validate:"max=50"`
	CertNumber  string `json:"cert_number" validate:"required,max=100"`
	Issuer      string `json:"issuer" validate:"required,max=255"`
	IssuedAt    string `json:"issued_at" validate:"required"`
}

// BulkUploadResult reports the outcome of an ingestion batch
type BulkUploadResult struct {
	SuccessCount int      `json:"success_count"`
	ErrorCount   int      `json:"error_count"`
	Errors       []string `json:"errors"`
}

func (r *BulkUploadResult) fail(msg string) {
	r.ErrorCount++
	r.Errors = append(r.Errors, msg)
}
