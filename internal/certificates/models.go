package certificates

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusForged   Status = "forged"
)

// Certificate is an uploaded certificate image awaiting or having undergone verification
type Certificate struct {
	ID            uuid.UUID  `json:"id" db:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	UploaderID    uuid.UUID  `json:"uploader_id" db:"uploader_id" gorm:"type:uuid;not null;index"`
	Filename      string     `json:"filename" db:"filename" gorm:"not null"`
	StorageKey    string     `json:"storage_key" db:"storage_key" gorm:"not null"`
	ContentType   string     `json:"content_type" db:"content_type"`
	FileSize      int64      `json:"file_size" db:"file_size"`
	ExtractedText *string    `json:"extracted_text,omitempty" db:"extracted_text"`
	Status        Status     `json:"status" db:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	SubmittedAt   time.Time  `json:"submitted_at" db:"submitted_at" gorm:"not null"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty" db:"processed_at"`
}

func (Certificate) TableName() string { return "certificates" }

// CertificateData holds the fields extracted from a certificate, at most one row per certificate
type CertificateData struct {
	ID          uuid.UUID `json:"id" db:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CertID      uuid.UUID `json:"cert_id" db:"cert_id" gorm:"type:uuid;not null;uniqueIndex"`
	StudentName *string   `json:"student_name,omitempty" db:"student_name"`
	RollNumber  *string   `json:"roll_number,omitempty" db:"roll_number"`
	Marks       *string   `json:"marks,omitempty" db:"marks"`
	CertNumber  *string   `json:"cert_number,omitempty" db:"cert_number" gorm:"index"`
	Confidence  float64   `json:"confidence" db:"confidence"`
	ExtractedAt time.Time `json:"extracted_at" db:"extracted_at" gorm:"not null"`
}

func (CertificateData) TableName() string { return "certificate_data" }

// UploadRequest describes a file submitted for verification
type UploadRequest struct {
	UploaderID  uuid.UUID
	Filename    string
	ContentType string
	Size        int64
	Content     []byte
}

// UploadStats summarises an uploader's certificates
type UploadStats struct {
	TotalCertificates    int     `json:"total_certificates" db:"total"`
	VerifiedCertificates int     `json:"verified_certificates" db:"verified"`
	ForgedCertificates   int     `json:"forged_certificates" db:"forged"`
	PendingCertificates  int     `json:"pending_certificates" db:"pending"`
	VerificationRate     float64 `json:"verification_rate"`
	ForgeryRate          float64 `json:"forgery_rate"`
}

// ExtractionResult is returned by the OCR endpoints
type ExtractionResult struct {
	CertificateID *uuid.UUID       `json:"certificate_id,omitempty"`
	ExtractedText string           `json:"extracted_text"`
	Data          *CertificateData `json:"structured_data"`
	Confidence    float64          `json:"confidence"`
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// Value dereferences an optional field, treating nil as empty
func Value(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
