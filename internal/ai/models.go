package ai

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Prediction is a stored authenticity estimate for one certificate
type Prediction struct {
	ID              uuid.UUID      `json:"id" gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CertID          uuid.UUID      `json:"cert_id" gorm:"type:uuid;not null;index"`
	Probability     float64        `json:"probability" gorm:"not null"`
	ConfidenceScore *float64       `json:"confidence_score,omitempty"`
	Label           string         `json:"prediction" gorm:"type:varchar(20)"`
	ModelVersion    string         `json:"model_version" gorm:"not null"`
	PredictedAt     time.Time      `json:"predicted_at" gorm:"not null;index"`
	Metadata        datatypes.JSON `json:"model_metadata,omitempty" gorm:"type:jsonb"`
}

func (Prediction) TableName() string { return "ai_predictions" }

// Input is sent to the model service
type Input struct {
	CertificateID uuid.UUID `json:"certificate_id"`
	ImageURL      string    `json:"image_url"`
	ExtractedText string    `json:"extracted_text,omitempty"`
}

// Output is the model service's answer
type Output struct {
	Probability     float64                `json:"probability"`
	ConfidenceScore float64                `json:"confidence_score"`
	Prediction      string                 `json:"prediction"`
	ModelVersion    string                 `json:"model_version"`
	ProcessingTime  float64                `json:"processing_time"`
	Features        map[string]interface{} `json:"features,omitempty"`
}

// Status describes model availability
type Status struct {
	IsAvailable  bool   `json:"is_available"`
	ModelVersion string `json:"model_version,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}
