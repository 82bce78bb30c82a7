package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"certverify/verification-backend/internal/certificates"
)

var ErrModelUnavailable = errors.New("AI model is not available")

// CertificateSource loads certificates and resolves their image location
type CertificateSource interface {
	Get(ctx context.Context, id uuid.UUID) (*certificates.Certificate, error)
	FileURL(ctx context.Context, cert *certificates.Certificate) (string, error)
}

type Service struct {
	repo      Repository
	predictor Predictor
	certs     CertificateSource
	logger    *zap.Logger
	now       func() time.Time
}

// NewService builds the prediction service. A nil predictor disables predictions.
func NewService(repo Repository, predictor Predictor, certs CertificateSource, logger *zap.Logger) *Service {
	return &Service{repo: repo, predictor: predictor, certs: certs, logger: logger, now: time.Now}
}

func (s *Service) Enabled() bool { return s.predictor != nil }

func (s *Service) Status(ctx context.Context) Status {
	if s.predictor == nil {
		return Status{IsAvailable: false, ErrorMessage: ErrModelUnavailable.Error()}
	}
	if err := s.predictor.Health(ctx); err != nil {
		return Status{IsAvailable: false, ErrorMessage: err.Error()}
	}
	return Status{IsAvailable: true}
}

// Predict asks the model about a certificate and stores the answer
func (s *Service) Predict(ctx context.Context, certID uuid.UUID) (*Prediction, error) {
	if s.predictor == nil {
		return nil, ErrModelUnavailable
	}

	cert, err := s.certs.Get(ctx, certID)
	if err != nil {
		return nil, err
	}
	url, err := s.certs.FileURL(ctx, cert)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve certificate image: %w", err)
	}

	out, err := s.predictor.Predict(ctx, Input{
		CertificateID: cert.ID,
		ImageURL:      url,
		ExtractedText: certificates.Value(cert.ExtractedText),
	})
	if err != nil {
		s.logger.Warn("AI prediction failed", zap.String("certificate_id", certID.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	meta, err := json.Marshal(map[string]interface{}{
		"features":        out.Features,
		"processing_time": out.ProcessingTime,
	})
	if err != nil {
		return nil, err
	}

	confidence := out.ConfidenceScore
	prediction := &Prediction{
		ID:              uuid.New(),
		CertID:          cert.ID,
		Probability:     out.Probability,
		ConfidenceScore: &confidence,
		Label:           out.Prediction,
		ModelVersion:    out.ModelVersion,
		PredictedAt:     s.now().UTC(),
		Metadata:        datatypes.JSON(meta),
	}
	if err := s.repo.Save(ctx, prediction); err != nil {
		return nil, fmt.Errorf("failed to store prediction: %w", err)
	}

	s.logger.Info("AI prediction stored",
		zap.String("certificate_id", certID.String()),
		zap.Float64("probability", out.Probability),
		zap.String("model_version", out.ModelVersion))
	return prediction, nil
}

func (s *Service) Latest(ctx context.Context, certID uuid.UUID) (*Prediction, error) {
	return s.repo.Latest(ctx, certID)
}

func (s *Service) List(ctx context.Context, certID uuid.UUID) ([]Prediction, error) {
	if _, err := s.certs.Get(ctx, certID); err != nil {
		return nil, err
	}
	return s.repo.ListForCertificate(ctx, certID)
}
