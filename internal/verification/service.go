package verification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"certverify/verification-backend/internal/ai"
	"certverify/verification-backend/internal/alerts"
	"certverify/verification-backend/internal/certificates"
)

const DefaultBulkLimit = 100

var (
	ErrTooManyCertificates = errors.New("too many certificates")
	// ErrNoCertificateData means the certificate has not been through OCR yet
	ErrNoCertificateData = errors.New(MismatchNoCertificateData)
)

// CertificateReader loads certificates and their extracted data
type CertificateReader interface {
	Get(ctx context.Context, id uuid.UUID) (*certificates.Certificate, error)
	GetData(ctx context.Context, certID uuid.UUID) (*certificates.CertificateData, error)
}

// AlertService delivers committed alerts and reports on existing ones
type AlertService interface {
	Publish(ctx context.Context, raised []alerts.Alert)
	ForCertificate(ctx context.Context, certID uuid.UUID) ([]alerts.Alert, error)
	CountForCertificate(ctx context.Context, certID uuid.UUID) (int64, error)
}

// PredictionReader returns the most recent AI prediction, or nil when there is none
type PredictionReader interface {
	Latest(ctx context.Context, certID uuid.UUID) (*ai.Prediction, error)
}

// Options are the tunables of a Service
type Options struct {
	Thresholds     Thresholds
	CandidateLimit int
	BulkLimit      int
}

type Service struct {
	certs       CertificateReader
	finder      RecordFinder
	store       OutcomeStore
	alerts      AlertService
	predictions PredictionReader
	opts        Options
	logger      *zap.Logger
	now         func() time.Time
}

func NewService(certs CertificateReader, finder RecordFinder, store OutcomeStore, alertSvc AlertService, predictions PredictionReader, opts Options, logger *zap.Logger) *Service {
	if opts.CandidateLimit <= 0 {
		opts.CandidateLimit = 10
	}
	if opts.BulkLimit <= 0 {
		opts.BulkLimit = DefaultBulkLimit
	}
	return &Service{
		certs:       certs,
		finder:      finder,
		store:       store,
		alerts:      alertSvc,
		predictions: predictions,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
	}
}

// Verify matches a certificate against the verified records, stores the outcome and its
// alerts together, then publishes the alerts. It fails with ErrCertificateNotFound for unknown ids
// and with ErrNoCertificateData, leaving the certificate untouched, when nothing was extracted yet.
func (s *Service) Verify(ctx context.Context, certID uuid.UUID, req Request) (*Verdict, error) {
	cert, err := s.certs.Get(ctx, certID)
	if err != nil {
		return nil, err
	}
	data, err := s.certs.GetData(ctx, certID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNoCertificateData
	}

	fields := FieldsFromData(data)
	candidates, err := findCandidates(ctx, s.finder, BuildCriteria(req, fields), s.opts.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to find candidate records: %w", err)
	}

	decision := Decide(fields, candidates, s.opts.Thresholds)

	now := s.now().UTC()
	specs := GenerateAlerts(decision, s.opts.Thresholds)
	raised := make([]alerts.Alert, 0, len(specs))
	for _, spec := range specs {
		a := alerts.New(cert.ID, spec.Reason, spec.Level)
		a.FlaggedAt = now
		raised = append(raised, a)
	}

	next := certificates.StatusForged
	if decision.IsVerified {
		next = certificates.StatusVerified
	}
	if err := s.store.Commit(ctx, cert.ID, next, now, raised); err != nil {
		return nil, fmt.Errorf("failed to store verification outcome: %w", err)
	}

	s.alerts.Publish(ctx, raised)

	verdict := &Verdict{
		IsVerified:       decision.IsVerified,
		ConfidenceScore:  decision.Score,
		MatchedRecord:    decision.Record,
		Mismatches:       decision.Mismatches,
		NoComparableData: decision.Record != nil && !decision.Comparable,
		Alerts:           raised,
	}
	if s.predictions != nil {
		prediction, err := s.predictions.Latest(ctx, cert.ID)
		if err != nil {
			s.logger.Warn("Failed to load AI prediction", zap.String("certificate_id", cert.ID.String()), zap.Error(err))
		}
		verdict.AIPrediction = prediction
	}

	s.logger.Info("Certificate verified",
		zap.String("certificate_id", cert.ID.String()),
		zap.Bool("verified", decision.IsVerified),
		zap.Float64("score", decision.Score),
		zap.Int("candidates", len(candidates)),
		zap.Int("alerts", len(raised)))

	return verdict, nil
}

// BulkVerify runs Verify for every id. Failures are reported per id and never abort the batch.
func (s *Service) BulkVerify(ctx context.Context, ids []string) (*BulkResult, error) {
	if len(ids) > s.opts.BulkLimit {
		return nil, fmt.Errorf("%w: maximum %d per request", ErrTooManyCertificates, s.opts.BulkLimit)
	}

	result := &BulkResult{Results: make(map[string]*Verdict, len(ids))}
	for _, id := range ids {
		result.Results[id] = s.verifyOne(ctx, id)
	}

	result.TotalCertificates = len(result.Results)
	for _, v := range result.Results {
		if v.IsVerified {
			result.Verified++
		}
	}
	result.Failed = result.TotalCertificates - result.Verified
	if result.TotalCertificates > 0 {
		result.VerificationRate = float64(result.Verified) / float64(result.TotalCertificates)
	}

	s.logger.Info("Bulk verification completed",
		zap.Int("total", result.TotalCertificates),
		zap.Int("verified", result.Verified))
	return result, nil
}

func (s *Service) verifyOne(ctx context.Context, id string) (verdict *Verdict) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Verification panicked", zap.String("certificate_id", id), zap.Any("panic", r))
			verdict = failedVerdict(fmt.Sprintf("verification error: %v", r))
		}
	}()

	certID, err := uuid.Parse(id)
	if err != nil {
		return failedVerdict(MismatchCertificateMissing)
	}

	v, err := s.Verify(ctx, certID, Request{})
	switch {
	case err == nil:
		return v
	case errors.Is(err, certificates.ErrCertificateNotFound):
		return failedVerdict(MismatchCertificateMissing)
	case errors.Is(err, ErrNoCertificateData):
		return failedVerdict(MismatchNoCertificateData)
	default:
		s.logger.Warn("Verification failed", zap.String("certificate_id", id), zap.Error(err))
		return failedVerdict(fmt.Sprintf("verification error: %v", err))
	}
}

// Status reports a certificate's current verification state
func (s *Service) Status(ctx context.Context, certID uuid.UUID) (*StatusReport, error) {
	cert, err := s.certs.Get(ctx, certID)
	if err != nil {
		return nil, err
	}
	data, err := s.certs.GetData(ctx, certID)
	if err != nil {
		return nil, err
	}
	count, err := s.alerts.CountForCertificate(ctx, certID)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts: %w", err)
	}

	report := &StatusReport{
		CertificateID:    cert.ID,
		Status:           cert.Status,
		SubmittedAt:      cert.SubmittedAt,
		ProcessedAt:      cert.ProcessedAt,
		HasExtractedData: data != nil,
		AlertCount:       count,
	}
	if s.predictions != nil {
		prediction, err := s.predictions.Latest(ctx, certID)
		if err != nil {
			return nil, fmt.Errorf("failed to load AI prediction: %w", err)
		}
		if prediction != nil {
			report.HasAIPrediction = true
			report.AIConfidence = prediction.ConfidenceScore
		}
	}
	return report, nil
}
