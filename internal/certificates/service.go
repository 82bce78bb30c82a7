package certificates

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"certverify/verification-backend/internal/ocr"
)

var (
	ErrCertificateNotFound = errors.New("certificate not found")
	ErrFileTooLarge        = errors.New("file size exceeds maximum allowed size")
	ErrInvalidFileType     = errors.New("file type not allowed")
	ErrEmptyFile           = errors.New("file is empty")
	ErrForbidden           = errors.New("not allowed to access this certificate")
	ErrExtractionFailed    = errors.New("OCR processing failed")
)

// UploadPolicy bounds what may be uploaded
type UploadPolicy struct {
	MaxFileSize       int64
	AllowedExtensions []string
}

// Service manages uploaded certificates and their extracted data
type Service struct {
	repo      Repository
	storage   *StorageProvider
	extractor ocr.Extractor
	policy    UploadPolicy
	logger    *zap.Logger
}

func NewService(repo Repository, storage *StorageProvider, extractor ocr.Extractor, policy UploadPolicy, logger *zap.Logger) *Service {
	return &Service{
		repo:      repo,
		storage:   storage,
		extractor: extractor,
		policy:    policy,
		logger:    logger,
	}
}

// Upload validates the file, stores it and records a pending certificate
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*Certificate, error) {
	ext, err := s.validateFile(req.Filename, req.Size)
	if err != nil {
		return nil, err
	}

	cert := &Certificate{
		ID:          uuid.New(),
		UploaderID:  req.UploaderID,
		Filename:    filepath.Base(req.Filename),
		ContentType: req.ContentType,
		FileSize:    req.Size,
		Status:      StatusPending,
		SubmittedAt: time.Now().UTC(),
	}
	cert.StorageKey = s.storage.GenerateKey(req.UploaderID, cert.ID, ext)

	if err := s.storage.Put(ctx, cert.StorageKey, req.Content, req.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store certificate file: %w", err)
	}

	if err := s.repo.Create(ctx, cert); err != nil {
		if rmErr := s.storage.Remove(ctx, cert.StorageKey); rmErr != nil {
			s.logger.Warn("Failed to remove orphaned certificate file", zap.String("key", cert.StorageKey), zap.Error(rmErr))
		}
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	s.logger.Info("Certificate uploaded",
		zap.String("certificate_id", cert.ID.String()),
		zap.String("uploader_id", req.UploaderID.String()),
		zap.Int64("size", req.Size),
	)
	return cert, nil
}

func (s *Service) validateFile(filename string, size int64) (string, error) {
	if size <= 0 {
		return "", ErrEmptyFile
	}
	if size > s.policy.MaxFileSize {
		return "", fmt.Errorf("%w (%d bytes)", ErrFileTooLarge, s.policy.MaxFileSize)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	for _, allowed := range s.policy.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return ext, nil
		}
	}
	return "", fmt.Errorf("%w: allowed types are %s", ErrInvalidFileType, strings.Join(s.policy.AllowedExtensions, ", "))
}

// Get returns a certificate or ErrCertificateNotFound
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Certificate, error) {
	cert, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}
	if cert == nil {
		return nil, ErrCertificateNotFound
	}
	return cert, nil
}

// GetData returns the extracted fields of a certificate, or nil when none were extracted
func (s *Service) GetData(ctx context.Context, certID uuid.UUID) (*CertificateData, error) {
	data, err := s.repo.GetData(ctx, certID)
	if err != nil {
		return nil, fmt.Errorf("failed to get certificate data: %w", err)
	}
	return data, nil
}

// ExtractText runs OCR on arbitrary content without persisting anything
func (s *Service) ExtractText(ctx context.Context, content []byte) (*ExtractionResult, error) {
	res, err := s.extractor.Extract(ctx, content)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	return &ExtractionResult{
		ExtractedText: res.Text,
		Data:          dataFromFields(uuid.Nil, res),
		Confidence:    res.Confidence,
	}, nil
}

// ExtractAndSave runs OCR on content and stores the result against the certificate
func (s *Service) ExtractAndSave(ctx context.Context, certID uuid.UUID, content []byte) (*ExtractionResult, error) {
	if _, err := s.Get(ctx, certID); err != nil {
		return nil, err
	}

	res, err := s.extractor.Extract(ctx, content)
	if err != nil {
		s.logger.Warn("OCR failed", zap.String("certificate_id", certID.String()), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	data := dataFromFields(certID, res)
	if err := s.repo.SaveExtraction(ctx, certID, res.Text, data); err != nil {
		return nil, fmt.Errorf("failed to save extraction: %w", err)
	}

	s.logger.Info("Certificate data extracted",
		zap.String("certificate_id", certID.String()),
		zap.Float64("confidence", res.Confidence),
	)
	return &ExtractionResult{
		CertificateID: &certID,
		ExtractedText: res.Text,
		Data:          data,
		Confidence:    res.Confidence,
	}, nil
}

// ExtractStored re-runs OCR on the file already stored for the certificate
func (s *Service) ExtractStored(ctx context.Context, certID uuid.UUID) (*ExtractionResult, error) {
	cert, err := s.Get(ctx, certID)
	if err != nil {
		return nil, err
	}
	content, err := s.storage.Read(ctx, cert.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate file: %w", err)
	}
	return s.ExtractAndSave(ctx, certID, content)
}

// ListMine returns the uploader's certificates, newest first
func (s *Service) ListMine(ctx context.Context, uploaderID uuid.UUID, skip, limit int) ([]Certificate, error) {
	return s.repo.ListByUploader(ctx, uploaderID, skip, limit)
}

// Stats returns status counts and rates for the uploader
func (s *Service) Stats(ctx context.Context, uploaderID uuid.UUID) (*UploadStats, error) {
	stats, err := s.repo.StatsByUploader(ctx, uploaderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get upload stats: %w", err)
	}
	if stats.TotalCertificates > 0 {
		stats.VerificationRate = float64(stats.VerifiedCertificates) / float64(stats.TotalCertificates)
		stats.ForgeryRate = float64(stats.ForgedCertificates) / float64(stats.TotalCertificates)
	}
	return stats, nil
}

// FileURL returns a link to the stored file for users allowed to see the certificate
func (s *Service) FileURL(ctx context.Context, cert *Certificate) (string, error) {
	return s.storage.URL(ctx, cert.StorageKey)
}

// Delete removes a certificate owned by uploaderID. The stored file is removed on a best-effort basis.
func (s *Service) Delete(ctx context.Context, id, uploaderID uuid.UUID) error {
	cert, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if cert.UploaderID != uploaderID {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete certificate: %w", err)
	}
	if err := s.storage.Remove(ctx, cert.StorageKey); err != nil {
		s.logger.Warn("Failed to remove certificate file", zap.String("key", cert.StorageKey), zap.Error(err))
	}

	s.logger.Info("Certificate deleted", zap.String("certificate_id", id.String()))
	return nil
}

func dataFromFields(certID uuid.UUID, res *ocr.Result) *CertificateData {
	return &CertificateData{
		ID:          uuid.New(),
		CertID:      certID,
		StudentName: optional(res.Fields.StudentName),
		RollNumber:  optional(res.Fields.RollNumber),
		Marks:       optional(res.Fields.Marks),
		CertNumber:  optional(res.Fields.CertNumber),
		Confidence:  res.Confidence,
		ExtractedAt: time.Now().UTC(),
	}
}
