package records

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	// MaxBulkRecords caps a single ingestion batch
	MaxBulkRecords = 1000
	searchLimit    = 50
)

var (
	ErrRecordNotFound  = errors.New("verified record not found")
	ErrDuplicateRecord = errors.New("duplicate certificate number")
	ErrTooManyRecords  = fmt.Errorf("maximum %d records allowed per upload", MaxBulkRecords)
	ErrInvalidFile     = errors.New("invalid file")
)

// Service handles verified-record ingestion and lookup
type Service struct {
	repo     Repository
	validate *validator.Validate
	logger   *zap.Logger
}

// NewService creates a new records service
func NewService(repo Repository, logger *zap.Logger) *Service {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Service{repo: repo, validate: v, logger: logger}
}

// Find returns up to limit records matching criteria. Empty criteria never reach the store.
func (s *Service) Find(ctx context.Context, criteria Criteria, limit int) ([]VerifiedRecord, error) {
	if criteria.IsEmpty() {
		return []VerifiedRecord{}, nil
	}
	return s.repo.Find(ctx, criteria, limit)
}

// Get returns the record registered under certNumber
func (s *Service) Get(ctx context.Context, certNumber string) (*VerifiedRecord, error) {
	rec, err := s.repo.GetByCertNumber(ctx, certNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to get verified record: %w", err)
	}
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	return rec, nil
}

// Search runs a substring search across the identifying columns
func (s *Service) Search(ctx context.Context, term string) ([]VerifiedRecord, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []VerifiedRecord{}, nil
	}
	return s.repo.Search(ctx, term, searchLimit)
}

// Ingest validates and stores each input independently; a bad record never discards the rest
func (s *Service) Ingest(ctx context.Context, inputs []RecordInput) (*BulkUploadResult, error) {
	if len(inputs) > MaxBulkRecords {
		return nil, ErrTooManyRecords
	}

	result := &BulkUploadResult{Errors: []string{}}
	for i, in := range inputs {
		rec, err := s.toRecord(in)
		if err != nil {
			result.fail(fmt.Sprintf("record %d: %v", i+1, err))
			continue
		}

		if err := s.repo.Insert(ctx, rec); err != nil {
			if errors.Is(err, ErrDuplicateRecord) {
				result.fail(fmt.Sprintf("certificate %s already exists", rec.CertNumber))
				continue
			}
			s.logger.Error("Failed to store verified record", zap.String("cert_number", rec.CertNumber), zap.Error(err))
			result.fail(fmt.Sprintf("record %d: failed to store: %v", i+1, err))
			continue
		}
		result.SuccessCount++
	}

	s.logger.Info("Verified records ingested",
		zap.Int("success", result.SuccessCount),
		zap.Int("errors", result.ErrorCount),
	)
	return result, nil
}

// IngestCSV parses and ingests a CSV upload
func (s *Service) IngestCSV(ctx context.Context, r io.Reader) (*BulkUploadResult, error) {
	inputs, rowErrors, err := ParseCSV(r)
	if err != nil {
		return nil, err
	}
	return s.ingestParsed(ctx, inputs, rowErrors)
}

// IngestXLSX parses and ingests a spreadsheet upload
func (s *Service) IngestXLSX(ctx context.Context, r io.Reader) (*BulkUploadResult, error) {
	inputs, rowErrors, err := ParseXLSX(r)
	if err != nil {
		return nil, err
	}
	return s.ingestParsed(ctx, inputs, rowErrors)
}

// IngestJSON parses and ingests a JSON upload
func (s *Service) IngestJSON(ctx context.Context, r io.Reader) (*BulkUploadResult, error) {
	inputs, err := ParseJSON(r)
	if err != nil {
		return nil, err
	}
	return s.Ingest(ctx, inputs)
}

func (s *Service) ingestParsed(ctx context.Context, inputs []RecordInput, rowErrors []string) (*BulkUploadResult, error) {
	result, err := s.Ingest(ctx, inputs)
	if err != nil {
		return nil, err
	}
	for _, msg := range rowErrors {
		result.fail(msg)
	}
	return result, nil
}

func (s *Service) toRecord(in RecordInput) (*VerifiedRecord, error) {
	in.StudentName = strings.TrimSpace(in.StudentName)
	in.RollNumber = strings.TrimSpace(in.RollNumber)
	in.CertNumber = strings.TrimSpace(in.CertNumber)
	in.Issuer = strings.TrimSpace(in.Issuer)
	in.Marks = strings.TrimSpace(in.Marks)

	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return nil, errors.New(strings.Join(msgs, "; "))
		}
		return nil, err
	}

	issuedAt, err := ParseIssuedAt(in.IssuedAt)
	if err != nil {
		return nil, err
	}

	rec := &VerifiedRecord{
		StudentName: in.StudentName,
		RollNumber:  in.RollNumber,
		CertNumber:  in.CertNumber,
		Issuer:      in.Issuer,
		IssuedAt:    issuedAt,
	}
	if in.Marks != "" {
		marks := in.Marks
		rec.Marks = &marks
	}
	return rec, nil
}
