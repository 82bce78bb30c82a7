package ai

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"certverify/verification-backend/internal/certificates"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Save(ctx context.Context, p *Prediction) error {
	return m.Called(ctx, p).Error(0)
}

func (m *MockRepository) Latest(ctx context.Context, certID uuid.UUID) (*Prediction, error) {
	args := m.Called(ctx, certID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Prediction), args.Error(1)
}

func (m *MockRepository) ListForCertificate(ctx context.Context, certID uuid.UUID) ([]Prediction, error) {
	args := m.Called(ctx, certID)
	return args.Get(0).([]Prediction), args.Error(1)
}

type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) Predict(ctx context.Context, in Input) (*Output, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Output), args.Error(1)
}

func (m *MockPredictor) Health(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockCertificates struct {
	mock.Mock
}

func (m *MockCertificates) Get(ctx context.Context, id uuid.UUID) (*certificates.Certificate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*certificates.Certificate), args.Error(1)
}

func (m *MockCertificates) FileURL(ctx context.Context, cert *certificates.Certificate) (string, error) {
	args := m.Called(ctx, cert)
	return args.String(0), args.Error(1)
}

func TestPredict_StoresPrediction(t *testing.T) {
	ctx := context.Background()
	text := "Certificate of completion"
	cert := &certificates.Certificate{ID: uuid.New(), StorageKey: "certificates/u/c.png", ExtractedText: &text}

	certs := new(MockCertificates)
	certs.On("Get", ctx, cert.ID).Return(cert, nil)
	certs.On("FileURL", ctx, cert).Return("https://bucket/c.png", nil)

	predictor := new(MockPredictor)
	predictor.On("Predict", ctx, Input{CertificateID: cert.ID, ImageURL: "https://bucket/c.png", ExtractedText: text}).
		Return(&Output{Probability: 0.2, ConfidenceScore: 0.9, Prediction: "forged", ModelVersion: "v3", Features: map[string]interface{}{"seal": "missing"}}, nil)

	repo := new(MockRepository)
	repo.On("Save", ctx, mock.AnythingOfType("*ai.Prediction")).Return(nil)

	svc := NewService(repo, predictor, certs, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }

	p, err := svc.Predict(ctx, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, 0.2, p.Probability)
	assert.Equal(t, "forged", p.Label)
	assert.Equal(t, 0.9, *p.ConfidenceScore)

	var meta map[string]interface{}
	require.NoError(t, json.Unmarshal(p.Metadata, &meta))
	assert.Equal(t, "missing", meta["features"].(map[string]interface{})["seal"])
	repo.AssertExpectations(t)
}

func TestPredict_Disabled(t *testing.T) {
	svc := NewService(new(MockRepository), nil, new(MockCertificates), zap.NewNop())
	_, err := svc.Predict(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrModelUnavailable)
	assert.False(t, svc.Status(context.Background()).IsAvailable)
}

func TestPredict_ModelFailure(t *testing.T) {
	ctx := context.Background()
	cert := &certificates.Certificate{ID: uuid.New()}

	certs := new(MockCertificates)
	certs.On("Get", ctx, cert.ID).Return(cert, nil)
	certs.On("FileURL", ctx, cert).Return("file:///c.png", nil)
	predictor := new(MockPredictor)
	predictor.On("Predict", ctx, mock.Anything).Return(nil, errors.New("timeout"))
	repo := new(MockRepository)

	_, err := NewService(repo, predictor, certs, zap.NewNop()).Predict(ctx, cert.ID)
	assert.ErrorIs(t, err, ErrModelUnavailable)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestList_UnknownCertificate(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	certs := new(MockCertificates)
	certs.On("Get", ctx, id).Return(nil, certificates.ErrCertificateNotFound)

	_, err := NewService(new(MockRepository), nil, certs, zap.NewNop()).List(ctx, id)
	assert.ErrorIs(t, err, certificates.ErrCertificateNotFound)
}
