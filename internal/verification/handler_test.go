package verification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"certverify/verification-backend/internal/auth"
	"certverify/verification-backend/internal/certificates"
)

func newTestRouter(f *fixture, role auth.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		auth.SetIdentity(c, uuid.New(), role)
		c.Next()
	})
	NewHandler(f.svc, zap.NewNop()).RegisterRoutes(api)
	return r
}

func TestHandler_VerifyUnknownCertificate(t *testing.T) {
	f := newFixture()
	id := uuid.New()
	f.certs.On("Get", mock.Anything, id).Return(nil, certificates.ErrCertificateNotFound)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/verify/certificate/"+id.String(), strings.NewReader(`{"issuer":"State"}`))
	req.Header.Set("Content-Type", "application/json")
	newTestRouter(f, auth.RoleUser).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_VerifyWithoutExtractedData(t *testing.T) {
	f := newFixture()
	cert := &certificates.Certificate{ID: uuid.New(), Status: certificates.StatusPending}
	f.certs.On("Get", mock.Anything, cert.ID).Return(cert, nil)
	f.certs.On("GetData", mock.Anything, cert.ID).Return(nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/verify/certificate/"+cert.ID.String(), nil)
	newTestRouter(f, auth.RoleUser).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "no certificate data available")
}

func TestHandler_VerifyMalformedID(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/verify/certificate/abc", nil)
	newTestRouter(newFixture(), auth.RoleUser).ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandler_BulkRequiresInstitutionOrAdmin(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/verify/bulk", strings.NewReader(`[]`))
	req.Header.Set("Content-Type", "application/json")
	newTestRouter(newFixture(), auth.RoleUser).ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHandler_BulkVerify(t *testing.T) {
	f := newFixture()
	missing := uuid.New()
	f.certs.On("Get", mock.Anything, missing).Return(nil, certificates.ErrCertificateNotFound)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/verify/bulk", strings.NewReader(`["`+missing.String()+`"]`))
	req.Header.Set("Content-Type", "application/json")
	newTestRouter(f, auth.RoleInstitution).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body BulkResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.TotalCertificates)
	assert.Equal(t, 1, body.Failed)
	assert.Equal(t, []string{"certificate not found"}, body.Results[missing.String()].Mismatches)
}

func TestHandler_BulkVerifyTooMany(t *testing.T) {
	ids := make([]string, 101)
	for i := range ids {
		ids[i] = uuid.NewString()
	}
	payload, _ := json.Marshal(ids)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/verify/bulk", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	newTestRouter(newFixture(), auth.RoleAdmin).ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_Status(t *testing.T) {
	f := newFixture()
	cert := &certificates.Certificate{ID: uuid.New(), Status: certificates.StatusPending, SubmittedAt: testNow}
	f.certs.On("Get", mock.Anything, cert.ID).Return(cert, nil)
	f.certs.On("GetData", mock.Anything, cert.ID).Return(nil, nil)
	f.alerts.On("CountForCertificate", mock.Anything, cert.ID).Return(int64(0), nil)
	f.predictions.On("Latest", mock.Anything, cert.ID).Return(nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequestWithContext(context.Background(), http.MethodGet, "/api/v1/verify/certificate/"+cert.ID.String()+"/status", nil)
	newTestRouter(f, auth.RoleUser).ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "pending", body["status"])
	assert.Equal(t, false, body["has_extracted_data"])
	assert.Nil(t, body["ai_confidence"])
}
