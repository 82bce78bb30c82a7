package verification

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"certverify/verification-backend/internal/certificates"
	"certverify/verification-backend/internal/records"
)

func TestBuildCriteria_CallerWins(t *testing.T) {
	fields := ExtractedFields{StudentName: "Jane Doe", RollNumber: "2023002", CertNumber: "CERT-2023-002", Marks: "92%"}
	req := Request{StudentName: "Jane A. Doe", Issuer: " State University "}

	got := BuildCriteria(req, fields)
	assert.Equal(t, records.Criteria{
		StudentName: "Jane A. Doe",
		RollNumber:  "2023002",
		CertNumber:  "CERT-2023-002",
		Issuer:      "State University",
	}, got)
}

func TestBuildCriteria_OmitsBlankValues(t *testing.T) {
	got := BuildCriteria(Request{RollNumber: "   "}, ExtractedFields{})
	assert.True(t, got.IsEmpty())
}

func TestFieldsFromData(t *testing.T) {
	assert.Equal(t, ExtractedFields{}, FieldsFromData(nil))

	data := &certificates.CertificateData{StudentName: strPtr("Jane Doe"), Marks: strPtr("92%")}
	assert.Equal(t, ExtractedFields{StudentName: "Jane Doe", Marks: "92%"}, FieldsFromData(data))
}

func TestFindCandidates_EmptyCriteriaSkipsStore(t *testing.T) {
	finder := new(MockFinder)

	got, err := findCandidates(context.Background(), finder, records.Criteria{}, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
	finder.AssertNotCalled(t, "Find", mock.Anything, mock.Anything, mock.Anything)
}

func TestFindCandidates_OrdersByCertificateNumber(t *testing.T) {
	ctx := context.Background()
	criteria := records.Criteria{StudentName: "Jane"}
	finder := new(MockFinder)
	finder.On("Find", ctx, criteria, 2).Return([]records.VerifiedRecord{
		{CertNumber: "C-3"}, {CertNumber: "A-1"}, {CertNumber: "B-2"},
	}, nil)

	got, err := findCandidates(ctx, finder, criteria, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A-1", got[0].CertNumber)
	assert.Equal(t, "B-2", got[1].CertNumber)
}
