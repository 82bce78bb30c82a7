package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certverify/verification-backend/internal/alerts"
	"certverify/verification-backend/internal/records"
)

func TestDecide_NoCandidates(t *testing.T) {
	d := Decide(ExtractedFields{StudentName: "Jane Doe"}, nil, DefaultThresholds())

	assert.False(t, d.IsVerified)
	assert.Equal(t, 0.0, d.Score)
	assert.Nil(t, d.Record)
	assert.Equal(t, []string{MismatchNoCandidates}, d.Mismatches)
}

func TestDecide_ExactMatchVerifies(t *testing.T) {
	fields := ExtractedFields{StudentName: "Jane Doe", RollNumber: "2023002", CertNumber: "CERT-2023-002", Marks: "92%"}

	d := Decide(fields, []records.VerifiedRecord{janeRecord()}, DefaultThresholds())
	assert.True(t, d.IsVerified)
	assert.Equal(t, 1.0, d.Score)
	require.NotNil(t, d.Record)
	assert.Equal(t, "CERT-2023-002", d.Record.CertNumber)
	assert.Empty(t, d.Mismatches)
}

func TestDecide_TiesKeepFirstCandidate(t *testing.T) {
	candidates := []records.VerifiedRecord{
		{CertNumber: "A-1", RollNumber: "R1"},
		{CertNumber: "B-1", RollNumber: "R1"},
	}

	d := Decide(ExtractedFields{RollNumber: "r1"}, candidates, DefaultThresholds())
	require.NotNil(t, d.Record)
	assert.Equal(t, "A-1", d.Record.CertNumber)
}

func TestDecide_PicksHighestScore(t *testing.T) {
	candidates := []records.VerifiedRecord{
		{CertNumber: "A-1", RollNumber: "R9"},
		{CertNumber: "B-1", RollNumber: "R1"},
	}

	d := Decide(ExtractedFields{RollNumber: "R1"}, candidates, DefaultThresholds())
	assert.Equal(t, "B-1", d.Record.CertNumber)
	assert.Equal(t, 1.0, d.Score)
	assert.Empty(t, d.Mismatches)
}

func TestDecide_ThresholdIsInclusive(t *testing.T) {
	// roll matches, certificate number does not: 1.0 / 2.0
	fields := ExtractedFields{RollNumber: "2023002", CertNumber: "CERT-9"}
	candidates := []records.VerifiedRecord{janeRecord()}

	th := DefaultThresholds()
	th.Verified = 0.5
	d := Decide(fields, candidates, th)
	assert.Equal(t, 0.5, d.Score)
	assert.True(t, d.IsVerified)

	th.Verified = 0.51
	assert.False(t, Decide(fields, candidates, th).IsVerified)
}

func TestDecide_NoComparableFieldsCarried(t *testing.T) {
	d := Decide(ExtractedFields{}, []records.VerifiedRecord{janeRecord()}, DefaultThresholds())

	assert.False(t, d.IsVerified)
	assert.False(t, d.Comparable)
	assert.Equal(t, []string{MismatchNoComparableFields}, d.Mismatches)
}

func TestDecide_ComparableCandidateWinsZeroTie(t *testing.T) {
	candidates := []records.VerifiedRecord{
		{CertNumber: "A-1", StudentName: "Jane Doe"},
		{CertNumber: "B-1", RollNumber: "R1", StudentName: "Jane Doe"},
	}

	d := Decide(ExtractedFields{RollNumber: "R7"}, candidates, DefaultThresholds())
	require.NotNil(t, d.Record)
	assert.Equal(t, "B-1", d.Record.CertNumber)
	assert.True(t, d.Comparable)
	assert.Equal(t, 0.0, d.Score)
	assert.Equal(t, []string{"roll number mismatch: 'R7' vs 'R1'"}, d.Mismatches)
}

func TestGenerateAlerts(t *testing.T) {
	th := DefaultThresholds()

	tests := []struct {
		name     string
		decision Decision
		want     []AlertSpec
	}{
		{
			name:     "verified with high confidence",
			decision: Decision{IsVerified: true, Score: 0.95},
			want:     nil,
		},
		{
			name:     "low score with two mismatches",
			decision: Decision{Score: 0.3, Mismatches: []string{"a", "b"}},
			want: []AlertSpec{
				{Reason: "certificate verification failed - no matching verified records", Level: alerts.LevelCritical},
				{Reason: "low confidence score: 0.30", Level: alerts.LevelWarning},
			},
		},
		{
			name:     "unverified above low confidence",
			decision: Decision{Score: 0.667, Mismatches: []string{"a"}},
			want: []AlertSpec{
				{Reason: "certificate verification failed - no matching verified records", Level: alerts.LevelCritical},
			},
		},
		{
			name:     "three mismatches",
			decision: Decision{Score: 0.1, Mismatches: []string{"a", "b", "c"}},
			want: []AlertSpec{
				{Reason: "certificate verification failed - no matching verified records", Level: alerts.LevelCritical},
				{Reason: "low confidence score: 0.10", Level: alerts.LevelWarning},
				{Reason: "multiple mismatches detected: 3 issues", Level: alerts.LevelCritical},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateAlerts(tt.decision, th))
		})
	}
}
