package verification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certverify/verification-backend/internal/records"
)

func strPtr(s string) *string { return &s }

func janeRecord() records.VerifiedRecord {
	return records.VerifiedRecord{
		StudentName: "Jane Doe",
		RollNumber:  "2023002",
		CertNumber:  "CERT-2023-002",
		Marks:       strPtr("92%"),
		Issuer:      "State University",
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Jane  O'Neil!! ", "jane  oneil"},
		{"CERT-2023-002", "cert2023002"},
		{"José_Ñúñez", "josé_ñúñez"},
		{"85%", "85"},
		{"7½ / 10", "7½  10"},
		{"m² Ⅻ", "m² ⅻ"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), tt.in)
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("Jane Doe", "jane doe!"))
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("abc", ""))
	assert.Equal(t, 0.0, Similarity("A+", "B-"))
	// " doe", "j" and "n" match: 2*6/15
	assert.InDelta(t, 0.8, Similarity("Jon Doe", "Jane Doe"), 1e-12)
	assert.InDelta(t, 0.8, Similarity("85%", "85 %"), 1e-12)
}

func TestSimilarity_CloserStringsScoreHigher(t *testing.T) {
	target := "Jane Doe"
	near := Similarity("Jane Do", target)
	far := Similarity("Jan Do", target)
	farther := Similarity("J D", target)
	assert.GreaterOrEqual(t, near, far)
	assert.GreaterOrEqual(t, far, farther)
}

func TestScore_IdenticalFields(t *testing.T) {
	fields := ExtractedFields{StudentName: "Jane Doe", RollNumber: "2023002", CertNumber: "CERT-2023-002", Marks: "92%"}

	res := Score(fields, janeRecord(), DefaultThresholds())
	assert.Equal(t, 1.0, res.Score)
	assert.Empty(t, res.Mismatches)
	assert.True(t, res.Comparable)
}

func TestScore_NoComparableFields(t *testing.T) {
	tests := []struct {
		name   string
		fields ExtractedFields
		record records.VerifiedRecord
	}{
		{"empty extraction", ExtractedFields{}, janeRecord()},
		{"marks only on one side", ExtractedFields{Marks: "90"}, records.VerifiedRecord{StudentName: "X"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Score(tt.fields, tt.record, DefaultThresholds())
			assert.Equal(t, 0.0, res.Score)
			assert.Equal(t, []string{MismatchNoComparableFields}, res.Mismatches)
			assert.False(t, res.Comparable)
		})
	}
}

func TestScore_NameAtThresholdPasses(t *testing.T) {
	fields := ExtractedFields{StudentName: "Jon Doe", RollNumber: "2023002", CertNumber: "CERT-2023-002"}

	res := Score(fields, janeRecord(), DefaultThresholds())
	assert.Empty(t, res.Mismatches)
	assert.InDelta(t, (0.8+2.0)/3.0, res.Score, 1e-9)
}

func TestScore_NameMismatch(t *testing.T) {
	fields := ExtractedFields{StudentName: "John Smith", RollNumber: "2023002", CertNumber: "CERT-2023-002"}

	res := Score(fields, janeRecord(), DefaultThresholds())
	require.Len(t, res.Mismatches, 1)
	assert.Equal(t, "student name mismatch: 'John Smith' vs 'Jane Doe'", res.Mismatches[0])
	assert.InDelta(t, 2.0/3.0, res.Score, 1e-9)
}

func TestScore_ExactFieldsIgnoreCase(t *testing.T) {
	fields := ExtractedFields{RollNumber: "2023002", CertNumber: "cert-2023-002"}

	res := Score(fields, janeRecord(), DefaultThresholds())
	assert.Equal(t, 1.0, res.Score)
	assert.Empty(t, res.Mismatches)
}

func TestScore_MarksHalfWeight(t *testing.T) {
	rec := janeRecord()
	rec.Marks = strPtr("B-")
	fields := ExtractedFields{StudentName: "Jane Doe", RollNumber: "2023002", CertNumber: "CERT-2023-002", Marks: "A+"}

	res := Score(fields, rec, DefaultThresholds())
	assert.Equal(t, []string{"marks mismatch: 'A+' vs 'B-'"}, res.Mismatches)
	assert.InDelta(t, 3.0/3.5, res.Score, 1e-9)
}

func TestScore_MarksSimilarityContributesProportionally(t *testing.T) {
	rec := records.VerifiedRecord{Marks: strPtr("85 %")}

	res := Score(ExtractedFields{Marks: "85%"}, rec, DefaultThresholds())
	assert.Empty(t, res.Mismatches)
	assert.InDelta(t, 0.8, res.Score, 1e-9)
}

func TestScore_AllMismatched(t *testing.T) {
	fields := ExtractedFields{StudentName: "Bob Ray", RollNumber: "1", CertNumber: "X", Marks: "10"}

	res := Score(fields, janeRecord(), DefaultThresholds())
	assert.Len(t, res.Mismatches, 4)
	assert.Equal(t, "roll number mismatch: '1' vs '2023002'", res.Mismatches[1])
	assert.Equal(t, "certificate number mismatch: 'X' vs 'CERT-2023-002'", res.Mismatches[2])
	assert.GreaterOrEqual(t, res.Score, 0.0)
	assert.LessOrEqual(t, res.Score, 1.0)
}

func TestScore_AlwaysWithinUnitInterval(t *testing.T) {
	inputs := []ExtractedFields{
		{StudentName: "Jane"},
		{StudentName: "jane doe", Marks: "92"},
		{RollNumber: "2023002", Marks: "92 percent"},
		{StudentName: "!!!", RollNumber: "", CertNumber: "cert-2023-002"},
		{StudentName: "Jane Doe Jane Doe", RollNumber: "2023002", CertNumber: "CERT-2023-002", Marks: "92%"},
	}
	for _, in := range inputs {
		res := Score(in, janeRecord(), DefaultThresholds())
		assert.GreaterOrEqual(t, res.Score, 0.0)
		assert.LessOrEqual(t, res.Score, 1.0)
	}
}
