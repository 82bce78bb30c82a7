package verification

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"

	"certverify/verification-backend/internal/records"
)

const (
	nameWeight  = 1.0
	rollWeight  = 1.0
	certWeight  = 1.0
	marksWeight = 0.5
)

// Normalize lower-cases and trims s, then drops every rune that is neither a word character nor whitespace
func Normalize(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
}

// Similarity is the sequence-matcher ratio of the normalized strings: 2*M/T where M counts
// matched runes and T is the combined length. Two empty strings are identical.
func Similarity(a, b string) float64 {
	return difflib.NewMatcher(runes(Normalize(a)), runes(Normalize(b))).Ratio()
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

// Score compares extracted fields against one verified record. Only fields present on both
// sides count, and the result is the weighted average of the per-field contributions.
func Score(fields ExtractedFields, rec records.VerifiedRecord, th Thresholds) MatchResult {
	var score, total float64
	mismatches := []string{}

	if fields.StudentName != "" && rec.StudentName != "" {
		total += nameWeight
		if sim := Similarity(fields.StudentName, rec.StudentName); sim >= th.NameSimilarity {
			score += sim * nameWeight
		} else {
			mismatches = append(mismatches, fmt.Sprintf("student name mismatch: '%s' vs '%s'", fields.StudentName, rec.StudentName))
		}
	}

	if fields.RollNumber != "" && rec.RollNumber != "" {
		total += rollWeight
		if strings.EqualFold(fields.RollNumber, rec.RollNumber) {
			score += rollWeight
		} else {
			mismatches = append(mismatches, fmt.Sprintf("roll number mismatch: '%s' vs '%s'", fields.RollNumber, rec.RollNumber))
		}
	}

	if fields.CertNumber != "" && rec.CertNumber != "" {
		total += certWeight
		if strings.EqualFold(fields.CertNumber, rec.CertNumber) {
			score += certWeight
		} else {
			mismatches = append(mismatches, fmt.Sprintf("certificate number mismatch: '%s' vs '%s'", fields.CertNumber, rec.CertNumber))
		}
	}

	if marks := rec.MarksValue(); fields.Marks != "" && marks != "" {
		total += marksWeight
		if sim := Similarity(fields.Marks, marks); sim >= th.MarksSimilarity {
			score += sim * marksWeight
		} else {
			mismatches = append(mismatches, fmt.Sprintf("marks mismatch: '%s' vs '%s'", fields.Marks, marks))
		}
	}

	if total == 0 {
		return MatchResult{Score: 0, Mismatches: []string{MismatchNoComparableFields}}
	}
	return MatchResult{Score: score / total, Mismatches: mismatches, Comparable: true}
}
