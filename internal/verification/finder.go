package verification

import (
	"context"
	"sort"

	"certverify/verification-backend/internal/records"
)

// RecordFinder looks up verified records. Implementations must skip the store for empty criteria.
type RecordFinder interface {
	Find(ctx context.Context, criteria records.Criteria, limit int) ([]records.VerifiedRecord, error)
}

// BuildCriteria prefers the caller's values over extracted ones and omits blank fields.
// Issuer only ever comes from the caller.
func BuildCriteria(req Request, fields ExtractedFields) records.Criteria {
	return records.Criteria{
		StudentName: firstNonEmpty(req.StudentName, fields.StudentName),
		RollNumber:  firstNonEmpty(req.RollNumber, fields.RollNumber),
		CertNumber:  firstNonEmpty(req.CertNumber, fields.CertNumber),
		Issuer:      trimmed(req.Issuer),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = trimmed(v); v != "" {
			return v
		}
	}
	return ""
}

// findCandidates returns at most limit records ordered by certificate number
func findCandidates(ctx context.Context, finder RecordFinder, criteria records.Criteria, limit int) ([]records.VerifiedRecord, error) {
	if criteria.IsEmpty() {
		return []records.VerifiedRecord{}, nil
	}
	candidates, err := finder.Find(ctx, criteria, limit)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].CertNumber < candidates[j].CertNumber
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
