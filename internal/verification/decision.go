package verification

import (
	"fmt"

	"certverify/verification-backend/internal/alerts"
	"certverify/verification-backend/internal/records"
)

const (
	reasonVerificationFailed = "certificate verification failed - no matching verified records"
)

// Decide scores every candidate and keeps the best one. Candidates must already be in a
// deterministic order: on equal scores the earlier candidate wins, except that a comparable
// candidate replaces an incomparable one.
func Decide(fields ExtractedFields, candidates []records.VerifiedRecord, th Thresholds) Decision {
	if len(candidates) == 0 {
		return Decision{Mismatches: []string{MismatchNoCandidates}}
	}

	best := Score(fields, candidates[0], th)
	bestIdx := 0
	for i := 1; i < len(candidates); i++ {
		res := Score(fields, candidates[i], th)
		if res.Score > best.Score || (res.Score == best.Score && res.Comparable && !best.Comparable) {
			best = res
			bestIdx = i
		}
	}

	record := candidates[bestIdx]
	return Decision{
		IsVerified: best.Score >= th.Verified,
		Score:      best.Score,
		Record:     &record,
		Mismatches: best.Mismatches,
		Comparable: best.Comparable,
	}
}

// GenerateAlerts evaluates each alert rule independently; several may fire for one decision
func GenerateAlerts(d Decision, th Thresholds) []AlertSpec {
	var specs []AlertSpec
	if !d.IsVerified {
		specs = append(specs, AlertSpec{Reason: reasonVerificationFailed, Level: alerts.LevelCritical})
	}
	if d.Score < th.LowConfidence {
		specs = append(specs, AlertSpec{Reason: fmt.Sprintf("low confidence score: %.2f", d.Score), Level: alerts.LevelWarning})
	}
	if len(d.Mismatches) > th.MultipleMismatchCount {
		specs = append(specs, AlertSpec{
			Reason: fmt.Sprintf("multiple mismatches detected: %d issues", len(d.Mismatches)),
			Level:  alerts.LevelCritical,
		})
	}
	return specs
}
