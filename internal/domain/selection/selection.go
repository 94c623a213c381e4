package selection

import (
	"sort"

	"github.com/vgrishin/shortreel/internal/types"
)

// Selection thresholds. Availability is deliberately prioritized over
// quality: an empty selection is a harder failure downstream than a
// mediocre one, so the tiers relax until something qualifies.
const (
	minOverall = 0.4
	minDurSec  = 10
	maxDurSec  = 60
	minWords   = 5

	maxSelected = 5

	relaxedMinWords = 3
	relaxedScore    = 0.3

	rescueMinDurSec = 15
	rescueScore     = 0.5
	maxRescued      = 3
)

// Select picks a bounded, ranked subset of scored segments.
//
// Tier 1: overall > 0.4, duration in [10,60], at least 5 words; sorted by
// overall descending, top 5. Tier 2 (tier 1 empty): first segment with
// duration in [10,60] and at least 3 words, forced to score 0.3. Tier 3
// (scoringFailed, when even the heuristic was unusable): any segments with
// duration in [15,60], forced to 0.5, capped at 3.
func Select(segments []*types.Segment, scoringFailed bool) []*types.Segment {
	if scoringFailed {
		return rescue(segments)
	}

	var picked []*types.Segment
	for _, seg := range segments {
		d := seg.Duration()
		if seg.Overall > minOverall && d >= minDurSec && d <= maxDurSec && seg.WordCount() >= minWords {
			picked = append(picked, seg)
		}
	}

	sort.SliceStable(picked, func(i, j int) bool {
		if picked[i].Overall == picked[j].Overall {
			return picked[i].Start < picked[j].Start
		}
		return picked[i].Overall > picked[j].Overall
	})
	if len(picked) > maxSelected {
		picked = picked[:maxSelected]
	}
	if len(picked) > 0 {
		return picked
	}

	// Relaxed re-scan, ignoring score: first acceptable window wins.
	for _, seg := range segments {
		d := seg.Duration()
		if d >= minDurSec && d <= maxDurSec && seg.WordCount() >= relaxedMinWords {
			seg.Overall = relaxedScore
			return []*types.Segment{seg}
		}
	}
	return nil
}

func rescue(segments []*types.Segment) []*types.Segment {
	var out []*types.Segment
	for _, seg := range segments {
		d := seg.Duration()
		if d >= rescueMinDurSec && d <= maxDurSec {
			seg.Overall = rescueScore
			out = append(out, seg)
			if len(out) >= maxRescued {
				break
			}
		}
	}
	return out
}
