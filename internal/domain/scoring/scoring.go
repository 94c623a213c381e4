package scoring

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vgrishin/shortreel/internal/ports"
	"github.com/vgrishin/shortreel/internal/types"
)

// Fixed weights of the overall score. Not configurable per call.
const (
	weightEngagement = 0.3
	weightEmotion    = 0.2
	weightViral      = 0.3
	weightQuotable   = 0.2
)

// Heuristic fallback tuning: per-match weights and score floors so no
// segment scores as completely dead when the oracle is unavailable.
const (
	engagementWeight = 0.2
	emotionWeight    = 0.2
	viralWeight      = 0.3

	engagementFloor = 0.4
	emotionFloor    = 0.3
	viralFloor      = 0.3
)

var (
	engagementWords = []string{"amazing", "incredible", "wow", "shocking", "unbelievable", "funny", "hilarious"}
	emotionWords    = []string{"love", "hate", "excited", "surprised", "happy", "angry", "scared"}
	viralWords      = []string{"viral", "trending", "share", "like", "subscribe", "follow"}
)

// Adapter scores segments through an external oracle and resolves any oracle
// failure via the deterministic local heuristic. Analyze never returns an
// error; the heuristic is the guaranteed terminal path.
type Adapter struct {
	oracle ports.ScoringOracle
	meta   ports.MetadataOracle
}

func New(oracle ports.ScoringOracle, meta ports.MetadataOracle) Adapter {
	return Adapter{oracle: oracle, meta: meta}
}

func (a Adapter) Analyze(ctx context.Context, text string) types.ScoreResult {
	if a.oracle != nil {
		res, err := a.oracle.AnalyzeSegment(ctx, text)
		if err == nil {
			return clampResult(res)
		}
		slog.Warn("segment analysis fell back to heuristic", "err", err)
	}
	return Fallback(text)
}

func (a Adapter) GenerateMetadata(ctx context.Context, segmentText, originalTitle string) types.MetadataResult {
	if a.meta != nil {
		res, err := a.meta.GenerateMetadata(ctx, segmentText, originalTitle)
		if err == nil {
			return clampMetadata(res)
		}
		slog.Warn("metadata generation fell back to template", "err", err)
	}
	return FallbackMetadata(segmentText, originalTitle)
}

// Overall computes the fixed weighted combination of the four raw scores.
func Overall(r types.ScoreResult) float64 {
	return weightEngagement*r.Engagement +
		weightEmotion*r.Emotion +
		weightViral*r.ViralPotential +
		weightQuotable*r.Quotability
}

// Apply copies a score result onto a segment and recomputes its overall.
func Apply(seg *types.Segment, r types.ScoreResult) {
	seg.Engagement = r.Engagement
	seg.Emotion = r.Emotion
	seg.ViralPotential = r.ViralPotential
	seg.Quotability = r.Quotability
	seg.Overall = Overall(r)
	seg.Emotions = r.Emotions
	seg.Keywords = r.Keywords
	seg.Rationale = r.Reason
}

// Fallback is the deterministic heuristic scorer. Substring matches against
// fixed keyword lists on lowercased text, floored so every segment retains
// some potential.
func Fallback(text string) types.ScoreResult {
	lower := strings.ToLower(text)

	engagement := clamp(float64(countMatches(lower, engagementWords))*engagementWeight, 0, 1)
	emotion := clamp(float64(countMatches(lower, emotionWords))*emotionWeight, 0, 1)
	viral := clamp(float64(countMatches(lower, viralWords))*viralWeight, 0, 1)

	if engagement < engagementFloor {
		engagement = engagementFloor
	}
	if emotion < emotionFloor {
		emotion = emotionFloor
	}
	if viral < viralFloor {
		viral = viralFloor
	}

	words := strings.Fields(text)
	quotability := clamp(float64(len(words))/20, 0, 1)

	keywords := words
	if len(keywords) > 5 {
		keywords = keywords[:5]
	}

	return types.ScoreResult{
		Engagement:     engagement,
		Emotion:        emotion,
		ViralPotential: viral,
		Quotability:    quotability,
		Emotions:       []string{"general"},
		Keywords:       keywords,
		Reason:         "scored with local heuristic",
	}
}

func countMatches(lower string, list []string) int {
	n := 0
	for _, w := range list {
		if strings.Contains(lower, w) {
			n++
		}
	}
	return n
}

func clampResult(r types.ScoreResult) types.ScoreResult {
	r.Engagement = clamp(r.Engagement, 0, 1)
	r.Emotion = clamp(r.Emotion, 0, 1)
	r.ViralPotential = clamp(r.ViralPotential, 0, 1)
	r.Quotability = clamp(r.Quotability, 0, 1)
	if len(r.Emotions) > 5 {
		r.Emotions = r.Emotions[:5]
	}
	if len(r.Keywords) > 10 {
		r.Keywords = r.Keywords[:10]
	}
	r.Reason = truncate(r.Reason, 500)
	return r
}

func clamp(x, a, b float64) float64 {
	if x < a {
		return a
	}
	if x > b {
		return b
	}
	return x
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
