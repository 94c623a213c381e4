package scoring

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/vgrishin/shortreel/internal/types"
)

type fakeOracle struct {
	res types.ScoreResult
	err error
}

func (f fakeOracle) AnalyzeSegment(context.Context, string) (types.ScoreResult, error) {
	return f.res, f.err
}

type fakeMetaOracle struct {
	res types.MetadataResult
	err error
}

func (f fakeMetaOracle) GenerateMetadata(context.Context, string, string) (types.MetadataResult, error) {
	return f.res, f.err
}

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestFallback_Floors(t *testing.T) {
	r := Fallback("nothing matches here at all")
	if r.Engagement != 0.4 {
		t.Fatalf("engagement = %v, want floor 0.4", r.Engagement)
	}
	if r.Emotion != 0.3 || r.ViralPotential != 0.3 {
		t.Fatalf("emotion/viral = %v/%v, want floors 0.3/0.3", r.Emotion, r.ViralPotential)
	}
}

func TestFallback_KeywordMatches(t *testing.T) {
	r := Fallback("this amazing incredible wow clip will go viral, share and subscribe")
	if !almost(r.Engagement, 0.6) { // 3 matches * 0.2
		t.Fatalf("engagement = %v, want 0.6", r.Engagement)
	}
	if !almost(r.ViralPotential, 0.9) { // viral, share, subscribe
		t.Fatalf("viral = %v, want 0.9", r.ViralPotential)
	}
}

func TestFallback_Quotability(t *testing.T) {
	if r := Fallback(strings.Repeat("w ", 10)); !almost(r.Quotability, 0.5) {
		t.Fatalf("quotability(10 words) = %v, want 0.5", r.Quotability)
	}
	if r := Fallback(strings.Repeat("w ", 40)); r.Quotability != 1 {
		t.Fatalf("quotability(40 words) = %v, want capped 1", r.Quotability)
	}
}

func TestFallback_KeywordsAndEmotions(t *testing.T) {
	r := Fallback("one two three four five six seven")
	if len(r.Keywords) != 5 || r.Keywords[0] != "one" {
		t.Fatalf("keywords = %v, want first five words", r.Keywords)
	}
	if len(r.Emotions) != 1 || r.Emotions[0] != "general" {
		t.Fatalf("emotions = %v, want [general]", r.Emotions)
	}
}

func TestOverall_WeightedSum(t *testing.T) {
	r := types.ScoreResult{Engagement: 1, Emotion: 0.5, ViralPotential: 0.5, Quotability: 1}
	// 0.3*1 + 0.2*0.5 + 0.3*0.5 + 0.2*1
	if got := Overall(r); !almost(got, 0.75) {
		t.Fatalf("Overall = %v, want 0.75", got)
	}
}

func TestAnalyze_UsesOracle(t *testing.T) {
	want := types.ScoreResult{Engagement: 0.9, Emotion: 0.8, ViralPotential: 0.7, Quotability: 0.6}
	a := New(fakeOracle{res: want}, nil)
	got := a.Analyze(context.Background(), "whatever")
	if got.Engagement != 0.9 || got.Quotability != 0.6 {
		t.Fatalf("Analyze = %+v, want oracle result", got)
	}
}

func TestAnalyze_OracleFailureFallsBack(t *testing.T) {
	a := New(fakeOracle{err: errors.New("boom")}, nil)
	got := a.Analyze(context.Background(), "plain text segment")
	if got.Reason != "scored with local heuristic" {
		t.Fatalf("expected heuristic fallback, got %+v", got)
	}
}

func TestAnalyze_ClampsOracleOutput(t *testing.T) {
	dirty := types.ScoreResult{
		Engagement: 1.7, Emotion: -0.3,
		Emotions: []string{"a", "b", "c", "d", "e", "f", "g"},
		Keywords: make([]string, 20),
		Reason:   strings.Repeat("x", 900),
	}
	a := New(fakeOracle{res: dirty}, nil)
	got := a.Analyze(context.Background(), "text")
	if got.Engagement != 1 || got.Emotion != 0 {
		t.Fatalf("scores not clamped: %v/%v", got.Engagement, got.Emotion)
	}
	if len(got.Emotions) != 5 || len(got.Keywords) != 10 {
		t.Fatalf("lists not clamped: %d emotions, %d keywords", len(got.Emotions), len(got.Keywords))
	}
	if len(got.Reason) != 500 {
		t.Fatalf("reason length = %d, want 500", len(got.Reason))
	}
}

func TestApply_RecomputesOverall(t *testing.T) {
	seg := &types.Segment{ID: "s1", Overall: 0.9}
	Apply(seg, types.ScoreResult{Engagement: 0.5, Emotion: 0.5, ViralPotential: 0.5, Quotability: 0.5, Reason: "r"})
	if !almost(seg.Overall, 0.5) {
		t.Fatalf("overall = %v, want 0.5", seg.Overall)
	}
	if seg.Rationale != "r" {
		t.Fatalf("rationale = %q", seg.Rationale)
	}
}

func TestFallbackMetadata(t *testing.T) {
	got := FallbackMetadata("this incredible thing happened today somewhere", "Original Video")
	if !strings.HasPrefix(got.Title, "Must See: ") {
		t.Fatalf("title = %q", got.Title)
	}
	if !strings.Contains(got.Description, "Original Video") {
		t.Fatalf("description missing source title: %q", got.Description)
	}
	if len(got.Tags) < 5 || got.Tags[0] != "shorts" {
		t.Fatalf("tags = %v", got.Tags)
	}
	if len(got.Tags) > 15 {
		t.Fatalf("tags over platform limit: %d", len(got.Tags))
	}
}

func TestFallbackMetadata_OnlyLeadingWordsQualify(t *testing.T) {
	// Substantial words appearing after the first five are not drawn on.
	got := FallbackMetadata("a an we go to wonderful spectacular breathtaking", "V")
	for _, tag := range got.Tags {
		if tag == "wonderful" || tag == "spectacular" || tag == "breathtaking" {
			t.Fatalf("late word leaked into tags: %v", got.Tags)
		}
	}
	if len(got.Tags) != 5 { // fixed tags only
		t.Fatalf("tags = %v, want only the fixed five", got.Tags)
	}
	if strings.Contains(got.Title, "wonderful") {
		t.Fatalf("title = %q", got.Title)
	}
}

func TestGenerateMetadata_FallbackOnError(t *testing.T) {
	a := New(nil, fakeMetaOracle{err: errors.New("boom")})
	got := a.GenerateMetadata(context.Background(), "some segment text here", "Video")
	if !strings.HasPrefix(got.Title, "Must See: ") {
		t.Fatalf("expected template fallback, got %+v", got)
	}
}

func TestGenerateMetadata_ClampsOracleOutput(t *testing.T) {
	a := New(nil, fakeMetaOracle{res: types.MetadataResult{
		Title:       strings.Repeat("t", 200),
		Description: strings.Repeat("d", 6000),
		Tags:        make([]string, 30),
	}})
	got := a.GenerateMetadata(context.Background(), "text", "title")
	if len(got.Title) != 100 || len(got.Description) != 5000 || len(got.Tags) != 15 {
		t.Fatalf("not clamped: title=%d desc=%d tags=%d", len(got.Title), len(got.Description), len(got.Tags))
	}
}

func TestClampMetadata_EmptyTitle(t *testing.T) {
	got := clampMetadata(types.MetadataResult{Title: "   "})
	if got.Title != "Highlight" {
		t.Fatalf("title = %q, want Highlight", got.Title)
	}
}
