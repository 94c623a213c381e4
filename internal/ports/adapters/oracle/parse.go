package oracle

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/vgrishin/shortreel/internal/types"
)

// Model output is parsed field by field with gjson rather than strict
// unmarshaling: gateways wrap or fence JSON in ways encoding/json chokes on,
// and a partially usable object is still better than the fallback heuristic.

func parseScoreResult(raw string) (types.ScoreResult, error) {
	doc, err := extractJSONObject(raw)
	if err != nil {
		return types.ScoreResult{}, err
	}
	if !gjson.Get(doc, "engagement_score").Exists() {
		return types.ScoreResult{}, errors.New("response missing engagement_score")
	}
	res := types.ScoreResult{
		Engagement:     clamp01(gjson.Get(doc, "engagement_score").Float()),
		Emotion:        clamp01(gjson.Get(doc, "emotion_score").Float()),
		ViralPotential: clamp01(gjson.Get(doc, "viral_potential").Float()),
		Quotability:    clamp01(gjson.Get(doc, "quotability").Float()),
		Emotions:       stringList(gjson.Get(doc, "emotions"), 5),
		Keywords:       stringList(gjson.Get(doc, "keywords"), 10),
		Reason:         truncate(gjson.Get(doc, "reason").String(), 500),
	}
	return res, nil
}

func parseMetadataResult(raw string) (types.MetadataResult, error) {
	doc, err := extractJSONObject(raw)
	if err != nil {
		return types.MetadataResult{}, err
	}
	title := strings.TrimSpace(gjson.Get(doc, "title").String())
	if title == "" {
		return types.MetadataResult{}, errors.New("response missing title")
	}
	return types.MetadataResult{
		Title:       title,
		Description: gjson.Get(doc, "description").String(),
		Tags:        stringList(gjson.Get(doc, "tags"), 15),
	}, nil
}

func extractJSONObject(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return "", errors.New("empty content")
	}
	if strings.HasPrefix(t, "```") {
		if i := strings.Index(t, "\n"); i >= 0 {
			t = t[i+1:]
		}
		if j := strings.LastIndex(t, "```"); j >= 0 {
			t = t[:j]
		}
		t = strings.TrimSpace(t)
	}
	start := strings.Index(t, "{")
	end := strings.LastIndex(t, "}")
	if start < 0 || end <= start {
		return "", errors.New("no JSON object in content")
	}
	t = t[start : end+1]
	if !gjson.Valid(t) {
		return "", errors.New("malformed JSON object in content")
	}
	return t, nil
}

func stringList(res gjson.Result, limit int) []string {
	if !res.IsArray() {
		return nil
	}
	var out []string
	for _, item := range res.Array() {
		v := strings.TrimSpace(item.String())
		if v == "" {
			continue
		}
		out = append(out, v)
		if len(out) >= limit {
			break
		}
	}
	return out
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
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
