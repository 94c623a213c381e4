package oracle

import (
	"strings"
	"testing"
)

func TestParseScoreResult(t *testing.T) {
	raw := `{"engagement_score":0.8,"emotion_score":0.6,"viral_potential":0.7,"quotability":0.5,
		"emotions":["joy","surprise"],"keywords":["clip","moment"],"reason":"high energy"}`
	got, err := parseScoreResult(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Engagement != 0.8 || got.ViralPotential != 0.7 {
		t.Fatalf("scores = %+v", got)
	}
	if len(got.Emotions) != 2 || got.Emotions[0] != "joy" {
		t.Fatalf("emotions = %v", got.Emotions)
	}
	if got.Reason != "high energy" {
		t.Fatalf("reason = %q", got.Reason)
	}
}

func TestParseScoreResult_ClampsOutOfRange(t *testing.T) {
	raw := `{"engagement_score":2.5,"emotion_score":-1,"viral_potential":0.5,"quotability":0.5}`
	got, err := parseScoreResult(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Engagement != 1 || got.Emotion != 0 {
		t.Fatalf("not clamped: %v/%v", got.Engagement, got.Emotion)
	}
}

func TestParseScoreResult_FencedContent(t *testing.T) {
	raw := "```json\n{\"engagement_score\":0.9,\"emotion_score\":0.1,\"viral_potential\":0.2,\"quotability\":0.3}\n```"
	got, err := parseScoreResult(raw)
	if err != nil {
		t.Fatalf("parse fenced: %v", err)
	}
	if got.Engagement != 0.9 {
		t.Fatalf("engagement = %v", got.Engagement)
	}
}

func TestParseScoreResult_SurroundingProse(t *testing.T) {
	raw := `Here is the analysis you asked for: {"engagement_score":0.4,"emotion_score":0.4,"viral_potential":0.4,"quotability":0.4} hope that helps!`
	if _, err := parseScoreResult(raw); err != nil {
		t.Fatalf("parse with prose: %v", err)
	}
}

func TestParseScoreResult_Errors(t *testing.T) {
	for name, raw := range map[string]string{
		"empty":         "",
		"no object":     "plain text only",
		"malformed":     `{"engagement_score": }`,
		"missing score": `{"emotion_score":0.5}`,
	} {
		if _, err := parseScoreResult(raw); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseScoreResult_TruncatesLists(t *testing.T) {
	var emos, kws []string
	for i := 0; i < 20; i++ {
		emos = append(emos, `"e"`)
		kws = append(kws, `"k"`)
	}
	raw := `{"engagement_score":0.5,"emotions":[` + strings.Join(emos, ",") + `],"keywords":[` + strings.Join(kws, ",") + `]}`
	got, err := parseScoreResult(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got.Emotions) != 5 || len(got.Keywords) != 10 {
		t.Fatalf("lists not limited: %d/%d", len(got.Emotions), len(got.Keywords))
	}
}

func TestParseMetadataResult(t *testing.T) {
	raw := `{"title":" Big Moment ","description":"watch this","tags":["a","b",""]}`
	got, err := parseMetadataResult(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.Title != "Big Moment" {
		t.Fatalf("title = %q", got.Title)
	}
	if len(got.Tags) != 2 { // empty entries dropped
		t.Fatalf("tags = %v", got.Tags)
	}
}

func TestParseMetadataResult_RequiresTitle(t *testing.T) {
	if _, err := parseMetadataResult(`{"description":"x"}`); err == nil {
		t.Fatal("missing title accepted")
	}
	if _, err := parseMetadataResult(`{"title":"   "}`); err == nil {
		t.Fatal("blank title accepted")
	}
}
