package subtitles

import (
	"strings"
	"testing"
	"time"

	"github.com/vgrishin/shortreel/internal/types"
)

func TestRender_ClipLocalTimes(t *testing.T) {
	segs := []types.TranscriptSegment{
		{Start: 0, End: 10, Text: "before the window"},
		{Start: 20, End: 25, Text: "inside the window"},
		{Start: 60, End: 70, Text: "after the window"},
	}
	out := Render(segs, 15, 45)
	if !strings.Contains(out, "inside the window") {
		t.Fatalf("window text missing:\n%s", out)
	}
	if strings.Contains(out, "before the window") || strings.Contains(out, "after the window") {
		t.Fatalf("out-of-window text leaked:\n%s", out)
	}
	// Segment at absolute 20s starts 5s into the clip.
	if !strings.Contains(out, "Dialogue: 0,0:00:05.00,0:00:10.00,") {
		t.Fatalf("event times not clip-local:\n%s", out)
	}
}

func TestRender_ClampsOverlappingSegment(t *testing.T) {
	segs := []types.TranscriptSegment{
		{Start: 10, End: 40, Text: "spans past the end"},
	}
	out := Render(segs, 15, 30)
	if !strings.Contains(out, "0:00:00.00") {
		t.Fatalf("segment start not clamped to clip start:\n%s", out)
	}
	if strings.Contains(out, "0:00:25.00") {
		t.Fatalf("segment end not clamped to clip end:\n%s", out)
	}
}

func TestRender_HeaderIsVertical(t *testing.T) {
	out := Render(nil, 0, 30)
	if !strings.Contains(out, "PlayResX: 1080") || !strings.Contains(out, "PlayResY: 1920") {
		t.Fatalf("header:\n%s", out)
	}
}

func TestSplitLines_RespectsBudgets(t *testing.T) {
	text := strings.TrimSpace(strings.Repeat("word ", 20))
	events := splitLines(text, 0, 20*time.Second)
	if len(events) < 2 {
		t.Fatalf("long text not split: %d events", len(events))
	}
	for _, ev := range events {
		if n := len(strings.Fields(ev.Text)); n > lineWordBudget {
			t.Fatalf("line has %d words: %q", n, ev.Text)
		}
	}
	// Contiguous, covering the full span.
	if events[0].Start != 0 || events[len(events)-1].End != 20*time.Second {
		t.Fatalf("events do not cover span: %+v", events)
	}
	for i := 1; i < len(events); i++ {
		if events[i].Start != events[i-1].End {
			t.Fatalf("gap between events %d and %d", i-1, i)
		}
	}
}

func TestSanitize(t *testing.T) {
	if got := sanitize(`a {\k10} b`); strings.ContainsAny(got, "{}") {
		t.Fatalf("braces survived: %q", got)
	}
}
