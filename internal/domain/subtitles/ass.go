package subtitles

import (
	"fmt"
	"strings"
	"time"

	"github.com/vgrishin/shortreel/internal/types"
)

// Readability budgets for one on-screen line on a vertical layout.
const (
	lineCharBudget = 32
	lineWordBudget = 7
)

// Render builds an ASS subtitle document for the [startSec,endSec) clip
// window from the full transcript. Event times are clip-local because each
// clip gets its own sidecar file. Long segment texts are split into short
// lines with screen time allocated proportionally to word length.
func Render(segments []types.TranscriptSegment, startSec, endSec float64) string {
	var events []event
	start := dur(startSec)
	end := dur(endSec)
	for _, s := range segments {
		ss := dur(s.Start)
		se := dur(s.End)
		if se <= start || ss >= end {
			continue
		}
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		if ss < start {
			ss = start
		}
		if se > end {
			se = end
		}
		events = append(events, splitLines(text, ss-start, se-start)...)
	}
	return render(events)
}

type event struct {
	Start time.Duration
	End   time.Duration
	Text  string
}

// splitLines breaks one segment's text into line-sized events spread across
// the segment's time span, proportional to each line's share of the words.
func splitLines(text string, start, end time.Duration) []event {
	words := strings.Fields(text)
	var lines [][]string
	var cur []string
	curLen := 0
	for _, w := range words {
		wl := len([]rune(w))
		nextLen := curLen + wl
		if curLen > 0 {
			nextLen++
		}
		if len(cur) >= lineWordBudget || (curLen > 0 && nextLen > lineCharBudget) {
			lines = append(lines, cur)
			cur = nil
			curLen = 0
			nextLen = wl
		}
		cur = append(cur, w)
		curLen = nextLen
	}
	if len(cur) > 0 {
		lines = append(lines, cur)
	}

	total := 0
	for _, ln := range lines {
		total += len(ln)
	}
	span := end - start
	var out []event
	at := start
	done := 0
	for i, ln := range lines {
		done += len(ln)
		lineEnd := start + time.Duration(float64(span)*float64(done)/float64(total))
		if i == len(lines)-1 {
			lineEnd = end
		}
		out = append(out, event{Start: at, End: lineEnd, Text: sanitize(strings.Join(ln, " "))})
		at = lineEnd
	}
	return out
}

func render(events []event) string {
	var b strings.Builder
	b.WriteString(header())
	b.WriteString("\n[Events]\n")
	b.WriteString("Format: Layer, Start, End, Style, Name, MarginL, MarginR, MarginV, Effect, Text\n")
	for _, ev := range events {
		b.WriteString("Dialogue: 0,")
		b.WriteString(assTime(ev.Start))
		b.WriteString(",")
		b.WriteString(assTime(ev.End))
		b.WriteString(",Shorts,,0,0,0,,")
		b.WriteString(ev.Text)
		b.WriteString("\n")
	}
	return b.String()
}

func header() string {
	return strings.TrimSpace(`
[Script Info]
ScriptType: v4.00+
PlayResX: 1080
PlayResY: 1920
ScaledBorderAndShadow: yes

[V4+ Styles]
Format: Name, Fontname, Fontsize, PrimaryColour, SecondaryColour, OutlineColour, BackColour, Bold, Italic, Underline, StrikeOut, ScaleX, ScaleY, Spacing, Angle, BorderStyle, Outline, Shadow, Alignment, MarginL, MarginR, MarginV, Encoding
Style: Shorts, Inter, 72, &H00FFFFFF, &H00FFD200, &H00000000, &H64000000, 1,0,0,0,100,100,0,0,1,6,2,2, 60,60,260,1
`)
}

func assTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hs := int(d / time.Hour)
	d -= time.Duration(hs) * time.Hour
	ms := int(d / time.Minute)
	d -= time.Duration(ms) * time.Minute
	s := int(d / time.Second)
	d -= time.Duration(s) * time.Second
	cs := int(d / (10 * time.Millisecond))
	return fmt.Sprintf("%d:%02d:%02d.%02d", hs, ms, s, cs)
}

func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "{", "(")
	s = strings.ReplaceAll(s, "}", ")")
	return strings.TrimSpace(s)
}

func dur(sec float64) time.Duration { return time.Duration(sec * float64(time.Second)) }
