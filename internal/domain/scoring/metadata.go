package scoring

import (
	"fmt"
	"strings"

	"github.com/vgrishin/shortreel/internal/types"
)

// Platform-side field limits enforced at the adapter boundary.
const (
	maxTitleLen       = 100
	maxDescriptionLen = 5000
	maxTags           = 15
)

var fallbackTags = []string{"shorts", "viral", "trending", "entertainment", "mustsee"}

// FallbackMetadata builds deterministic clip metadata when the oracle is
// unavailable: a title from the first few substantial words of the segment,
// a templated description with fixed hashtags, and platform-generic tags
// extended with words drawn from the text.
func FallbackMetadata(segmentText, originalTitle string) types.MetadataResult {
	words := strings.Fields(segmentText)
	if len(words) > 5 {
		words = words[:5]
	}

	// Only the leading words feed the title and derived tags; substantial
	// ones (>3 chars) qualify.
	var keyWords []string
	for _, w := range words {
		if len(w) > 3 {
			keyWords = append(keyWords, w)
		}
	}

	head := keyWords
	if len(head) > 3 {
		head = head[:3]
	}
	title := truncate("Must See: "+strings.Join(head, " "), 60)

	excerpt := truncate(segmentText, 100)
	description := fmt.Sprintf("Incredible moment from %s\n\nContent: %s...\n\n#Shorts #Viral #MustWatch #Trending #Entertainment",
		originalTitle, excerpt)

	tags := append(append([]string{}, fallbackTags...), keyWords...)

	return clampMetadata(types.MetadataResult{
		Title:       title,
		Description: description,
		Tags:        tags,
	})
}

func clampMetadata(r types.MetadataResult) types.MetadataResult {
	r.Title = truncate(strings.TrimSpace(r.Title), maxTitleLen)
	if r.Title == "" {
		r.Title = "Highlight"
	}
	r.Description = truncate(r.Description, maxDescriptionLen)
	if len(r.Tags) > maxTags {
		r.Tags = r.Tags[:maxTags]
	}
	return r
}
