package ingestion

import (
	"strings"

	"github.com/poiesic/capsearch/core"
)

// DefaultMergeSeconds is the window length used when merging is enabled
// without an explicit duration.
const DefaultMergeSeconds = 20

// MergeCaptions concatenates consecutive captions until each merged caption
// spans at least minSeconds. The trailing group is kept even if it is
// shorter. A non-positive minSeconds returns the captions unchanged.
func MergeCaptions(captions []core.Caption, minSeconds float64) []core.Caption {
	if minSeconds <= 0 || len(captions) == 0 {
		return captions
	}

	merged := make([]core.Caption, 0, len(captions))
	var (
		parts []string
		start float64
		end   float64
	)
	flush := func() {
		merged = append(merged, core.Caption{
			Text:     strings.Join(parts, " "),
			Start:    start,
			Duration: end - start,
		})
		parts = parts[:0]
	}

	for _, c := range captions {
		if len(parts) == 0 {
			start = c.Start
		}
		parts = append(parts, strings.TrimSpace(c.Text))
		end = max(c.Start+c.Duration, start)
		if end-start >= minSeconds {
			flush()
		}
	}
	if len(parts) > 0 {
		flush()
	}
	return merged
}
