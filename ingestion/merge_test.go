package ingestion

import (
	"testing"

	"github.com/poiesic/capsearch/core"
	"github.com/stretchr/testify/assert"
)

func TestMergeCaptions(t *testing.T) {
	captions := []core.Caption{
		{Text: "first", Start: 0, Duration: 5},
		{Text: " second ", Start: 5, Duration: 5},
		{Text: "third", Start: 10, Duration: 15},
		{Text: "fourth", Start: 25, Duration: 2},
	}

	tests := []struct {
		name       string
		minSeconds float64
		want       []core.Caption
	}{
		{
			name:       "disabled",
			minSeconds: 0,
			want:       captions,
		},
		{
			name:       "default window",
			minSeconds: DefaultMergeSeconds,
			want: []core.Caption{
				{Text: "first second third", Start: 0, Duration: 25},
				{Text: "fourth", Start: 25, Duration: 2},
			},
		},
		{
			name:       "every caption long enough",
			minSeconds: 2,
			want: []core.Caption{
				{Text: "first", Start: 0, Duration: 5},
				{Text: "second", Start: 5, Duration: 5},
				{Text: "third", Start: 10, Duration: 15},
				{Text: "fourth", Start: 25, Duration: 2},
			},
		},
		{
			name:       "window longer than the track",
			minSeconds: 100,
			want: []core.Caption{
				{Text: "first second third fourth", Start: 0, Duration: 27},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MergeCaptions(captions, tt.minSeconds))
		})
	}
}

func TestMergeCaptions_Empty(t *testing.T) {
	assert.Empty(t, MergeCaptions(nil, 20))
	assert.Empty(t, MergeCaptions([]core.Caption{}, 20))
}
