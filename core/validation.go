// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"encoding/json"
	"fmt"
	"math"
)

// Caption is one timed line of a caption track.
type Caption struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start,omitempty"`
	Duration float64 `json:"dur,omitempty"`
}

// rawPayload mirrors the caption JSON with pointers so missing fields can be detected.
type rawPayload struct {
	Captions *[]rawCaption `json:"captions"`
}

type rawCaption struct {
	Text     *string  `json:"text"`
	Start    *float64 `json:"start"`
	Duration *float64 `json:"dur"`
}

// ParseCaptions decodes a caption payload of the form
// {"captions": [{"text": "...", "start": 1.2, "dur": 3.4}, ...]}.
//
// Validation rules:
//   - The payload must be a JSON object with a captions array
//   - Every caption must carry a text field (it may be empty)
//   - Timing fields are optional and must be finite and non-negative
func ParseCaptions(data []byte) ([]Caption, error) {
	var payload rawPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if payload.Captions == nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, ErrMissingCaptions)
	}

	captions := make([]Caption, len(*payload.Captions))
	for i, raw := range *payload.Captions {
		if raw.Text == nil {
			return nil, fmt.Errorf("%w: %w: caption %d", ErrInvalidInput, ErrMissingText, i)
		}
		captions[i].Text = *raw.Text
		if raw.Start != nil {
			captions[i].Start = *raw.Start
		}
		if raw.Duration != nil {
			captions[i].Duration = *raw.Duration
		}
		if err := ValidateCaption(&captions[i]); err != nil {
			return nil, fmt.Errorf("caption %d: %w", i, err)
		}
	}
	return captions, nil
}

// ValidateCaption checks timing fields of a caption.
//
// NOT validated:
//   - Text (empty captions are indexed as all-zero documents)
func ValidateCaption(caption *Caption) error {
	if caption == nil {
		return fmt.Errorf("%w: caption is nil", ErrInvalidInput)
	}
	if !isValidSeconds(caption.Start) {
		return fmt.Errorf("%w: invalid start %v", ErrInvalidInput, caption.Start)
	}
	if !isValidSeconds(caption.Duration) {
		return fmt.Errorf("%w: invalid duration %v", ErrInvalidInput, caption.Duration)
	}
	return nil
}

func isValidSeconds(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}
