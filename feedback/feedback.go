// Package feedback holds the pre-computed resume review attached to an upload
// and the presentation rules the results page applies to it.
package feedback

import (
	"encoding/json"
	"errors"
	"fmt"
)

// TipType marks a tip as praise or as something to fix
type TipType string

const (
	TipGood    TipType = "good"
	TipImprove TipType = "improve"
)

// Tip is a single review remark
type Tip struct {
	Type        TipType `json:"type"`
	Tip         string  `json:"tip"`
	Explanation string  `json:"explanation,omitempty"`
}

// Category is one scored area of the review
type Category struct {
	Score int   `json:"score"`
	Tips  []Tip `json:"tips"`
}

// Feedback is the full review of a resume against a job description
type Feedback struct {
	OverallScore int      `json:"overallScore"`
	ATS          Category `json:"ATS"`
	ToneAndStyle Category `json:"toneAndStyle"`
	Content      Category `json:"content"`
	Structure    Category `json:"structure"`
	Skills       Category `json:"skills"`
}

// ErrInvalidFeedback is returned by Parse and Validate for out of range scores or unknown tip types
var ErrInvalidFeedback = errors.New("invalid feedback")

// Parse decodes and validates a feedback document
func Parse(data []byte) (*Feedback, error) {
	var fb Feedback
	if err := json.Unmarshal(data, &fb); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFeedback, err)
	}
	if err := fb.Validate(); err != nil {
		return nil, err
	}
	return &fb, nil
}

// Validate checks every score is within 0..100 and every tip has a known type
func (f *Feedback) Validate() error {
	if err := checkScore("overallScore", f.OverallScore); err != nil {
		return err
	}
	categories := map[string]Category{"ATS": f.ATS}
	for _, s := range f.Sections() {
		categories[s.Key] = s.Category
	}
	for name, c := range categories {
		if err := checkScore(name, c.Score); err != nil {
			return err
		}
		for i, tip := range c.Tips {
			if tip.Type != TipGood && tip.Type != TipImprove {
				return fmt.Errorf("%w: %s tip %d has type %q", ErrInvalidFeedback, name, i, tip.Type)
			}
		}
	}
	return nil
}

func checkScore(name string, score int) error {
	if score < 0 || score > 100 {
		return fmt.Errorf("%w: %s score %d outside 0..100", ErrInvalidFeedback, name, score)
	}
	return nil
}

// ATSHighlights returns the tips shown on the ATS card, at most three
func (f *Feedback) ATSHighlights() []Tip {
	if len(f.ATS.Tips) > 3 {
		return f.ATS.Tips[:3]
	}
	return f.ATS.Tips
}
