package verify

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Confidence is the model's confidence tier in its judgment.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Recommendation is the model's advice on which pattern to keep.
type Recommendation string

const (
	RecommendKeepFirst   Recommendation = "keep_first"
	RecommendKeepSecond  Recommendation = "keep_second"
	RecommendKeepBoth    Recommendation = "keep_both"
	RecommendHumanReview Recommendation = "needs_human_review"
)

// QualityNotes holds a short quality assessment of each image.
type QualityNotes struct {
	Pattern1 string `json:"pattern_1"`
	Pattern2 string `json:"pattern_2"`
}

// Verification is the model's judgment on a candidate pair. It is advisory
// only and never persisted.
type Verification struct {
	IsDuplicate    bool           `json:"is_duplicate"`
	Confidence     Confidence     `json:"confidence"`
	Recommendation Recommendation `json:"recommendation"`
	Reasoning      string         `json:"reasoning"`
	QualityNotes   QualityNotes   `json:"quality_notes"`
}

// ParseError is returned when the model reply does not match the expected
// judgment shape. Raw carries the unmodified reply for diagnosis.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("unparseable verification response: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var (
	fenceOpenRegex  = regexp.MustCompile("^`{3}(?i:json)?[ \\t]*\\r?\\n?")
	fenceCloseRegex = regexp.MustCompile("\\r?\\n?`{3}$")
)

// wireVerification mirrors Verification with pointers so absent fields can
// be told apart from zero values.
type wireVerification struct {
	IsDuplicate    *bool             `json:"is_duplicate"`
	Confidence     *string           `json:"confidence"`
	Recommendation *string           `json:"recommendation"`
	Reasoning      *string           `json:"reasoning"`
	QualityNotes   *wireQualityNotes `json:"quality_notes"`
}

type wireQualityNotes struct {
	Pattern1 *string `json:"pattern_1"`
	Pattern2 *string `json:"pattern_2"`
}

// StripFence removes an optional leading code fence, with or without a json
// language tag, and its matching closing fence.
func StripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = fenceOpenRegex.ReplaceAllString(s, "")
	s = fenceCloseRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ParseVerification decodes a model reply into a Verification. Unknown
// fields, missing fields, trailing data and out-of-range enum values are
// all rejected with a *ParseError.
func ParseVerification(raw string) (*Verification, error) {
	v, err := parseVerification(StripFence(raw))
	if err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}
	return v, nil
}

func parseVerification(body string) (*Verification, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.DisallowUnknownFields()

	var w wireVerification
	if err := dec.Decode(&w); err != nil {
		return nil, fmt.Errorf("decoding: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after judgment object")
	}

	switch {
	case w.IsDuplicate == nil:
		return nil, errors.New("missing is_duplicate")
	case w.Confidence == nil:
		return nil, errors.New("missing confidence")
	case w.Recommendation == nil:
		return nil, errors.New("missing recommendation")
	case w.Reasoning == nil:
		return nil, errors.New("missing reasoning")
	case w.QualityNotes == nil || w.QualityNotes.Pattern1 == nil || w.QualityNotes.Pattern2 == nil:
		return nil, errors.New("missing quality_notes")
	}

	confidence := Confidence(*w.Confidence)
	switch confidence {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
	default:
		return nil, fmt.Errorf("invalid confidence %q", *w.Confidence)
	}

	recommendation := Recommendation(*w.Recommendation)
	switch recommendation {
	case RecommendKeepFirst, RecommendKeepSecond, RecommendKeepBoth, RecommendHumanReview:
	default:
		return nil, fmt.Errorf("invalid recommendation %q", *w.Recommendation)
	}

	return &Verification{
		IsDuplicate:    *w.IsDuplicate,
		Confidence:     confidence,
		Recommendation: recommendation,
		Reasoning:      *w.Reasoning,
		QualityNotes: QualityNotes{
			Pattern1: *w.QualityNotes.Pattern1,
			Pattern2: *w.QualityNotes.Pattern2,
		},
	}, nil
}
