package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	coreerrors "github.com/jdylanwp/trendjack/internal/core/errors"
)

// scoreWire mirrors the JSON contract with pointer score fields so a
// missing value is distinguishable from an explicit zero.
type scoreWire struct {
	IntentScore    *float64 `json:"intent_score"`
	PainPoint      string   `json:"pain_point"`
	SuggestedReply string   `json:"suggested_reply"`
	FuryScore      *float64 `json:"fury_score"`
	PainSummary    string   `json:"pain_summary"`
	PrimaryTrigger string   `json:"primary_trigger"`
	SampleQuote    string   `json:"sample_quote"`
}

// ParseScoreResponse extracts and validates the scoring JSON from a raw
// completion. The model may wrap the object in markdown fences or
// surrounding prose, so the first balanced JSON object is located before
// unmarshaling. Missing required numeric fields are an error; scores are
// clamped to [0,100].
func ParseScoreResponse(content string, furyEnabled bool) (*ScoreResponse, error) {
	raw, err := extractJSONObject(content)
	if err != nil {
		return nil, err
	}

	var wire scoreWire
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, fmt.Errorf("unmarshal score response: %w", err)
	}

	if wire.IntentScore == nil {
		return nil, fmt.Errorf("%w: intent_score", coreerrors.ErrMissingScore)
	}

	if furyEnabled && wire.FuryScore == nil {
		return nil, fmt.Errorf("%w: fury_score", coreerrors.ErrMissingScore)
	}

	resp := &ScoreResponse{
		IntentScore:    clampScore(*wire.IntentScore),
		PainPoint:      wire.PainPoint,
		SuggestedReply: wire.SuggestedReply,
		PainSummary:    wire.PainSummary,
		PrimaryTrigger: wire.PrimaryTrigger,
		SampleQuote:    wire.SampleQuote,
	}

	if wire.FuryScore != nil {
		resp.FuryScore = clampScore(*wire.FuryScore)
	}

	return resp, nil
}

// extractJSONObject returns the first balanced top-level JSON object in
// the text. String contents are tracked so braces inside values do not
// unbalance the scan.
func extractJSONObject(content string) (string, error) {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return "", coreerrors.ErrNoJSONObject
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(content); i++ {
		ch := content[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}

			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return content[start : i+1], nil
			}
		}
	}

	return "", coreerrors.ErrNoJSONObject
}

func clampScore(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > maxScoreValue:
		return maxScoreValue
	default:
		return int(v)
	}
}
