package calls

import (
	"encoding/json"
	"errors"
)

// Analysis is a typed view over the stored call_analysis text.
//
// The reconciler never interprets analysis payloads; only readers that need
// specific fields (reporting, export) decode them. Both the legacy shape
// (sentiment/summary) and the platform's current shape
// (user_sentiment/call_summary) are recognised.
type Analysis struct {
	Sentiment       string   `json:"sentiment,omitempty"`
	UserSentiment   string   `json:"user_sentiment,omitempty"`
	Summary         string   `json:"summary,omitempty"`
	CallSummary     string   `json:"call_summary,omitempty"`
	KeyPoints       []string `json:"key_points,omitempty"`
	NextSteps       []string `json:"next_steps,omitempty"`
	ConfidenceScore *float64 `json:"confidence_score,omitempty"`
	CallSuccessful  *bool    `json:"call_successful,omitempty"`
	InVoicemail     *bool    `json:"in_voicemail,omitempty"`
}

var ErrNoAnalysis = errors.New("calls: record has no analysis")

// DecodeAnalysis parses the record's stored analysis.
func DecodeAnalysis(rec CallRecord) (Analysis, error) {
	if rec.Analysis == nil || *rec.Analysis == "" {
		return Analysis{}, ErrNoAnalysis
	}
	var a Analysis
	if err := json.Unmarshal([]byte(*rec.Analysis), &a); err != nil {
		return Analysis{}, err
	}
	return a, nil
}

// SentimentLabel returns whichever sentiment field the payload carried.
func (a Analysis) SentimentLabel() string {
	if a.Sentiment != "" {
		return a.Sentiment
	}
	return a.UserSentiment
}

// SummaryText returns whichever summary field the payload carried.
func (a Analysis) SummaryText() string {
	if a.Summary != "" {
		return a.Summary
	}
	return a.CallSummary
}
