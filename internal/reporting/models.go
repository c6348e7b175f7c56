package reporting

import "time"

// TimeRange bounds records by created_at, inclusive of From and exclusive of To.
// A zero bound is open.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r TimeRange) contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To) {
		return false
	}
	return true
}

// CallsSummaryRequest requests aggregated call metrics.
// The zero value summarizes every stored call.
type CallsSummaryRequest struct {
	Range     TimeRange `json:"range"`
	Direction string    `json:"direction,omitempty"`
}

type CallsSummary struct {
	TotalCalls      int `json:"total_calls"`
	EndedCalls      int `json:"ended_calls"`
	ErroredCalls    int `json:"errored_calls"`
	InProgressCalls int `json:"in_progress_calls"`

	ByStatus    map[string]int `json:"by_status"`
	ByDirection map[string]int `json:"by_direction"`

	TotalDurationMS   int64 `json:"total_duration_ms"`
	AverageDurationMS int64 `json:"average_duration_ms"`

	RecordedCalls int `json:"recorded_calls"`
	AnalyzedCalls int `json:"analyzed_calls"`

	// Sentiment counts analyzed calls by the sentiment label the platform reported.
	Sentiment map[string]int `json:"sentiment"`
}
