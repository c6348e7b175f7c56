package reporting

import (
	"context"
	"errors"

	"call-ingest/internal/calls"
)

var ErrInvalidRequest = errors.New("reporting: invalid request")

// CallLister is the read side reporting aggregates over.
// *calls.Service and *calls.MemoryRepo both satisfy it.
type CallLister interface {
	List(ctx context.Context) ([]calls.CallRecord, error)
}

type Service struct {
	source CallLister
}

func NewService(source CallLister) *Service { return &Service{source: source} }

func (s *Service) CallsSummary(ctx context.Context, req CallsSummaryRequest) (CallsSummary, error) {
	if !req.Range.From.IsZero() && !req.Range.To.IsZero() && !req.Range.To.After(req.Range.From) {
		return CallsSummary{}, ErrInvalidRequest
	}
	if s.source == nil {
		return CallsSummary{}, calls.ErrConfiguration
	}

	rows, err := s.source.List(ctx)
	if err != nil {
		return CallsSummary{}, err
	}

	filtered := rows[:0:0]
	for _, c := range rows {
		if !req.Range.contains(c.CreatedAt) {
			continue
		}
		if req.Direction != "" && (c.Direction == nil || *c.Direction != req.Direction) {
			continue
		}
		filtered = append(filtered, c)
	}
	return Summarize(filtered), nil
}

// Summarize aggregates rows without filtering.
func Summarize(rows []calls.CallRecord) CallsSummary {
	out := CallsSummary{
		ByStatus:    map[string]int{},
		ByDirection: map[string]int{},
		Sentiment:   map[string]int{},
	}
	var timed int64
	for _, c := range rows {
		out.TotalCalls++
		out.ByStatus[c.Status]++

		dir := "unknown"
		if c.Direction != nil && *c.Direction != "" {
			dir = *c.Direction
		}
		out.ByDirection[dir]++

		switch c.Status {
		case calls.CallStatusEnded:
			out.EndedCalls++
		case calls.CallStatusError:
			out.ErroredCalls++
		case calls.CallStatusStarted:
			out.InProgressCalls++
		}

		if c.DurationMS != nil {
			out.TotalDurationMS += *c.DurationMS
			timed++
		}
		if c.RecordingURL != nil && *c.RecordingURL != "" {
			out.RecordedCalls++
		}

		a, err := calls.DecodeAnalysis(c)
		if err != nil {
			// absent or unparseable analysis is simply not counted
			continue
		}
		out.AnalyzedCalls++
		if label := a.SentimentLabel(); label != "" {
			out.Sentiment[label]++
		}
	}
	if timed > 0 {
		out.AverageDurationMS = out.TotalDurationMS / timed
	}
	return out
}
