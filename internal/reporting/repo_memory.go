package reporting

import (
	"context"
	"sync"

	"call-ingest/internal/calls"
)

// MemorySource is a fixed CallLister for tests and offline exports.
type MemorySource struct {
	mu sync.Mutex

	Calls []calls.CallRecord
	Err   error
}

func NewMemorySource(rows ...calls.CallRecord) *MemorySource {
	return &MemorySource{Calls: rows}
}

func (m *MemorySource) List(ctx context.Context) ([]calls.CallRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]calls.CallRecord, len(m.Calls))
	copy(out, m.Calls)
	return out, nil
}
