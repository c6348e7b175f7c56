package calls

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory repository useful for tests.
// It applies the same conflict rules as the Postgres upsert.
// It is not intended for production use.
type MemoryRepo struct {
	mu     sync.Mutex
	byCall map[string]CallRecord
	writes int

	// Err, when set, is returned by every call.
	Err error
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{byCall: map[string]CallRecord{}} }

func (r *MemoryRepo) Upsert(ctx context.Context, rec CallRecord, overwrite FieldSet) (UpsertResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return UpsertResult{}, r.Err
	}
	r.writes++

	existing, ok := r.byCall[rec.CallID]
	if !ok {
		r.byCall[rec.CallID] = rec
		return UpsertResult{ID: rec.ID, CreatedAt: rec.CreatedAt, UpdatedAt: rec.UpdatedAt, Created: true}, nil
	}

	mergeInto(&existing, rec, overwrite)
	existing.UpdatedAt = rec.UpdatedAt
	r.byCall[rec.CallID] = existing
	return UpsertResult{ID: existing.ID, CreatedAt: existing.CreatedAt, UpdatedAt: existing.UpdatedAt}, nil
}

func (r *MemoryRepo) List(ctx context.Context) ([]CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	out := make([]CallRecord, 0, len(r.byCall))
	for _, c := range r.byCall {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// Put stores rec as-is, bypassing conflict handling. Used to seed fixtures.
func (r *MemoryRepo) Put(rec CallRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byCall[rec.CallID] = rec
}

// Get returns the stored record for a call id.
func (r *MemoryRepo) Get(callID string) (CallRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.byCall[callID]
	return c, ok
}

// Len is the number of stored records.
func (r *MemoryRepo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byCall)
}

// Writes counts Upsert calls that reached storage.
func (r *MemoryRepo) Writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}
