package calls

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"
)

func TestUpsertSQL_ReplaceOverwritesEveryColumn(t *testing.T) {
	q := upsertSQL(AllFields)
	if !strings.Contains(q, "ON CONFLICT (call_id)") {
		t.Fatalf("upsert must conflict on call_id:\n%s", q)
	}
	for _, col := range mutableColumns {
		if !strings.Contains(q, col.name+" = EXCLUDED."+col.name) {
			t.Fatalf("missing overwrite for %s:\n%s", col.name, q)
		}
	}
	for _, kept := range []string{`\bid = EXCLUDED`, `\bcreated_at = EXCLUDED`, `\bcall_id = EXCLUDED`} {
		if regexp.MustCompile(kept).MatchString(q) {
			t.Fatalf("%s must never be overwritten:\n%s", kept, q)
		}
	}
	if !strings.Contains(q, "updated_at = EXCLUDED.updated_at") {
		t.Fatalf("updated_at must always refresh:\n%s", q)
	}
}

func TestUpsertSQL_MergeOverwritesOnlyProvided(t *testing.T) {
	q := upsertSQL(FieldStatus | FieldTranscript)
	if !strings.Contains(q, "call_status = EXCLUDED.call_status") || !strings.Contains(q, "transcript = EXCLUDED.transcript") {
		t.Fatalf("missing provided columns:\n%s", q)
	}
	if strings.Contains(q, "agent_id = EXCLUDED") {
		t.Fatalf("agent_id must not be overwritten:\n%s", q)
	}
}

func TestUpsertSQL_EmptySetStillTouchesRow(t *testing.T) {
	q := upsertSQL(0)
	if !strings.Contains(q, "DO UPDATE SET updated_at = EXCLUDED.updated_at") {
		t.Fatalf("empty merge must still refresh updated_at:\n%s", q)
	}
}

func TestMemoryRepo_MergeKeepsIdentity(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	res, err := repo.Upsert(ctx, CallRecord{ID: "a", CallID: "c1", Status: "started", CreatedAt: t0, UpdatedAt: t0}, AllFields)
	if err != nil || !res.Created {
		t.Fatalf("expected insert, got %+v %v", res, err)
	}
	t1 := t0.Add(time.Minute)
	res, err = repo.Upsert(ctx, CallRecord{ID: "b", CallID: "c1", Status: "ended", CreatedAt: t1, UpdatedAt: t1}, FieldStatus)
	if err != nil || res.Created {
		t.Fatalf("expected update, got %+v %v", res, err)
	}
	if res.ID != "a" || !res.CreatedAt.Equal(t0) || !res.UpdatedAt.Equal(t1) {
		t.Fatalf("identity not preserved: %+v", res)
	}
	got, _ := repo.Get("c1")
	if got.Status != "ended" {
		t.Fatalf("expected status overwrite, got %s", got.Status)
	}
}
