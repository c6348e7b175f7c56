package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"call-ingest/internal/calls"
	"call-ingest/internal/reporting"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportCalls_WritesBothSheets(t *testing.T) {
	analysis := `{"sentiment":"positive","summary":"good call"}`
	dur := int64(300000)
	dir := "inbound"
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src := reporting.NewMemorySource(
		calls.CallRecord{ID: "b", CallID: "c2", Status: "ended", Direction: &dir, DurationMS: &dur, Analysis: &analysis, CreatedAt: base.Add(time.Hour), UpdatedAt: base.Add(time.Hour)},
		calls.CallRecord{ID: "a", CallID: "c1", Status: "started", CreatedAt: base, UpdatedAt: base},
	)
	path := filepath.Join(t.TempDir(), "calls.xlsx")

	n, err := exportCalls(context.Background(), src, path)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Calls", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Calls")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "call_id", rows[0][1])
	assert.Equal(t, "c2", rows[1][1])
	assert.Equal(t, "300000", rows[1][11])
	assert.Equal(t, "positive", rows[1][14])
	assert.Equal(t, "good call", rows[1][15])

	total, err := f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "2", total)
}

func TestExportCalls_ListFailure(t *testing.T) {
	src := reporting.NewMemorySource()
	src.Err = errors.New("db down")

	_, err := exportCalls(context.Background(), src, filepath.Join(t.TempDir(), "x.xlsx"))
	assert.Error(t, err)
}
