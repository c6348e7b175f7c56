package main

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"call-ingest/internal/calls"
	"call-ingest/internal/config"
	"call-ingest/internal/reporting"

	"github.com/spf13/cobra"
	"github.com/xuri/excelize/v2"
)

var callColumns = []string{
	"id", "call_id", "call_type", "from_number", "to_number", "direction",
	"agent_id", "agent_version", "call_status", "start_timestamp", "end_timestamp",
	"duration_ms", "transcript", "recording_url", "sentiment", "summary",
	"call_analysis", "created_at", "updated_at",
}

func newExportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all stored calls to an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := config.StorageFromEnv()
			if err := sc.Validate(); err != nil {
				return fmt.Errorf("storage config: %w", err)
			}
			sc.AutoMigrate = false

			db, err := calls.Open(cmd.Context(), sc)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer db.Close()

			n, err := exportCalls(cmd.Context(), calls.NewPostgresRepo(db), out)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d calls to %s\n", n, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "calls.xlsx", "output workbook path")
	return cmd
}

// exportCalls writes a Calls sheet (one row per record, newest first) and a
// Summary sheet to path.
func exportCalls(ctx context.Context, src reporting.CallLister, path string) (int, error) {
	recs, err := src.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list calls: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const callsSheet = "Calls"
	if err := f.SetSheetName("Sheet1", callsSheet); err != nil {
		return 0, err
	}
	if err := writeRow(f, callsSheet, 1, toAny(callColumns)); err != nil {
		return 0, err
	}
	for i, r := range recs {
		if err := writeRow(f, callsSheet, i+2, callRow(r)); err != nil {
			return 0, err
		}
	}

	if err := writeSummarySheet(f, reporting.Summarize(recs)); err != nil {
		return 0, err
	}

	if err := f.SaveAs(path); err != nil {
		return 0, fmt.Errorf("save %s: %w", path, err)
	}
	return len(recs), nil
}

func callRow(r calls.CallRecord) []any {
	var sentiment, summary string
	if a, err := calls.DecodeAnalysis(r); err == nil {
		sentiment = a.SentimentLabel()
		summary = a.SummaryText()
	}
	return []any{
		r.ID, r.CallID, r.CallType, deref(r.FromNumber), deref(r.ToNumber), deref(r.Direction),
		r.AgentID, r.AgentVersion, r.Status, deref(r.StartTimestamp), deref(r.EndTimestamp),
		derefInt(r.DurationMS), deref(r.Transcript), deref(r.RecordingURL), sentiment, summary,
		deref(r.Analysis), r.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
		r.UpdatedAt.UTC().Format("2006-01-02T15:04:05.000Z"),
	}
}

func writeSummarySheet(f *excelize.File, s reporting.CallsSummary) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	rows := [][]any{
		{"metric", "value"},
		{"total_calls", s.TotalCalls},
		{"ended_calls", s.EndedCalls},
		{"errored_calls", s.ErroredCalls},
		{"in_progress_calls", s.InProgressCalls},
		{"total_duration_ms", s.TotalDurationMS},
		{"average_duration_ms", s.AverageDurationMS},
		{"recorded_calls", s.RecordedCalls},
		{"analyzed_calls", s.AnalyzedCalls},
	}
	rows = appendCounts(rows, "direction", s.ByDirection)
	rows = appendCounts(rows, "sentiment", s.Sentiment)
	for i, row := range rows {
		if err := writeRow(f, sheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

// appendCounts adds one "prefix:key" row per entry, sorted by key.
func appendCounts(rows [][]any, prefix string, m map[string]int) [][]any {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rows = append(rows, []any{prefix + ":" + k, m[k]})
	}
	return rows
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}
