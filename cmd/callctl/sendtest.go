package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"call-ingest/internal/telephony"

	"github.com/spf13/cobra"
)

// sampleEvent is one webhook delivery in the shape the platform sends.
type sampleEvent struct {
	Name  string         `json:"-"`
	Event string         `json:"event"`
	Call  map[string]any `json:"call"`
}

// sampleLifecycle returns started, ended and analyzed events for one call.
func sampleLifecycle(callID string, now time.Time) []sampleEvent {
	iso := func(t time.Time) string { return t.UTC().Format("2006-01-02T15:04:05.000Z") }
	base := func() map[string]any {
		return map[string]any{
			"call_id":       callID,
			"call_type":     "phone_call",
			"from_number":   "+15551234567",
			"to_number":     "+15559876543",
			"direction":     "inbound",
			"agent_id":      "agent_sales_001",
			"agent_version": 1,
		}
	}
	start := now.Add(-5 * time.Minute)

	started := base()
	started["call_status"] = "started"
	started["start_timestamp"] = iso(start)

	ended := base()
	ended["call_status"] = "ended"
	ended["start_timestamp"] = iso(start)
	ended["end_timestamp"] = iso(now)
	ended["duration_ms"] = 300000
	ended["transcript"] = "Hello, this is a test call. The customer asked about our products and seems interested in the premium package."
	ended["recording_url"] = "https://example.com/recording/test_call.mp3"

	analyzed := base()
	for k, v := range ended {
		analyzed[k] = v
	}
	analyzed["call_analysis"] = map[string]any{
		"sentiment": "positive",
		"summary":   "Successful sales call with strong interest in the premium package",
		"key_points": []string{
			"Customer interested in premium package",
			"Discussed pricing and features",
		},
		"next_steps":       []string{"Send detailed proposal", "Schedule follow-up call"},
		"confidence_score": 0.85,
	}

	return []sampleEvent{
		{Name: "Call Started Event", Event: "call_started", Call: started},
		{Name: "Call Ended Event", Event: "call_ended", Call: ended},
		{Name: "Call Analyzed Event", Event: "call_analyzed", Call: analyzed},
	}
}

type sender struct {
	client *http.Client
	url    string
	secret string
	pause  time.Duration
	now    func() time.Time
}

// send posts each event in order and reports per-event status to out.
// It returns an error if any delivery is not acknowledged with 200.
func (s sender) send(ctx context.Context, events []sampleEvent, out io.Writer) error {
	failed := 0
	for i, ev := range events {
		if i > 0 && s.pause > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.pause):
			}
		}

		body, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if s.secret != "" {
			req.Header.Set(telephony.SignatureHeader, telephony.Sign(s.secret, body, s.now()))
		}

		fmt.Fprintf(out, "%s (%s, call %v)\n", ev.Name, ev.Event, ev.Call["call_id"])
		resp, err := s.client.Do(req)
		if err != nil {
			failed++
			fmt.Fprintf(out, "  request failed: %v\n", err)
			continue
		}
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			failed++
		}
		fmt.Fprintf(out, "  %d %s\n", resp.StatusCode, bytes.TrimSpace(respBody))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d deliveries failed", failed, len(events))
	}
	return nil
}

func newSendTestCmd() *cobra.Command {
	var (
		url    string
		callID string
		secret string
		pause  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send-test",
		Short: "Post a sample call lifecycle to a webhook endpoint",
		Long:  "Sends call_started, call_ended and call_analyzed for one call. Deliveries are signed when a secret is set.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = os.Getenv("WEBHOOK_SIGNING_SECRET")
			}
			now := time.Now()
			if callID == "" {
				callID = fmt.Sprintf("call_test_%d", now.UnixMilli())
			}
			s := sender{
				client: &http.Client{Timeout: 15 * time.Second},
				url:    url,
				secret: secret,
				pause:  pause,
				now:    time.Now,
			}
			return s.send(cmd.Context(), sampleLifecycle(callID, now), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&url, "url", "http://localhost:8080/webhooks/calls", "webhook endpoint")
	cmd.Flags().StringVar(&callID, "call-id", "", "call id to use (default: generated)")
	cmd.Flags().StringVar(&secret, "secret", "", "signing secret (default: $WEBHOOK_SIGNING_SECRET)")
	cmd.Flags().DurationVar(&pause, "pause", 2*time.Second, "delay between deliveries")
	return cmd
}
