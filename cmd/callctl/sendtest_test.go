package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"call-ingest/internal/calls"
	"call-ingest/internal/telephony"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func webhookServer(t *testing.T, repo *calls.MemoryRepo, verifier telephony.Verifier) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := telephony.RetellWebhookHandler{
		Calls:    calls.NewService(repo, calls.Options{Policy: calls.PolicyMerge}),
		Verifier: verifier,
	}
	r := gin.New()
	r.POST("/webhooks/calls", h.HandleEvent)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestSampleLifecycle_SharesCallID(t *testing.T) {
	events := sampleLifecycle("call-x", time.Now())

	require.Len(t, events, 3)
	assert.Equal(t, []string{"call_started", "call_ended", "call_analyzed"},
		[]string{events[0].Event, events[1].Event, events[2].Event})
	for _, ev := range events {
		assert.Equal(t, "call-x", ev.Call["call_id"])
	}
	assert.NotContains(t, events[0].Call, "end_timestamp")
	assert.Contains(t, events[2].Call, "call_analysis")
}

func TestSender_DeliversLifecycleSigned(t *testing.T) {
	repo := calls.NewMemoryRepo()
	srv := webhookServer(t, repo, telephony.NewHMACVerifier("s3cret", 5*time.Minute))

	var out bytes.Buffer
	s := sender{client: srv.Client(), url: srv.URL + "/webhooks/calls", secret: "s3cret", now: time.Now}
	require.NoError(t, s.send(context.Background(), sampleLifecycle("call-x", time.Now()), &out))

	assert.Equal(t, 1, repo.Len())
	rec, ok := repo.Get("call-x")
	require.True(t, ok)
	assert.Equal(t, calls.CallStatusEnded, rec.Status)
	require.NotNil(t, rec.Analysis)
	assert.Contains(t, *rec.Analysis, `"sentiment":"positive"`)
	assert.Contains(t, out.String(), "200")
}

func TestSender_ReportsRejectedDeliveries(t *testing.T) {
	repo := calls.NewMemoryRepo()
	srv := webhookServer(t, repo, telephony.NewHMACVerifier("s3cret", 5*time.Minute))

	var out bytes.Buffer
	s := sender{client: srv.Client(), url: srv.URL + "/webhooks/calls", now: time.Now}
	err := s.send(context.Background(), sampleLifecycle("call-x", time.Now()), &out)

	require.Error(t, err)
	assert.Contains(t, out.String(), "401")
	assert.Zero(t, repo.Len())
}

func TestSender_UnreachableEndpoint(t *testing.T) {
	s := sender{client: &http.Client{Timeout: time.Second}, url: "http://127.0.0.1:1/webhooks/calls", now: time.Now}
	var out bytes.Buffer
	assert.Error(t, s.send(context.Background(), sampleLifecycle("c", time.Now())[:1], &out))
}
