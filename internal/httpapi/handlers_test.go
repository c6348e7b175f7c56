package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"call-ingest/internal/calls"
	"call-ingest/internal/reporting"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func serve(r http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func seeded() *calls.MemoryRepo {
	repo := calls.NewMemoryRepo()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	analysis := `{"sentiment":"positive"}`
	repo.Put(calls.CallRecord{ID: "a", CallID: "c-old", Status: "ended", Analysis: &analysis, CreatedAt: base})
	repo.Put(calls.CallRecord{ID: "b", CallID: "c-new", Status: "started", CreatedAt: base.Add(time.Hour)})
	return repo
}

func TestListCalls_ReturnsNewestFirst(t *testing.T) {
	svc := calls.NewService(seeded(), calls.Options{})
	r := gin.New()
	r.GET("/api/calls", Handlers{Calls: svc}.ListCalls)

	w := serve(r, http.MethodGet, "/api/calls")

	require.Equal(t, http.StatusOK, w.Code)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "c-new", got[0]["call_id"])
	assert.Equal(t, "c-old", got[1]["call_id"])
	assert.Equal(t, `{"sentiment":"positive"}`, got[1]["call_analysis"])
	assert.Nil(t, got[0]["call_analysis"])
}

func TestListCalls_EmptyIsArray(t *testing.T) {
	svc := calls.NewService(calls.NewMemoryRepo(), calls.Options{})
	r := gin.New()
	r.GET("/api/calls", Handlers{Calls: svc}.ListCalls)

	w := serve(r, http.MethodGet, "/api/calls")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestListCalls_StorageFailure(t *testing.T) {
	repo := calls.NewMemoryRepo()
	repo.Err = errors.New("relation \"calls\" does not exist")
	r := gin.New()
	r.GET("/api/calls", Handlers{Calls: calls.NewService(repo, calls.Options{})}.ListCalls)

	w := serve(r, http.MethodGet, "/api/calls")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Failed to fetch calls", body["error"])
	assert.Equal(t, `relation "calls" does not exist`, body["details"])
}

func TestListCalls_NotConfigured(t *testing.T) {
	r := gin.New()
	r.GET("/api/calls", Handlers{Calls: calls.NewService(nil, calls.Options{})}.ListCalls)

	w := serve(r, http.MethodGet, "/api/calls")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "details")
}

func TestCallsSummary(t *testing.T) {
	svc := calls.NewService(seeded(), calls.Options{})
	r := gin.New()
	r.GET("/api/calls/summary", Handlers{Calls: svc, Reporting: reporting.NewService(svc)}.CallsSummary)

	w := serve(r, http.MethodGet, "/api/calls/summary")
	require.Equal(t, http.StatusOK, w.Code)
	var sum reporting.CallsSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	assert.Equal(t, 2, sum.TotalCalls)
	assert.Equal(t, 1, sum.AnalyzedCalls)
	assert.Equal(t, 1, sum.Sentiment["positive"])

	w = serve(r, http.MethodGet, "/api/calls/summary?from=2024-01-01T00:30:00Z")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sum))
	assert.Equal(t, 1, sum.TotalCalls)

	w = serve(r, http.MethodGet, "/api/calls/summary?from=yesterday")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodGet, "/api/calls/summary?from=2024-01-02T00:00:00Z&to=2024-01-01T00:00:00Z")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	r := gin.New()
	r.GET("/ok", Handlers{}.Health)
	r.GET("/up", Handlers{Ping: func(context.Context) error { return nil }}.Health)
	r.GET("/down", Handlers{Ping: func(context.Context) error { return errors.New("no route") }}.Health)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/ok").Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/up").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(r, http.MethodGet, "/down").Code)
}
