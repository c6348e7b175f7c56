package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"call-ingest/internal/auth"
	"call-ingest/internal/calls"
	"call-ingest/internal/reporting"
	"call-ingest/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups the read-side HTTP handlers for dependency injection.
// Keep these thin: call internal services, return JSON.
type Handlers struct {
	Calls     *calls.Service
	Reporting *reporting.Service

	// Ping checks storage reachability for Health; nil skips the check.
	Ping func(ctx context.Context) error
}

// Health reports liveness and, when storage is attached, whether it answers.
func (h Handlers) Health(c *gin.Context) {
	if h.Ping == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "storage": "not_configured"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.Ping(ctx); err != nil {
		logger.FromGin(c).Warn("storage ping failed", "err", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "storage": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "storage": "ok"})
}

// ListCalls returns every stored call, most recent first.
func (h Handlers) ListCalls(c *gin.Context) {
	if h.Calls == nil {
		writeReadError(c, calls.ErrConfiguration)
		return
	}
	log := logger.FromGin(c)
	if sub, err := auth.Subject(c.Request.Context()); err == nil {
		log = log.With("subject", sub)
	}
	recs, err := h.Calls.List(c.Request.Context())
	if err != nil {
		log.Error("listing calls failed", "err", err)
		writeReadError(c, err)
		return
	}
	log.Debug("listed calls", "count", len(recs))
	c.JSON(http.StatusOK, recs)
}

// CallsSummary aggregates the stored calls.
func (h Handlers) CallsSummary(c *gin.Context) {
	if h.Reporting == nil {
		writeReadError(c, calls.ErrConfiguration)
		return
	}
	req, err := parseSummaryRequest(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sum, err := h.Reporting.CallsSummary(c.Request.Context(), req)
	if errors.Is(err, reporting.ErrInvalidRequest) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be before to"})
		return
	}
	if err != nil {
		logger.FromGin(c).Error("calls summary failed", "err", err)
		writeReadError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// parseSummaryRequest reads optional from, to (RFC 3339) and direction query params.
func parseSummaryRequest(c *gin.Context) (reporting.CallsSummaryRequest, error) {
	var req reporting.CallsSummaryRequest
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &req.Range.From}, {"to", &req.Range.To}} {
		v := c.Query(p.name)
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return req, errors.New(p.name + " must be an RFC 3339 timestamp")
		}
		*p.dst = t
	}
	req.Direction = c.Query("direction")
	return req, nil
}

func writeReadError(c *gin.Context, err error) {
	if errors.Is(err, calls.ErrConfiguration) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "Storage environment variables not configured.",
			"details": err.Error(),
		})
		return
	}
	details := err.Error()
	var se *calls.StorageError
	if errors.As(err, &se) {
		details = se.Details()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":   "Failed to fetch calls",
		"details": details,
	})
}
