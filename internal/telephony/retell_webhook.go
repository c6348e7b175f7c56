package telephony

import (
	"errors"
	"io"
	"net/http"

	"call-ingest/internal/calls"
	"call-ingest/pkg/logger"
	"call-ingest/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// RetellWebhookHandler accepts call lifecycle webhooks from the voice
// platform, authenticates them with Verifier, and hands the raw body to the
// reconciler.
//
// No business logic here; normalization and conflict handling live in internal/calls.
type RetellWebhookHandler struct {
	Calls    *calls.Service
	Verifier Verifier
	Metrics  *metrics.Metrics

	// MaxBodyBytes caps the request body; 0 means no cap.
	MaxBodyBytes int64
}

func (h RetellWebhookHandler) HandleEvent(c *gin.Context) {
	log := logger.FromGin(c)

	if h.Calls == nil {
		h.Metrics.Event("", "config_error")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "Server configuration error",
			"details": calls.ErrConfiguration.Error(),
		})
		return
	}

	body, err := h.readBody(c)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			log.Warn("webhook body too large", "limit", tooLarge.Limit)
			h.Metrics.Event("", "too_large")
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Payload too large"})
			return
		}
		log.Warn("webhook body read failed", "err", err)
		h.Metrics.Event("", "malformed")
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	verifier := h.Verifier
	if verifier == nil {
		verifier = AllowAll{}
	}
	if err := verifier.Verify(c.Request.Header, body); err != nil {
		log.Warn("webhook signature rejected", "err", err)
		h.Metrics.Event("", "unauthenticated")
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	ack, err := h.Calls.Ingest(c.Request.Context(), body)
	if err != nil {
		status, payload, outcome := errorResponse(err)
		attrs := []any{"event", ack.Event, "call_id", ack.CallID, "err", err}
		if status >= http.StatusInternalServerError {
			log.Error("webhook processing failed", attrs...)
		} else {
			log.Warn("webhook rejected", attrs...)
		}
		h.Metrics.Event(ack.Event, outcome)
		c.AbortWithStatusJSON(status, payload)
		return
	}

	log.Info("call event saved",
		"event", ack.Event,
		"call_id", ack.CallID,
		"id", ack.ID,
		"created", ack.Created,
	)
	h.Metrics.Event(ack.Event, "ok")
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"callId":  ack.CallID,
		"event":   ack.Event,
		"message": "Call data saved successfully",
	})
}

func (h RetellWebhookHandler) readBody(c *gin.Context) ([]byte, error) {
	r := c.Request.Body
	if r == nil {
		return nil, nil
	}
	if h.MaxBodyBytes > 0 {
		r = http.MaxBytesReader(c.Writer, r, h.MaxBodyBytes)
	}
	return io.ReadAll(r)
}

// errorResponse maps reconciler errors onto the wire contract.
func errorResponse(err error) (int, gin.H, string) {
	switch {
	case errors.Is(err, calls.ErrMalformedPayload):
		return http.StatusBadRequest, gin.H{"error": "Invalid JSON"}, "malformed"
	case errors.Is(err, calls.ErrIncompleteEvent):
		return http.StatusBadRequest, gin.H{"error": "Missing event or call data"}, "incomplete"
	case errors.Is(err, calls.ErrConfiguration):
		return http.StatusInternalServerError, gin.H{
			"error":   "Server configuration error",
			"details": err.Error(),
		}, "config_error"
	case errors.Is(err, calls.ErrStorage):
		details := err.Error()
		var se *calls.StorageError
		if errors.As(err, &se) {
			details = se.Details()
		}
		return http.StatusInternalServerError, gin.H{"error": "Database error", "details": details}, "storage_error"
	default:
		return http.StatusInternalServerError, gin.H{"error": "Internal server error", "details": err.Error()}, "internal_error"
	}
}
