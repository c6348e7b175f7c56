package main

import (
	"net/http"

	"call-ingest/internal/httpapi"
	"call-ingest/internal/rbac"
	"call-ingest/internal/telephony"
	"call-ingest/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Legacy serverless paths stay mounted so existing platform webhook
// configuration and dashboards keep working.
var (
	webhookPaths = []string{"/webhooks/calls", "/.netlify/functions/webhook-handler"}
	listingPaths = []string{"/api/calls", "/.netlify/functions/api-calls"}
)

type routeDeps struct {
	Webhook telephony.RetellWebhookHandler
	API     httpapi.Handlers
	Metrics *metrics.Metrics

	// AuthMW guards the read endpoints; nil leaves them public.
	AuthMW gin.HandlerFunc
	// RateLimit applies to the read endpoints; nil disables it.
	RateLimit gin.HandlerFunc
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	// public
	r.GET("/healthz", d.API.Health)
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	// Platform webhooks (public). Signature checks happen inside the handler
	// when a signing secret is configured.
	for _, p := range webhookPaths {
		r.Any(p,
			httpapi.CORS(http.MethodPost),
			httpapi.AllowMethods(http.MethodPost),
			d.Webhook.HandleEvent,
		)
	}

	read := func(h gin.HandlerFunc) []gin.HandlerFunc {
		chain := []gin.HandlerFunc{
			httpapi.CORS(http.MethodGet),
			httpapi.AllowMethods(http.MethodGet),
		}
		if d.RateLimit != nil {
			chain = append(chain, d.RateLimit)
		}
		if d.AuthMW != nil {
			chain = append(chain, d.AuthMW, rbac.RequireAnyRole(rbac.RoleViewer, rbac.RoleAdmin))
		}
		return append(chain, h)
	}
	for _, p := range listingPaths {
		r.Any(p, read(d.API.ListCalls)...)
	}
	r.Any("/api/calls/summary", read(d.API.CallsSummary)...)
}
