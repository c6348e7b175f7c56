package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CORS sets permissive cross-origin headers on every response and answers
// preflight requests. methods is the list advertised in
// Access-Control-Allow-Methods.
func CORS(methods ...string) gin.HandlerFunc {
	allow := strings.Join(append(methods[:len(methods):len(methods)], http.MethodOptions), ", ")
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Access-Control-Allow-Methods", allow)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}

// AllowMethods rejects any verb not listed with 405 and an Allow header.
// Register it after CORS so preflight requests never reach it.
func AllowMethods(methods ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		allowed[m] = struct{}{}
	}
	allow := strings.Join(methods, ", ")
	return func(c *gin.Context) {
		if _, ok := allowed[c.Request.Method]; !ok {
			c.Header("Allow", allow)
			c.AbortWithStatusJSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
			return
		}
		c.Next()
	}
}
