package httpmiddleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORSConfig configures cross-origin access.
type CORSConfig struct {
	// Origins lists allowed origins. Empty or "*" allows any origin.
	Origins []string
	// AllowCredentials lets browsers send cookies and auth headers. With a
	// wildcard origin the request origin is echoed back instead of "*".
	AllowCredentials bool
	MaxAge           time.Duration
}

// CORS handles preflight and actual cross-origin requests.
func CORS(cfg CORSConfig) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", RequestIDHeader},
		ExposeHeaders:    []string{RequestIDHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	allowAll := len(cfg.Origins) == 0
	for _, o := range cfg.Origins {
		if o == "*" {
			allowAll = true
		}
	}
	switch {
	case allowAll && cfg.AllowCredentials:
		c.AllowOriginFunc = func(string) bool { return true }
	case allowAll:
		c.AllowAllOrigins = true
	default:
		c.AllowOrigins = cfg.Origins
	}

	return cors.New(c)
}
