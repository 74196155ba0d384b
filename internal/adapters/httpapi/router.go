package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/alejandrodnm/bayesab/internal/metrics"
)

// NewRouter arma el engine gin con todas las rutas.
//
//	POST /v1/simulate  - corre un experimento
//	GET  /v1/runs      - últimas corridas guardadas
//	GET  /v1/runs/:id  - una corrida completa
//	GET  /healthz
//	GET  /metrics      - Prometheus
//
// limiter == nil desactiva el rate limit. Solo se limita /v1.
func NewRouter(h *Handlers, limiter *rate.Limiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), countRequests())

	r.GET("/healthz", h.HandleHealth)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	if limiter != nil {
		v1.Use(rateLimit(limiter))
	}
	v1.POST("/simulate", h.HandleSimulate)
	v1.GET("/runs", h.HandleListRuns)
	v1.GET("/runs/:id", h.HandleGetRun)

	return r
}

// rateLimit rechaza con 429 cuando el token bucket está vacío.
func rateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
				Error: "rate limit exceeded",
				Code:  "RATE_LIMITED",
			})
			return
		}
		c.Next()
	}
}

// countRequests alimenta metrics.HTTPRequests con la ruta registrada (no el path
// crudo, para no explotar la cardinalidad con los IDs).
func countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
