package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tourney-pay/internal/webhook"
)

// NewRouter assembles the public surface: the initiation endpoint, the
// pull-only display reads, one webhook route per configured provider, and
// the health/metrics plumbing.
func NewRouter(h *Handlers, hooks map[string]*webhook.Handler, registry *prometheus.Registry) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.Default())

	apiGroup := router.Group("/api")
	{
		apiGroup.POST("/registrations", h.Initiate)
		apiGroup.GET("/attempts", h.AttemptsByOwner)
		apiGroup.GET("/attempts/code/:code", h.AttemptByCode)
		apiGroup.GET("/tournaments/:id/attempts", h.AttemptsByTournament)
	}

	for name, hook := range hooks {
		router.POST("/webhooks/"+name, hook.Handle)
	}

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return router
}
