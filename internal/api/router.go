package api

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"getaround-insights/config"
	"getaround-insights/internal/mw"
)

// NewRouter creates and configures the prediction service router.
func NewRouter(h *Handler, cfg config.ServerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID(), mw.Logger(), mw.Metrics("api"), mw.CORS(cfg.CORSAllowedOrigins))

	r.GET("/health", h.Health)
	r.GET("/metrics", mw.MetricsHandler())

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	caching := mw.Cache(mw.NewCacheStore(cfg.CacheTTL), cfg.CacheTTL)

	api := r.Group("/")
	api.Use(rateLimiter)
	{
		// Preview samples at random, so only the deterministic reads are cached.
		api.GET("/preview", h.Preview)
		api.GET("/unique-values", caching, h.UniqueValues)
		api.GET("/quantile", caching, h.Quantile)
		api.POST("/groupby", h.GroupBy)
		api.POST("/filter-by", h.FilterBy)

		api.POST("/predict", h.Predict)
		api.POST("/batch-predict", h.BatchPredict)
		api.GET("/verification", h.Verification)
	}

	return r
}
