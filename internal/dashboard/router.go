package dashboard

import (
	"embed"
	"html/template"
	"strconv"

	"github.com/gin-gonic/gin"

	"getaround-insights/config"
	"getaround-insights/internal/mw"
)

//go:embed templates/*.html
var templates embed.FS

// NewRouter creates the dashboard router. Every view but the estimate is a
// pure function of the URI, so GETs go through the response cache.
func NewRouter(d *Dashboard, cfg config.DashboardConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestID(), mw.Logger(), mw.Metrics("dashboard"))
	r.SetHTMLTemplate(template.Must(template.New("").Funcs(template.FuncMap{
		"num": func(v *float64) string {
			if v == nil {
				return ""
			}
			return strconv.FormatFloat(*v, 'f', 2, 64)
		},
	}).ParseFS(templates, "templates/*.html")))

	r.GET("/health", d.Health)
	r.GET("/metrics", mw.MetricsHandler())

	caching := mw.Cache(mw.NewCacheStore(cfg.CacheTTL), cfg.CacheTTL)
	r.GET("/", caching, d.Home)

	api := r.Group("/api")
	{
		api.GET("/overview", caching, d.Overview)
		api.GET("/analysis/numerical", caching, d.Numerical)
		api.GET("/analysis/categorical", caching, d.Categorical)
		api.GET("/analysis/in-depth", caching, d.InDepth)
		api.GET("/simulator", caching, d.Simulator)
		api.GET("/price-options", caching, d.PriceOptions)
		api.POST("/estimate", d.Estimate)
	}

	return r
}
