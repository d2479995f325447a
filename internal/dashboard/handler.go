package dashboard

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"getaround-insights/internal/analysis"
	"getaround-insights/internal/api"
	"getaround-insights/internal/model"
	"getaround-insights/internal/mw"
)

var errThreshold = fmt.Errorf("threshold must be an integer between 0 and %d", analysis.MaxThreshold)

// parseThreshold reads the minimum delay in minutes; an absent value is 0.
func parseThreshold(c *gin.Context) (int, error) {
	raw := c.Query("threshold")
	if raw == "" {
		return 0, nil
	}
	t, err := strconv.Atoi(raw)
	if err != nil || t < 0 || t > analysis.MaxThreshold {
		return 0, errThreshold
	}
	return t, nil
}

func (d *Dashboard) simulate(threshold int) analysis.Simulation {
	mw.SimulationsTotal.Inc()
	return analysis.Simulate(d.table, threshold)
}

type homePage struct {
	Overview     analysis.Overview
	Simulation   analysis.Simulation
	MaxThreshold int
	Late         float64
	UniqueCars   int
	PriceOptions map[string][]any
	Categorical  []model.Column
	Flags        []model.Column
}

// Home renders the dashboard page.
func (d *Dashboard) Home(c *gin.Context) {
	threshold, err := parseThreshold(c)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	var categorical, flags []model.Column
	for _, col := range model.Columns {
		switch col.Kind() {
		case model.KindCategorical:
			categorical = append(categorical, col)
		case model.KindBoolean:
			flags = append(flags, col)
		}
	}
	c.HTML(http.StatusOK, "home.html", homePage{
		Overview:     d.overview,
		Simulation:   d.simulate(threshold),
		MaxThreshold: analysis.MaxThreshold,
		Late:         d.numerical.LateCheckinPercent,
		UniqueCars:   d.categorical.UniqueCars,
		PriceOptions: d.priceOptions,
		Categorical:  categorical,
		Flags:        flags,
	})
}

// Overview handles GET /api/overview.
func (d *Dashboard) Overview(c *gin.Context) {
	c.JSON(http.StatusOK, d.overview)
}

// Numerical handles GET /api/analysis/numerical.
func (d *Dashboard) Numerical(c *gin.Context) {
	c.JSON(http.StatusOK, d.numerical)
}

// Categorical handles GET /api/analysis/categorical.
func (d *Dashboard) Categorical(c *gin.Context) {
	c.JSON(http.StatusOK, d.categorical)
}

// InDepth handles GET /api/analysis/in-depth.
func (d *Dashboard) InDepth(c *gin.Context) {
	c.JSON(http.StatusOK, d.inDepth)
}

// Simulator handles GET /api/simulator?threshold=T.
func (d *Dashboard) Simulator(c *gin.Context) {
	threshold, err := parseThreshold(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d.simulate(threshold))
}

// PriceOptions handles GET /api/price-options.
func (d *Dashboard) PriceOptions(c *gin.Context) {
	c.JSON(http.StatusOK, d.priceOptions)
}

type estimateResponse struct {
	Prediction  float64         `json:"prediction"`
	PricePerDay decimal.Decimal `json:"price_per_day"`
}

// Estimate handles POST /api/estimate by forwarding the car to the
// prediction service.
func (d *Dashboard) Estimate(c *gin.Context) {
	var req api.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prediction, err := d.estimator.Predict(c.Request.Context(), req.Car())
	if err != nil {
		c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, estimateResponse{
		Prediction:  prediction,
		PricePerDay: decimal.NewFromFloat(prediction).Round(2),
	})
}

// Health reports liveness and the size of the rental table.
func (d *Dashboard) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "rentals": len(d.table)})
}
