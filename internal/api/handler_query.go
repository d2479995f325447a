package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"getaround-insights/internal/store"
)

const (
	defaultPreviewRows = 10
	defaultPercent     = 0.1
	minPercent         = 0.01
	maxPercent         = 0.99
)

// Preview handles GET /preview?rows=N.
func (h *Handler) Preview(c *gin.Context) {
	rows := defaultPreviewRows
	if raw := c.Query("rows"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "rows must be an integer"})
			return
		}
		rows = n
	}

	frame, err := h.store.Preview(rows)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, frame)
}

// UniqueValues handles GET /unique-values?column=C.
func (h *Handler) UniqueValues(c *gin.Context) {
	column := c.Query("column")
	if column == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "column is required"})
		return
	}

	values, err := h.store.UniqueValues(column)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"column": column, "values": values})
}

// Quantile handles GET /quantile?column=C&percent=p&top=b.
func (h *Handler) Quantile(c *gin.Context) {
	column := c.Query("column")
	if column == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "column is required"})
		return
	}
	percent, err := strconv.ParseFloat(c.DefaultQuery("percent", strconv.FormatFloat(defaultPercent, 'f', -1, 64)), 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "percent must be a number"})
		return
	}
	top, err := strconv.ParseBool(c.DefaultQuery("top", "true"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "top must be a boolean"})
		return
	}

	if percent < minPercent || percent > maxPercent {
		reject(c, "percentage value is not accepted")
		return
	}

	frame, err := h.store.Quantile(column, percent, top)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, frame)
}

type groupByRequest struct {
	Column   string `json:"column" binding:"required"`
	ByMethod string `json:"by_method"`
}

// GroupBy handles POST /groupby.
func (h *Handler) GroupBy(c *gin.Context) {
	var req groupByRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	method, err := store.ParseMethod(req.ByMethod)
	if err != nil {
		abortWithError(c, err)
		return
	}

	frame, err := h.store.GroupBy(req.Column, method)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, frame)
}

type filterByRequest struct {
	Column     string   `json:"column" binding:"required"`
	ByCategory []string `json:"by_category"`
}

// FilterBy handles POST /filter-by.
func (h *Handler) FilterBy(c *gin.Context) {
	var req filterByRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.ByCategory) == 0 {
		reject(c, "please choose at least one category to filter by")
		return
	}

	frame, err := h.store.FilterBy(req.Column, req.ByCategory)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, frame)
}
