package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"getaround-insights/config"
	"getaround-insights/internal/dataset"
	"getaround-insights/internal/predictor"
	"getaround-insights/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store     store.Store
	predictor predictor.Predictor
	model     config.ModelConfig
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, p predictor.Predictor, model config.ModelConfig) *Handler {
	return &Handler{
		store:     s,
		predictor: p,
		model:     model,
	}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrUnknownColumn),
		errors.Is(err, store.ErrNotNumeric),
		errors.Is(err, store.ErrSampleTooLarge),
		errors.Is(err, store.ErrUnknownMethod),
		errors.Is(err, dataset.ErrMissingColumn):
		return http.StatusBadRequest
	case errors.Is(err, predictor.ErrScoring):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func abortWithError(c *gin.Context, err error) {
	c.Error(err)
	c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error()})
}

// reject answers a request that was understood but cannot be served with a
// message payload instead of an error status.
func reject(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// Health reports liveness together with the size of the loaded table.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "rows": h.store.Len()})
}
