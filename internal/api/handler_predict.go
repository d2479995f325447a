package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"getaround-insights/internal/dataset"
	"getaround-insights/internal/model"
	"getaround-insights/internal/mw"
)

// PredictRequest is the body of POST /predict. Pointers let the binding tell
// a missing field from false or zero.
type PredictRequest struct {
	ModelKey                string   `json:"model_key" binding:"required"`
	Mileage                 *float64 `json:"mileage" binding:"required"`
	EnginePower             *float64 `json:"engine_power" binding:"required"`
	Fuel                    string   `json:"fuel" binding:"required"`
	PaintColor              string   `json:"paint_color" binding:"required"`
	CarType                 string   `json:"car_type" binding:"required"`
	PrivateParkingAvailable *bool    `json:"private_parking_available" binding:"required"`
	HasGPS                  *bool    `json:"has_gps" binding:"required"`
	HasAirConditioning      *bool    `json:"has_air_conditioning" binding:"required"`
	AutomaticCar            *bool    `json:"automatic_car" binding:"required"`
	HasGetaroundConnect     *bool    `json:"has_getaround_connect" binding:"required"`
	HasSpeedRegulator       *bool    `json:"has_speed_regulator" binding:"required"`
	WinterTires             *bool    `json:"winter_tires" binding:"required"`
}

// Car converts a bound request. It must only be called after validation.
func (r PredictRequest) Car() model.Car {
	return model.Car{
		ModelKey:                r.ModelKey,
		Mileage:                 *r.Mileage,
		EnginePower:             *r.EnginePower,
		Fuel:                    r.Fuel,
		PaintColor:              r.PaintColor,
		CarType:                 r.CarType,
		PrivateParkingAvailable: *r.PrivateParkingAvailable,
		HasGPS:                  *r.HasGPS,
		HasAirConditioning:      *r.HasAirConditioning,
		AutomaticCar:            *r.AutomaticCar,
		HasGetaroundConnect:     *r.HasGetaroundConnect,
		HasSpeedRegulator:       *r.HasSpeedRegulator,
		WinterTires:             *r.WinterTires,
	}
}

// Predict handles POST /predict.
func (h *Handler) Predict(c *gin.Context) {
	var req PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	predictions, err := h.predictor.Predict(c.Request.Context(), []model.Car{req.Car()})
	mw.RecordPredictions("predict", 1, err)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prediction": predictions[0]})
}

// BatchPredict handles POST /batch-predict with a CSV upload in the file field.
func (h *Handler) BatchPredict(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "a csv file is required in the file field"})
		return
	}
	f, err := header.Open()
	if err != nil {
		abortWithError(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer f.Close()

	cars, err := dataset.DecodeCars(f)
	if err != nil {
		c.Error(err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	predictions, err := h.predictor.Predict(c.Request.Context(), cars)
	mw.RecordPredictions("batch-predict", len(cars), err)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, predictions)
}

type verificationResponse struct {
	TrackingURI  string  `json:"mlflow_tracking_uri"`
	ArtifactURI  string  `json:"mlflow_artifact_uri"`
	TrackURIEnv  *string `json:"track_uri_env"`
	ModelName    string  `json:"model_name"`
	ModelVersion string  `json:"model_version"`
}

// Verification handles GET /verification.
func (h *Handler) Verification(c *gin.Context) {
	info := h.predictor.Info()
	resp := verificationResponse{
		TrackingURI:  info.TrackingURI,
		ArtifactURI:  info.ArtifactURI,
		ModelName:    info.Name,
		ModelVersion: info.Version,
	}
	if resp.TrackingURI == "" {
		resp.TrackingURI = h.model.TrackingURI
	}
	resp.TrackURIEnv = h.model.TrackingURIEnv
	c.JSON(http.StatusOK, resp)
}
