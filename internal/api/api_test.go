package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"getaround-insights/config"
	"getaround-insights/internal/model"
	"getaround-insights/internal/predictor"
	"getaround-insights/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakePredictor prices a car at its engine power, or fails with err.
type fakePredictor struct {
	err      error
	received []model.Car
}

func (f *fakePredictor) Predict(ctx context.Context, cars []model.Car) ([]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.received = cars
	out := make([]float64, len(cars))
	for i, c := range cars {
		out[i] = c.EnginePower
	}
	return out, nil
}

func (f *fakePredictor) Info() predictor.Info {
	return predictor.Info{Name: "getaround_xgbr", Version: "4", ArtifactURI: "s3://models/4"}
}

func testCars() []model.Car {
	return []model.Car{
		{ModelKey: "Citroën", Mileage: 140411, EnginePower: 100, Fuel: "diesel", PaintColor: "black", CarType: "convertible", HasGPS: true},
		{ModelKey: "Peugeot", Mileage: 13929, EnginePower: 317, Fuel: "petrol", PaintColor: "grey", CarType: "convertible", HasGPS: true},
		{ModelKey: "Renault", Mileage: 183297, EnginePower: 120, Fuel: "diesel", PaintColor: "white", CarType: "estate"},
	}
}

func setupRouter(p predictor.Predictor) *gin.Engine {
	return setupRouterWithModel(p, config.ModelConfig{Name: "getaround_xgbr", TrackingURI: "http://mlflow:5000"})
}

func setupRouterWithModel(p predictor.Predictor, modelCfg config.ModelConfig) *gin.Engine {
	s := store.New(testCars())
	h := NewHandler(s, p, modelCfg)
	return NewRouter(h, config.ServerConfig{
		RateLimitPerSec:    1000,
		RateLimitBurst:     1000,
		CacheTTL:           time.Minute,
		CORSAllowedOrigins: "*",
	})
}

func do(r http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	r.ServeHTTP(w, req)
	return w
}

func decodeFrame(t *testing.T, w *httptest.ResponseRecorder) store.Frame {
	t.Helper()
	var f store.Frame
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &f))
	return f
}

func TestHealth(t *testing.T) {
	w := do(setupRouter(&fakePredictor{}), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","rows":3}`, w.Body.String())
}

func TestPreview(t *testing.T) {
	r := setupRouter(&fakePredictor{})

	testCases := []struct {
		name         string
		target       string
		expectedCode int
		expectedRows int
	}{
		{"explicit rows", "/preview?rows=2", http.StatusOK, 2},
		{"default is larger than table", "/preview", http.StatusBadRequest, 0},
		{"too many", "/preview?rows=4", http.StatusBadRequest, 0},
		{"negative", "/preview?rows=-1", http.StatusBadRequest, 0},
		{"not a number", "/preview?rows=ten", http.StatusBadRequest, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodGet, tc.target, "")
			require.Equal(t, tc.expectedCode, w.Code, w.Body.String())
			if tc.expectedCode == http.StatusOK {
				assert.Len(t, decodeFrame(t, w).Rows, tc.expectedRows)
			}
		})
	}
}

func TestUniqueValues(t *testing.T) {
	r := setupRouter(&fakePredictor{})

	w := do(r, http.MethodGet, "/unique-values?column=fuel", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"column":"fuel","values":["diesel","petrol"]}`, w.Body.String())

	w = do(r, http.MethodGet, "/unique-values?column=price", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown column")

	w = do(r, http.MethodGet, "/unique-values", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuantile(t *testing.T) {
	r := setupRouter(&fakePredictor{})

	testCases := []struct {
		name         string
		target       string
		expectedCode int
		expectedBody string
		expectedRows int
	}{
		{"top by default", "/quantile?column=engine_power&percent=0.3", http.StatusOK, "", 1},
		{"bottom", "/quantile?column=engine_power&percent=0.3&top=false", http.StatusOK, "", 1},
		{"lower bound accepted", "/quantile?column=mileage&percent=0.01", http.StatusOK, "", 1},
		{"rejected percent", "/quantile?column=engine_power&percent=1.5", http.StatusOK, `{"message":"percentage value is not accepted"}`, 0},
		{"rejected small percent", "/quantile?column=engine_power&percent=0.001", http.StatusOK, `{"message":"percentage value is not accepted"}`, 0},
		{"non numeric", "/quantile?column=fuel", http.StatusBadRequest, "", 0},
		{"bad percent", "/quantile?column=mileage&percent=abc", http.StatusBadRequest, "", 0},
		{"bad top", "/quantile?column=mileage&top=maybe", http.StatusBadRequest, "", 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodGet, tc.target, "")
			require.Equal(t, tc.expectedCode, w.Code, w.Body.String())
			switch {
			case tc.expectedBody != "":
				assert.JSONEq(t, tc.expectedBody, w.Body.String())
			case tc.expectedCode == http.StatusOK:
				assert.Len(t, decodeFrame(t, w).Rows, tc.expectedRows)
			}
		})
	}
}

func TestGroupBy(t *testing.T) {
	r := setupRouter(&fakePredictor{})

	w := do(r, http.MethodPost, "/groupby", `{"column":"fuel","by_method":"max"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	f := decodeFrame(t, w)
	assert.Equal(t, "fuel", f.Columns[0])
	require.Len(t, f.Rows, 2)
	assert.Equal(t, "diesel", f.Rows[0][0])
	assert.Equal(t, 120.0, f.Rows[0][2])

	w = do(r, http.MethodPost, "/groupby", `{"column":"fuel"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 110.0, decodeFrame(t, w).Rows[0][2], "mean is the default")

	w = do(r, http.MethodPost, "/groupby", `{"column":"fuel","by_method":"mode"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/groupby", `{"by_method":"sum"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFilterBy(t *testing.T) {
	r := setupRouter(&fakePredictor{})

	w := do(r, http.MethodPost, "/filter-by", `{"column":"paint_color","by_category":["black","white"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeFrame(t, w).Rows, 2)

	w = do(r, http.MethodPost, "/filter-by", `{"column":"has_gps","by_category":["False"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeFrame(t, w).Rows, 1)

	for _, body := range []string{`{"column":"paint_color"}`, `{"column":"paint_color","by_category":[]}`} {
		w = do(r, http.MethodPost, "/filter-by", body)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"message"`)
	}

	w = do(r, http.MethodPost, "/filter-by", `{"column":"colour","by_category":["black"]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

const predictBody = `{
	"model_key": "Citroën", "mileage": 0, "engine_power": 135, "fuel": "diesel",
	"paint_color": "black", "car_type": "estate", "private_parking_available": false,
	"has_gps": true, "has_air_conditioning": false, "automatic_car": false,
	"has_getaround_connect": false, "has_speed_regulator": true, "winter_tires": false
}`

func TestPredict(t *testing.T) {
	p := &fakePredictor{}
	r := setupRouter(p)

	w := do(r, http.MethodPost, "/predict", predictBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"prediction":135}`, w.Body.String())
	require.Len(t, p.received, 1)
	assert.True(t, p.received[0].HasSpeedRegulator)
	assert.Equal(t, 0.0, p.received[0].Mileage)
}

func TestPredictValidation(t *testing.T) {
	r := setupRouter(&fakePredictor{})

	missing := strings.Replace(predictBody, `"winter_tires": false`, `"extra": 1`, 1)
	w := do(r, http.MethodPost, "/predict", missing)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "WinterTires")

	wrongType := strings.Replace(predictBody, `"mileage": 0`, `"mileage": "far"`, 1)
	w = do(r, http.MethodPost, "/predict", wrongType)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredictFailure(t *testing.T) {
	r := setupRouter(&fakePredictor{err: fmt.Errorf("%w: connection refused", predictor.ErrScoring)})

	w := do(r, http.MethodPost, "/predict", predictBody)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func upload(t *testing.T, r http.Handler, field, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mpw := multipart.NewWriter(&body)
	part, err := mpw.CreateFormFile(field, "cars.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mpw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/batch-predict", &body)
	req.Header.Set("Content-Type", mpw.FormDataContentType())
	r.ServeHTTP(w, req)
	return w
}

const batchCSV = `,model_key,mileage,engine_power,fuel,paint_color,car_type,private_parking_available,has_gps,has_air_conditioning,automatic_car,has_getaround_connect,has_speed_regulator,winter_tires,rental_price_per_day
0,Citroën,140411,100,diesel,black,convertible,True,True,False,False,True,True,True,106
1,Peugeot,13929,317,petrol,grey,convertible,True,True,False,False,False,True,True,264
2,Renault,183297,120,diesel,white,convertible,False,False,False,False,True,False,True,101
`

func TestBatchPredict(t *testing.T) {
	p := &fakePredictor{}
	r := setupRouter(p)

	w := upload(t, r, "file", batchCSV)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `[100, 317, 120]`, w.Body.String())
	assert.Len(t, p.received, 3)
}

func TestBatchPredictErrors(t *testing.T) {
	t.Run("missing column", func(t *testing.T) {
		csv := "model_key,mileage\nCitroën,100\n"
		w := upload(t, setupRouter(&fakePredictor{}), "file", csv)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "engine_power")
	})

	t.Run("no file", func(t *testing.T) {
		w := upload(t, setupRouter(&fakePredictor{}), "document", batchCSV)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("model failure leaves no partial result", func(t *testing.T) {
		w := upload(t, setupRouter(&fakePredictor{err: predictor.ErrScoring}), "file", batchCSV)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.NotContains(t, w.Body.String(), "[")
	})
}

func TestVerification(t *testing.T) {
	env := "http://env-mlflow:5000"
	r := setupRouterWithModel(&fakePredictor{}, config.ModelConfig{
		Name:           "getaround_xgbr",
		TrackingURI:    "http://mlflow:5000",
		TrackingURIEnv: &env,
	})

	w := do(r, http.MethodGet, "/verification", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"mlflow_tracking_uri": "http://mlflow:5000",
		"mlflow_artifact_uri": "s3://models/4",
		"track_uri_env": "http://env-mlflow:5000",
		"model_name": "getaround_xgbr",
		"model_version": "4"
	}`, w.Body.String())
}

func TestVerificationWithoutTrackingEnv(t *testing.T) {
	w := do(setupRouter(&fakePredictor{}), http.MethodGet, "/verification", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "track_uri_env")
	assert.Nil(t, body["track_uri_env"])
}
