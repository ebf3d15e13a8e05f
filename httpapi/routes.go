// Package httpapi exposes the prediction service over HTTP.
package httpapi

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"tempcast/dataset"
	"tempcast/service"
)

var validate = validator.New()

// WeatherDataPoint mirrors the raw dataset's column names so callers can POST
// rows exactly as exported. Optional fields may be derived server-side.
type WeatherDataPoint struct {
	DateTime    string   `json:"date_time" validate:"required"`
	Pressure    *float64 `json:"p (mbar)" validate:"required"`
	Temperature *float64 `json:"T (degC)" validate:"required"`
	RelHumidity *float64 `json:"rh (%)" validate:"omitempty,gte=0,lte=100"`
	WindSpeed   *float64 `json:"wv (m/s)" validate:"required"`
	DewPoint    *float64 `json:"Tdew (degC)"`
	VPMax       *float64 `json:"VPmax (mbar)"`
	VPAct       *float64 `json:"VPact (mbar)"`
	VPDef       *float64 `json:"VPdef (mbar)"`
}

type PredictionRequest struct {
	WeatherData []WeatherDataPoint `json:"weather_data" validate:"required,min=1,dive"`
}

type PredictionResponse struct {
	PredictedTemperature float64                    `json:"predicted_temperature"`
	Confidence           float64                    `json:"confidence"`
	Status               string                     `json:"status"`
	ActualTemperature    float64                    `json:"actual_temperature"`
	FeaturesUsed         []string                   `json:"features_used"`
	CalculatedFields     map[int]map[string]float64 `json:"calculated_fields,omitempty"`
}

type HealthResponse struct {
	Status      string          `json:"status"`
	ModelReady  bool            `json:"model_ready"`
	FilesLoaded map[string]bool `json:"files_loaded"`
}

// NewApp builds the fiber application with logging and panic recovery wired
// in, using goccy/go-json as the body codec.
func NewApp(svc *service.Service, log *slog.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	RegisterRoutes(app, svc, log)
	return app
}

// RegisterRoutes wires the HTTP handlers into the fiber app.
func RegisterRoutes(app *fiber.App, svc *service.Service, log *slog.Logger) {
	if log == nil {
		log = slog.Default()
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		state := svc.State()
		status := "unhealthy"
		switch state {
		case service.StateReady:
			status = "ready"
		case service.StateLoading, service.StateUninitialized:
			status = "loading"
		}
		return c.JSON(HealthResponse{
			Status:      status,
			ModelReady:  state == service.StateReady,
			FilesLoaded: svc.Artifacts(),
		})
	})

	app.Post("/predict", func(c *fiber.Ctx) error {
		var req PredictionRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "malformed request body")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		points, err := toPoints(req.WeatherData)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		res, err := svc.Predict(points)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrNotReady):
				return fiber.NewError(fiber.StatusServiceUnavailable, "model not loaded")
			case errors.Is(err, service.ErrInvalidSequenceLength),
				errors.Is(err, service.ErrMissingField):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			default:
				log.Error("prediction failed", "error", err)
				return fiber.NewError(fiber.StatusInternalServerError, "prediction processing failed")
			}
		}

		return c.JSON(PredictionResponse{
			PredictedTemperature: res.PredictedTemperature,
			Confidence:           res.Confidence,
			Status:               res.Status,
			ActualTemperature:    res.ActualTemperature,
			FeaturesUsed:         res.FeaturesUsed,
			CalculatedFields:     res.CalculatedFields,
		})
	})
}

func toPoints(records []WeatherDataPoint) ([]service.Point, error) {
	points := make([]service.Point, len(records))
	for i, r := range records {
		t, err := parseTime(r.DateTime)
		if err != nil {
			return nil, err
		}
		points[i] = service.Point{
			Time:        t,
			Pressure:    *r.Pressure,
			Temperature: *r.Temperature,
			WindSpeed:   *r.WindSpeed,
			RelHumidity: r.RelHumidity,
			DewPoint:    r.DewPoint,
			VPMax:       r.VPMax,
			VPAct:       r.VPAct,
			VPDef:       r.VPDef,
		}
	}
	return points, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(dataset.TimeLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("timestamp %q: %w", s, dataset.ErrParse)
}
