package handlers

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/andresuchdata/inventory-forecast/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/export"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/repository"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/service"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	HeaderForecastStatus  = "X-Forecast-Status"
	HeaderForecastSkipped = "X-Forecast-Skipped"
)

// ForecastService is what the handler needs from service.ForecastService.
type ForecastService interface {
	Run(ctx context.Context) (*domain.ForecastRun, error)
	Latest(ctx context.Context) (*domain.ForecastRun, error)
	Summary(ctx context.Context) (*domain.ForecastSummary, error)
	Status(ctx context.Context) service.EngineStatus
	Explain(ctx context.Context, sku string) (*forecast.Evaluation, error)
	History(ctx context.Context, limit int) ([]repository.ForecastRunRecord, error)
	Snapshots(ctx context.Context) ([]storage.ObjectInfo, error)
}

type ForecastHandler struct {
	service ForecastService
}

func NewForecastHandler(service ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

// RunForecast runs the engine over the whole catalog and returns the
// forecasts as a JSON array, or CSV with ?format=csv.
func (h *ForecastHandler) RunForecast(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, err := h.service.Run(c.Request.Context())
	if err != nil {
		h.runError(c, err)
		return
	}

	c.Header(HeaderForecastStatus, string(run.Status))
	c.Header(HeaderForecastSkipped, strconv.Itoa(run.Skipped))

	if format == export.FormatCSV {
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Status(http.StatusOK)
		if err := export.WriteCSV(c.Writer, run.Forecasts); err != nil {
			log.Error().Err(err).Msg("forecast: write csv response failed")
		}
		return
	}

	c.JSON(http.StatusOK, run.Forecasts)
}

// GetLatest returns the last completed run. The forecasts can be narrowed
// with ?action=, ?confidence= and ?inventory_status=.
func (h *ForecastHandler) GetLatest(c *gin.Context) {
	filter, err := parseForecastFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, err := h.service.Latest(c.Request.Context())
	if errors.Is(err, service.ErrNoForecast) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no forecast has been generated yet"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch latest forecast", "details": err.Error()})
		return
	}

	if !filter.IsZero() {
		filtered := *run
		filtered.Forecasts = domain.FilterForecasts(run.Forecasts, filter)
		run = &filtered
	}

	c.JSON(http.StatusOK, run)
}

func parseForecastFilter(c *gin.Context) (domain.ForecastFilter, error) {
	var filter domain.ForecastFilter

	if v := c.Query("action"); v != "" {
		a, ok := domain.ParseAction(v)
		if !ok {
			return filter, fmt.Errorf("unknown action %q", v)
		}
		filter.Action = a
	}
	if v := c.Query("confidence"); v != "" {
		conf, ok := domain.ParseConfidence(v)
		if !ok {
			return filter, fmt.Errorf("unknown confidence %q", v)
		}
		filter.Confidence = conf
	}
	if v := c.Query("inventory_status"); v != "" {
		status, ok := domain.ParseInventoryStatus(v)
		if !ok {
			return filter, fmt.Errorf("unknown inventory status %q", v)
		}
		filter.InventoryStatus = status
	}

	return filter, nil
}

func (h *ForecastHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context())
	if errors.Is(err, service.ErrNoForecast) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no forecast has been generated yet"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch summary", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *ForecastHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Status(c.Request.Context()))
}

// GetItem explains the recommendation for one SKU using current data.
func (h *ForecastHandler) GetItem(c *gin.Context) {
	sku := c.Param("sku")

	eval, err := h.service.Explain(c.Request.Context(), sku)
	if errors.Is(err, forecast.ErrItemNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found", "sku_id": sku})
		return
	}
	if errors.Is(err, forecast.ErrInvalidItem) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "analytics row for item is invalid", "sku_id": sku, "details": err.Error()})
		return
	}
	if errors.Is(err, forecast.ErrAnalyticsUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "forecast dependencies unavailable", "details": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to evaluate item", "details": err.Error()})
		return
	}

	// +Inf is not valid JSON; no demand means unbounded coverage.
	var coverage *float64
	if !math.IsInf(eval.CoverageDays, 0) && !math.IsNaN(eval.CoverageDays) {
		v := math.Round(eval.CoverageDays*100) / 100
		coverage = &v
	}

	c.JSON(http.StatusOK, gin.H{
		"forecast":         eval.Forecast,
		"item":             eval.Item,
		"intent":           eval.Intent,
		"derived":          eval.Derived,
		"coverage_days":    coverage,
		"confidence_score": eval.ConfidenceScore,
		"multipliers":      eval.Multipliers,
		"alerts":           eval.Alerts,
	})
}

func (h *ForecastHandler) GetHistory(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}

	runs, err := h.service.History(c.Request.Context(), limit)
	if errors.Is(err, service.ErrHistoryDisabled) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch run history", "details": err.Error()})
		return
	}
	if runs == nil {
		runs = make([]repository.ForecastRunRecord, 0)
	}

	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (h *ForecastHandler) GetSnapshots(c *gin.Context) {
	objects, err := h.service.Snapshots(c.Request.Context())
	if errors.Is(err, service.ErrSnapshotsDisabled) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list snapshots", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshots": objects})
}

func (h *ForecastHandler) runError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, forecast.ErrAnalyticsUnavailable), errors.Is(err, forecast.ErrIntentUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "forecast dependencies unavailable", "details": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "forecast run timed out"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "forecast run failed", "details": err.Error()})
	}
}
