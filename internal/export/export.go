// Package export writes forecast results for downstream consumers.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/andresuchdata/inventory-forecast/backend-go/internal/domain"
	"github.com/goccy/go-json"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

var csvHeader = []string{
	"sku_id",
	"product_name",
	"category",
	"predicted_demand",
	"current_stock",
	"action",
	"confidence",
	"reason",
	"sales_velocity",
	"return_rate",
	"avg_rating",
	"cart_activity",
	"wishlist_activity",
}

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// Extension returns the file suffix used for snapshots, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Write serialises forecasts in the requested format.
func Write(w io.Writer, format Format, forecasts []domain.Forecast) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, forecasts)
	case FormatJSON, "":
		return WriteJSON(w, forecasts)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// WriteJSON writes an indented JSON array. A nil slice is written as [].
func WriteJSON(w io.Writer, forecasts []domain.Forecast) error {
	if forecasts == nil {
		forecasts = []domain.Forecast{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(forecasts); err != nil {
		return fmt.Errorf("encode forecasts: %w", err)
	}
	return nil
}

// WriteCSV writes one row per forecast with the metrics flattened.
func WriteCSV(w io.Writer, forecasts []domain.Forecast) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, f := range forecasts {
		record := []string{
			f.SKU,
			f.ProductName,
			f.Category,
			strconv.Itoa(f.PredictedDemand),
			strconv.Itoa(f.CurrentStock),
			string(f.Action),
			string(f.Confidence),
			f.Reason,
			formatFloat(f.Metrics.SalesVelocity),
			formatFloat(f.Metrics.ReturnRate),
			formatFloat(f.Metrics.AvgRating),
			strconv.Itoa(f.Metrics.CartActivity),
			strconv.Itoa(f.Metrics.WishlistActivity),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row for %s: %w", f.SKU, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
