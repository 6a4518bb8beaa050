// backend-go/internal/domain/models.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ItemAnalytics is one pre-aggregated catalog row from the analytics source.
// Sales, revenue and returns cover the last 30 days; rating and review count
// cover the last 60 days. Nulls in aggregated columns are coalesced to zero.
// A row whose own columns could not be read carries Defects and is never
// scored.
type ItemAnalytics struct {
	ID              int64           `json:"id" db:"id"`
	SKU             string          `json:"sku" db:"sku" validate:"required"`
	Name            string          `json:"name" db:"name"`
	CategoryName    string          `json:"category_name" db:"category_name"`
	Price           decimal.Decimal `json:"price" db:"price"`
	InventoryCount  int             `json:"inventory_count" db:"inventory_count"`
	MinStockLevel   int             `json:"min_stock_level" db:"min_stock_level" validate:"gte=0"`
	MaxStockLevel   int             `json:"max_stock_level" db:"max_stock_level" validate:"gte=0"`
	Sales30d        int             `json:"sales_30d" db:"sales_30d" validate:"gte=0"`
	Revenue30d      decimal.Decimal `json:"revenue_30d" db:"revenue_30d"`
	AvgRating60d    float64         `json:"avg_rating_60d" db:"avg_rating_60d" validate:"gte=0,lte=5"`
	ReviewCount60d  int             `json:"review_count_60d" db:"review_count_60d" validate:"gte=0"`
	Returns30d      int             `json:"returns_30d" db:"returns_30d" validate:"gte=0"`
	InventoryStatus InventoryStatus `json:"inventory_status" db:"inventory_status" validate:"omitempty,oneof=LOW_STOCK OVERSTOCK IN_STOCK"`
	Defects         []string        `json:"-" db:"-"`
}

// IntentSignal holds live purchase-intent counts for a SKU. Missing keys in
// the intent store are reported as zero, never as an error.
type IntentSignal struct {
	CartCount7d      int `json:"cart_count_7d"`
	WishlistCount30d int `json:"wishlist_count_30d"`
}

// DerivedMetrics are computed per item and never stored.
type DerivedMetrics struct {
	SalesVelocity float64 `json:"sales_velocity"`
	ReturnRate    float64 `json:"return_rate"`
}

// ForecastMetrics is the audit sub-record attached to every forecast.
type ForecastMetrics struct {
	SalesVelocity    float64 `json:"sales_velocity"`
	ReturnRate       float64 `json:"return_rate"`
	AvgRating        float64 `json:"avg_rating"`
	CartActivity     int     `json:"cart_activity"`
	WishlistActivity int     `json:"wishlist_activity"`
}

// Forecast is the recommendation produced for a single catalog item.
type Forecast struct {
	SKU             string          `json:"sku_id"`
	ProductName     string          `json:"product_name"`
	Category        string          `json:"category"`
	PredictedDemand int             `json:"predicted_demand"`
	CurrentStock    int             `json:"current_stock"`
	Action          Action          `json:"action"`
	Confidence      Confidence      `json:"confidence"`
	Reason          string          `json:"reason"`
	InventoryStatus InventoryStatus `json:"inventory_status,omitempty"`
	Metrics         ForecastMetrics `json:"metrics"`
}

// RunStatus describes how a forecast run ended.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusPartial   RunStatus = "partial"
	RunStatusNoData    RunStatus = "no_data"
	RunStatusFailed    RunStatus = "failed"
)

// SkipReason classifies why an item was left out of a run.
type SkipReason string

const (
	SkipInvalidRow   SkipReason = "invalid_row"
	SkipIntentLookup SkipReason = "intent_lookup"
	SkipCompute      SkipReason = "compute"
)

// DataQualityAlert flags an input that was kept as-is but looks suspicious,
// e.g. more returns than sales in the same window.
type DataQualityAlert struct {
	SKU     string  `json:"sku_id"`
	Kind    string  `json:"kind"`
	Value   float64 `json:"value"`
	Message string  `json:"message"`
}

// ForecastRun is the outcome of one full pass over the catalog.
type ForecastRun struct {
	Status      RunStatus          `json:"status"`
	Forecasts   []Forecast         `json:"forecasts"`
	TotalItems  int                `json:"total_items"`
	Skipped     int                `json:"skipped"`
	SkipReasons map[SkipReason]int `json:"skip_reasons,omitempty"`
	Alerts      []DataQualityAlert `json:"alerts,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	Duration    time.Duration      `json:"duration"`
}
