package repository

import (
	"context"

	"github.com/andresuchdata/inventory-forecast/backend-go/internal/domain"
)

// AnalyticsRepository reads pre-aggregated per-item analytics. Rows come back
// ordered by SKU with nulls already coalesced to zero.
type AnalyticsRepository interface {
	ListItemAnalytics(ctx context.Context) ([]domain.ItemAnalytics, error)
	GetItemAnalytics(ctx context.Context, sku string) (*domain.ItemAnalytics, error)
}
