package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/andresuchdata/inventory-forecast/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-forecast/backend-go/internal/forecast"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// Sales, reviews and returns are aggregated in their own sub-selects so the
// joins back to products stay one row per product.
const itemAnalyticsQuery = `
	SELECT
		p.id,
		p.sku,
		p.name,
		COALESCE(c.name, '') AS category_name,
		p.price,
		p.inventory_count,
		p.min_stock_level,
		p.max_stock_level,
		COALESCE(s.units, 0) AS sales_30d,
		COALESCE(s.revenue, 0) AS revenue_30d,
		COALESCE(r.avg_rating, 0)::float8 AS avg_rating_60d,
		COALESCE(r.review_count, 0) AS review_count_60d,
		COALESCE(ret.units, 0) AS returns_30d,
		CASE
			WHEN p.inventory_count <= p.min_stock_level THEN 'LOW_STOCK'
			WHEN p.inventory_count >= p.max_stock_level THEN 'OVERSTOCK'
			ELSE 'IN_STOCK'
		END AS inventory_status
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN (
		SELECT product_id, SUM(quantity) AS units, SUM(revenue) AS revenue
		FROM sales
		WHERE sale_date >= CURRENT_DATE - ($1::int * INTERVAL '1 day')
		GROUP BY product_id
	) s ON s.product_id = p.id
	LEFT JOIN (
		SELECT product_id, AVG(rating) AS avg_rating, COUNT(id) AS review_count
		FROM reviews
		WHERE review_date >= CURRENT_DATE - ($2::int * INTERVAL '1 day')
		GROUP BY product_id
	) r ON r.product_id = p.id
	LEFT JOIN (
		SELECT product_id, SUM(quantity) AS units
		FROM returns
		WHERE return_date >= CURRENT_DATE - ($1::int * INTERVAL '1 day')
		GROUP BY product_id
	) ret ON ret.product_id = p.id
`

type analyticsRepository struct {
	db *DB
}

// NewAnalyticsRepository creates the postgres analytics source. Sales and
// returns are aggregated over forecast.SalesWindowDays and reviews over
// forecast.ReviewWindowDays, the same windows the engine divides by.
func NewAnalyticsRepository(db *DB) *analyticsRepository {
	return &analyticsRepository{db: db}
}

// itemAnalyticsRow mirrors domain.ItemAnalytics with nullable columns so a
// single bad product row cannot fail the whole listing.
type itemAnalyticsRow struct {
	ID              sql.NullInt64       `db:"id"`
	SKU             sql.NullString      `db:"sku"`
	Name            sql.NullString      `db:"name"`
	CategoryName    sql.NullString      `db:"category_name"`
	Price           decimal.NullDecimal `db:"price"`
	InventoryCount  sql.NullInt64       `db:"inventory_count"`
	MinStockLevel   sql.NullInt64       `db:"min_stock_level"`
	MaxStockLevel   sql.NullInt64       `db:"max_stock_level"`
	Sales30d        sql.NullInt64       `db:"sales_30d"`
	Revenue30d      decimal.NullDecimal `db:"revenue_30d"`
	AvgRating60d    sql.NullFloat64     `db:"avg_rating_60d"`
	ReviewCount60d  sql.NullInt64       `db:"review_count_60d"`
	Returns30d      sql.NullInt64       `db:"returns_30d"`
	InventoryStatus sql.NullString      `db:"inventory_status"`
}

func (row itemAnalyticsRow) toDomain() domain.ItemAnalytics {
	item := domain.ItemAnalytics{
		ID:              row.ID.Int64,
		SKU:             row.SKU.String,
		Name:            row.Name.String,
		CategoryName:    row.CategoryName.String,
		Price:           row.Price.Decimal,
		InventoryCount:  int(row.InventoryCount.Int64),
		MinStockLevel:   int(row.MinStockLevel.Int64),
		MaxStockLevel:   int(row.MaxStockLevel.Int64),
		Sales30d:        int(row.Sales30d.Int64),
		Revenue30d:      row.Revenue30d.Decimal,
		AvgRating60d:    row.AvgRating60d.Float64,
		ReviewCount60d:  int(row.ReviewCount60d.Int64),
		Returns30d:      int(row.Returns30d.Int64),
		InventoryStatus: domain.InventoryStatus(row.InventoryStatus.String),
	}

	required := []struct {
		column string
		valid  bool
	}{
		{"sku", row.SKU.Valid},
		{"inventory_count", row.InventoryCount.Valid},
		{"min_stock_level", row.MinStockLevel.Valid},
		{"max_stock_level", row.MaxStockLevel.Valid},
	}
	for _, col := range required {
		if !col.valid {
			item.Defects = append(item.Defects, col.column+" is null")
		}
	}

	return item
}

// ListItemAnalytics scans row by row. A row that cannot be scanned or has a
// NULL in a required column is returned with Defects set; only query and
// connection failures are errors.
func (r *analyticsRepository) ListItemAnalytics(ctx context.Context) ([]domain.ItemAnalytics, error) {
	query := itemAnalyticsQuery + " ORDER BY p.sku"

	rows, err := r.db.QueryxContext(ctx, query, forecast.SalesWindowDays, forecast.ReviewWindowDays)
	if err != nil {
		return nil, fmt.Errorf("error listing item analytics: %w", err)
	}
	defer rows.Close()

	items := []domain.ItemAnalytics{}
	for rows.Next() {
		var row itemAnalyticsRow
		if err := rows.StructScan(&row); err != nil {
			items = append(items, unreadableRow(rows, err))
			continue
		}
		items = append(items, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error listing item analytics: %w", err)
	}

	return items, nil
}

// unreadableRow keeps the SKU of a row that failed to scan when the raw
// value is still readable, so the skip can be traced.
func unreadableRow(rows *sqlx.Rows, scanErr error) domain.ItemAnalytics {
	item := domain.ItemAnalytics{Defects: []string{scanErr.Error()}}

	raw := map[string]interface{}{}
	if err := rows.MapScan(raw); err != nil {
		return item
	}
	switch v := raw["sku"].(type) {
	case string:
		item.SKU = v
	case []byte:
		item.SKU = string(v)
	}

	return item
}

func (r *analyticsRepository) GetItemAnalytics(ctx context.Context, sku string) (*domain.ItemAnalytics, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, forecast.ErrItemNotFound
	}

	query := itemAnalyticsQuery + " WHERE p.sku = $3"

	var row itemAnalyticsRow
	err := r.db.GetContext(ctx, &row, query, forecast.SalesWindowDays, forecast.ReviewWindowDays, sku)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sku %s: %w", sku, forecast.ErrItemNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting item analytics for %s: %w", sku, err)
	}

	item := row.toDomain()
	return &item, nil
}
