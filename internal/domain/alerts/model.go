package alerts

import (
	"context"
	"time"

	"supplytrack/internal/core/id"
)

// CheckLog is one rule evaluation against one product, recorded per
// sweep whether or not the alert fired.
type CheckLog struct {
	ID            id.ID     `db:"id" json:"id"`
	ProductID     id.ID     `db:"product_id" json:"productId"`
	ProductName   string    `db:"product_name" json:"productName"`
	SKU           string    `db:"sku" json:"sku"`
	StockQuantity int       `db:"stock_quantity" json:"stockQuantity"`
	ReorderLevel  int       `db:"reorder_level" json:"reorderLevel"`
	AlertFired    bool      `db:"alert_fired" json:"alertFired"`
	Rule          string    `db:"rule" json:"rule"`
	CheckedAt     time.Time `db:"checked_at" json:"checkedAt"`
}

// Repository defines persistence for check logs.
type Repository interface {
	// InsertLogs batch inserts one sweep's results.
	InsertLogs(ctx context.Context, logs []CheckLog) error

	// ListRecent returns the latest check logs, newest first.
	// onlyFired narrows to rows where the alert fired.
	ListRecent(ctx context.Context, limit int, onlyFired bool) ([]CheckLog, error)
}
