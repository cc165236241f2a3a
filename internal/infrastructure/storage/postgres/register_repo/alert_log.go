package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"supplytrack/internal/domain/alerts"
	"supplytrack/internal/infrastructure/storage/postgres"
)

const alertCheckLogsTable = "alert_check_logs"

// AlertLogRepo implements alerts.Repository.
type AlertLogRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewAlertLogRepo creates a new alert check log repository.
func NewAlertLogRepo(txm *postgres.TxManager) *AlertLogRepo {
	return &AlertLogRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// InsertLogs batch inserts one sweep's results.
func (r *AlertLogRepo) InsertLogs(ctx context.Context, logs []alerts.CheckLog) error {
	if len(logs) == 0 {
		return nil
	}

	q := r.builder.Insert(alertCheckLogsTable).Columns(
		"id", "product_id", "product_name", "sku",
		"stock_quantity", "reorder_level", "alert_fired", "rule", "checked_at",
	)
	for _, l := range logs {
		q = q.Values(
			l.ID, l.ProductID, l.ProductName, l.SKU,
			l.StockQuantity, l.ReorderLevel, l.AlertFired, l.Rule, l.CheckedAt,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert check logs: %w", err)
	}
	return nil
}

// ListRecent returns the latest check logs, newest first.
func (r *AlertLogRepo) ListRecent(ctx context.Context, limit int, onlyFired bool) ([]alerts.CheckLog, error) {
	if limit <= 0 {
		limit = 50
	}

	q := r.builder.Select(
		"id", "product_id", "product_name", "sku",
		"stock_quantity", "reorder_level", "alert_fired", "rule", "checked_at",
	).From(alertCheckLogsTable)

	if onlyFired {
		q = q.Where(squirrel.Eq{"alert_fired": true})
	}

	q = q.OrderBy("checked_at DESC", "id DESC").Limit(uint64(limit))

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var logs []alerts.CheckLog
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &logs, sql, args...); err != nil {
		return nil, fmt.Errorf("select check logs: %w", err)
	}
	return logs, nil
}

// Ensure interface compliance.
var _ alerts.Repository = (*AlertLogRepo)(nil)
