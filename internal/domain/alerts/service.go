package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"supplytrack/internal/core/id"
	"supplytrack/internal/domain/catalogs/product"
	"supplytrack/internal/domain/notify"
	"supplytrack/pkg/logger"
)

// Service runs reorder checks over the product catalog.
type Service struct {
	products product.Repository
	repo     Repository
	rule     *Rule
	notifier notify.Notifier

	// recipient is the purchasing inbox for sweep summaries.
	recipient string
}

// NewService creates the alert service. A nil rule falls back to
// DefaultRule.
func NewService(products product.Repository, repo Repository, rule *Rule,
	notifier notify.Notifier, recipient string) *Service {
	if rule == nil {
		rule = MustCompile(DefaultRule)
	}
	return &Service{
		products:  products,
		repo:      repo,
		rule:      rule,
		notifier:  notifier,
		recipient: recipient,
	}
}

// EvaluateProduct runs the rule against one product.
func (s *Service) EvaluateProduct(ctx context.Context, productID id.ID) (bool, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return false, err
	}
	return s.rule.Evaluate(p)
}

// CheckAll sweeps every active product, records a check log per product
// and sends one summary notification when anything fired. A product
// whose evaluation errors is logged and skipped; the sweep continues.
func (s *Service) CheckAll(ctx context.Context) ([]CheckLog, error) {
	products, err := s.products.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	logs := make([]CheckLog, 0, len(products))
	var fired []CheckLog
	for _, p := range products {
		hit, err := s.rule.Evaluate(p)
		if err != nil {
			logger.Warn(ctx, "alert rule evaluation failed", "sku", p.SKU, "error", err)
			continue
		}
		entry := CheckLog{
			ID:            id.New(),
			ProductID:     p.ID,
			ProductName:   p.Name,
			SKU:           p.SKU,
			StockQuantity: p.StockQuantity,
			ReorderLevel:  p.ReorderLevel,
			AlertFired:    hit,
			Rule:          s.rule.Expression(),
			CheckedAt:     now,
		}
		logs = append(logs, entry)
		if hit {
			fired = append(fired, entry)
		}
	}

	if len(logs) > 0 {
		if err := s.repo.InsertLogs(ctx, logs); err != nil {
			return nil, err
		}
	}

	if len(fired) > 0 && s.recipient != "" {
		var sb strings.Builder
		for _, e := range fired {
			fmt.Fprintf(&sb, "%s (%s): %d on hand, reorder at %d\n",
				e.ProductName, e.SKU, e.StockQuantity, e.ReorderLevel)
		}
		notify.BestEffort(ctx, s.notifier, notify.Message{
			Recipient: s.recipient,
			Subject:   fmt.Sprintf("%d products need reordering", len(fired)),
			Body:      sb.String(),
		})
	}

	logger.Info(ctx, "reorder sweep finished", "checked", len(logs), "fired", len(fired))
	return logs, nil
}

// RecentChecks returns the latest check logs.
func (s *Service) RecentChecks(ctx context.Context, limit int, onlyFired bool) ([]CheckLog, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListRecent(ctx, limit, onlyFired)
}
