package stockledger

import (
	"context"
	"fmt"
	"sort"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/id"
	"supplytrack/internal/core/tx"
	"supplytrack/internal/domain"
	"supplytrack/pkg/logger"
)

// Service provides ledger operations. Every mutation runs inside a
// transaction: balances change and movements are written atomically, or
// nothing changes at all.
type Service struct {
	repo Repository
	txm  tx.Manager
}

// NewService creates a new stock ledger service.
func NewService(repo Repository, txm tx.Manager) *Service {
	return &Service{repo: repo, txm: txm}
}

// Reserve deducts stock for every line or for none of them.
//
// All product rows are locked up front (ascending ID order), every line
// is validated against the locked balance, and only then are balances
// decremented and OUT movements written. Any shortage aborts the whole
// operation with the complete shortage list.
func (s *Service) Reserve(ctx context.Context, lines []Line, reference, notes string) error {
	merged, err := mergeLines(lines)
	if err != nil {
		return err
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.lockLines(ctx, merged)
		if err != nil {
			return err
		}

		var shortages []apperror.StockShortage
		for _, line := range merged {
			ps := locked[line.ProductID]
			if ps.StockQuantity < line.Quantity {
				shortages = append(shortages, apperror.StockShortage{
					ProductID: line.ProductID.String(),
					Name:      ps.Name,
					Required:  line.Quantity,
					Available: ps.StockQuantity,
				})
			}
		}
		if len(shortages) > 0 {
			return apperror.NewInsufficientStock(shortages)
		}

		movements := make([]Movement, 0, len(merged))
		for _, line := range merged {
			ps := locked[line.ProductID]
			if err := s.repo.SetStockQuantity(ctx, line.ProductID, ps.StockQuantity-line.Quantity); err != nil {
				return fmt.Errorf("deduct stock for %s: %w", line.ProductID, err)
			}
			movements = append(movements, NewMovement(line.ProductID, MovementOut, line.Quantity, reference, notes))
		}
		if err := s.repo.CreateMovements(ctx, movements); err != nil {
			return fmt.Errorf("create movements: %w", err)
		}

		logger.Info(ctx, "stock reserved", "reference", reference, "lines", len(merged))
		return nil
	})
}

// Restore returns previously deducted stock and writes IN movements.
func (s *Service) Restore(ctx context.Context, lines []Line, reference, notes string) error {
	merged, err := mergeLines(lines)
	if err != nil {
		return err
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.lockLines(ctx, merged)
		if err != nil {
			return err
		}

		movements := make([]Movement, 0, len(merged))
		for _, line := range merged {
			ps := locked[line.ProductID]
			if err := s.repo.SetStockQuantity(ctx, line.ProductID, ps.StockQuantity+line.Quantity); err != nil {
				return fmt.Errorf("restore stock for %s: %w", line.ProductID, err)
			}
			movements = append(movements, NewMovement(line.ProductID, MovementIn, line.Quantity, reference, notes))
		}
		if err := s.repo.CreateMovements(ctx, movements); err != nil {
			return fmt.Errorf("create movements: %w", err)
		}

		logger.Info(ctx, "stock restored", "reference", reference, "lines", len(merged))
		return nil
	})
}

// AdjustForReceipt applies a signed balance correction, used when
// purchase order receipts change. Positive delta is an IN movement,
// negative an OUT. Reversals floor the balance at zero so a cached
// balance never goes negative; the movement records the quantity
// actually applied.
func (s *Service) AdjustForReceipt(ctx context.Context, productID id.ID, delta int, reference string) error {
	if delta == 0 {
		return nil
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.repo.LockProducts(ctx, []id.ID{productID})
		if err != nil {
			return fmt.Errorf("lock product: %w", err)
		}
		if len(locked) == 0 {
			return apperror.NewNotFound("product", productID)
		}
		ps := locked[0]

		newQty := ps.StockQuantity + delta
		applied := delta
		if newQty < 0 {
			applied = -ps.StockQuantity
			newQty = 0
		}
		if applied == 0 {
			return nil
		}

		if err := s.repo.SetStockQuantity(ctx, productID, newQty); err != nil {
			return fmt.Errorf("set stock: %w", err)
		}

		mt := MovementIn
		qty := applied
		if applied < 0 {
			mt = MovementOut
			qty = -applied
		}
		if err := s.repo.CreateMovements(ctx, []Movement{
			NewMovement(productID, mt, qty, reference, ""),
		}); err != nil {
			return fmt.Errorf("create movement: %w", err)
		}
		return nil
	})
}

// CheckAvailability reports whether quantity is currently available.
// The read is unlocked; only Reserve gives a hard guarantee.
func (s *Service) CheckAvailability(ctx context.Context, productID id.ID, quantity int) (bool, int, error) {
	if quantity <= 0 {
		return false, 0, apperror.NewValidation("quantity must be positive")
	}
	ps, err := s.repo.GetStock(ctx, productID)
	if err != nil {
		return false, 0, err
	}
	return ps.StockQuantity >= quantity, ps.StockQuantity, nil
}

// Movements returns movement history.
func (s *Service) Movements(ctx context.Context, filter MovementFilter) (domain.ListResult[Movement], error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.ListMovements(ctx, filter)
}

// lockLines locks all products referenced by lines and verifies each
// one exists. Returns locked rows keyed by product ID.
func (s *Service) lockLines(ctx context.Context, lines []Line) (map[id.ID]ProductStock, error) {
	ids := make([]id.ID, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	locked, err := s.repo.LockProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}

	byID := make(map[id.ID]ProductStock, len(locked))
	for _, ps := range locked {
		byID[ps.ID] = ps
	}
	for _, line := range lines {
		if _, ok := byID[line.ProductID]; !ok {
			return nil, apperror.NewNotFound("product", line.ProductID)
		}
	}
	return byID, nil
}

// mergeLines validates lines and merges duplicate product references,
// then orders them by product ID to match the lock order.
func mergeLines(lines []Line) ([]Line, error) {
	if len(lines) == 0 {
		return nil, apperror.NewValidation("at least one line is required")
	}

	byProduct := make(map[id.ID]int)
	for i, line := range lines {
		if id.IsNil(line.ProductID) {
			return nil, apperror.NewValidation(fmt.Sprintf("line %d: product_id is required", i))
		}
		if line.Quantity <= 0 {
			return nil, apperror.NewValidation(fmt.Sprintf("line %d: quantity must be positive", i))
		}
		byProduct[line.ProductID] += line.Quantity
	}

	merged := make([]Line, 0, len(byProduct))
	for pid, qty := range byProduct {
		merged = append(merged, Line{ProductID: pid, Quantity: qty})
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].ProductID.String() < merged[j].ProductID.String()
	})
	return merged, nil
}
