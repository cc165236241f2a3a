package product

import (
	"context"
	"fmt"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/id"
	"supplytrack/internal/domain"
	"supplytrack/internal/domain/audit"
)

// Service provides business logic for the product catalog.
type Service struct {
	repo  Repository
	audit audit.Recorder
}

// NewService creates a new product service.
func NewService(repo Repository, auditRec audit.Recorder) *Service {
	return &Service{repo: repo, audit: auditRec}
}

// Create validates and stores a new product.
func (s *Service) Create(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	exists, err := s.repo.ExistsBySKU(ctx, p.SKU, p.ID)
	if err != nil {
		return fmt.Errorf("check sku: %w", err)
	}
	if exists {
		return apperror.NewDuplicate("product", "sku", p.SKU)
	}

	audit.EnrichCreatedBy(ctx, &p.CreatedBy, &p.UpdatedBy)
	if err := s.repo.Create(ctx, p); err != nil {
		return err
	}

	s.logAction(ctx, p, audit.ActionCreate, nil)
	return nil
}

// GetByID retrieves a product.
func (s *Service) GetByID(ctx context.Context, productID id.ID) (*Product, error) {
	return s.repo.GetByID(ctx, productID)
}

// GetBySKU retrieves a product by SKU.
func (s *Service) GetBySKU(ctx context.Context, sku string) (*Product, error) {
	return s.repo.GetBySKU(ctx, sku)
}

// Update validates and stores catalog field changes.
// Stock quantity changes are rejected; they belong to the ledger.
func (s *Service) Update(ctx context.Context, p *Product) error {
	if err := p.Validate(ctx); err != nil {
		return err
	}

	current, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	if p.StockQuantity != current.StockQuantity {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"stock quantity can only change through stock movements")
	}

	exists, err := s.repo.ExistsBySKU(ctx, p.SKU, p.ID)
	if err != nil {
		return fmt.Errorf("check sku: %w", err)
	}
	if exists {
		return apperror.NewDuplicate("product", "sku", p.SKU)
	}

	audit.EnrichUpdatedBy(ctx, &p.UpdatedBy)
	p.Touch()
	if err := s.repo.Update(ctx, p); err != nil {
		return err
	}

	s.logAction(ctx, p, audit.ActionUpdate, map[string]any{
		"changes": audit.Diff(snapshot(current), snapshot(p)),
	})
	return nil
}

// Delete soft-deletes a product.
func (s *Service) Delete(ctx context.Context, productID id.ID) error {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if err := s.repo.SetDeletionMark(ctx, productID, true); err != nil {
		return err
	}
	s.logAction(ctx, p, audit.ActionDelete, nil)
	return nil
}

// Restore clears the deletion mark.
func (s *Service) Restore(ctx context.Context, productID id.ID) error {
	return s.repo.SetDeletionMark(ctx, productID, false)
}

// List retrieves products with filtering and pagination.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Product], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) logAction(ctx context.Context, p *Product, action audit.Action, extra map[string]any) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, audit.Entry{
		Action:     action,
		EntityType: "product",
		EntityID:   p.ID.String(),
		ObjectRepr: p.Name,
		Extra:      extra,
	})
}

// snapshot extracts the audit-relevant fields of a product.
func snapshot(p *Product) map[string]any {
	return map[string]any{
		"name":          p.Name,
		"sku":           p.SKU,
		"price":         p.Price.String(),
		"cost_price":    p.CostPrice.String(),
		"unit":          p.Unit,
		"reorder_level": p.ReorderLevel,
		"is_active":     p.IsActive,
	}
}
