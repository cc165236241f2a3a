package supplier

import (
	"context"

	"supplytrack/internal/core/id"
	"supplytrack/internal/domain"
	"supplytrack/internal/domain/audit"
)

// Service provides business logic for the supplier catalog.
type Service struct {
	repo  Repository
	audit audit.Recorder
}

// NewService creates a new supplier service.
func NewService(repo Repository, auditRec audit.Recorder) *Service {
	return &Service{repo: repo, audit: auditRec}
}

// Create validates and stores a new supplier.
func (s *Service) Create(ctx context.Context, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}
	audit.EnrichCreatedBy(ctx, &sup.CreatedBy, &sup.UpdatedBy)
	if err := s.repo.Create(ctx, sup); err != nil {
		return err
	}
	s.log(ctx, sup, audit.ActionCreate)
	return nil
}

// GetByID retrieves a supplier.
func (s *Service) GetByID(ctx context.Context, supplierID id.ID) (*Supplier, error) {
	return s.repo.GetByID(ctx, supplierID)
}

// Update validates and stores supplier changes.
func (s *Service) Update(ctx context.Context, sup *Supplier) error {
	if err := sup.Validate(ctx); err != nil {
		return err
	}
	audit.EnrichUpdatedBy(ctx, &sup.UpdatedBy)
	sup.Touch()
	if err := s.repo.Update(ctx, sup); err != nil {
		return err
	}
	s.log(ctx, sup, audit.ActionUpdate)
	return nil
}

// Delete soft-deletes a supplier.
func (s *Service) Delete(ctx context.Context, supplierID id.ID) error {
	sup, err := s.repo.GetByID(ctx, supplierID)
	if err != nil {
		return err
	}
	if err := s.repo.SetDeletionMark(ctx, supplierID, true); err != nil {
		return err
	}
	s.log(ctx, sup, audit.ActionDelete)
	return nil
}

// List retrieves suppliers with filtering and pagination.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Supplier], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) log(ctx context.Context, sup *Supplier, action audit.Action) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, audit.Entry{
		Action:     action,
		EntityType: "supplier",
		EntityID:   sup.ID.String(),
		ObjectRepr: sup.CompanyName,
	})
}
