package customer

import (
	"context"

	"supplytrack/internal/core/id"
	"supplytrack/internal/domain"
	"supplytrack/internal/domain/audit"
)

// Service provides business logic for the customer catalog.
type Service struct {
	repo  Repository
	audit audit.Recorder
}

// NewService creates a new customer service.
func NewService(repo Repository, auditRec audit.Recorder) *Service {
	return &Service{repo: repo, audit: auditRec}
}

// Create validates and stores a new customer.
func (s *Service) Create(ctx context.Context, c *Customer) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}
	audit.EnrichCreatedBy(ctx, &c.CreatedBy, &c.UpdatedBy)
	if err := s.repo.Create(ctx, c); err != nil {
		return err
	}
	s.log(ctx, c, audit.ActionCreate)
	return nil
}

// GetByID retrieves a customer.
func (s *Service) GetByID(ctx context.Context, customerID id.ID) (*Customer, error) {
	return s.repo.GetByID(ctx, customerID)
}

// Update validates and stores customer changes.
func (s *Service) Update(ctx context.Context, c *Customer) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}
	audit.EnrichUpdatedBy(ctx, &c.UpdatedBy)
	c.Touch()
	if err := s.repo.Update(ctx, c); err != nil {
		return err
	}
	s.log(ctx, c, audit.ActionUpdate)
	return nil
}

// Delete soft-deletes a customer.
func (s *Service) Delete(ctx context.Context, customerID id.ID) error {
	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return err
	}
	if err := s.repo.SetDeletionMark(ctx, customerID, true); err != nil {
		return err
	}
	s.log(ctx, c, audit.ActionDelete)
	return nil
}

// List retrieves customers with filtering and pagination.
func (s *Service) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Customer], error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) log(ctx context.Context, c *Customer, action audit.Action) {
	if s.audit == nil {
		return
	}
	s.audit.Log(ctx, audit.Entry{
		Action:     action,
		EntityType: "customer",
		EntityID:   c.ID.String(),
		ObjectRepr: c.Name,
	})
}
