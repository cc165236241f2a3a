package purchasing

import (
	"context"
	"time"

	"supplytrack/internal/core/id"
	"supplytrack/internal/domain"
)

// ListFilter narrows purchase order list queries.
type ListFilter struct {
	domain.ListFilter

	Status        *Status
	PaymentStatus *PaymentStatus
	SupplierID    *id.ID
}

// Repository defines persistence for purchase orders and their
// notification rows.
type Repository interface {
	Create(ctx context.Context, po *PurchaseOrder) error
	GetByID(ctx context.Context, poID id.ID) (*PurchaseOrder, error)
	GetByNumber(ctx context.Context, number string) (*PurchaseOrder, error)

	// Update persists the header and replaces item lines, with
	// optimistic locking on the header version.
	Update(ctx context.Context, po *PurchaseOrder) error

	SetDeletionMark(ctx context.Context, poID id.ID, marked bool) error
	List(ctx context.Context, filter ListFilter) (domain.ListResult[*PurchaseOrder], error)
	ExistsByNumber(ctx context.Context, number string) (bool, error)

	// ListDueBetween returns unpaid or overdue orders whose payment due
	// date falls inside [from, to], soonest first.
	ListDueBetween(ctx context.Context, from, to time.Time) ([]*PurchaseOrder, error)

	InsertNotification(ctx context.Context, n Notification) error
	ListNotifications(ctx context.Context, poID id.ID) ([]Notification, error)
}
