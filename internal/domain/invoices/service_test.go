package invoices

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/id"
	"supplytrack/internal/core/types"
	"supplytrack/internal/domain"
	"supplytrack/internal/domain/audit"
	"supplytrack/internal/domain/catalogs/customer"
	"supplytrack/internal/domain/orders"
)

type passTxManager struct{}

func (passTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeInvoiceRepo struct {
	byID map[id.ID]Invoice
}

func newFakeInvoiceRepo() *fakeInvoiceRepo {
	return &fakeInvoiceRepo{byID: make(map[id.ID]Invoice)}
}

func (f *fakeInvoiceRepo) Create(_ context.Context, inv *Invoice) error {
	f.byID[inv.ID] = *inv
	return nil
}

func (f *fakeInvoiceRepo) GetByID(_ context.Context, invoiceID id.ID) (*Invoice, error) {
	inv, ok := f.byID[invoiceID]
	if !ok {
		return nil, apperror.NewNotFound("invoice", invoiceID)
	}
	cp := inv
	return &cp, nil
}

func (f *fakeInvoiceRepo) GetByNumber(_ context.Context, number string) (*Invoice, error) {
	for _, inv := range f.byID {
		if inv.Number == number {
			cp := inv
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("invoice", number)
}

func (f *fakeInvoiceRepo) GetByOrderID(_ context.Context, orderID id.ID) (*Invoice, error) {
	for _, inv := range f.byID {
		if inv.OrderID != nil && *inv.OrderID == orderID {
			cp := inv
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("invoice", orderID)
}

func (f *fakeInvoiceRepo) Update(_ context.Context, inv *Invoice) error {
	if _, ok := f.byID[inv.ID]; !ok {
		return apperror.NewNotFound("invoice", inv.ID)
	}
	f.byID[inv.ID] = *inv
	return nil
}

func (f *fakeInvoiceRepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*Invoice], error) {
	var items []*Invoice
	for _, inv := range f.byID {
		cp := inv
		items = append(items, &cp)
	}
	return domain.ListResult[*Invoice]{Items: items, TotalCount: int64(len(items))}, nil
}

func (f *fakeInvoiceRepo) ExistsByNumber(_ context.Context, number string) (bool, error) {
	for _, inv := range f.byID {
		if inv.Number == number {
			return true, nil
		}
	}
	return false, nil
}

type fakeOrderRepo struct {
	byID map[id.ID]orders.Order
}

func (f *fakeOrderRepo) Create(_ context.Context, o *orders.Order) error {
	f.byID[o.ID] = *o
	return nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, orderID id.ID) (*orders.Order, error) {
	o, ok := f.byID[orderID]
	if !ok {
		return nil, apperror.NewNotFound("order", orderID)
	}
	cp := o
	return &cp, nil
}

func (f *fakeOrderRepo) GetByNumber(_ context.Context, number string) (*orders.Order, error) {
	return nil, apperror.NewNotFound("order", number)
}

func (f *fakeOrderRepo) Update(_ context.Context, o *orders.Order) error {
	f.byID[o.ID] = *o
	return nil
}

func (f *fakeOrderRepo) SetDeletionMark(_ context.Context, _ id.ID, _ bool) error { return nil }

func (f *fakeOrderRepo) List(_ context.Context, _ orders.ListFilter) (domain.ListResult[*orders.Order], error) {
	return domain.ListResult[*orders.Order]{}, nil
}

func (f *fakeOrderRepo) ExistsByNumber(_ context.Context, _ string) (bool, error) {
	return false, nil
}

type fakeManualRepo struct {
	byID map[id.ID]orders.ManualOrder
}

func (f *fakeManualRepo) Create(_ context.Context, m *orders.ManualOrder) error {
	f.byID[m.ID] = *m
	return nil
}

func (f *fakeManualRepo) GetByID(_ context.Context, orderID id.ID) (*orders.ManualOrder, error) {
	m, ok := f.byID[orderID]
	if !ok {
		return nil, apperror.NewNotFound("manual order", orderID)
	}
	cp := m
	return &cp, nil
}

func (f *fakeManualRepo) GetByNumber(_ context.Context, number string) (*orders.ManualOrder, error) {
	return nil, apperror.NewNotFound("manual order", number)
}

func (f *fakeManualRepo) Update(_ context.Context, m *orders.ManualOrder) error {
	f.byID[m.ID] = *m
	return nil
}

func (f *fakeManualRepo) SetDeletionMark(_ context.Context, _ id.ID, _ bool) error { return nil }

func (f *fakeManualRepo) List(_ context.Context, _ orders.ListFilter) (domain.ListResult[*orders.ManualOrder], error) {
	return domain.ListResult[*orders.ManualOrder]{}, nil
}

func (f *fakeManualRepo) ExistsByNumber(_ context.Context, _ string) (bool, error) {
	return false, nil
}

type fakeCustomerRepo struct {
	byID map[id.ID]customer.Customer
}

func (f *fakeCustomerRepo) Create(_ context.Context, c *customer.Customer) error {
	f.byID[c.ID] = *c
	return nil
}

func (f *fakeCustomerRepo) GetByID(_ context.Context, customerID id.ID) (*customer.Customer, error) {
	c, ok := f.byID[customerID]
	if !ok {
		return nil, apperror.NewNotFound("customer", customerID)
	}
	cp := c
	return &cp, nil
}

func (f *fakeCustomerRepo) Update(_ context.Context, c *customer.Customer) error {
	f.byID[c.ID] = *c
	return nil
}

func (f *fakeCustomerRepo) SetDeletionMark(_ context.Context, _ id.ID, _ bool) error { return nil }

func (f *fakeCustomerRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*customer.Customer], error) {
	return domain.ListResult[*customer.Customer]{}, nil
}

type noopRecorder struct{}

func (noopRecorder) Log(_ context.Context, _ audit.Entry) {}

func newTestService() (*Service, *fakeInvoiceRepo, *fakeOrderRepo, *fakeManualRepo, *fakeCustomerRepo) {
	invRepo := newFakeInvoiceRepo()
	orderRepo := &fakeOrderRepo{byID: make(map[id.ID]orders.Order)}
	manualRepo := &fakeManualRepo{byID: make(map[id.ID]orders.ManualOrder)}
	custRepo := &fakeCustomerRepo{byID: make(map[id.ID]customer.Customer)}
	svc := NewService(invRepo, orderRepo, manualRepo, custRepo, passTxManager{},
		noopRecorder{}, types.MustMoney("0.12"))
	return svc, invRepo, orderRepo, manualRepo, custRepo
}

func TestCreateForOrder(t *testing.T) {
	ctx := context.Background()
	svc, _, orderRepo, _, custRepo := newTestService()

	c := customer.New("Maria Santos")
	require.NoError(t, custRepo.Create(ctx, c))

	o := orders.NewOrder("ORDAAAA1111", c.ID, orders.PaymentGcash)
	o.AddItem(id.New(), 2, types.MustMoney("50"))
	o.AddItem(id.New(), 1, types.MustMoney("25"))
	require.NoError(t, orderRepo.Create(ctx, o))

	inv, err := svc.CreateForOrder(ctx, o.ID)
	require.NoError(t, err)

	assert.Equal(t, "INV", inv.Number[:3])
	assert.Equal(t, StatusDraft, inv.Status)
	assert.Equal(t, "Maria Santos", inv.BilledTo)
	assert.True(t, inv.Subtotal.Equal(types.MustMoney("125")))
	assert.True(t, inv.Tax.Equal(types.MustMoney("15.00")))
	assert.True(t, inv.Total.Equal(types.MustMoney("140.00")))
	require.NotNil(t, inv.OrderID)
	assert.Equal(t, o.ID, *inv.OrderID)
}

func TestCreateForOrder_OnePerOrder(t *testing.T) {
	ctx := context.Background()
	svc, _, orderRepo, _, custRepo := newTestService()

	c := customer.New("Maria Santos")
	require.NoError(t, custRepo.Create(ctx, c))
	o := orders.NewOrder("ORDAAAA1111", c.ID, orders.PaymentCOD)
	o.AddItem(id.New(), 1, types.MustMoney("10"))
	require.NoError(t, orderRepo.Create(ctx, o))

	_, err := svc.CreateForOrder(ctx, o.ID)
	require.NoError(t, err)
	_, err = svc.CreateForOrder(ctx, o.ID)
	require.Error(t, err)
}

func TestCreateForManualOrder(t *testing.T) {
	ctx := context.Background()
	svc, _, _, manualRepo, _ := newTestService()

	m := orders.NewManualOrder("MANAAAA1111", "Juan Dela Cruz", orders.SourceB2B, orders.PaymentCOD)
	m.AddItem(id.New(), 4, types.MustMoney("25"))
	require.NoError(t, manualRepo.Create(ctx, m))

	inv, err := svc.CreateForManualOrder(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "Juan Dela Cruz", inv.BilledTo)
	assert.True(t, inv.Subtotal.Equal(types.MustMoney("100")))
	require.NotNil(t, inv.ManualOrderID)
}

func TestInvoiceLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _, _, manualRepo, _ := newTestService()

	m := orders.NewManualOrder("MANAAAA1111", "Juan Dela Cruz", orders.SourceB2B, orders.PaymentCOD)
	m.AddItem(id.New(), 1, types.MustMoney("10"))
	require.NoError(t, manualRepo.Create(ctx, m))
	inv, err := svc.CreateForManualOrder(ctx, m.ID)
	require.NoError(t, err)

	// Paying a draft is invalid; it must be issued first.
	_, err = svc.MarkPaid(ctx, inv.ID)
	require.Error(t, err)

	inv, err = svc.Issue(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusIssued, inv.Status)
	assert.NotNil(t, inv.IssuedAt)

	inv, err = svc.MarkPaid(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, inv.Status)

	// Paid invoices cannot be cancelled.
	_, err = svc.Cancel(ctx, inv.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestInvoiceValidate_ExactlyOneReference(t *testing.T) {
	inv := New("INVAAAA1111", types.MustMoney("10"), types.Zero(), "x")
	require.Error(t, inv.Validate(context.Background()), "no reference")

	oid, mid := id.New(), id.New()
	inv.OrderID = &oid
	require.NoError(t, inv.Validate(context.Background()))

	inv.ManualOrderID = &mid
	require.Error(t, inv.Validate(context.Background()), "both references")
}
