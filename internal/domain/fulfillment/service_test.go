package fulfillment

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/id"
	"supplytrack/internal/core/types"
	"supplytrack/internal/domain"
	"supplytrack/internal/domain/audit"
	"supplytrack/internal/domain/catalogs/customer"
	"supplytrack/internal/domain/delivery"
	"supplytrack/internal/domain/notify"
	"supplytrack/internal/domain/orders"
	"supplytrack/internal/domain/stockledger"
)

// passTxManager reuses the caller's context; tests exercise
// orchestration logic, not transaction plumbing.
type passTxManager struct{}

func (passTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeLedgerRepo struct {
	stock     map[id.ID]stockledger.ProductStock
	movements []stockledger.Movement
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{stock: make(map[id.ID]stockledger.ProductStock)}
}

func (f *fakeLedgerRepo) addProduct(name string, qty int) id.ID {
	pid := id.New()
	f.stock[pid] = stockledger.ProductStock{ID: pid, Name: name, StockQuantity: qty, IsActive: true}
	return pid
}

func (f *fakeLedgerRepo) LockProducts(_ context.Context, productIDs []id.ID) ([]stockledger.ProductStock, error) {
	var out []stockledger.ProductStock
	for _, pid := range productIDs {
		if ps, ok := f.stock[pid]; ok {
			out = append(out, ps)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (f *fakeLedgerRepo) GetStock(_ context.Context, productID id.ID) (stockledger.ProductStock, error) {
	ps, ok := f.stock[productID]
	if !ok {
		return stockledger.ProductStock{}, apperror.NewNotFound("product", productID)
	}
	return ps, nil
}

func (f *fakeLedgerRepo) SetStockQuantity(_ context.Context, productID id.ID, quantity int) error {
	ps := f.stock[productID]
	ps.StockQuantity = quantity
	f.stock[productID] = ps
	return nil
}

func (f *fakeLedgerRepo) CreateMovements(_ context.Context, movements []stockledger.Movement) error {
	f.movements = append(f.movements, movements...)
	return nil
}

func (f *fakeLedgerRepo) ListMovements(_ context.Context, _ stockledger.MovementFilter) (domain.ListResult[stockledger.Movement], error) {
	return domain.ListResult[stockledger.Movement]{Items: f.movements, TotalCount: int64(len(f.movements))}, nil
}

type fakeOrderRepo struct {
	byID map[id.ID]orders.Order
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{byID: make(map[id.ID]orders.Order)}
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
	for _, o := range f.byID {
		if o.Number == number {
			cp := o
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("order", number)
}

func (f *fakeOrderRepo) Update(_ context.Context, o *orders.Order) error {
	if _, ok := f.byID[o.ID]; !ok {
		return apperror.NewNotFound("order", o.ID)
	}
	f.byID[o.ID] = *o
	return nil
}

func (f *fakeOrderRepo) SetDeletionMark(_ context.Context, orderID id.ID, marked bool) error {
	o, ok := f.byID[orderID]
	if !ok {
		return apperror.NewNotFound("order", orderID)
	}
	o.DeletionMark = marked
	f.byID[orderID] = o
	return nil
}

func (f *fakeOrderRepo) List(_ context.Context, _ orders.ListFilter) (domain.ListResult[*orders.Order], error) {
	var items []*orders.Order
	for _, o := range f.byID {
		cp := o
		items = append(items, &cp)
	}
	return domain.ListResult[*orders.Order]{Items: items, TotalCount: int64(len(items))}, nil
}

func (f *fakeOrderRepo) ExistsByNumber(_ context.Context, number string) (bool, error) {
	for _, o := range f.byID {
		if o.Number == number {
			return true, nil
		}
	}
	return false, nil
}

type fakeManualRepo struct {
	byID map[id.ID]orders.ManualOrder
}

func newFakeManualRepo() *fakeManualRepo {
	return &fakeManualRepo{byID: make(map[id.ID]orders.ManualOrder)}
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
	for _, m := range f.byID {
		if m.Number == number {
			cp := m
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("manual order", number)
}

func (f *fakeManualRepo) Update(_ context.Context, m *orders.ManualOrder) error {
	if _, ok := f.byID[m.ID]; !ok {
		return apperror.NewNotFound("manual order", m.ID)
	}
	f.byID[m.ID] = *m
	return nil
}

func (f *fakeManualRepo) SetDeletionMark(_ context.Context, orderID id.ID, marked bool) error {
	m, ok := f.byID[orderID]
	if !ok {
		return apperror.NewNotFound("manual order", orderID)
	}
	m.DeletionMark = marked
	f.byID[orderID] = m
	return nil
}

func (f *fakeManualRepo) List(_ context.Context, _ orders.ListFilter) (domain.ListResult[*orders.ManualOrder], error) {
	var items []*orders.ManualOrder
	for _, m := range f.byID {
		cp := m
		items = append(items, &cp)
	}
	return domain.ListResult[*orders.ManualOrder]{Items: items, TotalCount: int64(len(items))}, nil
}

func (f *fakeManualRepo) ExistsByNumber(_ context.Context, number string) (bool, error) {
	for _, m := range f.byID {
		if m.Number == number {
			return true, nil
		}
	}
	return false, nil
}

type fakeDeliveryRepo struct {
	byID map[id.ID]delivery.Delivery
}

func newFakeDeliveryRepo() *fakeDeliveryRepo {
	return &fakeDeliveryRepo{byID: make(map[id.ID]delivery.Delivery)}
}

func (f *fakeDeliveryRepo) Create(_ context.Context, d *delivery.Delivery) error {
	f.byID[d.ID] = *d
	return nil
}

func (f *fakeDeliveryRepo) GetByID(_ context.Context, deliveryID id.ID) (*delivery.Delivery, error) {
	d, ok := f.byID[deliveryID]
	if !ok {
		return nil, apperror.NewNotFound("delivery", deliveryID)
	}
	cp := d
	return &cp, nil
}

func (f *fakeDeliveryRepo) GetByOrderID(_ context.Context, orderID id.ID) (*delivery.Delivery, error) {
	for _, d := range f.byID {
		if d.OrderID == orderID {
			cp := d
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("delivery", orderID)
}

func (f *fakeDeliveryRepo) Update(_ context.Context, d *delivery.Delivery) error {
	if _, ok := f.byID[d.ID]; !ok {
		return apperror.NewNotFound("delivery", d.ID)
	}
	f.byID[d.ID] = *d
	return nil
}

func (f *fakeDeliveryRepo) List(_ context.Context, _ delivery.ListFilter) (domain.ListResult[*delivery.Delivery], error) {
	var items []*delivery.Delivery
	for _, d := range f.byID {
		cp := d
		items = append(items, &cp)
	}
	return domain.ListResult[*delivery.Delivery]{Items: items, TotalCount: int64(len(items))}, nil
}

type fakeCustomerRepo struct {
	byID map[id.ID]customer.Customer
}

func newFakeCustomerRepo() *fakeCustomerRepo {
	return &fakeCustomerRepo{byID: make(map[id.ID]customer.Customer)}
}

func (f *fakeCustomerRepo) add(name, email string) id.ID {
	c := customer.New(name)
	c.Email = email
	f.byID[c.ID] = *c
	return c.ID
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

func (f *fakeCustomerRepo) SetDeletionMark(_ context.Context, customerID id.ID, marked bool) error {
	c := f.byID[customerID]
	c.DeletionMark = marked
	f.byID[customerID] = c
	return nil
}

func (f *fakeCustomerRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*customer.Customer], error) {
	return domain.ListResult[*customer.Customer]{}, nil
}

type captureRecorder struct {
	entries []audit.Entry
}

func (r *captureRecorder) Log(_ context.Context, entry audit.Entry) {
	r.entries = append(r.entries, entry)
}

type captureNotifier struct {
	sent []notify.Message
}

func (n *captureNotifier) Send(_ context.Context, msg notify.Message) error {
	n.sent = append(n.sent, msg)
	return nil
}

type fixture struct {
	svc        *Service
	ledgerRepo *fakeLedgerRepo
	orderRepo  *fakeOrderRepo
	manualRepo *fakeManualRepo
	delivRepo  *fakeDeliveryRepo
	custRepo   *fakeCustomerRepo
	recorder   *captureRecorder
	notifier   *captureNotifier
}

func newFixture() *fixture {
	f := &fixture{
		ledgerRepo: newFakeLedgerRepo(),
		orderRepo:  newFakeOrderRepo(),
		manualRepo: newFakeManualRepo(),
		delivRepo:  newFakeDeliveryRepo(),
		custRepo:   newFakeCustomerRepo(),
		recorder:   &captureRecorder{},
		notifier:   &captureNotifier{},
	}
	ledger := stockledger.NewService(f.ledgerRepo, passTxManager{})
	f.svc = NewService(f.orderRepo, f.manualRepo, f.delivRepo, f.custRepo,
		ledger, passTxManager{}, f.recorder, f.notifier)
	return f
}

// newOrder builds an unsaved order with one line of qty units.
func (f *fixture) newOrder(method orders.PaymentMethod, productID id.ID, qty int) *orders.Order {
	custID := f.custRepo.add("Maria Santos", "maria@example.com")
	o := orders.NewOrder("", custID, method)
	o.AddItem(productID, qty, types.MustMoney("25.50"))
	return o
}

func (f *fixture) deliveryOf(t *testing.T, orderID id.ID) *delivery.Delivery {
	t.Helper()
	d, err := f.delivRepo.GetByOrderID(context.Background(), orderID)
	require.NoError(t, err)
	return d
}

func (f *fixture) orderOf(t *testing.T, orderID id.ID) *orders.Order {
	t.Helper()
	o, err := f.orderRepo.GetByID(context.Background(), orderID)
	require.NoError(t, err)
	return o
}

func TestCreateOrder_ReservesStockAndOpensDelivery(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 10)

	o := f.newOrder(orders.PaymentGcash, rice, 4)
	require.NoError(t, f.svc.CreateOrder(ctx, o))

	assert.True(t, hasOrderPrefix(o.Number))
	assert.Equal(t, 6, f.ledgerRepo.stock[rice].StockQuantity)
	assert.True(t, o.StockDeducted)
	assert.False(t, o.StockRestored)
	assert.Equal(t, orders.PaymentUnpaid, o.PaymentStatus, "pending GCASH orders are unpaid")

	d := f.deliveryOf(t, o.ID)
	assert.Equal(t, delivery.StatusPendingDispatch, d.Status)

	require.NotEmpty(t, f.notifier.sent)
	assert.Equal(t, "maria@example.com", f.notifier.sent[0].Recipient)
}

func hasOrderPrefix(number string) bool {
	return len(number) == 11 && number[:3] == "ORD"
}

func TestCreateOrder_ShortageAbortsEverything(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 2)

	o := f.newOrder(orders.PaymentGcash, rice, 5)
	err := f.svc.CreateOrder(ctx, o)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	assert.Empty(t, f.orderRepo.byID)
	assert.Empty(t, f.delivRepo.byID)
	assert.Equal(t, 2, f.ledgerRepo.stock[rice].StockQuantity)
}

func TestTransitionOrder_CancelRestoresStockOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 10)

	o := f.newOrder(orders.PaymentGcash, rice, 4)
	require.NoError(t, f.svc.CreateOrder(ctx, o))
	require.Equal(t, 6, f.ledgerRepo.stock[rice].StockQuantity)

	got, err := f.svc.TransitionOrderStatus(ctx, o.ID, orders.StatusCanceled)
	require.NoError(t, err)

	assert.Equal(t, orders.StatusCanceled, got.Status)
	assert.Equal(t, 10, f.ledgerRepo.stock[rice].StockQuantity, "canceling returns stock")
	assert.True(t, got.StockRestored)
	assert.Equal(t, orders.PaymentRefunded, got.PaymentStatus, "GCASH cancel refunds")
	assert.Equal(t, delivery.StatusFailed, f.deliveryOf(t, o.ID).Status)

	// Canceled to Returned moves no stock: both are terminal.
	movementsBefore := len(f.ledgerRepo.movements)
	_, err = f.svc.TransitionOrderStatus(ctx, o.ID, orders.StatusReturned)
	require.NoError(t, err)
	assert.Equal(t, 10, f.ledgerRepo.stock[rice].StockQuantity)
	assert.Len(t, f.ledgerRepo.movements, movementsBefore)
}

func TestTransitionOrder_ReactivationShortageLeavesStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 10)

	o := f.newOrder(orders.PaymentGcash, rice, 4)
	require.NoError(t, f.svc.CreateOrder(ctx, o))
	_, err := f.svc.TransitionOrderStatus(ctx, o.ID, orders.StatusCanceled)
	require.NoError(t, err)

	// Someone else bought the stock while the order sat canceled.
	require.NoError(t, f.ledgerRepo.SetStockQuantity(ctx, rice, 1))

	_, err = f.svc.TransitionOrderStatus(ctx, o.ID, orders.StatusProcessing)
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, orders.StatusCanceled, f.orderOf(t, o.ID).Status, "status untouched on shortage")
}

func TestTransitionOrder_ReactivationRedeductsStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 10)

	o := f.newOrder(orders.PaymentGcash, rice, 4)
	require.NoError(t, f.svc.CreateOrder(ctx, o))
	_, err := f.svc.TransitionOrderStatus(ctx, o.ID, orders.StatusCanceled)
	require.NoError(t, err)
	require.Equal(t, 10, f.ledgerRepo.stock[rice].StockQuantity)

	got, err := f.svc.TransitionOrderStatus(ctx, o.ID, orders.StatusProcessing)
	require.NoError(t, err)

	assert.Equal(t, 6, f.ledgerRepo.stock[rice].StockQuantity, "reactivation deducts again")
	assert.True(t, got.StockDeducted)
	assert.False(t, got.StockRestored)
	assert.Equal(t, orders.PaymentPaid, got.PaymentStatus, "GCASH processing pays")
	assert.NotNil(t, got.PaymentVerifiedAt)
	assert.Equal(t, delivery.StatusPendingDispatch, f.deliveryOf(t, o.ID).Status,
		"failed delivery is reset for another attempt")
}

func TestTransitionOrder_CompletedNeedsProofOfDelivery(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 10)

	o := f.newOrder(orders.PaymentGcash, rice, 2)
	require.NoError(t, f.svc.CreateOrder(ctx, o))

	_, err := f.svc.TransitionOrderStatus(ctx, o.ID, orders.StatusCompleted)
	require.Error(t, err, "completing an order implies delivered, which needs proof")

	// With proof attached the same transition goes through.
	d := f.deliveryOf(t, o.ID)
	d.ProofOfDeliveryImage = "proofs/d1.jpg"
	require.NoError(t, f.delivRepo.Update(ctx, d))

	got, err := f.svc.TransitionOrderStatus(ctx, o.ID, orders.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusCompleted, got.Status)

	d = f.deliveryOf(t, o.ID)
	assert.Equal(t, delivery.StatusDelivered, d.Status)
	assert.NotNil(t, d.DeliveredAt)
}

func TestTransitionOrder_ShippedSyncsDelivery(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 10)

	o := f.newOrder(orders.PaymentGcash, rice, 2)
	require.NoError(t, f.svc.CreateOrder(ctx, o))

	got, err := f.svc.TransitionOrderStatus(ctx, o.ID, orders.StatusShipped)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusShipped, got.Status)
	assert.Equal(t, delivery.StatusOutForDelivery, f.deliveryOf(t, o.ID).Status)
}

func TestCompleteDelivery_DeliversAndSettlesCOD(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 10)

	o := f.newOrder(orders.PaymentCOD, rice, 3)
	require.NoError(t, f.svc.CreateOrder(ctx, o))
	d := f.deliveryOf(t, o.ID)

	got, err := f.svc.CompleteDelivery(ctx, d.ID, "proofs/sig.jpg", "left with guard")
	require.NoError(t, err)

	assert.Equal(t, delivery.StatusDelivered, got.Status)
	assert.NotNil(t, got.DeliveredAt)
	assert.Equal(t, "proofs/sig.jpg", got.ProofOfDeliveryImage)

	oo := f.orderOf(t, o.ID)
	assert.Equal(t, orders.StatusCompleted, oo.Status)
	assert.Equal(t, orders.PaymentPaid, oo.PaymentStatus, "COD settles on delivery")
	assert.NotNil(t, oo.PaymentVerifiedAt)
}

func TestCompleteDelivery_RequiresProof(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 10)

	o := f.newOrder(orders.PaymentCOD, rice, 3)
	require.NoError(t, f.svc.CreateOrder(ctx, o))
	d := f.deliveryOf(t, o.ID)

	_, err := f.svc.CompleteDelivery(ctx, d.ID, "", "")
	require.Error(t, err)

	_, err = f.svc.UpdateDeliveryStatus(ctx, d.ID, delivery.StatusDelivered)
	require.Error(t, err, "direct status update hits the same proof gate")
}

func TestFailDelivery_ReturnsOrderAndRestoresStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 10)

	o := f.newOrder(orders.PaymentGcash, rice, 4)
	require.NoError(t, f.svc.CreateOrder(ctx, o))
	require.Equal(t, 6, f.ledgerRepo.stock[rice].StockQuantity)
	d := f.deliveryOf(t, o.ID)

	got, err := f.svc.FailDelivery(ctx, d.ID, "nobody home")
	require.NoError(t, err)
	assert.Equal(t, delivery.StatusFailed, got.Status)
	assert.Equal(t, "nobody home", got.DeliveryNote)

	oo := f.orderOf(t, o.ID)
	assert.Equal(t, orders.StatusReturned, oo.Status)
	assert.True(t, oo.StockRestored)
	assert.Equal(t, 10, f.ledgerRepo.stock[rice].StockQuantity, "returned order puts stock back")
}

func TestUpdateDeliveryStatus_ReverseSync(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 10)

	o := f.newOrder(orders.PaymentGcash, rice, 2)
	require.NoError(t, f.svc.CreateOrder(ctx, o))
	d := f.deliveryOf(t, o.ID)

	got, err := f.svc.UpdateDeliveryStatus(ctx, d.ID, delivery.StatusOutForDelivery)
	require.NoError(t, err)
	assert.Equal(t, delivery.StatusOutForDelivery, got.Status)
	assert.Equal(t, orders.StatusShipped, f.orderOf(t, o.ID).Status)
}

func TestUpdateDeliveryStatus_CanceledOrderIsSticky(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 10)

	o := f.newOrder(orders.PaymentGcash, rice, 2)
	require.NoError(t, f.svc.CreateOrder(ctx, o))
	_, err := f.svc.TransitionOrderStatus(ctx, o.ID, orders.StatusCanceled)
	require.NoError(t, err)

	d := f.deliveryOf(t, o.ID)
	require.Equal(t, delivery.StatusFailed, d.Status)

	got, err := f.svc.UpdateDeliveryStatus(ctx, d.ID, delivery.StatusPendingDispatch)
	require.NoError(t, err)

	assert.Equal(t, delivery.StatusPendingDispatch, got.Status, "delivery side still updates")
	assert.Equal(t, orders.StatusCanceled, f.orderOf(t, o.ID).Status, "order stays canceled")
}

func TestDeleteOrder_RestoresStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 10)

	o := f.newOrder(orders.PaymentGcash, rice, 4)
	require.NoError(t, f.svc.CreateOrder(ctx, o))
	require.Equal(t, 6, f.ledgerRepo.stock[rice].StockQuantity)

	require.NoError(t, f.svc.DeleteOrder(ctx, o.ID))

	assert.Equal(t, 10, f.ledgerRepo.stock[rice].StockQuantity)
	oo := f.orderOf(t, o.ID)
	assert.True(t, oo.DeletionMark)
	assert.True(t, oo.StockRestored)
}

func TestDeleteOrder_AlreadyRestoredMovesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 10)

	o := f.newOrder(orders.PaymentGcash, rice, 4)
	require.NoError(t, f.svc.CreateOrder(ctx, o))
	_, err := f.svc.TransitionOrderStatus(ctx, o.ID, orders.StatusCanceled)
	require.NoError(t, err)
	movementsBefore := len(f.ledgerRepo.movements)

	require.NoError(t, f.svc.DeleteOrder(ctx, o.ID))

	assert.Equal(t, 10, f.ledgerRepo.stock[rice].StockQuantity)
	assert.Len(t, f.ledgerRepo.movements, movementsBefore, "no double restore")
}

func TestCreateManualOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 10)

	m := orders.NewManualOrder("", "Juan Dela Cruz", orders.SourcePhone, orders.PaymentCOD)
	m.ShippingAddress = "12 Mabini St, Quezon City"
	m.AddItem(rice, 4, types.MustMoney("25.50"))
	require.NoError(t, f.svc.CreateManualOrder(ctx, m))

	assert.Equal(t, "MAN", m.Number[:3])
	assert.Equal(t, m.ShippingAddress, m.BillingAddress, "billing defaults to shipping")
	assert.Equal(t, 6, f.ledgerRepo.stock[rice].StockQuantity)
	assert.True(t, m.StockDeducted)
}

func TestTransitionManualOrder_CODRevert(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 10)

	m := orders.NewManualOrder("", "Juan Dela Cruz", orders.SourceWalkIn, orders.PaymentCOD)
	m.AddItem(rice, 2, types.MustMoney("10"))
	require.NoError(t, f.svc.CreateManualOrder(ctx, m))

	got, err := f.svc.TransitionManualOrderStatus(ctx, m.ID, orders.StatusCompleted)
	require.NoError(t, err)
	require.Equal(t, orders.PaymentPaid, got.PaymentStatus)
	require.NotNil(t, got.PaymentVerifiedAt)

	// Staff reopens the order: COD payment reverts and verification clears.
	got, err = f.svc.TransitionManualOrderStatus(ctx, m.ID, orders.StatusProcessing)
	require.NoError(t, err)
	assert.Equal(t, orders.PaymentUnpaid, got.PaymentStatus)
	assert.Nil(t, got.PaymentVerifiedAt)
	assert.Empty(t, got.PaymentVerifiedBy)
}

func TestTransitionManualOrder_CancelRestoresStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 10)

	m := orders.NewManualOrder("", "Juan Dela Cruz", orders.SourceB2B, orders.PaymentGcash)
	m.AddItem(rice, 4, types.MustMoney("10"))
	require.NoError(t, f.svc.CreateManualOrder(ctx, m))
	require.Equal(t, 6, f.ledgerRepo.stock[rice].StockQuantity)

	got, err := f.svc.TransitionManualOrderStatus(ctx, m.ID, orders.StatusCanceled)
	require.NoError(t, err)
	assert.Equal(t, 10, f.ledgerRepo.stock[rice].StockQuantity)
	assert.True(t, got.StockRestored)
	assert.Equal(t, orders.PaymentRefunded, got.PaymentStatus)
}

func TestAuditTrailWritten(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 10)

	o := f.newOrder(orders.PaymentGcash, rice, 2)
	require.NoError(t, f.svc.CreateOrder(ctx, o))
	_, err := f.svc.TransitionOrderStatus(ctx, o.ID, orders.StatusShipped)
	require.NoError(t, err)

	var actions []audit.Action
	for _, e := range f.recorder.entries {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, audit.ActionCreate)
	assert.Contains(t, actions, audit.ActionUpdate)
}
