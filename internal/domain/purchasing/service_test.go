package purchasing

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/id"
	"supplytrack/internal/core/types"
	"supplytrack/internal/domain"
	"supplytrack/internal/domain/audit"
	"supplytrack/internal/domain/catalogs/supplier"
	"supplytrack/internal/domain/notify"
	"supplytrack/internal/domain/stockledger"
)

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

type fakePORepo struct {
	byID          map[id.ID]PurchaseOrder
	notifications []Notification
}

func newFakePORepo() *fakePORepo {
	return &fakePORepo{byID: make(map[id.ID]PurchaseOrder)}
}

func clonePO(po PurchaseOrder) PurchaseOrder {
	items := make([]Item, len(po.Items))
	copy(items, po.Items)
	po.Items = items
	return po
}

func (f *fakePORepo) Create(_ context.Context, po *PurchaseOrder) error {
	f.byID[po.ID] = clonePO(*po)
	return nil
}

func (f *fakePORepo) GetByID(_ context.Context, poID id.ID) (*PurchaseOrder, error) {
	po, ok := f.byID[poID]
	if !ok {
		return nil, apperror.NewNotFound("purchase order", poID)
	}
	cp := clonePO(po)
	return &cp, nil
}

func (f *fakePORepo) GetByNumber(_ context.Context, number string) (*PurchaseOrder, error) {
	for _, po := range f.byID {
		if po.Number == number {
			cp := clonePO(po)
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("purchase order", number)
}

func (f *fakePORepo) Update(_ context.Context, po *PurchaseOrder) error {
	if _, ok := f.byID[po.ID]; !ok {
		return apperror.NewNotFound("purchase order", po.ID)
	}
	f.byID[po.ID] = clonePO(*po)
	return nil
}

func (f *fakePORepo) SetDeletionMark(_ context.Context, poID id.ID, marked bool) error {
	po, ok := f.byID[poID]
	if !ok {
		return apperror.NewNotFound("purchase order", poID)
	}
	po.DeletionMark = marked
	f.byID[poID] = po
	return nil
}

func (f *fakePORepo) List(_ context.Context, _ ListFilter) (domain.ListResult[*PurchaseOrder], error) {
	var items []*PurchaseOrder
	for _, po := range f.byID {
		cp := clonePO(po)
		items = append(items, &cp)
	}
	return domain.ListResult[*PurchaseOrder]{Items: items, TotalCount: int64(len(items))}, nil
}

func (f *fakePORepo) ExistsByNumber(_ context.Context, number string) (bool, error) {
	for _, po := range f.byID {
		if po.Number == number {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePORepo) ListDueBetween(_ context.Context, from, to time.Time) ([]*PurchaseOrder, error) {
	var out []*PurchaseOrder
	for _, po := range f.byID {
		if po.PaymentDueDate == nil || po.PaymentStatus == PaymentPaid {
			continue
		}
		due := *po.PaymentDueDate
		if !due.Before(from) && !due.After(to) {
			cp := clonePO(po)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PaymentDueDate.Before(*out[j].PaymentDueDate)
	})
	return out, nil
}

func (f *fakePORepo) InsertNotification(_ context.Context, n Notification) error {
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakePORepo) ListNotifications(_ context.Context, poID id.ID) ([]Notification, error) {
	var out []Notification
	for _, n := range f.notifications {
		if n.PurchaseOrderID == poID {
			out = append(out, n)
		}
	}
	return out, nil
}

type fakeSupplierRepo struct {
	byID map[id.ID]supplier.Supplier
}

func newFakeSupplierRepo() *fakeSupplierRepo {
	return &fakeSupplierRepo{byID: make(map[id.ID]supplier.Supplier)}
}

func (f *fakeSupplierRepo) add(name, email string) id.ID {
	s := supplier.New(name)
	s.Email = email
	f.byID[s.ID] = *s
	return s.ID
}

func (f *fakeSupplierRepo) Create(_ context.Context, s *supplier.Supplier) error {
	f.byID[s.ID] = *s
	return nil
}

func (f *fakeSupplierRepo) GetByID(_ context.Context, supplierID id.ID) (*supplier.Supplier, error) {
	s, ok := f.byID[supplierID]
	if !ok {
		return nil, apperror.NewNotFound("supplier", supplierID)
	}
	cp := s
	return &cp, nil
}

func (f *fakeSupplierRepo) Update(_ context.Context, s *supplier.Supplier) error {
	f.byID[s.ID] = *s
	return nil
}

func (f *fakeSupplierRepo) SetDeletionMark(_ context.Context, supplierID id.ID, marked bool) error {
	s := f.byID[supplierID]
	s.DeletionMark = marked
	f.byID[supplierID] = s
	return nil
}

func (f *fakeSupplierRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*supplier.Supplier], error) {
	return domain.ListResult[*supplier.Supplier]{}, nil
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
	repo       *fakePORepo
	supRepo    *fakeSupplierRepo
	ledgerRepo *fakeLedgerRepo
	notifier   *captureNotifier
	supplierID id.ID
}

func newFixture() *fixture {
	f := &fixture{
		repo:       newFakePORepo(),
		supRepo:    newFakeSupplierRepo(),
		ledgerRepo: newFakeLedgerRepo(),
		notifier:   &captureNotifier{},
	}
	f.supplierID = f.supRepo.add("Manila Grains Co", "sales@manilagrains.example")
	ledger := stockledger.NewService(f.ledgerRepo, passTxManager{})
	f.svc = NewService(f.repo, f.supRepo, ledger, passTxManager{}, &captureRecorder{}, f.notifier)
	return f
}

// draftWithItem creates a persisted draft holding one line for product.
func (f *fixture) draftWithItem(t *testing.T, product id.ID, qty int, cost string) *PurchaseOrder {
	t.Helper()
	ctx := context.Background()
	po := New("", f.supplierID)
	require.NoError(t, f.svc.CreateDraft(ctx, po))
	got, err := f.svc.AddItem(ctx, po.ID, Item{
		ProductID:       product,
		QuantityOrdered: qty,
		UnitCost:        types.MustMoney(cost),
	})
	require.NoError(t, err)
	return got
}

// toInTransit walks a draft through the request, pricing, confirm and
// transit verbs.
func (f *fixture) toInTransit(t *testing.T, po *PurchaseOrder, method PaymentMethod) *PurchaseOrder {
	t.Helper()
	ctx := context.Background()
	got, err := f.svc.SubmitRequest(ctx, po.ID)
	require.NoError(t, err)
	pricing := make([]ItemPricing, 0, len(got.Items))
	for _, it := range got.Items {
		pricing = append(pricing, ItemPricing{ItemID: it.ID, UnitCost: it.UnitCost})
	}
	got, err = f.svc.SubmitPricing(ctx, po.ID, pricing)
	require.NoError(t, err)
	got, err = f.svc.Confirm(ctx, po.ID, method, nil)
	require.NoError(t, err)
	got, err = f.svc.MarkInTransit(ctx, po.ID)
	require.NoError(t, err)
	return got
}

func TestCreateDraft_GeneratesNumber(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	po := New("", f.supplierID)
	require.NoError(t, f.svc.CreateDraft(ctx, po))

	assert.Equal(t, "PO", po.Number[:2])
	assert.Len(t, po.Number, 10)
	assert.Equal(t, StatusDraft, po.Status)
}

func TestAddItem_RecomputesTotal(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	product := f.ledgerRepo.addProduct("Rice", 0)

	po := f.draftWithItem(t, product, 5, "10.00")
	assert.True(t, po.TotalCost.Equal(types.MustMoney("50.00")))

	po, err := f.svc.AddItem(ctx, po.ID, Item{
		ProductID:       f.ledgerRepo.addProduct("Sugar", 0),
		QuantityOrdered: 2,
		UnitCost:        types.MustMoney("25.00"),
	})
	require.NoError(t, err)
	assert.True(t, po.TotalCost.Equal(types.MustMoney("100.00")))
}

func TestSubmitRequest_NeedsItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture()

	po := New("", f.supplierID)
	require.NoError(t, f.svc.CreateDraft(ctx, po))

	_, err := f.svc.SubmitRequest(ctx, po.ID)
	require.Error(t, err)

	product := f.ledgerRepo.addProduct("Rice", 0)
	_, err = f.svc.AddItem(ctx, po.ID, Item{ProductID: product, QuantityOrdered: 3, UnitCost: types.Zero()})
	require.NoError(t, err)

	got, err := f.svc.SubmitRequest(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRequestPending, got.Status)
	assert.NotEmpty(t, f.notifier.sent, "supplier notified on submission")
	assert.NotEmpty(t, f.repo.notifications)
}

func TestConfirm_OnlyFromSupplierPriced(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	product := f.ledgerRepo.addProduct("Rice", 0)
	po := f.draftWithItem(t, product, 5, "10")

	_, err := f.svc.Confirm(ctx, po.ID, PaymentCOD, nil)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestConfirm_Net30DefaultsDueDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	product := f.ledgerRepo.addProduct("Rice", 0)
	po := f.draftWithItem(t, product, 5, "10")

	got, err := f.svc.SubmitRequest(ctx, po.ID)
	require.NoError(t, err)
	got, err = f.svc.SubmitPricing(ctx, po.ID, []ItemPricing{
		{ItemID: got.Items[0].ID, UnitCost: types.MustMoney("9.50")},
	})
	require.NoError(t, err)
	assert.True(t, got.TotalCost.Equal(types.MustMoney("47.50")), "pricing recomputes total")

	got, err = f.svc.Confirm(ctx, po.ID, PaymentNet30, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, got.Status)
	assert.True(t, got.PayLater)
	require.NotNil(t, got.PaymentDueDate)
	assert.Equal(t, got.OrderDate.AddDate(0, 0, 30), *got.PaymentDueDate)
}

func TestReceiveItems_PartialThenFull(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 0)
	sugar := f.ledgerRepo.addProduct("Sugar", 0)

	po := f.draftWithItem(t, rice, 10, "10")
	po, err := f.svc.AddItem(ctx, po.ID, Item{ProductID: sugar, QuantityOrdered: 10, UnitCost: types.MustMoney("5")})
	require.NoError(t, err)
	po = f.toInTransit(t, po, PaymentCOD)

	var riceItem, sugarItem Item
	for _, it := range po.Items {
		if it.ProductID == rice {
			riceItem = it
		} else {
			sugarItem = it
		}
	}

	po, err = f.svc.ReceiveItems(ctx, po.ID, []Receipt{
		{ItemID: riceItem.ID, Quantity: 10},
		{ItemID: sugarItem.ID, Quantity: 5},
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPartiallyReceived, po.Status)
	assert.Nil(t, po.ReceivedDate)
	assert.Equal(t, 10, f.ledgerRepo.stock[rice].StockQuantity)
	assert.Equal(t, 5, f.ledgerRepo.stock[sugar].StockQuantity)
	assert.Equal(t, PaymentUnpaid, po.PaymentStatus, "COD pays only at full receipt")

	po, err = f.svc.ReceiveItems(ctx, po.ID, []Receipt{{ItemID: sugarItem.ID, Quantity: 5}})
	require.NoError(t, err)

	assert.Equal(t, StatusReceived, po.Status)
	assert.NotNil(t, po.ReceivedDate)
	assert.Equal(t, 10, f.ledgerRepo.stock[sugar].StockQuantity)
	assert.Equal(t, PaymentPaid, po.PaymentStatus)
}

func TestReceiveItems_CannotExceedOrdered(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 0)

	po := f.draftWithItem(t, rice, 5, "10")
	po = f.toInTransit(t, po, PaymentCOD)

	_, err := f.svc.ReceiveItems(ctx, po.ID, []Receipt{{ItemID: po.Items[0].ID, Quantity: 6}})
	require.Error(t, err)
	assert.Equal(t, 0, f.ledgerRepo.stock[rice].StockQuantity)
}

func TestReceiveItems_WrongState(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 0)
	po := f.draftWithItem(t, rice, 5, "10")

	_, err := f.svc.ReceiveItems(ctx, po.ID, []Receipt{{ItemID: po.Items[0].ID, Quantity: 5}})
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestRequestRefund_KeepsReceiptRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 0)

	po := f.draftWithItem(t, rice, 10, "10")
	po = f.toInTransit(t, po, PaymentCOD)
	po, err := f.svc.ReceiveItems(ctx, po.ID, []Receipt{{ItemID: po.Items[0].ID, Quantity: 10}})
	require.NoError(t, err)
	require.Equal(t, 10, f.ledgerRepo.stock[rice].StockQuantity)

	po, err = f.svc.RequestRefund(ctx, po.ID, "wrong variety delivered", types.MustMoney("100"))
	require.NoError(t, err)

	assert.Equal(t, StatusRefund, po.Status)
	assert.Equal(t, 0, f.ledgerRepo.stock[rice].StockQuantity, "delivered stock reversed")
	assert.Equal(t, 10, po.Items[0].QuantityReceived, "receipt history preserved")
	assert.Equal(t, PaymentRefunded, po.PaymentStatus)
}

func TestRequestRefund_PartialAmount(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 0)

	po := f.draftWithItem(t, rice, 10, "10")
	po = f.toInTransit(t, po, PaymentCOD)
	po, err := f.svc.ReceiveItems(ctx, po.ID, []Receipt{{ItemID: po.Items[0].ID, Quantity: 10}})
	require.NoError(t, err)

	po, err = f.svc.RequestRefund(ctx, po.ID, "two sacks damaged", types.MustMoney("20"))
	require.NoError(t, err)
	assert.Equal(t, PaymentPartiallyRefunded, po.PaymentStatus)
}

func TestRequestRefund_RequiresReason(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 0)

	po := f.draftWithItem(t, rice, 10, "10")
	po = f.toInTransit(t, po, PaymentCOD)
	po, err := f.svc.ReceiveItems(ctx, po.ID, []Receipt{{ItemID: po.Items[0].ID, Quantity: 10}})
	require.NoError(t, err)

	_, err = f.svc.RequestRefund(ctx, po.ID, "", types.MustMoney("100"))
	require.Error(t, err)
}

func TestCancel_ErasesReceiptRecord(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 0)

	po := f.draftWithItem(t, rice, 10, "10")
	po = f.toInTransit(t, po, PaymentCOD)
	po, err := f.svc.ReceiveItems(ctx, po.ID, []Receipt{{ItemID: po.Items[0].ID, Quantity: 6}})
	require.NoError(t, err)
	require.Equal(t, StatusPartiallyReceived, po.Status)
	require.Equal(t, 6, f.ledgerRepo.stock[rice].StockQuantity)

	po, err = f.svc.Cancel(ctx, po.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, po.Status)
	assert.Equal(t, 0, f.ledgerRepo.stock[rice].StockQuantity, "delivered stock reversed")
	assert.Equal(t, 0, po.Items[0].QuantityReceived, "cancellation erases the receipt record")
	assert.Nil(t, po.ReceivedDate)
}

func TestCancel_FromReceivedReversesStockAndReceipt(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 0)

	po := f.draftWithItem(t, rice, 10, "10")
	po = f.toInTransit(t, po, PaymentCOD)
	po, err := f.svc.ReceiveItems(ctx, po.ID, []Receipt{{ItemID: po.Items[0].ID, Quantity: 10}})
	require.NoError(t, err)
	require.Equal(t, StatusReceived, po.Status)
	require.Equal(t, 10, f.ledgerRepo.stock[rice].StockQuantity)

	po, err = f.svc.Cancel(ctx, po.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, po.Status)
	assert.Equal(t, 0, f.ledgerRepo.stock[rice].StockQuantity, "delivered stock reversed")
	assert.Equal(t, 0, po.Items[0].QuantityReceived, "cancellation erases the receipt record")
	assert.Nil(t, po.ReceivedDate)
}

func TestCancel_NotFromTerminal(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 0)

	po := f.draftWithItem(t, rice, 10, "10")
	po = f.toInTransit(t, po, PaymentCOD)
	po, err := f.svc.ReceiveItems(ctx, po.ID, []Receipt{{ItemID: po.Items[0].ID, Quantity: 10}})
	require.NoError(t, err)

	po, err = f.svc.RequestRefund(ctx, po.ID, "damaged goods", types.MustMoney("100"))
	require.NoError(t, err)
	require.Equal(t, StatusRefund, po.Status)

	_, err = f.svc.Cancel(ctx, po.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsInvalidTransition(err))
}

func TestSetPaymentProof_SettlesNet30(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 0)

	po := f.draftWithItem(t, rice, 10, "10")
	po = f.toInTransit(t, po, PaymentNet30)
	require.Equal(t, PaymentUnpaid, po.PaymentStatus)

	po, err := f.svc.SetPaymentProof(ctx, po.ID, "proofs/deposit-slip.jpg")
	require.NoError(t, err)
	assert.Equal(t, PaymentPaid, po.PaymentStatus)
	assert.NotNil(t, po.PaymentVerifiedAt)
}

func TestRecomputePaymentStatus_FlipsOverdue(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 0)

	po := f.draftWithItem(t, rice, 10, "10")
	po = f.toInTransit(t, po, PaymentNet30)

	// Force the due date into the past, as a scheduled recheck would
	// find it a month later.
	stored := f.repo.byID[po.ID]
	past := time.Now().UTC().AddDate(0, 0, -1)
	stored.PaymentDueDate = &past
	f.repo.byID[po.ID] = stored

	got, err := f.svc.RecomputePaymentStatus(ctx, po.ID)
	require.NoError(t, err)
	assert.Equal(t, PaymentOverdue, got.PaymentStatus)
}

func TestListPaymentsDueSoon(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 0)

	po := f.draftWithItem(t, rice, 10, "10")
	f.toInTransit(t, po, PaymentNet30)

	due, err := f.svc.ListPaymentsDueSoon(ctx, 40)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, po.ID, due[0].ID)

	due, err = f.svc.ListPaymentsDueSoon(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, due, "due date thirty days out is not due within five")
}

func TestDelete_OnlyDraftOrCancelled(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	rice := f.ledgerRepo.addProduct("Rice", 0)

	po := f.draftWithItem(t, rice, 10, "10")
	require.NoError(t, f.svc.Delete(ctx, po.ID))

	po2 := f.draftWithItem(t, rice, 10, "10")
	f.toInTransit(t, po2, PaymentCOD)
	require.Error(t, f.svc.Delete(ctx, po2.ID))
}
