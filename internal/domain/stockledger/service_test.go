package stockledger

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/id"
	"supplytrack/internal/domain"
)

// passTxManager reuses the caller's context; tests exercise service
// logic, not transaction plumbing.
type passTxManager struct{}

func (passTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeLedgerRepo struct {
	stock     map[id.ID]ProductStock
	movements []Movement
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{stock: make(map[id.ID]ProductStock)}
}

func (f *fakeLedgerRepo) addProduct(name string, qty int) id.ID {
	pid := id.New()
	f.stock[pid] = ProductStock{ID: pid, Name: name, StockQuantity: qty, IsActive: true}
	return pid
}

func (f *fakeLedgerRepo) LockProducts(_ context.Context, productIDs []id.ID) ([]ProductStock, error) {
	var out []ProductStock
	for _, pid := range productIDs {
		if ps, ok := f.stock[pid]; ok {
			out = append(out, ps)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

func (f *fakeLedgerRepo) GetStock(_ context.Context, productID id.ID) (ProductStock, error) {
	ps, ok := f.stock[productID]
	if !ok {
		return ProductStock{}, apperror.NewNotFound("product", productID)
	}
	return ps, nil
}

func (f *fakeLedgerRepo) SetStockQuantity(_ context.Context, productID id.ID, quantity int) error {
	ps := f.stock[productID]
	ps.StockQuantity = quantity
	f.stock[productID] = ps
	return nil
}

func (f *fakeLedgerRepo) CreateMovements(_ context.Context, movements []Movement) error {
	f.movements = append(f.movements, movements...)
	return nil
}

func (f *fakeLedgerRepo) ListMovements(_ context.Context, filter MovementFilter) (domain.ListResult[Movement], error) {
	var items []Movement
	for _, m := range f.movements {
		if filter.ProductID != nil && m.ProductID != *filter.ProductID {
			continue
		}
		items = append(items, m)
	}
	return domain.ListResult[Movement]{Items: items, TotalCount: int64(len(items))}, nil
}

func newTestService() (*Service, *fakeLedgerRepo) {
	repo := newFakeLedgerRepo()
	return NewService(repo, passTxManager{}), repo
}

func TestReserve_DeductsAndWritesMovements(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	sugar := repo.addProduct("Sugar", 20)
	rice := repo.addProduct("Rice", 5)

	err := svc.Reserve(ctx, []Line{
		{ProductID: sugar, Quantity: 3},
		{ProductID: rice, Quantity: 5},
	}, "ORDAAAA1111", "order checkout")
	require.NoError(t, err)

	assert.Equal(t, 17, repo.stock[sugar].StockQuantity)
	assert.Equal(t, 0, repo.stock[rice].StockQuantity)
	require.Len(t, repo.movements, 2)
	for _, m := range repo.movements {
		assert.Equal(t, MovementOut, m.MovementType)
		assert.Equal(t, "ORDAAAA1111", m.Reference)
		assert.Positive(t, m.Quantity)
	}
}

func TestReserve_ShortageAbortsEverything(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	sugar := repo.addProduct("Sugar", 20)
	rice := repo.addProduct("Rice", 2)
	oil := repo.addProduct("Oil", 0)

	err := svc.Reserve(ctx, []Line{
		{ProductID: sugar, Quantity: 3},
		{ProductID: rice, Quantity: 5},
		{ProductID: oil, Quantity: 1},
	}, "ORDBBBB2222", "")
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)

	shortages := appErr.Details["shortages"].([]apperror.StockShortage)
	require.Len(t, shortages, 2, "every failing line must be reported")

	// No partial deduction, no movements.
	assert.Equal(t, 20, repo.stock[sugar].StockQuantity)
	assert.Equal(t, 2, repo.stock[rice].StockQuantity)
	assert.Empty(t, repo.movements)
}

func TestReserve_ShortageMessageFormat(t *testing.T) {
	s := apperror.StockShortage{Name: "Rice", Required: 5, Available: 2}
	assert.Equal(t, "Rice: Need 5, only 2 available", s.String())
}

func TestReserve_UnknownProduct(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	err := svc.Reserve(ctx, []Line{{ProductID: id.New(), Quantity: 1}}, "ref", "")
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
}

func TestReserve_MergesDuplicateLines(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	sugar := repo.addProduct("Sugar", 10)

	err := svc.Reserve(ctx, []Line{
		{ProductID: sugar, Quantity: 4},
		{ProductID: sugar, Quantity: 3},
	}, "ref", "")
	require.NoError(t, err)

	assert.Equal(t, 3, repo.stock[sugar].StockQuantity)
	require.Len(t, repo.movements, 1)
	assert.Equal(t, 7, repo.movements[0].Quantity)
}

func TestReserve_InvalidLines(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	sugar := repo.addProduct("Sugar", 10)

	require.Error(t, svc.Reserve(ctx, nil, "ref", ""))
	require.Error(t, svc.Reserve(ctx, []Line{{ProductID: sugar, Quantity: 0}}, "ref", ""))
	require.Error(t, svc.Reserve(ctx, []Line{{ProductID: sugar, Quantity: -2}}, "ref", ""))
	require.Error(t, svc.Reserve(ctx, []Line{{Quantity: 2}}, "ref", ""))
}

func TestRestore_ReversesReserve(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	sugar := repo.addProduct("Sugar", 20)
	rice := repo.addProduct("Rice", 8)

	lines := []Line{
		{ProductID: sugar, Quantity: 3},
		{ProductID: rice, Quantity: 5},
	}
	require.NoError(t, svc.Reserve(ctx, lines, "ORDCCCC3333", ""))
	require.NoError(t, svc.Restore(ctx, lines, "ORDCCCC3333", "order canceled"))

	// Round trip: quantities back where they started, 4 movements kept.
	assert.Equal(t, 20, repo.stock[sugar].StockQuantity)
	assert.Equal(t, 8, repo.stock[rice].StockQuantity)
	assert.Len(t, repo.movements, 4)

	var ins, outs int
	for _, m := range repo.movements {
		switch m.MovementType {
		case MovementIn:
			ins++
		case MovementOut:
			outs++
		}
	}
	assert.Equal(t, 2, ins)
	assert.Equal(t, 2, outs)
}

func TestAdjustForReceipt(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	sugar := repo.addProduct("Sugar", 10)

	require.NoError(t, svc.AdjustForReceipt(ctx, sugar, 5, "POAAAA1111"))
	assert.Equal(t, 15, repo.stock[sugar].StockQuantity)

	require.NoError(t, svc.AdjustForReceipt(ctx, sugar, -3, "POAAAA1111"))
	assert.Equal(t, 12, repo.stock[sugar].StockQuantity)

	// Zero delta is a no-op.
	require.NoError(t, svc.AdjustForReceipt(ctx, sugar, 0, "POAAAA1111"))
	assert.Len(t, repo.movements, 2)
}

func TestAdjustForReceipt_FloorsAtZero(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	sugar := repo.addProduct("Sugar", 4)

	require.NoError(t, svc.AdjustForReceipt(ctx, sugar, -10, "POBBBB2222"))

	assert.Equal(t, 0, repo.stock[sugar].StockQuantity)
	require.Len(t, repo.movements, 1)
	assert.Equal(t, MovementOut, repo.movements[0].MovementType)
	assert.Equal(t, 4, repo.movements[0].Quantity, "movement records applied quantity, not requested")
}

func TestCheckAvailability(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	sugar := repo.addProduct("Sugar", 7)

	ok, available, err := svc.CheckAvailability(ctx, sugar, 5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, available)

	ok, _, err = svc.CheckAvailability(ctx, sugar, 8)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = svc.CheckAvailability(ctx, sugar, 0)
	require.Error(t, err)
}
