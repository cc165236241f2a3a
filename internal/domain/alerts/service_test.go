package alerts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplytrack/internal/core/apperror"
	"supplytrack/internal/core/id"
	"supplytrack/internal/core/types"
	"supplytrack/internal/domain"
	"supplytrack/internal/domain/catalogs/product"
	"supplytrack/internal/domain/notify"
)

type fakeProductRepo struct {
	byID map[id.ID]product.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{byID: make(map[id.ID]product.Product)}
}

func (f *fakeProductRepo) add(name, sku string, stock, reorder int, active bool) id.ID {
	p := product.New(name, sku, "pc", types.MustMoney("10"))
	p.StockQuantity = stock
	p.ReorderLevel = reorder
	p.IsActive = active
	f.byID[p.ID] = *p
	return p.ID
}

func (f *fakeProductRepo) Create(_ context.Context, p *product.Product) error {
	f.byID[p.ID] = *p
	return nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, productID id.ID) (*product.Product, error) {
	p, ok := f.byID[productID]
	if !ok {
		return nil, apperror.NewNotFound("product", productID)
	}
	cp := p
	return &cp, nil
}

func (f *fakeProductRepo) GetBySKU(_ context.Context, sku string) (*product.Product, error) {
	for _, p := range f.byID {
		if p.SKU == sku {
			cp := p
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("product", sku)
}

func (f *fakeProductRepo) Update(_ context.Context, p *product.Product) error {
	f.byID[p.ID] = *p
	return nil
}

func (f *fakeProductRepo) SetDeletionMark(_ context.Context, productID id.ID, marked bool) error {
	p := f.byID[productID]
	p.DeletionMark = marked
	f.byID[productID] = p
	return nil
}

func (f *fakeProductRepo) List(_ context.Context, _ domain.ListFilter) (domain.ListResult[*product.Product], error) {
	return domain.ListResult[*product.Product]{}, nil
}

func (f *fakeProductRepo) ListActive(_ context.Context) ([]*product.Product, error) {
	var out []*product.Product
	for _, p := range f.byID {
		if p.IsActive && !p.DeletionMark {
			cp := p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) ExistsBySKU(_ context.Context, sku string, excludeID id.ID) (bool, error) {
	for _, p := range f.byID {
		if p.SKU == sku && p.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

type fakeAlertRepo struct {
	logs []CheckLog
}

func (f *fakeAlertRepo) InsertLogs(_ context.Context, logs []CheckLog) error {
	f.logs = append(f.logs, logs...)
	return nil
}

func (f *fakeAlertRepo) ListRecent(_ context.Context, limit int, onlyFired bool) ([]CheckLog, error) {
	var out []CheckLog
	for i := len(f.logs) - 1; i >= 0 && len(out) < limit; i-- {
		if onlyFired && !f.logs[i].AlertFired {
			continue
		}
		out = append(out, f.logs[i])
	}
	return out, nil
}

type captureNotifier struct {
	sent []notify.Message
}

func (n *captureNotifier) Send(_ context.Context, msg notify.Message) error {
	n.sent = append(n.sent, msg)
	return nil
}

func TestCompile_RejectsBadRules(t *testing.T) {
	_, err := Compile("stock_quantity <=")
	require.Error(t, err)

	_, err = Compile("stock_quantity + reorder_level")
	require.Error(t, err, "non-boolean rules are rejected")

	_, err = Compile(DefaultRule)
	require.NoError(t, err)
}

func TestRule_Evaluate(t *testing.T) {
	rule := MustCompile(DefaultRule)

	p := product.New("Rice", "RICE-25KG", "sack", types.MustMoney("1250"))
	p.ReorderLevel = 10

	p.StockQuantity = 10
	fired, err := rule.Evaluate(p)
	require.NoError(t, err)
	assert.True(t, fired, "at the reorder level counts")

	p.StockQuantity = 11
	fired, err = rule.Evaluate(p)
	require.NoError(t, err)
	assert.False(t, fired)

	p.StockQuantity = 0
	p.IsActive = false
	fired, err = rule.Evaluate(p)
	require.NoError(t, err)
	assert.False(t, fired, "inactive products never alert")
}

func TestRule_CustomExpression(t *testing.T) {
	rule, err := Compile(`is_active && stock_quantity == 0 && sku.startsWith("RICE")`)
	require.NoError(t, err)

	p := product.New("Rice", "RICE-25KG", "sack", types.MustMoney("1250"))
	p.StockQuantity = 0
	fired, err := rule.Evaluate(p)
	require.NoError(t, err)
	assert.True(t, fired)

	p.SKU = "SUGAR-1KG"
	fired, err = rule.Evaluate(p)
	require.NoError(t, err)
	assert.False(t, fired)
}

func TestCheckAll(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductRepo()
	products.add("Rice", "RICE-25KG", 2, 10, true)
	products.add("Sugar", "SUGAR-1KG", 50, 10, true)
	products.add("Oil", "OIL-1L", 0, 5, false) // inactive, excluded from sweep

	repo := &fakeAlertRepo{}
	notifier := &captureNotifier{}
	svc := NewService(products, repo, nil, notifier, "purchasing@example.com")

	logs, err := svc.CheckAll(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2, "only active products are swept")

	var firedCount int
	for _, l := range logs {
		if l.AlertFired {
			firedCount++
			assert.Equal(t, "RICE-25KG", l.SKU)
		}
		assert.Equal(t, DefaultRule, l.Rule)
	}
	assert.Equal(t, 1, firedCount)
	assert.Len(t, repo.logs, 2, "every check is recorded")

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "purchasing@example.com", notifier.sent[0].Recipient)
	assert.Contains(t, notifier.sent[0].Body, "RICE-25KG")
}

func TestCheckAll_NothingFiredNoNotification(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductRepo()
	products.add("Sugar", "SUGAR-1KG", 50, 10, true)

	repo := &fakeAlertRepo{}
	notifier := &captureNotifier{}
	svc := NewService(products, repo, nil, notifier, "purchasing@example.com")

	logs, err := svc.CheckAll(ctx)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Empty(t, notifier.sent)
}

func TestEvaluateProduct(t *testing.T) {
	ctx := context.Background()
	products := newFakeProductRepo()
	low := products.add("Rice", "RICE-25KG", 2, 10, true)

	svc := NewService(products, &fakeAlertRepo{}, nil, notify.NewLogNotifier(), "")

	fired, err := svc.EvaluateProduct(ctx, low)
	require.NoError(t, err)
	assert.True(t, fired)

	_, err = svc.EvaluateProduct(ctx, id.New())
	require.Error(t, err)
}
