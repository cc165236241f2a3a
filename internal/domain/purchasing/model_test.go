package purchasing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplytrack/internal/core/id"
	"supplytrack/internal/core/types"
)

func testPO(items ...Item) *PurchaseOrder {
	po := New("POAAAA1111", id.New())
	po.Items = items
	po.RecomputeTotal()
	return po
}

func line(ordered, received int, cost string) Item {
	return Item{
		ID:               id.New(),
		ProductID:        id.New(),
		QuantityOrdered:  ordered,
		QuantityReceived: received,
		UnitCost:         types.MustMoney(cost),
	}
}

func TestRecomputeTotal(t *testing.T) {
	po := testPO(line(5, 0, "10.00"), line(2, 0, "25.00"))
	assert.True(t, po.TotalCost.Equal(types.MustMoney("100.00")))

	po.Items = append(po.Items, line(1, 0, "3.50"))
	po.RecomputeTotal()
	assert.True(t, po.TotalCost.Equal(types.MustMoney("103.50")))
}

func TestDeriveReceiptStatus(t *testing.T) {
	t.Run("fully received", func(t *testing.T) {
		po := testPO(line(10, 10, "1"), line(10, 10, "1"))
		po.Status = StatusPartiallyReceived
		po.DeriveReceiptStatus()
		assert.Equal(t, StatusReceived, po.Status)
		assert.NotNil(t, po.ReceivedDate)
	})

	t.Run("partially received", func(t *testing.T) {
		po := testPO(line(10, 10, "1"), line(10, 5, "1"))
		po.Status = StatusInTransit
		po.DeriveReceiptStatus()
		assert.Equal(t, StatusPartiallyReceived, po.Status)
		assert.Nil(t, po.ReceivedDate)
	})

	t.Run("nothing received reverts to confirmed", func(t *testing.T) {
		po := testPO(line(10, 0, "1"))
		po.Status = StatusPartiallyReceived
		now := time.Now().UTC()
		po.ReceivedDate = &now
		po.DeriveReceiptStatus()
		assert.Equal(t, StatusConfirmed, po.Status)
		assert.Nil(t, po.ReceivedDate)
	})

	t.Run("draft and terminal states are not overridden", func(t *testing.T) {
		for _, s := range []Status{StatusDraft, StatusRequestPending, StatusCancelled, StatusRefund} {
			po := testPO(line(10, 0, "1"))
			po.Status = s
			po.DeriveReceiptStatus()
			assert.Equal(t, s, po.Status)
		}
	})

	t.Run("received date stamped once", func(t *testing.T) {
		po := testPO(line(5, 5, "1"))
		po.Status = StatusInTransit
		stamp := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
		po.ReceivedDate = &stamp
		po.DeriveReceiptStatus()
		assert.Equal(t, stamp, *po.ReceivedDate)
	})
}

func TestSyncPaymentStatus_Refund(t *testing.T) {
	now := time.Now().UTC()

	po := testPO(line(10, 10, "10"))
	po.Status = StatusRefund
	require.NoError(t, po.SetRefund("damaged goods", types.MustMoney("40")))
	po.SyncPaymentStatus(now)
	assert.Equal(t, PaymentPartiallyRefunded, po.PaymentStatus)

	po.RefundAmount = po.TotalCost
	po.SyncPaymentStatus(now)
	assert.Equal(t, PaymentRefunded, po.PaymentStatus)
}

func TestSyncPaymentStatus_CancelledResetsPaid(t *testing.T) {
	now := time.Now().UTC()
	po := testPO(line(10, 0, "10"))
	po.PaymentStatus = PaymentPaid
	po.PaymentVerifiedAt = &now
	po.PaymentVerifiedBy = "staff-1"
	po.Status = StatusCancelled

	po.SyncPaymentStatus(now)

	assert.Equal(t, PaymentUnpaid, po.PaymentStatus)
	assert.Nil(t, po.PaymentVerifiedAt)
	assert.Empty(t, po.PaymentVerifiedBy)
}

func TestSyncPaymentStatus_Net30(t *testing.T) {
	now := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	po := testPO(line(10, 0, "10"))
	po.Status = StatusConfirmed
	po.PaymentMethod = PaymentNet30

	future := now.AddDate(0, 0, 10)
	po.PaymentDueDate = &future
	po.SyncPaymentStatus(now)
	assert.Equal(t, PaymentUnpaid, po.PaymentStatus)

	past := now.AddDate(0, 0, -1)
	po.PaymentDueDate = &past
	po.SyncPaymentStatus(now)
	assert.Equal(t, PaymentOverdue, po.PaymentStatus)

	po.PaymentProofImage = "proofs/gcash.jpg"
	po.SyncPaymentStatus(now)
	assert.Equal(t, PaymentPaid, po.PaymentStatus)
	assert.NotNil(t, po.PaymentVerifiedAt)
}

func TestSyncPaymentStatus_PayLaterFlagActsLikeNet30(t *testing.T) {
	now := time.Now().UTC()
	po := testPO(line(10, 10, "10"))
	po.Status = StatusReceived
	po.PaymentMethod = PaymentTBD
	po.PayLater = true

	// Even at Received, pay-later stays unpaid until proof arrives.
	po.SyncPaymentStatus(now)
	assert.Equal(t, PaymentUnpaid, po.PaymentStatus)

	po.PaymentProofImage = "proofs/check.jpg"
	po.SyncPaymentStatus(now)
	assert.Equal(t, PaymentPaid, po.PaymentStatus)
}

func TestSyncPaymentStatus_Prepaid(t *testing.T) {
	now := time.Now().UTC()
	po := testPO(line(10, 0, "10"))
	po.PaymentMethod = PaymentPrepaid
	po.PaymentProofImage = "proofs/wire.jpg"

	// Proof alone is not enough before the order moves past Confirmed.
	po.Status = StatusConfirmed
	po.SyncPaymentStatus(now)
	assert.Equal(t, PaymentUnpaid, po.PaymentStatus)

	po.Status = StatusInTransit
	po.SyncPaymentStatus(now)
	assert.Equal(t, PaymentPaid, po.PaymentStatus)
}

func TestSyncPaymentStatus_CODAndTBD(t *testing.T) {
	now := time.Now().UTC()

	cod := testPO(line(5, 5, "10"))
	cod.PaymentMethod = PaymentCOD
	cod.Status = StatusInTransit
	cod.SyncPaymentStatus(now)
	assert.Equal(t, PaymentUnpaid, cod.PaymentStatus)
	cod.Status = StatusReceived
	cod.SyncPaymentStatus(now)
	assert.Equal(t, PaymentPaid, cod.PaymentStatus)

	tbd := testPO(line(5, 5, "10"))
	tbd.Status = StatusReceived
	tbd.SyncPaymentStatus(now)
	assert.Equal(t, PaymentPaid, tbd.PaymentStatus)
}

func TestApplyNet30Terms(t *testing.T) {
	po := testPO(line(5, 0, "10"))
	po.ApplyNet30Terms()

	assert.Equal(t, PaymentNet30, po.PaymentMethod)
	assert.True(t, po.PayLater)
	require.NotNil(t, po.PaymentDueDate)
	assert.Equal(t, po.OrderDate.AddDate(0, 0, 30), *po.PaymentDueDate)

	// An explicit due date survives.
	custom := po.OrderDate.AddDate(0, 0, 45)
	po2 := testPO(line(5, 0, "10"))
	po2.PaymentDueDate = &custom
	po2.ApplyNet30Terms()
	assert.Equal(t, custom, *po2.PaymentDueDate)
}

func TestSetRefund_Validation(t *testing.T) {
	po := testPO(line(5, 5, "10"))
	require.Error(t, po.SetRefund("", types.MustMoney("10")))
	require.Error(t, po.SetRefund("  ", types.MustMoney("10")))
	require.Error(t, po.SetRefund("damaged", types.MustMoney("-1")))
	require.NoError(t, po.SetRefund("damaged", types.MustMoney("10")))
	assert.Equal(t, "damaged", po.RefundReason)
}
