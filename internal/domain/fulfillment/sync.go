package fulfillment

import (
	"supplytrack/internal/domain/delivery"
	"supplytrack/internal/domain/orders"
)

// deliveryStatusForOrder maps an order status to the delivery status it
// implies. The reprocessing rule (failed delivery reset by an order
// going back to Pending/Processing) is handled by the caller and takes
// priority over this map.
func deliveryStatusForOrder(s orders.Status) (delivery.Status, bool) {
	switch s {
	case orders.StatusPending, orders.StatusProcessing:
		return delivery.StatusPendingDispatch, true
	case orders.StatusShipped:
		return delivery.StatusOutForDelivery, true
	case orders.StatusCompleted:
		return delivery.StatusDelivered, true
	case orders.StatusReturned, orders.StatusCanceled:
		return delivery.StatusFailed, true
	}
	return "", false
}

// orderStatusForDelivery maps a delivery status to the order status it
// implies. Canceled orders are sticky and never overwritten by this map.
func orderStatusForDelivery(s delivery.Status) (orders.Status, bool) {
	switch s {
	case delivery.StatusPendingDispatch:
		return orders.StatusProcessing, true
	case delivery.StatusOutForDelivery:
		return orders.StatusShipped, true
	case delivery.StatusDelivered:
		return orders.StatusCompleted, true
	case delivery.StatusFailed:
		return orders.StatusReturned, true
	}
	return "", false
}
