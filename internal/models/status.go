package models

import "fmt"

type OrderStatus string

const (
	StatusPaymentReceived  OrderStatus = "PAYMENT_RECEIVED"
	StatusProcessing       OrderStatus = "PROCESSING"
	StatusPreparing        OrderStatus = "PREPARING"
	StatusReadyForDelivery OrderStatus = "READY_FOR_DELIVERY"
	StatusInDelivery       OrderStatus = "IN_DELIVERY"
	StatusDelivered        OrderStatus = "DELIVERED"
	StatusCanceled         OrderStatus = "CANCELED"
)

// statusStage fixes each status at an explicit position so the transition
// rule does not depend on constant declaration order. CANCELED sits above
// every fulfillment stage: once canceled, an order accepts no forward
// transition, only CANCELED again.
var statusStage = map[OrderStatus]int{
	StatusPaymentReceived:  0,
	StatusProcessing:       1,
	StatusPreparing:        2,
	StatusReadyForDelivery: 3,
	StatusInDelivery:       4,
	StatusDelivered:        5,
	StatusCanceled:         6,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if _, ok := statusStage[status]; !ok {
		return "", fmt.Errorf("unknown order status %q", s)
	}
	return status, nil
}

func (s OrderStatus) Valid() bool {
	_, ok := statusStage[s]
	return ok
}

// CanTransition reports whether an order currently at current may move to
// next. CANCELED is always reachable, from any state including DELIVERED.
// Among the fulfillment stages only forward or same-stage moves are legal;
// skipping intermediate stages is fine. An empty current status counts as
// PAYMENT_RECEIVED.
func CanTransition(current, next OrderStatus) bool {
	if next == StatusCanceled {
		return true
	}
	if current == "" {
		current = StatusPaymentReceived
	}
	return statusStage[next] >= statusStage[current]
}
