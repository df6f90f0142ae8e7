package types

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusPaid     OrderStatus = "PAID"
	OrderStatusCanceled OrderStatus = "CANCELED"
)

var orderNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusPending:  {OrderStatusPaid: true, OrderStatusCanceled: true},
	OrderStatusPaid:     {},
	OrderStatusCanceled: {},
}

func (s OrderStatus) CanTransition(to OrderStatus) bool {
	return orderNext[s][to]
}

type ShippingStatus string

const (
	ShippingStatusProcessing ShippingStatus = "PROCESSING"
	ShippingStatusShipped    ShippingStatus = "SHIPPED"
	ShippingStatusDelivered  ShippingStatus = "DELIVERED"
	ShippingStatusReturned   ShippingStatus = "RETURNED"
)

var shippingNext = map[ShippingStatus]map[ShippingStatus]bool{
	ShippingStatusProcessing: {ShippingStatusShipped: true, ShippingStatusReturned: true},
	ShippingStatusShipped:    {ShippingStatusDelivered: true, ShippingStatusReturned: true},
	ShippingStatusDelivered:  {ShippingStatusReturned: true},
	ShippingStatusReturned:   {},
}

func (s ShippingStatus) CanTransition(to ShippingStatus) bool {
	return s == to || shippingNext[s][to]
}

type ShippingCarrier string

const (
	ShippingCarrierPost    ShippingCarrier = "POST"
	ShippingCarrierCourier ShippingCarrier = "COURIER"
)
