package models

import (
	"time"

	"github.com/fatflowers/checkout/pkg/types"
)

// Order is a purchase intent. Prices are a snapshot taken at checkout and
// are never recomputed.
type Order struct {
	ID             string            `gorm:"column:id;primary_key;type:uuid;index:idx_order_user_id_id,priority:2,sort:desc" json:"id"`
	UserID         string            `gorm:"column:user_id;type:varchar(64);not null;index:idx_order_user_id_id,priority:1" json:"user_id"`
	ShippingInfoID string            `gorm:"column:shipping_info_id;type:uuid;not null;uniqueIndex" json:"shipping_info_id"`
	TotalPrice     int64             `gorm:"column:total_price;type:bigint;not null" json:"total_price"`
	FinalPrice     int64             `gorm:"column:final_price;type:bigint;not null" json:"final_price"`
	Status         types.OrderStatus `gorm:"column:status;type:varchar(32);not null;index" json:"status"`
	Description    string            `gorm:"column:description;type:text" json:"description,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`

	Items        []*OrderItem  `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	ShippingInfo *ShippingInfo `gorm:"foreignKey:ShippingInfoID" json:"shipping_info,omitempty"`
}

func (Order) TableName() string { return "orders" }

// OrderItem is an immutable snapshot of a cart line.
type OrderItem struct {
	ID        string `gorm:"column:id;primary_key;type:uuid" json:"id"`
	OrderID   string `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	ProductID string `gorm:"column:product_id;type:uuid;not null;index" json:"product_id"`
	Quantity  int64  `gorm:"column:quantity;not null" json:"quantity"`
	// Price is product.price x quantity at creation time.
	Price int64 `gorm:"column:price;type:bigint;not null" json:"price"`
	// FinalPrice is product.sell_price x quantity at creation time.
	FinalPrice int64     `gorm:"column:final_price;type:bigint;not null" json:"final_price"`
	CreatedAt  time.Time `json:"created_at"`
}

func (OrderItem) TableName() string { return "order_item" }

type ShippingInfo struct {
	ID              string                `gorm:"column:id;primary_key;type:uuid" json:"id"`
	AddressID       string                `gorm:"column:address_id;type:uuid;not null" json:"address_id"`
	ShippingCarrier types.ShippingCarrier `gorm:"column:shipping_carrier;type:varchar(32);not null" json:"shipping_carrier"`
	TrackingNumber  string                `gorm:"column:tracking_number;type:varchar(64);not null" json:"tracking_number"`
	ShippingCost    int64                 `gorm:"column:shipping_cost;type:bigint;not null" json:"shipping_cost"`
	Status          types.ShippingStatus  `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

func (ShippingInfo) TableName() string { return "shipping_info" }

func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = nil
	for _, it := range o.Items {
		cp := *it
		c.Items = append(c.Items, &cp)
	}
	if o.ShippingInfo != nil {
		si := *o.ShippingInfo
		c.ShippingInfo = &si
	}
	return &c
}
