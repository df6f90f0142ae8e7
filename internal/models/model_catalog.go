package models

import "time"

// Product, Cart, CartItem and Address are owned by the catalog and cart
// services. Checkout only reads them.

type Product struct {
	ID            string    `gorm:"column:id;primary_key;type:uuid" json:"id"`
	Title         string    `gorm:"column:title;type:varchar(255);not null" json:"title"`
	Slug          string    `gorm:"column:slug;type:varchar(255);uniqueIndex" json:"slug"`
	Price         int64     `gorm:"column:price;type:bigint;not null" json:"price"`
	SellPrice     int64     `gorm:"column:sell_price;type:bigint;not null" json:"sell_price"`
	StockQuantity int64     `gorm:"column:stock_quantity;not null;default:0" json:"stock_quantity"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Product) TableName() string { return "product" }

type Cart struct {
	ID              string      `gorm:"column:id;primary_key;type:uuid" json:"id"`
	UserID          string      `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex" json:"user_id"`
	TotalPrice      int64       `gorm:"column:total_price;type:bigint;not null;default:0" json:"total_price"`
	DiscountedPrice int64       `gorm:"column:discounted_price;type:bigint;not null;default:0" json:"discounted_price"`
	DeliveryCost    int64       `gorm:"column:delivery_cost;type:bigint;not null;default:0" json:"delivery_cost"`
	FinalPrice      int64       `gorm:"column:final_price;type:bigint;not null;default:0" json:"final_price"`
	Items           []*CartItem `gorm:"foreignKey:CartID" json:"items"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

func (Cart) TableName() string { return "cart" }

type CartItem struct {
	ID        string `gorm:"column:id;primary_key;type:uuid" json:"id"`
	CartID    string `gorm:"column:cart_id;type:uuid;not null;index" json:"cart_id"`
	ProductID string `gorm:"column:product_id;type:uuid;not null" json:"product_id"`
	Quantity  int64  `gorm:"column:quantity;not null" json:"quantity"`
}

func (CartItem) TableName() string { return "cart_item" }

type Address struct {
	ID        string    `gorm:"column:id;primary_key;type:uuid" json:"id"`
	UserID    string    `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	Country   string    `gorm:"column:country;type:varchar(64)" json:"country"`
	Province  string    `gorm:"column:province;type:varchar(64)" json:"province"`
	City      string    `gorm:"column:city;type:varchar(64)" json:"city"`
	Address   string    `gorm:"column:address;type:text;not null" json:"address"`
	PostCode  string    `gorm:"column:post_code;type:varchar(16)" json:"post_code"`
	CreatedAt time.Time `json:"created_at"`
}

func (Address) TableName() string { return "address" }
