package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/fatflowers/checkout/pkg/types"
)

// Payment records every interaction with the gateway for one transaction.
// It is written at token time and again at callback time.
type Payment struct {
	ID            string               `gorm:"column:id;primary_key;type:uuid" json:"id"`
	UserID        string               `gorm:"column:user_id;type:varchar(64);not null;index" json:"user_id"`
	TransactionID string               `gorm:"column:transaction_id;type:uuid;not null;uniqueIndex:uniq_payment_transaction_id" json:"transaction_id"`
	Gateway       types.PaymentGateway `gorm:"column:gateway;type:varchar(32);not null" json:"gateway"`
	// ResNumber is generated by us and correlates the callback to this row.
	ResNumber types.ResNumber `gorm:"column:res_number;type:varchar(64);not null;uniqueIndex:uniq_payment_res_number" json:"res_number"`
	// Token is the gateway session token used for the redirect.
	Token string `gorm:"column:token;type:varchar(128);not null" json:"token"`
	// RefNumber is the gateway receipt, set once on a State=OK callback.
	RefNumber *types.RefNumber `gorm:"column:ref_number;type:varchar(128);uniqueIndex:uniq_payment_ref_number" json:"ref_number"`

	PaymentRequest  datatypes.JSON `gorm:"column:payment_request;type:jsonb" json:"payment_request"`
	PaymentResponse datatypes.JSON `gorm:"column:payment_response;type:jsonb" json:"payment_response"`
	PaymentCallback datatypes.JSON `gorm:"column:payment_callback;type:jsonb" json:"payment_callback"`
	VerifyRequest   datatypes.JSON `gorm:"column:verify_request;type:jsonb" json:"verify_request"`
	VerifyResponse  datatypes.JSON `gorm:"column:verify_response;type:jsonb" json:"verify_response"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Payment) TableName() string { return "payment" }

func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	c := *p
	if p.RefNumber != nil {
		ref := *p.RefNumber
		c.RefNumber = &ref
	}
	return &c
}
