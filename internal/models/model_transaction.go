package models

import (
	"time"

	"github.com/fatflowers/checkout/pkg/types"
)

// Transaction is one payment attempt against an order.
type Transaction struct {
	ID      string                  `gorm:"column:id;primary_key;type:uuid;index:idx_transaction_user_id_id,priority:2,sort:desc" json:"id"`
	UserID  string                  `gorm:"column:user_id;type:varchar(64);not null;index:idx_transaction_user_id_id,priority:1" json:"user_id"`
	OrderID string                  `gorm:"column:order_id;type:uuid;not null;index" json:"order_id"`
	Amount  int64                   `gorm:"column:amount;type:bigint;not null" json:"amount"`
	Type    types.TransactionType   `gorm:"column:type;type:varchar(32);not null" json:"type"`
	Status  types.TransactionStatus `gorm:"column:status;type:varchar(32);not null;index:idx_transaction_status_created_at,priority:1" json:"status"`
	// TraceNo and Rrn are the bank references reported on the callback.
	TraceNo    *string    `gorm:"column:trace_no;type:varchar(64)" json:"trace_no"`
	Rrn        *string    `gorm:"column:rrn;type:varchar(64)" json:"rrn"`
	FinishedAt *time.Time `gorm:"column:finished_at;default:null" json:"finished_at"`
	CreatedAt  time.Time  `gorm:"index:idx_transaction_status_created_at,priority:2" json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`

	Payment *Payment `gorm:"foreignKey:TransactionID" json:"payment,omitempty"`
	Order   *Order   `gorm:"foreignKey:OrderID" json:"order,omitempty"`
}

func (Transaction) TableName() string {
	return "transaction"
}

// Finish moves the transaction into a terminal status. It reports false when
// the transition is not allowed from the current status.
func (t *Transaction) Finish(status types.TransactionStatus, traceNo, rrn string, at time.Time) bool {
	if t == nil || !status.IsTerminal() || !t.Status.CanTransition(status) {
		return false
	}
	t.Status = status
	if traceNo != "" {
		t.TraceNo = &traceNo
	}
	if rrn != "" {
		t.Rrn = &rrn
	}
	t.FinishedAt = &at
	return true
}

func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	c := *t
	c.Payment = nil
	c.Order = nil
	return &c
}
