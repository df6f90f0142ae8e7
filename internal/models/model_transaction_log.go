package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/fatflowers/checkout/pkg/types"
)

// TransactionLog records every status change of a transaction for support
// and audit. It is written in the same DB transaction as the change.
type TransactionLog struct {
	ID            string                           `gorm:"column:id;primary_key;type:uuid;index:idx_transaction_log_txn_id_id,priority:2,sort:desc"`
	TransactionID string                           `gorm:"column:transaction_id;type:uuid;not null;index:idx_transaction_log_txn_id_id,priority:1"`
	UserID        string                           `gorm:"column:user_id;type:varchar(64);not null"`
	Reason        types.TransactionChangeReason    `gorm:"column:reason;type:varchar(64);not null"`
	Before        datatypes.JSONType[*Transaction] `gorm:"column:before;type:jsonb;default:'null'"`
	After         datatypes.JSONType[*Transaction] `gorm:"column:after;type:jsonb;default:'null'"`
	// Extra carries the gateway state and result code that drove the change.
	Extra     datatypes.JSONMap `gorm:"column:extra;type:jsonb;default:'{}'"`
	CreatedAt time.Time         `json:"created_at"`
}

func (TransactionLog) TableName() string {
	return "transaction_log"
}
