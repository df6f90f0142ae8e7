package repository

import (
	"context"
	"time"

	"github.com/fatflowers/checkout/internal/models"
	"github.com/fatflowers/checkout/pkg/types"
)

// CartSnapshot is the read-only view of a user's cart consumed by checkout.
type CartSnapshot struct {
	CartID          string
	UserID          string
	Items           []CartLine
	TotalPrice      int64
	DiscountedPrice int64
	DeliveryCost    int64
	FinalPrice      int64
}

type CartLine struct {
	ProductID string
	Quantity  int64
}

// Repository is the persistence surface of the checkout and reconciliation
// flows. Implementations must run fn of Transaction atomically: every write
// made through the tx argument is committed together or not at all.
type Repository interface {
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	GetCartSnapshot(ctx context.Context, userID string) (*CartSnapshot, error)
	GetUserAddress(ctx context.Context, userID, addressID string) (*models.Address, error)
	GetProductsByIDs(ctx context.Context, ids []string) ([]*models.Product, error)

	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	SaveOrder(ctx context.Context, order *models.Order) error

	CreateTransaction(ctx context.Context, txn *models.Transaction) error
	GetTransaction(ctx context.Context, id string) (*models.Transaction, error)
	SaveTransaction(ctx context.Context, txn *models.Transaction) error
	ListTransactionsByStatus(ctx context.Context, status types.TransactionStatus, createdBefore time.Time, limit int) ([]*models.Transaction, error)
	CreateTransactionLog(ctx context.Context, log *models.TransactionLog) error

	CreatePayment(ctx context.Context, p *models.Payment) error
	// GetPaymentByResNumber locks the row FOR UPDATE when called inside Transaction with forUpdate set.
	GetPaymentByResNumber(ctx context.Context, res types.ResNumber, forUpdate bool) (*models.Payment, error)
	GetPaymentByRefNumber(ctx context.Context, ref types.RefNumber) (*models.Payment, error)
	GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
	SavePayment(ctx context.Context, p *models.Payment) error
}
