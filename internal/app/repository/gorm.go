package repository

import (
	"context"
	"time"

	"go.uber.org/fx"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fatflowers/checkout/internal/models"
	"github.com/fatflowers/checkout/pkg/types"
)

// GormRepository implements Repository on postgres.
type GormRepository struct {
	db *gorm.DB
}

func New(db *gorm.DB) *GormRepository { return &GormRepository{db: db} }

func (r *GormRepository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{db: tx})
	})
}

func (r *GormRepository) GetCartSnapshot(ctx context.Context, userID string) (*CartSnapshot, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).Preload("Items").Where("user_id = ?", userID).First(&cart).Error
	if err != nil {
		return nil, mapErr(err)
	}
	snap := &CartSnapshot{
		CartID:          cart.ID,
		UserID:          cart.UserID,
		TotalPrice:      cart.TotalPrice,
		DiscountedPrice: cart.DiscountedPrice,
		DeliveryCost:    cart.DeliveryCost,
		FinalPrice:      cart.FinalPrice,
	}
	for _, it := range cart.Items {
		snap.Items = append(snap.Items, CartLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return snap, nil
}

func (r *GormRepository) GetUserAddress(ctx context.Context, userID, addressID string) (*models.Address, error) {
	var addr models.Address
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", addressID, userID).First(&addr).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &addr, nil
}

// GetProductsByIDs reads all products in one statement so the snapshot is
// taken from a single consistent view.
func (r *GormRepository) GetProductsByIDs(ctx context.Context, ids []string) ([]*models.Product, error) {
	var rows []*models.Product
	if len(ids) == 0 {
		return rows, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, mapErr(err)
	}
	return rows, nil
}

func (r *GormRepository) CreateOrder(ctx context.Context, order *models.Order) error {
	return mapErr(r.db.WithContext(ctx).Create(order).Error)
}

func (r *GormRepository) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	err := r.db.WithContext(ctx).Preload("Items").Preload("ShippingInfo").Where("id = ?", id).First(&o).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return &o, nil
}

func (r *GormRepository) SaveOrder(ctx context.Context, order *models.Order) error {
	return mapErr(r.db.WithContext(ctx).Omit(clause.Associations).Save(order).Error)
}

func (r *GormRepository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	return mapErr(r.db.WithContext(ctx).Omit(clause.Associations).Create(txn).Error)
}

func (r *GormRepository) GetTransaction(ctx context.Context, id string) (*models.Transaction, error) {
	var t models.Transaction
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (r *GormRepository) SaveTransaction(ctx context.Context, txn *models.Transaction) error {
	return mapErr(r.db.WithContext(ctx).Omit(clause.Associations).Save(txn).Error)
}

func (r *GormRepository) ListTransactionsByStatus(ctx context.Context, status types.TransactionStatus, createdBefore time.Time, limit int) ([]*models.Transaction, error) {
	var rows []*models.Transaction
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", status, createdBefore).
		Order("created_at").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, mapErr(err)
	}
	return rows, nil
}

func (r *GormRepository) CreateTransactionLog(ctx context.Context, log *models.TransactionLog) error {
	return mapErr(r.db.WithContext(ctx).Create(log).Error)
}

func (r *GormRepository) CreatePayment(ctx context.Context, p *models.Payment) error {
	return mapErr(r.db.WithContext(ctx).Create(p).Error)
}

func (r *GormRepository) GetPaymentByResNumber(ctx context.Context, res types.ResNumber, forUpdate bool) (*models.Payment, error) {
	var p models.Payment
	q := r.db.WithContext(ctx)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("res_number = ?", res).First(&p).Error; err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *GormRepository) GetPaymentByRefNumber(ctx context.Context, ref types.RefNumber) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).Where("ref_number = ?", ref).First(&p).Error; err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *GormRepository) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	var p models.Payment
	if err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&p).Error; err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *GormRepository) SavePayment(ctx context.Context, p *models.Payment) error {
	return mapErr(r.db.WithContext(ctx).Save(p).Error)
}

var Module = fx.Options(
	fx.Provide(fx.Annotate(New, fx.As(new(Repository)))),
)
