package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/fatflowers/checkout/internal/app/repository"
	"github.com/fatflowers/checkout/internal/models"
	"github.com/fatflowers/checkout/pkg/config"
	"github.com/fatflowers/checkout/pkg/logctx"
	"github.com/fatflowers/checkout/pkg/tool"
	"github.com/fatflowers/checkout/pkg/types"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrProductNotFound = errors.New("product in cart no longer exists")
	ErrInvalidQuantity = errors.New("cart item quantity must be positive")
)

const placeholderTrackingNumber = "1"

// Draft is a fully priced order that has not been persisted yet.
type Draft struct {
	Order *models.Order
}

func (d *Draft) FinalPrice() int64 { return d.Order.FinalPrice }

type Materializer struct {
	repo    repository.Repository
	carrier types.ShippingCarrier
	log     *zap.SugaredLogger
	now     func() time.Time
}

func NewMaterializer(repo repository.Repository, cfg *config.Config, log *zap.SugaredLogger) *Materializer {
	carrier := types.ShippingCarrierPost
	if cfg != nil && cfg.Shipping.DefaultCarrier != "" {
		carrier = types.ShippingCarrier(cfg.Shipping.DefaultCarrier)
	}
	return &Materializer{repo: repo, carrier: carrier, log: log, now: time.Now}
}

// Prepare prices cart against the current product rows. Item prices are
// product.price x qty and product.sell_price x qty; order totals are the sum
// of the items, plus the cart's delivery cost on the final price.
func (m *Materializer) Prepare(ctx context.Context, userID string, cart *repository.CartSnapshot, address *models.Address) (*Draft, error) {
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}
	if address == nil {
		return nil, fmt.Errorf("nil address")
	}

	ids := lo.Uniq(lo.Map(cart.Items, func(it repository.CartLine, _ int) string { return it.ProductID }))
	products, err := m.repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	byID := lo.KeyBy(products, func(p *models.Product) string { return p.ID })

	now := m.now()
	orderID := tool.GenerateUUIDV7()
	items := make([]*models.OrderItem, 0, len(cart.Items))
	var total, final int64
	for _, line := range cart.Items {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %s", ErrInvalidQuantity, line.ProductID)
		}
		p, ok := byID[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
		}
		item := &models.OrderItem{
			ID:         tool.GenerateUUIDV7(),
			OrderID:    orderID,
			ProductID:  p.ID,
			Quantity:   line.Quantity,
			Price:      p.Price * line.Quantity,
			FinalPrice: p.SellPrice * line.Quantity,
			CreatedAt:  now,
		}
		total += item.Price
		final += item.FinalPrice
		items = append(items, item)
	}

	shipping := &models.ShippingInfo{
		ID:              tool.GenerateUUIDV7(),
		AddressID:       address.ID,
		ShippingCarrier: m.carrier,
		TrackingNumber:  placeholderTrackingNumber,
		ShippingCost:    cart.DeliveryCost,
		Status:          types.ShippingStatusProcessing,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	order := &models.Order{
		ID:             orderID,
		UserID:         userID,
		ShippingInfoID: shipping.ID,
		ShippingInfo:   shipping,
		Items:          items,
		TotalPrice:     total,
		FinalPrice:     final + shipping.ShippingCost,
		Status:         types.OrderStatusPending,
	}

	if cart.FinalPrice != 0 && cart.FinalPrice != order.FinalPrice {
		logctx.FromCtx(ctx, m.log).Infow("order_price_drift",
			"cart_final_price", cart.FinalPrice, "order_final_price", order.FinalPrice)
	}
	return &Draft{Order: order}, nil
}

// Persist writes the draft's shipping info, order and items through tx.
func (m *Materializer) Persist(ctx context.Context, tx repository.Repository, draft *Draft) (*models.Order, error) {
	if draft == nil || draft.Order == nil {
		return nil, fmt.Errorf("nil draft")
	}
	if err := tx.CreateOrder(ctx, draft.Order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return draft.Order, nil
}
