package checkout

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/checkout/internal/app/repository"
	"github.com/fatflowers/checkout/internal/app/service/order"
	"github.com/fatflowers/checkout/internal/models"
	"github.com/fatflowers/checkout/internal/platform/sep"
	"github.com/fatflowers/checkout/pkg/logctx"
	"github.com/fatflowers/checkout/pkg/metrics"
	"github.com/fatflowers/checkout/pkg/tool"
	"github.com/fatflowers/checkout/pkg/types"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrAddressNotFound = errors.New("address not found")
)

// SuccessMessage is shown to the user before the gateway redirect.
const SuccessMessage = "در حال انتقال به درگاه پرداخت"

// Gateway is the part of the payment gateway client checkout needs.
type Gateway interface {
	RequestToken(ctx context.Context, amountToman int64, resNum types.ResNumber, cellNumber string) (*sep.TokenResult, error)
	PaymentURL(token string) string
}

type Request struct {
	AddressID string `json:"address_id" binding:"required"`
	// PhoneNumber defaults to the caller's phone when empty.
	PhoneNumber string `json:"phone_number"`
	Description string `json:"description"`
}

type Result struct {
	Message       string `json:"message"`
	Link          string `json:"link"`
	OrderID       string `json:"order_id"`
	TransactionID string `json:"transaction_id"`
}

type Service struct {
	repo         repository.Repository
	materializer *order.Materializer
	gateway      Gateway
	metrics      *metrics.Business
	log          *zap.SugaredLogger
}

type Params struct {
	fx.In

	Repo         repository.Repository
	Materializer *order.Materializer
	Gateway      Gateway
	Metrics      *metrics.Business `optional:"true"`
	Log          *zap.SugaredLogger
}

func New(p Params) *Service {
	return &Service{repo: p.Repo, materializer: p.Materializer, gateway: p.Gateway, metrics: p.Metrics, log: p.Log}
}

// Checkout prices the user's cart, obtains a gateway token and only then
// persists the order, transaction and payment in one DB transaction. A token
// failure leaves no rows behind.
func (s *Service) Checkout(ctx context.Context, userID string, req *Request) (res *Result, err error) {
	log := logctx.FromCtx(ctx, s.log)
	defer func() {
		s.metrics.ObserveCheckout(checkoutResult(err))
	}()

	cart, err := s.repo.GetCartSnapshot(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart == nil || len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	address, err := s.repo.GetUserAddress(ctx, userID, req.AddressID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, fmt.Errorf("failed to load address: %w", err)
	}

	draft, err := s.materializer.Prepare(ctx, userID, cart, address)
	if err != nil {
		return nil, err
	}
	if req.Description != "" {
		draft.Order.Description = req.Description
	}

	resNum := types.NewResNumber()
	token, err := s.gateway.RequestToken(ctx, draft.FinalPrice(), resNum, req.PhoneNumber)
	if err != nil {
		log.Warnw("checkout_token_failed", "res_num", resNum, "error", err)
		return nil, err
	}

	var txn *models.Transaction
	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		o, err := s.materializer.Persist(ctx, tx, draft)
		if err != nil {
			return err
		}
		txn = &models.Transaction{
			ID:      tool.GenerateUUIDV7(),
			UserID:  userID,
			OrderID: o.ID,
			Amount:  o.FinalPrice,
			Type:    types.TransactionTypePurchase,
			Status:  types.TransactionStatusPending,
		}
		if err := tx.CreateTransaction(ctx, txn); err != nil {
			return fmt.Errorf("failed to create transaction: %w", err)
		}
		payment := &models.Payment{
			ID:              tool.GenerateUUIDV7(),
			UserID:          userID,
			TransactionID:   txn.ID,
			Gateway:         types.PaymentGatewaySamanBank,
			ResNumber:       resNum,
			Token:           token.Token,
			PaymentRequest:  datatypes.JSON(token.RawRequest),
			PaymentResponse: datatypes.JSON(token.RawResponse),
		}
		if err := tx.CreatePayment(ctx, payment); err != nil {
			return fmt.Errorf("failed to create payment: %w", err)
		}
		return nil
	})
	if err != nil {
		// the issued token expires unused at the gateway
		log.Errorw("checkout_persist_failed", "res_num", resNum, "error", err)
		return nil, err
	}

	log.Infow("checkout_created", "order_id", draft.Order.ID, "transaction_id", txn.ID, "res_num", resNum, "amount", txn.Amount)
	return &Result{
		Message:       SuccessMessage,
		Link:          s.gateway.PaymentURL(token.Token),
		OrderID:       draft.Order.ID,
		TransactionID: txn.ID,
	}, nil
}

func checkoutResult(err error) string {
	if err == nil {
		return "ok"
	}
	if _, ok := sep.IsRequestError(err); ok {
		return "gateway_rejected"
	}
	if IsValidation(err) {
		return "invalid"
	}
	return "error"
}

// IsValidation reports whether err is caused by the caller's input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrAddressNotFound) ||
		errors.Is(err, order.ErrEmptyCart) ||
		errors.Is(err, order.ErrProductNotFound) ||
		errors.Is(err, order.ErrInvalidQuantity)
}

var Module = fx.Options(
	fx.Provide(New),
	fx.Provide(func(c *sep.Client) Gateway { return c }),
)
