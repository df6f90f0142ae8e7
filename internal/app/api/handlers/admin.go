package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/checkout/internal/app/service/order"
	"github.com/fatflowers/checkout/internal/app/service/reconcile"
	"github.com/fatflowers/checkout/internal/app/service/transaction"
	"github.com/fatflowers/checkout/internal/models"
	"github.com/fatflowers/checkout/pkg/response"
)

type Reverifier interface {
	Reverify(ctx context.Context, transactionID string) (*reconcile.Outcome, error)
}

type ShippingUpdater interface {
	UpdateShippingInfo(ctx context.Context, orderID string, req *order.UpdateShippingInfoRequest) (*models.ShippingInfo, error)
}

type AdminOrderService interface {
	OrderReader
	ShippingUpdater
}

type ReverifyResponse struct {
	Outcome       reconcile.OutcomeKind `json:"outcome"`
	State         string                `json:"state"`
	Success       bool                  `json:"success"`
	Message       string                `json:"message"`
	TransactionID string                `json:"transaction_id"`
	OrderID       string                `json:"order_id"`
}

// @Summary      List Transactions (Admin)
// @Description  Retrieves a paginated and filterable list of all transactions.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body transaction.ScanTransactionsRequest true "List request"
// @Success      200  {object}  handlers.RespAdminListTransactions
// @Router       /api/v1/admin/transactions/list [post]
func ApiAdminListTransactions(svc TransactionReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req transaction.ScanTransactionsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, response.APIResponseCodeBadRequest, err.Error())
			return
		}
		res, err := svc.ScanTransactions(c.Request.Context(), &req)
		if err != nil {
			fail(c, response.APIResponseCodeBadRequest, err.Error())
			return
		}
		ok(c, res)
	}
}

// @Summary      Get Transaction (Admin)
// @Description  Transaction with its payment, including raw gateway payloads.
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "transaction id"
// @Success      200  {object}  handlers.RespAdminTransaction
// @Failure      404  {object}  handlers.RespOK
// @Router       /api/v1/admin/transactions/{id} [get]
func ApiAdminGetTransaction(svc TransactionReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := svc.GetTransaction(c.Request.Context(), c.Param("id"), "")
		if err != nil {
			if errors.Is(err, transaction.ErrNotFound) {
				fail(c, response.APIResponseCodeNotFound, err.Error())
				return
			}
			reqLog(c).Errorw("admin_get_transaction_failed", "error", err)
			fail(c, response.APIResponseCodeError, "failed to get transaction")
			return
		}
		ok(c, t)
	}
}

// @Summary      Reverify Transaction (Admin)
// @Description  Re-runs gateway verification for a transaction in VERIFICATION_PENDING.
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "transaction id"
// @Success      200  {object}  handlers.RespReverify
// @Failure      404  {object}  handlers.RespOK
// @Failure      422  {object}  handlers.RespOK
// @Router       /api/v1/admin/transactions/{id}/reverify [post]
func ApiAdminReverifyTransaction(r Reverifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := r.Reverify(c.Request.Context(), c.Param("id"))
		if err != nil {
			switch {
			case errors.Is(err, reconcile.ErrTransactionNotFound):
				fail(c, response.APIResponseCodeNotFound, err.Error())
			case errors.Is(err, reconcile.ErrNotVerificationPending), errors.Is(err, reconcile.ErrMissingRefNumber):
				fail(c, response.APIResponseCodeUnprocessable, err.Error())
			default:
				reqLog(c).Errorw("admin_reverify_failed", "error", err)
				fail(c, response.APIResponseCodeError, "failed to reverify transaction")
			}
			return
		}
		ok(c, ReverifyResponse{
			Outcome:       out.Kind,
			State:         out.State,
			Success:       out.Success,
			Message:       out.Message,
			TransactionID: out.TransactionID,
			OrderID:       out.OrderID,
		})
	}
}

// @Summary      List Orders (Admin)
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body order.ScanOrdersRequest true "List request"
// @Success      200  {object}  handlers.RespListOrders
// @Router       /api/v1/admin/orders/list [post]
func ApiAdminListOrders(svc OrderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.ScanOrdersRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, response.APIResponseCodeBadRequest, err.Error())
			return
		}
		res, err := svc.ScanOrders(c.Request.Context(), &req)
		if err != nil {
			fail(c, response.APIResponseCodeBadRequest, err.Error())
			return
		}
		ok(c, res)
	}
}

// @Summary      Update Shipping Info (Admin)
// @Description  Advances the shipping status of a paid order and sets the tracking number.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path  string                           true  "order id"
// @Param        request  body  order.UpdateShippingInfoRequest  true  "Shipping update"
// @Success      200  {object}  handlers.RespShippingInfo
// @Failure      404  {object}  handlers.RespOK
// @Failure      422  {object}  handlers.RespOK
// @Router       /api/v1/admin/orders/{id}/shipping_info [patch]
func ApiAdminUpdateShippingInfo(svc ShippingUpdater) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req order.UpdateShippingInfoRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, response.APIResponseCodeBadRequest, err.Error())
			return
		}
		si, err := svc.UpdateShippingInfo(c.Request.Context(), c.Param("id"), &req)
		if err != nil {
			switch {
			case errors.Is(err, order.ErrNotFound):
				fail(c, response.APIResponseCodeNotFound, err.Error())
			case errors.Is(err, order.ErrInvalidShippingTransition), errors.Is(err, order.ErrShippingOnUnpaidOrder):
				fail(c, response.APIResponseCodeUnprocessable, err.Error())
			default:
				reqLog(c).Errorw("admin_update_shipping_failed", "error", err)
				fail(c, response.APIResponseCodeError, "failed to update shipping info")
			}
			return
		}
		ok(c, si)
	}
}

func RegisterAdminRoutes(r gin.IRouter, txns TransactionReader, rv Reverifier, orders AdminOrderService, stats IncomeStatistics) {
	r.POST("/transactions/list", ApiAdminListTransactions(txns))
	r.GET("/transactions/:id", ApiAdminGetTransaction(txns))
	r.POST("/transactions/:id/reverify", ApiAdminReverifyTransaction(rv))
	r.POST("/orders/list", ApiAdminListOrders(orders))
	r.PATCH("/orders/:id/shipping_info", ApiAdminUpdateShippingInfo(orders))
	r.POST("/dashboard/income", ApiAdminIncomeStatistic(stats))
}
