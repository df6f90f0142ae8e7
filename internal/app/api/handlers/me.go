package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	mw "github.com/fatflowers/checkout/internal/app/api/middleware"
	"github.com/fatflowers/checkout/internal/app/service/order"
	"github.com/fatflowers/checkout/internal/app/service/transaction"
	"github.com/fatflowers/checkout/internal/models"
	"github.com/fatflowers/checkout/pkg/response"
	"github.com/fatflowers/checkout/pkg/types"
)

type TransactionReader interface {
	ScanTransactions(ctx context.Context, req *transaction.ScanTransactionsRequest) (*transaction.ScanTransactionsResponse, error)
	GetTransaction(ctx context.Context, id, userID string) (*models.Transaction, error)
}

type OrderReader interface {
	ScanOrders(ctx context.Context, req *order.ScanOrdersRequest) (*order.ScanOrdersResponse, error)
	GetOrder(ctx context.Context, id, userID string) (*models.Order, error)
}

// listQuery is the query string accepted by owner listings.
type listQuery struct {
	From      int    `form:"from"`
	Size      int    `form:"size"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order"`
	Status    string `form:"status"`
}

func (q *listQuery) filters(userID string) []*types.CommonFilter {
	fs := []*types.CommonFilter{{Field: "user_id", Operator: types.CommonFilterOperatorEq, Values: []any{userID}}}
	if q.Status != "" {
		fs = append(fs, &types.CommonFilter{Field: "status", Operator: types.CommonFilterOperatorEq, Values: []any{q.Status}})
	}
	return fs
}

// PaymentView is the part of a payment shown to its owner.
type PaymentView struct {
	Gateway   types.PaymentGateway `json:"gateway"`
	ResNumber string               `json:"res_number"`
	RefNumber string               `json:"ref_number,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

type TransactionView struct {
	ID         string                  `json:"id"`
	OrderID    string                  `json:"order_id"`
	Amount     int64                   `json:"amount"`
	Type       types.TransactionType   `json:"type"`
	Status     types.TransactionStatus `json:"status"`
	TraceNo    *string                 `json:"trace_no"`
	Rrn        *string                 `json:"rrn"`
	FinishedAt *time.Time              `json:"finished_at"`
	CreatedAt  time.Time               `json:"created_at"`
	Payment    *PaymentView            `json:"payment,omitempty"`
}

func toTransactionView(m *models.Transaction) *TransactionView {
	v := &TransactionView{
		ID:         m.ID,
		OrderID:    m.OrderID,
		Amount:     m.Amount,
		Type:       m.Type,
		Status:     m.Status,
		TraceNo:    m.TraceNo,
		Rrn:        m.Rrn,
		FinishedAt: m.FinishedAt,
		CreatedAt:  m.CreatedAt,
	}
	if p := m.Payment; p != nil {
		v.Payment = &PaymentView{Gateway: p.Gateway, ResNumber: p.ResNumber.String(), CreatedAt: p.CreatedAt}
		if p.RefNumber != nil {
			v.Payment.RefNumber = p.RefNumber.String()
		}
	}
	return v
}

type ListTransactionsResponse struct {
	Items []*TransactionView `json:"items"`
	Total int64              `json:"total"`
}

// @Summary      List my transactions
// @Tags         Me
// @Produce      json
// @Security     BearerAuth
// @Param        from        query  int     false  "offset"
// @Param        size        query  int     false  "page size"
// @Param        sort_by     query  string  false  "sort column"
// @Param        sort_order  query  string  false  "asc or desc"
// @Param        status      query  string  false  "transaction status"
// @Success      200  {object}  handlers.RespListTransactions
// @Router       /api/v1/me/transactions [get]
func ApiMyTransactions(svc TransactionReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q listQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			fail(c, response.APIResponseCodeBadRequest, err.Error())
			return
		}
		res, err := svc.ScanTransactions(c.Request.Context(), &transaction.ScanTransactionsRequest{
			Filters: q.filters(mw.UserID(c)), From: q.From, Size: q.Size, SortBy: q.SortBy, SortOrder: q.SortOrder,
		})
		if err != nil {
			fail(c, response.APIResponseCodeBadRequest, err.Error())
			return
		}
		ok(c, ListTransactionsResponse{
			Items: lo.Map(res.Items, func(t *models.Transaction, _ int) *TransactionView { return toTransactionView(t) }),
			Total: res.Total,
		})
	}
}

// @Summary      Get my transaction
// @Tags         Me
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "transaction id"
// @Success      200  {object}  handlers.RespTransaction
// @Failure      404  {object}  handlers.RespOK
// @Router       /api/v1/me/transactions/{id} [get]
func ApiMyTransaction(svc TransactionReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		t, err := svc.GetTransaction(c.Request.Context(), c.Param("id"), mw.UserID(c))
		if err != nil {
			if errors.Is(err, transaction.ErrNotFound) {
				fail(c, response.APIResponseCodeNotFound, err.Error())
				return
			}
			reqLog(c).Errorw("get_transaction_failed", "error", err)
			fail(c, response.APIResponseCodeError, "failed to get transaction")
			return
		}
		ok(c, toTransactionView(t))
	}
}

// @Summary      List my orders
// @Tags         Me
// @Produce      json
// @Security     BearerAuth
// @Param        from        query  int     false  "offset"
// @Param        size        query  int     false  "page size"
// @Param        sort_by     query  string  false  "sort column"
// @Param        sort_order  query  string  false  "asc or desc"
// @Param        status      query  string  false  "order status"
// @Success      200  {object}  handlers.RespListOrders
// @Router       /api/v1/me/orders [get]
func ApiMyOrders(svc OrderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q listQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			fail(c, response.APIResponseCodeBadRequest, err.Error())
			return
		}
		res, err := svc.ScanOrders(c.Request.Context(), &order.ScanOrdersRequest{
			Filters: q.filters(mw.UserID(c)), From: q.From, Size: q.Size, SortBy: q.SortBy, SortOrder: q.SortOrder,
		})
		if err != nil {
			fail(c, response.APIResponseCodeBadRequest, err.Error())
			return
		}
		ok(c, res)
	}
}

// @Summary      Get my order
// @Description  Order detail with items and shipping info.
// @Tags         Me
// @Produce      json
// @Security     BearerAuth
// @Param        id  path  string  true  "order id"
// @Success      200  {object}  handlers.RespOrder
// @Failure      404  {object}  handlers.RespOK
// @Router       /api/v1/me/orders/{id} [get]
func ApiMyOrder(svc OrderReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		o, err := svc.GetOrder(c.Request.Context(), c.Param("id"), mw.UserID(c))
		if err != nil {
			if errors.Is(err, order.ErrNotFound) {
				fail(c, response.APIResponseCodeNotFound, err.Error())
				return
			}
			reqLog(c).Errorw("get_order_failed", "error", err)
			fail(c, response.APIResponseCodeError, "failed to get order")
			return
		}
		ok(c, o)
	}
}

func RegisterMeRoutes(r gin.IRouter, txns TransactionReader, orders OrderReader) {
	r.GET("/transactions", ApiMyTransactions(txns))
	r.GET("/transactions/:id", ApiMyTransaction(txns))
	r.GET("/orders", ApiMyOrders(orders))
	r.GET("/orders/:id", ApiMyOrder(orders))
}
