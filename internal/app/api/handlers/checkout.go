package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	mw "github.com/fatflowers/checkout/internal/app/api/middleware"
	"github.com/fatflowers/checkout/internal/app/service/checkout"
	"github.com/fatflowers/checkout/internal/app/service/order"
	"github.com/fatflowers/checkout/internal/platform/sep"
	"github.com/fatflowers/checkout/pkg/response"
)

const (
	msgEmptyCart        = "سبد خرید شما خالی است"
	msgAddressNotFound  = "آدرس انتخاب شده یافت نشد"
	msgProductMissing   = "یکی از محصولات سبد خرید دیگر موجود نیست"
	msgGatewayRejected  = "خطا در اتصال به درگاه پرداخت"
	msgCheckoutInternal = "خطا در ثبت سفارش، لطفا دوباره تلاش کنید"
)

type Checkouter interface {
	Checkout(ctx context.Context, userID string, req *checkout.Request) (*checkout.Result, error)
}

// @Summary      Checkout
// @Description  Turns the caller's cart into an order and returns the payment gateway link.
// @Tags         Payment
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body checkout.Request true "Checkout request"
// @Success      200  {object}  handlers.RespCheckout
// @Failure      400  {object}  handlers.RespOK
// @Failure      404  {object}  handlers.RespOK
// @Failure      422  {object}  handlers.RespOK
// @Router       /api/v1/checkout [post]
func ApiCheckout(svc Checkouter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkout.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, response.APIResponseCodeBadRequest, err.Error())
			return
		}

		if req.PhoneNumber == "" {
			if claims := mw.ClaimsFrom(c); claims != nil {
				req.PhoneNumber = claims.Phone
			}
		}

		res, err := svc.Checkout(c.Request.Context(), mw.UserID(c), &req)
		if err != nil {
			code, msg := checkoutError(err)
			if code == response.APIResponseCodeError {
				reqLog(c).Errorw("checkout_failed", "error", err)
			}
			fail(c, code, msg)
			return
		}
		ok(c, res)
	}
}

func checkoutError(err error) (response.APIResponseCode, string) {
	if gerr, isGateway := sep.IsRequestError(err); isGateway {
		if gerr.Description != "" {
			return response.APIResponseCodeBadRequest, gerr.Description
		}
		return response.APIResponseCodeBadRequest, msgGatewayRejected
	}
	switch {
	case errors.Is(err, checkout.ErrEmptyCart), errors.Is(err, order.ErrEmptyCart):
		return response.APIResponseCodeUnprocessable, msgEmptyCart
	case errors.Is(err, checkout.ErrAddressNotFound):
		return response.APIResponseCodeNotFound, msgAddressNotFound
	case errors.Is(err, order.ErrProductNotFound), errors.Is(err, order.ErrInvalidQuantity):
		return response.APIResponseCodeUnprocessable, msgProductMissing
	default:
		return response.APIResponseCodeError, msgCheckoutInternal
	}
}

func RegisterCheckoutRoutes(r gin.IRouter, svc Checkouter) {
	r.POST("/checkout", ApiCheckout(svc))
}
