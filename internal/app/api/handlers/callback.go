package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	nh "github.com/fatflowers/checkout/internal/app/service/notification_handler"
)

// @Summary      Payment gateway callback
// @Description  Receives the gateway POST after payment, reconciles it and redirects the browser to the shop.
// @Tags         Payment
// @Accept       x-www-form-urlencoded
// @Accept       json
// @Success      302
// @Router       /api/v1/payment/callback [post]
func ApiPaymentCallback(h *nh.CallbackHandler) gin.HandlerFunc {
	return func(c *gin.Context) {
		link, _ := h.HandleCallback(c)
		c.Redirect(http.StatusFound, link)
	}
}

func RegisterCallbackRoutes(r gin.IRouter, h *nh.CallbackHandler) {
	r.POST("/callback", ApiPaymentCallback(h))
}
