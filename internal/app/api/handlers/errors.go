package handlers

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fatflowers/checkout/pkg/logctx"
	"github.com/fatflowers/checkout/pkg/response"
)

func fail(c *gin.Context, code response.APIResponseCode, msg string) {
	c.JSON(response.HTTPStatus(code), response.ErrorMsg(code, msg))
}

func ok[T any](c *gin.Context, data T) {
	c.JSON(response.HTTPStatus(response.APIResponseCodeOK), response.OKT(data))
}

// reqLog falls back to the global logger on routes without RequestLoggerMiddleware.
func reqLog(c *gin.Context) *zap.SugaredLogger {
	return logctx.FromGin(c, zap.S())
}
