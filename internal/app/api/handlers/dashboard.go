package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/checkout/internal/app/service/statistics"
	"github.com/fatflowers/checkout/pkg/response"
)

type IncomeStatistics interface {
	GetIncomeStatistic(ctx context.Context, req *statistics.IncomeStatisticRequest) (*statistics.IncomeStatisticResponse, error)
}

// @Summary      Income Statistic (Admin)
// @Description  Total, today and month income plus a per-day diagram for one month, over successful purchases.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body statistics.IncomeStatisticRequest true "Statistic request"
// @Success      200  {object}  handlers.RespIncomeStatistic
// @Router       /api/v1/admin/dashboard/income [post]
func ApiAdminIncomeStatistic(svc IncomeStatistics) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statistics.IncomeStatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, response.APIResponseCodeBadRequest, err.Error())
			return
		}
		if err := req.Validate(); err != nil {
			fail(c, response.APIResponseCodeBadRequest, err.Error())
			return
		}
		res, err := svc.GetIncomeStatistic(c.Request.Context(), &req)
		if err != nil {
			reqLog(c).Errorw("income_statistic_failed", "error", err)
			fail(c, response.APIResponseCodeError, "failed to compute statistics")
			return
		}
		ok(c, res)
	}
}
