package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fatflowers/checkout/pkg/response"
)

// HealthCheck is one dependency probed by /healthz.
type HealthCheck struct {
	Name string
	Fn   func(ctx context.Context) error
}

// @Summary      Health check
// @Description  Returns service status and pings the database
// @Tags         System
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /healthz [get]
func Healthz(checks ...HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok"}
		healthy := true
		for _, chk := range checks {
			if err := chk.Fn(ctx); err != nil {
				status[chk.Name] = err.Error()
				healthy = false
				continue
			}
			status[chk.Name] = "ok"
		}
		if !healthy {
			status["status"] = "degraded"
			c.JSON(http.StatusServiceUnavailable, response.ErrorT(response.APIResponseCodeError, status))
			return
		}
		c.JSON(http.StatusOK, response.OKT(status))
	}
}

func RegisterHealthRoutes(r gin.IRouter, checks ...HealthCheck) {
	r.GET("/healthz", Healthz(checks...))
}
