package notification_handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/fatflowers/checkout/internal/app/service/reconcile"
	"github.com/fatflowers/checkout/pkg/types"
)

type CallbackParser interface {
	GetGateway(ctx context.Context) types.PaymentGateway
	GetNotificationTime(ctx context.Context) time.Time
	GetResNumber(ctx context.Context) string
	GetRefNumber(ctx context.Context) string
	GetState(ctx context.Context) string
	GetCallback(ctx context.Context) *reconcile.Callback
	GetData(ctx context.Context) any
}

type SamanCallbackParser struct {
	NotificationTime time.Time
	Callback         *reconcile.Callback
}

// GetSamanCallbackParser reads the gateway POST. The gateway posts a form;
// JSON bodies are accepted as well.
func GetSamanCallbackParser(c *gin.Context, now time.Time) (*SamanCallbackParser, error) {
	var cb reconcile.Callback
	var err error
	if strings.HasPrefix(c.ContentType(), binding.MIMEJSON) {
		err = c.ShouldBindJSON(&cb)
	} else {
		err = c.ShouldBindWith(&cb, binding.Form)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse gateway callback: %w", err)
	}
	cb.ResNum = strings.TrimSpace(cb.ResNum)
	cb.RefNum = strings.TrimSpace(cb.RefNum)
	cb.State = strings.TrimSpace(cb.State)
	return &SamanCallbackParser{NotificationTime: now, Callback: &cb}, nil
}

func (p *SamanCallbackParser) GetGateway(context.Context) types.PaymentGateway {
	return types.PaymentGatewaySamanBank
}

func (p *SamanCallbackParser) GetNotificationTime(context.Context) time.Time {
	return p.NotificationTime
}

func (p *SamanCallbackParser) GetResNumber(context.Context) string { return p.Callback.ResNum }

func (p *SamanCallbackParser) GetRefNumber(context.Context) string { return p.Callback.RefNum }

func (p *SamanCallbackParser) GetState(context.Context) string { return p.Callback.State }

func (p *SamanCallbackParser) GetCallback(context.Context) *reconcile.Callback { return p.Callback }

// GetData is the callback as stored in the notification log. Card data is
// already masked or hashed by the gateway.
func (p *SamanCallbackParser) GetData(context.Context) any { return p.Callback }
