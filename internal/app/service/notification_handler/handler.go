package notification_handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/checkout/internal/app/service/reconcile"
	"github.com/fatflowers/checkout/internal/models"
	"github.com/fatflowers/checkout/pkg/config"
	"github.com/fatflowers/checkout/pkg/logctx"
	"github.com/fatflowers/checkout/pkg/types"
)

type Reconciler interface {
	HandleCallback(ctx context.Context, cb *reconcile.Callback) *reconcile.Outcome
}

type LogWriter interface {
	Save(ctx context.Context, log *models.PaymentNotificationLog)
}

type CallbackHandler struct {
	cfg        *config.Config
	notifSvc   LogWriter
	reconciler Reconciler
	Logger     *zap.SugaredLogger
	now        func() time.Time
}

func NewCallbackHandler(cfg *config.Config, notif LogWriter, r Reconciler, log *zap.SugaredLogger) *CallbackHandler {
	return &CallbackHandler{cfg: cfg, notifSvc: notif, reconciler: r, Logger: log, now: time.Now}
}

// HandleCallback audits and reconciles one gateway callback and returns the
// front end URL the browser is redirected to.
func (h *CallbackHandler) HandleCallback(c *gin.Context) (string, *reconcile.Outcome) {
	ctx := c.Request.Context()
	log := logctx.FromGin(c, h.Logger)
	traceID := c.GetString(logctx.KeyTraceID)

	parser, err := GetSamanCallbackParser(c, h.now())
	if err != nil {
		log.Warnw("payment_callback_unparsable", "error", err)
		out := &reconcile.Outcome{Kind: reconcile.OutcomeInvalid, State: reconcile.StateInvalidCallback, Message: reconcile.MessageForState(reconcile.StateInvalidCallback)}
		h.notifSvc.Save(ctx, &models.PaymentNotificationLog{
			Gateway:          string(types.PaymentGatewaySamanBank),
			TraceID:          traceID,
			NotificationTime: h.now(),
			Data:             datatypes.JSON(`{}`),
			Result:           resultJSON(out, err),
			Status:           models.PaymentNotificationLogStatusHandleFailed,
		})
		return h.redirect(log, out), out
	}

	dataBytes, _ := json.Marshal(parser.GetData(ctx))
	entry := func(status models.PaymentNotificationLogStatus, at time.Time, result *datatypes.JSON) *models.PaymentNotificationLog {
		return &models.PaymentNotificationLog{
			Gateway:          string(parser.GetGateway(ctx)),
			TraceID:          traceID,
			ResNumber:        parser.GetResNumber(ctx),
			RefNumber:        parser.GetRefNumber(ctx),
			State:            parser.GetState(ctx),
			NotificationTime: at,
			Data:             datatypes.JSON(dataBytes),
			Result:           result,
			Status:           status,
		}
	}

	h.notifSvc.Save(ctx, entry(models.PaymentNotificationLogStatusReceived, parser.GetNotificationTime(ctx), nil))

	out := h.reconciler.HandleCallback(ctx, parser.GetCallback(ctx))

	status := models.PaymentNotificationLogStatusHandled
	if out.Kind == reconcile.OutcomeError {
		status = models.PaymentNotificationLogStatusHandleFailed
	}
	h.notifSvc.Save(ctx, entry(status, h.now(), resultJSON(out, nil)))

	return h.redirect(log, out), out
}

func (h *CallbackHandler) redirect(log *zap.SugaredLogger, out *reconcile.Outcome) string {
	link, err := out.RedirectURL(h.cfg.Frontend.CallbackURL)
	if err != nil {
		log.Errorw("payment_callback_bad_frontend_url", "url", h.cfg.Frontend.CallbackURL, "error", err)
		return "/"
	}
	return link
}

func resultJSON(out *reconcile.Outcome, err error) *datatypes.JSON {
	res := map[string]any{
		"outcome":        out.Kind,
		"state":          out.State,
		"success":        out.Success,
		"order_id":       out.OrderID,
		"transaction_id": out.TransactionID,
	}
	if out.ResultCode != nil {
		res["result_code"] = *out.ResultCode
	}
	if err != nil {
		res["error"] = err.Error()
	}
	b, _ := json.Marshal(res)
	j := datatypes.JSON(b)
	return &j
}

var Module = fx.Options(
	fx.Provide(
		NewCallbackHandler,
		func(e *reconcile.Engine) Reconciler { return e },
	),
)
