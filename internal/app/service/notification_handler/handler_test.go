package notification_handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/checkout/internal/app/service/reconcile"
	"github.com/fatflowers/checkout/internal/models"
	"github.com/fatflowers/checkout/pkg/config"
)

type memLogs struct {
	mu      sync.Mutex
	entries []*models.PaymentNotificationLog
}

func (m *memLogs) Save(_ context.Context, l *models.PaymentNotificationLog) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, l)
}

type stubReconciler struct {
	got *reconcile.Callback
	out *reconcile.Outcome
}

func (s *stubReconciler) HandleCallback(_ context.Context, cb *reconcile.Callback) *reconcile.Outcome {
	s.got = cb
	return s.out
}

func newTestHandler(out *reconcile.Outcome) (*CallbackHandler, *memLogs, *stubReconciler) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Frontend: config.FrontendConfig{CallbackURL: "https://shop.example/payment/result"}}
	logs := &memLogs{}
	rec := &stubReconciler{out: out}
	return NewCallbackHandler(cfg, logs, rec, zap.NewNop().Sugar()), logs, rec
}

func run(h *CallbackHandler, req *http.Request) (string, *reconcile.Outcome) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return h.HandleCallback(c)
}

func TestHandleCallback_FormBody(t *testing.T) {
	code := 0
	h, logs, rec := newTestHandler(&reconcile.Outcome{
		Kind: reconcile.OutcomeSucceeded, State: "OK", Success: true, Message: "ok",
		TraceNo: "100981", ResultCode: &code, OrderID: "order-1",
	})
	form := url.Values{"State": {"OK"}, "ResNum": {" res-1 "}, "RefNum": {"ref-1"}, "TraceNo": {"100981"}, "Rrn": {"1422"}}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/callback", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	link, out := run(h, req)
	assert.Equal(t, reconcile.OutcomeSucceeded, out.Kind)
	require.NotNil(t, rec.got)
	assert.Equal(t, "res-1", rec.got.ResNum)
	assert.Equal(t, "ref-1", rec.got.RefNum)
	assert.Equal(t, "1422", rec.got.Rrn)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "shop.example", u.Host)
	assert.Equal(t, "true", u.Query().Get("success"))
	assert.Equal(t, "100981", u.Query().Get("traceNo"))

	require.Len(t, logs.entries, 2)
	assert.Equal(t, models.PaymentNotificationLogStatusReceived, logs.entries[0].Status)
	assert.Equal(t, "res-1", logs.entries[0].ResNumber)
	assert.Equal(t, "SAMAN_BANK", logs.entries[0].Gateway)
	assert.Nil(t, logs.entries[0].Result)
	assert.Equal(t, models.PaymentNotificationLogStatusHandled, logs.entries[1].Status)
	require.NotNil(t, logs.entries[1].Result)
	assert.Contains(t, string(*logs.entries[1].Result), `"outcome":"succeeded"`)
}

func TestHandleCallback_JSONBody(t *testing.T) {
	h, _, rec := newTestHandler(&reconcile.Outcome{Kind: reconcile.OutcomeCanceled, State: "CanceledByUser"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/callback", strings.NewReader(`{"State":"CanceledByUser","ResNum":"res-1"}`))
	req.Header.Set("Content-Type", "application/json")

	link, _ := run(h, req)
	require.NotNil(t, rec.got)
	assert.Equal(t, "CanceledByUser", rec.got.State)
	assert.Contains(t, link, "State=CanceledByUser")
}

func TestHandleCallback_EngineErrorIsLoggedAsFailed(t *testing.T) {
	h, logs, _ := newTestHandler(&reconcile.Outcome{Kind: reconcile.OutcomeError, State: reconcile.StateInternalError})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/callback", strings.NewReader("State=OK&ResNum=r&RefNum=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	run(h, req)
	require.Len(t, logs.entries, 2)
	assert.Equal(t, models.PaymentNotificationLogStatusHandleFailed, logs.entries[1].Status)
}

func TestHandleCallback_UnparsableBody(t *testing.T) {
	h, logs, rec := newTestHandler(nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/callback", strings.NewReader(`{"State":`))
	req.Header.Set("Content-Type", "application/json")

	link, out := run(h, req)
	assert.Nil(t, rec.got)
	assert.Equal(t, reconcile.OutcomeInvalid, out.Kind)
	assert.Contains(t, link, "State=InvalidCallback")
	require.Len(t, logs.entries, 1)
	assert.Equal(t, models.PaymentNotificationLogStatusHandleFailed, logs.entries[0].Status)
}
