package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/checkout/internal/app/repository"
	"github.com/fatflowers/checkout/internal/app/repository/memrepo"
	"github.com/fatflowers/checkout/internal/models"
	"github.com/fatflowers/checkout/internal/platform/events"
	"github.com/fatflowers/checkout/internal/platform/sep"
	"github.com/fatflowers/checkout/pkg/config"
	"github.com/fatflowers/checkout/pkg/metrics"
	"github.com/fatflowers/checkout/pkg/types"
)

type stubVerifier struct {
	mu       sync.Mutex
	calls    int
	resp     sep.VerifyResponse
	err      error
	onVerify func()
}

func (v *stubVerifier) VerifyTransaction(_ context.Context, ref types.RefNumber) (*sep.VerifyResult, error) {
	if v.onVerify != nil {
		v.onVerify()
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.calls++
	req, _ := json.Marshal(sep.VerifyRequest{RefNum: ref.String(), TerminalNumber: 1234})
	if v.err != nil {
		return &sep.VerifyResult{RawRequest: req}, v.err
	}
	raw, _ := json.Marshal(v.resp)
	return &sep.VerifyResult{Response: v.resp, RawRequest: req, RawResponse: raw}, nil
}

func (v *stubVerifier) ToGatewayAmount(amount int64) int64 { return amount * 10 }

type memLocker struct {
	mu    sync.Mutex
	held  map[string]string
	down  bool
	taken int
}

func (l *memLocker) AcquireCallbackLock(_ context.Context, ref, owner string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.down {
		return true, errors.New("redis down")
	}
	if l.held == nil {
		l.held = map[string]string{}
	}
	if _, ok := l.held[ref]; ok {
		return false, nil
	}
	l.held[ref] = owner
	l.taken++
	return true, nil
}

func (l *memLocker) ReleaseCallbackLock(_ context.Context, ref, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[ref] == owner {
		delete(l.held, ref)
	}
	return nil
}

type recorder struct {
	mu       sync.Mutex
	statuses map[string]string
	events   []*events.Envelope
}

func (r *recorder) SetOrderStatus(_ context.Context, orderID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.statuses == nil {
		r.statuses = map[string]string{}
	}
	r.statuses[orderID] = status
	return nil
}

func (r *recorder) Publish(_ context.Context, _ string, env *events.Envelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, env)
	return nil
}

type fixture struct {
	engine   *Engine
	repo     *memrepo.Repo
	verifier *stubVerifier
	locker   *memLocker
	rec      *recorder
}

const (
	resNum = "0190f1a2b3c4d5e6f708192a3b4c5d6e"
	refNum = "GmshtyjwKSu5lZYb9hQX2+Zr0Ll1Jfak"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := memrepo.New()
	f := &fixture{
		repo:     repo,
		verifier: &stubVerifier{resp: successResponse()},
		locker:   &memLocker{},
		rec:      &recorder{},
	}
	f.engine = New(Params{
		Repo:      repo,
		Verifier:  f.verifier,
		Locker:    f.locker,
		Status:    f.rec,
		Publisher: f.rec,
		Log:       zap.NewNop().Sugar(),
	})
	ctx := context.Background()
	require.NoError(t, repo.CreateOrder(ctx, &models.Order{
		ID: "order-1", UserID: "u1", ShippingInfoID: "ship-1",
		TotalPrice: 200000, FinalPrice: 180000, Status: types.OrderStatusPending,
	}))
	require.NoError(t, repo.CreateTransaction(ctx, &models.Transaction{
		ID: "txn-1", UserID: "u1", OrderID: "order-1", Amount: 180000,
		Type: types.TransactionTypePurchase, Status: types.TransactionStatusPending,
	}))
	require.NoError(t, repo.CreatePayment(ctx, &models.Payment{
		ID: "pay-1", UserID: "u1", TransactionID: "txn-1",
		Gateway: types.PaymentGatewaySamanBank, ResNumber: resNum, Token: "tok-1",
	}))
	return f
}

func successResponse() sep.VerifyResponse {
	return sep.VerifyResponse{
		TransactionDetail: sep.TransactionDetail{RRN: "14226761817", RefNum: refNum, StraceNo: "100981", AffectiveAmount: 1800000},
		ResultCode:        0,
		ResultDescription: "عملیات با موفقیت انجام شد",
		Success:           true,
	}
}

func okCallback() *Callback {
	return &Callback{State: StateOK, ResNum: resNum, RefNum: refNum, TraceNo: "100981", Rrn: "14226761817", Amount: "1800000"}
}

func (f *fixture) state(t *testing.T) (*models.Order, *models.Transaction, *models.Payment) {
	t.Helper()
	ctx := context.Background()
	o, err := f.repo.GetOrder(ctx, "order-1")
	require.NoError(t, err)
	txn, err := f.repo.GetTransaction(ctx, "txn-1")
	require.NoError(t, err)
	p, err := f.repo.GetPaymentByTransactionID(ctx, "txn-1")
	require.NoError(t, err)
	return o, txn, p
}

func TestHandleCallback_VerifiedSuccess(t *testing.T) {
	f := newFixture(t)

	out := f.engine.HandleCallback(context.Background(), okCallback())
	assert.Equal(t, OutcomeSucceeded, out.Kind)
	assert.True(t, out.Success)
	assert.Equal(t, StateOK, out.State)
	require.NotNil(t, out.ResultCode)
	assert.Equal(t, 0, *out.ResultCode)

	o, txn, p := f.state(t)
	assert.Equal(t, types.OrderStatusPaid, o.Status)
	assert.Equal(t, types.TransactionStatusSuccessful, txn.Status)
	require.NotNil(t, txn.FinishedAt)
	require.NotNil(t, txn.TraceNo)
	assert.Equal(t, "100981", *txn.TraceNo)
	require.NotNil(t, txn.Rrn)
	assert.Equal(t, "14226761817", *txn.Rrn)
	require.NotNil(t, p.RefNumber)
	assert.Equal(t, types.RefNumber(refNum), *p.RefNumber)
	assert.NotEmpty(t, p.PaymentCallback)
	assert.NotEmpty(t, p.VerifyRequest)
	assert.NotEmpty(t, p.VerifyResponse)

	logs := f.repo.TransactionLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, types.TransactionChangeReasonCallback, logs[0].Reason)
	assert.Equal(t, types.TransactionStatusPending, logs[0].Before.Data().Status)
	assert.Equal(t, types.TransactionStatusSuccessful, logs[0].After.Data().Status)

	assert.Equal(t, "PAID", f.rec.statuses["order-1"])
	require.Len(t, f.rec.events, 1)
	payload, err := events.UnwrapPayload[events.PaymentReconciledPayload](f.rec.events[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, "SUCCESSFUL", payload.TransactionStatus)
	assert.Equal(t, refNum, payload.RefNumber)
	assert.Empty(t, f.locker.held)
}

func TestHandleCallback_VerifiedFailure(t *testing.T) {
	f := newFixture(t)
	f.verifier.resp = sep.VerifyResponse{ResultCode: -2, ResultDescription: "تراکنش یافت نشد", Success: false}

	out := f.engine.HandleCallback(context.Background(), okCallback())
	assert.Equal(t, OutcomeFailed, out.Kind)
	assert.False(t, out.Success)
	assert.Equal(t, messageVerifyFailed, out.Message)
	require.NotNil(t, out.ResultCode)
	assert.Equal(t, -2, *out.ResultCode)

	o, txn, _ := f.state(t)
	assert.Equal(t, types.OrderStatusCanceled, o.Status)
	assert.Equal(t, types.TransactionStatusFailed, txn.Status)
	assert.NotNil(t, txn.FinishedAt)
}

func TestHandleCallback_VerifiedAmountMismatchFails(t *testing.T) {
	f := newFixture(t)
	resp := successResponse()
	resp.TransactionDetail.AffectiveAmount = 1000
	f.verifier.resp = resp

	out := f.engine.HandleCallback(context.Background(), okCallback())
	assert.Equal(t, OutcomeFailed, out.Kind)
	assert.False(t, out.Success)

	o, txn, _ := f.state(t)
	assert.Equal(t, types.OrderStatusCanceled, o.Status)
	assert.Equal(t, types.TransactionStatusFailed, txn.Status)

	logs := f.repo.TransactionLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, "affective_amount", logs[0].Extra["verify_mismatch"])
}

func TestHandleCallback_VerifiedOriginalAmountMismatchFails(t *testing.T) {
	f := newFixture(t)
	resp := successResponse()
	resp.TransactionDetail.OrginalAmount = 1000
	f.verifier.resp = resp

	out := f.engine.HandleCallback(context.Background(), okCallback())
	assert.Equal(t, OutcomeFailed, out.Kind)

	o, _, _ := f.state(t)
	assert.Equal(t, types.OrderStatusCanceled, o.Status)
}

func TestHandleCallback_VerifiedForeignRefNumFails(t *testing.T) {
	f := newFixture(t)
	resp := successResponse()
	resp.TransactionDetail.RefNum = "SomeOtherReceipt0000000000000000"
	f.verifier.resp = resp

	out := f.engine.HandleCallback(context.Background(), okCallback())
	assert.Equal(t, OutcomeFailed, out.Kind)
	assert.False(t, out.Success)

	o, txn, _ := f.state(t)
	assert.Equal(t, types.OrderStatusCanceled, o.Status)
	assert.Equal(t, types.TransactionStatusFailed, txn.Status)
	assert.Equal(t, "CANCELED", f.rec.statuses["order-1"])

	logs := f.repo.TransactionLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, "ref_num", logs[0].Extra["verify_mismatch"])
}

func TestHandleCallback_NotOKWhileVerificationPendingKeepsState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifier.err = &sep.GatewayVerifyError{Err: context.DeadlineExceeded}
	require.Equal(t, OutcomeVerificationPending, f.engine.HandleCallback(ctx, okCallback()).Kind)

	out := f.engine.HandleCallback(ctx, &Callback{State: StateFailed, ResNum: resNum})
	assert.Equal(t, OutcomeVerificationPending, out.Kind)
	assert.Equal(t, "txn-1", out.TransactionID)
	assert.Equal(t, 1, f.verifier.calls)

	o, txn, _ := f.state(t)
	assert.Equal(t, types.OrderStatusPending, o.Status)
	assert.Equal(t, types.TransactionStatusVerificationPending, txn.Status)
	assert.Len(t, f.repo.TransactionLogs(), 1)

	// verify still settles it afterwards
	f.verifier.err = nil
	out, err := f.engine.Reverify(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, out.Kind)
}

func TestHandleCallback_CanceledByUser(t *testing.T) {
	f := newFixture(t)
	cb := &Callback{State: StateCanceledByUser, ResNum: resNum}

	out := f.engine.HandleCallback(context.Background(), cb)
	assert.Equal(t, OutcomeCanceled, out.Kind)
	assert.Equal(t, MessageForState(StateCanceledByUser), out.Message)
	assert.Nil(t, out.ResultCode)
	assert.Zero(t, f.verifier.calls)

	o, txn, p := f.state(t)
	assert.Equal(t, types.OrderStatusCanceled, o.Status)
	assert.Equal(t, types.TransactionStatusFailed, txn.Status)
	assert.NotEmpty(t, p.PaymentCallback)
	assert.Nil(t, p.RefNumber)
	assert.Empty(t, p.VerifyRequest)
}

func TestHandleCallback_ReplayIsDuplicate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first := f.engine.HandleCallback(ctx, okCallback())
	require.Equal(t, OutcomeSucceeded, first.Kind)
	_, before, _ := f.state(t)

	second := f.engine.HandleCallback(ctx, okCallback())
	assert.Equal(t, OutcomeDuplicate, second.Kind)
	assert.Equal(t, StateRefNumAlreadyExist, second.State)
	assert.False(t, second.Success)
	assert.Equal(t, 1, f.verifier.calls)

	_, after, _ := f.state(t)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	assert.Len(t, f.repo.TransactionLogs(), 1)
	assert.Len(t, f.rec.events, 1)
}

func TestHandleCallback_RefNumUsedByAnotherPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ref := types.RefNumber(refNum)
	require.NoError(t, f.repo.CreateOrder(ctx, &models.Order{ID: "order-2", UserID: "u2", ShippingInfoID: "ship-2", Status: types.OrderStatusPaid}))
	require.NoError(t, f.repo.CreateTransaction(ctx, &models.Transaction{ID: "txn-2", UserID: "u2", OrderID: "order-2", Status: types.TransactionStatusSuccessful}))
	require.NoError(t, f.repo.CreatePayment(ctx, &models.Payment{ID: "pay-2", UserID: "u2", TransactionID: "txn-2", ResNumber: "other-res", RefNumber: &ref}))

	out := f.engine.HandleCallback(ctx, okCallback())
	assert.Equal(t, OutcomeDuplicate, out.Kind)
	assert.Zero(t, f.verifier.calls)

	o, txn, _ := f.state(t)
	assert.Equal(t, types.OrderStatusPending, o.Status)
	assert.Equal(t, types.TransactionStatusPending, txn.Status)
}

func TestHandleCallback_InFlightLockIsDuplicate(t *testing.T) {
	f := newFixture(t)
	f.locker.held = map[string]string{refNum: "other-request"}

	out := f.engine.HandleCallback(context.Background(), okCallback())
	assert.Equal(t, OutcomeDuplicate, out.Kind)
	assert.Zero(t, f.verifier.calls)
}

func TestHandleCallback_ExpiredLockTakenOverIsNotReleased(t *testing.T) {
	f := newFixture(t)
	f.verifier.onVerify = func() {
		f.locker.mu.Lock()
		f.locker.held[refNum] = "later-delivery"
		f.locker.mu.Unlock()
	}

	out := f.engine.HandleCallback(context.Background(), okCallback())
	assert.Equal(t, OutcomeSucceeded, out.Kind)
	assert.Equal(t, "later-delivery", f.locker.held[refNum])
}

func TestHandleCallback_LockUnavailableStillReconciles(t *testing.T) {
	f := newFixture(t)
	f.locker.down = true

	out := f.engine.HandleCallback(context.Background(), okCallback())
	assert.Equal(t, OutcomeSucceeded, out.Kind)
}

func TestHandleCallback_VerifyUnreachableLeavesOrderPending(t *testing.T) {
	f := newFixture(t)
	f.verifier.err = &sep.GatewayVerifyError{Err: context.DeadlineExceeded}

	out := f.engine.HandleCallback(context.Background(), okCallback())
	assert.Equal(t, OutcomeVerificationPending, out.Kind)
	assert.Equal(t, StateVerificationPending, out.State)
	assert.Nil(t, out.ResultCode)

	o, txn, p := f.state(t)
	assert.Equal(t, types.OrderStatusPending, o.Status)
	assert.Equal(t, types.TransactionStatusVerificationPending, txn.Status)
	assert.Nil(t, txn.FinishedAt)
	require.NotNil(t, p.RefNumber)
	assert.NotEmpty(t, p.VerifyRequest)
	assert.Empty(t, p.VerifyResponse)

	logs := f.repo.TransactionLogs()
	require.Len(t, logs, 1)
	assert.Equal(t, types.TransactionChangeReasonVerifyFailed, logs[0].Reason)
}

func TestHandleCallback_RedeliveryWhilePendingRetriesVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifier.err = &sep.GatewayVerifyError{Err: errors.New("connection reset")}
	require.Equal(t, OutcomeVerificationPending, f.engine.HandleCallback(ctx, okCallback()).Kind)

	f.verifier.err = nil
	out := f.engine.HandleCallback(ctx, okCallback())
	assert.Equal(t, OutcomeSucceeded, out.Kind)
	assert.Equal(t, 2, f.verifier.calls)

	o, txn, _ := f.state(t)
	assert.Equal(t, types.OrderStatusPaid, o.Status)
	assert.Equal(t, types.TransactionStatusSuccessful, txn.Status)
}

func TestHandleCallback_WriteFailureRollsBackEverything(t *testing.T) {
	f := newFixture(t)
	f.repo.Fail("SaveOrder", errors.New("connection lost"))

	out := f.engine.HandleCallback(context.Background(), okCallback())
	assert.Equal(t, OutcomeError, out.Kind)
	assert.False(t, out.Success)

	o, txn, p := f.state(t)
	assert.Equal(t, types.OrderStatusPending, o.Status)
	assert.Equal(t, types.TransactionStatusPending, txn.Status)
	assert.Nil(t, p.RefNumber)
	assert.Empty(t, p.PaymentCallback)
	assert.Empty(t, f.repo.TransactionLogs())
	assert.Empty(t, f.rec.events)
	assert.Empty(t, f.rec.statuses)

	// the gateway retry after recovery still settles the payment
	f.repo.Fail("SaveOrder", nil)
	out = f.engine.HandleCallback(context.Background(), okCallback())
	assert.Equal(t, OutcomeSucceeded, out.Kind)
}

func TestHandleCallback_UniqueViolationIsDuplicate(t *testing.T) {
	f := newFixture(t)
	f.repo.Fail("SavePayment", repository.ErrDuplicate)

	out := f.engine.HandleCallback(context.Background(), okCallback())
	assert.Equal(t, OutcomeDuplicate, out.Kind)

	_, txn, _ := f.state(t)
	assert.Equal(t, types.TransactionStatusPending, txn.Status)
}

func TestHandleCallback_UnknownResNum(t *testing.T) {
	f := newFixture(t)
	cb := okCallback()
	cb.ResNum = "0190ffffffffffffffffffffffffffff"

	out := f.engine.HandleCallback(context.Background(), cb)
	assert.Equal(t, OutcomeNotFound, out.Kind)
	assert.Zero(t, f.verifier.calls)
}

func TestHandleCallback_MalformedKeysAreRejectedBeforeLookup(t *testing.T) {
	f := newFixture(t)

	cb := okCallback()
	cb.ResNum = "'; drop table payment; --"
	assert.Equal(t, OutcomeInvalid, f.engine.HandleCallback(context.Background(), cb).Kind)

	cb = okCallback()
	cb.RefNum = ""
	assert.Equal(t, OutcomeInvalid, f.engine.HandleCallback(context.Background(), cb).Kind)

	assert.Zero(t, f.repo.Calls("GetPaymentByResNumber"))
	assert.Zero(t, f.verifier.calls)
}

func TestReverify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifier.err = &sep.GatewayVerifyError{Err: errors.New("timeout")}
	require.Equal(t, OutcomeVerificationPending, f.engine.HandleCallback(ctx, okCallback()).Kind)

	f.verifier.err = nil
	out, err := f.engine.Reverify(ctx, "txn-1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, out.Kind)

	o, txn, _ := f.state(t)
	assert.Equal(t, types.OrderStatusPaid, o.Status)
	assert.Equal(t, types.TransactionStatusSuccessful, txn.Status)
	require.NotNil(t, txn.TraceNo)
	assert.Equal(t, "100981", *txn.TraceNo)

	logs := f.repo.TransactionLogs()
	require.Len(t, logs, 2)
	assert.Equal(t, types.TransactionChangeReasonReverify, logs[1].Reason)

	_, err = f.engine.Reverify(ctx, "txn-1")
	assert.ErrorIs(t, err, ErrNotVerificationPending)
	_, err = f.engine.Reverify(ctx, "missing")
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestReverifier_RunOncePicksOldPendingTransactions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.verifier.err = &sep.GatewayVerifyError{Err: errors.New("timeout")}
	require.Equal(t, OutcomeVerificationPending, f.engine.HandleCallback(ctx, okCallback()).Kind)
	f.verifier.err = nil

	cfg := &config.Config{Reconcile: config.ReconcileConfig{RetryInterval: time.Minute, RetryMinAge: time.Minute, RetryBatch: 5}}
	r := NewReverifier(f.engine, f.repo, cfg, zap.NewNop().Sugar())

	assert.Equal(t, 0, r.RunOnce(ctx), "too young to retry")

	f.engine.now = func() time.Time { return time.Now().Add(time.Hour) }
	assert.Equal(t, 1, r.RunOnce(ctx))
	_, txn, _ := f.state(t)
	assert.Equal(t, types.TransactionStatusSuccessful, txn.Status)
}

func TestReverifier_DisabledWithoutInterval(t *testing.T) {
	f := newFixture(t)
	r := NewReverifier(f.engine, f.repo, &config.Config{}, zap.NewNop().Sugar())
	assert.False(t, r.Enabled())
	r.Start()
	require.NoError(t, r.Stop(context.Background()))
}

func TestOutcome_RedirectURL(t *testing.T) {
	code := 0
	out := &Outcome{
		State: StateOK, Success: true, Message: MessageForState(StateOK),
		TraceNo: "100981", Rrn: "14226761817", ResultCode: &code, ResultDescription: "ok",
		OrderID: "order-1",
	}
	link, err := out.RedirectURL("https://shop.example/payment/result?lang=fa")
	require.NoError(t, err)

	u, err := url.Parse(link)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "fa", q.Get("lang"))
	assert.Equal(t, "OK", q.Get("State"))
	assert.Equal(t, "true", q.Get("success"))
	assert.Equal(t, "100981", q.Get("traceNo"))
	assert.Equal(t, "14226761817", q.Get("Rrn"))
	assert.Equal(t, "0", q.Get("resultCode"))
	assert.Equal(t, MessageForState(StateOK), q.Get("message"))

	dup := newOutcome(OutcomeDuplicate, StateRefNumAlreadyExist)
	link, err = dup.RedirectURL("https://shop.example/payment/result")
	require.NoError(t, err)
	u, _ = url.Parse(link)
	assert.Equal(t, "RefNumAlreadyExist", u.Query().Get("State"))
	assert.Equal(t, "false", u.Query().Get("success"))
	assert.False(t, u.Query().Has("resultCode"))
}

func TestHandleCallback_StateLabelIsBounded(t *testing.T) {
	f := newFixture(t)
	reg := prometheus.NewRegistry()
	f.engine.metrics = metrics.NewBusiness(reg)

	for i := 0; i < 20; i++ {
		f.engine.HandleCallback(context.Background(), &Callback{State: fmt.Sprintf("junk-%d", i), ResNum: "bad res num"})
	}

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 1)
	require.Len(t, families[0].GetMetric(), 1)
	for _, l := range families[0].GetMetric()[0].GetLabel() {
		if l.GetName() == "state" {
			assert.Equal(t, "other", l.GetValue())
		}
	}
}

func TestMetricState(t *testing.T) {
	assert.Equal(t, StateOK, MetricState(StateOK))
	assert.Equal(t, StateCanceledByUser, MetricState(StateCanceledByUser))
	assert.Equal(t, "other", MetricState("junk-123"))
	assert.Equal(t, "other", MetricState(""))
	assert.Equal(t, "other", MetricState(StateInternalError))
}

func TestMessageForState_Unknown(t *testing.T) {
	assert.Equal(t, messageUnknown, MessageForState("SomethingNew"))
	for _, s := range []string{StateFailed, StateSessionIsNull, StateInvalidParameters, StateMerchantIPAddressIsInvalid, StateTokenNotFound, StateTokenRequired, StateTerminalNotFound} {
		assert.NotEqual(t, messageUnknown, MessageForState(s), s)
	}
}
