// Package reconcile turns gateway callbacks into final transaction and order
// states. Every write of one callback happens in a single DB transaction.
package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fatflowers/checkout/internal/app/repository"
	"github.com/fatflowers/checkout/internal/models"
	"github.com/fatflowers/checkout/internal/platform/events"
	"github.com/fatflowers/checkout/internal/platform/sep"
	"github.com/fatflowers/checkout/pkg/logctx"
	"github.com/fatflowers/checkout/pkg/metrics"
	"github.com/fatflowers/checkout/pkg/tool"
	"github.com/fatflowers/checkout/pkg/types"
)

var (
	ErrNotVerificationPending = errors.New("transaction is not waiting for verification")
	ErrTransactionNotFound    = errors.New("transaction not found")
	ErrMissingRefNumber       = errors.New("payment has no gateway reference")

	errAlreadyFinal   = errors.New("transaction already final")
	errAwaitingVerify = errors.New("transaction is waiting for verification")
)

type Verifier interface {
	VerifyTransaction(ctx context.Context, refNum types.RefNumber) (*sep.VerifyResult, error)
	// ToGatewayAmount converts a stored amount into the unit the gateway reports.
	ToGatewayAmount(amount int64) int64
}

type Locker interface {
	AcquireCallbackLock(ctx context.Context, refNum, owner string) (bool, error)
	ReleaseCallbackLock(ctx context.Context, refNum, owner string) error
}

type StatusCache interface {
	SetOrderStatus(ctx context.Context, orderID, status string) error
}

type Publisher interface {
	Publish(ctx context.Context, key string, env *events.Envelope) error
}

// Callback is the gateway's POST back after the hosted payment page.
type Callback struct {
	MID              string `json:"MID" form:"MID"`
	TerminalID       string `json:"TerminalId" form:"TerminalId"`
	RefNum           string `json:"RefNum" form:"RefNum"`
	ResNum           string `json:"ResNum" form:"ResNum"`
	State            string `json:"State" form:"State"`
	Status           string `json:"Status" form:"Status"`
	TraceNo          string `json:"TraceNo" form:"TraceNo"`
	Amount           string `json:"Amount" form:"Amount"`
	AffectiveAmount  string `json:"AffectiveAmount" form:"AffectiveAmount"`
	Rrn              string `json:"Rrn" form:"Rrn"`
	SecurePan        string `json:"SecurePan" form:"SecurePan"`
	HashedCardNumber string `json:"HashedCardNumber" form:"HashedCardNumber"`
	Token            string `json:"Token" form:"Token"`
	Wage             string `json:"Wage" form:"Wage"`
}

type Engine struct {
	repo      repository.Repository
	verifier  Verifier
	locker    Locker
	status    StatusCache
	publisher Publisher
	metrics   *metrics.Business
	log       *zap.SugaredLogger
	now       func() time.Time
}

type Params struct {
	fx.In

	Repo      repository.Repository
	Verifier  Verifier
	Locker    Locker            `optional:"true"`
	Status    StatusCache       `optional:"true"`
	Publisher Publisher         `optional:"true"`
	Metrics   *metrics.Business `optional:"true"`
	Log       *zap.SugaredLogger
}

func New(p Params) *Engine {
	return &Engine{
		repo:      p.Repo,
		verifier:  p.Verifier,
		locker:    p.Locker,
		status:    p.Status,
		publisher: p.Publisher,
		metrics:   p.Metrics,
		log:       p.Log,
		now:       time.Now,
	}
}

// verdict is what the gateway told us about one payment.
type verdict int

const (
	verdictCanceled verdict = iota
	verdictPending
	verdictSucceeded
	verdictFailed
)

// change is the write set applied to one payment in one DB transaction.
type change struct {
	resNum   types.ResNumber
	refNum   types.RefNumber
	verdict  verdict
	reason   types.TransactionChangeReason
	callback []byte
	verify   *sep.VerifyResult
	state    string
	traceNo  string
	rrn      string
	mismatch string
}

// applied is the committed state after a change.
type applied struct {
	payment *models.Payment
	txn     *models.Transaction
	order   *models.Order
}

// HandleCallback reconciles one gateway callback. It never returns an error:
// every path resolves to an Outcome the caller renders as a redirect.
func (e *Engine) HandleCallback(ctx context.Context, cb *Callback) (out *Outcome) {
	log := logctx.FromCtx(ctx, e.log).With("res_num", cb.ResNum, "ref_num", cb.RefNum, "state", cb.State)
	defer func() {
		e.metrics.ObserveCallback(string(out.Kind), MetricState(cb.State))
		log.Infow("payment_callback_reconciled", "outcome", out.Kind, "order_id", out.OrderID, "transaction_id", out.TransactionID)
	}()

	resNum, err := types.ParseResNumber(cb.ResNum)
	if err != nil {
		log.Warnw("payment_callback_invalid_res_num", "error", err)
		return newOutcome(OutcomeInvalid, StateInvalidCallback)
	}
	var refNum types.RefNumber
	if cb.State == StateOK {
		if refNum, err = types.ParseRefNumber(cb.RefNum); err != nil {
			log.Warnw("payment_callback_invalid_ref_num", "error", err)
			return newOutcome(OutcomeInvalid, StateInvalidCallback)
		}
	}

	payment, err := e.repo.GetPaymentByResNumber(ctx, resNum, false)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warnw("payment_callback_unknown_res_num")
			return newOutcome(OutcomeNotFound, StateTransactionNotFound)
		}
		log.Errorw("payment_callback_lookup_failed", "error", err)
		return newOutcome(OutcomeError, StateInternalError)
	}
	txn, err := e.repo.GetTransaction(ctx, payment.TransactionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Errorw("payment_callback_orphan_payment", "payment_id", payment.ID)
			return newOutcome(OutcomeNotFound, StateTransactionNotFound)
		}
		log.Errorw("payment_callback_lookup_failed", "error", err)
		return newOutcome(OutcomeError, StateInternalError)
	}
	if txn.Status.IsTerminal() {
		log.Infow("payment_callback_replayed", "transaction_status", txn.Status)
		return duplicateOutcome(txn)
	}

	raw, err := json.Marshal(cb)
	if err != nil {
		log.Errorw("payment_callback_encode_failed", "error", err)
		return newOutcome(OutcomeError, StateInternalError)
	}

	if cb.State != StateOK {
		// The gateway already reported OK for this payment; only verify may settle it.
		if txn.Status == types.TransactionStatusVerificationPending {
			log.Warnw("payment_callback_not_ok_while_verifying")
			return pendingOutcome(txn)
		}
		return e.apply(ctx, &change{
			resNum:   resNum,
			verdict:  verdictCanceled,
			reason:   types.TransactionChangeReasonCallback,
			callback: raw,
			state:    cb.State,
			traceNo:  cb.TraceNo,
			rrn:      cb.Rrn,
		})
	}

	existing, err := e.repo.GetPaymentByRefNumber(ctx, refNum)
	switch {
	case err == nil && existing.ID != payment.ID:
		log.Warnw("payment_callback_ref_num_reused", "other_payment_id", existing.ID)
		return duplicateOutcome(txn)
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		log.Errorw("payment_callback_lookup_failed", "error", err)
		return newOutcome(OutcomeError, StateInternalError)
	}

	if e.locker != nil {
		owner := logctx.TraceID(ctx)
		if owner == "" {
			owner = tool.GenerateUUIDV7()
		}
		ok, lerr := e.locker.AcquireCallbackLock(ctx, refNum.String(), owner)
		if lerr != nil {
			log.Warnw("payment_callback_lock_unavailable", "error", lerr)
		}
		if !ok {
			log.Infow("payment_callback_in_flight")
			return duplicateOutcome(txn)
		}
		defer func() {
			if err := e.locker.ReleaseCallbackLock(context.WithoutCancel(ctx), refNum.String(), owner); err != nil {
				log.Warnw("payment_callback_lock_release_failed", "error", err)
			}
		}()
	}

	return e.verifyAndApply(ctx, &change{
		resNum:   resNum,
		refNum:   refNum,
		reason:   types.TransactionChangeReasonCallback,
		callback: raw,
		state:    cb.State,
		traceNo:  cb.TraceNo,
		rrn:      cb.Rrn,
	})
}

// Reverify retries verification of a transaction left in
// VERIFICATION_PENDING by an unreachable gateway.
func (e *Engine) Reverify(ctx context.Context, transactionID string) (*Outcome, error) {
	log := logctx.FromCtx(ctx, e.log).With("transaction_id", transactionID)

	txn, err := e.repo.GetTransaction(ctx, transactionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if txn.Status != types.TransactionStatusVerificationPending {
		return nil, ErrNotVerificationPending
	}
	payment, err := e.repo.GetPaymentByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	if payment.RefNumber == nil {
		return nil, ErrMissingRefNumber
	}

	if e.locker != nil {
		owner := "reverify:" + transactionID
		ok, lerr := e.locker.AcquireCallbackLock(ctx, payment.RefNumber.String(), owner)
		if lerr != nil {
			log.Warnw("reverify_lock_unavailable", "error", lerr)
		}
		if !ok {
			return duplicateOutcome(txn), nil
		}
		defer func() {
			if err := e.locker.ReleaseCallbackLock(context.WithoutCancel(ctx), payment.RefNumber.String(), owner); err != nil {
				log.Warnw("reverify_lock_release_failed", "error", err)
			}
		}()
	}

	out := e.verifyAndApply(ctx, &change{
		resNum: payment.ResNumber,
		refNum: *payment.RefNumber,
		reason: types.TransactionChangeReasonReverify,
		state:  StateOK,
	})
	e.metrics.ObserveCallback(string(out.Kind), "reverify")
	log.Infow("transaction_reverified", "outcome", out.Kind)
	return out, nil
}

func (e *Engine) verifyAndApply(ctx context.Context, c *change) *Outcome {
	log := logctx.FromCtx(ctx, e.log).With("res_num", c.resNum.String(), "ref_num", c.refNum.String())

	res, err := e.verifier.VerifyTransaction(ctx, c.refNum)
	c.verify = res
	switch {
	case err != nil:
		var verr *sep.GatewayVerifyError
		if !errors.As(err, &verr) {
			log.Errorw("payment_verify_failed", "error", err)
		} else {
			log.Errorw("payment_verify_undetermined", "error", err)
		}
		c.verdict = verdictPending
		if c.reason == types.TransactionChangeReasonCallback {
			c.reason = types.TransactionChangeReasonVerifyFailed
		}
	case res.Response.Success:
		c.verdict = verdictSucceeded
	default:
		c.verdict = verdictFailed
	}
	if res != nil && err == nil {
		if c.traceNo == "" {
			c.traceNo = res.Response.TransactionDetail.StraceNo
		}
		if c.rrn == "" {
			c.rrn = res.Response.TransactionDetail.RRN
		}
	}
	return e.apply(ctx, c)
}

// apply writes c in one DB transaction and runs the post commit side effects.
func (e *Engine) apply(ctx context.Context, c *change) *Outcome {
	log := logctx.FromCtx(ctx, e.log).With("res_num", c.resNum.String())

	var done *applied
	err := e.repo.Transaction(ctx, func(tx repository.Repository) error {
		var err error
		done, err = e.write(ctx, tx, c)
		return err
	})
	switch {
	case errors.Is(err, errAwaitingVerify):
		log.Warnw("payment_callback_not_ok_while_verifying")
		return pendingOutcome(done.txn)
	case errors.Is(err, errAlreadyFinal), errors.Is(err, repository.ErrDuplicate):
		log.Warnw("payment_callback_duplicate_on_write", "error", err)
		return newOutcome(OutcomeDuplicate, StateRefNumAlreadyExist)
	case err != nil:
		log.Errorw("payment_callback_write_failed", "error", err)
		return newOutcome(OutcomeError, StateInternalError)
	}

	e.afterCommit(ctx, done)
	return buildOutcome(c, done)
}

func (e *Engine) write(ctx context.Context, tx repository.Repository, c *change) (*applied, error) {
	payment, err := tx.GetPaymentByResNumber(ctx, c.resNum, true)
	if err != nil {
		return nil, fmt.Errorf("failed to lock payment: %w", err)
	}
	txn, err := tx.GetTransaction(ctx, payment.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction: %w", err)
	}
	if txn.Status.IsTerminal() {
		return nil, errAlreadyFinal
	}
	if c.verdict == verdictCanceled && txn.Status == types.TransactionStatusVerificationPending {
		return &applied{payment: payment, txn: txn}, errAwaitingVerify
	}
	if c.verdict == verdictSucceeded {
		if reason := verifyMismatch(c, e.verifier.ToGatewayAmount(txn.Amount)); reason != "" {
			detail := c.verify.Response.TransactionDetail
			logctx.FromCtx(ctx, e.log).Errorw("payment_verify_mismatch",
				"reason", reason, "transaction_id", txn.ID,
				"expected_amount", e.verifier.ToGatewayAmount(txn.Amount),
				"affective_amount", detail.AffectiveAmount, "original_amount", detail.OrginalAmount,
				"verified_ref_num", detail.RefNum)
			c.verdict = verdictFailed
			c.mismatch = reason
		}
	}
	order, err := tx.GetOrder(ctx, txn.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	before := txn.Clone()
	now := e.now()

	if c.callback != nil {
		payment.PaymentCallback = datatypes.JSON(c.callback)
	}
	if c.refNum != "" {
		ref := c.refNum
		payment.RefNumber = &ref
	}
	if c.verify != nil {
		if len(c.verify.RawRequest) > 0 {
			payment.VerifyRequest = datatypes.JSON(c.verify.RawRequest)
		}
		if len(c.verify.RawResponse) > 0 && json.Valid(c.verify.RawResponse) {
			payment.VerifyResponse = datatypes.JSON(c.verify.RawResponse)
		}
	}
	if err := tx.SavePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}

	nextOrder := order.Status
	switch c.verdict {
	case verdictPending:
		if txn.Status != types.TransactionStatusVerificationPending {
			txn.Status = types.TransactionStatusVerificationPending
		}
	case verdictSucceeded:
		if !txn.Finish(types.TransactionStatusSuccessful, c.traceNo, c.rrn, now) {
			return nil, fmt.Errorf("transaction %s cannot move from %s to %s", txn.ID, txn.Status, types.TransactionStatusSuccessful)
		}
		nextOrder = types.OrderStatusPaid
	case verdictFailed, verdictCanceled:
		if !txn.Finish(types.TransactionStatusFailed, c.traceNo, c.rrn, now) {
			return nil, fmt.Errorf("transaction %s cannot move from %s to %s", txn.ID, txn.Status, types.TransactionStatusFailed)
		}
		nextOrder = types.OrderStatusCanceled
	}
	if err := tx.SaveTransaction(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}

	if nextOrder != order.Status {
		if !order.Status.CanTransition(nextOrder) {
			return nil, fmt.Errorf("order %s cannot move from %s to %s", order.ID, order.Status, nextOrder)
		}
		order.Status = nextOrder
		if err := tx.SaveOrder(ctx, order); err != nil {
			return nil, fmt.Errorf("failed to save order: %w", err)
		}
	}

	extra := datatypes.JSONMap{"state": c.state}
	if c.verify != nil && c.verdict != verdictPending {
		extra["result_code"] = c.verify.Response.ResultCode
		extra["result_description"] = c.verify.Response.ResultDescription
	}
	if c.mismatch != "" {
		extra["verify_mismatch"] = c.mismatch
	}
	entry := &models.TransactionLog{
		ID:            tool.GenerateUUIDV7(),
		TransactionID: txn.ID,
		UserID:        txn.UserID,
		Reason:        c.reason,
		Before:        datatypes.NewJSONType(before),
		After:         datatypes.NewJSONType(txn.Clone()),
		Extra:         extra,
	}
	if err := tx.CreateTransactionLog(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to write transaction log: %w", err)
	}
	return &applied{payment: payment, txn: txn, order: order}, nil
}

func (e *Engine) afterCommit(ctx context.Context, a *applied) {
	log := logctx.FromCtx(ctx, e.log).With("order_id", a.order.ID, "transaction_id", a.txn.ID)
	ctx = context.WithoutCancel(ctx)

	if e.status != nil {
		if err := e.status.SetOrderStatus(ctx, a.order.ID, string(a.order.Status)); err != nil {
			log.Warnw("order_status_cache_failed", "error", err)
		}
	}
	if e.publisher == nil {
		return
	}
	payload := events.PaymentReconciledPayload{
		OrderID:           a.order.ID,
		TransactionID:     a.txn.ID,
		UserID:            a.txn.UserID,
		ResNumber:         a.payment.ResNumber.String(),
		TransactionStatus: string(a.txn.Status),
		OrderStatus:       string(a.order.Status),
		Amount:            a.txn.Amount,
	}
	if a.payment.RefNumber != nil {
		payload.RefNumber = a.payment.RefNumber.String()
	}
	if a.txn.TraceNo != nil {
		payload.TraceNo = *a.txn.TraceNo
	}
	if a.txn.Rrn != nil {
		payload.Rrn = *a.txn.Rrn
	}
	env, err := events.NewEnvelope(events.EventPaymentReconciled, logctx.TraceID(ctx), a.order.ID, payload)
	if err != nil {
		log.Errorw("payment_event_encode_failed", "error", err)
		return
	}
	if err := e.publisher.Publish(ctx, a.order.ID, env); err != nil {
		log.Warnw("payment_event_publish_failed", "error", err)
	}
}

func buildOutcome(c *change, a *applied) *Outcome {
	var out *Outcome
	switch c.verdict {
	case verdictSucceeded:
		out = newOutcome(OutcomeSucceeded, c.state)
		out.Success = true
	case verdictFailed:
		out = newOutcome(OutcomeFailed, c.state)
		out.Message = messageVerifyFailed
	case verdictPending:
		out = newOutcome(OutcomeVerificationPending, StateVerificationPending)
	default:
		out = newOutcome(OutcomeCanceled, c.state)
	}
	out.TraceNo = c.traceNo
	out.Rrn = c.rrn
	if c.verify != nil && c.verdict != verdictPending && c.verdict != verdictCanceled {
		code := c.verify.Response.ResultCode
		out.ResultCode = &code
		out.ResultDescription = c.verify.Response.ResultDescription
	}
	out.OrderID = a.order.ID
	out.TransactionID = a.txn.ID
	return out
}

// verifyMismatch reports why a successful verify does not settle this
// payment, or "" when the verified receipt and amount match.
func verifyMismatch(c *change, expected int64) string {
	if c.verify == nil {
		return "missing_verify_response"
	}
	detail := c.verify.Response.TransactionDetail
	if detail.RefNum != c.refNum.String() {
		return "ref_num"
	}
	if detail.AffectiveAmount != expected {
		return "affective_amount"
	}
	if detail.OrginalAmount != 0 && detail.OrginalAmount != expected {
		return "original_amount"
	}
	return ""
}

func pendingOutcome(txn *models.Transaction) *Outcome {
	out := newOutcome(OutcomeVerificationPending, StateVerificationPending)
	out.OrderID = txn.OrderID
	out.TransactionID = txn.ID
	return out
}

func duplicateOutcome(txn *models.Transaction) *Outcome {
	out := newOutcome(OutcomeDuplicate, StateRefNumAlreadyExist)
	out.OrderID = txn.OrderID
	out.TransactionID = txn.ID
	return out
}
