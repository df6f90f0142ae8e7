// Package sep is a client for the Saman Electronic Payment (SEP) hosted
// payment gateway: token issue, redirect URL and server side verification.
package sep

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/checkout/pkg/config"
	"github.com/fatflowers/checkout/pkg/logctx"
	"github.com/fatflowers/checkout/pkg/metrics"
	"github.com/fatflowers/checkout/pkg/types"
)

const (
	tokenActionName = "token"
	tokenStatusOK   = 1
	maxBodyBytes    = 1 << 20
)

// GatewayRequestError is returned when the gateway refuses to issue a token
// or cannot be reached. Description is safe to show to the user.
type GatewayRequestError struct {
	Code        string
	Description string
	Err         error
}

func (e *GatewayRequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway token request failed: %v", e.Err)
	}
	return fmt.Sprintf("gateway token request rejected: code=%s desc=%s", e.Code, e.Description)
}

func (e *GatewayRequestError) Unwrap() error { return e.Err }

// GatewayVerifyError means the verify outcome is unknown: the call failed in
// transport or returned something unreadable.
type GatewayVerifyError struct {
	Err error
}

func (e *GatewayVerifyError) Error() string {
	return fmt.Sprintf("gateway verify undetermined: %v", e.Err)
}

func (e *GatewayVerifyError) Unwrap() error { return e.Err }

type TokenRequest struct {
	Action      string `json:"action"`
	TerminalID  string `json:"TerminalId"`
	Amount      int64  `json:"Amount"`
	ResNum      string `json:"ResNum"`
	RedirectURL string `json:"RedirectURL"`
	CellNumber  string `json:"CellNumber,omitempty"`
}

type TokenResponse struct {
	Status    int    `json:"status"`
	Token     string `json:"token"`
	ErrorCode string `json:"errorCode"`
	ErrorDesc string `json:"errorDesc"`
}

type TokenResult struct {
	Token       string
	RawRequest  []byte
	RawResponse []byte
}

type VerifyRequest struct {
	RefNum         string `json:"RefNum"`
	TerminalNumber int64  `json:"TerminalNumber"`
}

type TransactionDetail struct {
	RRN             string `json:"RRN"`
	RefNum          string `json:"RefNum"`
	MaskedPan       string `json:"MaskedPan"`
	HashedPan       string `json:"HashedPan"`
	TerminalNumber  int64  `json:"TerminalNumber"`
	OrginalAmount   int64  `json:"OrginalAmount"`
	AffectiveAmount int64  `json:"AffectiveAmount"`
	StraceDate      string `json:"StraceDate"`
	StraceNo        string `json:"StraceNo"`
}

type VerifyResponse struct {
	TransactionDetail TransactionDetail `json:"TransactionDetail"`
	ResultCode        int               `json:"ResultCode"`
	ResultDescription string            `json:"ResultDescription"`
	Success           bool              `json:"Success"`
}

type VerifyResult struct {
	Response    VerifyResponse
	RawRequest  []byte
	RawResponse []byte
}

type Client struct {
	cfg        config.GatewayConfig
	terminalNo int64
	token      *http.Client
	verify     *http.Client
	log        *zap.SugaredLogger
	metrics    *metrics.Business
}

func NewClient(cfg *config.Config, log *zap.SugaredLogger, m *metrics.Business) (*Client, error) {
	gc := cfg.Gateway
	var terminalNo int64
	if gc.TerminalID != "" {
		n, err := strconv.ParseInt(gc.TerminalID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("gateway.terminal_id must be numeric: %w", err)
		}
		terminalNo = n
	}
	if gc.AmountMultiplier <= 0 {
		gc.AmountMultiplier = 10
	}
	return &Client{
		cfg:        gc,
		terminalNo: terminalNo,
		token:      &http.Client{Timeout: orDefault(gc.RequestTimeout, 10*time.Second)},
		verify:     &http.Client{Timeout: orDefault(gc.VerifyTimeout, 15*time.Second)},
		log:        log,
		metrics:    m,
	}, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// ToGatewayAmount converts an amount in Toman into the Rial amount the gateway expects.
func (c *Client) ToGatewayAmount(toman int64) int64 {
	return toman * c.cfg.AmountMultiplier
}

// RequestToken asks the gateway for a payment session token. It never retries.
func (c *Client) RequestToken(ctx context.Context, amountToman int64, resNum types.ResNumber, cellNumber string) (*TokenResult, error) {
	start := time.Now()
	log := logctx.FromCtx(ctx, c.log).With("res_num", resNum.String())

	req := TokenRequest{
		Action:      tokenActionName,
		TerminalID:  c.cfg.TerminalID,
		Amount:      c.ToGatewayAmount(amountToman),
		ResNum:      resNum.String(),
		RedirectURL: c.cfg.CallbackURL,
		CellNumber:  cellNumber,
	}
	rawReq, err := json.Marshal(req)
	if err != nil {
		return nil, &GatewayRequestError{Err: err}
	}

	status, rawResp, err := c.post(ctx, c.token, c.cfg.TokenURL, rawReq)
	if err != nil {
		c.metrics.ObserveProcess("gateway", "token_error", start)
		log.Errorw("gateway_token_transport_error", "error", err)
		return nil, &GatewayRequestError{Err: err}
	}
	c.metrics.ObserveProcess("gateway", "token", start)

	var resp TokenResponse
	if err := json.Unmarshal(rawResp, &resp); err != nil {
		log.Errorw("gateway_token_decode_error", "http_status", status, "body", string(rawResp), "error", err)
		return nil, &GatewayRequestError{Err: fmt.Errorf("decode token response (http %d): %w", status, err)}
	}
	if resp.Status != tokenStatusOK || resp.Token == "" {
		log.Warnw("gateway_token_rejected", "http_status", status, "error_code", resp.ErrorCode, "error_desc", resp.ErrorDesc)
		return nil, &GatewayRequestError{Code: resp.ErrorCode, Description: resp.ErrorDesc}
	}
	log.Infow("gateway_token_issued", "amount_rial", req.Amount)
	return &TokenResult{Token: resp.Token, RawRequest: rawReq, RawResponse: rawResp}, nil
}

// PaymentURL is where the browser is sent to pay with token.
func (c *Client) PaymentURL(token string) string {
	return c.cfg.PaymentURL + "?token=" + url.QueryEscape(token)
}

// VerifyTransaction confirms a payment with the gateway. A returned response
// with Success=false is a definitive failure; a *GatewayVerifyError is not.
func (c *Client) VerifyTransaction(ctx context.Context, refNum types.RefNumber) (*VerifyResult, error) {
	start := time.Now()
	log := logctx.FromCtx(ctx, c.log).With("ref_num", refNum.String())

	rawReq, err := json.Marshal(VerifyRequest{RefNum: refNum.String(), TerminalNumber: c.terminalNo})
	if err != nil {
		return nil, &GatewayVerifyError{Err: err}
	}
	status, rawResp, err := c.post(ctx, c.verify, c.cfg.VerifyURL, rawReq)
	if err != nil {
		c.metrics.ObserveProcess("gateway", "verify_error", start)
		log.Errorw("gateway_verify_transport_error", "error", err)
		return &VerifyResult{RawRequest: rawReq}, &GatewayVerifyError{Err: err}
	}
	c.metrics.ObserveProcess("gateway", "verify", start)

	if status < 200 || status >= 300 {
		log.Errorw("gateway_verify_http_error", "http_status", status, "body", string(rawResp))
		return &VerifyResult{RawRequest: rawReq, RawResponse: rawResp}, &GatewayVerifyError{Err: fmt.Errorf("verify http status %d", status)}
	}
	var resp VerifyResponse
	if err := json.Unmarshal(rawResp, &resp); err != nil {
		log.Errorw("gateway_verify_decode_error", "body", string(rawResp), "error", err)
		return &VerifyResult{RawRequest: rawReq, RawResponse: rawResp}, &GatewayVerifyError{Err: err}
	}
	log.Infow("gateway_verify_done", "success", resp.Success, "result_code", resp.ResultCode)
	return &VerifyResult{Response: resp, RawRequest: rawReq, RawResponse: rawResp}, nil
}

func (c *Client) post(ctx context.Context, hc *http.Client, endpoint string, body []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	resp, err := hc.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, raw, nil
}

// IsRequestError reports whether err is a token request failure and returns it.
func IsRequestError(err error) (*GatewayRequestError, bool) {
	var e *GatewayRequestError
	ok := errors.As(err, &e)
	return e, ok
}

var Module = fx.Options(
	fx.Provide(NewClient),
)
