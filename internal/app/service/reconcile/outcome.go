package reconcile

import (
	"net/url"
	"strconv"
)

// Gateway callback states.
const (
	StateOK                         = "OK"
	StateCanceledByUser             = "CanceledByUser"
	StateFailed                     = "Failed"
	StateSessionIsNull              = "SessionIsNull"
	StateInvalidParameters          = "InvalidParameters"
	StateMerchantIPAddressIsInvalid = "MerchantIpAddressIsInvalid"
	StateTokenNotFound              = "TokenNotFound"
	StateTokenRequired              = "TokenRequired"
	StateTerminalNotFound           = "TerminalNotFound"

	// Local states reported to the front end.
	StateRefNumAlreadyExist  = "RefNumAlreadyExist"
	StateVerificationPending = "VerificationPending"
	StateTransactionNotFound = "TransactionNotFound"
	StateInvalidCallback     = "InvalidCallback"
	StateInternalError       = "InternalError"
)

type OutcomeKind string

const (
	OutcomeSucceeded           OutcomeKind = "succeeded"
	OutcomeFailed              OutcomeKind = "failed"
	OutcomeCanceled            OutcomeKind = "canceled"
	OutcomeDuplicate           OutcomeKind = "duplicate"
	OutcomeNotFound            OutcomeKind = "not_found"
	OutcomeInvalid             OutcomeKind = "invalid"
	OutcomeVerificationPending OutcomeKind = "verification_pending"
	OutcomeError               OutcomeKind = "error"
)

var stateMessages = map[string]string{
	StateOK:                         "پرداخت با موفقیت انجام شد",
	StateCanceledByUser:             "پرداخت توسط کاربر لغو شد",
	StateFailed:                     "پرداخت انجام نشد",
	StateSessionIsNull:              "کاربر در بازه زمانی تعیین شده پاسخی ارسال نکرد",
	StateInvalidParameters:          "پارامترهای ارسالی به درگاه نامعتبر است",
	StateMerchantIPAddressIsInvalid: "آدرس سرور پذیرنده نامعتبر است",
	StateTokenNotFound:              "توکن ارسال شده یافت نشد",
	StateTokenRequired:              "با این شماره ترمینال فقط تراکنش های توکنی قابل پرداخت هستند",
	StateTerminalNotFound:           "شماره ترمینال ارسال شده یافت نشد",
	StateRefNumAlreadyExist:         "این تراکنش قبلا ثبت شده است",
	StateVerificationPending:        "پرداخت در حال بررسی است و نتیجه به زودی اعلام می شود",
	StateTransactionNotFound:        "تراکنش مورد نظر یافت نشد",
	StateInvalidCallback:            "اطلاعات بازگشتی از درگاه نامعتبر است",
	StateInternalError:              "خطا در پردازش پرداخت، لطفا با پشتیبانی تماس بگیرید",
}

const (
	messageVerifyFailed = "تایید پرداخت ناموفق بود. در صورت کسر وجه، مبلغ حداکثر تا ۷۲ ساعت به حساب شما بازگردانده می شود"
	messageUnknown      = "پرداخت ناموفق بود"
)

// MessageForState returns the user facing message for a gateway or local state.
func MessageForState(state string) string {
	if m, ok := stateMessages[state]; ok {
		return m
	}
	return messageUnknown
}

// gatewayStates are the State values the gateway documents.
var gatewayStates = map[string]bool{
	StateOK:                         true,
	StateCanceledByUser:             true,
	StateFailed:                     true,
	StateSessionIsNull:              true,
	StateInvalidParameters:          true,
	StateMerchantIPAddressIsInvalid: true,
	StateTokenNotFound:              true,
	StateTokenRequired:              true,
	StateTerminalNotFound:           true,
}

// MetricState bounds a caller supplied State to a fixed label set.
func MetricState(state string) string {
	if gatewayStates[state] {
		return state
	}
	return "other"
}

// Outcome is what a callback resolved to. It is rendered as a redirect.
type Outcome struct {
	Kind              OutcomeKind
	State             string
	Success           bool
	Message           string
	TraceNo           string
	Rrn               string
	ResultCode        *int
	ResultDescription string

	OrderID       string
	TransactionID string
}

func newOutcome(kind OutcomeKind, state string) *Outcome {
	return &Outcome{Kind: kind, State: state, Message: MessageForState(state)}
}

// RedirectURL appends the outcome to the front end callback URL.
func (o *Outcome) RedirectURL(base string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("State", o.State)
	q.Set("success", strconv.FormatBool(o.Success))
	q.Set("traceNo", o.TraceNo)
	q.Set("Rrn", o.Rrn)
	q.Set("message", o.Message)
	if o.ResultCode != nil {
		q.Set("resultCode", strconv.Itoa(*o.ResultCode))
		q.Set("resultDescription", o.ResultDescription)
	}
	if o.OrderID != "" {
		q.Set("orderId", o.OrderID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
