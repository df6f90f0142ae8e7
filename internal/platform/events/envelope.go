package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/fatflowers/checkout/pkg/tool"
)

const (
	EventPaymentReconciled = "PaymentReconciled"

	producerName = "checkout-api"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// PaymentReconciledPayload is published once per transaction reaching a
// final or verification pending state.
type PaymentReconciledPayload struct {
	OrderID           string `json:"order_id"`
	TransactionID     string `json:"transaction_id"`
	UserID            string `json:"user_id"`
	ResNumber         string `json:"res_number"`
	RefNumber         string `json:"ref_number,omitempty"`
	TransactionStatus string `json:"transaction_status"`
	OrderStatus       string `json:"order_status"`
	Amount            int64  `json:"amount"`
	TraceNo           string `json:"trace_no,omitempty"`
	Rrn               string `json:"rrn,omitempty"`
}

func NewEnvelope(eventType, traceID, correlationID string, payload any) (*Envelope, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return &Envelope{
		EventID:       tool.GenerateUUIDV7(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producerName,
		TraceID:       traceID,
		CorrelationID: correlationID,
		Payload:       b,
	}, nil
}

// UnwrapPayload decodes the payload of an envelope into T.
func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
