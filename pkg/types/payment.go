package types

type PaymentGateway string

const (
	PaymentGatewaySamanBank PaymentGateway = "SAMAN_BANK"
)

type TransactionType string

const (
	TransactionTypePurchase TransactionType = "PURCHASE"
	TransactionTypeRefund   TransactionType = "REFUND"
)

type TransactionStatus string

const (
	TransactionStatusPending TransactionStatus = "PENDING"
	// TransactionStatusVerificationPending marks a callback whose verify call could not reach the gateway.
	TransactionStatusVerificationPending TransactionStatus = "VERIFICATION_PENDING"
	TransactionStatusSuccessful          TransactionStatus = "SUCCESSFUL"
	// TransactionStatusFailed keeps the historical stored spelling.
	TransactionStatusFailed TransactionStatus = "FAILD"
)

var transactionNext = map[TransactionStatus]map[TransactionStatus]bool{
	TransactionStatusPending: {
		TransactionStatusVerificationPending: true,
		TransactionStatusSuccessful:          true,
		TransactionStatusFailed:              true,
	},
	TransactionStatusVerificationPending: {
		TransactionStatusSuccessful: true,
		TransactionStatusFailed:     true,
	},
	TransactionStatusSuccessful: {},
	TransactionStatusFailed:     {},
}

func (s TransactionStatus) CanTransition(to TransactionStatus) bool {
	return transactionNext[s][to]
}

func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusSuccessful || s == TransactionStatusFailed
}

type TransactionChangeReason string

const (
	TransactionChangeReasonCallback     TransactionChangeReason = "callback"
	TransactionChangeReasonVerifyFailed TransactionChangeReason = "verify_unreachable"
	TransactionChangeReasonReverify     TransactionChangeReason = "reverify"
)
