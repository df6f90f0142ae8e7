package types

import (
	"errors"
	"regexp"
	"strings"

	"github.com/fatflowers/checkout/pkg/tool"
)

var (
	ErrInvalidResNumber = errors.New("invalid reservation number")
	ErrInvalidRefNumber = errors.New("invalid reference number")

	resNumberPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,50}$`)
	refNumberPattern = regexp.MustCompile(`^[A-Za-z0-9+/=_-]{1,100}$`)
)

// ResNumber is the merchant reservation number sent to the gateway with the
// token request and echoed back on the callback.
type ResNumber string

// NewResNumber returns a time ordered 32 character hex reservation number.
func NewResNumber() ResNumber {
	return ResNumber(tool.GenerateCompactUUIDV7())
}

func ParseResNumber(s string) (ResNumber, error) {
	s = strings.TrimSpace(s)
	if !resNumberPattern.MatchString(s) {
		return "", ErrInvalidResNumber
	}
	return ResNumber(s), nil
}

func (r ResNumber) String() string { return string(r) }

// RefNumber is the gateway's digital receipt for a completed payment.
type RefNumber string

func ParseRefNumber(s string) (RefNumber, error) {
	s = strings.TrimSpace(s)
	if !refNumberPattern.MatchString(s) {
		return "", ErrInvalidRefNumber
	}
	return RefNumber(s), nil
}

func (r RefNumber) String() string { return string(r) }
