package types

// Error is the tagged error type used across the pipeline. Code is one of
// the constants below; Message carries the human-readable detail.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return e.Message
}

// NewError builds an *Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Common error codes
const (
	ErrConnection       = "CONNECTION_ERROR"
	ErrNotConnected     = "NOT_CONNECTED"
	ErrAuthentication   = "AUTHENTICATION_ERROR"
	ErrRequestTimeout   = "REQUEST_TIMEOUT"
	ErrApprovalFailed   = "APPROVAL_FAILED"
	ErrBurnFailed       = "BURN_FAILED"
	ErrAttestationWait  = "ATTESTATION_TIMEOUT"
	ErrSettlementFailed = "SETTLEMENT_FAILED"
	ErrTransferFailed   = "TRANSFER_FAILED"
	ErrInvalidRequest   = "INVALID_REQUEST"
	ErrConfig           = "CONFIG_ERROR"
)

// CodeOf returns the pipeline error code of err, or "" when err is not a
// pipeline error.
func CodeOf(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}
