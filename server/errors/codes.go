// Package errors provides structured error codes for the session manager.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Validation errors
	CodeSessionInvalidKind     Code = "SESSION_INVALID_KIND"
	CodeSessionInvalidCapacity Code = "SESSION_INVALID_CAPACITY"
	CodeSessionWagerBelowFloor Code = "SESSION_WAGER_BELOW_FLOOR"
	CodeRevealTooLong          Code = "REVEAL_TOO_LONG"

	// Not-found errors
	CodeSessionNotFound   Code = "SESSION_NOT_FOUND"
	CodeSealedRefNotFound Code = "SEALED_REF_NOT_FOUND"

	// State errors
	CodeSessionNotOpen       Code = "SESSION_NOT_OPEN"
	CodeSessionNotActive     Code = "SESSION_NOT_ACTIVE"
	CodeSessionFull          Code = "SESSION_FULL"
	CodeSessionAlreadyEnded  Code = "SESSION_ALREADY_ENDED"
	CodeSessionNotSettleable Code = "SESSION_NOT_SETTLEABLE"
	CodeSettlementInProgress Code = "SETTLEMENT_IN_PROGRESS"

	// Authorization errors
	CodeDuplicateJoin    Code = "DUPLICATE_JOIN"
	CodeNotInSession     Code = "NOT_IN_SESSION"
	CodeNotAdministrator Code = "NOT_ADMINISTRATOR"
	CodeSealedReadDenied Code = "SEALED_READ_DENIED"

	// Financial errors
	CodeContributionBelowMinimum Code = "CONTRIBUTION_BELOW_MINIMUM"
	CodeZeroBalance              Code = "ZERO_BALANCE"
	CodeTransferFailed           Code = "TRANSFER_FAILED"
	CodeReceiveFailed            Code = "RECEIVE_FAILED"
)

// Kind groups codes into the five recoverable error classes callers branch on.
type Kind string

const (
	KindUnknown       Kind = "unknown"
	KindValidation    Kind = "validation"
	KindNotFound      Kind = "not_found"
	KindState         Kind = "state"
	KindAuthorization Kind = "authorization"
	KindFinancial     Kind = "financial"
)

// Kind classifies a code.
func (c Code) Kind() Kind {
	switch c {
	case CodeSessionInvalidKind,
		CodeSessionInvalidCapacity,
		CodeSessionWagerBelowFloor,
		CodeRevealTooLong:
		return KindValidation

	case CodeSessionNotFound,
		CodeSealedRefNotFound:
		return KindNotFound

	case CodeSessionNotOpen,
		CodeSessionNotActive,
		CodeSessionFull,
		CodeSessionAlreadyEnded,
		CodeSessionNotSettleable,
		CodeSettlementInProgress:
		return KindState

	case CodeDuplicateJoin,
		CodeNotInSession,
		CodeNotAdministrator,
		CodeSealedReadDenied:
		return KindAuthorization

	case CodeContributionBelowMinimum,
		CodeZeroBalance,
		CodeTransferFailed,
		CodeReceiveFailed:
		return KindFinancial

	default:
		return KindUnknown
	}
}

// HTTPStatus maps a code to the status the HTTP surface returns.
func (c Code) HTTPStatus() int {
	switch c.Kind() {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindState:
		return http.StatusConflict
	case KindAuthorization:
		return http.StatusForbidden
	case KindFinancial:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}
