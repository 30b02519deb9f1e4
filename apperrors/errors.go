// Package apperrors gives the five error classes from spec.md §7 concrete
// Go types, each satisfying Classified so the evaluator's recovery policy
// (spec.md §4.10) can switch on class instead of string-matching messages.
package apperrors

import "github.com/pkg/errors"

type Class string

const (
	ClassNetwork   Class = "network"
	ClassContract  Class = "contract"
	ClassException Class = "exception"
	ClassAbort     Class = "abort"
	ClassProtocol  Class = "protocol"
)

// ContractSubtype narrows a ClassContract error per spec.md §4.10/§9(c).
type ContractSubtype string

const (
	SubtypeNone                ContractSubtype = ""
	SubtypeKnownError          ContractSubtype = "known-error"
	SubtypeUnsafeClientSkip    ContractSubtype = "unsafe-client-skip"
	SubtypeConstructor         ContractSubtype = "constructor"
	SubtypeBlacklistedSkip     ContractSubtype = "blacklisted-skip"
	SubtypeNonWhitelistedSource ContractSubtype = "non-whitelisted-source"
)

// Classified is implemented by every error this package defines so callers
// can recover the failure class without a type switch per concrete type.
type Classified interface {
	error
	Classified() Class
}

type NetworkError struct {
	cause  error
	Status int
}

func NewNetworkError(status int, cause error) *NetworkError {
	return &NetworkError{cause: cause, Status: status}
}

func (e *NetworkError) Error() string {
	if e.cause == nil {
		return errors.Errorf("network error, status %d", e.Status).Error()
	}
	return errors.Wrapf(e.cause, "network error, status %d", e.Status).Error()
}

func (e *NetworkError) Classified() Class { return ClassNetwork }
func (e *NetworkError) Unwrap() error     { return e.cause }

type ContractError struct {
	cause   error
	Subtype ContractSubtype
}

func NewContractError(subtype ContractSubtype, cause error) *ContractError {
	return &ContractError{cause: cause, Subtype: subtype}
}

func (e *ContractError) Error() string {
	return errors.Wrapf(e.cause, "contract error (%s)", e.Subtype).Error()
}

func (e *ContractError) Classified() Class { return ClassContract }
func (e *ContractError) Unwrap() error     { return e.cause }

// StopsChainAfterEvolve reports whether this subtype halts further
// progress at the next evolve boundary rather than merely invalidating
// the current interaction (spec.md §4.10).
func (e *ContractError) StopsChainAfterEvolve() bool {
	switch e.Subtype {
	case SubtypeUnsafeClientSkip, SubtypeConstructor, SubtypeBlacklistedSkip:
		return true
	default:
		return false
	}
}

type ExceptionError struct {
	cause error
}

func NewExceptionError(cause error) *ExceptionError {
	return &ExceptionError{cause: cause}
}

func (e *ExceptionError) Error() string {
	return errors.Wrap(e.cause, "unexpected exception").Error()
}

func (e *ExceptionError) Classified() Class { return ClassException }
func (e *ExceptionError) Unwrap() error     { return e.cause }

type AbortError struct {
	Reason string
}

func NewAbortError(reason string) *AbortError {
	return &AbortError{Reason: reason}
}

func (e *AbortError) Error() string {
	return errors.Errorf("aborted: %s", e.Reason).Error()
}

func (e *AbortError) Classified() Class { return ClassAbort }

type ProtocolError struct {
	cause error
}

func NewProtocolError(cause error) *ProtocolError {
	return &ProtocolError{cause: cause}
}

func (e *ProtocolError) Error() string {
	return errors.Wrap(e.cause, "protocol error").Error()
}

func (e *ProtocolError) Classified() Class { return ClassProtocol }
func (e *ProtocolError) Unwrap() error     { return e.cause }

// NonWhitelistedSourceError is raised by the executor factory when a
// definition's src_tx_id is rejected by a source allowlist (spec.md §4.6).
type NonWhitelistedSourceError struct {
	SrcTxId string
}

func NewNonWhitelistedSourceError(srcTxId string) *NonWhitelistedSourceError {
	return &NonWhitelistedSourceError{SrcTxId: srcTxId}
}

func (e *NonWhitelistedSourceError) Error() string {
	return errors.Errorf("source %s is not on the allowlist", e.SrcTxId).Error()
}

func (e *NonWhitelistedSourceError) Classified() Class { return ClassContract }

// NonWhitelistedSourceError always stops the chain after evolve rather
// than simply invalidating the interaction, per spec.md §4.10.
func (e *NonWhitelistedSourceError) StopsChainAfterEvolve() bool { return true }
