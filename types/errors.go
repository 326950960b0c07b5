package types

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrAuthRequired     = errors.New("authentication required")
	ErrInvalidProposal  = errors.New("invalid deal proposal")
	ErrTimeout          = errors.New("timed out")
	ErrDealNotFound     = errors.New("deal not found")
	ErrAlreadySubmitted = errors.New("deal proposal already submitted")
	ErrInFlight         = errors.New("operation in flight")
	ErrEntryNotFound    = errors.New("upload entry not found")

	// kinds matched by the structured errors below
	ErrUpload              = errors.New("upload failed")
	ErrQuery               = errors.New("query failed")
	ErrChainRejected       = errors.New("rejected by chain")
	ErrSubmissionAmbiguous = errors.New("submission ambiguous")
)

// UploadError is returned by the staging client when the endpoint answers with
// a non-2xx status or the transport fails.
type UploadError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("upload to staging failed: %v", e.Err)
	}
	return fmt.Sprintf("upload to staging failed: [%d] %s", e.StatusCode, e.Body)
}

func (e *UploadError) Unwrap() error { return e.Err }

func (e *UploadError) Is(target error) bool { return target == ErrUpload }

// QueryError means the remote state could not be determined.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

func (e *QueryError) Is(target error) bool { return target == ErrQuery }

// ChainRejected carries the revert detail of a failed contract call.
type ChainRejected struct {
	Contract string
	TxHash   string
	Detail   string
	Err      error
}

func (e *ChainRejected) Error() string {
	msg := fmt.Sprintf("error submitting proposal to chain: %s - contract address: %s", e.Detail, e.Contract)
	if e.TxHash != "" {
		msg += " - tx: " + e.TxHash
	}
	return msg
}

func (e *ChainRejected) Unwrap() error { return e.Err }

func (e *ChainRejected) Is(target error) bool { return target == ErrChainRejected }

// SubmissionAmbiguous is returned when a transaction was sent but no deal
// identifier could be decoded from its outcome. The on-chain state is unknown.
// A transaction that was sent but not confirmed in time is reported this way
// too, with Err set to ErrTimeout.
type SubmissionAmbiguous struct {
	TxHash string
	Reason string
	Err    error
}

func (e *SubmissionAmbiguous) Error() string {
	return fmt.Sprintf("transaction %s: no decodable deal id: %s", e.TxHash, e.Reason)
}

func (e *SubmissionAmbiguous) Unwrap() error { return e.Err }

func (e *SubmissionAmbiguous) Is(target error) bool { return target == ErrSubmissionAmbiguous }

// Retryable reports whether the step that produced err can safely be issued
// again.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrSubmissionAmbiguous), errors.Is(err, ErrAlreadySubmitted):
		return false
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidProposal), errors.Is(err, ErrAuthRequired):
		return false
	case errors.Is(err, ErrChainRejected):
		// a rejection reported by a mined transaction may have had partial effects
		var rejected *ChainRejected
		return errors.As(err, &rejected) && rejected.TxHash == ""
	case errors.Is(err, ErrUpload), errors.Is(err, ErrTimeout), errors.Is(err, ErrQuery):
		return true
	default:
		return false
	}
}
