package coordination

import (
	"fmt"
)

// KeeperError is the error surfaced for any fatal result code, carrying the
// offending path when it is known.
type KeeperError struct {
	Code Code
	Path string
	// Message optionally overrides the default rendering with extra context,
	// e.g. instructions to the operator.
	Message string
}

// NewKeeperError builds a KeeperError for the given code and path.
func NewKeeperError(code Code, path string) *KeeperError {
	return &KeeperError{Code: code, Path: path}
}

func (e *KeeperError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (%s)", e.Message, e.Code)
	}
	if e.Path == "" {
		return fmt.Sprintf("coordination error: %s", e.Code)
	}
	return fmt.Sprintf("coordination error: %s, path: %s", e.Code, e.Path)
}

// MultiError describes a failed multi transaction whose top-level code is a
// user error, i.e. the failure is attributable to one specific sub-operation
// rather than to the session.
type MultiError struct {
	Code Code
	// Requests and Responses are the full ordered lists from the failed
	// transaction. Responses[FailedOpIndex] is the first sub-response with a
	// non-Ok code.
	Requests      []Request
	Responses     []Response
	FailedOpIndex int
	failedOpPath  string
}

func (e *MultiError) Error() string {
	return fmt.Sprintf("transaction failed: %s, op #%d, path: %s", e.Code, e.FailedOpIndex, e.failedOpPath)
}

// FailedOpPath returns the path of the sub-operation that made the
// transaction fail.
func (e *MultiError) FailedOpPath() string {
	return e.failedOpPath
}

// FailedOpIndex locates the first sub-response with a non-Ok code. A
// user-error top-level code implies at least one failed sub-response, so
// failing to find one is an internal consistency violation and is reported
// as such, never as a transient condition.
func FailedOpIndex(code Code, responses []Response) (int, error) {
	if len(responses) == 0 {
		return 0, fmt.Errorf("logical error: responses for multi transaction are empty")
	}

	for i, resp := range responses {
		if resp.Err() != Ok {
			return i, nil
		}
	}

	if !IsUserError(code) {
		return 0, fmt.Errorf("logical error: %s is not a valid failure code for a multi transaction", code)
	}
	return 0, fmt.Errorf("logical error: no failed op in multi transaction responses")
}

// NewMultiError builds the structured failure for a user-error multi result.
// It returns an error (not a MultiError) if the responses violate the
// invariant that a user-error code implies a failed sub-response.
func NewMultiError(code Code, requests []Request, responses []Response) (*MultiError, error) {
	index, err := FailedOpIndex(code, responses)
	if err != nil {
		return nil, err
	}
	return &MultiError{
		Code:          code,
		Requests:      requests,
		Responses:     responses,
		FailedOpIndex: index,
		failedOpPath:  requests[index].GetPath(),
	}, nil
}

// CheckMulti converts a multi transaction result code into the appropriate
// error: nil on success, *MultiError when a specific sub-operation is to
// blame, *KeeperError for session class failures where no per-operation
// detail is meaningful.
func CheckMulti(code Code, requests []Request, responses []Response) error {
	if code == Ok {
		return nil
	}
	if IsUserError(code) {
		multiErr, err := NewMultiError(code, requests, responses)
		if err != nil {
			return err
		}
		return multiErr
	}
	return NewKeeperError(code, "")
}
