package predictor

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed request. The client treats every kind the same way.
type ErrorKind string

const (
	KindNetwork ErrorKind = "network"
	KindStatus  ErrorKind = "status"
	KindDecode  ErrorKind = "decode"
)

// RequestError is returned for any request that did not yield a usable response.
type RequestError struct {
	Kind       ErrorKind
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s request to %s failed (status %d): %v", e.Kind, e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request to %s failed: %v", e.Kind, e.Endpoint, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a *RequestError in err's chain, or KindNetwork for anything else.
func KindOf(err error) ErrorKind {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.Kind
	}
	return KindNetwork
}
