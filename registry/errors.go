// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package registry

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
)

// ErrRateLimited is returned when the registry answered a request with status
// 429 "Too Many Requests".
var ErrRateLimited = errors.New("rate limited")

// ErrMalformed is returned when a registry document cannot be decoded or lacks
// mandatory elements.
var ErrMalformed = errors.New("malformed document")

// StatusError reports an unexpected HTTP response status.
type StatusError struct {
	Status int
}

// Error returns the error text, which only mentions the status code received.
func (e *StatusError) Error() string {
	return fmt.Sprintf("received %d", e.Status)
}

// statusError maps a non-200 HTTP status to its error.
func statusError(status int) error {
	if status == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	return &StatusError{Status: status}
}
