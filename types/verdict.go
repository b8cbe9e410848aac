// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import "fmt"

// Verdict indicates what is known about a maintainer e-mail domain: whether it
// is yet unknown, currently being resolved, or finally either resolved or
// unregistered.
type Verdict int

// The resolution verdicts of a maintainer domain.
const (
	Unknown      Verdict = iota // domain never seen before.
	Resolving                   // domain lookup in flight.
	Unregistered                // domain has no addresses or failed to resolve.
	Resolved                    // domain has at least one address.
)

// String returns the clear-text representation of a Verdict value.
func (v Verdict) String() string {
	switch v {
	case Unknown:
		return "unknown"
	case Resolving:
		return "resolving"
	case Unregistered:
		return "unregistered"
	case Resolved:
		return "resolved"
	}
	return fmt.Sprintf("Verdict(%d)", v)
}

// IsFinal returns true if the verdict cannot change anymore, that is, the
// domain either resolved or turned out to be unregistered.
func (v Verdict) IsFinal() bool {
	switch v {
	case Unregistered, Resolved:
		return true
	default:
		return false
	}
}
