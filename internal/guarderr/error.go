// Package guarderr classifies the failures that terminate a guard run.
package guarderr

import (
	"errors"
	"fmt"
)

// Kind is the category of a fatal error.
type Kind uint8

const (
	KindUndefined Kind = iota
	// KindConfiguration is an invalid input or unsupported environment,
	// e.g. an unsupported event type or a missing token.
	KindConfiguration
	// KindUpstreamAPI is a failed call to the GitHub API.
	KindUpstreamAPI
	// KindPolicyViolation is reported when concurrent runs are detected
	// and cancelling is disabled.
	KindPolicyViolation
	// KindConsistency is reported when the state returned by GitHub
	// contradicts what the guard expects, e.g. the triggering commit has no
	// stale run or the check-run of the current run can not be found.
	KindConsistency
)

var kindStrings = [...]string{
	KindUndefined:       "undefined",
	KindConfiguration:   "configuration error",
	KindUpstreamAPI:     "upstream api error",
	KindPolicyViolation: "policy violation",
	KindConsistency:     "consistency error",
}

func (k Kind) String() string {
	if int(k) > len(kindStrings)-1 {
		return fmt.Sprintf("unsupported Kind value: %d", k)
	}

	return kindStrings[k]
}

// Error is an error of a specific Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, err error) error {
	if err == nil {
		return nil
	}

	return &Error{Kind: kind, Err: err}
}

func Configuration(err error) error {
	return newError(KindConfiguration, err)
}

func UpstreamAPI(err error) error {
	return newError(KindUpstreamAPI, err)
}

func PolicyViolation(err error) error {
	return newError(KindPolicyViolation, err)
}

func Consistency(err error) error {
	return newError(KindConsistency, err)
}

// KindOf returns the Kind of the first Error in the chain of err.
// KindUndefined is returned if err does not wrap an Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUndefined
}
