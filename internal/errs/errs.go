// Package errs defines the failure kinds shared by the scraping pipeline.
//
// Every failure below the "one search session" granularity is absorbed and
// logged by the component that sees it; the kind tells callers (and the HTTP
// layer) which recovery policy applies.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindFetch
	KindParse
	KindBrowser
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindFetch:
		return "fetch"
	case KindParse:
		return "parse"
	case KindBrowser:
		return "browser"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is checks.
var (
	ErrFetch       = errors.New("fetch failed")
	ErrParse       = errors.New("parse failed")
	ErrBrowser     = errors.New("browser failed")
	ErrPersistence = errors.New("persistence failed")
)

// Error wraps an underlying failure with its kind and the target it concerns
// (a URL, a zip code, a row description).
type Error struct {
	Kind   Kind
	Op     string
	Target string
	Err    error
}

func (e *Error) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Op, e.Target, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel matching e's kind.
func (e *Error) Is(target error) bool {
	return target == sentinel(e.Kind)
}

func sentinel(k Kind) error {
	switch k {
	case KindFetch:
		return ErrFetch
	case KindParse:
		return ErrParse
	case KindBrowser:
		return ErrBrowser
	case KindPersistence:
		return ErrPersistence
	}
	return nil
}

// New builds an *Error.
func New(kind Kind, op, target string, err error) *Error {
	return &Error{Kind: kind, Op: op, Target: target, Err: err}
}

// Fetch wraps err as a fetch failure for url.
func Fetch(op, url string, err error) *Error { return New(KindFetch, op, url, err) }

// Parse wraps err as a parse failure.
func Parse(op, target string, err error) *Error { return New(KindParse, op, target, err) }

// Browser wraps err as a browser failure.
func Browser(op, target string, err error) *Error { return New(KindBrowser, op, target, err) }

// Persistence wraps err as a persistence failure.
func Persistence(op, target string, err error) *Error { return New(KindPersistence, op, target, err) }

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
