// Package discovery finds brand dealerships near a location by driving a
// browser through a map search.
package discovery

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Session.Find when nothing matches.
var ErrNotFound = errors.New("element not found")

// Browser hands out isolated sessions. Each crawl owns exactly one session.
type Browser interface {
	Open(ctx context.Context) (Session, error)
}

// Session is one rendered tab. Selectors are XPath expressions.
type Session interface {
	Navigate(ctx context.Context, url string) error
	FindAll(ctx context.Context, xpath string) ([]Node, error)
	Find(ctx context.Context, xpath string) (Node, error)
	Back(ctx context.Context) error
	Close() error
}

// Node is an element handle inside a Session.
type Node interface {
	Text() (string, error)
	// Attribute returns nil when the attribute is absent.
	Attribute(name string) (*string, error)
	Click() error
	ScrollTo(position int) error
	ScrollHeight() (int, error)
}
