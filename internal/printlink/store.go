// Package printlink persists one-time print links.
//
// A link is written once, may be read any number of times while it is live,
// and is removed by the first Consume. Expired links behave as missing.
package printlink

import (
	"context"
	"errors"

	"printdesk/internal/model"
)

var (
	// ErrNotFound means the link never existed, expired, or was already consumed.
	ErrNotFound = errors.New("print link not found")
	// ErrExpired is returned by Save for a link whose expiry is already in the past.
	ErrExpired = errors.New("print link already expired")
)

// Store holds print links until they are consumed or expire.
type Store interface {
	// Save stores link until link.ExpiresAt.
	Save(ctx context.Context, link *model.PrintLink) error
	// Get returns a live link without consuming it.
	Get(ctx context.Context, id string) (*model.PrintLink, error)
	// Consume atomically removes a live link and returns it.
	// Of two concurrent calls for the same id, exactly one succeeds.
	Consume(ctx context.Context, id string) (*model.PrintLink, error)
	// PingContext reports whether the backing store is reachable.
	PingContext(ctx context.Context) error
}
