package domain

import "errors"

var (
	// ErrStoreNotFound is returned when no active store matches a lookup.
	ErrStoreNotFound = errors.New("store not found")

	// ErrInvalidSignature is returned when a webhook's HMAC signature does
	// not match the request body.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrSyncInProgress is returned when a sync run cannot claim a store
	// because another run already holds it.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrMalformedRecord marks an individual platform item that cannot be
	// mapped into the local schema. Pull loops skip such items and continue.
	ErrMalformedRecord = errors.New("malformed platform record")

	// ErrEventsDisabled is returned when a custom event targets a store
	// that has event tracking switched off.
	ErrEventsDisabled = errors.New("event tracking disabled for store")
)
