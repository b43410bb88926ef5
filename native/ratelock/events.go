package ratelock

import (
	"encoding/hex"
	"strconv"

	"remitledger/core/events"
)

const (
	EventTypeRateLockCreated   = "ratelock.created"
	EventTypeRateLockCancelled = "ratelock.cancelled"
)

// NewCreatedEvent returns the canonical event payload for a new reservation.
func NewCreatedEvent(l *RateLock) *events.Event {
	return newRateLockEvent(EventTypeRateLockCreated, l)
}

// NewCancelledEvent returns the canonical event payload for a cancellation.
func NewCancelledEvent(l *RateLock) *events.Event {
	return newRateLockEvent(EventTypeRateLockCancelled, l)
}

func newRateLockEvent(eventType string, l *RateLock) *events.Event {
	attrs := make(map[string]string)
	if l == nil {
		return &events.Event{Type: eventType, Attributes: attrs}
	}
	attrs["id"] = strconv.FormatUint(l.ID, 10)
	attrs["owner"] = hex.EncodeToString(l.Owner[:])
	attrs["fromToken"] = l.FromToken
	attrs["toToken"] = l.ToToken
	if l.LockedRate != nil {
		attrs["rate"] = l.LockedRate.String()
	}
	if l.Amount != nil {
		attrs["amount"] = l.Amount.String()
	}
	attrs["expiry"] = strconv.FormatInt(l.Expiry, 10)
	attrs["active"] = strconv.FormatBool(l.Active)
	return &events.Event{Type: eventType, Attributes: attrs}
}
