package transfer

import (
	"encoding/hex"
	"strconv"

	"remitledger/core/events"
)

const (
	EventTypeTransferLocked    = "transfer.locked"
	EventTypeTransferCompleted = "transfer.completed"
	EventTypeTransferCancelled = "transfer.cancelled"
)

// NewLockedEvent returns the payload for a custody-held leg awaiting its time
// bound.
func NewLockedEvent(t *Transfer) *events.Event {
	return newTransferEvent(EventTypeTransferLocked, t)
}

// NewCompletedEvent returns the payload for a settled transfer.
func NewCompletedEvent(t *Transfer) *events.Event {
	return newTransferEvent(EventTypeTransferCompleted, t)
}

// NewCancelledEvent returns the payload for a cancelled scheduled leg.
func NewCancelledEvent(t *Transfer) *events.Event {
	return newTransferEvent(EventTypeTransferCancelled, t)
}

func newTransferEvent(eventType string, t *Transfer) *events.Event {
	attrs := make(map[string]string)
	if t == nil {
		return &events.Event{Type: eventType, Attributes: attrs}
	}
	attrs["id"] = strconv.FormatUint(t.ID, 10)
	attrs["kind"] = t.Kind.String()
	attrs["from"] = hex.EncodeToString(t.From[:])
	attrs["to"] = hex.EncodeToString(t.To[:])
	attrs["token"] = t.Token
	if t.Amount != nil {
		attrs["amount"] = t.Amount.String()
	}
	attrs["status"] = t.Status.String()
	attrs["createdAt"] = strconv.FormatInt(t.CreatedAt, 10)
	if t.Schedule != nil {
		attrs["boundTimestamp"] = strconv.FormatInt(t.Schedule.Timestamp, 10)
	}
	if t.RateLockID != 0 {
		attrs["rateLockId"] = strconv.FormatUint(t.RateLockID, 10)
	}
	return &events.Event{Type: eventType, Attributes: attrs}
}
