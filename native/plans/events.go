package plans

import (
	"encoding/hex"
	"strconv"

	"remitledger/core/events"
)

const (
	EventTypePlanSubscribed = "plans.subscribed"
	EventTypePlanCancelled  = "plans.cancelled"
)

// NewSubscribedEvent returns the canonical payload for a new subscription.
func NewSubscribedEvent(p *Plan) *events.Event {
	return newPlanEvent(EventTypePlanSubscribed, p)
}

// NewCancelledEvent returns the canonical payload for a cancellation.
func NewCancelledEvent(p *Plan) *events.Event {
	return newPlanEvent(EventTypePlanCancelled, p)
}

func newPlanEvent(eventType string, p *Plan) *events.Event {
	attrs := make(map[string]string)
	if p == nil {
		return &events.Event{Type: eventType, Attributes: attrs}
	}
	attrs["owner"] = hex.EncodeToString(p.Owner[:])
	attrs["tier"] = p.Tier.String()
	attrs["discountBps"] = strconv.FormatUint(uint64(p.DiscountBps), 10)
	attrs["startDate"] = strconv.FormatInt(p.StartDate, 10)
	attrs["endDate"] = strconv.FormatInt(p.EndDate, 10)
	attrs["active"] = strconv.FormatBool(p.Active)
	return &events.Event{Type: eventType, Attributes: attrs}
}
