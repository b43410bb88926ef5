package swap

import (
	"encoding/hex"
	"math/big"
	"strconv"

	"remitledger/core/events"
	"remitledger/native/transfer"
)

// EventTypeConverted marks a completed venue conversion.
const EventTypeConverted = "swap.converted"

// NewConvertedEvent returns the payload for a settled conversion, carrying
// both the input and output legs.
func NewConvertedEvent(t *transfer.Transfer, inputToken string, inputAmount *big.Int) *events.Event {
	attrs := make(map[string]string)
	if t != nil {
		attrs["id"] = strconv.FormatUint(t.ID, 10)
		attrs["from"] = hex.EncodeToString(t.From[:])
		attrs["to"] = hex.EncodeToString(t.To[:])
		attrs["outputToken"] = t.Token
		if t.Amount != nil {
			attrs["outputAmount"] = t.Amount.String()
		}
	}
	attrs["inputToken"] = inputToken
	if inputAmount != nil {
		attrs["inputAmount"] = inputAmount.String()
	}
	return &events.Event{Type: EventTypeConverted, Attributes: attrs}
}
