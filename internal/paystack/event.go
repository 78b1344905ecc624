package paystack

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	EventChargeSuccess = "charge.success"
	EventChargeFailed  = "charge.failed"
)

var ErrMalformedEvent = errors.New("malformed webhook event")

type Event struct {
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

type EventData struct {
	ID              int64  `json:"id"`
	Reference       string `json:"reference"`
	Status          string `json:"status"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	GatewayResponse string `json:"gateway_response"`
	Channel         string `json:"channel"`
}

// Metadata is what gets merged into the stored transaction.
func (d EventData) Metadata(event string) map[string]any {
	return map[string]any{
		"webhook_event":    event,
		"gateway_id":       d.ID,
		"gateway_status":   d.Status,
		"gateway_amount":   d.Amount,
		"gateway_currency": d.Currency,
		"gateway_response": d.GatewayResponse,
		"channel":          d.Channel,
	}
}

func ParseEvent(body []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(body, &e); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if e.Event == "" {
		return nil, fmt.Errorf("%w: missing event type", ErrMalformedEvent)
	}
	return &e, nil
}
