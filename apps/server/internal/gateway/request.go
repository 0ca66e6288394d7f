package gateway

import (
	"encoding/json"
	"strings"

	"holdem-live/apps/server/internal/table"
	"holdem-live/holdem"
)

// Request is a decoded client envelope, ready for the table actor.
type Request struct {
	TableID string
	Event   table.Event
}

type envelope struct {
	Type    string          `json:"type"`
	TableID string          `json:"tableId"`
	Data    json.RawMessage `json:"data"`
}

type joinSeatData struct {
	Seat  *int  `json:"seat"`
	Chips int64 `json:"chips"`
}

type addChipsData struct {
	Amount int64 `json:"amount"`
}

type gameActionData struct {
	Action string `json:"action"`
	Amount int64  `json:"amount"`
}

// ParseRequest decodes one inbound text frame. Every failure is a
// validation error whose message can be shown to the client as is.
func ParseRequest(raw []byte) (Request, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Request{}, holdem.Validationf("Malformed message")
	}
	env.TableID = strings.TrimSpace(env.TableID)
	if env.TableID == "" {
		return Request{}, holdem.Validationf("Missing tableId")
	}
	req := Request{TableID: env.TableID}

	switch env.Type {
	case "joinTable":
		req.Event.Type = table.EventJoinTable
	case "leaveTable":
		req.Event.Type = table.EventLeaveTable
	case "leaveSeat":
		req.Event.Type = table.EventLeaveSeat
	case "requestUpdate":
		req.Event.Type = table.EventResync
	case "joinSeat":
		var d joinSeatData
		if err := decodeData(env.Data, &d); err != nil {
			return Request{}, err
		}
		if d.Seat == nil {
			return Request{}, holdem.Validationf("Missing seat")
		}
		if d.Chips < 0 {
			return Request{}, holdem.Validationf("Invalid amount")
		}
		req.Event.Type = table.EventJoinSeat
		req.Event.Seat = *d.Seat
		req.Event.Amount = d.Chips
	case "addChips":
		var d addChipsData
		if err := decodeData(env.Data, &d); err != nil {
			return Request{}, err
		}
		if d.Amount <= 0 {
			return Request{}, holdem.Validationf("Invalid amount")
		}
		req.Event.Type = table.EventAddChips
		req.Event.Amount = d.Amount
	case "gameAction":
		var d gameActionData
		if err := decodeData(env.Data, &d); err != nil {
			return Request{}, err
		}
		action, err := holdem.ParseActionType(d.Action)
		if err != nil {
			return Request{}, err
		}
		if d.Amount < 0 {
			return Request{}, holdem.Validationf("Invalid amount")
		}
		req.Event.Type = table.EventAction
		req.Event.Action = action
		req.Event.Amount = d.Amount
	default:
		return Request{}, holdem.Validationf("Unknown message type: %s", env.Type)
	}
	return req, nil
}

func decodeData(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return holdem.Validationf("Missing data")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return holdem.Validationf("Malformed data")
	}
	return nil
}
