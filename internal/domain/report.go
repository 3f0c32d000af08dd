package domain

import "encoding/json"

// Report kinds whose replies carry data the relay correlates back into
// locally observable state.
var locationReportKinds = map[string]bool{
	"addCommanderTravelDock":     true,
	"addCommanderTravelFSDJump":  true,
	"setCommanderTravelLocation": true,
}

var shipReportKinds = map[string]bool{
	"addCommanderShip": true,
	"setCommanderShip": true,
}

// IsLocationReport reports whether a reply for this record kind describes the
// commander's current location.
func IsLocationReport(eventName string) bool { return locationReportKinds[eventName] }

// IsShipReport reports whether a reply for this record kind describes the
// commander's current ship.
func IsShipReport(eventName string) bool { return shipReportKinds[eventName] }

// StatusOK reports whether a service status code is in the 2xx success
// window (success, possibly with warnings).
func StatusOK(code int) bool { return code/100 == 2 }

// ReportRecord is one outgoing unit describing a state change. Immutable
// once created; owned by the pending buffer until handed to a batch.
type ReportRecord struct {
	EventName      string `json:"eventName"`
	EventTimestamp string `json:"eventTimestamp"`
	EventData      any    `json:"eventData"`
}

func (r *ReportRecord) UnmarshalJSON(data []byte) error {
	var raw struct {
		EventName      string          `json:"eventName"`
		EventTimestamp string          `json:"eventTimestamp"`
		EventData      json.RawMessage `json:"eventData"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.EventName = raw.EventName
	r.EventTimestamp = raw.EventTimestamp
	r.EventData = nil
	if len(raw.EventData) > 0 {
		value, err := DecodeOrderedJSON(raw.EventData)
		if err != nil {
			return err
		}
		r.EventData = value
	}
	return nil
}

// DataShipID digs the shipGameID out of a record's payload, for coalescing
// pending loadout reports. Returns 0 when the payload has none.
func (r ReportRecord) DataShipID() int64 {
	payload, ok := r.EventData.(Payload)
	if !ok {
		return 0
	}
	return payload.Int("shipGameID")
}

// BatchHeader identifies the account a batch reports for.
type BatchHeader struct {
	CommanderName       string `json:"commanderName"`
	CommanderFrontierID string `json:"commanderFrontierID"`
	Version             string `json:"version"`
}

// Batch is a snapshot of all pending report records plus an identity header,
// sent in one wire call.
type Batch struct {
	Header BatchHeader    `json:"header"`
	Events []ReportRecord `json:"events"`
}

// ReplyStatus is the batch-level portion of a service reply.
type ReplyStatus struct {
	EventStatus     int    `json:"eventStatus"`
	EventStatusText string `json:"eventStatusText,omitempty"`
}

// ReplyEvent is the per-record portion of a service reply, positionally
// aligned with the request's events.
type ReplyEvent struct {
	EventStatus     int            `json:"eventStatus"`
	EventStatusText string         `json:"eventStatusText,omitempty"`
	EventData       map[string]any `json:"eventData,omitempty"`
}

// Reply is the decoded service response for one batch.
type Reply struct {
	Header ReplyStatus  `json:"header"`
	Events []ReplyEvent `json:"events"`
}

// NotificationKind names the two signals the relay publishes for external
// collaborators.
type NotificationKind string

const (
	NotificationLocation NotificationKind = "location changed"
	NotificationShip     NotificationKind = "ship changed"
)

// Notification carries the most recent reply payload for a location- or
// ship-changing record, handed from the delivery worker to the consumer
// context over a channel.
type Notification struct {
	Kind NotificationKind
	Data map[string]any
}
