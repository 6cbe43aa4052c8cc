package notify

import (
	"encoding/json"
	"time"
)

// Event types.
const (
	TypeApplicationSubmitted = "application.submitted"
	TypeApplicantDeleted     = "applicant.deleted"
)

// Event is the payload sent to the notification queue.
type Event struct {
	Type        string `json:"type"`
	ApplicantID string `json:"applicantId"`
	FullName    string `json:"fullName,omitempty"`
	Position    string `json:"position,omitempty"`
	HasResume   bool   `json:"hasResume"`
	RequestID   string `json:"requestId,omitempty"`
	OccurredAt  string `json:"occurredAt"`
	Version     int    `json:"version"`
}

// NewEvent stamps an event with the current time and schema version.
func NewEvent(typ, applicantID string) Event {
	return Event{
		Type:        typ,
		ApplicantID: applicantID,
		OccurredAt:  time.Now().UTC().Format(time.RFC3339),
		Version:     1,
	}
}

// EncodeEvent returns the JSON representation of an event.
func EncodeEvent(evt Event) ([]byte, error) {
	return json.Marshal(evt)
}

// DecodeEvent parses a JSON payload into an Event.
func DecodeEvent(payload []byte) (Event, error) {
	var evt Event
	if err := json.Unmarshal(payload, &evt); err != nil {
		return Event{}, err
	}
	return evt, nil
}
