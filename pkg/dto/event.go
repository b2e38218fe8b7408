package dto

import "github.com/google/uuid"

// Change event types published to the family event stream and relayed
// to dashboard WebSocket clients.
const (
	EventPersonCreated   = "person_created"
	EventPersonUpdated   = "person_updated"
	EventPersonDeleted   = "person_deleted"
	EventMarriageCreated = "marriage_created"
	EventProfileApproved = "profile_approved"
	EventProfileRejected = "profile_rejected"
)

// ChangeEvent is the payload published to NATS for every tree mutation.
type ChangeEvent struct {
	Type     string      `json:"type"`
	PersonID *uuid.UUID  `json:"person_id,omitempty"`
	ActorID  uuid.UUID   `json:"actor_id"`
	Data     interface{} `json:"data,omitempty"`
}

// WSEvent is the envelope broadcast to WebSocket clients.
type WSEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}
