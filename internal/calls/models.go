package calls

import (
	"encoding/json"
	"time"
)

// CallRecord is the canonical persisted call.
//
// Invariant: exactly one row per CallID. Every lifecycle event for the same
// call converges on that row; ID and CreatedAt are assigned on first insert
// and never change afterwards.
//
// Nullable columns are pointers so the JSON listing renders them as null,
// matching what the voice platform dashboard expects.
type CallRecord struct {
	ID     string `json:"id" db:"id"`
	CallID string `json:"call_id" db:"call_id"`

	CallType   string  `json:"call_type" db:"call_type"`
	FromNumber *string `json:"from_number" db:"from_number"`
	ToNumber   *string `json:"to_number" db:"to_number"`
	Direction  *string `json:"direction" db:"direction"`

	AgentID      string `json:"agent_id" db:"agent_id"`
	AgentVersion int64  `json:"agent_version" db:"agent_version"`

	Status string `json:"call_status" db:"call_status"`

	// StartTimestamp and EndTimestamp hold epoch milliseconds as decimal strings.
	StartTimestamp *string `json:"start_timestamp" db:"start_timestamp"`
	EndTimestamp   *string `json:"end_timestamp" db:"end_timestamp"`
	DurationMS     *int64  `json:"duration_ms" db:"duration_ms"`

	Transcript   *string `json:"transcript" db:"transcript"`
	RecordingURL *string `json:"recording_url" db:"recording_url"`

	// Analysis is the platform's call_analysis object, serialized as JSON text.
	// Use DecodeAnalysis for a typed view.
	Analysis *string `json:"call_analysis" db:"call_analysis"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Event names sent by the platform. The set is open-ended; any non-empty
// event string is accepted and stored the same way.
const (
	EventCallStarted  = "call_started"
	EventCallEnded    = "call_ended"
	EventCallAnalyzed = "call_analyzed"
)

// Defaults applied when the platform leaves a field out.
const (
	DefaultCallType     = "phone_call"
	DefaultAgentID      = "unknown"
	DefaultAgentVersion = int64(1)
	DefaultStatus       = CallStatusStarted
)

const (
	CallStatusStarted = "started"
	CallStatusEnded   = "ended"
	CallStatusError   = "error"
)

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// Envelope is one decoded webhook delivery.
type Envelope struct {
	Event string
	Call  CallPayload
}

// CallPayload is the subset of the platform's call object we persist.
// Unknown fields are ignored.
type CallPayload struct {
	CallID       string `json:"call_id"`
	CallType     string `json:"call_type"`
	FromNumber   string `json:"from_number"`
	ToNumber     string `json:"to_number"`
	Direction    string `json:"direction"`
	AgentID      string `json:"agent_id"`
	// AgentVersion and DurationMS arrive as integers, floats or numeric strings.
	AgentVersion json.RawMessage `json:"agent_version"`
	CallStatus   string `json:"call_status"`

	// Timestamps arrive either as ISO-8601 strings or as epoch-ms numbers.
	StartTimestamp json.RawMessage `json:"start_timestamp"`
	EndTimestamp   json.RawMessage `json:"end_timestamp"`

	DurationMS   json.RawMessage `json:"duration_ms"`
	Transcript   string          `json:"transcript"`
	RecordingURL string          `json:"recording_url"`
	CallAnalysis json.RawMessage `json:"call_analysis"`
}

// Ack is returned for a successfully reconciled event.
type Ack struct {
	ID      string
	CallID  string
	Event   string
	Created bool
}

// UpsertResult reports what the storage layer did with a record.
type UpsertResult struct {
	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time
	Created   bool
}
