package calls

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

type envelopeWire struct {
	Event *string         `json:"event"`
	Call  json.RawMessage `json:"call"`
}

// DecodeEnvelope validates the body of a webhook delivery.
//
// Order matters: a body that is not JSON is ErrMalformedPayload even when it
// would also be incomplete.
func DecodeEnvelope(body []byte) (Envelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Envelope{}, malformed("empty body")
	}
	if trimmed[0] != '{' {
		return Envelope{}, malformed("body is not a JSON object")
	}

	var w envelopeWire
	if err := json.Unmarshal(body, &w); err != nil {
		return Envelope{}, malformed("%v", err)
	}
	if w.Event == nil || strings.TrimSpace(*w.Event) == "" {
		return Envelope{}, incomplete("event")
	}
	if isJSONNull(w.Call) {
		return Envelope{}, incomplete("call")
	}

	var call CallPayload
	if err := json.Unmarshal(w.Call, &call); err != nil {
		return Envelope{}, malformed("call: %v", err)
	}
	call.CallID = strings.TrimSpace(call.CallID)
	if call.CallID == "" {
		return Envelope{}, incomplete("call.call_id")
	}

	return Envelope{Event: strings.TrimSpace(*w.Event), Call: call}, nil
}

// Normalize derives the canonical record for one event. It performs no I/O.
//
// Empty strings and zero numbers count as absent, the same way the platform's
// reference handler treats falsy values. The returned FieldSet names the
// fields that were present in the payload.
//
// ID is left empty; the caller assigns it. CreatedAt and UpdatedAt are both
// set to now, and storage keeps the original CreatedAt on conflict.
func Normalize(env Envelope, now time.Time) (CallRecord, FieldSet, error) {
	c := env.Call
	now = now.UTC()

	rec := CallRecord{
		CallID:       c.CallID,
		CallType:     DefaultCallType,
		AgentID:      DefaultAgentID,
		AgentVersion: DefaultAgentVersion,
		Status:       DefaultStatus,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	var provided FieldSet

	if c.CallType != "" {
		rec.CallType = c.CallType
		provided |= FieldCallType
	}
	if c.FromNumber != "" {
		rec.FromNumber = strPtr(c.FromNumber)
		provided |= FieldFromNumber
	}
	if c.ToNumber != "" {
		rec.ToNumber = strPtr(c.ToNumber)
		provided |= FieldToNumber
	}
	if c.Direction != "" {
		rec.Direction = strPtr(c.Direction)
		provided |= FieldDirection
	}
	if c.AgentID != "" {
		rec.AgentID = c.AgentID
		provided |= FieldAgentID
	}
	version, ok, err := lenientInt(c.AgentVersion)
	if err != nil {
		return CallRecord{}, 0, malformed("call.agent_version: %v", err)
	}
	if ok {
		rec.AgentVersion = version
		provided |= FieldAgentVersion
	}
	if c.CallStatus != "" {
		rec.Status = c.CallStatus
		provided |= FieldStatus
	}

	start, err := epochMillis(c.StartTimestamp)
	if err != nil {
		return CallRecord{}, 0, malformed("call.start_timestamp: %v", err)
	}
	if start != nil {
		rec.StartTimestamp = start
		provided |= FieldStartTimestamp
	}
	end, err := epochMillis(c.EndTimestamp)
	if err != nil {
		return CallRecord{}, 0, malformed("call.end_timestamp: %v", err)
	}
	if end != nil {
		rec.EndTimestamp = end
		provided |= FieldEndTimestamp
	}

	duration, ok, err := lenientInt(c.DurationMS)
	if err != nil {
		return CallRecord{}, 0, malformed("call.duration_ms: %v", err)
	}
	if ok {
		rec.DurationMS = &duration
		provided |= FieldDurationMS
	}
	if c.Transcript != "" {
		rec.Transcript = strPtr(c.Transcript)
		provided |= FieldTranscript
	}
	if c.RecordingURL != "" {
		rec.RecordingURL = strPtr(c.RecordingURL)
		provided |= FieldRecordingURL
	}

	analysis, err := serializeAnalysis(c.CallAnalysis)
	if err != nil {
		return CallRecord{}, 0, malformed("call.call_analysis: %v", err)
	}
	if analysis != nil {
		rec.Analysis = analysis
		provided |= FieldAnalysis
	}

	return rec, provided, nil
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02",
}

// epochMillis converts an ISO-8601 string or an epoch-ms number into the
// decimal epoch-ms string stored in the table. Absent values return nil.
func epochMillis(raw json.RawMessage) (*string, error) {
	if isFalsy(raw) {
		return nil, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		// Not a string; the platform also sends epoch milliseconds as numbers.
		f, numErr := strconv.ParseFloat(string(bytes.TrimSpace(raw)), 64)
		if numErr != nil {
			return nil, err
		}
		n, err := floatToInt64(f)
		if err != nil {
			return nil, err
		}
		return strPtr(strconv.FormatInt(n, 10)), nil
	}

	s = strings.TrimSpace(s)
	if isDigits(s) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		return strPtr(strconv.FormatInt(n, 10)), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return strPtr(strconv.FormatInt(t.UnixMilli(), 10)), nil
		}
	}
	return nil, &time.ParseError{Layout: time.RFC3339Nano, Value: s, Message: ": not an ISO-8601 instant"}
}

// lenientInt reads an integer column sent as a JSON number (integral or
// not) or a numeric string. Falsy values report ok == false.
func lenientInt(raw json.RawMessage) (int64, bool, error) {
	if isFalsy(raw) {
		return 0, false, nil
	}
	text := string(bytes.TrimSpace(raw))
	if text[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false, err
		}
		text = strings.TrimSpace(s)
		if text == "" {
			return 0, false, nil
		}
	}
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return n, n != 0, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%q is not a number", text)
	}
	n, err := floatToInt64(f)
	if err != nil {
		return 0, false, err
	}
	return n, n != 0, nil
}

// floatToInt64 truncates f, rejecting values int64 cannot hold.
func floatToInt64(f float64) (int64, error) {
	if math.IsNaN(f) || f < -(1<<63) || f >= 1<<63 {
		return 0, fmt.Errorf("%g is out of range", f)
	}
	return int64(f), nil
}

// serializeAnalysis compacts the opaque analysis object into storable text.
func serializeAnalysis(raw json.RawMessage) (*string, error) {
	if isFalsy(raw) {
		return nil, nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return strPtr(buf.String()), nil
}

// isFalsy reports values the platform uses to mean "not set".
func isFalsy(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", `""`, "0", "false":
		return true
	}
	return false
}

func isJSONNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || string(t) == "null"
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func strPtr(s string) *string { return &s }
