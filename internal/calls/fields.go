package calls

import "strings"

// FieldSet is a bitmask over the mutable columns of a CallRecord.
// It tells the repository which columns a conflicting upsert may overwrite.
type FieldSet uint32

const (
	FieldCallType FieldSet = 1 << iota
	FieldFromNumber
	FieldToNumber
	FieldDirection
	FieldAgentID
	FieldAgentVersion
	FieldStatus
	FieldStartTimestamp
	FieldEndTimestamp
	FieldDurationMS
	FieldTranscript
	FieldRecordingURL
	FieldAnalysis
)

// AllFields overwrites every mutable column (full-row replace).
const AllFields = FieldCallType | FieldFromNumber | FieldToNumber | FieldDirection |
	FieldAgentID | FieldAgentVersion | FieldStatus | FieldStartTimestamp |
	FieldEndTimestamp | FieldDurationMS | FieldTranscript | FieldRecordingURL | FieldAnalysis

func (s FieldSet) Has(f FieldSet) bool { return s&f == f }

func (s FieldSet) String() string {
	names := make([]string, 0, len(mutableColumns))
	for _, col := range mutableColumns {
		if s.Has(col.field) {
			names = append(names, col.name)
		}
	}
	return strings.Join(names, ",")
}

type column struct {
	name  string
	field FieldSet
}

// mutableColumns is in table order. id, call_id, created_at and updated_at are
// handled separately by the repositories.
var mutableColumns = []column{
	{"call_type", FieldCallType},
	{"from_number", FieldFromNumber},
	{"to_number", FieldToNumber},
	{"direction", FieldDirection},
	{"agent_id", FieldAgentID},
	{"agent_version", FieldAgentVersion},
	{"call_status", FieldStatus},
	{"start_timestamp", FieldStartTimestamp},
	{"end_timestamp", FieldEndTimestamp},
	{"duration_ms", FieldDurationMS},
	{"transcript", FieldTranscript},
	{"recording_url", FieldRecordingURL},
	{"call_analysis", FieldAnalysis},
}

// mergeInto copies the fields in set from src into dst.
func mergeInto(dst *CallRecord, src CallRecord, set FieldSet) {
	if set.Has(FieldCallType) {
		dst.CallType = src.CallType
	}
	if set.Has(FieldFromNumber) {
		dst.FromNumber = src.FromNumber
	}
	if set.Has(FieldToNumber) {
		dst.ToNumber = src.ToNumber
	}
	if set.Has(FieldDirection) {
		dst.Direction = src.Direction
	}
	if set.Has(FieldAgentID) {
		dst.AgentID = src.AgentID
	}
	if set.Has(FieldAgentVersion) {
		dst.AgentVersion = src.AgentVersion
	}
	if set.Has(FieldStatus) {
		dst.Status = src.Status
	}
	if set.Has(FieldStartTimestamp) {
		dst.StartTimestamp = src.StartTimestamp
	}
	if set.Has(FieldEndTimestamp) {
		dst.EndTimestamp = src.EndTimestamp
	}
	if set.Has(FieldDurationMS) {
		dst.DurationMS = src.DurationMS
	}
	if set.Has(FieldTranscript) {
		dst.Transcript = src.Transcript
	}
	if set.Has(FieldRecordingURL) {
		dst.RecordingURL = src.RecordingURL
	}
	if set.Has(FieldAnalysis) {
		dst.Analysis = src.Analysis
	}
}
