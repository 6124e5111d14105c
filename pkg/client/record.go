package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// logRecordFields are the JSON keys decoded into named LogRecord fields.
var logRecordFields = []string{
	"id", "timestamp", "level", "service", "host", "message",
	"raw", "trace_id", "span_id", "request_id", "meta",
}

// plainRecord has LogRecord's fields without its methods.
type plainRecord LogRecord

// UnmarshalJSON decodes a record, accepting a string or numeric id and
// collecting unknown top-level keys into Extra.
func (r *LogRecord) UnmarshalJSON(data []byte) error {
	var aux struct {
		*plainRecord
		ID json.RawMessage `json:"id,omitempty"`
	}
	aux.plainRecord = (*plainRecord)(r)
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	id, err := decodeID(aux.ID)
	if err != nil {
		return err
	}
	r.ID = id

	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range logRecordFields {
		delete(all, k)
	}
	r.Extra = nil
	if len(all) > 0 {
		r.Extra = all
	}
	return nil
}

// MarshalJSON encodes the named fields and then the Extra keys. Named fields
// win when a key appears in both.
func (r LogRecord) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(plainRecord(r))
	if err != nil || len(r.Extra) == 0 {
		return base, err
	}

	merged := make(map[string]any, len(r.Extra)+len(logRecordFields))
	for k, v := range r.Extra {
		merged[k] = v
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(base, &known); err != nil {
		return nil, err
	}
	for k, v := range known {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", fmt.Errorf("log id must be a string or number, got %s", raw)
		}
		return n.String(), nil
	}
}
