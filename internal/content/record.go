// internal/content/record.go
package content

import (
	"bytes"
	"encoding/json"
	"fmt"

	"patchwork/internal/errors"
)

// Record is an open set of attributes stored under a name. Values are
// whatever the JSON codec produces: string, float64, bool, nil,
// map[string]any and []any.
type Record map[string]any

// Entry pairs a record with its name. It encodes as the JSON pair
// ["name", {...}].
type Entry struct {
	Name   string
	Record Record
}

func (e Entry) MarshalJSON() ([]byte, error) {
	record := e.Record
	if record == nil {
		record = Record{}
	}
	return marshal([]any{e.Name, record})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return errors.InvalidInput("entry must be a [name, record] pair", err.Error())
	}
	if len(pair) != 2 {
		return errors.InvalidInput(fmt.Sprintf("entry must have 2 elements, got %d", len(pair)), nil)
	}

	var name string
	if err := json.Unmarshal(pair[0], &name); err != nil {
		return errors.InvalidInput("entry name must be a string", string(pair[0]))
	}
	if name == "" {
		return errors.InvalidInput("entry name is required", nil)
	}

	var record Record
	if err := json.Unmarshal(pair[1], &record); err != nil || record == nil {
		return errors.InvalidInput(fmt.Sprintf("record %q must be an object", name), string(pair[1]))
	}

	e.Name = name
	e.Record = record
	return nil
}

// marshal is json.Marshal without HTML escaping and without the trailing
// newline json.Encoder appends. Map keys come out sorted.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// Normalize round-trips attrs through the codec so stored values have the
// same shape a decoded snapshot will have. The result shares nothing with
// attrs.
func Normalize(attrs Record) (Record, error) {
	if attrs == nil {
		return nil, errors.InvalidInput("record attributes are required", nil)
	}
	data, err := marshal(attrs)
	if err != nil {
		return nil, errors.InvalidInput("record attributes must be JSON values", err.Error())
	}
	var out Record
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.InvalidInput("record attributes must be JSON values", err.Error())
	}
	return out, nil
}

func validateName(name string) error {
	if name == "" {
		return errors.InvalidInput("record name is required", nil)
	}
	return nil
}

// Copy returns a deep copy of r.
func (r Record) Copy() Record {
	if r == nil {
		return nil
	}
	return copyValue(map[string]any(r)).(map[string]any)
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = copyValue(val)
		}
		return out
	case Record:
		return Record(copyValue(map[string]any(t)).(map[string]any))
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = copyValue(val)
		}
		return out
	default:
		return v
	}
}
