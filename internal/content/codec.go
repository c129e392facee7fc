// internal/content/codec.go
package content

import (
	"encoding/json"
	"fmt"

	"patchwork/internal/errors"
)

// Encode serializes the store to its canonical text form:
//
//	[["name",{"attr":"value"}],...]
//
// Entry order follows the store; attribute keys are sorted. Equal stores
// always produce identical text, which is what makes patch chains stable.
func Encode(s *Store) (string, error) {
	data, err := marshal(s.All())
	if err != nil {
		return "", errors.Internal("encoding records", err.Error())
	}
	return string(data), nil
}

// Decode parses text produced by Encode. Empty text decodes to an empty
// store.
func Decode(text string) (*Store, error) {
	if text == "" {
		return NewStore(), nil
	}

	var entries []Entry
	if err := json.Unmarshal([]byte(text), &entries); err != nil {
		if errors.TypeOf(err) != "" {
			return nil, fmt.Errorf("decoding records: %w", err)
		}
		return nil, errors.InvalidInput("decoding records", err.Error())
	}
	return FromEntries(entries)
}

// MustEncode is Encode for stores known to hold codec-normalised records.
func MustEncode(s *Store) string {
	text, err := Encode(s)
	if err != nil {
		panic(err)
	}
	return text
}
