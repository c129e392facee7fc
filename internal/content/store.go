// internal/content/store.go
package content

import (
	"encoding/json"
	"reflect"
	"sort"

	"patchwork/internal/errors"
)

// Store is an ordered collection of uniquely named records. It backs both
// the working directory and the staging area. Store is not safe for
// concurrent use.
type Store struct {
	names   []string
	records map[string]Record
}

func NewStore() *Store {
	return &Store{
		records: make(map[string]Record),
	}
}

// Save merges attrs into the record stored under name, creating it if
// needed, and returns the stored record. The same map is returned on every
// save of the same name.
func (s *Store) Save(name string, attrs Record) (Record, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	norm, err := Normalize(attrs)
	if err != nil {
		return nil, err
	}
	return s.merge(name, norm), nil
}

// SaveBatch saves every record in batch. All input is validated before
// anything is written; names are applied in sorted order.
func (s *Store) SaveBatch(batch map[string]Record) error {
	if len(batch) == 0 {
		return errors.InvalidInput("batch is empty", nil)
	}

	names := make([]string, 0, len(batch))
	for name := range batch {
		names = append(names, name)
	}
	sort.Strings(names)

	normalized := make([]Record, len(names))
	for i, name := range names {
		if err := validateName(name); err != nil {
			return err
		}
		norm, err := Normalize(batch[name])
		if err != nil {
			return err
		}
		normalized[i] = norm
	}

	for i, name := range names {
		s.merge(name, normalized[i])
	}
	return nil
}

// SaveAll merges attrs into every record in the store.
func (s *Store) SaveAll(attrs Record) error {
	norm, err := Normalize(attrs)
	if err != nil {
		return err
	}
	for _, name := range s.names {
		// each record gets its own copy of nested values
		s.merge(name, norm.Copy())
	}
	return nil
}

func (s *Store) merge(name string, attrs Record) Record {
	existing, ok := s.records[name]
	if !ok {
		s.names = append(s.names, name)
		s.records[name] = attrs
		return attrs
	}
	for k, v := range attrs {
		existing[k] = v
	}
	return existing
}

func (s *Store) Get(name string) (Record, error) {
	r, ok := s.records[name]
	if !ok {
		return nil, errors.NotFound("there is no record named %q", name)
	}
	return r, nil
}

func (s *Store) Lookup(name string) (Record, bool) {
	r, ok := s.records[name]
	return r, ok
}

// NameOf finds the name a record is stored under by identity, not by value.
func (s *Store) NameOf(record Record) (string, error) {
	if record != nil {
		ptr := reflect.ValueOf(record).Pointer()
		for _, name := range s.names {
			if reflect.ValueOf(s.records[name]).Pointer() == ptr {
				return name, nil
			}
		}
	}
	return "", errors.NotFound("record is not in the store")
}

func (s *Store) Exists(name string) bool {
	_, ok := s.records[name]
	return ok
}

func (s *Store) Delete(name string) error {
	if _, ok := s.records[name]; !ok {
		return errors.NotFound("there is no record named %q", name)
	}
	delete(s.records, name)
	for i, n := range s.names {
		if n == name {
			s.names = append(s.names[:i], s.names[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) DeleteRecord(record Record) error {
	name, err := s.NameOf(record)
	if err != nil {
		return err
	}
	return s.Delete(name)
}

// Rename moves a record to a new name, keeping its position.
func (s *Store) Rename(oldName, newName string) error {
	r, ok := s.records[oldName]
	if !ok {
		return errors.NotFound("there is no record named %q", oldName)
	}
	if err := validateName(newName); err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}
	if _, taken := s.records[newName]; taken {
		return errors.InvalidInput("a record named "+newName+" already exists", newName)
	}

	delete(s.records, oldName)
	s.records[newName] = r
	for i, n := range s.names {
		if n == oldName {
			s.names[i] = newName
			break
		}
	}
	return nil
}

// All returns the entries in order. Records are shared with the store.
func (s *Store) All() []Entry {
	entries := make([]Entry, len(s.names))
	for i, name := range s.names {
		entries[i] = Entry{Name: name, Record: s.records[name]}
	}
	return entries
}

func (s *Store) Names() []string {
	return append([]string(nil), s.names...)
}

func (s *Store) Len() int {
	return len(s.names)
}

func (s *Store) Clear() {
	s.names = nil
	s.records = make(map[string]Record)
}

// Clone returns a deep copy that shares no maps or slices with s.
func (s *Store) Clone() *Store {
	c := &Store{
		names:   append([]string(nil), s.names...),
		records: make(map[string]Record, len(s.records)),
	}
	for name, r := range s.records {
		c.records[name] = r.Copy()
	}
	return c
}

// Put stores a deep copy of record under name, replacing any existing
// record. Used to copy records between stores.
func (s *Store) Put(name string, record Record) error {
	if err := validateName(name); err != nil {
		return err
	}
	if record == nil {
		return errors.InvalidInput("record is required", name)
	}
	if _, ok := s.records[name]; !ok {
		s.names = append(s.names, name)
	}
	s.records[name] = record.Copy()
	return nil
}

func (s *Store) MarshalJSON() ([]byte, error) {
	return marshal(s.All())
}

func (s *Store) UnmarshalJSON(data []byte) error {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	fresh, err := FromEntries(entries)
	if err != nil {
		return err
	}
	*s = *fresh
	return nil
}

// FromEntries builds a store from ordered entries, copying each record.
func FromEntries(entries []Entry) (*Store, error) {
	s := NewStore()
	for _, e := range entries {
		if s.Exists(e.Name) {
			return nil, errors.InvalidInput("duplicate record name "+e.Name, e.Name)
		}
		if err := s.Put(e.Name, e.Record); err != nil {
			return nil, err
		}
	}
	return s, nil
}
