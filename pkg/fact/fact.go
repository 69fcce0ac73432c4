// Package fact implements the content-addressed fact store plus the
// Fact type it indexes.
package fact

import (
	"time"

	"github.com/hl/bingo-sub000/pkg/value"
)

// ID uniquely identifies a fact within one engine instance.
type ID uint64

// Fact is a timestamped bag of fields the network matches rules against.
// Timestamps are informational only: they never order fact processing
// unless the caller is using the optional streaming extension.
type Fact struct {
	ID         ID
	ExternalID string
	Timestamp  time.Time
	Data       Data
}

// Data holds a fact's fields.
type Data struct {
	Fields map[string]value.Value
}

// NewFact constructs a fact with the given id and fields; Timestamp is
// always set to the current UTC time.
func NewFact(id ID, fields map[string]value.Value) *Fact {
	if fields == nil {
		fields = map[string]value.Value{}
	}
	return &Fact{ID: id, Timestamp: time.Now().UTC(), Data: Data{Fields: fields}}
}

// Get returns the value at field, or Null with ok=false if absent.
func (f *Fact) Get(field string) (value.Value, bool) {
	v, ok := f.Data.Fields[field]
	return v, ok
}

// Clone performs a copy-on-write duplication of the fact's fields, used by
// actions that mutate a fact (SetField, IncrementField, AppendToArray,
// UpdateFact) so the previous version stays valid for any token still
// referencing it mid-batch.
func (f *Fact) Clone() *Fact {
	fields := make(map[string]value.Value, len(f.Data.Fields))
	for k, v := range f.Data.Fields {
		fields[k] = v
	}
	return &Fact{
		ID:         f.ID,
		ExternalID: f.ExternalID,
		Timestamp:  f.Timestamp,
		Data:       Data{Fields: fields},
	}
}

// FieldSet returns the fact's field map itself, not a copy; mutating the
// result mutates the fact.
func (f *Fact) FieldSet() map[string]value.Value {
	return f.Data.Fields
}

// Equal performs deep field-by-field equality, used by the change tracker.
func (f *Fact) Equal(other *Fact) bool {
	if other == nil {
		return false
	}
	if len(f.Data.Fields) != len(other.Data.Fields) {
		return false
	}
	for k, v := range f.Data.Fields {
		ov, ok := other.Data.Fields[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}
