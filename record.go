package main

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Record represents one stored item: a free-form mapping of field name to
// value. Store-managed fields live alongside caller-supplied ones.
type Record map[string]any

// Field names managed by the store. Callers can never set or change them.
const (
	FieldID           = "id"
	FieldOwnerID      = "owner_id"
	FieldLastModified = "last_modified"
	FieldAddedOn      = "added_on"
	FieldStoredOn     = "stored_on"
)

var reservedFields = map[string]struct{}{
	FieldID:           {},
	FieldOwnerID:      {},
	FieldLastModified: {},
	FieldAddedOn:      {},
	FieldStoredOn:     {},
}

// ID returns the record's unique id within its (resource, owner) partition.
func (r Record) ID() string {
	s, _ := r[FieldID].(string)
	return s
}

// OwnerID returns the identity the record belongs to.
func (r Record) OwnerID() string {
	s, _ := r[FieldOwnerID].(string)
	return s
}

// LastModified returns the record's version marker. JSON decoding yields
// float64 for numbers, so both representations are accepted.
func (r Record) LastModified() int64 {
	switch v := r[FieldLastModified].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// stripReserved copies payload without its store-managed fields.
func stripReserved(payload Record) Record {
	out := make(Record, len(payload))
	for k, v := range payload {
		if _, ok := reservedFields[k]; ok {
			continue
		}
		out[k] = v
	}
	return out
}

// newRecordID generates a record id. Ids are unique within a
// (resource, owner) partition; UUIDs make them unique globally.
func newRecordID() string {
	return uuid.NewString()
}

// newRecord builds the stored state of a freshly created record: caller
// fields plus identity and creation-time stamps.
func newRecord(payload Record, ownerID, id string, now int64) Record {
	rec := stripReserved(payload)
	rec[FieldID] = id
	rec[FieldOwnerID] = ownerID
	rec[FieldAddedOn] = now
	rec[FieldStoredOn] = now
	rec[FieldLastModified] = now
	return rec
}

// applyUpdate produces the next state of existing under payload. Identity and
// creation-time fields always survive, regardless of mode or payload content.
func applyUpdate(existing, payload Record, mode UpdateMode, now int64) Record {
	var next Record
	if mode == UpdateModePartial {
		next = existing.Clone()
	} else {
		next = make(Record)
	}
	for k, v := range stripReserved(payload) {
		next[k] = v
	}
	for _, f := range []string{FieldID, FieldOwnerID, FieldAddedOn, FieldStoredOn} {
		if v, ok := existing[f]; ok {
			next[f] = v
		}
	}
	next[FieldLastModified] = now
	return next
}

// nativeValue converts a query-string value to the native type used for
// equality filtering: booleans ("true", "on", "yes", "1" and their
// negatives), then integers, then the raw string.
func nativeValue(s string) any {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "1":
		return true
	case "off", "false", "no", "0":
		return false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return s
}

// matchFilters reports whether rec satisfies every equality filter.
func matchFilters(rec Record, filters map[string]any) bool {
	for field, want := range filters {
		if !looseEqual(rec[field], want) {
			return false
		}
	}
	return true
}

// looseEqual compares two field values, treating all numeric representations
// (int64 cursor stamps, float64 from JSON decoding) as one domain.
func looseEqual(a, b any) bool {
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	if aok || bok {
		return aok && bok && af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
