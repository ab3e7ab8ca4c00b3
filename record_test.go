package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNativeValue(t *testing.T) {
	cases := []struct {
		in   string
		want any
	}{
		{"true", true},
		{"on", true},
		{"yes", true},
		{"1", true},
		{"false", false},
		{"off", false},
		{"no", false},
		{"0", false},
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"hello", "hello"},
		{"3.5", "3.5"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, nativeValue(c.in), "nativeValue(%q)", c.in)
	}
}

func TestStripReservedDropsManagedFields(t *testing.T) {
	payload := Record{
		"title":           "A",
		FieldID:           "spoofed",
		FieldOwnerID:      "mallory",
		FieldLastModified: int64(1),
		FieldAddedOn:      int64(1),
		FieldStoredOn:     int64(1),
	}
	got := stripReserved(payload)
	assert.Equal(t, Record{"title": "A"}, got)
	// the original payload is untouched
	assert.Equal(t, "spoofed", payload.ID())
}

func TestApplyUpdatePartialMergesFields(t *testing.T) {
	existing := Record{
		FieldID:           "r1",
		FieldOwnerID:      "bob",
		FieldAddedOn:      int64(10),
		FieldStoredOn:     int64(10),
		FieldLastModified: int64(10),
		"title":           "A",
		"url":             "http://a",
	}
	next := applyUpdate(existing, Record{"title": "B"}, UpdateModePartial, 20)
	assert.Equal(t, "B", next["title"])
	assert.Equal(t, "http://a", next["url"])
	assert.Equal(t, int64(20), next.LastModified())
	assert.Equal(t, int64(10), next[FieldAddedOn])
}

func TestApplyUpdateFullReplacesFields(t *testing.T) {
	existing := Record{
		FieldID:           "r1",
		FieldOwnerID:      "bob",
		FieldAddedOn:      int64(10),
		FieldStoredOn:     int64(10),
		FieldLastModified: int64(10),
		"title":           "A",
		"url":             "http://a",
	}
	next := applyUpdate(existing, Record{"title": "B"}, UpdateModeFull, 20)
	assert.Equal(t, "B", next["title"])
	assert.NotContains(t, next, "url")
	assert.Equal(t, "r1", next.ID())
	assert.Equal(t, "bob", next.OwnerID())
	assert.Equal(t, int64(10), next[FieldStoredOn])
}

func TestApplyUpdateIgnoresIdentityFieldsInPayload(t *testing.T) {
	existing := Record{FieldID: "r1", FieldOwnerID: "bob", "title": "A"}
	payload := Record{FieldID: "other", FieldOwnerID: "alice", "title": "B"}
	for _, mode := range []UpdateMode{UpdateModePartial, UpdateModeFull} {
		next := applyUpdate(existing, payload, mode, 20)
		assert.Equal(t, "r1", next.ID())
		assert.Equal(t, "bob", next.OwnerID())
		assert.Equal(t, "B", next["title"])
	}
}

func TestMatchFilters(t *testing.T) {
	rec := Record{"unread": true, "status": float64(0), "title": "A"}
	assert.True(t, matchFilters(rec, nil))
	assert.True(t, matchFilters(rec, map[string]any{"unread": true}))
	assert.True(t, matchFilters(rec, map[string]any{"status": int64(0)}))
	assert.False(t, matchFilters(rec, map[string]any{"unread": false}))
	assert.False(t, matchFilters(rec, map[string]any{"title": "B"}))
	assert.False(t, matchFilters(rec, map[string]any{"missing": "x"}))
}
