package main

import "context"

// UpdateMode selects between merging into and replacing a record's fields.
type UpdateMode int

const (
	// UpdateModePartial merges the payload into the existing fields.
	UpdateModePartial UpdateMode = iota
	// UpdateModeFull replaces every non-identity field with the payload.
	UpdateModeFull
)

// Store persists records partitioned by (resource type, owner id).
//
// Ownership hides existence: Get, Update and Delete report ErrNotFound for
// records owned by another identity, indistinguishable from records that do
// not exist. Each mutation is atomic with respect to other operations on the
// same record and stamps last_modified from the shared Timestamper.
type Store interface {
	// Create assigns a fresh id, sets owner and creation stamps, and stores
	// the payload. Ids are generated, never caller-supplied, so creation
	// cannot fail on a duplicate.
	Create(ctx context.Context, resource, ownerID string, payload Record) (Record, error)

	// Get returns the record if it exists and belongs to ownerID.
	Get(ctx context.Context, resource, ownerID, id string) (Record, error)

	// Update merges (partial) or replaces (full) the record's non-identity
	// fields and re-stamps last_modified. The record's id, owner_id and
	// creation-time fields are never altered, even if present in payload.
	Update(ctx context.Context, resource, ownerID, id string, payload Record, mode UpdateMode) (Record, error)

	// Delete removes the record and returns its final state.
	Delete(ctx context.Context, resource, ownerID, id string) (Record, error)

	// List returns the owner's records for resource, restricted to those
	// matching every equality filter. A nil filter set returns all of them.
	List(ctx context.Context, resource, ownerID string, filters map[string]any) ([]Record, error)
}
