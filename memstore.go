package main

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps records in process memory. It is the default backend:
// a single RWMutex serializes mutations, which keeps every operation on a
// given record linearizable with respect to the others.
type MemoryStore struct {
	stamper *Timestamper

	mu      sync.RWMutex
	records map[string]map[string]Record // partition key -> id -> record
}

// NewMemoryStore creates an empty MemoryStore stamping mutations from
// stamper.
func NewMemoryStore(stamper *Timestamper) *MemoryStore {
	return &MemoryStore{
		stamper: stamper,
		records: make(map[string]map[string]Record),
	}
}

// partitionKey scopes storage by resource type and owner.
func partitionKey(resource, ownerID string) string {
	return resource + "/" + ownerID
}

// Create stores a new record under a generated id.
func (s *MemoryStore) Create(ctx context.Context, resource, ownerID string, payload Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec := newRecord(payload, ownerID, newRecordID(), s.stamper.Now())

	s.mu.Lock()
	defer s.mu.Unlock()
	key := partitionKey(resource, ownerID)
	part := s.records[key]
	if part == nil {
		part = make(map[string]Record)
		s.records[key] = part
	}
	part[rec.ID()] = rec
	return rec.Clone(), nil
}

// Get returns the record if it exists for this owner.
func (s *MemoryStore) Get(ctx context.Context, resource, ownerID, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[partitionKey(resource, ownerID)][id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

// Update merges or replaces the record's fields and re-stamps it.
func (s *MemoryStore) Update(ctx context.Context, resource, ownerID, id string, payload Record, mode UpdateMode) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	part := s.records[partitionKey(resource, ownerID)]
	existing, ok := part[id]
	if !ok {
		return nil, ErrNotFound
	}
	next := applyUpdate(existing, payload, mode, s.stamper.Now())
	part[id] = next
	return next.Clone(), nil
}

// Delete removes the record and returns its final state.
func (s *MemoryStore) Delete(ctx context.Context, resource, ownerID, id string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	part := s.records[partitionKey(resource, ownerID)]
	rec, ok := part[id]
	if !ok {
		return nil, ErrNotFound
	}
	delete(part, id)
	return rec, nil
}

// List returns the owner's records matching filters, ordered by id.
func (s *MemoryStore) List(ctx context.Context, resource, ownerID string, filters map[string]any) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []Record{}
	for _, rec := range s.records[partitionKey(resource, ownerID)] {
		if matchFilters(rec, filters) {
			out = append(out, rec.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}
