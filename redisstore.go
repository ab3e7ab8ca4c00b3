package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/go-redis/redis/v8"
)

// RedisStore persists records in Redis: one JSON value per record plus a
// per-partition index set. A local mutex serializes read-modify-write
// sequences, since a single process owns the cursor stamping anyway.
type RedisStore struct {
	client  *redis.Client
	stamper *Timestamper
	mu      sync.Mutex
}

// NewRedisStore creates a RedisStore stamping mutations from stamper.
func NewRedisStore(client *redis.Client, stamper *Timestamper) *RedisStore {
	return &RedisStore{client: client, stamper: stamper}
}

func recordKey(resource, ownerID, id string) string {
	return fmt.Sprintf("record:%s:%s:%s", resource, ownerID, id)
}

func indexKey(resource, ownerID string) string {
	return fmt.Sprintf("records:%s:%s", resource, ownerID)
}

// decodeRecord unmarshals a stored record and restores the integer stamps
// JSON decoding widened to float64. Shared with the SQLite backend.
func decodeRecord(data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, err
	}
	for _, f := range []string{FieldLastModified, FieldAddedOn, FieldStoredOn} {
		if v, ok := rec[f].(float64); ok {
			rec[f] = int64(v)
		}
	}
	return rec, nil
}

func (s *RedisStore) save(ctx context.Context, resource, ownerID string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, recordKey(resource, ownerID, rec.ID()), data, 0)
	pipe.SAdd(ctx, indexKey(resource, ownerID), rec.ID())
	_, err = pipe.Exec(ctx)
	return err
}

// Create stores a new record under a generated id.
func (s *RedisStore) Create(ctx context.Context, resource, ownerID string, payload Record) (Record, error) {
	rec := newRecord(payload, ownerID, newRecordID(), s.stamper.Now())
	if err := s.save(ctx, resource, ownerID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get returns the record if it exists for this owner.
func (s *RedisStore) Get(ctx context.Context, resource, ownerID, id string) (Record, error) {
	data, err := s.client.Get(ctx, recordKey(resource, ownerID, id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeRecord([]byte(data))
}

// Update merges or replaces the record's fields and re-stamps it.
func (s *RedisStore) Update(ctx context.Context, resource, ownerID, id string, payload Record, mode UpdateMode) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.Get(ctx, resource, ownerID, id)
	if err != nil {
		return nil, err
	}
	next := applyUpdate(existing, payload, mode, s.stamper.Now())
	if err := s.save(ctx, resource, ownerID, next); err != nil {
		return nil, err
	}
	return next, nil
}

// Delete removes the record and returns its final state.
func (s *RedisStore) Delete(ctx context.Context, resource, ownerID, id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, err := s.Get(ctx, resource, ownerID, id)
	if err != nil {
		return nil, err
	}
	pipe := s.client.Pipeline()
	pipe.Del(ctx, recordKey(resource, ownerID, id))
	pipe.SRem(ctx, indexKey(resource, ownerID), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return rec, nil
}

// List returns the owner's records matching filters, ordered by id.
func (s *RedisStore) List(ctx context.Context, resource, ownerID string, filters map[string]any) ([]Record, error) {
	ids, err := s.client.SMembers(ctx, indexKey(resource, ownerID)).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	out := []Record{}
	if len(ids) == 0 {
		return out, nil
	}
	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, recordKey(resource, ownerID, id))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			if err == redis.Nil {
				// index member with no value, racing delete
				continue
			}
			return nil, err
		}
		rec, err := decodeRecord([]byte(data))
		if err != nil {
			return nil, err
		}
		if matchFilters(rec, filters) {
			out = append(out, rec)
		}
	}
	return out, nil
}
