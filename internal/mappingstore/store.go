// Package mappingstore keeps anonymization mappings between the anonymize and
// restore jobs of one process instance. Mappings hold original personal
// values, so they live only in Redis with a TTL and are deleted when read.
package mappingstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"enrichment-workers/internal/anonymizer"
	"enrichment-workers/internal/common/database"
)

var (
	ErrMappingNotFound = errors.New("mapping not found or expired")
	ErrInvalidRef      = errors.New("invalid mapping reference")
)

// Store hands out opaque references for mappings.
type Store interface {
	Put(ctx context.Context, m *anonymizer.Mapping) (string, error)
	Take(ctx context.Context, ref string) (*anonymizer.Mapping, error)
}

// RedisStore stores serialized mappings under prefix+ref.
type RedisStore struct {
	redis  *database.RedisClient
	prefix string
	ttl    time.Duration
	newRef func() string
}

func NewRedisStore(rc *database.RedisClient, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		redis:  rc,
		prefix: prefix,
		ttl:    ttl,
		newRef: uuid.NewString,
	}
}

// Put stores m and returns its reference. An empty mapping is stored too so
// that restore never has to special-case it.
func (s *RedisStore) Put(ctx context.Context, m *anonymizer.Mapping) (string, error) {
	if m == nil {
		m = anonymizer.NewMapping()
	}
	payload, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode mapping: %w", err)
	}

	for attempt := 0; attempt < 3; attempt++ {
		ref := s.newRef()
		ok, err := s.redis.SetNX(ctx, s.prefix+ref, payload, s.ttl)
		if err != nil {
			return "", fmt.Errorf("store mapping: %w", err)
		}
		if ok {
			return ref, nil
		}
	}
	return "", fmt.Errorf("store mapping: reference collision")
}

// Take returns the mapping for ref and deletes it. A second Take of the same
// ref returns ErrMappingNotFound.
func (s *RedisStore) Take(ctx context.Context, ref string) (*anonymizer.Mapping, error) {
	if _, err := uuid.Parse(ref); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}

	payload, err := s.redis.GetDel(ctx, s.prefix+ref)
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, ErrMappingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load mapping: %w", err)
	}

	m := anonymizer.NewMapping()
	if err := json.Unmarshal(payload, m); err != nil {
		return nil, fmt.Errorf("decode mapping: %w", err)
	}
	return m, nil
}
