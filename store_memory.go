package persist

import (
	"context"

	gocache "github.com/patrickmn/go-cache"
)

// memoryStore keeps records for the life of the store only.
type memoryStore struct {
	cache *gocache.Cache
}

func newMemoryStore() Store {
	return &memoryStore{
		cache: gocache.New(gocache.NoExpiration, 0),
	}
}

func (s *memoryStore) Driver() Driver {
	return DriverMemory
}

func (s *memoryStore) Get(_ context.Context, name string) ([]byte, bool, error) {
	item, ok := s.cache.Get(name)
	if !ok {
		return nil, false, nil
	}
	body, ok := item.([]byte)
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(body), true, nil
}

func (s *memoryStore) Set(_ context.Context, name string, body []byte) error {
	s.cache.Set(name, cloneBytes(body), gocache.NoExpiration)
	return nil
}
