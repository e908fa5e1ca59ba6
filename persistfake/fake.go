package persistfake

import (
	"context"
	"sync"
	"testing"

	"github.com/goforj/persist"
)

// Op identifies a store operation for assertions.
type Op string

const (
	OpGet Op = "get"
	OpSet Op = "set"
)

// Driver is reported by the fake store.
const Driver persist.Driver = "fake"

// Store is a deterministic in-memory persist.Store with call counting and
// per-name failure injection, so no real backend is needed in tests.
type Store struct {
	mu      sync.Mutex
	records map[string][]byte
	counts  map[Op]map[string]int
	getErrs map[string]error
	setErrs map[string]error
}

var _ persist.Store = (*Store)(nil)

// New creates an empty fake store.
func New() *Store {
	return &Store{
		records: make(map[string][]byte),
		counts:  make(map[Op]map[string]int),
		getErrs: make(map[string]error),
		setErrs: make(map[string]error),
	}
}

// Driver implements persist.Store.
func (s *Store) Driver() persist.Driver { return Driver }

// Get implements persist.Store.
func (s *Store) Get(_ context.Context, name string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordLocked(OpGet, name)
	if err := s.getErrs[name]; err != nil {
		return nil, false, err
	}
	body, ok := s.records[name]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), body...), true, nil
}

// Set implements persist.Store.
func (s *Store) Set(_ context.Context, name string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordLocked(OpSet, name)
	if err := s.setErrs[name]; err != nil {
		return err
	}
	s.records[name] = append([]byte(nil), body...)
	return nil
}

// Seed stores body under name without counting a call.
func (s *Store) Seed(name string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[name] = append([]byte(nil), body...)
}

// Record returns the stored body for name without counting a call.
func (s *Store) Record(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.records[name]
	return append([]byte(nil), body...), ok
}

// FailGet makes every Get for name return err. A nil err clears the failure.
func (s *Store) FailGet(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.getErrs, name)
		return
	}
	s.getErrs[name] = err
}

// FailSet makes every Set for name return err. A nil err clears the failure.
func (s *Store) FailSet(name string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.setErrs, name)
		return
	}
	s.setErrs[name] = err
}

// Reset clears recorded counts.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts = make(map[Op]map[string]int)
}

// Count returns calls for op+name.
func (s *Store) Count(op Op, name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[op][name]
}

// Total returns total calls for op across names.
func (s *Store) Total(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.counts[op] {
		total += n
	}
	return total
}

// AssertCalled verifies name was touched by op the expected number of times.
func (s *Store) AssertCalled(t testing.TB, op Op, name string, times int) {
	t.Helper()
	if got := s.Count(op, name); got != times {
		t.Fatalf("expected %s %q called %d times, got %d", op, name, times, got)
	}
}

// AssertNotCalled ensures name was never touched by op.
func (s *Store) AssertNotCalled(t testing.TB, op Op, name string) {
	t.Helper()
	if got := s.Count(op, name); got != 0 {
		t.Fatalf("expected %s %q not called, got %d", op, name, got)
	}
}

// AssertTotal ensures the total call count for an op matches times.
func (s *Store) AssertTotal(t testing.TB, op Op, times int) {
	t.Helper()
	if got := s.Total(op); got != times {
		t.Fatalf("expected %s total=%d, got %d", op, times, got)
	}
}

func (s *Store) recordLocked(op Op, name string) {
	if s.counts[op] == nil {
		s.counts[op] = make(map[string]int)
	}
	s.counts[op][name]++
}
