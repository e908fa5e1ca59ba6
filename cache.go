package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Mode selects whether the cache touches its store at all.
type Mode int

const (
	// ModeNormal loads from and writes to the store.
	ModeNormal Mode = iota
	// ModeBypass hands out fresh default values and never reads or writes,
	// for hosts such as designers or harnesses that must not persist.
	ModeBypass
)

func (m Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeBypass:
		return "bypass"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// State is the lifecycle state of a Cache.
type State int

const (
	StateActive State = iota + 1
	StateFlushing
	// StateClosed is entered after the exit-triggered flush.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateFlushing:
		return "flushing"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var errEmptyRecord = errors.New("record is empty")

// Cache serves one shared value per name for the lifetime of the process.
//
// Values are loaded on first access and written back by Sync. Callers mutate
// the returned value in place; coordinating those mutations with a concurrent
// Sync is up to the caller.
type Cache struct {
	store    Store
	codec    Codec
	mode     Mode
	logger   *zap.Logger
	observer Observer

	mu      sync.Mutex
	entries map[string]*entry
	state   State

	// flushMu serializes Sync calls.
	flushMu sync.Mutex
}

type entry struct {
	typ   reflect.Type
	ready chan struct{}
	// value, err and abandoned are set once, before ready is closed.
	value any
	err   error
	// abandoned marks a load cut short by its caller's context.
	abandoned bool
}

// New creates a cache bound to store. A nil store behaves like the null store.
//
// Example: file-backed cache flushed at exit
//
//	ctx := context.Background()
//	hook := persist.NewExitHook()
//	c := persist.New(persist.NewFileStore(ctx, "/var/lib/myapp"), persist.WithExitHook(hook))
//	fmt.Println(c.Driver()) // file
func New(store Store, opts ...Option) *Cache {
	cfg := cacheConfig{
		mode:   ModeNormal,
		codec:  XMLCodec,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	if store == nil {
		store = newNullStore()
	}
	if cfg.codec == nil {
		cfg.codec = XMLCodec
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	c := &Cache{
		store:    store,
		codec:    cfg.codec,
		mode:     cfg.mode,
		logger:   cfg.logger,
		observer: cfg.observer,
		entries:  make(map[string]*entry),
		state:    StateActive,
	}
	if ext, ok := fileExtension(store); ok && ext != c.codec.Extension() {
		c.logger.Warn("persist: file extension does not match codec",
			zap.String("extension", ext),
			zap.String("codec", c.codec.Name()),
			zap.String("codec_extension", c.codec.Extension()),
		)
	}
	for _, l := range cfg.hooks {
		c.Attach(l)
	}
	return c
}

// fileExtension reports the record extension of a file store, looking through
// the encryption wrapper.
func fileExtension(store Store) (string, bool) {
	switch s := store.(type) {
	case *fileStore:
		return s.ext, true
	case *encryptingStore:
		return fileExtension(s.inner)
	default:
		return "", false
	}
}

// Store returns the underlying store implementation.
func (c *Cache) Store() Store {
	return c.store
}

// Driver reports the underlying store driver.
func (c *Cache) Driver() Driver {
	return c.store.Driver()
}

// Codec returns the codec used for records.
func (c *Cache) Codec() Codec {
	return c.codec
}

// Mode reports the mode the cache was built with.
func (c *Cache) Mode() Mode {
	return c.mode
}

// State reports the current lifecycle state.
func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Names returns the sorted names of all loaded entries.
func (c *Cache) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := c.readyLocked()
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.name)
	}
	return names
}

// Get returns the shared value stored under name, loading it on first access.
//
// Example: load settings
//
//	c := persist.New(persist.NewMemoryStore(ctx))
//	s, _ := persist.Get[Settings](c, "settings")
//	s.Theme = "dark"
//	again, _ := persist.Get[Settings](c, "settings")
//	fmt.Println(again.Theme) // dark
func Get[T any](c *Cache, name string) (*T, error) {
	return GetCtx[T](context.Background(), c, name)
}

// GetCtx is the context-aware variant of Get. The context bounds the store read
// on first access and the wait for a load started by another caller. A load
// abandoned because its caller's context ended returns that context error
// rather than a LoadError, and callers waiting on it start a load of their own.
func GetCtx[T any](ctx context.Context, c *Cache, name string) (*T, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if c.mode == ModeBypass {
		return new(T), nil
	}
	start := time.Now()
	want := reflect.TypeFor[T]()

	for {
		c.mu.Lock()
		e, hit := c.entries[name]
		if !hit {
			e = &entry{typ: want, ready: make(chan struct{})}
			c.entries[name] = e
		}
		c.mu.Unlock()

		if e.typ != want {
			err := &TypeMismatchError{Name: name, Stored: e.typ, Requested: want}
			c.observe(ctx, OpGet, name, hit, err, start)
			return nil, err
		}

		if !hit {
			fillEntry[T](ctx, c, name, e)
		} else {
			select {
			case <-e.ready:
			case <-ctx.Done():
				c.observe(ctx, OpGet, name, hit, ctx.Err(), start)
				return nil, ctx.Err()
			}
			if e.abandoned && ctx.Err() == nil {
				continue
			}
		}
		if e.err != nil {
			c.observe(ctx, OpGet, name, hit, e.err, start)
			return nil, e.err
		}
		c.observe(ctx, OpGet, name, hit, nil, start)
		return e.value.(*T), nil
	}
}

// GetDefault is Get with the name derived from T's type name.
func GetDefault[T any](c *Cache) (*T, error) {
	return GetDefaultCtx[T](context.Background(), c)
}

// GetDefaultCtx is the context-aware variant of GetDefault.
func GetDefaultCtx[T any](ctx context.Context, c *Cache) (*T, error) {
	name, err := NameOf[T]()
	if err != nil {
		return nil, err
	}
	return GetCtx[T](ctx, c, name)
}

// fillEntry loads the reserved entry and publishes the outcome. A failed load
// is unregistered before waiters wake so the next Get tries again.
func fillEntry[T any](ctx context.Context, c *Cache, name string, e *entry) {
	settled := false
	defer func() {
		if settled {
			return
		}
		r := recover()
		c.settle(name, e, nil, &LoadError{Name: name, Err: fmt.Errorf("panic: %v", r)})
		panic(r)
	}()
	value, err := load[T](ctx, c, name)
	if err != nil {
		e.abandoned = ctx.Err() != nil && errors.Is(err, ctx.Err())
		c.settle(name, e, nil, err)
	} else {
		c.settle(name, e, value, nil)
	}
	settled = true
}

func (c *Cache) settle(name string, e *entry, value any, err error) {
	e.value, e.err = value, err
	if err != nil {
		c.mu.Lock()
		if c.entries[name] == e {
			delete(c.entries, name)
		}
		c.mu.Unlock()
	}
	close(e.ready)
}

func load[T any](ctx context.Context, c *Cache, name string) (*T, error) {
	start := time.Now()
	body, ok, err := c.store.Get(ctx, name)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			c.observe(ctx, OpLoad, name, false, err, start)
			return nil, err
		}
		err = &LoadError{Name: name, Err: err}
		c.observe(ctx, OpLoad, name, false, err, start)
		return nil, err
	}
	value := new(T)
	if !ok {
		c.logger.Debug("persist: no record, using default", zap.String("name", name))
		c.observe(ctx, OpLoad, name, false, nil, start)
		return value, nil
	}
	if len(bytes.TrimSpace(body)) == 0 {
		err = &LoadError{Name: name, Err: errEmptyRecord}
		c.observe(ctx, OpLoad, name, true, err, start)
		return nil, err
	}
	if err := c.codec.Unmarshal(body, value); err != nil {
		err = &LoadError{Name: name, Err: err}
		c.observe(ctx, OpLoad, name, true, err, start)
		return nil, err
	}
	c.logger.Debug("persist: loaded record", zap.String("name", name), zap.Int("bytes", len(body)))
	c.observe(ctx, OpLoad, name, true, nil, start)
	return value, nil
}

// Sync writes every loaded entry back to the store using background context.
func (c *Cache) Sync() SyncResult {
	return c.SyncCtx(context.Background())
}

// SyncCtx writes every loaded entry back to the store. A failing entry does
// not stop the others. In bypass mode nothing is written.
func (c *Cache) SyncCtx(ctx context.Context) SyncResult {
	if c.mode == ModeBypass {
		return SyncResult{}
	}
	start := time.Now()

	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	pending := c.readyLocked()
	prev := c.state
	c.state = StateFlushing
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.state = prev
		c.mu.Unlock()
	}()

	result := SyncResult{Results: make([]SaveResult, 0, len(pending))}
	for _, p := range pending {
		result.Results = append(result.Results, SaveResult{Name: p.name, Err: c.save(ctx, p.name, p.value)})
	}
	c.observe(ctx, OpSync, "", false, result.Err(), start)
	return result
}

func (c *Cache) save(ctx context.Context, name string, value any) error {
	start := time.Now()
	body, err := c.codec.Marshal(value)
	if err == nil {
		err = c.store.Set(ctx, name, body)
	}
	if err != nil {
		err = &SaveError{Name: name, Err: err}
		c.observe(ctx, OpSave, name, false, err, start)
		return err
	}
	c.logger.Debug("persist: saved record", zap.String("name", name), zap.Int("bytes", len(body)))
	c.observe(ctx, OpSave, name, false, nil, start)
	return nil
}

// Attach registers the exit flush with l. Failures during that flush are
// logged and discarded so they never block shutdown.
func (c *Cache) Attach(l Lifecycle) {
	if l == nil {
		return
	}
	l.OnExit(c.syncOnExit)
}

func (c *Cache) syncOnExit() {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("persist: exit flush panicked", zap.Any("panic", r))
		}
		c.mu.Lock()
		c.state = StateClosed
		c.mu.Unlock()
	}()
	result := c.SyncCtx(context.Background())
	failed := result.Failed()
	for _, f := range failed {
		c.logger.Warn("persist: exit flush failed", zap.String("name", f.Name), zap.Error(f.Err))
	}
	if len(failed) == 0 {
		c.logger.Debug("persist: exit flush complete", zap.Int("entries", len(result.Results)))
	}
}

type namedValue struct {
	name  string
	value any
}

// readyLocked returns successfully loaded entries sorted by name. c.mu must be held.
func (c *Cache) readyLocked() []namedValue {
	out := make([]namedValue, 0, len(c.entries))
	for name, e := range c.entries {
		select {
		case <-e.ready:
		default:
			continue
		}
		if e.err != nil {
			continue
		}
		out = append(out, namedValue{name: name, value: e.value})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

func (c *Cache) observe(ctx context.Context, op, name string, hit bool, err error, start time.Time) {
	if c.observer == nil {
		return
	}
	c.observer.OnPersistOp(ctx, op, name, hit, err, time.Since(start), c.Driver())
}
