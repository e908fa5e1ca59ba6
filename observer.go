package persist

import (
	"context"
	"time"
)

// Operation names reported to observers.
const (
	OpGet  = "get"
	OpLoad = "load"
	OpSave = "save"
	OpSync = "sync"
)

// Observer receives events for cache operations.
// It is called after each operation completes. For OpGet hit reports that the
// entry was already loaded; for OpLoad it reports that a record existed.
type Observer interface {
	OnPersistOp(ctx context.Context, op string, name string, hit bool, err error, dur time.Duration, driver Driver)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, op string, name string, hit bool, err error, dur time.Duration, driver Driver)

// OnPersistOp implements Observer.
func (f ObserverFunc) OnPersistOp(ctx context.Context, op string, name string, hit bool, err error, dur time.Duration, driver Driver) {
	if f == nil {
		return
	}
	f(ctx, op, name, hit, err, dur, driver)
}
