// Package bootstrap wires a persist cache from host configuration.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/goforj/persist"
	"github.com/goforj/persist/internal/config"
)

// Runtime is a ready-to-use cache together with the resources backing it.
type Runtime struct {
	Cache *persist.Cache
	Store persist.Store
	Hook  *persist.ExitHook

	closers []io.Closer
	logger  *zap.Logger
}

// Open builds the store selected by cfg and a cache attached to a fresh exit
// hook. The observer may be nil.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger, observer persist.Observer) (*Runtime, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	codec, err := persist.CodecByName(cfg.Persist.Codec)
	if err != nil {
		return nil, err
	}
	key, err := cfg.Persist.Key()
	if err != nil {
		return nil, err
	}

	rt := &Runtime{Hook: persist.NewExitHook(), logger: logger}
	opts := []persist.StoreOption{
		persist.WithPrefix(cfg.Persist.Prefix),
		persist.WithEncryptionKey(key),
	}
	driverOpts, err := rt.driverOptions(ctx, cfg, codec)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	store := persist.NewStoreWith(ctx, persist.Driver(cfg.Persist.Driver), append(opts, driverOpts...)...)
	if err := persist.StoreErr(store); err != nil {
		_ = rt.Close()
		return nil, fmt.Errorf("open %s store: %w", cfg.Persist.Driver, err)
	}
	if closer, ok := store.(io.Closer); ok {
		rt.closers = append(rt.closers, closer)
	}

	mode := persist.ModeNormal
	if cfg.Persist.Bypass {
		mode = persist.ModeBypass
	}
	cacheOpts := []persist.Option{
		persist.WithMode(mode),
		persist.WithCodec(codec),
		persist.WithLogger(logger),
		persist.WithExitHook(rt.Hook),
	}
	if observer != nil {
		cacheOpts = append(cacheOpts, persist.WithObserver(observer))
	}
	rt.Store = store
	rt.Cache = persist.New(store, cacheOpts...)

	logger.Info("persist cache ready",
		zap.String("driver", string(store.Driver())),
		zap.String("codec", codec.Name()),
		zap.Stringer("mode", mode),
		zap.Bool("encrypted", len(key) > 0),
	)
	return rt, nil
}

func (rt *Runtime) driverOptions(ctx context.Context, cfg *config.Config, codec persist.Codec) ([]persist.StoreOption, error) {
	switch persist.Driver(cfg.Persist.Driver) {
	case persist.DriverFile, "":
		return []persist.StoreOption{
			persist.WithFileDir(cfg.Persist.Dir),
			persist.WithFileExtension(codec.Extension()),
		}, nil
	case persist.DriverMemory, persist.DriverNull:
		return nil, nil
	case persist.DriverRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		rt.closers = append(rt.closers, client)
		return []persist.StoreOption{persist.WithRedisClient(client)}, nil
	case persist.DriverSQL:
		return []persist.StoreOption{persist.WithSQL(cfg.SQL.Driver, cfg.SQL.DSN, cfg.SQL.Table)}, nil
	case persist.DriverNATS:
		kv, err := rt.openNATS(ctx, cfg.NATS)
		if err != nil {
			return nil, err
		}
		return []persist.StoreOption{persist.WithNATSKeyValue(kv)}, nil
	case persist.DriverDynamo:
		return []persist.StoreOption{
			persist.WithDynamoRegion(cfg.Dynamo.Region),
			persist.WithDynamoEndpoint(cfg.Dynamo.Endpoint),
			persist.WithDynamoTable(cfg.Dynamo.Table),
		}, nil
	default:
		return nil, fmt.Errorf("unknown persist driver %q", cfg.Persist.Driver)
	}
}

// openNATS binds the JetStream key-value bucket, creating it on first use.
func (rt *Runtime) openNATS(ctx context.Context, cfg config.NATSConfig) (nats.KeyValue, error) {
	timeout := 5 * time.Second
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d > 0 {
			timeout = d
		}
	}
	nc, err := nats.Connect(cfg.URL, nats.Timeout(timeout), nats.Name("persist"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	rt.closers = append(rt.closers, natsCloser{nc})

	js, err := nc.JetStream()
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	kv, err := js.KeyValue(cfg.Bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{Bucket: cfg.Bucket})
	}
	if err != nil {
		return nil, fmt.Errorf("bind nats bucket %q: %w", cfg.Bucket, err)
	}
	return kv, nil
}

// Shutdown fires the exit hook, flushing the cache, then releases resources.
func (rt *Runtime) Shutdown() error {
	rt.Hook.Fire()
	return rt.Close()
}

// Close releases clients and connections in reverse order of acquisition.
func (rt *Runtime) Close() error {
	var errs []error
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	if err := errors.Join(errs...); err != nil {
		rt.logger.Warn("persist runtime close failed", zap.Error(err))
		return err
	}
	return nil
}

type natsCloser struct{ nc *nats.Conn }

func (c natsCloser) Close() error {
	c.nc.Close()
	return nil
}
