package persist

import "context"

// NewStore returns a concrete store for the requested driver.
// Caller is responsible for providing any driver-specific dependencies.
//
// A store that cannot be built is never returned as nil: the result reports
// the construction error from every call, which the Cache surfaces as a
// LoadError on first access and a SaveError on Sync.
//
// Example: select driver explicitly
//
//	ctx := context.Background()
//	store := persist.NewStore(ctx, persist.StoreConfig{
//		Driver:  persist.DriverFile,
//		FileDir: "/var/lib/myapp",
//	})
//	fmt.Println(store.Driver()) // file
func NewStore(ctx context.Context, cfg StoreConfig) Store {
	cfg = cfg.withDefaults()
	var (
		store Store
		err   error
	)
	switch cfg.Driver {
	case DriverNull:
		store = newNullStore()
	case DriverMemory:
		store = newMemoryStore()
	case DriverRedis:
		store = newRedisStore(cfg.RedisClient, cfg.Prefix)
	case DriverNATS:
		store = newNATSStore(cfg.NATSKeyValue, cfg.Prefix)
	case DriverSQL:
		store, err = newSQLStore(cfg)
	case DriverDynamo:
		store, err = newDynamoStore(ctx, cfg)
	default:
		store = newFileStore(cfg.FileDir, cfg.FileExtension)
	}
	if err != nil {
		return &errorStore{driver: cfg.Driver, err: err}
	}
	if store, err = newEncryptingStore(store, cfg.EncryptionKey); err != nil {
		return &errorStore{driver: cfg.Driver, err: err}
	}
	return store
}

// NewStoreWith builds a store using a driver and a set of functional options.
//
// Example: redis store (options)
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "127.0.0.1:6379"})
//	store := persist.NewStoreWith(ctx, persist.DriverRedis,
//		persist.WithRedisClient(redisClient),
//		persist.WithPrefix("myapp"),
//	)
//	fmt.Println(store.Driver()) // redis
func NewStoreWith(ctx context.Context, driver Driver, opts ...StoreOption) Store {
	cfg := StoreConfig{Driver: driver}
	for _, opt := range opts {
		cfg = opt(cfg)
	}
	return NewStore(ctx, cfg)
}

// NewFileStore is a convenience for a filesystem-backed store rooted at dir.
// An empty dir selects the executable's directory.
func NewFileStore(ctx context.Context, dir string, opts ...StoreOption) Store {
	return NewStoreWith(ctx, DriverFile, append([]StoreOption{WithFileDir(dir)}, opts...)...)
}

// NewMemoryStore is a convenience for a process-local store.
func NewMemoryStore(ctx context.Context, opts ...StoreOption) Store {
	return NewStoreWith(ctx, DriverMemory, opts...)
}

// NewNullStore returns a store that never finds a record and discards writes.
func NewNullStore() Store {
	return newNullStore()
}

// StoreErr returns the construction error carried by a store returned from
// NewStore, or nil when the store was built successfully.
func StoreErr(store Store) error {
	if es, ok := store.(*errorStore); ok {
		return es.err
	}
	return nil
}
