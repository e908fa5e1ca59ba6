package persist

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestNewStoreSelectsDriver(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		cfg  StoreConfig
		want Driver
	}{
		{StoreConfig{}, DriverFile},
		{StoreConfig{Driver: DriverFile, FileDir: t.TempDir()}, DriverFile},
		{StoreConfig{Driver: DriverMemory}, DriverMemory},
		{StoreConfig{Driver: DriverNull}, DriverNull},
		{StoreConfig{Driver: DriverRedis, RedisClient: newStubRedisClient()}, DriverRedis},
		{StoreConfig{Driver: DriverNATS, NATSKeyValue: newStubNATSKeyValue("b")}, DriverNATS},
		{StoreConfig{Driver: DriverDynamo, DynamoClient: newStubDynamo()}, DriverDynamo},
	}
	for _, tc := range cases {
		store := NewStore(ctx, tc.cfg)
		if store.Driver() != tc.want {
			t.Fatalf("driver %q: got %s", tc.cfg.Driver, store.Driver())
		}
		if err := StoreErr(store); err != nil {
			t.Fatalf("driver %q: unexpected construction error %v", tc.cfg.Driver, err)
		}
	}
}

func TestNewStoreWithSQL(t *testing.T) {
	dsn := "file:" + filepath.Join(t.TempDir(), "persist.db")
	store := NewStoreWith(context.Background(), DriverSQL, WithSQL("sqlite", dsn, ""), WithPrefix("app"))
	if err := StoreErr(store); err != nil {
		t.Fatalf("sql store: %v", err)
	}
	s, ok := store.(*sqlStore)
	if !ok {
		t.Fatalf("expected *sqlStore, got %T", store)
	}
	defer s.Close()
	if s.table != defaultSQLTable || s.prefix != "app" {
		t.Fatalf("unexpected sql config: table=%q prefix=%q", s.table, s.prefix)
	}
}

func TestNewFileStoreOptions(t *testing.T) {
	dir := t.TempDir()
	store := NewFileStore(context.Background(), dir, WithFileExtension(".yaml"))
	fs, ok := store.(*fileStore)
	if !ok {
		t.Fatalf("expected *fileStore, got %T", store)
	}
	if fs.dir != dir || fs.ext != ".yaml" {
		t.Fatalf("unexpected file store config: dir=%q ext=%q", fs.dir, fs.ext)
	}
}

func TestErrorStoreSurfacesConstructionError(t *testing.T) {
	boom := errors.New("boom")
	store := &errorStore{driver: DriverRedis, err: boom}
	if store.Driver() != DriverRedis {
		t.Fatalf("expected driver identity preserved")
	}
	if _, _, err := store.Get(context.Background(), "x"); !errors.Is(err, boom) {
		t.Fatalf("expected get error, got %v", err)
	}
	if err := store.Set(context.Background(), "x", nil); !errors.Is(err, boom) {
		t.Fatalf("expected set error, got %v", err)
	}
	if !errors.Is(StoreErr(store), boom) {
		t.Fatalf("expected StoreErr to expose construction error")
	}
	if StoreErr(NewNullStore()) != nil {
		t.Fatalf("expected nil StoreErr for working store")
	}
}

func TestCacheOverErrorStore(t *testing.T) {
	ctx := context.Background()
	c := New(NewStore(ctx, StoreConfig{Driver: DriverSQL}))
	if _, err := Get[codecSettings](c, "settings"); !errors.Is(err, ErrLoad) {
		t.Fatalf("expected load error from failed store, got %v", err)
	}
}
