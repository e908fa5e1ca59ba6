//go:build integration

package persist

import (
	"context"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	testcontainers "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/goforj/persist/persisttest"
)

type integrationContainer struct {
	container testcontainers.Container
	addr      string
}

var integrationEnv = map[string]*integrationContainer{}

func TestMain(m *testing.M) {
	ctx := context.Background()
	requests := map[string]testcontainers.ContainerRequest{
		"redis": {
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
		},
		"nats": {
			Image:        "nats:2-alpine",
			Cmd:          []string{"-js"},
			ExposedPorts: []string{"4222/tcp"},
			WaitingFor:   wait.ForListeningPort("4222/tcp").WithStartupTimeout(30 * time.Second),
		},
		"postgres": {
			Image:        "postgres:16-alpine",
			Env:          map[string]string{"POSTGRES_PASSWORD": "persist", "POSTGRES_DB": "persist"},
			ExposedPorts: []string{"5432/tcp"},
			WaitingFor:   wait.ForLog("database system is ready to accept connections").WithOccurrence(2).WithStartupTimeout(60 * time.Second),
		},
	}
	for name, req := range requests {
		if !integrationDriverEnabled(name) {
			continue
		}
		c, err := startContainer(ctx, req)
		if err != nil {
			_, _ = os.Stderr.WriteString("failed to start " + name + " integration container: " + err.Error() + "\n")
			os.Exit(1)
		}
		integrationEnv[name] = c
	}

	exitCode := m.Run()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, c := range integrationEnv {
		_ = c.container.Terminate(shutdownCtx)
	}
	os.Exit(exitCode)
}

// integrationDriverEnabled reads INTEGRATION_DRIVER, which may be "all"
// (default) or a comma-separated list such as "redis,nats".
func integrationDriverEnabled(name string) bool {
	value := strings.TrimSpace(strings.ToLower(os.Getenv("INTEGRATION_DRIVER")))
	if value == "" || value == "all" {
		return true
	}
	for _, part := range strings.Split(value, ",") {
		if strings.TrimSpace(part) == name {
			return true
		}
	}
	return false
}

func startContainer(ctx context.Context, req testcontainers.ContainerRequest) (*integrationContainer, error) {
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, err
	}
	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	port, err := container.MappedPort(ctx, nat.Port(req.ExposedPorts[0]))
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	return &integrationContainer{container: container, addr: net.JoinHostPort(host, port.Port())}, nil
}

func requireContainer(t *testing.T, name string) *integrationContainer {
	t.Helper()
	c, ok := integrationEnv[name]
	if !ok {
		t.Skipf("%s integration disabled", name)
	}
	return c
}

func TestIntegrationRedisStore(t *testing.T) {
	c := requireContainer(t, "redis")
	client := redis.NewClient(&redis.Options{Addr: c.addr})
	t.Cleanup(func() { _ = client.Close() })

	store := NewStoreWith(context.Background(), DriverRedis, WithRedisClient(client), WithPrefix("it"))
	persisttest.RunStoreContract(t, store, persisttest.Options{})
	assertCacheRoundTrip(t, store)
}

func TestIntegrationNATSStore(t *testing.T) {
	c := requireContainer(t, "nats")
	nc, err := nats.Connect("nats://" + c.addr)
	if err != nil {
		t.Fatalf("nats connect: %v", err)
	}
	t.Cleanup(nc.Close)
	js, err := nc.JetStream()
	if err != nil {
		t.Fatalf("jetstream: %v", err)
	}
	kv, err := js.CreateKeyValue(&nats.KeyValueConfig{Bucket: "persist_it"})
	if err != nil {
		t.Fatalf("create kv: %v", err)
	}

	store := NewStoreWith(context.Background(), DriverNATS, WithNATSKeyValue(kv))
	persisttest.RunStoreContract(t, store, persisttest.Options{})
	assertCacheRoundTrip(t, store)
}

func TestIntegrationPostgresStore(t *testing.T) {
	c := requireContainer(t, "postgres")
	dsn := "postgres://postgres:persist@" + c.addr + "/persist?sslmode=disable"
	store := NewStoreWith(context.Background(), DriverSQL, WithSQL("pgx", dsn, ""))
	if err := StoreErr(store); err != nil {
		t.Fatalf("postgres store: %v", err)
	}
	t.Cleanup(func() { _ = store.(*sqlStore).Close() })

	persisttest.RunStoreContract(t, store, persisttest.Options{})
	assertCacheRoundTrip(t, store)
}

func assertCacheRoundTrip(t *testing.T, store Store) {
	t.Helper()
	name := "roundtrip/" + strings.ReplaceAll(t.Name(), "/", "_")

	first := New(store)
	s, err := Get[codecSettings](first, name)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	s.Theme, s.FontSize = "dark", 13
	if err := first.Sync().Err(); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	again, err := Get[codecSettings](New(store), name)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if again.Theme != "dark" || again.FontSize != 13 {
		t.Fatalf("unexpected reload: %+v", again)
	}
}
