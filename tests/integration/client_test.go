package integration

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/townsquared/community-client/internal/testutil"
	"github.com/townsquared/community-client/pkg/cache"
	"github.com/townsquared/community-client/pkg/client"
	"github.com/townsquared/community-client/pkg/netmon"
	"github.com/townsquared/community-client/pkg/prefetch"
	"github.com/townsquared/community-client/pkg/storage"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// onlineState is a usable wifi connection.
func onlineState() netmon.State {
	return netmon.State{
		Connected: true,
		Reachable: netmon.ReachabilityYes,
		Transport: netmon.TransportWifi,
	}
}

// setupClient wires a full client over a Redis-backed cache and a mock
// upstream, starting online.
func setupClient(t *testing.T, redisClient *redis.Client) (*client.Client, *netmon.Monitor, *testutil.MockAPI) {
	t.Helper()

	api := testutil.NewMockAPI()
	t.Cleanup(api.Close)

	monitor := netmon.NewMonitor(zerolog.Nop())
	monitor.Apply(onlineState())

	apiClient, err := client.New(client.Config{
		BaseURL:   api.URL(),
		Cache:     cache.NewStore(storage.NewRedis(redisClient), zerolog.Nop()),
		Monitor:   monitor,
		UserAgent: "community-client-test/1.0",
		Logger:    zerolog.Nop(),
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	return apiClient, monitor, api
}

// TestFullRequestFlow exercises the complete flow against real Redis:
// network fetch, cache write, cache hit, and offline fallback.
func TestFullRequestFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	apiClient, monitor, api := setupClient(t, redisClient)
	api.SetResponse("/api/cards", testutil.NewJSONResponse(`[{"id": 1, "title": "Plumber"}]`))

	ctx := context.Background()

	// First request hits the network and populates Redis.
	payload, err := apiClient.Get(ctx, "/api/cards", nil)
	if err != nil {
		t.Fatalf("First request failed: %v", err)
	}
	if string(payload) != `[{"id": 1, "title": "Plumber"}]` {
		t.Errorf("Unexpected payload: %s", payload)
	}
	if api.GetRequestCount() != 1 {
		t.Errorf("Request count = %d, want 1", api.GetRequestCount())
	}

	keys, err := redisClient.Keys(ctx, cache.Namespace+"*").Result()
	if err != nil {
		t.Fatalf("Failed to list Redis keys: %v", err)
	}
	if len(keys) != 1 {
		t.Errorf("Redis holds %d cache keys, want 1", len(keys))
	}

	// Going offline, the same read is served from Redis.
	monitor.Apply(netmon.State{Connected: false, Transport: netmon.TransportNone})

	payload, err = apiClient.Get(ctx, "/api/cards", nil)
	if err != nil {
		t.Fatalf("Offline request failed: %v", err)
	}
	if string(payload) != `[{"id": 1, "title": "Plumber"}]` {
		t.Errorf("Offline payload mismatch: %s", payload)
	}
	if api.GetRequestCount() != 1 {
		t.Errorf("Offline read reached the network, request count = %d", api.GetRequestCount())
	}
}

// TestCacheFallbackAfterServerError verifies Redis-backed fallback when
// the upstream starts failing.
func TestCacheFallbackAfterServerError(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	apiClient, _, api := setupClient(t, redisClient)
	api.SetResponse("/api/resources", testutil.NewJSONResponse(`{"resources": []}`))

	ctx := context.Background()

	if _, err := apiClient.Get(ctx, "/api/resources", nil); err != nil {
		t.Fatalf("Priming request failed: %v", err)
	}

	api.SetResponse("/api/resources", testutil.NewServerErrorResponse())

	payload, err := apiClient.Get(ctx, "/api/resources", nil)
	if err != nil {
		t.Fatalf("Expected cached fallback, got error: %v", err)
	}
	if string(payload) != `{"resources": []}` {
		t.Errorf("Fallback payload mismatch: %s", payload)
	}
}

// TestUnauthorizedBypassesRedisCache verifies a 401 is never masked by a
// cached response.
func TestUnauthorizedBypassesRedisCache(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	apiClient, _, api := setupClient(t, redisClient)
	api.SetResponse("/api/auth/me", testutil.NewJSONResponse(`{"user": "pat"}`))

	ctx := context.Background()

	if _, err := apiClient.Get(ctx, "/api/auth/me", nil); err != nil {
		t.Fatalf("Priming request failed: %v", err)
	}

	api.SetResponse("/api/auth/me", testutil.NewUnauthorizedResponse())

	_, err := apiClient.Get(ctx, "/api/auth/me", nil)
	if !client.IsKind(err, client.KindUnauthorized) {
		t.Fatalf("Expected unauthorized error, got %v", err)
	}
}

// TestPrefetchWarmsRedis verifies the warmer populates Redis so offline
// reads succeed without ever having been read directly.
func TestPrefetchWarmsRedis(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	apiClient, monitor, api := setupClient(t, redisClient)
	api.SetResponse("/api/tags", testutil.NewJSONResponse(`["plumbing", "daycare"]`))
	api.SetResponse("/api/resources", testutil.NewJSONResponse(`{"resources": []}`))

	ctx := context.Background()

	warmer := prefetch.NewWarmer(apiClient, prefetch.DefaultConfig(), zerolog.Nop())
	if warmed := warmer.Warm(ctx, []string{"/api/tags", "/api/resources"}); warmed != 2 {
		t.Fatalf("Warmed %d endpoints, want 2", warmed)
	}

	monitor.Apply(netmon.State{Connected: false, Transport: netmon.TransportNone})

	payload, err := apiClient.Get(ctx, "/api/tags", nil)
	if err != nil {
		t.Fatalf("Offline read of warmed endpoint failed: %v", err)
	}
	if string(payload) != `["plumbing", "daycare"]` {
		t.Errorf("Warmed payload mismatch: %s", payload)
	}
}

// TestTimeoutFallbackWithRedis verifies a slow upstream is covered by a
// previously cached response.
func TestTimeoutFallbackWithRedis(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	apiClient, _, api := setupClient(t, redisClient)
	api.SetResponse("/api/search", testutil.NewJSONResponse(`{"results": []}`))

	ctx := context.Background()

	if _, err := apiClient.Get(ctx, "/api/search", nil); err != nil {
		t.Fatalf("Priming request failed: %v", err)
	}

	api.SetResponse("/api/search", testutil.NewSlowResponse(`{"results": []}`, 500*time.Millisecond))

	payload, err := apiClient.Perform(ctx, "/api/search", client.RequestOptions{
		TimeoutOverride: 100 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Expected cached fallback after timeout, got %v", err)
	}
	if string(payload) != `{"results": []}` {
		t.Errorf("Fallback payload mismatch: %s", payload)
	}
}
