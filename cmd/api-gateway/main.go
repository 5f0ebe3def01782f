// Command api-gateway exposes the resilient community API client as a
// small HTTP service: requests under /api/ are proxied upstream with
// per-endpoint timeouts and Redis-backed cache fallback.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/townsquared/community-client/pkg/cache"
	"github.com/townsquared/community-client/pkg/client"
	"github.com/townsquared/community-client/pkg/logging"
	"github.com/townsquared/community-client/pkg/netmon"
	"github.com/townsquared/community-client/pkg/storage"
)

func main() {
	// Configuration from environment
	upstreamURL := getEnv("UPSTREAM_URL", "https://api.townsquared.com")
	redisURL := getEnv("REDIS_URL", "localhost:6379")
	port := getEnv("PORT", "8080")
	userAgent := getEnv("USER_AGENT", "townsquared-gateway/0.1.0")
	logLevel := getEnv("LOG_LEVEL", "info")

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(logLevel),
		Output: os.Stderr,
	})

	// Setup Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Str("addr", redisURL).Msg("Failed to connect to Redis")
	}
	logger.Info().Str("addr", redisURL).Msg("Connected to Redis")

	store := cache.NewStore(storage.NewRedis(redisClient), logger)

	// The gateway runs server-side on a wired link; connectivity starts
	// usable and only the Redis health probe gates readiness.
	monitor := netmon.NewMonitor(logger)
	monitor.Apply(netmon.State{
		Connected: true,
		Reachable: netmon.ReachabilityYes,
		Transport: netmon.TransportOther,
	})

	apiClient, err := client.New(client.Config{
		BaseURL:   upstreamURL,
		Cache:     store,
		Monitor:   monitor,
		UserAgent: userAgent,
		Logger:    logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create API client")
	}

	// HTTP Server
	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/ready", readyHandler(redisClient))
	http.Handle("/metrics", promhttp.Handler())
	http.HandleFunc("/api/", apiProxyHandler(apiClient))

	addr := ":" + port
	logger.Info().
		Str("addr", addr).
		Str("upstream", upstreamURL).
		Str("user_agent", userAgent).
		Msg("Starting API gateway")

	if err := http.ListenAndServe(addr, nil); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// readyHandler reports ready only while the cache backend answers.
func readyHandler(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := redisClient.Ping(r.Context()).Err(); err != nil {
			http.Error(w, "Redis unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}

// apiProxyHandler forwards GET requests under /api/ through the
// resilient client, so gateway consumers get cache fallback for free.
func apiProxyHandler(apiClient *client.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "only GET is proxied", http.StatusMethodNotAllowed)
			return
		}

		payload, err := apiClient.Get(r.Context(), r.URL.Path, r.URL.Query())
		if err != nil {
			http.Error(w, err.Error(), mapStatus(err))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(payload); err != nil {
			return
		}
	}
}

// mapStatus translates a client error into the gateway response status.
func mapStatus(err error) int {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return http.StatusBadGateway
	}
	switch apiErr.Kind {
	case client.KindUnauthorized:
		return http.StatusUnauthorized
	case client.KindTimeout:
		return http.StatusGatewayTimeout
	case client.KindNetworkUnusable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
