// tokenroll-loadtest seeds refresh tokens and hammers Rotate from many
// workers, reporting throughput and latency percentiles. With no Redis
// address it runs against an embedded miniredis.
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	tokenroll "github.com/ethr-lab/tokenroll"
)

func main() {
	var (
		sessions    = flag.Int("sessions", 10000, "number of refresh tokens to seed")
		concurrency = flag.Int("concurrency", 128, "number of concurrent workers")
		rotations   = flag.Int("rotations", 100000, "total rotations to perform")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *rotations <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and rotations must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var cleanup func()
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		cleanup = mr.Close
	}
	if cleanup != nil {
		defer cleanup()
	}

	client := redis.NewClient(&redis.Options{Addr: addr, PoolSize: *concurrency * 2})
	defer client.Close()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "keygen: %v\n", err)
		os.Exit(1)
	}

	cfg := tokenroll.DefaultConfig()
	cfg.JWT.PrivateKey = priv
	cfg.JWT.PublicKey = pub
	cfg.JWT.Issuer = "loadtest"
	cfg.Metrics.EnableLatencyHistograms = true

	engine, err := tokenroll.New().WithRedis(client).WithConfig(cfg).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	fmt.Printf("seeding %d sessions...\n", *sessions)
	tokens := make(chan string, *sessions)
	for i := 0; i < *sessions; i++ {
		pair, err := engine.Issue(ctx, fmt.Sprintf("subject-%d", i))
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed %d: %v\n", i, err)
			os.Exit(1)
		}
		tokens <- pair.RefreshToken
	}

	fmt.Printf("rotating %d times across %d workers...\n", *rotations, *concurrency)

	var (
		wg        sync.WaitGroup
		performed atomic.Int64
		failures  atomic.Int64
		latMu     sync.Mutex
		latencies []time.Duration
	)

	start := time.Now()
	for w := 0; w < *concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]time.Duration, 0, *rotations / *concurrency)
			for {
				if performed.Add(1) > int64(*rotations) {
					break
				}
				tok := <-tokens
				t0 := time.Now()
				pair, err := engine.Rotate(ctx, tok)
				local = append(local, time.Since(t0))
				if err != nil {
					// Expired seeds can show up on very long runs; anything
					// else is a real failure.
					if !errors.Is(err, tokenroll.ErrTokenExpired) {
						failures.Add(1)
					}
					continue
				}
				tokens <- pair.RefreshToken
			}
			latMu.Lock()
			latencies = append(latencies, local...)
			latMu.Unlock()
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	pct := func(p float64) time.Duration {
		if len(latencies) == 0 {
			return 0
		}
		idx := int(p * float64(len(latencies)-1))
		return latencies[idx]
	}

	snap := engine.MetricsSnapshot()
	fmt.Printf("done in %v\n", elapsed.Round(time.Millisecond))
	fmt.Printf("  throughput:   %.0f rotations/s\n", float64(len(latencies))/elapsed.Seconds())
	fmt.Printf("  p50/p95/p99:  %v / %v / %v\n", pct(0.50), pct(0.95), pct(0.99))
	fmt.Printf("  successes:    %d\n", snap.Counters[tokenroll.MetricRotateSuccess])
	fmt.Printf("  reuse hits:   %d\n", snap.Counters[tokenroll.MetricReuseDetected])
	fmt.Printf("  failures:     %d\n", failures.Load())
}
