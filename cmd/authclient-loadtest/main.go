// Command authclient-loadtest drives many clients against an in-process
// backend and reports how well concurrent auth failures coalesce into a
// single refresh per client.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	goAuthClient "github.com/MrEthical07/goAuthClient"
	"github.com/MrEthical07/goAuthClient/internal/devserver"
	"github.com/MrEthical07/goAuthClient/session"
)

const password = "loadtest-secret"

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

type recorder struct {
	mu       sync.Mutex
	samples  []time.Duration
	failures int
}

func (r *recorder) observe(d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.failures++
		return
	}
	r.samples = append(r.samples, d)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so deferred cleanup finishes before exit.
func run(args []string) int {
	flags := pflag.NewFlagSet("authclient-loadtest", pflag.ContinueOnError)
	var (
		clients     = flags.Int("clients", 200, "number of signed-in clients")
		concurrency = flags.Int("concurrency", 64, "clients driven at once")
		burst       = flags.Int("burst", 8, "concurrent requests per client after tokens expire")
		rounds      = flags.Int("rounds", 5, "expire-and-burst rounds")
		redisAddr   = flags.String("redis-addr", "", "redis address for session snapshots; REDIS_ADDR env or miniredis when empty")
		prefix      = flags.String("prefix", "acs:loadtest", "snapshot key prefix")
		verbose     = flags.BoolP("verbose", "v", false, "log client activity")
	)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *clients <= 0 || *concurrency <= 0 || *burst <= 0 || *rounds <= 0 {
		fmt.Fprintln(os.Stderr, "clients, concurrency, burst, and rounds must be > 0")
		return 2
	}

	ctx := context.Background()

	rdb, cleanup, err := openRedis(*redisAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "redis: %v\n", err)
		return 1
	}
	defer cleanup()

	server, err := devserver.New(devserver.Config{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "devserver: %v\n", err)
		return 1
	}
	ts := httptest.NewServer(server)
	defer ts.Close()

	store := session.NewRedisStore(rdb, *prefix)
	pool := make([]*goAuthClient.Client, *clients)
	emails := make([]string, *clients)
	for i := range pool {
		emails[i] = fmt.Sprintf("user%d@loadtest.local", i)
		server.AddUser(devserver.User{
			Email:    emails[i],
			Password: password,
			Username: fmt.Sprintf("user%d", i),
		})
		c, err := buildClient(ts.URL, i, store, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "build client %d: %v\n", i, err)
			return 1
		}
		defer c.Close()
		pool[i] = c
	}

	fmt.Printf("authclient-loadtest clients=%d concurrency=%d burst=%d rounds=%d\n",
		*clients, *concurrency, *burst, *rounds)

	login := runLoginPhase(ctx, pool, emails, *concurrency)
	printStats("login", login)

	before := server.RefreshCalls()
	burstStats := runBurstPhase(ctx, server, pool, *concurrency, *burst, *rounds)
	printStats("expired-burst", burstStats)
	refreshes := server.RefreshCalls() - before
	fmt.Printf("refreshes=%d expected=%d requests=%d\n", refreshes, *clients * *rounds, *clients * *burst * *rounds)

	restore := runRestorePhase(ctx, ts.URL, pool, store, *concurrency, logger)
	printStats("restore", restore)

	if refreshes != int64(*clients * *rounds) {
		logger.Error("refresh calls did not coalesce", "refreshes", refreshes)
		return 1
	}
	return 0
}

func openRedis(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		return rdb, func() { _ = rdb.Close() }, nil
	}
	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, err
	}
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	return rdb, func() {
		_ = rdb.Close()
		mr.Close()
	}, nil
}

func buildClient(baseURL string, i int, store session.Store, logger *slog.Logger) (*goAuthClient.Client, error) {
	cfg := goAuthClient.DefaultConfig()
	cfg.API.BaseURL = baseURL + "/api/"
	cfg.Session.StoreKey = fmt.Sprintf("client-%d", i)
	cfg.Expiry.Enabled = false
	cfg.Metrics.EnableLatencyHistograms = true
	return goAuthClient.New().
		WithConfig(cfg).
		WithSessionStore(store).
		WithLogger(logger.With("client", i)).
		Build()
}

func runLoginPhase(ctx context.Context, pool []*goAuthClient.Client, emails []string, concurrency int) phaseStats {
	var rec recorder
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	start := time.Now()
	for i, c := range pool {
		g.Go(func() error {
			t0 := time.Now()
			_, err := c.Login(gctx, goAuthClient.Credentials{Email: emails[i], Password: password})
			rec.observe(time.Since(t0), err)
			return nil
		})
	}
	_ = g.Wait()
	return computeStats(rec.samples, rec.failures, time.Since(start))
}

// runBurstPhase expires every access token and then fires burst requests
// per client at once. Each client should refresh exactly once per round.
func runBurstPhase(ctx context.Context, server *devserver.Server, pool []*goAuthClient.Client, concurrency, burst, rounds int) phaseStats {
	var rec recorder
	start := time.Now()
	for round := 0; round < rounds; round++ {
		server.ExpireAccessTokens()
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(concurrency)
		for _, c := range pool {
			g.Go(func() error {
				var wg sync.WaitGroup
				for j := 0; j < burst; j++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						t0 := time.Now()
						_, err := c.Profile(gctx)
						rec.observe(time.Since(t0), err)
					}()
				}
				wg.Wait()
				return nil
			})
		}
		_ = g.Wait()
	}
	return computeStats(rec.samples, rec.failures, time.Since(start))
}

// runRestorePhase starts a fresh client per snapshot, as a restarted
// process would, and checks that each one resumes its session.
func runRestorePhase(ctx context.Context, baseURL string, pool []*goAuthClient.Client, store session.Store, concurrency int, logger *slog.Logger) phaseStats {
	var rec recorder
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	start := time.Now()
	for i := range pool {
		g.Go(func() error {
			c, err := buildClient(baseURL, i, store, logger)
			if err != nil {
				return err
			}
			defer c.Close()
			t0 := time.Now()
			var restoreErr error
			if !c.CheckAuth(gctx) {
				restoreErr = fmt.Errorf("client %d: session not restored", i)
			}
			rec.observe(time.Since(t0), restoreErr)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Error("restore phase", "err", err)
	}
	return computeStats(rec.samples, rec.failures, time.Since(start))
}

func computeStats(samples []time.Duration, failures int, total time.Duration) phaseStats {
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	var opsPerS float64
	if total > 0 {
		opsPerS = float64(len(samples)) / total.Seconds()
	}
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  opsPerS,
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
