package main

import (
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"scopedlock/pkg/collections"
	"scopedlock/pkg/concurrency/lock"
	"scopedlock/pkg/concurrency/primitive"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// BenchmarkResult captures timing statistics for one workload on one lock
// configuration.
type BenchmarkResult struct {
	Workload       string        `json:"workload"`           // Name of the workload
	Kind           string        `json:"kind"`               // Lock kind
	Fairness       string        `json:"fairness"`           // Fairness policy
	Operations     int           `json:"operations"`         // Operations attempted
	Concurrency    int           `json:"concurrency"`        // Goroutines issuing operations
	TotalDuration  time.Duration `json:"total_duration_ns"`  // Wall time for all operations
	AvgDuration    time.Duration `json:"avg_duration_ns"`    // Mean operation latency
	MinDuration    time.Duration `json:"min_duration_ns"`    // Fastest operation
	MaxDuration    time.Duration `json:"max_duration_ns"`    // Slowest operation
	MedianDuration time.Duration `json:"median_duration_ns"` // P50 latency
	P95Duration    time.Duration `json:"p95_duration_ns"`    // P95 latency
	P99Duration    time.Duration `json:"p99_duration_ns"`    // P99 latency
	OpsPerSecond   float64       `json:"ops_per_second"`     // Throughput
	SuccessCount   int           `json:"success_count"`      // Operations that returned nil
	ErrorCount     int           `json:"error_count"`        // Operations that failed
	ErrorSamples   []string      `json:"error_samples"`      // Up to five error messages
	LockStats      lock.Stats    `json:"lock_stats"`         // Counters of the lock under test
	Timestamp      time.Time     `json:"timestamp"`
}

// BenchmarkReport aggregates every result of one run.
type BenchmarkReport struct {
	StartTime     time.Time         `json:"start_time"`
	EndTime       time.Time         `json:"end_time"`
	TotalDuration time.Duration     `json:"total_duration"`
	Timeout       time.Duration     `json:"timeout"`
	Results       []BenchmarkResult `json:"results"`
}

// Workload is one kind of traffic against a container. op is called with a
// per-goroutine random source and the operation index.
type Workload struct {
	Name  string
	Setup func(f *lock.Factory) (op func(r *rand.Rand, i int) error, l *lock.Lock)
}

// BenchConfig is read from the environment.
type BenchConfig struct {
	OutputDir   string
	Operations  int
	Concurrency int
	Timeout     time.Duration
	KeySpace    int
}

// loadBenchConfig reads:
//   - BENCHMARK_OUTPUT: directory for the JSON report (default: ./benchmark-results)
//   - BENCHMARK_OPERATIONS: operations per workload (default: 20000)
//   - BENCHMARK_CONCURRENCY: goroutines per workload (default: 16)
//   - BENCHMARK_KEYS: key space of the map workloads (default: 1024)
//   - SCOPEDLOCK_TIMEOUT: acquisition timeout, as for the lock package
func loadBenchConfig() BenchConfig {
	outputDir := filepath.Clean(os.Getenv("BENCHMARK_OUTPUT"))
	if outputDir == "." {
		outputDir = "./benchmark-results"
	}

	timeout := 5 * time.Second
	if v := os.Getenv(lock.EnvTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			timeout = d
		}
	}

	return BenchConfig{
		OutputDir:   outputDir,
		Operations:  getEnvInt("BENCHMARK_OPERATIONS", 20000),
		Concurrency: getEnvInt("BENCHMARK_CONCURRENCY", 16),
		KeySpace:    getEnvInt("BENCHMARK_KEYS", 1024),
		Timeout:     timeout,
	}
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}

func workloads(keys int) []Workload {
	key := func(r *rand.Rand) string {
		return "k" + strconv.Itoa(r.IntN(keys))
	}

	return []Workload{
		{
			Name: "map read-heavy (95/5)",
			Setup: func(f *lock.Factory) (func(*rand.Rand, int) error, *lock.Lock) {
				m := collections.NewMap[string, int](f, collections.WithName("read-heavy"), collections.WithCapacity(keys))
				return func(r *rand.Rand, i int) error {
					if r.IntN(100) < 95 {
						_, _, err := m.Get(key(r))
						return err
					}
					return m.Store(key(r), i)
				}, m.Lock()
			},
		},
		{
			Name: "map write-heavy (50/50)",
			Setup: func(f *lock.Factory) (func(*rand.Rand, int) error, *lock.Lock) {
				m := collections.NewMap[string, int](f, collections.WithName("write-heavy"), collections.WithCapacity(keys))
				return func(r *rand.Rand, i int) error {
					if r.IntN(2) == 0 {
						_, _, err := m.Get(key(r))
						return err
					}
					return m.Store(key(r), i)
				}, m.Lock()
			},
		},
		{
			Name: "map upgrade (LoadOrStore/Update)",
			Setup: func(f *lock.Factory) (func(*rand.Rand, int) error, *lock.Lock) {
				m := collections.NewMap[string, int](f, collections.WithName("upgrade"), collections.WithCapacity(keys))
				incr := func(cur int, _ bool) (int, bool) { return cur + 1, true }
				return func(r *rand.Rand, i int) error {
					switch r.IntN(3) {
					case 0:
						_, _, err := m.LoadOrStore(key(r), i)
						return err
					case 1:
						_, err := m.Update(key(r), incr)
						return err
					default:
						_, _, err := m.Get(key(r))
						return err
					}
				}, m.Lock()
			},
		},
		{
			Name: "list append/snapshot",
			Setup: func(f *lock.Factory) (func(*rand.Rand, int) error, *lock.Lock) {
				l := collections.NewList[int](f, collections.WithName("list"))
				return func(r *rand.Rand, i int) error {
					if r.IntN(10) == 0 {
						_, err := l.Snapshot()
						return err
					}
					n, err := l.Len()
					if err != nil {
						return err
					}
					if n < 512 {
						return l.Append(i)
					}
					// Another goroutine may have drained the list since Len.
					if _, err := l.RemoveAt(0); err != nil && !errors.Is(err, collections.ErrIndexOutOfRange) {
						return err
					}
					return nil
				}, l.Lock()
			},
		},
	}
}

// lockConfigs lists the lock configurations every workload runs against.
func lockConfigs(timeout time.Duration) []lock.Config {
	var cfgs []lock.Config
	for _, kind := range []primitive.Kind{primitive.ReaderWriter, primitive.ExclusiveOnly} {
		for _, fairness := range []primitive.Fairness{primitive.WriterPreferred, primitive.ReaderPreferred} {
			if kind == primitive.ExclusiveOnly && fairness == primitive.ReaderPreferred {
				continue
			}
			cfgs = append(cfgs, lock.Config{
				Kind:           kind,
				DefaultTimeout: timeout,
				Fairness:       fairness,
				OwnerChecks:    true,
			})
		}
	}
	return cfgs
}

// span is the range of operation indexes one worker runs.
type span struct {
	start int
	count int
}

// partition splits ops into concurrency contiguous spans. The first
// ops%concurrency spans take one extra operation.
func partition(ops, concurrency int) []span {
	spans := make([]span, concurrency)
	perWorker := ops / concurrency
	extra := ops % concurrency

	offset := 0
	for i := range spans {
		n := perWorker
		if i < extra {
			n++
		}
		spans[i] = span{start: offset, count: n}
		offset += n
	}
	return spans
}

// runBenchmark executes ops operations of w against a fresh container built
// from cfg, at most concurrency at a time, and computes latency statistics.
func runBenchmark(w Workload, cfg lock.Config, ops, concurrency int) (BenchmarkResult, error) {
	f, err := lock.NewFactory(cfg)
	if err != nil {
		return BenchmarkResult{}, err
	}
	op, l := w.Setup(f)

	durations := make([]time.Duration, 0, ops)
	var mu sync.Mutex
	successCount := 0
	errorCount := 0
	errorSamples := make([]string, 0, 5)

	var g errgroup.Group
	startTime := time.Now()
	for worker, sp := range partition(ops, concurrency) {
		n := sp.count
		g.Go(func() error {
			r := rand.New(rand.NewPCG(uint64(worker), uint64(time.Now().UnixNano())))
			local := make([]time.Duration, 0, n)
			var failures []error

			for i := range n {
				opStart := time.Now()
				err := op(r, sp.start+i)
				local = append(local, time.Since(opStart))
				if err != nil {
					failures = append(failures, err)
				}
			}

			mu.Lock()
			durations = append(durations, local...)
			errorCount += len(failures)
			successCount += n - len(failures)
			for _, err := range failures {
				if len(errorSamples) == cap(errorSamples) {
					break
				}
				errorSamples = append(errorSamples, err.Error())
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	totalDuration := time.Since(startTime)

	result := summarize(durations, totalDuration)
	result.Workload = w.Name
	result.Kind = cfg.Kind.String()
	result.Fairness = cfg.Fairness.String()
	result.Operations = ops
	result.Concurrency = concurrency
	result.SuccessCount = successCount
	result.ErrorCount = errorCount
	result.ErrorSamples = errorSamples
	result.LockStats = l.Stats()
	result.Timestamp = time.Now()
	return result, nil
}

// summarize computes latency percentiles and throughput.
func summarize(durations []time.Duration, total time.Duration) BenchmarkResult {
	if len(durations) == 0 {
		return BenchmarkResult{TotalDuration: total}
	}
	slices.Sort(durations)

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	percentile := func(p float64) time.Duration {
		i := int(float64(len(durations)) * p)
		return durations[min(i, len(durations)-1)]
	}

	return BenchmarkResult{
		TotalDuration:  total,
		AvgDuration:    sum / time.Duration(len(durations)),
		MinDuration:    durations[0],
		MaxDuration:    durations[len(durations)-1],
		MedianDuration: percentile(0.50),
		P95Duration:    percentile(0.95),
		P99Duration:    percentile(0.99),
		OpsPerSecond:   float64(len(durations)) / total.Seconds(),
	}
}

// formatDuration formats a duration in a human-readable way with appropriate units.
// Examples: 1.23ms, 456.78µs, 12.34s
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000.0)
	case d >= time.Microsecond:
		return fmt.Sprintf("%.2fµs", float64(d.Nanoseconds())/1000.0)
	default:
		return fmt.Sprintf("%dns", d.Nanoseconds())
	}
}

func main() {
	cfg := loadBenchConfig()
	_ = os.MkdirAll(cfg.OutputDir, 0o750) // #nosec G703

	log.Printf("Starting lock contention benchmark...")
	log.Printf("Operations: %d, Concurrency: %d, Keys: %d, Timeout: %s",
		cfg.Operations, cfg.Concurrency, cfg.KeySpace, cfg.Timeout)

	report := BenchmarkReport{
		StartTime: time.Now(),
		Timeout:   cfg.Timeout,
	}

	for _, w := range workloads(cfg.KeySpace) {
		for _, lc := range lockConfigs(cfg.Timeout) {
			log.Printf("→ %s on %s/%s", w.Name, lc.Kind, lc.Fairness)
			result, err := runBenchmark(w, lc, cfg.Operations, cfg.Concurrency)
			if err != nil {
				log.Fatalf("Benchmark setup failed: %v", err)
			}
			report.Results = append(report.Results, result)
		}
	}

	report.EndTime = time.Now()
	report.TotalDuration = report.EndTime.Sub(report.StartTime)

	fmt.Println(renderSummary(report))

	timestamp := time.Now().Format("20060102_150405")
	jsonFile := filepath.Join(cfg.OutputDir, fmt.Sprintf("benchmark_report_%s.json", timestamp))
	if err := saveJSONReport(report, jsonFile); err != nil {
		log.Fatalf("Failed to save report: %v", err)
	}
	log.Printf("✓ Report saved to: %s", jsonFile) // #nosec G706
}
