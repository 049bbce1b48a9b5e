package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"scopedlock/pkg/collections"
	"scopedlock/pkg/concurrency/lock"
	"scopedlock/pkg/logging"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// MetricsCollector renders the statistics of a set of registered locks. The
// registry itself is a collections.Map, so scraping contends with
// registration like any other reader.
type MetricsCollector struct {
	locks   *collections.Map[string, *lock.Lock]
	started time.Time
}

func NewMetricsCollector(f *lock.Factory) *MetricsCollector {
	return &MetricsCollector{
		locks:   collections.NewMap[string, *lock.Lock](f, collections.WithName("exporter-registry")),
		started: time.Now(),
	}
}

// Register adds l to the exported set. Registering a second lock under the
// same name keeps the first.
func (mc *MetricsCollector) Register(l *lock.Lock) error {
	_, _, err := mc.locks.LoadOrStore(l.Name(), l)
	return err
}

func (mc *MetricsCollector) sortedLocks() ([]*lock.Lock, error) {
	snap, err := mc.locks.Snapshot()
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	slices.Sort(names)

	locks := make([]*lock.Lock, 0, len(names))
	for _, name := range names {
		locks = append(locks, snap[name])
	}
	return locks, nil
}

type metric struct {
	name  string
	help  string
	kind  string
	value func(s lock.Stats, snap lock.Snapshot) string
}

var metrics = []metric{
	{"scopedlock_acquisitions_total{mode=\"read\"}", "Successful acquisitions by mode", "counter",
		func(s lock.Stats, _ lock.Snapshot) string { return strconv.FormatUint(s.ReadAcquired, 10) }},
	{"scopedlock_acquisitions_total{mode=\"write\"}", "", "",
		func(s lock.Stats, _ lock.Snapshot) string { return strconv.FormatUint(s.WriteAcquired, 10) }},
	{"scopedlock_acquisitions_total{mode=\"upgradable\"}", "", "",
		func(s lock.Stats, _ lock.Snapshot) string { return strconv.FormatUint(s.UpgradableAcquired, 10) }},
	{"scopedlock_upgrades_total", "Successful upgrades", "counter",
		func(s lock.Stats, _ lock.Snapshot) string { return strconv.FormatUint(s.Upgrades, 10) }},
	{"scopedlock_timeouts_total", "Acquisitions and upgrades that timed out", "counter",
		func(s lock.Stats, _ lock.Snapshot) string { return strconv.FormatUint(s.Timeouts, 10) }},
	{"scopedlock_violations_total", "Protocol violations", "counter",
		func(s lock.Stats, _ lock.Snapshot) string { return strconv.FormatUint(s.Violations, 10) }},
	{"scopedlock_wait_seconds_total", "Time spent blocked in acquisitions", "counter",
		func(s lock.Stats, _ lock.Snapshot) string { return strconv.FormatFloat(s.WaitTime.Seconds(), 'f', 6, 64) }},
	{"scopedlock_readers", "Plain readers currently holding the lock", "gauge",
		func(_ lock.Stats, snap lock.Snapshot) string { return strconv.Itoa(snap.Readers) }},
	{"scopedlock_state", "Current lock state (0 free, 1 read, 2 upgradable, 3 write)", "gauge",
		func(_ lock.Stats, snap lock.Snapshot) string { return strconv.Itoa(int(snap.State)) }},
}

// withLabel inserts lock="name" into a metric name that may already carry
// labels.
func withLabel(metricName, lockName string) string {
	label := fmt.Sprintf("lock=%q", lockName)
	if i := strings.IndexByte(metricName, '{'); i >= 0 {
		return metricName[:i+1] + label + "," + metricName[i+1:]
	}
	return metricName + "{" + label + "}"
}

func baseName(metricName string) string {
	if i := strings.IndexByte(metricName, '{'); i >= 0 {
		return metricName[:i]
	}
	return metricName
}

// GetMetrics renders every registered lock in Prometheus text format.
func (mc *MetricsCollector) GetMetrics() (string, error) {
	locks, err := mc.sortedLocks()
	if err != nil {
		return "", err
	}

	stats := make([]lock.Stats, len(locks))
	snaps := make([]lock.Snapshot, len(locks))
	for i, l := range locks {
		stats[i] = l.Stats()
		snaps[i] = l.Snapshot()
	}

	var b strings.Builder
	for _, m := range metrics {
		if m.help != "" {
			fmt.Fprintf(&b, "# HELP %s %s\n", baseName(m.name), m.help)
			fmt.Fprintf(&b, "# TYPE %s %s\n", baseName(m.name), m.kind)
		}
		for i, l := range locks {
			fmt.Fprintf(&b, "%s %s\n", withLabel(m.name, l.Name()), m.value(stats[i], snaps[i]))
		}
	}

	fmt.Fprintf(&b, "# HELP scopedlock_up Exporter up status (1 = up, 0 = down)\n")
	fmt.Fprintf(&b, "# TYPE scopedlock_up gauge\n")
	fmt.Fprintf(&b, "scopedlock_up 1\n")
	fmt.Fprintf(&b, "# HELP scopedlock_uptime_seconds Seconds since the exporter started\n")
	fmt.Fprintf(&b, "# TYPE scopedlock_uptime_seconds gauge\n")
	fmt.Fprintf(&b, "scopedlock_uptime_seconds %.0f\n", time.Since(mc.started).Seconds())
	return b.String(), nil
}

type holderView struct {
	ID         string    `json:"id"`
	Mode       string    `json:"mode"`
	Owner      int64     `json:"owner"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// GetHolders lists the live handles of every registered lock.
func (mc *MetricsCollector) GetHolders() (map[string][]holderView, error) {
	locks, err := mc.sortedLocks()
	if err != nil {
		return nil, err
	}

	out := make(map[string][]holderView, len(locks))
	for _, l := range locks {
		views := []holderView{}
		for _, h := range l.Holders() {
			views = append(views, holderView{
				ID:         h.ID.String(),
				Mode:       h.Mode.String(),
				Owner:      h.Owner,
				AcquiredAt: h.AcquiredAt,
			})
		}
		out[l.Name()] = views
	}
	return out, nil
}

// Simulation drives demo traffic through a map, a set and a list so the
// exporter has something to report.
type Simulation struct {
	sessions *collections.Map[string, int]
	tags     *collections.Set[string]
	events   *collections.List[string]
	workers  int
}

func NewSimulation(f *lock.Factory, workers int) *Simulation {
	return &Simulation{
		sessions: collections.NewMap[string, int](f, collections.WithName("sessions")),
		tags:     collections.NewSet[string](f, collections.WithName("tags")),
		events:   collections.NewList[string](f, collections.WithName("events")),
		workers:  workers,
	}
}

func (s *Simulation) Locks() []*lock.Lock {
	return []*lock.Lock{s.sessions.Lock(), s.tags.Lock(), s.events.Lock()}
}

// Tick runs one burst of operations on every worker.
func (s *Simulation) Tick(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	incr := func(cur int, _ bool) (int, bool) { return cur + 1, true }

	for w := range s.workers {
		g.Go(func() error {
			r := rand.New(rand.NewPCG(uint64(w), uint64(time.Now().UnixNano())))
			for i := range 50 {
				if ctx.Err() != nil {
					return ctx.Err()
				}

				user := "user-" + strconv.Itoa(r.IntN(32))
				var err error
				switch r.IntN(5) {
				case 0:
					_, err = s.sessions.Update(user, incr)
				case 1:
					_, _, err = s.sessions.Get(user)
				case 2:
					_, err = s.tags.Add("tag-" + strconv.Itoa(r.IntN(16)))
				case 3:
					err = s.events.Append(fmt.Sprintf("w%d-%d", w, i))
				default:
					_, err = s.events.Snapshot()
				}
				if err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Keep the event list bounded.
	if n, err := s.events.Len(); err == nil && n > 1000 {
		removed, err := s.events.Clear()
		if err != nil {
			return err
		}
		logging.Debug("trimmed simulation events", "removed", removed)
	}
	return nil
}

// Run ticks every interval until ctx ends.
func (s *Simulation) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Tick(ctx); err != nil && ctx.Err() == nil {
				logging.WithComponent("exporter").Warn("simulation tick failed", "error", err)
			}
		}
	}
}

func newMux(collector *MetricsCollector) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		body, err := collector.GetMetrics()
		if err != nil {
			logging.Error("metrics scrape failed", "error", err)
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		fmt.Fprint(w, body)
	})
	mux.HandleFunc("/holders", func(w http.ResponseWriter, r *http.Request) {
		holders, err := collector.GetHolders()
		if err != nil {
			logging.Error("holders listing failed", "error", err)
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(holders)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
	return mux
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	metricsPort := getEnv("METRICS_PORT", "8080")
	interval, err := time.ParseDuration(getEnv("SIMULATION_INTERVAL", "1s"))
	if err != nil {
		log.Fatalf("Invalid SIMULATION_INTERVAL: %v", err)
	}
	workers, err := strconv.Atoi(getEnv("SIMULATION_WORKERS", "8"))
	if err != nil || workers <= 0 {
		log.Fatalf("Invalid SIMULATION_WORKERS: %q", os.Getenv("SIMULATION_WORKERS"))
	}

	cfg, err := lock.LoadConfigFromEnv()
	if err != nil {
		log.Fatalf("Invalid lock configuration: %v", err)
	}
	factory, err := lock.NewFactory(cfg)
	if err != nil {
		log.Fatalf("Failed to create lock factory: %v", err)
	}

	logging.Info("starting scopedlock metrics exporter",
		"kind", cfg.Kind, "fairness", cfg.Fairness, "timeout", cfg.DefaultTimeout,
		"port", metricsPort, "workers", workers, "interval", interval)

	collector := NewMetricsCollector(factory)
	sim := NewSimulation(factory, workers)
	for _, l := range append(sim.Locks(), collector.locks.Lock()) {
		if err := collector.Register(l); err != nil {
			log.Fatalf("Failed to register lock %s: %v", l.Name(), err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sim.Run(ctx, interval)

	srv := &http.Server{
		Addr:         ":" + metricsPort,
		Handler:      newMux(collector),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logging.Info("shutting down exporter")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logging.Warn("exporter shutdown incomplete", "error", err)
		}
	}()

	logging.Info("metrics available", "url", "http://localhost:"+metricsPort+"/metrics")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}
