package monitor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aer-io/vigilante/pkg/cluster"
)

// Presigner is the read side of an object-store client the Monitor
// needs to mirror a presigned download link onto each snapshot it
// publishes. A nil Presigner (object-store mirroring disabled) means
// SnapshotEntry.DownloadURL is simply left empty.
type Presigner interface {
	PresignDownload(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// Config tunes the Monitor Loop's cadence and fan-out bound.
type Config struct {
	Interval            time.Duration
	HTTPTimeout         time.Duration
	MaxConcurrentProbes int

	// ObjectStoreBucket and PresignExpiry configure snapshot-download
	// presigning; both are ignored when the Monitor has no Presigner.
	ObjectStoreBucket string
	PresignExpiry     time.Duration
}

// Monitor owns the periodic refresh cycle: it ticks the Registry, fans
// the Prober out across every descriptor, folds the results into a new
// ClusterModel and publishes it by pointer swap. Readers never lock the
// write path; GetLatest only locks to copy the pointer.
type Monitor struct {
	registry  *Registry
	prober    *Prober
	objstore  Presigner
	cfg       Config
	log       *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.RWMutex
	latest     *cluster.ClusterModel
	generation uint64
}

// New builds a Monitor. The returned value has no background goroutine
// running until Start is called. objstore may be nil: snapshot entries
// are then published with DownloadURL left empty.
func New(registry *Registry, prober *Prober, objstore Presigner, cfg Config, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	if cfg.PresignExpiry <= 0 {
		cfg.PresignExpiry = 15 * time.Minute
	}
	return &Monitor{
		registry: registry,
		prober:   prober,
		objstore: objstore,
		cfg:      cfg,
		log:      log,
		latest: &cluster.ClusterModel{
			Status:      cluster.StatusUnavailable,
			LastRefresh: time.Now(),
		},
	}
}

// Start launches the ticking refresh goroutine. Call Stop to shut it
// down; the current tick either completes or is cancelled at its next
// suspension point.
func (m *Monitor) Start(ctx context.Context) {
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.wg.Add(1)
	go m.run()
}

// Stop cancels the running goroutine and waits for it to exit.
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()
}

// GetLatest returns the most recently published ClusterModel. The
// returned value is never mutated after publish, so callers may retain
// it freely.
func (m *Monitor) GetLatest() *cluster.ClusterModel {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

// RefreshNow runs a single tick synchronously, outside the ticker
// cadence, and returns the model it published.
func (m *Monitor) RefreshNow(ctx context.Context) *cluster.ClusterModel {
	return m.tick(ctx)
}

func (m *Monitor) run() {
	defer m.wg.Done()

	interval := m.cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	lastTickStart := time.Now()
	m.tick(m.ctx)

	for {
		nextTick := lastTickStart.Add(interval)
		delay := time.Until(nextTick)
		if delay < 0 {
			delay = 0
		}

		timer := time.NewTimer(delay)
		select {
		case <-m.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		lastTickStart = time.Now()
		m.tick(m.ctx)
	}
}

func (m *Monitor) tick(ctx context.Context) *cluster.ClusterModel {
	httpTimeout := m.cfg.HTTPTimeout
	if httpTimeout <= 0 {
		httpTimeout = 5 * time.Second
	}
	tickDeadline := httpTimeout * 2

	tickCtx, cancel := context.WithTimeout(ctx, tickDeadline)
	defer cancel()

	descriptors, registryWarnings := m.registry.Refresh(tickCtx)
	for _, w := range registryWarnings {
		m.log.Warn("node registry refresh", "warning", w)
	}

	samples := m.prober.ProbeAll(tickCtx, descriptors)
	samples = coerceUnreachableOnDeadline(tickCtx, samples)

	m.mu.RLock()
	prevGeneration := m.generation
	m.mu.RUnlock()

	model := cluster.BuildModel(samples, prevGeneration)
	model.Warnings = append(model.Warnings, registryWarnings...)
	m.presignSnapshots(tickCtx, model)

	m.mu.Lock()
	m.latest = model
	m.generation = model.Generation
	m.mu.Unlock()

	m.log.Info("cluster model refreshed",
		"generation", model.Generation,
		"status", model.Status,
		"healthy_nodes", model.HealthyNodes,
		"total_nodes", model.TotalNodes,
	)

	return model
}

// presignSnapshots fills in DownloadURL on every snapshot entry when an
// object store is configured. Mirroring is best-effort: a presign
// failure just leaves that entry's DownloadURL empty rather than
// failing the tick.
func (m *Monitor) presignSnapshots(ctx context.Context, model *cluster.ClusterModel) {
	if m.objstore == nil || m.cfg.ObjectStoreBucket == "" {
		return
	}
	for i := range model.Snapshots {
		entry := &model.Snapshots[i]
		key := entry.CollectionName + "/" + entry.SnapshotName
		url, err := m.objstore.PresignDownload(ctx, m.cfg.ObjectStoreBucket, key, m.cfg.PresignExpiry)
		if err != nil {
			m.log.Warn("presign snapshot download", "collection", entry.CollectionName, "snapshot", entry.SnapshotName, "error", err)
			continue
		}
		entry.DownloadURL = url
	}
}

// coerceUnreachableOnDeadline marks any sample that never got a chance
// to observe the node (because the tick's overall deadline fired first)
// as unreachable, rather than letting a zero-value sample silently
// report reachable=false with no explanation.
func coerceUnreachableOnDeadline(ctx context.Context, samples []cluster.NodeSample) []cluster.NodeSample {
	if ctx.Err() == nil {
		return samples
	}
	for i := range samples {
		if samples[i].Reachable {
			continue
		}
		if samples[i].ShortError == "" {
			samples[i].ShortError = "probe deadline exceeded"
			samples[i].FullError = "probe deadline exceeded before the node responded"
		}
	}
	return samples
}
