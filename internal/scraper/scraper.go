package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/batchlens/batchlens/internal/config"
	"github.com/batchlens/batchlens/internal/store"
	"github.com/batchlens/batchlens/pkg/domain"
)

const defaultScrapeTimeout = 10 * time.Second

// Gateway exposition names.
const (
	// metricRunning is the per-vessel gauge: 1 running, 0 idle.
	metricRunning = "bioreactor_running"

	// labelBioreactor carries the vessel identifier.
	labelBioreactor = "bioreactor"
)

// Scraper polls the equipment gateway and publishes bioreactor status
// changes as fresh snapshots.
type Scraper struct {
	endpoint string
	interval time.Duration
	store    *store.Store
	client   *http.Client
	onSwap   func(uint64)
}

// New creates a Scraper from the scraper configuration. onSwap, when
// non-nil, receives the new revision after every published change.
func New(cfg config.ScraperConfig, st *store.Store, onSwap func(uint64)) *Scraper {
	return &Scraper{
		endpoint: cfg.Endpoint,
		interval: cfg.Interval,
		store:    st,
		client:   &http.Client{Timeout: defaultScrapeTimeout},
		onSwap:   onSwap,
	}
}

// Run polls the gateway on the configured interval until ctx is
// cancelled. The first poll happens immediately.
func (s *Scraper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.poll(ctx)
		}
	}
}

// poll fetches the gateway metrics once and publishes any status
// changes.
func (s *Scraper) poll(ctx context.Context) {
	statuses, err := s.fetchStatuses(ctx)
	if err != nil {
		slog.Warn("scraper: gateway fetch failed, keeping previous statuses",
			"endpoint", s.endpoint, "err", err)
		return
	}
	if len(statuses) == 0 {
		return
	}

	if rev, changed := s.publish(statuses); changed {
		slog.Info("scraper: bioreactor statuses updated",
			"revision", rev, "bioreactors", len(statuses))
		if s.onSwap != nil {
			s.onSwap(rev)
		}
	}
}

// fetchStatuses GETs the exposition and extracts the per-vessel running
// gauges.
func (s *Scraper) fetchStatuses(ctx context.Context) (map[string]domain.BioreactorStatus, error) {
	mfs, err := fetchMetrics(ctx, s.client, s.endpoint)
	if err != nil {
		return nil, err
	}

	statuses := make(map[string]domain.BioreactorStatus)
	mf := mfs[metricRunning]
	if mf == nil {
		return statuses, nil
	}
	for _, m := range mf.GetMetric() {
		id := labelValue(m, labelBioreactor)
		if id == "" {
			continue
		}
		if sampleValue(m) >= 1 {
			statuses[id] = domain.BioreactorRunning
		} else {
			statuses[id] = domain.BioreactorIdle
		}
	}
	return statuses, nil
}

// publish swaps in a snapshot with refreshed statuses. Vessels the
// gateway reports but the corpus does not know yet are appended so
// batches referencing new equipment resolve. Returns (0, false) when
// nothing changed, avoiding a pointless swap.
//
// Snapshot and Replace are not one atomic step; a concurrent corpus
// swap can win the race, in which case the next poll re-applies the
// statuses.
func (s *Scraper) publish(statuses map[string]domain.BioreactorStatus) (uint64, bool) {
	snap := s.store.Snapshot()

	reactors := make([]domain.Bioreactor, len(snap.Bioreactors))
	copy(reactors, snap.Bioreactors)

	changed := false
	known := make(map[string]bool, len(reactors))
	for i, br := range reactors {
		known[br.ID] = true
		if status, ok := statuses[br.ID]; ok && status != br.Status {
			reactors[i].Status = status
			changed = true
		}
	}

	var added []string
	for id := range statuses {
		if !known[id] {
			added = append(added, id)
		}
	}
	sort.Strings(added)
	for _, id := range added {
		reactors = append(reactors, domain.Bioreactor{ID: id, Status: statuses[id]})
		changed = true
	}

	if !changed {
		return 0, false
	}
	next := snap
	next.Bioreactors = reactors
	return s.store.Replace(next), true
}

// fetchMetrics performs an HTTP GET to url and returns parsed metric
// families.
func fetchMetrics(ctx context.Context, client *http.Client, url string) (map[string]*dto.MetricFamily, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", string(expfmt.NewFormat(expfmt.TypeTextPlain)))

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return parseMetrics(resp.Body)
}

// parseMetrics decodes a Prometheus text exposition from r. A partial
// result with a non-fatal parse warning is still returned successfully.
func parseMetrics(r io.Reader) (map[string]*dto.MetricFamily, error) {
	var parser expfmt.TextParser
	mfs, err := parser.TextToMetricFamilies(r)
	if err != nil && len(mfs) == 0 {
		return nil, fmt.Errorf("parse prometheus text: %w", err)
	}
	return mfs, nil
}

// labelValue returns the value of the named label on m, or "".
func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// sampleValue extracts the numeric value of a gauge, counter or untyped
// sample.
func sampleValue(m *dto.Metric) float64 {
	switch {
	case m.Gauge != nil:
		return m.Gauge.GetValue()
	case m.Counter != nil:
		return m.Counter.GetValue()
	case m.Untyped != nil:
		return m.Untyped.GetValue()
	default:
		return 0
	}
}
