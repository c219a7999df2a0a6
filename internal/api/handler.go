package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/batchlens/batchlens/internal/alerts"
	"github.com/batchlens/batchlens/internal/config"
	"github.com/batchlens/batchlens/internal/filter"
	"github.com/batchlens/batchlens/internal/metrics"
	"github.com/batchlens/batchlens/internal/stats"
	"github.com/batchlens/batchlens/internal/store"
	"github.com/batchlens/batchlens/pkg/domain"
)

// Defaults for GET /api/v1/stats/scatter when the query omits an axis.
const (
	defaultScatterPhase     = 1
	defaultScatterParameter = "DO"
)

// maxCacheEntries bounds the memo cache. The whole map is dropped when
// the bound is hit; entries recorded under older revisions can never
// match again and are reclaimed the same way.
const maxCacheEntries = 256

// Handler is the HTTP handler for all /api/v1/* endpoints. It reads
// the corpus from the snapshot store, applies the filter encoded in
// the query string and serves the statistics derived from the result.
type Handler struct {
	store  *store.Store
	engine *alerts.Engine
	m      *metrics.Metrics
	auth   config.AuthConfig
	onSwap func(rev uint64)
	mux    *http.ServeMux
	now    func() time.Time

	cacheMu sync.Mutex
	cache   map[string]cacheEntry
}

// cacheEntry is one memoized response body, valid while the store is
// still at the recorded revision.
type cacheEntry struct {
	revision uint64
	body     []byte
}

// New creates a Handler wired to the given snapshot store and registers
// all routes, each instrumented through m (must not be nil). engine may
// be nil when alerting is disabled. onSwap, when non-nil, runs after
// every corpus replacement through PUT /api/v1/dataset.
func New(st *store.Store, eng *alerts.Engine, m *metrics.Metrics, auth config.AuthConfig, onSwap func(uint64)) http.Handler {
	h := &Handler{
		store:  st,
		engine: eng,
		m:      m,
		auth:   auth,
		onSwap: onSwap,
		mux:    http.NewServeMux(),
		now:    time.Now,
		cache:  make(map[string]cacheEntry),
	}

	h.handle("/api/v1/health", h.health)
	h.handle("/api/v1/kpis", h.kpis)
	h.handle("/api/v1/stats/titer-cv", h.titerCV)
	h.handle("/api/v1/stats/scenarios", h.scenarios)
	h.handle("/api/v1/stats/distribution", h.distribution)
	h.handle("/api/v1/stats/scatter", h.scatter)
	h.handle("/api/v1/stats/risk", h.risk)
	h.handle("/api/v1/batches", h.batches)
	h.handle("/api/v1/filters", h.filters)
	h.handle("/api/v1/alerts", h.alerts)
	h.handle("/api/v1/dataset", h.dataset)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// handle registers one route wrapped with request metrics.
func (h *Handler) handle(route string, fn http.HandlerFunc) {
	h.mux.Handle(route, h.m.Instrument(route, fn))
}

// --- route handlers ---------------------------------------------------------

// health returns GET /api/v1/health: revision, swap time and counts of
// the current corpus snapshot.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap, rev := h.store.View()
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Revision:  rev,
		UpdatedAt: h.store.UpdatedAt().UTC().Format(time.RFC3339),
		Counts:    snap.Counts(),
	})
}

// kpis returns GET /api/v1/kpis: the headline rollup over the filtered
// corpus. The variability-reduction term inside compares against the
// unfiltered snapshot, so the raw view is passed alongside.
func (h *Handler) kpis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	f := filterFromQuery(r.URL.Query())
	snap, rev := h.store.View()
	now := h.now()
	h.respondCached(w, "kpis|"+f.Key(), rev, func() interface{} {
		return KpiResponse{Revision: rev, Kpis: stats.KpiRollup(f.Apply(snap, now), snap)}
	})
}

// titerCV returns GET /api/v1/stats/titer-cv: the per-stage Titer
// consistency table.
func (h *Handler) titerCV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	f := filterFromQuery(r.URL.Query())
	snap, rev := h.store.View()
	now := h.now()
	h.respondCached(w, "titer-cv|"+f.Key(), rev, func() interface{} {
		return stats.TiterCVByStage(f.Apply(snap, now))
	})
}

// scenarios returns GET /api/v1/stats/scenarios: baseline vs optimized
// CV and pass rate.
func (h *Handler) scenarios(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	f := filterFromQuery(r.URL.Query())
	snap, rev := h.store.View()
	now := h.now()
	h.respondCached(w, "scenarios|"+f.Key(), rev, func() interface{} {
		return stats.CompareScenarios(f.Apply(snap, now))
	})
}

// distribution returns GET /api/v1/stats/distribution: the per-stage
// five-number Titer summary.
func (h *Handler) distribution(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	f := filterFromQuery(r.URL.Query())
	snap, rev := h.store.View()
	now := h.now()
	h.respondCached(w, "distribution|"+f.Key(), rev, func() interface{} {
		return stats.TiterDistributionByStage(f.Apply(snap, now))
	})
}

// scatter returns GET /api/v1/stats/scatter: one point per filtered
// batch, X the batch's mean reading of ?parameter at ?phase, Y its
// first ?attribute result.
func (h *Handler) scatter(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	phase := defaultScatterPhase
	if v := q.Get("phase"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			jsonErr(w, http.StatusBadRequest, "phase must be an integer")
			return
		}
		phase = p
	}
	parameter := q.Get("parameter")
	if parameter == "" {
		parameter = defaultScatterParameter
	}
	attribute := q.Get("attribute")
	if attribute == "" {
		attribute = stats.AttributeTiter
	}

	f := filterFromQuery(q)
	snap, rev := h.store.View()
	now := h.now()
	key := "scatter|" + f.Key() +
		"|phase=" + strconv.Itoa(phase) +
		"|parameter=" + parameter +
		"|attribute=" + attribute
	h.respondCached(w, key, rev, func() interface{} {
		return ScatterResponse{
			Phase:     phase,
			Parameter: parameter,
			Attribute: attribute,
			Points:    stats.ParameterScatter(f.Apply(snap, now), phase, parameter, attribute),
		}
	})
}

// risk returns GET /api/v1/stats/risk: the stable/variable partition of
// ML risk scores.
func (h *Handler) risk(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	f := filterFromQuery(r.URL.Query())
	snap, rev := h.store.View()
	now := h.now()
	h.respondCached(w, "risk|"+f.Key(), rev, func() interface{} {
		return stats.ClusterRisk(f.Apply(snap, now))
	})
}

// batches returns GET /api/v1/batches: the filtered batch table.
func (h *Handler) batches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	f := filterFromQuery(r.URL.Query())
	snap, rev := h.store.View()
	now := h.now()
	h.respondCached(w, "batches|"+f.Key(), rev, func() interface{} {
		return toBatchResponses(f.Apply(snap, now))
	})
}

// filters returns GET /api/v1/filters. Products come from the live
// corpus; the other dimensions are fixed enumerations.
func (h *Handler) filters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap := h.store.Snapshot()
	seen := make(map[string]bool)
	products := make([]string, 0, 8)
	for _, b := range snap.Batches {
		if !seen[b.Product] {
			seen[b.Product] = true
			products = append(products, b.Product)
		}
	}
	sort.Strings(products)

	stages := make([]string, 0, len(domain.Stages))
	for _, s := range domain.Stages {
		stages = append(stages, string(s))
	}
	scenarios := make([]string, 0, len(domain.Scenarios)+1)
	for _, s := range domain.Scenarios {
		scenarios = append(scenarios, string(s))
	}
	scenarios = append(scenarios, filter.ScenarioAll)

	jsonResp(w, http.StatusOK, FiltersResponse{
		Products:  products,
		Stages:    stages,
		Ranges:    []string{filter.Range3Months, filter.Range6Months, filter.RangeAll},
		Scenarios: scenarios,
	})
}

// alerts returns GET /api/v1/alerts: firing alerts plus the recently
// resolved tail. Empty array when alerting is disabled.
func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if h.engine == nil {
		jsonResp(w, http.StatusOK, []struct{}{})
		return
	}
	jsonResp(w, http.StatusOK, h.engine.Active())
}

// dataset handles PUT /api/v1/dataset: replace the corpus snapshot
// wholesale. The store bumps its revision, which invalidates every
// memoized response body.
func (h *Handler) dataset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if !h.authorized(r) {
		slog.Warn("api: dataset write rejected", "remote", r.RemoteAddr)
		jsonErr(w, http.StatusUnauthorized, "invalid or missing api key")
		return
	}

	var ds domain.Dataset
	if err := json.NewDecoder(r.Body).Decode(&ds); err != nil {
		jsonErr(w, http.StatusBadRequest, "decode dataset: "+err.Error())
		return
	}

	rev := h.store.Replace(ds)
	if h.onSwap != nil {
		h.onSwap(rev)
	}
	jsonResp(w, http.StatusOK, DatasetAck{Revision: rev, Counts: ds.Counts()})
}

// authorized reports whether r may replace the dataset. Mode "apikey"
// requires the configured header to match the key resolved from the
// environment; with no key set every write is rejected.
func (h *Handler) authorized(r *http.Request) bool {
	if h.auth.Mode != "apikey" {
		return true
	}
	key := h.auth.Key()
	if key == "" {
		return false
	}
	return r.Header.Get(h.auth.EffectiveHeader()) == key
}

// --- memo cache -------------------------------------------------------------

// respondCached serves the body memoized under key if it was recorded
// at the same store revision, building, recording and serving it
// otherwise. key must identify the route plus every query input that
// can change the response. Date-window cutoffs are resolved at fill
// time; a memoized window drifts with the wall clock until the next
// corpus swap evicts it.
func (h *Handler) respondCached(w http.ResponseWriter, key string, rev uint64, build func() interface{}) {
	h.cacheMu.Lock()
	e, ok := h.cache[key]
	h.cacheMu.Unlock()

	if ok && e.revision == rev {
		h.m.CacheHits.Inc()
		writeBody(w, http.StatusOK, e.body)
		return
	}
	h.m.CacheMisses.Inc()

	body, err := json.Marshal(build())
	if err != nil {
		jsonErr(w, http.StatusInternalServerError, "encode response")
		return
	}

	h.cacheMu.Lock()
	if len(h.cache) >= maxCacheEntries {
		h.cache = make(map[string]cacheEntry, maxCacheEntries)
	}
	h.cache[key] = cacheEntry{revision: rev, body: body}
	h.cacheMu.Unlock()

	writeBody(w, http.StatusOK, body)
}

// --- helpers ----------------------------------------------------------------

// filterFromQuery decodes the filter dimensions from the query string.
// Absent parameters leave their dimension unrestricted.
func filterFromQuery(q url.Values) filter.Filter {
	return filter.Filter{
		Products: splitList(q.Get("products")),
		Stages:   splitList(q.Get("stages")),
		Range:    q.Get("range"),
		Scenario: q.Get("scenario"),
	}
}

// splitList splits a comma-separated query value, trimming whitespace
// and dropping empty items. Returns nil for an empty value.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// toBatchResponses flattens a filtered corpus into dashboard table
// rows, joining each batch with its first Titer reading and its ML
// risk output.
func toBatchResponses(ds domain.Dataset) []BatchResponse {
	titer := make(map[string]float64, len(ds.Batches))
	for _, r := range ds.CqaResults {
		if r.Attribute != stats.AttributeTiter {
			continue
		}
		if _, ok := titer[r.BatchID]; !ok {
			titer[r.BatchID] = r.Value
		}
	}

	risk := make(map[string]domain.MlOutput, len(ds.MlOutputs))
	for _, m := range ds.MlOutputs {
		if _, ok := risk[m.BatchID]; !ok {
			risk[m.BatchID] = m
		}
	}

	out := make([]BatchResponse, 0, len(ds.Batches))
	for _, b := range ds.Batches {
		row := BatchResponse{
			ID:           b.ID,
			Product:      b.Product,
			Stage:        b.Stage,
			Scenario:     b.Scenario,
			StartedAt:    b.StartedAt.UTC().Format(time.RFC3339),
			BioreactorID: b.BioreactorID,
			Result:       b.Result,
			Titer:        titer[b.ID],
		}
		if m, ok := risk[b.ID]; ok {
			row.RiskScore = m.RiskScore
			row.RiskLevel = m.RiskLevel
		}
		out = append(out, row)
	}
	return out
}

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

func writeBody(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(body) //nolint:errcheck
}
