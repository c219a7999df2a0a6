package filter

import (
	"sort"
	"strings"
	"time"

	"github.com/batchlens/batchlens/pkg/domain"
)

// Date window selectors. Anything else resolves to RangeAll.
const (
	Range3Months = "3months"
	Range6Months = "6months"
	RangeAll     = "all"
)

// ScenarioAll selects both scenarios. Anything that is not a known
// scenario resolves to it.
const ScenarioAll = "all"

// Filter is the declarative filter state supplied by the dashboard.
// The zero value is fully unrestricted. Filters are plain values:
// callers own them and pass them into every call; nothing here keeps
// ambient state.
type Filter struct {
	// Products restricts to these product codes; empty means all.
	Products []string
	// Stages restricts to these stage labels; empty means all.
	Stages []string
	// Range is one of 3months | 6months | all.
	Range string
	// Scenario is one of baseline | optimized | all.
	Scenario string
}

// ResolveRange maps a range selector to its cutoff instant. The second
// return is false when the selector imposes no date restriction.
// RangeAll and any unrecognised value fall open to unrestricted, so a
// zero-epoch or unparseable start timestamp can never be excluded by
// an "all" query.
func ResolveRange(value string, now time.Time) (time.Time, bool) {
	switch value {
	case Range3Months:
		return now.AddDate(0, -3, 0), true
	case Range6Months:
		return now.AddDate(0, -6, 0), true
	default:
		return time.Time{}, false
	}
}

// ResolveScenario maps a scenario selector to a concrete scenario. The
// second return is false when the selector imposes no restriction;
// unknown values fall open.
func ResolveScenario(value string) (domain.Scenario, bool) {
	switch domain.Scenario(value) {
	case domain.ScenarioBaseline, domain.ScenarioOptimized:
		return domain.Scenario(value), true
	default:
		return "", false
	}
}

// Apply reduces ds to the batches passing every active predicate and
// trims each dependent collection to that batch universe. Bioreactors
// are referenced rather than owned by batches, so they pass through
// unchanged. An empty dataset yields an empty dataset.
//
// now anchors the date-window cutoff; callers pass time.Now() in
// production and a fixed instant in tests.
func (f Filter) Apply(ds domain.Dataset, now time.Time) domain.Dataset {
	products := toSet(f.Products)
	stages := toSet(f.Stages)
	cutoff, dateRestricted := ResolveRange(f.Range, now)
	scenario, scenarioRestricted := ResolveScenario(f.Scenario)

	batches := make([]domain.Batch, 0, len(ds.Batches))
	ids := make(map[string]bool, len(ds.Batches))
	for _, b := range ds.Batches {
		if dateRestricted && !b.StartedAt.After(cutoff) {
			continue
		}
		if len(products) > 0 && !products[b.Product] {
			continue
		}
		if len(stages) > 0 && !stages[string(b.Stage)] {
			continue
		}
		if scenarioRestricted && b.Scenario != scenario {
			continue
		}
		batches = append(batches, b)
		ids[b.ID] = true
	}

	out := domain.Dataset{
		Batches:     batches,
		Bioreactors: ds.Bioreactors,
	}

	out.CqaResults = make([]domain.CqaResult, 0, len(ds.CqaResults))
	for _, r := range ds.CqaResults {
		if ids[r.BatchID] {
			out.CqaResults = append(out.CqaResults, r)
		}
	}
	out.MlOutputs = make([]domain.MlOutput, 0, len(ds.MlOutputs))
	for _, m := range ds.MlOutputs {
		if ids[m.BatchID] {
			out.MlOutputs = append(out.MlOutputs, m)
		}
	}
	out.CppPoints = make([]domain.CppPoint, 0, len(ds.CppPoints))
	for _, p := range ds.CppPoints {
		if ids[p.BatchID] {
			out.CppPoints = append(out.CppPoints, p)
		}
	}
	return out
}

// Key returns a canonical string form of the filter, suitable as a
// cache key: set fields are sorted so logically equal filters collide.
func (f Filter) Key() string {
	products := append([]string(nil), f.Products...)
	stages := append([]string(nil), f.Stages...)
	sort.Strings(products)
	sort.Strings(stages)

	var sb strings.Builder
	sb.WriteString("products=")
	sb.WriteString(strings.Join(products, ","))
	sb.WriteString("|stages=")
	sb.WriteString(strings.Join(stages, ","))
	sb.WriteString("|range=")
	sb.WriteString(f.Range)
	sb.WriteString("|scenario=")
	sb.WriteString(f.Scenario)
	return sb.String()
}

// toSet converts a slice to a membership set. Matching is exact;
// product codes and stage labels are case-sensitive identifiers.
func toSet(items []string) map[string]bool {
	if len(items) == 0 {
		return nil
	}
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
