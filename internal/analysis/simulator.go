package analysis

import (
	"slices"

	"getaround-insights/internal/model"
)

// CheckinImpact counts, for one checkin type, the rentals that a minimum delay
// threshold would block and those it would leave bookable.
type CheckinImpact struct {
	CheckinType model.CheckinType `json:"checkin_type"`
	Impacted    int               `json:"impacted"`
	NotImpacted int               `json:"not_impacted"`
}

// BucketCount counts the rentals of one checkin type falling in a delay bucket.
type BucketCount struct {
	CheckinType model.CheckinType `json:"checkin_type"`
	Category    DelayCategory     `json:"delay_category"`
	Count       int               `json:"count"`
}

// WaitedCount splits rentals by whether the next driver had to wait.
type WaitedCount struct {
	Waited    int `json:"waited"`
	NotWaited int `json:"not_waited"`
}

// RemainingCount describes, for one checkin type, the rentals still possible
// once the threshold is enforced.
type RemainingCount struct {
	CheckinType model.CheckinType `json:"checkin_type"`
	OnTime      int               `json:"on_time"`
	Late        int               `json:"late"`
	WaitedCount
}

// Simulation is the outcome of enforcing a minimum delay between rentals.
type Simulation struct {
	Threshold       int              `json:"threshold"`
	Total           int              `json:"total"`
	ImpactedTotal   int              `json:"impacted_total"`
	ImpactedConnect int              `json:"impacted_connect"`
	ImpactedMobile  int              `json:"impacted_mobile"`
	Impact          []CheckinImpact  `json:"impact"`
	DelayBuckets    []BucketCount    `json:"delay_buckets"`
	Waited          WaitedCount      `json:"waited"`
	Remaining       []RemainingCount `json:"remaining"`
	RemainingWaited WaitedCount      `json:"remaining_waited"`
}

// Impacted reports whether a rental would have been blocked by a minimum
// delay of threshold minutes.
func Impacted(r Rental, threshold int) bool {
	return r.TimeDelta < float64(threshold)
}

// Simulate classifies every rental against a minimum delay threshold in
// minutes. Callers keep threshold within [0, MaxThreshold].
func Simulate(t Table, threshold int) Simulation {
	impact := make(map[model.CheckinType]*CheckinImpact, len(model.CheckinTypes))
	remaining := make(map[model.CheckinType]*RemainingCount, len(model.CheckinTypes))
	for _, ct := range model.CheckinTypes {
		impact[ct] = &CheckinImpact{CheckinType: ct}
		remaining[ct] = &RemainingCount{CheckinType: ct}
	}
	buckets := make(map[model.CheckinType]map[DelayCategory]int, len(model.CheckinTypes))

	sim := Simulation{Threshold: threshold, Total: len(t)}
	for _, r := range t {
		ct := r.CheckinType
		if _, ok := impact[ct]; !ok {
			impact[ct] = &CheckinImpact{CheckinType: ct}
			remaining[ct] = &RemainingCount{CheckinType: ct}
		}
		if buckets[ct] == nil {
			buckets[ct] = make(map[DelayCategory]int, len(DelayCategories))
		}
		buckets[ct][r.Category]++
		countWaited(&sim.Waited, r)

		if Impacted(r, threshold) {
			impact[ct].Impacted++
			sim.ImpactedTotal++
			continue
		}
		impact[ct].NotImpacted++

		rc := remaining[ct]
		if r.Late() {
			rc.Late++
		} else {
			rc.OnTime++
		}
		countWaited(&rc.WaitedCount, r)
		countWaited(&sim.RemainingWaited, r)
	}

	sim.ImpactedConnect = impact[model.CheckinConnect].Impacted
	sim.ImpactedMobile = impact[model.CheckinMobile].Impacted
	for _, ct := range checkinOrder(impact) {
		sim.Impact = append(sim.Impact, *impact[ct])
		sim.Remaining = append(sim.Remaining, *remaining[ct])
		for _, cat := range DelayCategories {
			sim.DelayBuckets = append(sim.DelayBuckets, BucketCount{CheckinType: ct, Category: cat, Count: buckets[ct][cat]})
		}
	}
	return sim
}

func countWaited(w *WaitedCount, r Rental) {
	if r.WaitedForRental {
		w.Waited++
	} else {
		w.NotWaited++
	}
}

// checkinOrder lists the known checkin types first, then any unexpected
// values found in the data in sorted order.
func checkinOrder[V any](seen map[model.CheckinType]V) []model.CheckinType {
	order := make([]model.CheckinType, 0, len(seen))
	known := make(map[model.CheckinType]bool, len(model.CheckinTypes))
	for _, ct := range model.CheckinTypes {
		known[ct] = true
		order = append(order, ct)
	}
	var extra []model.CheckinType
	for ct := range seen {
		if !known[ct] {
			extra = append(extra, ct)
		}
	}
	slices.Sort(extra)
	return append(order, extra...)
}
