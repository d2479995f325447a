package analysis

import (
	"cmp"
	"math"
	"slices"

	"getaround-insights/internal/model"
	"getaround-insights/internal/stats"
)

// HistogramBins is the number of bars in every distribution histogram.
const HistogramBins = 50

// Share is one slice of a pie chart.
type Share struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Proportion float64 `json:"proportion"`
}

// countShares counts values, most frequent first; ties keep label order.
func countShares(values []string) []Share {
	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}
	shares := make([]Share, 0, len(counts))
	for label, n := range counts {
		shares = append(shares, Share{Label: label, Count: n, Proportion: float64(n) / float64(len(values))})
	}
	slices.SortFunc(shares, func(a, b Share) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Label, b.Label)
	})
	return shares
}

// Distribution is the histogram and box summary of one numeric column.
type Distribution struct {
	Column    string      `json:"column"`
	Histogram []stats.Bin `json:"histogram"`
	Box       stats.Box   `json:"box"`
}

// NumericalView backs the numerical variables analysis.
type NumericalView struct {
	Distributions      []Distribution `json:"distributions"`
	LateCheckinPercent float64        `json:"late_checkin_percent"`
	// DelayInterquartile is the delay histogram restricted to [Q1, Q3].
	DelayInterquartile []stats.Bin `json:"delay_interquartile"`
}

// Numerical builds the distributions of the float columns.
func Numerical(t Table) NumericalView {
	delays := t.Values(func(r Rental) float64 { return r.Delay })
	columns := []struct {
		name   string
		values []float64
	}{
		{model.DelayAtCheckoutColumn, delays},
		{model.TimeDeltaColumn, t.Values(func(r Rental) float64 { return r.TimeDelta })},
		{"real_time_delta", t.Values(func(r Rental) float64 { return r.RealTimeDelta })},
	}

	var view NumericalView
	for _, c := range columns {
		view.Distributions = append(view.Distributions, Distribution{
			Column:    c.name,
			Histogram: stats.Histogram(c.values, HistogramBins),
			Box:       stats.Summarize(c.values),
		})
	}

	if len(t) > 0 {
		late := len(t.Late())
		view.LateCheckinPercent = math.RoundToEven(float64(late) * 100 / float64(len(t)))

		box := view.Distributions[0].Box
		var within []float64
		for _, d := range delays {
			if d >= box.Q1 && d <= box.Q3 {
				within = append(within, d)
			}
		}
		view.DelayInterquartile = stats.Histogram(within, HistogramBins)
	}
	return view
}

// CategoricalView backs the categorical variables analysis.
type CategoricalView struct {
	CheckinType   []Share `json:"checkin_type"`
	State         []Share `json:"state"`
	DelayCategory []Share `json:"delay_category"`
	UniqueCars    int     `json:"unique_cars"`
}

// Categorical counts the object columns of the table.
func Categorical(t Table) CategoricalView {
	checkins := make([]string, 0, len(t))
	var states []string
	cars := make(map[int64]struct{})
	for _, r := range t {
		checkins = append(checkins, string(r.CheckinType))
		if r.State != "" {
			states = append(states, r.State)
		}
		cars[r.CarID] = struct{}{}
	}

	view := CategoricalView{
		CheckinType: countShares(checkins),
		State:       countShares(states),
		UniqueCars:  len(cars),
	}
	counts := make(map[DelayCategory]int, len(DelayCategories))
	for _, r := range t {
		counts[r.Category]++
	}
	for _, cat := range DelayCategories {
		share := Share{Label: string(cat), Count: counts[cat]}
		if len(t) > 0 {
			share.Proportion = float64(counts[cat]) / float64(len(t))
		}
		view.DelayCategory = append(view.DelayCategory, share)
	}
	return view
}

// CategoryShare counts one delay bucket within a checkin type; Proportion is
// relative to the checkin type total.
type CategoryShare struct {
	CheckinType model.CheckinType `json:"checkin_type"`
	Category    DelayCategory     `json:"delay_category"`
	Count       int               `json:"count"`
	Proportion  float64           `json:"proportion"`
}

// CategoryBox is the spread of a column within one delay bucket.
type CategoryBox struct {
	Category DelayCategory `json:"delay_category"`
	Box      stats.Box     `json:"box"`
}

// CheckinAverage is a column mean within one checkin type.
type CheckinAverage struct {
	CheckinType model.CheckinType `json:"checkin_type"`
	Value       float64           `json:"value"`
}

// CheckinWaited splits one checkin type by whether drivers waited.
type CheckinWaited struct {
	CheckinType model.CheckinType `json:"checkin_type"`
	WaitedCount
}

// InDepthView backs the in-depth analysis of delays and their knock-on effect.
type InDepthView struct {
	CategoryShares      []CategoryShare `json:"category_shares"`
	TimeDeltaByCategory []CategoryBox   `json:"time_delta_by_category"`
	// The three averages only cover late rentals.
	AverageDelay         []CheckinAverage `json:"average_delay"`
	AverageTimeDelta     []CheckinAverage `json:"average_time_delta"`
	AverageRealTimeDelta []CheckinAverage `json:"average_real_time_delta"`
	WaitedByCheckin      []CheckinWaited  `json:"waited_by_checkin"`
	Waited               []Share          `json:"waited"`
}

// InDepth crosses delay buckets, checkin types and waiting behaviour.
func InDepth(t Table) InDepthView {
	var view InDepthView

	byCheckin := groupByCheckin(t)
	for _, ct := range checkinOrder(byCheckin) {
		rows := byCheckin[ct]
		if len(rows) == 0 {
			continue
		}
		counts := make(map[DelayCategory]int, len(DelayCategories))
		var w WaitedCount
		for _, r := range rows {
			counts[r.Category]++
			countWaited(&w, r)
		}
		for _, cat := range DelayCategories {
			if counts[cat] == 0 {
				continue
			}
			view.CategoryShares = append(view.CategoryShares, CategoryShare{
				CheckinType: ct,
				Category:    cat,
				Count:       counts[cat],
				Proportion:  float64(counts[cat]) / float64(len(rows)),
			})
		}
		view.WaitedByCheckin = append(view.WaitedByCheckin, CheckinWaited{CheckinType: ct, WaitedCount: w})
	}

	for _, cat := range DelayCategories {
		rows := t.Filter(func(r Rental) bool { return r.Category == cat })
		if len(rows) == 0 {
			continue
		}
		view.TimeDeltaByCategory = append(view.TimeDeltaByCategory, CategoryBox{
			Category: cat,
			Box:      stats.Summarize(rows.Values(func(r Rental) float64 { return r.TimeDelta })),
		})
	}

	late := groupByCheckin(t.Late())
	for _, ct := range checkinOrder(late) {
		rows := late[ct]
		if len(rows) == 0 {
			continue
		}
		view.AverageDelay = append(view.AverageDelay, CheckinAverage{CheckinType: ct, Value: stats.Mean(rows.Values(func(r Rental) float64 { return r.Delay }))})
		view.AverageTimeDelta = append(view.AverageTimeDelta, CheckinAverage{CheckinType: ct, Value: stats.Mean(rows.Values(func(r Rental) float64 { return r.TimeDelta }))})
		view.AverageRealTimeDelta = append(view.AverageRealTimeDelta, CheckinAverage{CheckinType: ct, Value: stats.Mean(rows.Values(func(r Rental) float64 { return r.RealTimeDelta }))})
	}

	var w WaitedCount
	for _, r := range t {
		countWaited(&w, r)
	}
	if len(t) > 0 {
		n := float64(len(t))
		view.Waited = []Share{
			{Label: "waited for rental", Count: w.Waited, Proportion: float64(w.Waited) / n},
			{Label: "did not wait for rental", Count: w.NotWaited, Proportion: float64(w.NotWaited) / n},
		}
	}
	return view
}

func groupByCheckin(t Table) map[model.CheckinType]Table {
	groups := make(map[model.CheckinType]Table)
	for _, r := range t {
		groups[r.CheckinType] = append(groups[r.CheckinType], r)
	}
	return groups
}
