package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"getaround-insights/internal/model"
)

func f(v float64) *float64 { return &v }

func sampleRentals() []model.Rental {
	return []model.Rental{
		{RentalID: 1, CarID: 10, CheckinType: model.CheckinMobile, State: "ended", DelayAtCheckout: f(-20), TimeDeltaWithPrevious: nil},
		{RentalID: 2, CarID: 10, CheckinType: model.CheckinMobile, State: "ended", DelayAtCheckout: f(15), TimeDeltaWithPrevious: f(30)},
		{RentalID: 3, CarID: 11, CheckinType: model.CheckinConnect, State: "ended", DelayAtCheckout: f(45), TimeDeltaWithPrevious: f(10)},
		{RentalID: 4, CarID: 12, CheckinType: model.CheckinConnect, State: "canceled", DelayAtCheckout: nil, TimeDeltaWithPrevious: f(0)},
		{RentalID: 5, CarID: 12, CheckinType: model.CheckinMobile, State: "ended", DelayAtCheckout: f(90), TimeDeltaWithPrevious: f(120)},
		{RentalID: 6, CarID: 13, CheckinType: model.CheckinConnect, State: "ended", DelayAtCheckout: f(300), TimeDeltaWithPrevious: f(240)},
	}
}

func TestCategorize(t *testing.T) {
	testCases := []struct {
		delay    float64
		expected DelayCategory
	}{
		{-81, NoDelay},
		{0, NoDelay},
		{0.5, DelayUnder30},
		{29, DelayUnder30},
		{30, Delay30To60},
		{59.9, Delay30To60},
		{60, Delay60To120},
		{119, Delay60To120},
		{120, DelayOver2Hours},
		{2000, DelayOver2Hours},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, Categorize(tc.delay), "delay %v", tc.delay)
	}
}

func TestDeriveFillsMissingValues(t *testing.T) {
	table := Derive(sampleRentals())
	require.Len(t, table, 6)

	assert.Equal(t, MissingTimeDelta, table[0].TimeDelta)
	assert.Equal(t, 740.0, table[0].RealTimeDelta)
	assert.False(t, table[0].WaitedForRental)

	assert.Equal(t, 0.0, table[3].Delay)
	assert.Equal(t, NoDelay, table[3].Category)
	assert.Equal(t, 0.0, table[3].RealTimeDelta)
	assert.False(t, table[3].WaitedForRental, "a zero real time delta is not a wait")
}

func TestDeriveIsPure(t *testing.T) {
	rentals := sampleRentals()
	first := Derive(rentals)
	second := Derive(rentals)

	assert.Equal(t, first, second)
	assert.Nil(t, rentals[0].TimeDeltaWithPrevious, "source rows must not be filled in place")
}

func TestWaitedMatchesRealTimeDeltaSign(t *testing.T) {
	for _, r := range Derive(sampleRentals()) {
		assert.Equal(t, r.RealTimeDelta < 0, r.WaitedForRental, "rental %d", r.RentalID)
	}
}

func TestSimulateScenario(t *testing.T) {
	rentals := []model.Rental{
		{RentalID: 1, CarID: 1, CheckinType: model.CheckinConnect, DelayAtCheckout: f(45), TimeDeltaWithPrevious: f(10)},
		{RentalID: 2, CarID: 2, CheckinType: model.CheckinMobile},
	}
	table := Derive(rentals)

	assert.Equal(t, Delay30To60, table[0].Category)
	assert.Equal(t, -35.0, table[0].RealTimeDelta)
	assert.True(t, table[0].WaitedForRental)

	sim := Simulate(table, 60)
	assert.Equal(t, 60, sim.Threshold)
	assert.Equal(t, 1, sim.ImpactedTotal)
	assert.Equal(t, 1, sim.ImpactedConnect)
	assert.Equal(t, 0, sim.ImpactedMobile)
	assert.Equal(t, WaitedCount{Waited: 1, NotWaited: 1}, sim.Waited)
	assert.Equal(t, []CheckinImpact{
		{CheckinType: model.CheckinConnect, Impacted: 1, NotImpacted: 0},
		{CheckinType: model.CheckinMobile, Impacted: 0, NotImpacted: 1},
	}, sim.Impact)
	assert.Equal(t, WaitedCount{Waited: 0, NotWaited: 1}, sim.RemainingWaited)
}

func TestSimulateCounts(t *testing.T) {
	table := Derive(sampleRentals())
	sim := Simulate(table, 60)

	// time deltas: 720, 30, 10, 0, 120, 240
	assert.Equal(t, 3, sim.ImpactedTotal)
	assert.Equal(t, 2, sim.ImpactedConnect)
	assert.Equal(t, 1, sim.ImpactedMobile)

	remaining := map[model.CheckinType]RemainingCount{}
	for _, rc := range sim.Remaining {
		remaining[rc.CheckinType] = rc
	}
	assert.Equal(t, 1, remaining[model.CheckinMobile].OnTime)
	assert.Equal(t, 1, remaining[model.CheckinMobile].Late)
	assert.Equal(t, 0, remaining[model.CheckinConnect].OnTime)
	assert.Equal(t, 1, remaining[model.CheckinConnect].Late)
	assert.Equal(t, 1, remaining[model.CheckinConnect].Waited)
}

func TestSimulateBucketsCoverEveryRental(t *testing.T) {
	table := Derive(sampleRentals())
	sim := Simulate(table, 0)

	total := 0
	for _, b := range sim.DelayBuckets {
		total += b.Count
	}
	assert.Equal(t, len(table), total)
	assert.Len(t, sim.DelayBuckets, len(model.CheckinTypes)*len(DelayCategories))
	assert.Equal(t, 0, sim.ImpactedTotal)
}

func TestSimulateImpactIsMonotonic(t *testing.T) {
	table := Derive(sampleRentals())
	prev := -1
	for threshold := 0; threshold <= MaxThreshold; threshold++ {
		sim := Simulate(table, threshold)
		assert.GreaterOrEqual(t, sim.ImpactedTotal, prev, "threshold %d", threshold)
		prev = sim.ImpactedTotal
	}
	assert.Equal(t, 5, prev, "only the filled 720 delta stays bookable at the maximum")
}

func TestDescribe(t *testing.T) {
	ov := Describe(sampleRentals())

	assert.Equal(t, 6, ov.Rows)
	assert.Equal(t, 7, ov.Columns)
	assert.Len(t, ov.Head, HeadRows)

	info := map[string]ColumnInfo{}
	for _, ci := range ov.Info {
		info[ci.Name] = ci
	}
	assert.Equal(t, 5, info[model.DelayAtCheckoutColumn].NonNull)
	assert.Equal(t, 17.0, info[model.DelayAtCheckoutColumn].MissingPercent)
	assert.Equal(t, 100.0, info[model.PreviousEndedRentalIDColumn].MissingPercent)
	assert.Equal(t, "object", info[model.CheckinTypeColumn].Dtype)

	desc := map[string]Description{}
	for _, d := range ov.Describe {
		desc[d.Column] = d
	}
	checkin := desc[model.CheckinTypeColumn]
	require.NotNil(t, checkin.Unique)
	assert.Equal(t, 2, *checkin.Unique)
	assert.Equal(t, "connect", *checkin.Top, "ties resolve by label")
	assert.Equal(t, 3, *checkin.Freq)

	delay := desc[model.DelayAtCheckoutColumn]
	require.NotNil(t, delay.Mean)
	assert.InDelta(t, 86.0, *delay.Mean, 1e-9)
	assert.Equal(t, -20.0, *delay.Min)
	assert.Nil(t, desc[model.PreviousEndedRentalIDColumn].Mean)
}

func TestCategorical(t *testing.T) {
	view := Categorical(Derive(sampleRentals()))

	assert.Equal(t, 4, view.UniqueCars)
	require.Len(t, view.DelayCategory, len(DelayCategories))
	assert.Equal(t, 2, view.DelayCategory[0].Count)
	assert.Equal(t, "ended", view.State[0].Label)
	assert.Equal(t, 5, view.State[0].Count)
}

func TestNumerical(t *testing.T) {
	view := Numerical(Derive(sampleRentals()))

	require.Len(t, view.Distributions, 3)
	assert.Equal(t, model.DelayAtCheckoutColumn, view.Distributions[0].Column)
	assert.Len(t, view.Distributions[0].Histogram, HistogramBins)
	assert.Equal(t, 67.0, view.LateCheckinPercent)
	assert.NotEmpty(t, view.DelayInterquartile)
}

func TestInDepth(t *testing.T) {
	view := InDepth(Derive(sampleRentals()))

	var connectTotal int
	for _, s := range view.CategoryShares {
		if s.CheckinType == model.CheckinConnect {
			connectTotal += s.Count
		}
	}
	assert.Equal(t, 3, connectTotal)

	require.Len(t, view.AverageDelay, 2)
	assert.Equal(t, model.CheckinConnect, view.AverageDelay[0].CheckinType)
	assert.InDelta(t, 172.5, view.AverageDelay[0].Value, 1e-9)
	assert.InDelta(t, 125.0, view.AverageTimeDelta[0].Value, 1e-9)
	assert.InDelta(t, -47.5, view.AverageRealTimeDelta[0].Value, 1e-9)

	require.Len(t, view.Waited, 2)
	assert.Equal(t, 2, view.Waited[0].Count)
}
