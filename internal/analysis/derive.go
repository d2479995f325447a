// Package analysis computes the dashboard views over the rental delay table:
// derived columns, descriptive overviews and the delay threshold simulator.
package analysis

import "getaround-insights/internal/model"

const (
	// MissingTimeDelta stands in for an absent time delta: the documented
	// "no previous rental close enough to matter" value.
	MissingTimeDelta = 720.0
	// MaxThreshold is the upper bound of the minimum delay threshold, in minutes.
	MaxThreshold = 720
)

// DelayCategory buckets a rental by how late the car was returned.
type DelayCategory string

const (
	NoDelay         DelayCategory = "no delay"
	DelayUnder30    DelayCategory = "delay < 30 minutes"
	Delay30To60     DelayCategory = "30 minutes <= delay < 1 hour"
	Delay60To120    DelayCategory = "1 hour <= delay < 2 hours"
	DelayOver2Hours DelayCategory = "2 hours <= delay"
)

// DelayCategories lists the buckets in ascending order.
var DelayCategories = []DelayCategory{NoDelay, DelayUnder30, Delay30To60, Delay60To120, DelayOver2Hours}

// Categorize returns the bucket of a checkout delay in minutes.
func Categorize(delay float64) DelayCategory {
	switch {
	case delay >= 120:
		return DelayOver2Hours
	case delay >= 60:
		return Delay60To120
	case delay >= 30:
		return Delay30To60
	case delay > 0:
		return DelayUnder30
	}
	return NoDelay
}

// Rental is a source rental together with its derived columns.
type Rental struct {
	model.Rental
	// Delay is the checkout delay with missing values read as 0.
	Delay float64 `json:"delay"`
	// TimeDelta is the time delta with missing values read as MissingTimeDelta.
	TimeDelta       float64       `json:"time_delta"`
	Category        DelayCategory `json:"delay_category"`
	RealTimeDelta   float64       `json:"real_time_delta"`
	WaitedForRental bool          `json:"waited_for_rental"`
}

// Late reports whether the car came back after the scheduled checkout.
func (r Rental) Late() bool {
	return r.Delay > 0
}

// Table is the derived, read-only rental table.
type Table []Rental

// Derive computes the derived columns. The source slice is not modified and
// deriving twice from the same rentals gives the same table.
func Derive(rentals []model.Rental) Table {
	out := make(Table, len(rentals))
	for i, r := range rentals {
		delay := 0.0
		if r.DelayAtCheckout != nil {
			delay = *r.DelayAtCheckout
		}
		delta := MissingTimeDelta
		if r.TimeDeltaWithPrevious != nil {
			delta = *r.TimeDeltaWithPrevious
		}
		gap := delta - delay
		out[i] = Rental{
			Rental:          r,
			Delay:           delay,
			TimeDelta:       delta,
			Category:        Categorize(delay),
			RealTimeDelta:   gap,
			WaitedForRental: gap < 0,
		}
	}
	return out
}

// Filter returns the rentals for which keep is true.
func (t Table) Filter(keep func(Rental) bool) Table {
	var out Table
	for _, r := range t {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}

// Late returns the rentals returned after the scheduled checkout.
func (t Table) Late() Table {
	return t.Filter(Rental.Late)
}

// Values extracts one float column.
func (t Table) Values(get func(Rental) float64) []float64 {
	out := make([]float64, len(t))
	for i, r := range t {
		out[i] = get(r)
	}
	return out
}
