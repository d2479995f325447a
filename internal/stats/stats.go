// Package stats holds the descriptive statistics shared by the dashboard
// views and the dataset query endpoints.
package stats

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean of x, or NaN when x is empty.
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

// StdDev returns the sample standard deviation of x (n-1 denominator).
func StdDev(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.StdDev(x, nil)
}

// Sum returns the sum of x.
func Sum(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Sum(x)
}

// Min returns the smallest value of x, or NaN when x is empty.
func Min(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return floats.Min(x)
}

// Max returns the largest value of x, or NaN when x is empty.
func Max(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return floats.Max(x)
}

// Sorted returns a sorted copy of x.
func Sorted(x []float64) []float64 {
	s := slices.Clone(x)
	slices.Sort(s)
	return s
}

// Quantile returns the p-quantile of x, interpolating linearly between the
// two closest ranks (position (n-1)*p). This is the definition pandas uses by
// default, which gonum's stat.Quantile does not offer.
func Quantile(p float64, x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return quantileSorted(p, Sorted(x))
}

// Median returns the 0.5 quantile of x; even-length inputs average the two
// middle values.
func Median(x []float64) float64 {
	return Quantile(0.5, x)
}

func quantileSorted(p float64, s []float64) float64 {
	pos := p * float64(len(s)-1)
	lo := math.Floor(pos)
	hi := math.Ceil(pos)
	if lo == hi {
		return s[int(lo)]
	}
	frac := pos - lo
	return s[int(lo)] + (s[int(hi)]-s[int(lo)])*frac
}

// Box is the five-number summary drawn by a box plot.
type Box struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	// Fences are Q1 - 1.5*IQR and Q3 + 1.5*IQR.
	LowerFence float64 `json:"lower_fence"`
	UpperFence float64 `json:"upper_fence"`
}

// Summarize computes the box summary of x. An empty input yields a zero Box.
func Summarize(x []float64) Box {
	if len(x) == 0 {
		return Box{}
	}
	s := Sorted(x)
	q1 := quantileSorted(0.25, s)
	q3 := quantileSorted(0.75, s)
	iqr := q3 - q1
	return Box{
		Count:      len(s),
		Min:        s[0],
		Q1:         q1,
		Median:     quantileSorted(0.5, s),
		Q3:         q3,
		Max:        s[len(s)-1],
		LowerFence: q1 - 1.5*iqr,
		UpperFence: q3 + 1.5*iqr,
	}
}

// Bin is one bar of a histogram covering [Lower, Upper).
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Histogram splits the range of x into n equal-width bins. The last bin is
// closed on the right so the maximum is counted.
func Histogram(x []float64, n int) []Bin {
	if len(x) == 0 || n <= 0 {
		return nil
	}
	s := Sorted(x)
	lo, hi := s[0], s[len(s)-1]
	if lo == hi {
		hi = lo + 1
	}
	dividers := floats.Span(make([]float64, n+1), lo, hi)
	// stat.Histogram wants every value strictly below the last divider.
	dividers[n] = math.Nextafter(hi, math.Inf(1))
	counts := stat.Histogram(nil, dividers, s, nil)

	bins := make([]Bin, n)
	for i := range bins {
		bins[i] = Bin{Lower: dividers[i], Upper: dividers[i+1], Count: int(counts[i])}
	}
	bins[n-1].Upper = hi
	return bins
}
