package treestats

import "math"

// running keeps a mean and variance over a stream of values using
// Welford's method.
type running struct {
	n    int
	mean float64
	m2   float64
}

func (r *running) push(val float64) {
	r.n++
	delta := val - r.mean
	r.mean += delta / float64(r.n)
	r.m2 += delta * (val - r.mean)
}

func (r *running) variance() float64 {
	if r.n <= 1 {
		return 0
	}
	return r.m2 / float64(r.n-1)
}

func (r *running) stdev() float64 {
	return math.Sqrt(r.variance())
}
