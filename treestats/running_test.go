package treestats

import (
	"math"
	"testing"

	"github.com/matryer/is"
)

func TestRunning(t *testing.T) {
	is := is.New(t)
	var r running
	is.Equal(r.variance(), 0.0)
	for _, v := range []float64{2, 4, 4, 4, 5, 5, 7, 9} {
		r.push(v)
	}
	is.True(math.Abs(r.mean-5) < 1e-9)
	is.True(math.Abs(r.variance()-32.0/7) < 1e-9)
	is.True(math.Abs(r.stdev()-math.Sqrt(32.0/7)) < 1e-9)
}
