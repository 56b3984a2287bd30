// Package treestats summarizes the shape of a redo session.
package treestats

import (
	"io"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/BR903/brainjam/redo"
)

type Stats struct {
	Positions    int `yaml:"positions"`
	Leaves       int `yaml:"leaves"`
	BranchPoints int `yaml:"branch_points"`
	Endpoints    int `yaml:"endpoints"`
	// Transposed counts positions with a better link.
	Transposed int `yaml:"transposed"`
	MaxDepth   int `yaml:"max_depth"`
	// Solution is the root's solution size, or 0 if no solution is known.
	Solution  int `yaml:"solution"`
	Bookmarks int `yaml:"bookmarks"`

	LeafDepthMean  float64 `yaml:"leaf_depth_mean"`
	LeafDepthStdev float64 `yaml:"leaf_depth_stdev"`

	leafDepths []float64
}

// Collect walks the whole session.
func Collect(s *redo.Session) Stats {
	var ids []redo.PosID
	s.Walk(func(id redo.PosID) bool {
		ids = append(ids, id)
		return true
	})
	leaves := lo.Filter(ids, func(id redo.PosID, _ int) bool {
		return s.NumBranches(id) == 0 && id != s.Root()
	})
	st := Stats{
		Positions: len(ids),
		Leaves:    len(leaves),
		BranchPoints: lo.CountBy(ids, func(id redo.PosID) bool {
			return s.NumBranches(id) > 1
		}),
		Endpoints: lo.CountBy(ids, s.Endpoint),
		Transposed: lo.CountBy(ids, func(id redo.PosID) bool {
			return s.Better(id) != redo.NoPosition
		}),
		Solution:  s.SolutionSize(s.Root()),
		Bookmarks: s.Bookmarks().Len(),
		leafDepths: lo.Map(leaves, func(id redo.PosID, _ int) float64 {
			return float64(s.Depth(id))
		}),
	}
	var depths running
	for _, d := range st.leafDepths {
		depths.push(d)
	}
	st.LeafDepthMean = depths.mean
	st.LeafDepthStdev = depths.stdev()
	st.MaxDepth = lo.Max(lo.Map(ids, func(id redo.PosID, _ int) int {
		return s.Depth(id)
	}))
	return st
}

func (st Stats) YAML() (string, error) {
	out, err := yaml.Marshal(st)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Histogram draws the distribution of leaf depths. Nothing is drawn for a
// session with no moves.
func (st Stats) Histogram(w io.Writer) error {
	if len(st.leafDepths) == 0 {
		return nil
	}
	bins := lo.Min([]int{15, st.MaxDepth})
	if bins < 1 {
		bins = 1
	}
	h := histogram.Hist(bins, st.leafDepths)
	return histogram.Fprint(w, h, histogram.Linear(40))
}
