// redocheck replays every saved session and checks the resulting trees.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/BR903/brainjam/config"
	"github.com/BR903/brainjam/gameplay"
	"github.com/BR903/brainjam/redo"
	"github.com/BR903/brainjam/redoio"
	"github.com/BR903/brainjam/solitaire"
	"github.com/BR903/brainjam/store"
	"github.com/BR903/brainjam/treestats"
)

// sessionBudget is roughly the most memory one replayed session needs.
const sessionBudget = 256 << 20

// threadCount limits concurrent replays to the number of CPUs and to what
// fits in a quarter of total memory. totalMem of 0 means unknown.
func threadCount(cpus int, totalMem uint64) int {
	n := cpus
	if totalMem > 0 {
		if byMem := int(totalMem / 4 / sessionBudget); byMem < n {
			n = byMem
		}
	}
	if n < 1 {
		n = 1
	}
	return n
}

type result struct {
	key      string
	stats    treestats.Stats
	report   redoio.Report
	problems []error
}

func (r result) ok() bool {
	return r.report.Clean() && len(r.problems) == 0
}

// check replays one saved session and validates it.
func check(st store.Store, key string) (result, error) {
	res := result{key: key}
	l, n, err := solitaire.ParseGameKey(key)
	if err != nil {
		return res, err
	}
	g, err := solitaire.Deal(l, n)
	if err != nil {
		return res, err
	}
	gp, err := gameplay.Start(g, l.ComparableLength(), redo.GraftCopy)
	if err != nil {
		return res, err
	}
	res.report, err = gp.Load(st, key)
	if err != nil {
		return res, err
	}
	res.problems = gp.Session().Validate(l.IsSolved)
	res.stats = treestats.Collect(gp.Session())
	return res, nil
}

// checkAll checks every session in st, at most threads at a time.
func checkAll(ctx context.Context, st store.Store, threads int) ([]result, error) {
	keys, err := st.Keys()
	if err != nil {
		return nil, err
	}
	results := make([]result, len(keys))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := check(st, key)
			if err != nil {
				log.Err(err).Str("key", key).Msg("check-failed")
				return fmt.Errorf("%s: %w", key, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func printResults(w io.Writer, results []result) int {
	bad := 0
	for _, r := range results {
		status := "ok"
		if !r.ok() {
			status = "PROBLEMS"
			bad++
		}
		fmt.Fprintf(w, "%-20s %-8s positions %5d  leaves %4d  solution %3d  transposed %4d\n",
			r.key, status, r.stats.Positions, r.stats.Leaves, r.stats.Solution, r.stats.Transposed)
		if r.report.Skipped > 0 || r.report.Corrupt > 0 || r.report.Truncated {
			fmt.Fprintf(w, "    replay: %d skipped, %d corrupt, truncated %v\n",
				r.report.Skipped, r.report.Corrupt, r.report.Truncated)
		}
		for _, p := range r.problems {
			fmt.Fprintf(w, "    %v\n", p)
		}
	}
	return bad
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	path := cfg.GetString(config.ConfigDataPath)
	if len(cfg.Args) > 0 {
		path = cfg.Args[0]
	}
	st, err := store.OpenDataPath(cfg.GetString(config.ConfigSessionStore), path)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open session store")
	}
	defer st.Close()

	results, err := checkAll(context.Background(), st, threadCount(runtime.NumCPU(), memory.TotalMemory()))
	if err != nil {
		log.Error().Err(err).Msg("check-aborted")
		os.Exit(1)
	}
	if bad := printResults(os.Stdout, results); bad > 0 {
		fmt.Printf("%d of %d sessions have problems\n", bad, len(results))
		os.Exit(1)
	}
	fmt.Printf("%d sessions ok\n", len(results))
}
