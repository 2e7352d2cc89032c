// Command primesieve computes primes below a limit with a worker pool
// coordinated entirely through an objectspace.Space: workers take
// unfinished sieve tasks by key, write discovered primes as plain int64
// values, and write the task back marked finished so the main loop can
// join on it. Grounded on the upstream crate's primes example.
package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/edirooss/objectspace/pkg/objectspace"
)

// task is one unit of sieve work: find primes in [start, end) and mark
// finished when done.
type task struct {
	Finished bool  `json:"finished"`
	Start    int64 `json:"start"`
	End      int64 `json:"end"`
}

func main() {
	upperLim := flag.Int64("limit", 1000, "compute primes below this limit")
	workers := flag.Int("workers", 4, "number of concurrent sieve workers")
	flag.Parse()

	log, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	space := objectspace.NewSpace(objectspace.WithLogger(log))
	if err := run(context.Background(), space, log, *upperLim, *workers); err != nil {
		log.Fatal("primesieve: run failed", zap.Error(err))
	}
}

func run(ctx context.Context, space *objectspace.Space, log *zap.Logger, upperLim int64, workerCount int) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := objectspace.Write(space, int64(2)); err != nil {
		return err
	}
	if err := objectspace.Write(space, int64(3)); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < workerCount; i++ {
		g.Go(func() error {
			sieveWorker(gctx, space, log)
			return nil
		})
	}

	n := int64(4)
	for n < upperLim {
		max := upperLim
		if n*n < upperLim {
			max = n * n
		}

		for i := 0; i < workerCount; i++ {
			start := n + int64(math.Round(float64(max-n)/float64(workerCount)*float64(i)))
			end := n + int64(math.Round(float64(max-n)/float64(workerCount)*float64(i+1)))
			if err := objectspace.Write(space, task{Finished: false, Start: start, End: end}); err != nil {
				return err
			}
		}

		for i := 0; i < workerCount; i++ {
			if _, err := objectspace.TakeKey[task](ctx, space, "finished", true); err != nil {
				return err
			}
		}
		n = max
	}

	cancel() // release workers blocked on their next take
	_ = g.Wait()

	primes, err := objectspace.ReadAll[int64](space)
	if err != nil {
		return err
	}
	log.Info("primesieve: done", zap.Int("count", len(primes)))
	for _, p := range primes {
		fmt.Println(p)
	}
	return nil
}

func sieveWorker(ctx context.Context, space *objectspace.Space, log *zap.Logger) {
	for {
		t, err := objectspace.TakeKey[task](ctx, space, "finished", false)
		if err != nil {
			return // context cancelled: pool is shutting down
		}

		primes, err := objectspace.ReadAll[int64](space)
		if err != nil {
			log.Error("primesieve: worker read failed", zap.Error(err))
			return
		}

		for i := t.Start; i < t.End; i++ {
			isPrime := true
			for _, p := range primes {
				if p*p >= t.End {
					break
				}
				if i%p == 0 {
					isPrime = false
					break
				}
			}
			if isPrime {
				if err := objectspace.Write(space, i); err != nil {
					log.Error("primesieve: worker write failed", zap.Error(err))
					return
				}
			}
		}

		t.Finished = true
		if err := objectspace.Write(space, t); err != nil {
			log.Error("primesieve: worker write-back failed", zap.Error(err))
			return
		}
	}
}
