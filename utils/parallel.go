// Package utils contains small helpers shared by the depthcloud packages.
package utils

import (
	"context"
	"fmt"
	"runtime"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ParallelFactor controls the max level of parallelization. This might be useful
// to set in tests where too much parallelism actually slows tests down in
// aggregate.
var ParallelFactor = runtime.GOMAXPROCS(0)

func init() {
	if ParallelFactor <= 0 {
		ParallelFactor = 1
	}
}

// GroupWorkFunc does the work for the half-open range [from, to) of group groupNum.
type GroupWorkFunc func(ctx context.Context, groupNum, from, to int) error

// GroupRanges splits totalSize items into at most numGroups contiguous ranges. Earlier groups
// take the remainder so that no group is more than one item larger than another.
func GroupRanges(totalSize, numGroups int) [][2]int {
	if totalSize <= 0 {
		return nil
	}
	if numGroups <= 0 {
		numGroups = ParallelFactor
	}
	if numGroups > totalSize {
		numGroups = totalSize
	}
	groupSize := totalSize / numGroups
	extra := totalSize % numGroups

	ranges := make([][2]int, 0, numGroups)
	from := 0
	for groupNum := 0; groupNum < numGroups; groupNum++ {
		to := from + groupSize
		if groupNum < extra {
			to++
		}
		ranges = append(ranges, [2]int{from, to})
		from = to
	}
	return ranges
}

// GroupWorkParallel parallelizes the given size of work over numGroups workers and returns
// the number of groups that were scheduled. The first error, or a recovered panic, cancels
// the context handed to the remaining groups.
func GroupWorkParallel(ctx context.Context, totalSize, numGroups int, groupWork GroupWorkFunc) (int, error) {
	ranges := GroupRanges(totalSize, numGroups)
	if len(ranges) == 0 {
		return 0, nil
	}
	if len(ranges) == 1 {
		return 1, runGroup(ctx, groupWork, 0, ranges[0])
	}

	g, gctx := errgroup.WithContext(ctx)
	for groupNum, r := range ranges {
		g.Go(func() error {
			return runGroup(gctx, groupWork, groupNum, r)
		})
	}
	return len(ranges), g.Wait()
}

func runGroup(ctx context.Context, groupWork GroupWorkFunc, groupNum int, r [2]int) (err error) {
	defer func() {
		if thePanic := recover(); thePanic != nil {
			err = fmt.Errorf("got panic running group %d in parallel: %v", groupNum, thePanic)
		}
	}()
	if err := ctx.Err(); err != nil {
		return errors.Wrapf(err, "group %d not started", groupNum)
	}
	return groupWork(ctx, groupNum, r[0], r[1])
}
