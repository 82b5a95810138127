package analyze

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ProgressStatus is the state of one file within a batch.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)

// ProgressEvent reports the state of one file of an AnalyzeAll batch.
type ProgressEvent struct {
	Path    string
	Status  ProgressStatus
	Message string
}

// AnalyzeAll analyses every path in parallel, at most limit at a time when
// limit is positive. Each file gets its own model, so no model is shared
// between goroutines. The first failure cancels the derived context and
// remaining files stop early.
//
// Results are in the order of paths; entries for files that failed or were
// abandoned are nil. The returned error is the first failure.
func (a *Analyzer) AnalyzeAll(ctx context.Context, paths []string, limit int, onProgress func(ProgressEvent)) ([]*Result, error) {
	emit := func(ev ProgressEvent) {
		if onProgress != nil {
			onProgress(ev)
		}
	}

	results := make([]*Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for _, path := range paths {
		emit(ProgressEvent{Path: path, Status: ProgressPending})
	}
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			emit(ProgressEvent{Path: path, Status: ProgressWorking})

			res, err := a.AnalyzeFile(gctx, path)
			if err != nil {
				emit(ProgressEvent{Path: path, Status: ProgressFailed, Message: err.Error()})
				return err
			}
			results[i] = res
			emit(ProgressEvent{Path: path, Status: ProgressComplete})
			return nil
		})
	}

	err := g.Wait()
	return results, err
}
