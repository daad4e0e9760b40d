package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// RunBatch runs every audio file into its own directory under outputRoot, named after
// the file stem. A failing narrative is reported in its Report and does not stop the
// others; only context cancellation aborts the batch.
func (p *Pipeline) RunBatch(ctx context.Context, audioPaths []string, outputRoot string) ([]*Report, error) {
	dirs := batchDirs(audioPaths, outputRoot)
	reports := make([]*Report, len(audioPaths))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(1, p.cfg.Batch.Concurrency))

	var limiter *rate.Limiter
	if p.cfg.Batch.Interval > 0 {
		limiter = rate.NewLimiter(rate.Every(p.cfg.Batch.Interval), 2)
	}
	p.log.WithField("count", len(audioPaths)).WithField("concurrency", p.cfg.Batch.Concurrency).Info("batch started")

	for i, path := range audioPaths {
		i, path := i, path
		eg.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(egCtx); err != nil {
					return err
				}
			}
			rep, err := p.Run(egCtx, path, dirs[i])
			if err != nil {
				p.log.WithError(err).WithField("audio", path).Warn("batch item failed")
			}
			reports[i] = rep
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return reports, fmt.Errorf("batch: %w", err)
	}
	return reports, nil
}

// batchDirs maps each file to outputRoot/<stem>, suffixing repeated stems with -2, -3...
func batchDirs(paths []string, outputRoot string) []string {
	seen := map[string]int{}
	out := make([]string, len(paths))
	for i, path := range paths {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if stem == "" {
			stem = "narrative"
		}
		seen[stem]++
		if n := seen[stem]; n > 1 {
			stem = fmt.Sprintf("%s-%d", stem, n)
		}
		out[i] = filepath.Join(outputRoot, stem)
	}
	return out
}
