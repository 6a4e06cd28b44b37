package watermark

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Job describes one file of a batch run. Output is only used when
// embedding; empty means next to Input.
type Job struct {
	Input   string
	Output  string
	Payload []byte
}

// FileResult reports the outcome for one file. Err is set when that file
// failed; other files are unaffected.
type FileResult struct {
	Input    string
	Output   string
	Payload  []byte
	Duration time.Duration
	Err      error
}

// Batch processes many files, each in its own pipeline.
type Batch struct {
	Embedder  *Embedder
	Extractor *Extractor
	// Workers bounds the number of files processed at once. Zero uses
	// one worker per CPU.
	Workers int
	Logger  *zap.Logger
}

// Embed runs EmbedFile for every job. Results are in job order.
func (b *Batch) Embed(ctx context.Context, jobs []Job) []FileResult {
	inputs := make([]string, len(jobs))
	for i, job := range jobs {
		inputs[i] = job.Input
	}
	return b.run(ctx, inputs, func(i int) FileResult {
		job := jobs[i]
		res := FileResult{Input: job.Input, Payload: job.Payload}
		written, err := b.Embedder.EmbedFile(job.Input, job.Output, job.Payload)
		if err != nil {
			res.Err = err
			return res
		}
		res.Output = written.File
		return res
	})
}

// Extract runs ExtractFile for every path. Results are in path order.
func (b *Batch) Extract(ctx context.Context, paths []string) []FileResult {
	return b.run(ctx, paths, func(i int) FileResult {
		payload, err := b.Extractor.ExtractFile(paths[i])
		return FileResult{Input: paths[i], Payload: payload, Err: err}
	})
}

func (b *Batch) run(ctx context.Context, inputs []string, process func(i int) FileResult) []FileResult {
	log := b.Logger
	if log == nil {
		log = zap.NewNop()
	}
	workers := b.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]FileResult, len(inputs))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range inputs {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				results[i] = FileResult{Input: inputs[i], Err: err}
				return nil
			}
			start := time.Now()
			res := process(i)
			res.Duration = time.Since(start)
			results[i] = res

			if res.Err != nil {
				log.Warn("file failed", zap.String("input", res.Input), zap.Error(res.Err))
			} else {
				log.Debug("file done", zap.String("input", res.Input), zap.Duration("took", res.Duration))
			}
			// per-file failures never cancel the rest of the batch
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Failed counts the results that carry an error.
func Failed(results []FileResult) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
