package mockgraph

import (
	"context"
	"fmt"
	"sync"

	"github.com/jward/mockgraph/internal/swiftsrc"
)

// parseFilesParallel parses files on a worker pool. Each worker owns its
// tree-sitter parser for the duration of one file. Results come back in the
// order of paths.
func (e *Engine) parseFilesParallel(ctx context.Context, module string, paths []string, mock bool) ([]*indexedFile, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	numWorkers := min(e.workers, len(paths))
	if numWorkers < 1 {
		numWorkers = 1
	}

	type workItem struct {
		index int
		path  string
	}
	workCh := make(chan workItem, len(paths))
	for i, p := range paths {
		workCh <- workItem{index: i, path: p}
	}
	close(workCh)

	type result struct {
		item workItem
		file *indexedFile
		err  error
	}
	resultCh := make(chan result, len(paths))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range workCh {
				if err := ctx.Err(); err != nil {
					resultCh <- result{item: item, err: err}
					continue
				}
				f, err := swiftsrc.ParseFile(ctx, item.path, module, mock)
				if err != nil {
					resultCh <- result{item: item, err: err}
					continue
				}
				resultCh <- result{item: item, file: &indexedFile{file: f, record: fileRecord(f)}}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	out := make([]*indexedFile, len(paths))
	var errs []error
	for res := range resultCh {
		if res.err != nil {
			errs = append(errs, fmt.Errorf("parse %s: %w", res.item.path, res.err))
			continue
		}
		out[res.item.index] = res.file
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("parallel parsing had %d error(s): %w", len(errs), errs[0])
	}
	return out, nil
}
