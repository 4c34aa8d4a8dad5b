package unusedvars

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/jward/unusedvars/internal/jsscope"
	"github.com/jward/unusedvars/internal/store"
)

// workItem holds everything a parallel indexing worker needs.
type workItem struct {
	path   string
	src    []byte
	fileID int64
	batch  *store.BatchedStore
}

// IndexFilesParallel indexes files using a three-phase parallel pipeline:
//
//	Phase A (serial):   Hash check, delete old data, prepare file records.
//	Phase B (parallel): Parse and resolve via worker pool, one BatchedStore per file.
//	Phase C (serial):   Commit batches to SQLite.
//
// force re-resolves files whose content hash is unchanged.
func (e *Engine) IndexFilesParallel(ctx context.Context, paths []string, force bool) error {
	// ---- Phase A: Serial file preparation ----
	var (
		items []workItem
		errs  []error
	)
	for _, path := range paths {
		item, skip, err := e.prepareFile(path, force)
		if err != nil {
			errs = append(errs, e.dropFailed(path, fmt.Errorf("prepare %s: %w", path, err)))
			continue
		}
		if skip {
			continue
		}
		item.batch = store.NewBatchedStore()
		items = append(items, item)
	}

	// ---- Phase B: Parallel resolution ----
	numWorkers := min(runtime.NumCPU(), len(items))
	if numWorkers < 1 {
		numWorkers = 1
	}

	workCh := make(chan workItem, len(items))
	for _, item := range items {
		workCh <- item
	}
	close(workCh)

	type result struct {
		item workItem
		err  error
	}
	resultCh := make(chan result, len(items))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each Resolve call owns its parser, and the BatchedStore per
			// item handles write isolation.
			for item := range workCh {
				err := e.resolveFile(ctx, item)
				resultCh <- result{item: item, err: err}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// ---- Phase C: Serial commit ----
	for res := range resultCh {
		err := res.err
		if err == nil {
			err = e.store.CommitBatch(res.item.batch)
		}
		if err == nil {
			continue
		}
		// Drop the file record so the next run retries it.
		errs = append(errs, e.dropFailed(res.item.path, fmt.Errorf("index %s: %w", res.item.path, err)))
	}

	if len(errs) > 0 {
		return fmt.Errorf("parallel indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

// resolveFile builds a single file's scope tree into its BatchedStore.
func (e *Engine) resolveFile(ctx context.Context, item workItem) error {
	root, err := jsscope.Resolve(ctx, item.path, item.src, e.resolverOptions()...)
	if err != nil {
		return err
	}
	return writeTree(item.batch, item.fileID, root)
}
