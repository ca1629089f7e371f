package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/libport/internal/shared"
)

// BulkConvertOpts contains configuration for bulk conversions.
type BulkConvertOpts struct {
	Library             shared.LibraryConfig // Input and output file names inside each folder
	SelectedPlaylistIDs []string             // Applied to every library
	Serialize           SerializeOptions     // Zero value means [DefaultSerializeOptions]
	NumWorkers          int                  // Concurrent workers (default: 4, max: 8)
}

// FolderConversionResult is the outcome for one export folder.
type FolderConversionResult struct {
	Folder  string
	Result  *RunResult
	Success bool
	Error   error
}

// BulkConvertResult contains the outcome of a bulk conversion, in the order the folders were given.
type BulkConvertResult struct {
	TotalFolders int
	Succeeded    int
	Failed       int
	Results      []FolderConversionResult
}

type folderJob struct {
	index  int
	folder string
}

// BulkConvert converts the export in each folder concurrently.
//
// This method implements a worker pool pattern. Each folder is converted independently, so one failure does
// not affect the others; cancelling ctx stops folders that have not started yet.
func (e *Engine) BulkConvert(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	folders []string,
	opts BulkConvertOpts,
) (*BulkConvertResult, error) {
	if len(folders) == 0 {
		return nil, fmt.Errorf("%w: no folders to convert", shared.ErrMissingArgument)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 8 {
		opts.NumWorkers = 8
	}
	opts.NumWorkers = min(opts.NumWorkers, len(folders))

	result := &BulkConvertResult{
		TotalFolders: len(folders),
		Results:      make([]FolderConversionResult, len(folders)),
	}

	jobs := make(chan folderJob, len(folders))
	type indexed struct {
		index int
		res   FolderConversionResult
	}
	results := make(chan indexed, len(folders))

	var wg sync.WaitGroup
	for range opts.NumWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				results <- indexed{job.index, e.convertFolder(ctx, job.folder, opts)}
			}
		}()
	}

	e.sendProgress(prog, bulkStartedUpdate(len(folders)))
	go func() {
		defer close(jobs)
		for i, folder := range folders {
			select {
			case <-ctx.Done():
				return
			case jobs <- folderJob{index: i, folder: folder}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	seen := make([]bool, len(folders))
	completed := 0
	for r := range results {
		completed++
		seen[r.index] = true
		result.Results[r.index] = r.res

		if r.res.Success {
			result.Succeeded++
			e.sendProgress(prog, bulkCompletedUpdate(completed, len(folders), r.res))
		} else {
			result.Failed++
			e.sendProgress(prog, bulkFailedUpdate(completed, len(folders), r.res))
		}
	}

	for i, ok := range seen {
		if !ok {
			result.Results[i] = FolderConversionResult{Folder: folders[i], Error: ctx.Err()}
			result.Failed++
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

func (e *Engine) convertFolder(ctx context.Context, folder string, opts BulkConvertOpts) FolderConversionResult {
	res := FolderConversionResult{Folder: folder}
	if err := ctx.Err(); err != nil {
		res.Error = err
		return res
	}

	run, err := e.Run(ctx, nil, RunOpts{
		InputPath:           opts.Library.InputPath(folder),
		OutputPath:          opts.Library.OutputPath(folder),
		SelectedPlaylistIDs: opts.SelectedPlaylistIDs,
		Serialize:           opts.Serialize,
	})
	if err != nil {
		e.logger.Warn("bulk conversion failed", "folder", folder, "error", err)
		res.Error = err
		return res
	}

	res.Result = run
	res.Success = true
	return res
}
