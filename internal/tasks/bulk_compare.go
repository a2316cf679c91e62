package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/desertthunder/plsync/internal/formatter"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
	"golang.org/x/time/rate"
)

// BulkCompareOpts contains configuration for comparing one playlist against many.
type BulkCompareOpts struct {
	Format     string  // Export format: json, csv, markdown, txt
	OutputDir  string  // Base output directory (default: plsync_compare_{epoch})
	NumWorkers int     // Concurrent workers (default: 5, max: 10)
	RateLimit  float64 // Playlist fetches per second (default: 5)
	WithCover  bool    // Download the base cover image for markdown exports
}

// BulkCompareResult summarizes a bulk comparison and is written as the manifest.
type BulkCompareResult struct {
	BaseID          string                   `json:"baseId"`
	BaseName        string                   `json:"baseName"`
	Format          string                   `json:"format"`
	Total           int                      `json:"total"`
	Successful      int                      `json:"successful"`
	Failed          int                      `json:"failed"`
	OutputDirectory string                   `json:"outputDirectory"`
	ManifestPath    string                   `json:"-"`
	Results         []ComparisonExportResult `json:"results"`
}

// ComparisonExportResult is the outcome of one comparison in a bulk run.
type ComparisonExportResult struct {
	PlaylistID   string   `json:"playlistId"`
	PlaylistName string   `json:"playlistName"`
	UniqueToA    int      `json:"uniqueToA"`
	UniqueToB    int      `json:"uniqueToB"`
	Common       int      `json:"common"`
	Files        []string `json:"files"`
	Success      bool     `json:"success"`
	Error        error    `json:"-"`
	ErrorMessage string   `json:"error,omitempty"`
}

type comparisonJob struct {
	other *models.PlaylistWithTracks
}

// BulkCompare compares baseID against every playlist in ids and writes one export per pair.
//
// Fetches are paced by a rate limiter and comparisons run on a worker pool. Individual failures are
// recorded in the result without stopping the run. A manifest is written to the output directory.
func (e *Engine) BulkCompare(ctx context.Context, baseID string, ids []string, opts BulkCompareOpts) (*BulkCompareResult, error) {
	if baseID == "" || len(ids) == 0 {
		return nil, fmt.Errorf("%w: a base playlist and at least one other playlist are required", shared.ErrMissingArgument)
	}
	if opts.Format == "" {
		opts.Format = formatter.FormatJSON
	}
	if !formatter.ValidFormat(opts.Format) {
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, opts.Format)
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("plsync_compare_%d", e.now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	began := time.Now()
	user, err := e.api.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	e.sendProgress(fetchSourceUpdate(1, len(ids)+1, baseID))
	base, err := e.api.PlaylistWithTracks(ctx, baseID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load playlist %s: %w", baseID, err)
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &BulkCompareResult{
		BaseID:          base.ID,
		BaseName:        base.Name,
		Format:          opts.Format,
		Total:           len(ids),
		OutputDirectory: opts.OutputDir,
		Results:         make([]ComparisonExportResult, 0, len(ids)),
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan comparisonJob, len(ids))
	results := make(chan ComparisonExportResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.compareWorker(ctx, &wg, base, jobs, results, opts)
	}

	go func() {
		defer close(jobs)
		for i, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}

			other, err := e.api.PlaylistWithTracks(ctx, id, user.ID)
			if err != nil {
				results <- ComparisonExportResult{
					PlaylistID:   id,
					PlaylistName: fmt.Sprintf("Unknown (%s)", id),
					Files:        []string{},
					Error:        fmt.Errorf("failed to fetch playlist: %w", err),
				}
				continue
			}

			e.sendProgress(exportingComparisonUpdate(i+1, len(ids), other.Name))
			jobs <- comparisonJob{other: other}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		if res.Error != nil {
			res.ErrorMessage = res.Error.Error()
		}
		result.Results = append(result.Results, res)

		if res.Success {
			result.Successful++
			e.sendProgress(exportCompletedUpdate(completed, len(ids), res.PlaylistName, len(res.Files)))
		} else {
			result.Failed++
			e.sendProgress(exportFailedUpdate(completed, len(ids), res.PlaylistName, res.Error))
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	manifestPath := filepath.Join(opts.OutputDir, "compare_manifest.json")
	if err := formatter.WriteManifest(result, manifestPath); err != nil {
		return result, fmt.Errorf("comparison completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath

	e.logger.Info("bulk compare complete",
		"base", base.ID, "total", result.Total, "failed", result.Failed, "elapsed", time.Since(began))
	return result, nil
}

// compareWorker diffs each fetched playlist against base and writes the export.
func (e *Engine) compareWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	base *models.PlaylistWithTracks,
	jobs <-chan comparisonJob,
	results chan<- ComparisonExportResult,
	opts BulkCompareOpts,
) {
	defer wg.Done()

	for job := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		cmp := Comparison(base, job.other)
		res := ComparisonExportResult{
			PlaylistID:   job.other.ID,
			PlaylistName: job.other.Name,
			UniqueToA:    len(cmp.UniqueToA),
			UniqueToB:    len(cmp.UniqueToB),
			Common:       len(cmp.Common),
			Files:        []string{},
		}

		export, err := formatter.WriteComparison(cmp, opts.Format, opts.OutputDir, opts.WithCover)
		if err != nil {
			res.Error = fmt.Errorf("%s export failed: %w", opts.Format, err)
		} else {
			res.Files = export.Files
			res.Success = true
		}
		results <- res
	}
}
