package batch

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/achilleasa/vtkshot/asset"
	"github.com/achilleasa/vtkshot/log"
	"github.com/achilleasa/vtkshot/renderer"
	"github.com/achilleasa/vtkshot/vtk"
)

var logger = log.New("batch")

// Loader reads a dataset in the given format family.
type Loader interface {
	Load(path string, family vtk.Family) (vtk.Dataset, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(path string, family vtk.Family) (vtk.Dataset, error)

func (f LoaderFunc) Load(path string, family vtk.Family) (vtk.Dataset, error) {
	return f(path, family)
}

// Snapshotter renders a dataset and writes the captured image.
type Snapshotter interface {
	Snapshot(ds vtk.Dataset, outputPath string) error
}

// IterationStat records the outcome of a single conversion.
type IterationStat struct {
	Index      uint
	InputPath  string
	OutputPath string

	// Dataset information; Kind is empty if loading failed.
	Kind   string
	Points int
	Cells  int

	LoadTime   time.Duration
	RenderTime time.Duration

	Err error
}

// Stats collects per iteration statistics for a run.
type Stats struct {
	Iterations []IterationStat
	Total      time.Duration
}

// Get the number of failed iterations.
func (s *Stats) Failed() int {
	failed := 0
	for _, it := range s.Iterations {
		if it.Err != nil {
			failed++
		}
	}
	return failed
}

// Runner converts each file of a request in ascending index order.
type Runner struct {
	Loader      Loader
	Snapshotter Snapshotter

	// Receives a "<input> converted to <output>." line per converted file.
	Out io.Writer

	// Keep converting after a failure and report all failures at the end.
	ContinueOnError bool

	// Use the requested extension instead of ".vtk" for input filenames.
	MatchExtension bool
}

// Run the batch. By default the first failure aborts the run; outputs written
// by earlier iterations are kept.
func (r *Runner) Run(req *Request) (*Stats, error) {
	if r.Loader == nil || r.Snapshotter == nil {
		return nil, errors.New("batch: runner requires a loader and a snapshotter")
	}
	out := r.Out
	if out == nil {
		out = io.Discard
	}

	logger.Infof("converting %d %s file(s) with base name \"%s\"", req.Count(), req.Family, req.BaseFilename)
	start := time.Now()
	stats := &Stats{}

	var errs []error
	for index := req.StartIndex; ; index++ {
		it := r.convert(req, index, out)
		stats.Iterations = append(stats.Iterations, it)
		if it.Err != nil {
			if !r.ContinueOnError {
				stats.Total = time.Since(start)
				return stats, it.Err
			}
			logger.Errorf("%s: %v", it.InputPath, it.Err)
			errs = append(errs, it.Err)
		}

		// Checked before incrementing so that an end index of MaxUint terminates
		if index == req.EndIndex {
			break
		}
	}
	stats.Total = time.Since(start)

	logger.Infof("converted %d of %d file(s) in %d ms", len(stats.Iterations)-len(errs), len(stats.Iterations), stats.Total.Nanoseconds()/1e6)
	if len(errs) != 0 {
		return stats, errors.Join(errs...)
	}
	return stats, nil
}

func (r *Runner) inputFilename(req *Request, index uint) string {
	if r.MatchExtension {
		return GenerateInputFilenameExt(req.BaseFilename, index, req.Extension)
	}
	return GenerateInputFilename(req.BaseFilename, index)
}

// Convert a single file.
func (r *Runner) convert(req *Request, index uint, out io.Writer) IterationStat {
	it := IterationStat{
		Index:     index,
		InputPath: r.inputFilename(req, index),
	}

	outputPath, err := GenerateOutputFilename(it.InputPath)
	if err != nil {
		it.Err = err
		return it
	}
	it.OutputPath = asset.LocalName(outputPath)

	start := time.Now()
	ds, err := r.Loader.Load(it.InputPath, req.Family)
	it.LoadTime = time.Since(start)
	if err != nil {
		it.Err = classifyLoadError(err)
		return it
	}
	it.Kind, it.Points, it.Cells = ds.Kind().String(), ds.NumberOfPoints(), ds.NumberOfCells()
	logger.Debugf("loaded %s (%s, %d points, %d cells)", it.InputPath, it.Kind, it.Points, it.Cells)

	start = time.Now()
	err = r.Snapshotter.Snapshot(ds, it.OutputPath)
	it.RenderTime = time.Since(start)
	if err != nil {
		it.Err = classifySnapshotError(it.InputPath, err)
		return it
	}

	fmt.Fprintf(out, "%s converted to %s.\n", it.InputPath, it.OutputPath)
	return it
}

func classifyLoadError(err error) error {
	var batchErr *Error
	if errors.As(err, &batchErr) {
		return err
	}
	if errors.Is(err, vtk.ErrOpen) || errors.Is(err, fs.ErrNotExist) {
		return &Error{Kind: KindIO, Err: err}
	}
	return &Error{Kind: KindData, Err: err}
}

func classifySnapshotError(input string, err error) error {
	var batchErr *Error
	if errors.As(err, &batchErr) {
		return err
	}
	if errors.Is(err, renderer.ErrWrite) {
		return &Error{Kind: KindIO, Err: err}
	}
	return &Error{Kind: KindData, Err: fmt.Errorf("could not render %q: %w", input, err)}
}
