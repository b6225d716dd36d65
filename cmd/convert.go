package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/achilleasa/vtkshot/batch"
	"github.com/achilleasa/vtkshot/renderer"
	"github.com/achilleasa/vtkshot/vtk"
	"github.com/urfave/cli"
)

const usageText = `Usage: %[1]s [global options] InputBaseFilename FileStartIndex FileEndIndex FileExtension

Arguments:
  InputBaseFilename  prefix of the input files, including any directory
  FileStartIndex     first index to convert (non-negative integer)
  FileEndIndex       last index to convert (inclusive, >= FileStartIndex)
  FileExtension      format of the input files: vtk for legacy files or one
                     of vti, vtp, vtr, vts, vtu for XML files

Input files are named <InputBaseFilename><index>.vtk regardless of the
extension argument unless --match-extension is set. Each input is rendered
and saved next to it as a PNG image with the same name.

Example:
  %[1]s MyFile- 1 20 vtk
    reads MyFile-1.vtk .. MyFile-20.vtk and writes MyFile-1.png .. MyFile-20.png
`

// Convert a numbered series of dataset files into PNG screenshots.
func Convert(ctx *cli.Context) error {
	setupLogging(ctx)

	req, err := batch.Resolve(ctx.Args())
	if err == batch.ErrUsage {
		fmt.Fprintf(errWriter(ctx), usageText, ctx.App.Name)
		return nil
	} else if err != nil {
		return exitError(err)
	}

	snapshotter, err := renderer.NewSnapshotter(renderOptions(ctx))
	if err != nil {
		return exitError(&batch.Error{Kind: batch.KindUsage, Err: err})
	}

	runner := &batch.Runner{
		Loader:          batch.LoaderFunc(vtk.Load),
		Snapshotter:     snapshotter,
		Out:             outWriter(ctx),
		ContinueOnError: ctx.Bool("continue"),
		MatchExtension:  ctx.Bool("match-extension"),
	}

	stats, err := runner.Run(req)
	if ctx.Bool("stats") && stats != nil {
		displayBatchStats(errWriter(ctx), stats)
	}
	if err != nil {
		logger.Debugf("batch failed: %v", err)
		return exitError(err)
	}
	return nil
}

func renderOptions(ctx *cli.Context) renderer.Options {
	return renderer.Options{
		FrameW:           uint32(ctx.Uint("width")),
		FrameH:           uint32(ctx.Uint("height")),
		Scale:            uint32(ctx.Uint("scale")),
		OpaqueBackground: ctx.Bool("opaque-background"),
		AutoRange:        ctx.Bool("auto-range"),
		Azimuth:          float32(ctx.Float64("azimuth")),
		Elevation:        float32(ctx.Float64("elevation")),
	}
}

func exitError(err error) error {
	return cli.NewExitError(err.Error(), batch.ExitCode(err))
}

func outWriter(ctx *cli.Context) io.Writer {
	if ctx.App.Writer != nil {
		return ctx.App.Writer
	}
	return os.Stdout
}

func errWriter(ctx *cli.Context) io.Writer {
	if ctx.App.ErrWriter != nil {
		return ctx.App.ErrWriter
	}
	return os.Stderr
}
