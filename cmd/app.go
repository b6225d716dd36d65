package cmd

import (
	"github.com/achilleasa/vtkshot/renderer"
	"github.com/urfave/cli"
)

// Create the vtkshot command line application.
func NewApp() *cli.App {
	app := cli.NewApp()
	app.Name = "vtkshot"
	app.Usage = "batch convert numbered VTK datasets into PNG screenshots"
	app.Version = "0.1.0"
	app.ArgsUsage = "InputBaseFilename FileStartIndex FileEndIndex FileExtension"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.UintFlag{
			Name:  "width",
			Value: renderer.DefaultWidth,
			Usage: "render window width",
		},
		cli.UintFlag{
			Name:  "height",
			Value: renderer.DefaultHeight,
			Usage: "render window height",
		},
		cli.UintFlag{
			Name:  "scale",
			Value: renderer.DefaultScale,
			Usage: "supersampling factor applied to the captured image",
		},
		cli.BoolFlag{
			Name:  "opaque-background",
			Usage: "capture the background with full alpha",
		},
		cli.Float64Flag{
			Name:  "azimuth",
			Usage: "rotate the camera about the view up vector (degrees)",
		},
		cli.Float64Flag{
			Name:  "elevation",
			Usage: "rotate the camera above the focal point (degrees)",
		},
		cli.BoolFlag{
			Name:  "auto-range",
			Usage: "map colors over the scalar range instead of [0, 1]",
		},
		cli.BoolFlag{
			Name:  "continue",
			Usage: "keep converting after a failure",
		},
		cli.BoolFlag{
			Name:  "match-extension",
			Usage: "use FileExtension instead of .vtk as the input file suffix",
		},
		cli.BoolFlag{
			Name:  "stats",
			Usage: "print per-file conversion statistics",
		},
	}
	app.Action = Convert
	return app
}
