package main

import (
	"os"

	"github.com/achilleasa/vtkshot/cmd"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cmd.NewApp()
	if err := app.Run(os.Args); err != nil {
		// Exit coder errors have already terminated the process; anything
		// left is a flag parsing failure.
		os.Exit(2)
	}
}
