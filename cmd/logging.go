package cmd

import (
	"github.com/achilleasa/vtkshot/log"
	"github.com/urfave/cli"
)

var logger = log.New("vtkshot")

func setupLogging(ctx *cli.Context) {
	log.SetSink(errWriter(ctx))

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}
