package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/achilleasa/vtkshot/batch"
	"github.com/olekukonko/tablewriter"
)

func displayBatchStats(w io.Writer, stats *batch.Stats) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Index", "Input", "Output", "Dataset", "Points", "Cells", "Load time", "Render time", "Status"})

	var loadTime, renderTime time.Duration
	for _, it := range stats.Iterations {
		status := "ok"
		if it.Err != nil {
			status = "failed"
		}
		table.Append([]string{
			fmt.Sprintf("%d", it.Index),
			it.InputPath,
			it.OutputPath,
			it.Kind,
			fmt.Sprintf("%d", it.Points),
			fmt.Sprintf("%d", it.Cells),
			it.LoadTime.String(),
			it.RenderTime.String(),
			status,
		})
		loadTime += it.LoadTime
		renderTime += it.RenderTime
	}
	table.SetFooter([]string{
		"", "", "", "", "",
		fmt.Sprintf("%d failed", stats.Failed()),
		loadTime.String(),
		renderTime.String(),
		fmt.Sprintf("TOTAL %s", stats.Total),
	})

	fmt.Fprintf(w, "conversion statistics\n")
	table.Render()
}
