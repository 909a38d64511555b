package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/storm-mcc-search/internal/domain"
	"github.com/couchcryptid/storm-mcc-search/internal/pipeline"
	"github.com/couchcryptid/storm-mcc-search/internal/summary"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printRun(cmd *cobra.Command, run *pipeline.Run, showMCS bool) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Run %s: %d frames, %d lineages, %d MCC, %d MCS\n",
		run.ID, len(run.Times), len(run.Lineages), len(run.MCC), len(run.MCS))

	mcc := run.MCCFeatures()
	if len(mcc) == 0 {
		fmt.Fprintln(out, "No MCCs found.")
	} else {
		fmt.Fprintln(out, featureTable(mcc))
		fmt.Fprintln(out, periodTable(run.Period))
	}
	if showMCS {
		if mcs := run.MCSFeatures(); len(mcs) > 0 {
			fmt.Fprintln(out, featureTable(mcs))
		}
	}
}

var featureAligns = []columnAlignment{
	alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft,
}

func featureTable(features []domain.Feature) string {
	headers := []string{"Kind", "Start", "End", "Hours", "Nodes", "Max area km²", "Center", "Precip mm", "Place"}
	rows := make([][]string, 0, len(features))
	for _, f := range features {
		precip := "-"
		if f.Precip != nil {
			precip = formatFloat(f.Precip.Total)
		}
		place := f.PlaceName
		if place == "" {
			place = "-"
		}
		rows = append(rows, []string{
			string(f.Kind),
			f.StartTime.UTC().Format(time.RFC3339),
			f.EndTime.UTC().Format(time.RFC3339),
			formatFloat(f.DurationHours),
			strconv.Itoa(len(f.Nodes)),
			formatFloat(f.MaxArea),
			fmt.Sprintf("%.2f, %.2f", f.CenterLat, f.CenterLon),
			precip,
			place,
		})
	}
	return renderTable(headers, rows, featureAligns)
}

func periodTable(p summary.Period) string {
	rows := [][]string{
		{"Features", strconv.Itoa(p.Count)},
		{"Longest (h)", formatFloat(p.LongestHours)},
		{"Shortest (h)", formatFloat(p.ShortestHours)},
		{"Average (h)", formatFloat(p.AverageHours)},
		{"Average size (km²)", formatFloat(p.AverageSize)},
		{"Total precip (mm)", formatFloat(p.TotalPrecip)},
	}
	return renderTable([]string{"Period", "Value"}, rows, []columnAlignment{alignLeft, alignRight})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
