// Command genframes writes a synthetic frame archive containing one cold
// cloud that drifts westward while it grows, matures and decays. The output
// feeds demos and end-to-end fixtures for mccsearch.
//
// Usage:
//
//	go run ./cmd/genframes --out data/synthetic.msgpack --frames 24 --precip
package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/storm-mcc-search/internal/adapter/gridfile"
)

func main() {
	if err := newCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	opts := defaultOptions()
	var out string
	var start string

	cmd := &cobra.Command{
		Use:           "genframes",
		Short:         "Write a synthetic brightness-temperature archive",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t, err := time.Parse(time.RFC3339, start)
			if err != nil {
				return fmt.Errorf("invalid --start: %w", err)
			}
			opts.Start = t

			ds, err := Generate(opts)
			if err != nil {
				return err
			}
			if err := gridfile.Write(out, ds); err != nil {
				return err
			}
			log.Printf("wrote %d frames (%dx%d) to %s", len(ds.Frames), ds.Grid.Rows(), ds.Grid.Cols(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "frames.msgpack", "Output archive (.json, .msgpack)")
	cmd.Flags().StringVar(&start, "start", opts.Start.Format(time.RFC3339), "Valid time of the first frame")
	cmd.Flags().IntVar(&opts.Frames, "frames", opts.Frames, "Number of hourly frames")
	cmd.Flags().Float64Var(&opts.CenterLat, "lat", opts.CenterLat, "Latitude of the cloud centre")
	cmd.Flags().Float64Var(&opts.StartLon, "lon", opts.StartLon, "Longitude of the cloud centre in the first frame")
	cmd.Flags().Float64Var(&opts.Drift, "drift", opts.Drift, "Westward drift, degrees per frame")
	cmd.Flags().BoolVar(&opts.Precip, "precip", false, "Include a precipitation series on a coarser grid")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", opts.Seed, "Seed for background noise")

	return cmd
}
