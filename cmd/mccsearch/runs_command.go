package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/storm-mcc-search/internal/adapter/sqlite"
	"github.com/couchcryptid/storm-mcc-search/internal/config"
	"github.com/couchcryptid/storm-mcc-search/internal/domain"
)

func newRunsCommand() *cobra.Command {
	var runID string
	var kind string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs, or the features of one run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.SQLitePath == "" {
				return errors.New("SQLITE_PATH is not set")
			}
			store, err := sqlite.Open(cmd.Context(), cfg.SQLitePath, slog.New(slog.NewTextHandler(io.Discard, nil)))
			if err != nil {
				return err
			}
			defer store.Close()

			if runID != "" {
				features, err := store.Features(cmd.Context(), runID, domain.FeatureKind(kind))
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, features)
				}
				fmt.Fprintln(cmd.OutOrStdout(), featureTable(features))
				return nil
			}

			runs, err := store.Runs(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, runs)
			}
			fmt.Fprintln(cmd.OutOrStdout(), runsTable(runs))
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Show the features of this run")
	cmd.Flags().StringVar(&kind, "kind", string(domain.FeatureMCC), "Feature kind with --run (MCC or MCS)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print JSON instead of a table")
	return cmd
}

func runsTable(runs []sqlite.RunRecord) string {
	headers := []string{"Run", "Started", "Finished", "Frames", "Lineages", "MCC"}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		finished := "-"
		if !r.FinishedAt.IsZero() {
			finished = r.FinishedAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, []string{
			r.ID,
			r.StartedAt.UTC().Format(time.RFC3339),
			finished,
			strconv.Itoa(r.Frames),
			strconv.Itoa(r.Lineages),
			strconv.Itoa(r.MCCCount),
		})
	}
	return renderTable(headers, rows, []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight})
}
