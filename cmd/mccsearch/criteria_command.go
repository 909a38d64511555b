package main

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/storm-mcc-search/internal/config"
)

func newCriteriaCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "criteria",
		Short: "Print the effective search criteria as TOML",
		RunE: func(cmd *cobra.Command, _ []string) error {
			criteria, err := config.LoadCriteria(file)
			if err != nil {
				return err
			}
			data, err := toml.Marshal(criteria)
			if err != nil {
				return fmt.Errorf("encode criteria: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "Criteria file to overlay on the defaults")
	return cmd
}
