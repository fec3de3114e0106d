package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/silverland/nova/internal/config"
	"github.com/silverland/nova/internal/db"
	"github.com/silverland/nova/internal/seed"
)

func newSeedCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "seed <projects.csv>",
		Short: "Load property listings from a CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "nova.yaml", "path to Nova config file")
	return cmd
}

func runSeed(cmd *cobra.Command, configPath, csvPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return err
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	res, err := seed.File(gormDB, csvPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Seeded %d project(s), skipped %d.\n", res.Inserted, res.Skipped)
	return nil
}
