package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rohankatakam/internhub/internal/config"
	"github.com/rohankatakam/internhub/internal/seed"
	"github.com/rohankatakam/internhub/internal/storage"
)

var seedExample bool

var seedCmd = &cobra.Command{
	Use:   "seed [file.yaml]",
	Short: "Load users, projects, tasks and evaluations from a YAML fixture",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			f   *seed.File
			err error
		)
		switch {
		case seedExample:
			f, err = seed.Parse(seed.ExampleYAML)
		case len(args) == 1:
			f, err = seed.LoadFile(args[0])
		default:
			return fmt.Errorf("pass a seed file or --example")
		}
		if err != nil {
			return err
		}

		if err := cfg.Require(config.ValidationContextServe); err != nil {
			return err
		}
		store, err := storage.Open(cmd.Context(), cfg.Storage, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		res, err := seed.NewLoader(store, logger).Load(cmd.Context(), f)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Seeded %d users, %d projects, %d milestones, %d tasks, %d evaluations\n",
			len(res.Users), res.Projects, res.Milestones, res.Tasks, res.Evaluations)
		for key, id := range res.Users {
			fmt.Fprintf(out, "  %-12s %s\n", key, id)
		}
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Require(config.ValidationContextServe); err != nil {
			return err
		}
		// Open applies the idempotent schema
		store, err := storage.Open(cmd.Context(), cfg.Storage, logger)
		if err != nil {
			return err
		}
		defer store.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "✓ Schema up to date (%s)\n", store.Driver())
		return nil
	},
}

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Store GitHub and LLM credentials in the OS keychain",
	RunE: func(cmd *cobra.Command, args []string) error {
		saved, err := config.NewCredentialPrompter().Run(config.DefaultSecrets())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %d credential(s) saved to the keychain\n", len(saved))
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedExample, "example", false, "load the built-in sample cohort")
}
