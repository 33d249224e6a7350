package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"reelscout/internal/results"
)

func newResultsCommand(ctx *commandContext) *cobra.Command {
	resultsCmd := &cobra.Command{
		Use:   "results",
		Short: "Inspect stored runs",
	}
	resultsCmd.AddCommand(newResultsListCommand(ctx))
	resultsCmd.AddCommand(newResultsShowCommand(ctx))
	resultsCmd.AddCommand(newResultsExportCommand(ctx))
	return resultsCmd
}

func newResultsListCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := results.Open(cfg)
			if err != nil {
				return fmt.Errorf("open results store: %w", err)
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No stored runs.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.ID,
					run.StartedAt.Local().Format(time.DateTime),
					strconv.Itoa(run.Queries),
					strconv.Itoa(run.Discovered),
					strconv.Itoa(run.Kept),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]tableColumn{
					{name: "Run"},
					{name: "Started"},
					{name: "Queries", right: true},
					{name: "Discovered", right: true},
					{name: "Ranked", right: true},
				},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit runs as JSON")
	return cmd
}

func newResultsShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool
	var limit int

	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show the ranked records of a run (latest when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := results.Open(cfg)
			if err != nil {
				return fmt.Errorf("open results store: %w", err)
			}
			defer store.Close()

			run, err := resolveRun(cmd, store, args)
			if err != nil {
				return err
			}

			ranked, err := store.RunRecords(cmd.Context(), run.ID)
			if err != nil {
				return err
			}
			if jsonOut {
				return results.WriteJSON(cmd.OutOrStdout(), *run, ranked)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Run %s (%s): %d records\n",
				run.ID, run.StartedAt.Local().Format(time.DateTime), len(ranked))

			shown := ranked
			if limit > 0 && len(shown) > limit {
				shown = shown[:limit]
			}
			rows := make([][]string, 0, len(shown))
			for _, r := range shown {
				verified := r.Verification != nil && r.Verification.Verified
				year := ""
				if verified && r.Verification.ReleaseYear > 0 {
					year = strconv.Itoa(r.Verification.ReleaseYear)
				}
				rows = append(rows, []string{
					strconv.Itoa(r.Rank),
					fmt.Sprintf("%.3f", r.Score),
					displayRowTitle(r),
					r.Classification.Era,
					yesNo(verified),
					year,
					r.Candidate.SourceURL,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]tableColumn{
					{name: "#", right: true},
					{name: "Score", right: true},
					{name: "Title"},
					{name: "Era"},
					{name: "Verified"},
					{name: "Year", right: true},
					{name: "URL"},
				},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit records as JSON")
	cmd.Flags().IntVar(&limit, "limit", 0, "Rows shown (0 shows all)")
	return cmd
}

func newResultsExportCommand(ctx *commandContext) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export [run-id]",
		Short: "Write the CSV and JSON artifacts of a stored run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := results.Open(cfg)
			if err != nil {
				return fmt.Errorf("open results store: %w", err)
			}
			defer store.Close()

			run, err := resolveRun(cmd, store, args)
			if err != nil {
				return err
			}
			ranked, err := store.RunRecords(cmd.Context(), run.ID)
			if err != nil {
				return err
			}

			target := dir
			if target == "" {
				target = cfg.Paths.OutputDir
			}
			csvPath, jsonPath, err := results.ExportFiles(target, *run, ranked)
			if err != nil {
				return fmt.Errorf("export run: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s and %s\n", csvPath, jsonPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Destination directory (defaults to the output directory)")
	return cmd
}

func resolveRun(cmd *cobra.Command, store *results.Store, args []string) (*results.Run, error) {
	if len(args) == 1 {
		runs, err := store.ListRuns(cmd.Context())
		if err != nil {
			return nil, err
		}
		for i := range runs {
			if runs[i].ID == args[0] {
				return &runs[i], nil
			}
		}
		return nil, fmt.Errorf("run %s not found", args[0])
	}

	run, err := store.LatestRun(cmd.Context())
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, fmt.Errorf("no stored runs")
	}
	return run, nil
}
