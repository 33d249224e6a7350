package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"reelscout/internal/classify"
	"reelscout/internal/pipeline"
	"reelscout/internal/record"
	"reelscout/internal/results"
	"reelscout/internal/services/llm"
	"reelscout/internal/services/tmdb"
	"reelscout/internal/services/vimeo"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		queryOverride []string
		resultCap     int
		noVerify      bool
		noStore       bool
		jsonOut       bool
		exportDir     string
		limit         int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Search, classify, verify, and rank classic films",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			pipeCfg := pipeline.FromConfig(cfg)
			if len(queryOverride) > 0 {
				pipeCfg.Queries = queryOverride
			}
			if resultCap > 0 {
				pipeCfg.ResultCapPerQuery = resultCap
			}
			if noVerify {
				pipeCfg.VerificationEnabled = false
			}

			searcher, err := vimeo.New(cfg.Vimeo.APIToken, cfg.Vimeo.BaseURL)
			if err != nil {
				return fmt.Errorf("vimeo client: %w", err)
			}

			var oracle classify.Oracle
			if cfg.ClassifierConfigured() {
				oracle = classify.NewLLMOracle(llm.NewClient(llm.Config{
					APIKey:         cfg.LLM.APIKey,
					BaseURL:        cfg.LLM.BaseURL,
					Model:          cfg.LLM.Model,
					Referer:        cfg.LLM.Referer,
					Title:          cfg.LLM.Title,
					TimeoutSeconds: cfg.LLM.TimeoutSeconds,
				}), logger)
			} else {
				logger.Warn("no oracle credential configured, classification degrades to the heuristic")
			}

			var catalog tmdb.Searcher
			if pipeCfg.VerificationEnabled {
				client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
				if err != nil {
					return fmt.Errorf("tmdb client: %w", err)
				}
				catalog = client
			}

			p, err := pipeline.New(pipeCfg, searcher, oracle, catalog, logger)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			outcome, err := p.Run(runCtx)
			if err != nil {
				return err
			}

			run := results.Run{
				ID:         outcome.RunID,
				StartedAt:  outcome.StartedAt,
				FinishedAt: outcome.FinishedAt,
				Queries:    outcome.Queries,
				Discovered: outcome.Discovered,
				Kept:       len(outcome.Ranked),
			}

			if !noStore {
				store, err := results.Open(cfg)
				if err != nil {
					return fmt.Errorf("open results store: %w", err)
				}
				defer store.Close()
				if err := store.SaveRun(cmd.Context(), run, outcome.Ranked); err != nil {
					return fmt.Errorf("save run: %w", err)
				}
			}

			if exportDir != "" {
				csvPath, jsonPath, err := results.ExportFiles(exportDir, run, outcome.Ranked)
				if err != nil {
					return fmt.Errorf("export run: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Exported %s and %s\n", csvPath, jsonPath)
			}

			if jsonOut {
				return results.WriteJSON(cmd.OutOrStdout(), run, outcome.Ranked)
			}

			renderOutcome(cmd, outcome, limit)
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&queryOverride, "query", "q", nil, "Override the built-in query plan (repeatable)")
	cmd.Flags().IntVar(&resultCap, "cap", 0, "Override the per-query result cap")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip catalog verification")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "Do not persist the run to the results database")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the ranked dataset as JSON")
	cmd.Flags().StringVar(&exportDir, "export", "", "Also write CSV and JSON artifacts into this directory")
	cmd.Flags().IntVar(&limit, "limit", 20, "Rows shown in the summary table (0 shows all)")

	return cmd
}

func renderOutcome(cmd *cobra.Command, outcome *pipeline.Outcome, limit int) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	fmt.Fprintf(out, "Run %s\n", outcome.RunID)
	verifiedKind := statusOK
	if outcome.Verified == 0 {
		verifiedKind = statusWarn
	}
	for _, line := range []string{
		renderStatusLine("Queries", statusInfo, strconv.Itoa(outcome.Queries), colorize),
		renderStatusLine("Discovered", statusInfo, strconv.Itoa(outcome.Discovered), colorize),
		renderStatusLine("Classified", statusInfo, strconv.Itoa(outcome.Classified), colorize),
		renderStatusLine("Verified", verifiedKind, strconv.Itoa(outcome.Verified), colorize),
		renderStatusLine("Ranked", statusOK, strconv.Itoa(len(outcome.Ranked)), colorize),
	} {
		fmt.Fprintln(out, line)
	}

	shown := outcome.Ranked
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	if len(shown) == 0 {
		fmt.Fprintln(out, "No candidates survived the pipeline.")
		return
	}

	columns := []tableColumn{
		{name: "#", right: true},
		{name: "Score", right: true},
		{name: "Title"},
		{name: "Era"},
		{name: "Genre"},
		{name: "Rel", right: true},
		{name: "Verified"},
		{name: "Year", right: true},
		{name: "Views", right: true},
		{name: "URL"},
	}
	rows := make([][]string, 0, len(shown))
	for _, r := range shown {
		year := ""
		if v := r.Verification; v != nil && v.Verified && v.ReleaseYear > 0 {
			year = strconv.Itoa(v.ReleaseYear)
		}
		rows = append(rows, []string{
			strconv.Itoa(r.Rank),
			fmt.Sprintf("%.3f", r.Score),
			displayRowTitle(r),
			r.Classification.Era,
			r.Classification.Genre,
			strconv.Itoa(r.Classification.Relevance),
			yesNo(r.Verification != nil && r.Verification.Verified),
			year,
			strconv.FormatInt(r.Candidate.Views, 10),
			r.Candidate.SourceURL,
		})
	}
	fmt.Fprintln(out, renderTable(columns, rows))

	if len(shown) < len(outcome.Ranked) {
		fmt.Fprintf(out, "... and %d more (use --limit 0 or --json for the full set)\n",
			len(outcome.Ranked)-len(shown))
	}
}

// displayRowTitle prefers the catalog's canonical title over the upload name.
func displayRowTitle(r record.Ranked) string {
	if v := r.Verification; v != nil && v.Verified && v.Title != "" {
		return v.Title
	}
	return r.Candidate.Title
}
