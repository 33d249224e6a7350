package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"reelscout/internal/queries"
)

func newQueriesCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "queries",
		Short: "Show the query plan a run would execute",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			plan := queries.Plan(cfg.Search.Queries)

			if jsonOut {
				type plannedQuery struct {
					Rank int    `json:"rank"`
					Text string `json:"text"`
				}
				payload := make([]plannedQuery, 0, len(plan))
				for _, q := range plan {
					payload = append(payload, plannedQuery{Rank: q.Rank, Text: q.Text})
				}
				return writeJSON(cmd.OutOrStdout(), payload)
			}

			rows := make([][]string, 0, len(plan))
			for _, q := range plan {
				rows = append(rows, []string{strconv.Itoa(q.Rank + 1), q.Text})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]tableColumn{{name: "#", right: true}, {name: "Query"}},
				rows,
			))
			if len(cfg.Search.Queries) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Plan overridden by [search].queries in the configuration.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the plan as JSON")
	return cmd
}
