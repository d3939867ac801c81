package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/lawmind/constants"
	"github.com/joseph-ayodele/lawmind/internal/common"
)

func newCitationsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "citations",
		Short: "Search case law citations",
	}
	cmd.AddCommand(newCitationsSearchCmd(app), newCitationsShowCmd(app))
	return cmd
}

func newCitationsSearchCmd(app *App) *cobra.Command {
	var (
		caseType string
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "search <query>...",
		Short: "Find citations relevant to a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return common.NewAppError("INVALID_INPUT", "query is required", common.ErrInvalidInput)
			}
			if caseType != "" {
				ct, ok := constants.Canonicalize(caseType, constants.CaseTypes())
				if !ok {
					return common.NewAppError("INVALID_INPUT",
						"--case-type must be one of "+strings.Join(constants.CaseTypes(), ", "), common.ErrInvalidInput)
				}
				caseType = ct
			}
			if err := app.requireAuth(); err != nil {
				return err
			}
			resp, err := app.Client.Citations.Search(cmd.Context(), query, caseType, limit)
			if err != nil {
				return err
			}
			if len(resp.Citations) == 0 {
				app.printf("No citations found.\n")
				return nil
			}
			tw := app.newTable()
			tw.AppendHeader(table.Row{"Citation", "Title", "Court", "Year", "Relevance"})
			for _, c := range resp.Citations {
				tw.AppendRow(table.Row{c.Citation, c.Title, c.Court, c.Year, fmt.Sprintf("%.0f%%", c.RelevanceScore*100)})
			}
			tw.AppendFooter(table.Row{"", fmt.Sprintf("%d of %d", len(resp.Citations), resp.Total)})
			tw.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&caseType, "case-type", "", "restrict to a case type")
	cmd.Flags().IntVarP(&limit, "limit", "n", 5, "maximum results")
	return cmd
}

func newCitationsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <citation>",
		Short: "Show one citation",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.requireAuth(); err != nil {
				return err
			}
			c, err := app.Client.Citations.Get(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			app.printf("%s\n%s, %s (%d)\n", c.Title, c.Citation, c.Court, c.Year)
			if c.Summary != "" {
				app.printf("\n%s\n", c.Summary)
			}
			return nil
		},
	}
}
