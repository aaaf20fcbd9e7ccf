package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	apperrors "optpricer/internal/errors"
	"optpricer/internal/models"
	"optpricer/internal/store"
)

func newHistoryCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded quotes",
		Long:  "List recorded quotes, newest first.",
		Example: `  optpricer history --limit 10
  optpricer history --method simulation --kind put`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if app.Store == nil {
				return apperrors.Wrap(apperrors.ErrDatabaseError, "quote store is not available")
			}

			filter := store.QuoteFilter{}
			filter.Limit, _ = cmd.Flags().GetInt("limit")
			if name, _ := cmd.Flags().GetString("method"); name != "" {
				filter.Method = models.PricingMethod(strings.ToLower(name))
			}
			if name, _ := cmd.Flags().GetString("kind"); name != "" {
				kind, err := models.ParseOptionKind(name)
				if err != nil {
					return err
				}
				filter.Kind = kind
			}

			quotes, err := app.Store.GetQuotes(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(quotes)
			}
			if len(quotes) == 0 {
				output.Info("No quotes recorded")
				return nil
			}

			table := NewTable(output, "ID", "TIME", "METHOD", "TYPE", "SPOT", "STRIKE", "EXPIRY", "VOL", "VALUE")
			for _, q := range quotes {
				kind := strings.ToLower(string(q.Kind))
				if q.BarrierKind != "" {
					kind = strings.ToLower(string(q.BarrierKind)) + "-" + kind
				}
				table.AddRow(
					fmt.Sprintf("%d", q.ID),
					FormatDateTime(q.CreatedAt),
					string(q.Method),
					kind,
					FormatValue(q.Spot, -1),
					FormatValue(q.Strike, -1),
					FormatValue(q.Expiry, -1),
					FormatValue(q.Volatility, -1),
					FormatValue(q.Value, q.Precision),
				)
			}
			table.Render()

			counts, err := app.Store.CountQuotes(cmd.Context())
			if err != nil {
				return err
			}
			methods := make([]string, 0, len(counts))
			for m := range counts {
				methods = append(methods, string(m))
			}
			sort.Strings(methods)
			totals := make([]string, len(methods))
			for i, m := range methods {
				totals[i] = fmt.Sprintf("%s %d", m, counts[models.PricingMethod(m)])
			}
			output.Println()
			output.Dim("Recorded: %s", strings.Join(totals, ", "))
			return nil
		},
	}

	cmd.Flags().String("method", "", "filter by method (formula, bitree, simulation, delta, barrier)")
	cmd.Flags().String("kind", "", "filter by option type (call, put)")
	cmd.Flags().Int("limit", 20, "maximum number of quotes")

	return cmd
}
