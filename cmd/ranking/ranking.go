// Package ranking implements the command that prints the leaderboard.
package ranking

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/nabos/fishclub/internal/conf"
	"github.com/nabos/fishclub/internal/datastore"
	"github.com/nabos/fishclub/internal/ranking"
)

// Command creates the ranking command.
func Command(settings *conf.Settings) *cobra.Command {
	var top int

	cmd := &cobra.Command{
		Use:   "ranking",
		Short: "Print the member leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("top") {
				top = settings.Ranking.TopN
			}
			if top < 0 {
				return fmt.Errorf("--top must be zero or positive, got %d", top)
			}

			db, err := datastore.Open(settings)
			if err != nil {
				return err
			}
			defer db.Close()

			engine := ranking.NewEngine(settings.Ranking.CatchCap)
			service := ranking.NewService(datastore.NewMemberRepository(db.DB()), datastore.NewCatchRepository(db.DB()), engine)

			entries, err := service.Ranking(cmd.Context(), top)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No members ranked yet.")
				return nil
			}
			fmt.Fprintln(out, Render(entries))
			fmt.Fprintf(out, "Best %d catches per member count towards the total.\n", engine.Cap())
			return nil
		},
	}

	cmd.Flags().IntVarP(&top, "top", "n", 0, "Show only the first N members (default: ranking.topn, 0 for all)")

	return cmd
}

// Render formats leaderboard entries as a bordered table.
func Render(entries []ranking.Entry) string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{strconv.Itoa(e.Rank), e.Member.DisplayName(), strconv.Itoa(e.Total)})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers("#", "Member", "Points").
		Rows(rows...).
		String()
}
