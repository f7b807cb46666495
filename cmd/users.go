package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/eci4ever/bizadmin/internal/adapters/in/cli/ui/components"
	"github.com/eci4ever/bizadmin/internal/adapters/in/cli/ui/styles"
	"github.com/eci4ever/bizadmin/internal/app"
	"github.com/eci4ever/bizadmin/internal/domain"
)

func newUsersCmd(opts *rootOptions) *cobra.Command {
	var q domain.ListUsersQuery

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List auth users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := opts.loadConfig()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			page, err := a.ListUsers(ctx, q)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(page.Users) == 0 {
				fmt.Fprintln(w, styles.RenderInfo("no users"))
				return nil
			}
			fmt.Fprintln(w, components.UserTable(page.Users, time.Now()))
			fmt.Fprintln(w, styles.Theme.Muted.Render(
				fmt.Sprintf("%d of %d users (offset %d)", len(page.Users), page.Total, page.Offset)))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&q.FilterField, "filter-field", "", "field to filter on (role, banned, emailVerified)")
	f.StringVar(&q.FilterValue, "filter-value", "", "value the filter field must equal")
	f.StringVar(&q.SearchField, "search-field", "", "field to search (name, email)")
	f.StringVar(&q.SearchValue, "search", "", "search text")
	f.StringVar(&q.SortBy, "sort-by", "", "sort field")
	f.StringVar(&q.SortDirection, "sort-direction", "", "asc or desc")
	f.IntVar(&q.Limit, "limit", domain.DefaultListLimit, "page size")
	f.IntVar(&q.Offset, "offset", 0, "rows to skip")
	return cmd
}
