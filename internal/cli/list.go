package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/palmgate/palmgate/internal/adapter"
	"github.com/palmgate/palmgate/internal/catalog"
	"github.com/palmgate/palmgate/internal/domain"
	"github.com/palmgate/palmgate/internal/paging"
	"github.com/palmgate/palmgate/internal/search"
)

// maxConcurrentLists caps how many lists are fetched at once.
const maxConcurrentLists = 4

type listParams struct {
	status      string
	user        string
	institution string
	maxPages    int
	grep        string
	failFast    bool
}

// listResult is the outcome of collecting one resource.
type listResult struct {
	entry catalog.Entry
	items []domain.ListItem
	pages int
	more  bool
	err   error
}

func newListCmd(a *app) *cobra.Command {
	var p listParams

	cmd := &cobra.Command{
		Use:   "list <resource>...",
		Short: "Print one or more lists as a table",
		Long: `Fetch lists page by page and print them as tables.

Resources: ` + strings.Join(resourceNames(), ", "),
		Example: `  # First two pages of open reports
  palmgate list reports --status open --max-pages 2

  # Every verification for one user
  palmgate list verifications --user u-42 --max-pages 0`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, a, args, p)
		},
	}

	cmd.Flags().StringVar(&p.status, "status", "", "only rows with this status")
	cmd.Flags().StringVar(&p.user, "user", "", "only rows belonging to this user ID")
	cmd.Flags().StringVar(&p.institution, "institution", "", "only rows belonging to this institution ID")
	cmd.Flags().IntVar(&p.maxPages, "max-pages", 1, "pages to fetch per list (0 fetches everything)")
	cmd.Flags().StringVar(&p.grep, "grep", "", "keep rows where any column fuzzily matches")
	cmd.Flags().BoolVar(&p.failFast, "fail-fast", false, "cancel remaining lists after the first failure")
	return cmd
}

func resourceNames() []string {
	var names []string
	for _, r := range domain.Resources() {
		names = append(names, string(r))
	}
	return names
}

// resolveEntries maps arguments to catalog entries, dropping repeats and
// checking the status filter against each one.
func resolveEntries(args []string, status string) ([]catalog.Entry, error) {
	var (
		out  []catalog.Entry
		seen = map[domain.Resource]bool{}
	)
	for _, arg := range args {
		r, err := domain.ParseResource(arg)
		if err != nil {
			return nil, err
		}
		if seen[r] {
			continue
		}
		seen[r] = true

		entry, err := catalog.Lookup(r)
		if err != nil {
			return nil, err
		}
		if !entry.AcceptsStatus(status) {
			if len(entry.Statuses) == 0 {
				return nil, fmt.Errorf("%s cannot be filtered by status", r)
			}
			return nil, fmt.Errorf("invalid status %q for %s (valid: %s)",
				status, r, strings.Join(entry.Statuses, ", "))
		}
		out = append(out, entry)
	}
	return out, nil
}

func runList(cmd *cobra.Command, a *app, args []string, p listParams) error {
	if a.cfg.Server.URL == "" {
		return fmt.Errorf("no server configured; set server.url in %s/config.yaml or PALMGATE_SERVER_URL", adapter.ConfigDir())
	}
	if p.maxPages < 0 {
		return fmt.Errorf("--max-pages must be >= 0, got %d", p.maxPages)
	}
	entries, err := resolveEntries(args, p.status)
	if err != nil {
		return err
	}

	repo := a.newRepo(a.cfg, a.logger)
	filter := domain.Filter{Status: p.status, UserID: p.user, InstitutionID: p.institution}
	opts := a.pagingOptions()

	results := make([]listResult, len(entries))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(maxConcurrentLists)
	for i, entry := range entries {
		g.Go(func() error {
			ctrl := entry.NewController(ctx, repo, filter, opts...)
			defer ctrl.Close()

			st, err := paging.Collect(ctx, ctrl, p.maxPages)
			results[i] = listResult{
				entry: entry,
				items: st.Items,
				pages: st.Pages,
				more:  st.HasMore,
				err:   err,
			}
			if err != nil {
				a.logger.Warn("list failed", "resource", entry.Resource, "error", err)
				if p.failFast {
					return fmt.Errorf("%s: %w", entry.Resource, err)
				}
			}
			return nil
		})
	}
	firstErr := g.Wait()

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	var errs []error
	for i, res := range results {
		if res.entry.Resource == "" {
			continue // never started after a fail-fast cancel
		}
		items := res.items
		if p.grep != "" {
			items = search.Grep(p.grep, items)
		}
		if len(entries) > 1 {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "== %s ==\n", res.entry.Title)
		}
		if err := printTable(out, res.entry.Headers, items); err != nil {
			return err
		}
		fmt.Fprintln(errOut, summary(res, len(items)))
		if res.err != nil {
			fmt.Fprintf(errOut, "%s: %s\n", res.entry.Resource, paging.Message(res.err))
			errs = append(errs, fmt.Errorf("%s: %w", res.entry.Resource, res.err))
		}
	}
	if len(errs) == 0 && firstErr != nil {
		return firstErr
	}
	return errors.Join(errs...)
}

func printTable(w io.Writer, headers []string, items []domain.ListItem) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, item := range items {
		cols := item.Columns()
		for i, c := range cols {
			cols[i] = strings.ReplaceAll(c, "\t", " ")
		}
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
	}
	return tw.Flush()
}

func summary(res listResult, shown int) string {
	s := fmt.Sprintf("%s: %d rows", res.entry.Resource, shown)
	if shown != len(res.items) {
		s += fmt.Sprintf(" of %d", len(res.items))
	}
	s += fmt.Sprintf(", %d pages", res.pages)
	if res.more {
		s += ", more available"
	}
	return s
}
