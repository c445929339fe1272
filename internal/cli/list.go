package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Mujanati13/xcite/internal/models"
	"github.com/Mujanati13/xcite/internal/table"
	"github.com/spf13/cobra"
)

// PageOptions select the page a command works on.
type PageOptions struct {
	Page  int
	Agent string
}

func (p *PageOptions) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&p.Page, "page", "p", 1, "page number")
	cmd.Flags().StringVarP(&p.Agent, "agent", "a", "", "only properties of this agent (makler_id)")
}

// loadPage loads the requested page into t. A stale sync index is reported
// through warn and does not stop the command.
func loadPage(ctx context.Context, t *table.Table, p PageOptions, warn func(error)) error {
	err := t.Pager().ApplyFilter(ctx, strings.TrimSpace(p.Agent))
	if err == nil && p.Page > 1 {
		err = t.Pager().GoToPage(ctx, p.Page)
	}
	if errors.Is(err, table.ErrIndexStale) {
		warn(err)
		return nil
	}
	return err
}

// pageView is the JSON form of a loaded page.
type pageView struct {
	Properties []models.Property `json:"properties"`
	Exported   map[int64]string  `json:"exported"`
	Pagination models.Pagination `json:"pagination"`
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var page PageOptions
	var sortBy string
	var desc bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show a page of properties with their export state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runList(rootOpts, cmd, page, sortBy, desc)
		},
	}
	page.register(cmd)
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort column, e.g. strasse, plz, ort, meter_count")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	return cmd
}

func runList(opts *RootOptions, cmd *cobra.Command, page PageOptions, sortBy string, desc bool) error {
	ctx := commandContext(cmd)
	out := opts.formatter(cmd)

	store, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	t := opts.newTable(opts.backend(), store)
	if err := loadPage(ctx, t, page, out.Warn); err != nil {
		return out.Fail(err)
	}

	if sortBy != "" {
		order, err := t.SortBy(sortBy)
		if err != nil {
			return WrapExitError(ExitCommandError, "sort", err)
		}
		if desc && order == table.Ascending {
			_, _ = t.SortBy(sortBy)
		}
	}

	rows := t.Rows()
	state := t.Pager().State()
	if out.Format == "json" {
		return out.Success("", pageView{Properties: rows, Exported: t.Index().Snapshot(), Pagination: state})
	}

	var b strings.Builder
	b.WriteString(renderProperties(rows, t.Index(), nil))
	b.WriteString("\n")
	b.WriteString(renderPagination(state))
	if t.AllEligibleExported() {
		b.WriteString("\n")
		b.WriteString(kindStyles[table.KindInfo].Render("All active properties on this page are exported"))
	}
	return out.Success(b.String(), nil)
}

// NewContractsCommand creates the contracts command.
func NewContractsCommand(rootOpts *RootOptions) *cobra.Command {
	var sortBy string
	var desc bool

	cmd := &cobra.Command{
		Use:   "contracts <property-id>",
		Short: "Show the contracts (meters) of a property",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			out := rootOpts.formatter(cmd)

			contracts, err := rootOpts.backend().ListContracts(ctx, id)
			if err != nil {
				if errors.Is(err, table.ErrUnauthorized) {
					_ = rootOpts.sessions().Clear()
				}
				return out.Fail(err)
			}
			if sortBy != "" {
				order := table.Ascending
				if desc {
					order = table.Descending
				}
				if err := table.SortContractList(contracts, sortBy, order); err != nil {
					return WrapExitError(ExitCommandError, "sort", err)
				}
			}
			if out.Format == "json" {
				return out.Success("", contracts)
			}
			return out.Success(fmt.Sprintf("%s\n%s", renderContracts(contracts),
				footerStyle.Render(fmt.Sprintf("%d contracts for property %d", len(contracts), id))), nil)
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort column, e.g. energieart, zaehlernummer")
	cmd.Flags().BoolVar(&desc, "desc", false, "sort descending")
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid id %q", s))
	}
	return id, nil
}
