package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/Mujanati13/xcite/internal/models"
	"github.com/Mujanati13/xcite/internal/table"
	"github.com/spf13/cobra"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var page PageOptions
	var ids []int64
	var all bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export selected properties of a page to the record store",
		Long: `Load a page, select properties and write them with their contracts as one
export record. Inactive properties cannot be selected and properties already
present in an export record are skipped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(rootOpts, cmd, page, ids, all)
		},
	}
	page.register(cmd)
	cmd.Flags().Int64SliceVar(&ids, "ids", nil, "property ids to export")
	cmd.Flags().BoolVar(&all, "all", false, "export every active property of the page")
	cmd.MarkFlagsOneRequired("ids", "all")
	cmd.MarkFlagsMutuallyExclusive("ids", "all")
	return cmd
}

func runExport(opts *RootOptions, cmd *cobra.Command, page PageOptions, ids []int64, all bool) error {
	ctx := commandContext(cmd)
	out := opts.formatter(cmd)

	store, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	t := opts.newTable(opts.backend(), store)
	// a stale index is refused by the export itself
	if err := loadPage(ctx, t, page, func(err error) { out.VerboseLog("%v", err) }); err != nil {
		return out.Fail(err)
	}

	if all {
		t.SelectAll()
	} else if err := selectRows(t, ids); err != nil {
		return err
	}

	res, err := t.Export(ctx)
	var already *table.AlreadyExportedError
	switch {
	case errors.As(err, &already):
		return out.Notify(table.NotificationFor(err), res)
	case err != nil:
		return out.Fail(err)
	}
	return out.Notify(table.ExportNotification(res), res)
}

// selectRows selects ids on the loaded page. Each id must be a loaded, active row.
func selectRows(t *table.Table, ids []int64) error {
	rows := t.Rows()
	for _, id := range slices.Compact(slices.Sorted(slices.Values(ids))) {
		i := slices.IndexFunc(rows, func(p models.Property) bool { return p.ID == id })
		if i < 0 {
			return WrapExitError(ExitCommandError, fmt.Sprintf("property %d", id), table.ErrRowNotLoaded)
		}
		if !rows[i].Eligible() {
			return NewExitError(ExitCommandError, fmt.Sprintf("property %d is inactive and cannot be selected", id))
		}
		t.Toggle(id)
	}
	return nil
}

// NewEditCommand creates the edit command.
func NewEditCommand(rootOpts *RootOptions) *cobra.Command {
	var page PageOptions
	var sets []string

	cmd := &cobra.Command{
		Use:   "edit <property-id>",
		Short: "Change the address or recipient of a property",
		Long: `Change address and recipient fields of a property on the given page. Only
changed fields are sent. If the property was exported, its export record is
updated as well.

Fields: ` + strings.Join(models.EditableFields, ", "),
		Example: `  proptable edit 42 --set strasse="Hauptstraße" --set hausnummer=7`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			changes, err := parseSets(sets)
			if err != nil {
				return err
			}
			return runEdit(rootOpts, cmd, page, id, changes)
		},
	}
	page.register(cmd)
	cmd.Flags().StringArrayVar(&sets, "set", nil, "field=value to change (repeatable)")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

type fieldChange struct {
	field, value string
}

func parseSets(sets []string) ([]fieldChange, error) {
	changes := make([]fieldChange, 0, len(sets))
	for _, s := range sets {
		field, value, ok := strings.Cut(s, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("invalid --set %q: want field=value", s))
		}
		if !models.IsEditableField(field) {
			return nil, NewExitError(ExitCommandError, fmt.Sprintf("field %q cannot be edited", field))
		}
		changes = append(changes, fieldChange{field: field, value: value})
	}
	return changes, nil
}

func runEdit(opts *RootOptions, cmd *cobra.Command, page PageOptions, id int64, changes []fieldChange) error {
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
	if err := selectRows(t, []int64{id}); err != nil {
		return err
	}
	if err := t.BeginEdit(); err != nil {
		return out.Fail(err)
	}
	for _, c := range changes {
		if err := t.Edit().Change(c.field, c.value); err != nil {
			return WrapExitError(ExitCommandError, "edit", err)
		}
	}

	res, err := t.SaveEdit(ctx)
	if errors.Is(err, table.ErrNoChanges) {
		return out.Notify(table.NotificationFor(err), nil)
	}
	if err != nil {
		return out.Fail(err)
	}

	data := map[string]any{"property": res.Property, "changed": res.Changed, "handle": res.Handle}
	if res.SyncErr != nil {
		data["syncError"] = res.SyncErr.Error()
	}
	return out.Notify(table.SaveNotification(res), data)
}
