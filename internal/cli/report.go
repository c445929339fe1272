package cli

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Mujanati13/xcite/internal/exportstore"
	"github.com/Mujanati13/xcite/internal/models"
	"github.com/Mujanati13/xcite/internal/report"
	"github.com/Mujanati13/xcite/internal/table"
	"github.com/spf13/cobra"
)

// NewReportCommand creates the report command. Without a handle it lists the
// stored export records.
func NewReportCommand(rootOpts *RootOptions) *cobra.Command {
	var output, dir, kind string
	var all bool
	var workers int

	cmd := &cobra.Command{
		Use:   "report [handle]",
		Short: "List export records or render them as PDF or TSV",
		Long: `Without arguments, list the stored export records. With a handle, render
that record to --output; a .tsv file gets tab-separated rows, anything else a
PDF. With --all, render every record into --dir as --type files.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case all && len(args) > 0:
				return NewExitError(ExitCommandError, "--all takes no handle")
			case all:
				format := report.Format(kind)
				if format != report.FormatPDF && format != report.FormatTSV {
					return NewExitError(ExitCommandError, fmt.Sprintf("invalid --type %q: must be pdf or tsv", kind))
				}
				return runReportAll(rootOpts, cmd, dir, workers, format)
			case len(args) == 0:
				return runRecordList(rootOpts, cmd)
			default:
				return runReport(rootOpts, cmd, args[0], output)
			}
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default export-<handle>.pdf)")
	cmd.Flags().BoolVar(&all, "all", false, "render every export record")
	cmd.Flags().StringVar(&dir, "dir", "reports", "target directory for --all")
	cmd.Flags().StringVar(&kind, "type", string(report.FormatPDF), "file type for --all (pdf|tsv)")
	cmd.Flags().IntVar(&workers, "workers", report.DefaultWorkers, "records rendered in parallel with --all")
	return cmd
}

func runRecordList(opts *RootOptions, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
	out := opts.formatter(cmd)

	store, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.ScanExportRecords(ctx)
	if err != nil {
		return out.Fail(err)
	}
	if out.Format == "json" {
		views := make([]recordView, 0, len(records))
		for _, r := range records {
			views = append(views, recordView{Handle: r.Handle, ExportRecord: r})
		}
		return out.Success("", views)
	}
	if len(records) == 0 {
		return out.Success("No export records", nil)
	}

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			r.Handle,
			r.ExportDate.Local().Format(time.DateTime),
			r.ExportedBy,
			strconv.Itoa(r.PropertiesCount),
			strconv.Itoa(r.TotalContractsCount),
			lastUpdated(r),
		})
	}
	headers := []string{"Handle", "Exported", "By", "Properties", "Contracts", "Updated"}
	return out.Success(render(headers, rows, nil), nil)
}

// recordView adds the store handle, which is not part of the document.
type recordView struct {
	Handle string `json:"handle"`
	models.ExportRecord
}

func lastUpdated(r models.ExportRecord) string {
	if r.LastUpdated == nil {
		return ""
	}
	return r.LastUpdated.Local().Format(time.DateTime)
}

func runReport(opts *RootOptions, cmd *cobra.Command, handle, output string) error {
	ctx := commandContext(cmd)
	out := opts.formatter(cmd)

	store, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	rec, err := store.GetExportRecord(ctx, handle)
	if errors.Is(err, exportstore.ErrNotFound) {
		return NewExitError(ExitFailure, fmt.Sprintf("export record %s not found", handle))
	}
	if err != nil {
		return out.Fail(err)
	}

	if output == "" {
		output = report.FileName(handle, report.FormatPDF)
	}
	format := report.FormatFromPath(output)
	var cfg *report.Config
	if format == report.FormatPDF {
		if cfg, err = report.NewConfig(opts.Config.Report.Font); err != nil {
			return WrapExitError(ExitCommandError, "report font", err)
		}
	}
	if err := report.Write(cfg, rec, format, output); err != nil {
		return WrapExitError(ExitFailure, "write report", err)
	}

	return out.Success(fmt.Sprintf("Report for %s written to %s", handle, output), map[string]any{
		"handle":     handle,
		"file":       output,
		"properties": rec.PropertiesCount,
		"contracts":  rec.TotalContractsCount,
	})
}

func runReportAll(opts *RootOptions, cmd *cobra.Command, dir string, workers int, format report.Format) error {
	ctx := commandContext(cmd)
	out := opts.formatter(cmd)

	store, err := opts.openStore(ctx)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.ScanExportRecords(ctx)
	if err != nil {
		return out.Fail(err)
	}

	var cfg *report.Config
	if format == report.FormatPDF {
		if cfg, err = report.NewConfig(opts.Config.Report.Font); err != nil {
			return WrapExitError(ExitCommandError, "report font", err)
		}
	}
	b := report.NewBatch(cfg, dir, workers, opts.Logger)
	b.Format = format
	results, err := b.Run(ctx, records)
	if err != nil {
		return WrapExitError(ExitCommandError, "render reports", err)
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			out.VerboseLog("%s: %v", r.Handle, r.Err)
		}
	}
	n := table.Notification{Kind: table.KindSuccess, Message: fmt.Sprintf("%d reports written to %s", len(results)-failed, dir)}
	if failed > 0 {
		n = table.Notification{Kind: table.KindWarning, Message: fmt.Sprintf("%d of %d reports failed, see the log", failed, len(results))}
	}
	if err := out.Notify(n, results); err != nil {
		return err
	}
	if failed > 0 {
		return &ExitError{Code: ExitFailure, Message: n.Message, Err: errPrinted}
	}
	return nil
}
