// Package cli implements the proptable command line client.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Mujanati13/xcite/internal/client"
	"github.com/Mujanati13/xcite/internal/exportstore"
	"github.com/Mujanati13/xcite/internal/table"
	"github.com/Mujanati13/xcite/pkg/logger"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags and the state shared by all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"

	Config Config
	Logger *slog.Logger
	Now    func() time.Time

	closeLog func() error
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command of proptable.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Now: time.Now}

	cmd := &cobra.Command{
		Use:   "proptable",
		Short: "proptable - property table client",
		Long: `Browse properties and their contracts, export selections to the record
store and edit property addresses through the X-Cite property API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.init(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if opts.closeLog != nil {
				return opts.closeLog()
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/proptable/config.toml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewTokenCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewContractsCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewEditCommand(opts))
	cmd.AddCommand(NewReportCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func (o *RootOptions) init(cmd *cobra.Command) error {
	cfg, err := LoadConfig(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "load config", err)
	}
	o.Config = cfg

	level := cfg.Log.Level
	if o.Verbose {
		level = "debug"
	}
	lg, closeLog, err := logger.New(logger.Options{
		Level:  level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "init logger", err)
	}
	o.Logger = lg
	o.closeLog = closeLog
	return nil
}

// commandContext tags ctx with a fresh trace id, sent along with every request.
func commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logger.WithTraceID(ctx, uuid.New().String())
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func (o *RootOptions) sessions() *client.SessionStore {
	return client.NewSessionStore(o.Config.Session.Path).WithClock(o.Now)
}

func (o *RootOptions) backend() *client.Client {
	c := client.New(o.Config.API.URL, o.sessions(), o.Logger)
	if o.Config.API.Timeout > 0 {
		c.WithHTTPClient(&http.Client{Timeout: o.Config.API.Timeout})
	}
	return c
}

func (o *RootOptions) openStore(ctx context.Context) (exportstore.Store, error) {
	store, err := exportstore.Open(ctx, exportstore.Config{
		Driver:   o.Config.Store.Driver,
		DSN:      o.Config.Store.DSN,
		Database: o.Config.Store.Database,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open record store", err)
	}
	return store, nil
}

// newTable wires a table to the backend and store. A rejected token clears the
// stored session so the next command asks for a login.
func (o *RootOptions) newTable(svc table.PropertyService, store table.RecordStore) *table.Table {
	sessions := o.sessions()
	return table.New(svc, store, o.Logger, table.Options{
		PageSize:      o.Config.Table.PageSize,
		PrefetchLimit: o.Config.Table.PrefetchLimit,
		ExportedBy:    o.Config.Table.ExportedBy,
		OnUnauthorized: func() {
			if err := sessions.Clear(); err != nil {
				o.Logger.Warn("clear session", slog.String("error", err.Error()))
			}
		},
	})
}
