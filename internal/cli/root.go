// Package cli implements larderctl, the operator tool for inspecting and
// repairing households outside the HTTP API.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dalemusser/larder/internal/app/household"
	"github.com/dalemusser/larder/internal/app/system/auditlog"
	"github.com/dalemusser/larder/internal/domain/models"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Service is the slice of the membership engine the operator commands use.
type Service interface {
	Get(ctx context.Context, householdID string) (models.Household, error)
	GetHouseholdForUser(ctx context.Context, userID string) (models.Household, error)
	Repair(ctx context.Context, householdID string) (household.RepairResult, error)
	Resweep(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, actorID, householdID string) (household.DeleteResult, error)
}

// HouseholdLister pages through household ids.
type HouseholdLister interface {
	ListIDs(ctx context.Context, afterID string, limit int64) ([]string, error)
}

// Backend is what a command needs from the database.
type Backend struct {
	Svc    Service
	Lister HouseholdLister
	Audit  *auditlog.Logger // may be nil
	Close  func()
}

// Connector opens a Backend for the resolved root options.
type Connector func(ctx context.Context, opts *RootOptions) (*Backend, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose       bool
	Format        string // "json" | "text"
	MongoURI      string
	MongoDatabase string

	Logger *zap.Logger
	out    io.Writer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for larderctl.
func NewRootCommand(connect Connector) *cobra.Command {
	opts := &RootOptions{Logger: zap.NewNop()}

	cmd := &cobra.Command{
		Use:   "larderctl",
		Short: "Inspect and repair Larder households",
		Long: `Operator tool for the household membership store.

Multi-write operations that fail part way report the phase they stopped in.
Rerunning the same command finishes the job; repair and resweep heal links
left behind by an interrupted create or a crashed process.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return WrapExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			opts.out = cmd.OutOrStdout()
			if opts.Verbose {
				if l, err := zap.NewDevelopment(); err == nil {
					opts.Logger = l
				}
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.MongoURI, "mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI")
	cmd.PersistentFlags().StringVar(&opts.MongoDatabase, "mongo-database", "larder", "MongoDB database name")

	cmd.AddCommand(newShowCommand(opts, connect))
	cmd.AddCommand(newMineCommand(opts, connect))
	cmd.AddCommand(newRepairCommand(opts, connect))
	cmd.AddCommand(newResweepCommand(opts, connect))
	cmd.AddCommand(newDeleteCommand(opts, connect))

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

// withBackend opens the backend, runs fn, and closes it.
func withBackend(cmd *cobra.Command, opts *RootOptions, connect Connector, fn func(ctx context.Context, b *Backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := connect(ctx, opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	if b.Close != nil {
		defer b.Close()
	}
	return fn(ctx, b)
}
