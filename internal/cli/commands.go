package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/larder/internal/app/household"
	"github.com/dalemusser/larder/internal/app/store/audit"
	"github.com/dalemusser/larder/internal/app/system/workers"
	"github.com/dalemusser/larder/internal/domain/models"
	"github.com/spf13/cobra"
)

func newShowCommand(opts *RootOptions, connect Connector) *cobra.Command {
	return &cobra.Command{
		Use:   "show <household-id>",
		Short: "Print a household document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, connect, func(ctx context.Context, b *Backend) error {
				h, err := b.Svc.Get(ctx, args[0])
				if err != nil {
					return engineError("show failed", err)
				}
				return output(opts.out, opts.Format, h, func(w io.Writer) { printHousehold(w, h) })
			})
		},
	}
}

func newMineCommand(opts *RootOptions, connect Connector) *cobra.Command {
	return &cobra.Command{
		Use:   "mine <user-id>",
		Short: "Print the household that lists a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, connect, func(ctx context.Context, b *Backend) error {
				h, err := b.Svc.GetHouseholdForUser(ctx, args[0])
				if err != nil {
					return engineError("lookup failed", err)
				}
				return output(opts.out, opts.Format, h, func(w io.Writer) { printHousehold(w, h) })
			})
		},
	}
}

type repairOptions struct {
	all bool
}

func newRepairCommand(opts *RootOptions, connect Connector) *cobra.Command {
	ropts := &repairOptions{}
	cmd := &cobra.Command{
		Use:   "repair [household-id...]",
		Short: "Restore user/household links",
		Long: `Re-link listed members whose user document does not point back, prune
ids that no longer resolve, and unlink users that point at a household
without being listed. With --all every household is visited.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if ropts.all == (len(args) > 0) {
				return WrapExitError(ExitCommandError, "pass household ids or --all, not both", nil)
			}
			return withBackend(cmd, opts, connect, func(ctx context.Context, b *Backend) error {
				if ropts.all {
					return repairAll(ctx, opts, b)
				}
				return repairIDs(ctx, opts, b, args)
			})
		},
	}
	cmd.Flags().BoolVar(&ropts.all, "all", false, "repair every household")
	return cmd
}

func repairIDs(ctx context.Context, opts *RootOptions, b *Backend, ids []string) error {
	results := make([]household.RepairResult, 0, len(ids))
	for _, id := range ids {
		res, err := b.Svc.Repair(ctx, id)
		b.Audit.Admin(ctx, nil, audit.EventHouseholdRepaired, id, "", err, repairDetails(res))
		if err != nil {
			return engineError(fmt.Sprintf("repair %s failed", id), err)
		}
		results = append(results, res)
	}
	return output(opts.out, opts.Format, results, func(w io.Writer) {
		for _, r := range results {
			if !r.Changed() {
				fmt.Fprintf(w, "%s: consistent\n", r.HouseholdID)
				continue
			}
			fmt.Fprintf(w, "%s: linked [%s] pruned [%s] unlinked [%s]\n", r.HouseholdID,
				strings.Join(r.Linked, " "), strings.Join(r.Pruned, " "), strings.Join(r.Unlinked, " "))
		}
	})
}

func repairAll(ctx context.Context, opts *RootOptions, b *Backend) error {
	if b.Lister == nil {
		return WrapExitError(ExitCommandError, "backend cannot list households", nil)
	}
	w := workers.NewReconciler(b.Lister, b.Svc, b.Audit, opts.Logger, time.Minute)
	sum, err := w.RunOnce(ctx)
	if err != nil {
		return WrapExitError(ExitRetry, "listing households failed", err)
	}
	if err := output(opts.out, opts.Format, sum, func(w io.Writer) {
		fmt.Fprintf(w, "scanned %d, repaired %d, failed %d\n", sum.Scanned, sum.Repaired, sum.Failed)
	}); err != nil {
		return err
	}
	if sum.Failed > 0 {
		return WrapExitError(ExitRetry, fmt.Sprintf("%d households could not be repaired", sum.Failed), nil)
	}
	return nil
}

func newResweepCommand(opts *RootOptions, connect Connector) *cobra.Command {
	return &cobra.Command{
		Use:   "resweep <user-id>",
		Short: "Move a user's food items to the household that lists them",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, connect, func(ctx context.Context, b *Backend) error {
				moved, err := b.Svc.Resweep(ctx, args[0])
				b.Audit.Admin(ctx, nil, audit.EventFoodItemsReswept, "", args[0], err,
					map[string]string{"moved": strconv.Itoa(moved)})
				if err != nil {
					return engineError("resweep failed", err)
				}
				data := map[string]any{"userId": args[0], "moved": moved}
				return output(opts.out, opts.Format, data, func(w io.Writer) {
					fmt.Fprintf(w, "%s: moved %d food items\n", args[0], moved)
				})
			})
		},
	}
}

type deleteOptions struct {
	actor string
}

func newDeleteCommand(opts *RootOptions, connect Connector) *cobra.Command {
	dopts := &deleteOptions{}
	cmd := &cobra.Command{
		Use:   "delete <household-id>",
		Short: "Delete a household and everything it owns",
		Long: `Runs the delete cascade on behalf of the owner: members are unlinked,
then images, food items, activities and finally the household document are
removed. A partial failure can be finished by running the command again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withBackend(cmd, opts, connect, func(ctx context.Context, b *Backend) error {
				res, err := b.Svc.Delete(ctx, dopts.actor, args[0])
				b.Audit.Household(ctx, nil, audit.EventHouseholdDeleted, dopts.actor, args[0], err,
					map[string]string{"via": "larderctl"})
				if err != nil {
					return engineError("delete failed", err)
				}
				return output(opts.out, opts.Format, res, func(w io.Writer) {
					fmt.Fprintf(w, "deleted %s: %d members unlinked, %d food items, %d images, %d activities\n",
						res.HouseholdID, res.Members, res.FoodItems, res.Images, res.Activities)
				})
			})
		},
	}
	cmd.Flags().StringVar(&dopts.actor, "actor", "", "owner user id (required)")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func repairDetails(res household.RepairResult) map[string]string {
	if !res.Changed() {
		return nil
	}
	return map[string]string{
		"linked":   strings.Join(res.Linked, ","),
		"pruned":   strings.Join(res.Pruned, ","),
		"unlinked": strings.Join(res.Unlinked, ","),
	}
}

func printHousehold(w io.Writer, h models.Household) {
	fmt.Fprintf(w, "id:      %s\n", h.ID)
	fmt.Fprintf(w, "name:    %s\n", h.Name)
	fmt.Fprintf(w, "type:    %s\n", h.Type)
	fmt.Fprintf(w, "owner:   %s\n", h.OwnerID)
	fmt.Fprintf(w, "members: %s\n", strings.Join(h.Users, ", "))
	if len(h.Invites) > 0 {
		fmt.Fprintf(w, "invites: %d pending\n", len(h.Invites))
	}
}
