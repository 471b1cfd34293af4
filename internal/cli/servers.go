package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"cloudsync-pg-backend/internal/application/async"
	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/sync/reconcile"
	"cloudsync-pg-backend/internal/sync/types"
	"cloudsync-pg-backend/internal/sync/utils"
)

func newServersCmd(g *globals, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "servers",
		Short: "Inspect and reconcile compute servers",
	}
	cmd.AddCommand(newServersListCmd(g, stdout))
	cmd.AddCommand(newServersShowCmd(g, stdout))
	cmd.AddCommand(newServersPowerCmd(g, stdout))
	cmd.AddCommand(newServersSyncCmd(g, stdout))
	return cmd
}

func newServersListCmd(g *globals, stdout io.Writer) *cobra.Command {
	var cloudID int64
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the sync projections of the servers of a cloud",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), g, func(ctx context.Context, rt *runtime) error {
				items, err := async.Collect(ctx, rt.servers.ListSyncProjections(ctx, cloudID))
				if err != nil {
					return err
				}
				return render(stdout, output, items, func(tw *tabwriter.Writer) {
					fmt.Fprintln(tw, "ID\tEXTERNAL ID\tNAME")
					for _, p := range items {
						fmt.Fprintf(tw, "%d\t%s\t%s\n", p.ID, p.ExternalID, p.Name)
					}
				})
			})
		},
	}
	cmd.Flags().Int64Var(&cloudID, "cloud", 0, "Cloud id")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table|json")
	_ = cmd.MarkFlagRequired("cloud")
	return cmd
}

func newServersShowCmd(g *globals, stdout io.Writer) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Show one compute server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.Wrapf(err, "invalid server id %q", args[0])
			}
			return withRuntime(cmd.Context(), g, func(ctx context.Context, rt *runtime) error {
				server, err := rt.servers.Get(ctx, id).Await(ctx)
				if err != nil {
					return err
				}
				if server == nil {
					return fmt.Errorf("server %d not found", id)
				}
				return render(stdout, output, server, func(tw *tabwriter.Writer) {
					fmt.Fprintln(tw, "ID\tCLOUD\tEXTERNAL ID\tNAME\tPOWER\tUPDATED")
					fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%s\n", server.ID, server.CloudID, server.ExternalID,
						server.Name, server.PowerState, server.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"))
				})
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table|json")
	return cmd
}

func newServersPowerCmd(g *globals, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "power ID STATE",
		Short: "Set the power state of a server (on|off|paused|unknown)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.Wrapf(err, "invalid server id %q", args[0])
			}
			state := models.PowerState(args[1])
			return withRuntime(cmd.Context(), g, func(ctx context.Context, rt *runtime) error {
				if _, err := rt.servers.UpdatePowerState(ctx, id, state).Await(ctx); err != nil {
					return err
				}
				fmt.Fprintf(stdout, "server %d: power %s\n", id, state)
				return nil
			})
		},
	}
}

func newServersSyncCmd(g *globals, stdout io.Writer) *cobra.Command {
	var (
		cloudID   int64
		accountID int64
		file      string
	)
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile the servers of a cloud with a listing file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listing, err := readListingFile(file)
			if err != nil {
				return err
			}
			return withRuntime(cmd.Context(), g, func(ctx context.Context, rt *runtime) error {
				tracker := utils.NewSyncTracker()
				task := serverSyncTask(ctx, rt, cloudID, accountID, listing.Servers, tracker)
				result, err := task.Run(ctx)
				fmt.Fprintf(stdout, "servers: added %d, updated %d, removed %d\n", result.Added, result.Updated, result.Removed)
				return err
			})
		},
	}
	cmd.Flags().Int64Var(&cloudID, "cloud", 0, "Cloud id")
	cmd.Flags().Int64Var(&accountID, "account", 0, "Account owning new servers")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML listing with a servers list")
	_ = cmd.MarkFlagRequired("cloud")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// serverSyncTask builds the reconcile pass of one cloud's servers. Every
// write goes through the retry policy of the configuration.
func serverSyncTask(ctx context.Context, rt *runtime, cloudID, accountID int64, docs []serverDoc,
	tracker *utils.SyncTracker) *reconcile.Task[models.ComputeServerIdentityProjection, serverDoc] {
	retry := func(ctx context.Context, op func(context.Context) error) error {
		return utils.ExecuteWithRetry(ctx, rt.cfg.Sync.Retry, rt.logger, op)
	}
	return &reconcile.Task[models.ComputeServerIdentityProjection, serverDoc]{
		Subject:     types.SyncSubjectTypeComputeServers,
		Existing:    rt.servers.ListSyncProjections(ctx, cloudID),
		Cloud:       docs,
		ExistingKey: func(p models.ComputeServerIdentityProjection) string { return p.ExternalID },
		CloudKey:    func(d serverDoc) string { return d.ExternalID },
		OnAdd: func(ctx context.Context, items []serverDoc) error {
			batch := make([]*models.ComputeServer, len(items))
			for i, d := range items {
				batch[i] = &models.ComputeServer{CloudID: cloudID, AccountID: accountID}
				d.apply(batch[i])
			}
			return retry(ctx, func(ctx context.Context) error {
				return awaitOK(ctx, rt.servers.Create(ctx, batch), "create servers")
			})
		},
		OnUpdate: func(ctx context.Context, matches []reconcile.Match[models.ComputeServerIdentityProjection, serverDoc]) error {
			docs := make(map[int64]serverDoc, len(matches))
			ids := make([]int64, 0, len(matches))
			for _, m := range matches {
				docs[m.Existing.ID] = m.Cloud
				ids = append(ids, m.Existing.ID)
			}
			stored, err := async.Collect(ctx, rt.servers.ListByID(ctx, ids))
			if err != nil {
				return err
			}
			batch := make([]*models.ComputeServer, 0, len(stored))
			for i := range stored {
				docs[stored[i].ID].apply(&stored[i])
				batch = append(batch, &stored[i])
			}
			return retry(ctx, func(ctx context.Context) error {
				return awaitOK(ctx, rt.servers.Save(ctx, batch), "save servers")
			})
		},
		OnDelete: func(ctx context.Context, stale []models.ComputeServerIdentityProjection) error {
			return retry(ctx, func(ctx context.Context) error {
				return awaitOK(ctx, rt.servers.Remove(ctx, stale), "remove servers")
			})
		},
		BatchSize: rt.cfg.Sync.BatchSize,
		Logger:    rt.logger,
		Tracker:   tracker,
	}
}

// awaitOK turns a false success flag into an error
func awaitOK(ctx context.Context, f *async.Future[bool], what string) error {
	ok, err := f.Await(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: not applied", what)
	}
	return nil
}
