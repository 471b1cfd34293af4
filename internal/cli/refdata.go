package cli

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"cloudsync-pg-backend/internal/application/async"
	"cloudsync-pg-backend/internal/application/services"
	"cloudsync-pg-backend/internal/domain/models"
	"cloudsync-pg-backend/internal/sync/reconcile"
	"cloudsync-pg-backend/internal/sync/types"
	"cloudsync-pg-backend/internal/sync/utils"
)

func newRefDataCmd(g *globals, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "refdata",
		Aliases: []string{"reference-data"},
		Short:   "Inspect and reconcile cached reference data",
	}
	cmd.AddCommand(newRefDataListCmd(g, stdout))
	cmd.AddCommand(newRefDataFindCmd(g, stdout))
	cmd.AddCommand(newRefDataSaveCmd(g, stdout))
	cmd.AddCommand(newRefDataPruneCmd(g, stdout))
	cmd.AddCommand(newRefDataSyncCmd(g, stdout))
	return cmd
}

// namespaceFlags registers the --cloud and --category pair
func namespaceFlags(cmd *cobra.Command, ns *services.ReferenceDataNamespace) {
	cmd.Flags().Int64Var(&ns.CloudID, "cloud", 0, "Cloud id")
	cmd.Flags().StringVar(&ns.Category, "category", "", "Reference data category")
	_ = cmd.MarkFlagRequired("cloud")
	_ = cmd.MarkFlagRequired("category")
}

func newRefDataListCmd(g *globals, stdout io.Writer) *cobra.Command {
	var ns services.ReferenceDataNamespace
	var output string
	var full bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the reference data of a cloud category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), g, func(ctx context.Context, rt *runtime) error {
				if full {
					entries, err := rt.cloud.FindReferenceDataByCategory(ctx, ns.CloudID, ns.Category).Await(ctx)
					if err != nil {
						return err
					}
					return render(stdout, output, entries, func(tw *tabwriter.Writer) {
						fmt.Fprintln(tw, "ID\tEXTERNAL ID\tNAME\tCODE\tVALUE")
						for _, e := range entries {
							fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.ID, e.ExternalID, e.Name, e.Code, e.Value)
						}
					})
				}
				items, err := async.Collect(ctx, rt.cloud.ListReferenceDataByCategory(ctx, ns.CloudID, ns.Category))
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
	namespaceFlags(cmd, &ns)
	cmd.Flags().BoolVar(&full, "full", false, "Load full records instead of projections")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table|json")
	return cmd
}

func newRefDataFindCmd(g *globals, stdout io.Writer) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "find EXTERNAL_ID...",
		Short: "Look reference data up by external id",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), g, func(ctx context.Context, rt *runtime) error {
				entries, err := rt.cloud.ListReferenceDataByExternalIDs(ctx, args).Await(ctx)
				if err != nil {
					return err
				}
				return render(stdout, output, entries, func(tw *tabwriter.Writer) {
					fmt.Fprintln(tw, "ID\tCLOUD\tCATEGORY\tEXTERNAL ID\tNAME")
					for _, e := range entries {
						fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\n", e.ID, e.CloudID, e.Category, e.ExternalID, e.Name)
					}
				})
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format: table|json")
	return cmd
}

func newRefDataSaveCmd(g *globals, stdout io.Writer) *cobra.Command {
	var ns services.ReferenceDataNamespace
	var entry models.ReferenceData
	var flush bool
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Upsert one reference data entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), g, func(ctx context.Context, rt *runtime) error {
				opts := services.SaveOptions{CloudID: ns.CloudID, Category: ns.Category, Flush: flush}
				saved, err := rt.cloud.SaveReferenceData(ctx, &entry, opts).Await(ctx)
				if err != nil {
					return err
				}
				if flush {
					fmt.Fprintf(stdout, "saved %d/%s/%s as %d\n", saved.CloudID, saved.Category, saved.ExternalID, saved.ID)
					return nil
				}
				fmt.Fprintf(stdout, "buffered %d/%s/%s\n", saved.CloudID, saved.Category, saved.ExternalID)
				return nil
			})
		},
	}
	namespaceFlags(cmd, &ns)
	cmd.Flags().StringVar(&entry.ExternalID, "external-id", "", "External id")
	cmd.Flags().StringVar(&entry.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&entry.Code, "code", "", "Code")
	cmd.Flags().StringVar(&entry.Value, "value", "", "Value")
	cmd.Flags().BoolVar(&flush, "flush", false, "Commit before returning instead of buffering")
	_ = cmd.MarkFlagRequired("external-id")
	return cmd
}

func newRefDataPruneCmd(g *globals, stdout io.Writer) *cobra.Command {
	var ns services.ReferenceDataNamespace
	var keep []string
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete the entries of a category whose external id is not kept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), g, func(ctx context.Context, rt *runtime) error {
				if err := awaitOK(ctx, rt.cloud.RemoveMissingReferenceData(ctx, ns, keep), "prune reference data"); err != nil {
					return err
				}
				fmt.Fprintf(stdout, "pruned %d/%s, kept %d\n", ns.CloudID, ns.Category, len(keep))
				return nil
			})
		},
	}
	namespaceFlags(cmd, &ns)
	cmd.Flags().StringSliceVar(&keep, "keep", nil, "External ids to keep; none empties the category")
	return cmd
}

func newRefDataSyncCmd(g *globals, stdout io.Writer) *cobra.Command {
	var ns services.ReferenceDataNamespace
	var file string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile a reference data category with a listing file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listing, err := readListingFile(file)
			if err != nil {
				return err
			}
			return withRuntime(cmd.Context(), g, func(ctx context.Context, rt *runtime) error {
				task := referenceDataSyncTask(ctx, rt, ns, listing.ReferenceData, utils.NewSyncTracker())
				result, err := task.Run(ctx)
				fmt.Fprintf(stdout, "reference data: added %d, updated %d, removed %d\n", result.Added, result.Updated, result.Removed)
				return err
			})
		},
	}
	namespaceFlags(cmd, &ns)
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML listing with a referenceData list")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// referenceDataSyncTask builds the refresh-and-prune pass of one namespace
func referenceDataSyncTask(ctx context.Context, rt *runtime, ns services.ReferenceDataNamespace, docs []referenceDataDoc,
	tracker *utils.SyncTracker) *reconcile.Task[models.ReferenceDataSyncProjection, referenceDataDoc] {
	opts := services.SaveOptions{CloudID: ns.CloudID, Category: ns.Category, Flush: true}
	save := func(ctx context.Context, entries []models.ReferenceData) error {
		return utils.ExecuteWithRetry(ctx, rt.cfg.Sync.Retry, rt.logger, func(ctx context.Context) error {
			return awaitOK(ctx, rt.cloud.SaveAllReferenceData(ctx, entries, opts), "save reference data")
		})
	}
	return &reconcile.Task[models.ReferenceDataSyncProjection, referenceDataDoc]{
		Subject:     types.SyncSubjectTypeReferenceData,
		Existing:    rt.cloud.ListReferenceDataByCategory(ctx, ns.CloudID, ns.Category),
		Cloud:       docs,
		ExistingKey: func(p models.ReferenceDataSyncProjection) string { return p.ExternalID },
		CloudKey:    func(d referenceDataDoc) string { return d.ExternalID },
		OnAdd: func(ctx context.Context, items []referenceDataDoc) error {
			entries := make([]models.ReferenceData, len(items))
			for i, d := range items {
				entries[i] = d.entry()
			}
			return save(ctx, entries)
		},
		OnUpdate: func(ctx context.Context, matches []reconcile.Match[models.ReferenceDataSyncProjection, referenceDataDoc]) error {
			entries := make([]models.ReferenceData, len(matches))
			for i, m := range matches {
				entries[i] = m.Cloud.entry()
				entries[i].ID = m.Existing.ID
			}
			return save(ctx, entries)
		},
		OnDelete: func(ctx context.Context, _ []models.ReferenceDataSyncProjection) error {
			keep := make([]string, len(docs))
			for i, d := range docs {
				keep[i] = d.ExternalID
			}
			return utils.ExecuteWithRetry(ctx, rt.cfg.Sync.Retry, rt.logger, func(ctx context.Context) error {
				return awaitOK(ctx, rt.cloud.RemoveMissingReferenceData(ctx, ns, keep), "prune reference data")
			})
		},
		BatchSize: rt.cfg.Sync.BatchSize,
		Logger:    rt.logger,
		Tracker:   tracker,
	}
}
