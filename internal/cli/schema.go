package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newSchemaCmd(g *globals, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the storage schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "apply",
		Short: "Apply the embedded schema to the configured database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g.cfg.Storage.Migrate = true
			return withRuntime(cmd.Context(), g, func(ctx context.Context, rt *runtime) error {
				fmt.Fprintf(stdout, "schema applied (%s)\n", g.cfg.Storage.Type)
				return nil
			})
		},
	})
	return cmd
}
