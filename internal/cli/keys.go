package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newKeysCmd(g *globals, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage account key pairs",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "ensure ACCOUNT_ID",
		Short: "Print the key pair of an account, generating it on first use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			accountID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return errors.Wrapf(err, "invalid account id %q", args[0])
			}
			return withRuntime(cmd.Context(), g, func(ctx context.Context, rt *runtime) error {
				kp, err := rt.cloud.FindOrGenerateKeyPair(ctx, accountID).Await(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "%s %s\n%s", kp.Name, kp.PublicFingerprint, kp.PublicKey)
				return nil
			})
		},
	})
	return cmd
}
