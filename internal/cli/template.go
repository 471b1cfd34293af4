package cli

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"cloudsync-pg-backend/internal/views"
)

func newTemplateCmd(g *globals, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Locate plugin templates",
	}
	var locate bool
	resolve := &cobra.Command{
		Use:   "resolve NAME",
		Short: "Print a template resolved from the templates directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t := g.cfg.Templates
			resolver := views.NewResolver(views.NewFSLoader(os.DirFS(t.Dir)),
				views.WithPrefix(t.Prefix), views.WithSuffix(t.Suffix))
			if locate {
				_, err := io.WriteString(stdout, resolver.Location(args[0])+"\n")
				return err
			}
			src, err := resolver.Resolve(args[0])
			if err != nil {
				return err
			}
			defer src.Close()
			_, err = io.Copy(stdout, src)
			return err
		},
	}
	resolve.Flags().BoolVar(&locate, "location", false, "Print the computed location only")
	cmd.AddCommand(resolve)
	return cmd
}
