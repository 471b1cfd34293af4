package cli

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"k8s.io/klog/v2"

	"cloudsync-pg-backend/internal/config"
	"cloudsync-pg-backend/internal/infrastructure/repositories"
)

// Version is stamped at build time
var Version = "dev"

// globals carries what the root command resolved before a subcommand runs
type globals struct {
	cfg    *config.Config
	logger logr.Logger
}

// NewRootCmd returns the root cobra command for the syncctl CLI.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globals{logger: logr.Discard()}
	cmd := &cobra.Command{
		Use:           "syncctl",
		Short:         "Inspect and reconcile the cloud sync inventory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	addGlobalFlags(cmd.PersistentFlags())
	cmd.PersistentFlags().AddGoFlagSet(klogFlags)

	cmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd.Root().PersistentFlags())
		if err != nil {
			return err
		}
		verbosity := cfg.Log.Verbosity()
		if f := cmd.Root().PersistentFlags().Lookup("v"); f != nil && f.Changed {
			verbosity, _ = strconv.Atoi(f.Value.String())
		} else if err := klogFlags.Set("v", strconv.Itoa(verbosity)); err != nil {
			return err
		}
		stdr.SetVerbosity(verbosity)
		g.cfg = cfg
		g.logger = stdr.New(log.New(stderr, "", log.LstdFlags)).WithName("syncctl")
		return nil
	}

	cmd.AddCommand(newVersionCmd(stdout))
	cmd.AddCommand(newSchemaCmd(g, stdout))
	cmd.AddCommand(newServersCmd(g, stdout))
	cmd.AddCommand(newRefDataCmd(g, stdout))
	cmd.AddCommand(newKeysCmd(g, stdout))
	cmd.AddCommand(newTemplateCmd(g, stdout))

	return cmd
}

// Execute runs the CLI with the process stdio.
func Execute() int {
	defer klog.Flush()
	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func addGlobalFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to configuration file")
	fs.String("driver", "", "Storage driver: memory|postgres|sqlite (overrides config)")
	fs.Bool("memory", false, "Use in-memory storage")
	fs.String("pg-uri", "", "PostgreSQL connection URI (overrides config)")
	fs.String("sqlite-url", "", "SQLite database URL, e.g. sqlite:cloudsync.db (overrides config)")
	fs.Bool("migrate", false, "Apply the schema when opening the database")
	fs.String("log-level", "", "Log level: error|info|debug|trace (overrides config)")
}

// loadConfig reads the configuration and applies explicitly set flags on top
func loadConfig(fs *pflag.FlagSet) (*config.Config, error) {
	path, _ := fs.GetString("config")
	cfg, err := config.NewConfig(path)
	if err != nil {
		return nil, err
	}

	if fs.Changed("pg-uri") {
		cfg.Storage.PostgreSQL.URI, _ = fs.GetString("pg-uri")
		cfg.Storage.Type = repositories.RepositoryTypePostgreSQL
	}
	if fs.Changed("sqlite-url") {
		cfg.Storage.SQLite.URL, _ = fs.GetString("sqlite-url")
		cfg.Storage.Type = repositories.RepositoryTypeSQLite
	}
	if fs.Changed("driver") {
		driver, _ := fs.GetString("driver")
		cfg.Storage.Type = repositories.RepositoryType(driver)
	}
	if memory, _ := fs.GetBool("memory"); memory {
		cfg.Storage.Type = repositories.RepositoryTypeMemory
	}
	if migrate, _ := fs.GetBool("migrate"); migrate {
		cfg.Storage.Migrate = true
	}
	if fs.Changed("log-level") {
		cfg.Log.Level, _ = fs.GetString("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(stdout, Version)
		},
	}
}
