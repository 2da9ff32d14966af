// Package main implements am3db, the command line front end of the reaction
// database. It manages reviewers, imports and generates reactions from a
// static toolkit file, and records reviews on stored reactions.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│                am3db                     │
//	├─────────────────────────────────────────┤
//	│  Commands:                              │
//	│    user add|show  - Reviewer directory  │
//	│    shards         - Locate shard files  │
//	│    next-index     - Peek allocator      │
//	│    import         - Save toolkit file   │
//	│    generate       - Sample training set │
//	│    show           - Print a record      │
//	│    approve|reject - Review a record     │
//	│    stats          - Catalog summary     │
//	├─────────────────────────────────────────┤
//	│  <root>/reactions/<family>_<n>.yml      │
//	│  <root>/users.yml                       │
//	└─────────────────────────────────────────┘
//
// Configuration:
//   - --config: optional YAML file (root, log_level, lock_shards, atomic_writes)
//   - AM3DB_ROOT, AM3DB_LOG_LEVEL, AM3DB_LOCK_SHARDS, AM3DB_ATOMIC_WRITES
//   - --root and --log-level override both
//
// Example usage:
//
//	am3db user add alice --status admin
//	am3db import reactions.yml
//	am3db reject H_Abstraction 12 --user alice --reason "wrong TS"
//	am3db stats
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dreamware/am3db/internal/config"
	"github.com/dreamware/am3db/internal/database"
	"github.com/dreamware/am3db/internal/logging"
)

// app carries the state shared by all subcommands. It is filled in by the
// root command's PersistentPreRunE.
type app struct {
	configPath string
	root       string
	logLevel   string
	logOut     io.Writer

	cfg    config.Config
	logger *zap.Logger
	db     *database.DB
}

func main() {
	if err := newRootCmd(os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Log output goes to logOut.
func newRootCmd(logOut io.Writer) *cobra.Command {
	a := &app{logOut: logOut}

	root := &cobra.Command{
		Use:   "am3db",
		Short: "Curate a sharded database of atom-mapped reactions",
		Long: `am3db stores reactions as YAML records sharded by family, 500 per file,
and tracks approvals and rejections by registered reviewers.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a YAML config file")
	flags.StringVar(&a.root, "root", "", "database root directory")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		a.userCmd(),
		a.shardsCmd(),
		a.nextIndexCmd(),
		a.importCmd(),
		a.generateCmd(),
		a.showCmd(),
		a.approveCmd(),
		a.rejectCmd(),
		a.statsCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("root") {
		cfg.Root = a.root
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg
	a.logger = logging.New(cfg.LogLevel, a.logOut)
	a.db = database.Open(cfg.Root, cfg.StorageOptions(), a.logger)
	a.logger.Debug("opened database",
		zap.String("reactions", cfg.ReactionsDir()),
		zap.String("users", cfg.UsersFile()),
		zap.Bool("lock_shards", cfg.LockShards),
		zap.Bool("atomic_writes", cfg.AtomicWrites))
	return nil
}

func (a *app) printf(cmd *cobra.Command, format string, args ...interface{}) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
