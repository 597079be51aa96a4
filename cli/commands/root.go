// Package commands implements the worm CLI.
package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/satishbabariya/worm-go/cli/internal/config"
	"github.com/satishbabariya/worm-go/cli/internal/version"
	"github.com/satishbabariya/worm-go/internal/debug"
)

// app carries the configuration shared by all commands
type app struct {
	v          *viper.Viper
	configFile string
	cfg        *config.Config
}

// Execute is the main entry point for the CLI
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand creates the root command with every subcommand attached
func NewRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "worm",
		Short: "Query construction and schema tooling for worm",
		Long: `worm turns model files into tables and runs ad-hoc queries
through the same statement builders used by the Go library.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default is .worm.yaml)")
	flags.Bool("debug", false, "enable debug logging")
	flags.String("database-url", "", "database connection string")
	flags.String("provider", "", "database provider: postgres, mysql or sqlite")
	flags.StringP("schema", "s", "", "path to the model file")

	_ = a.v.BindPFlag("debug", flags.Lookup("debug"))
	_ = a.v.BindPFlag("database_url", flags.Lookup("database-url"))
	_ = a.v.BindPFlag("provider", flags.Lookup("provider"))
	_ = a.v.BindPFlag("schema_path", flags.Lookup("schema"))

	root.AddCommand(newInitCommand(a))
	root.AddCommand(newSchemaCommand(a))
	root.AddCommand(newQueryCommand(a))
	root.AddCommand(newPingCommand(a))
	root.AddCommand(newVersionCommand())

	return root
}

func (a *app) load() error {
	cfg, err := config.LoadConfig(a.v, a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if cfg.Debug {
		debug.Init(true)
		debug.Debug("configuration loaded", "provider", cfg.Provider, "schema", cfg.SchemaPath)
	}
	return nil
}
