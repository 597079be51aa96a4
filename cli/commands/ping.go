package commands

import (
	"fmt"

	"github.com/hashicorp/go-version"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/worm-go/cli/internal/ui"
	"github.com/satishbabariya/worm-go/query/sqlgen"
)

// minimumServerVersions are the oldest server versions the generated SQL
// is known to run on
var minimumServerVersions = map[sqlgen.Dialect]string{
	sqlgen.Postgres: ">= 13",
	sqlgen.MySQL:    ">= 8.0",
	sqlgen.SQLite:   ">= 3.35",
}

func newPingCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check the database connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			spinner, _ := ui.PrintSpinner("Connecting to database...")
			c, err := a.connect(ctx)
			if spinner != nil {
				_ = spinner.Stop()
			}
			if err != nil {
				return err
			}
			defer c.Disconnect(ctx)

			if err := c.HealthCheck(ctx); err != nil {
				return err
			}

			v, err := c.ServerVersion(ctx)
			if err != nil {
				return err
			}

			stats, err := c.Stats()
			if err != nil {
				return err
			}

			ui.PrintSuccess("Connected")
			ui.PrintKeyValue("Provider", c.Provider())
			ui.PrintKeyValue("Server version", v)
			ui.PrintKeyValue("Open connections", stats.OpenConnections)
			ui.PrintKeyValue("Max connections", stats.MaxOpenConnections)

			supported, constraint, err := checkServerVersion(c.Dialect(), v)
			if err != nil {
				return err
			}
			if !supported {
				ui.PrintWarning("Server version %s does not satisfy %s", v, constraint)
			}
			return nil
		},
	}
}

// checkServerVersion reports whether v satisfies the minimum version of
// the dialect
func checkServerVersion(d sqlgen.Dialect, v *version.Version) (bool, string, error) {
	raw, ok := minimumServerVersions[d]
	if !ok {
		return true, "", nil
	}
	constraints, err := version.NewConstraint(raw)
	if err != nil {
		return false, raw, fmt.Errorf("invalid version constraint %q: %w", raw, err)
	}
	return constraints.Check(v), raw, nil
}
