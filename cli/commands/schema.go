package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/worm-go/cli/internal/ui"
	"github.com/satishbabariya/worm-go/cli/internal/watch"
	"github.com/satishbabariya/worm-go/query/columns"
)

func newSchemaCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Work with the model file",
		Long: `Work with the model file.

This command provides subcommands for:
- Printing the table creation SQL
- Validating the model file
- Creating the tables in the database
- Rendering table documentation`,
	}

	cmd.AddCommand(newSchemaSQLCommand(a))
	cmd.AddCommand(newSchemaValidateCommand(a))
	cmd.AddCommand(newSchemaApplyCommand(a))
	cmd.AddCommand(newSchemaDocCommand(a))
	return cmd
}

func newSchemaSQLCommand(a *app) *cobra.Command {
	var (
		drop   bool
		follow bool
	)

	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Print the table creation SQL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !follow {
				return a.printSQL(out, drop)
			}
			return a.watchSQL(cmd.Context(), out, drop)
		},
	}

	cmd.Flags().BoolVar(&drop, "drop", false, "prefix every table with DROP TABLE")
	cmd.Flags().BoolVarP(&follow, "watch", "w", false, "print again whenever the model file changes")
	return cmd
}

func (a *app) printSQL(out io.Writer, drop bool) error {
	tables, err := a.tables()
	if err != nil {
		return err
	}

	for _, t := range tables {
		create, err := t.CreateSQL()
		if err != nil {
			return err
		}
		if drop {
			fmt.Fprintln(out, t.DropSQL())
		}
		fmt.Fprintf(out, "%s;\n", create)
	}
	return nil
}

func (a *app) watchSQL(ctx context.Context, out io.Writer, drop bool) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	w, err := watch.NewWatcher(a.cfg.SchemaPath, func() error {
		fmt.Fprintf(out, "-- %s\n", a.cfg.SchemaPath)
		return a.printSQL(out, drop)
	}, func(err error) {
		ui.PrintError("%v", err)
	})
	if err != nil {
		return err
	}

	ui.PrintInfo("Watching %s, press Ctrl+C to stop", a.cfg.SchemaPath)
	return w.Run(ctx)
}

func newSchemaValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the model file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := a.tables()
			if err != nil {
				return err
			}
			for _, t := range tables {
				if _, err := t.CreateSQL(); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid: %d table(s)\n", a.cfg.SchemaPath, len(tables))
			return nil
		},
	}
}

func newSchemaApplyCommand(a *app) *cobra.Command {
	var (
		force bool
		yes   bool
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create the tables in the database",
		Long: `Create a table for every model.

With --force existing tables are dropped first, which deletes their data.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := a.tables()
			if err != nil {
				return err
			}

			if force && !yes {
				confirmed := false
				prompt := &survey.Confirm{
					Message: fmt.Sprintf("Drop and recreate %d table(s)? All their data will be lost.", len(tables)),
				}
				if err := survey.AskOne(prompt, &confirmed); err != nil {
					return err
				}
				if !confirmed {
					ui.PrintWarning("Aborted")
					return nil
				}
			}

			return a.apply(cmd.Context(), cmd.OutOrStdout(), tables, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "drop existing tables before creating them")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func (a *app) apply(ctx context.Context, out io.Writer, tables []columns.Table, force bool) error {
	c, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer c.Disconnect(ctx)

	register := c.Register
	if force {
		register = c.ForceRegister
	}
	for _, t := range tables {
		if err := register(ctx, t); err != nil {
			return err
		}
		fmt.Fprintf(out, "created table %s\n", t.Name)
	}
	return nil
}

func newSchemaDocCommand(a *app) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "doc",
		Short: "Render table documentation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.readSchema()
			if err != nil {
				return err
			}
			md, err := s.Markdown()
			if err != nil {
				return err
			}
			if raw {
				_, err := io.WriteString(cmd.OutOrStdout(), md)
				return err
			}
			return ui.PrintMarkdown(md)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without rendering it")
	return cmd
}
