package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/worm-go/cli/internal/ui"
	"github.com/satishbabariya/worm-go/query/builder"
	"github.com/satishbabariya/worm-go/query/columns"
	"github.com/satishbabariya/worm-go/query/executor"
	"github.com/satishbabariya/worm-go/query/sqlgen"
	"github.com/satishbabariya/worm-go/telemetry"
)

type queryOptions struct {
	columns []string
	where   string
	args    []string
	limit   int
	offset  int
	sqlOnly bool
	stats   bool
}

func newQueryCommand(a *app) *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "query <table>",
		Short: "Select rows from a table",
		Long: `Select rows from a table and print them.

The --where condition is a raw SQL fragment. Use ? or $1, $2, ... as
placeholders and pass one --arg per placeholder.`,
		Example: `  worm query book --columns id,title --where "price < ?" --arg 10 --limit 5
  worm query book --sql`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runQuery(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	flags := cmd.Flags()
	flags.StringSliceVarP(&opts.columns, "columns", "c", nil, "columns to select (default all)")
	flags.StringVarP(&opts.where, "where", "w", "", "raw WHERE condition")
	flags.StringArrayVar(&opts.args, "arg", nil, "placeholder argument, repeatable")
	flags.IntVarP(&opts.limit, "limit", "l", -1, "maximum number of rows")
	flags.IntVar(&opts.offset, "offset", -1, "number of rows to skip")
	flags.BoolVar(&opts.sqlOnly, "sql", false, "print the statement without running it")
	flags.BoolVar(&opts.stats, "stats", false, "print statement timings")
	return cmd
}

func (o *queryOptions) selectBuilder(table string) builder.SelectBuilder {
	cols := make([]columns.Columnar, 0, len(o.columns))
	for _, name := range o.columns {
		cols = append(cols, columns.NewColumn(table, strings.TrimSpace(name)))
	}

	s := builder.Select(table, cols...)
	if o.where != "" {
		args := make([]interface{}, len(o.args))
		for i, arg := range o.args {
			args[i] = arg
		}
		s = s.WhereRaw(o.where, args...)
	}
	if o.limit >= 0 {
		s = s.Limit(o.limit)
	}
	if o.offset >= 0 {
		s = s.Offset(o.offset)
	}
	return s
}

func (a *app) runQuery(ctx context.Context, out io.Writer, table string, opts *queryOptions) error {
	dialect, err := sqlgen.DialectFor(a.cfg.Provider)
	if err != nil {
		return err
	}

	q, err := opts.selectBuilder(table).Build(dialect)
	if err != nil {
		return err
	}

	if opts.sqlOnly {
		fmt.Fprintln(out, q.SQL)
		if len(q.Args) > 0 {
			fmt.Fprintf(out, "-- args: %v\n", q.Args)
		}
		return nil
	}

	c, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer c.Disconnect(ctx)

	collector := telemetry.NewCollector()
	c.Use(collector.Middleware())

	headers, rows, err := fetchTable(ctx, c, q)
	if err != nil {
		return err
	}

	if err := ui.PrintTable(headers, rows); err != nil {
		return err
	}
	ui.PrintInfo("%d row(s)", len(rows))

	if opts.stats {
		printStatementStats(collector.Statements())
	}
	return nil
}

// fetchTable runs q and formats every value as text
func fetchTable(ctx context.Context, conn executor.Conn, q sqlgen.Query) ([]string, [][]string, error) {
	rows, err := conn.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, nil, &executor.ProtocolError{SQL: q.SQL, Err: err}
	}
	defer rows.Close()

	headers, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		values := make([]interface{}, len(headers))
		dest := make([]interface{}, len(headers))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, nil, fmt.Errorf("%w %d: %w", executor.ErrDecode, len(out), err)
		}

		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, &executor.ProtocolError{SQL: q.SQL, Err: err}
	}
	return headers, out, nil
}

func formatValue(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ui.Null()
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

func printStatementStats(stats []telemetry.StatementStats) {
	rows := make([][]string, len(stats))
	for i, s := range stats {
		rows[i] = []string{
			s.SQL,
			fmt.Sprint(s.Calls),
			fmt.Sprint(s.Errors),
			s.Mean().String(),
			s.MaxDuration.String(),
		}
	}
	_ = ui.PrintTable([]string{"Statement", "Calls", "Errors", "Mean", "Max"}, rows)
}
