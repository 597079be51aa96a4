package client

import (
	"context"
	"fmt"

	"github.com/satishbabariya/worm-go/query/columns"
)

// Register creates a table for every descriptor. It fails if a table
// already exists.
func (c *Client) Register(ctx context.Context, tables ...columns.Table) error {
	return c.register(ctx, false, tables)
}

// ForceRegister drops and recreates every table.
func (c *Client) ForceRegister(ctx context.Context, tables ...columns.Table) error {
	return c.register(ctx, true, tables)
}

func (c *Client) register(ctx context.Context, force bool, tables []columns.Table) error {
	// DDL is executed once; preparing it would only fill the cache.
	exec := c.executor(poolConn{c: c})

	for _, table := range tables {
		create, err := table.CreateSQL()
		if err != nil {
			return fmt.Errorf("table %s: %w", table.Name, err)
		}

		if force {
			if _, err := exec.Exec(ctx, table.DropSQL()); err != nil {
				return fmt.Errorf("failed to drop table %s: %w", table.Name, err)
			}
		}
		if _, err := exec.Exec(ctx, create); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.Name, err)
		}
	}
	return nil
}
