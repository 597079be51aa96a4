package commands

import (
	"context"
	"fmt"

	"github.com/spf13/afero"

	"github.com/satishbabariya/worm-go/cli/internal/config"
	"github.com/satishbabariya/worm-go/internal/schema"
	"github.com/satishbabariya/worm-go/query/columns"
	"github.com/satishbabariya/worm-go/runtime/client"
)

// readSchema parses the configured model file
func (a *app) readSchema() (*schema.Schema, error) {
	path := a.cfg.SchemaPath

	content, err := afero.ReadFile(config.AppFs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	s, err := schema.ParseString(path, string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}
	return s, nil
}

// tables parses the configured model file into table descriptors
func (a *app) tables() ([]columns.Table, error) {
	s, err := a.readSchema()
	if err != nil {
		return nil, err
	}
	return s.Tables()
}

// connect creates and connects a client for the configured database
func (a *app) connect(ctx context.Context) (*client.Client, error) {
	if a.cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("no database URL configured: set database_url, WORM_DATABASE_URL or DATABASE_URL")
	}

	c, err := client.New(a.cfg.Provider, a.cfg.DatabaseURL, a.cfg.ClientConfig())
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
