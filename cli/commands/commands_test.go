package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-version"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/worm-go/cli/internal/config"
	"github.com/satishbabariya/worm-go/query/sqlgen"
)

const testSchema = `
/// People who write books
model Author {
  id   BigInt @id
  name String @unique
}
`

// setup swaps in a memory filesystem holding the model file and clears the
// environment the CLI reads
func setup(t *testing.T) afero.Fs {
	t.Helper()

	prev := config.AppFs
	config.AppFs = afero.NewMemMapFs()
	t.Cleanup(func() { config.AppFs = prev })

	for _, key := range []string{"DATABASE_URL", "WORM_DATABASE_URL", "WORM_PROVIDER", "WORM_SCHEMA_PATH", "WORM_DEBUG"} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}

	require.NoError(t, afero.WriteFile(config.AppFs, "/project/schema.worm", []byte(testSchema), 0644))
	return config.AppFs
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestSchemaSQLCommand(t *testing.T) {
	setup(t)

	out, err := run(t, "schema", "sql", "--schema", "/project/schema.worm")
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE author (id INT8 PRIMARY KEY, name TEXT UNIQUE NOT NULL);\n", out)

	out, err = run(t, "schema", "sql", "--drop", "-s", "/project/schema.worm")
	require.NoError(t, err)
	assert.Equal(t, "DROP TABLE IF EXISTS author CASCADE; \nCREATE TABLE author (id INT8 PRIMARY KEY, name TEXT UNIQUE NOT NULL);\n", out)
}

func TestSchemaSQLCommandUsesConfiguredPath(t *testing.T) {
	fs := setup(t)
	require.NoError(t, afero.WriteFile(fs, "/project/.worm.yaml", []byte("schema_path: /project/schema.worm\n"), 0644))

	out, err := run(t, "--config", "/project/.worm.yaml", "schema", "sql")
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE author")
}

func TestSchemaValidateCommand(t *testing.T) {
	fs := setup(t)

	out, err := run(t, "schema", "validate", "-s", "/project/schema.worm")
	require.NoError(t, err)
	assert.Equal(t, "/project/schema.worm is valid: 1 table(s)\n", out)

	require.NoError(t, afero.WriteFile(fs, "/project/bad.worm", []byte("model A { id Money }"), 0644))
	_, err = run(t, "schema", "validate", "-s", "/project/bad.worm")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type Money")

	_, err = run(t, "schema", "validate", "-s", "/project/missing.worm")
	assert.Error(t, err)
}

func TestSchemaDocCommand(t *testing.T) {
	setup(t)

	out, err := run(t, "schema", "doc", "--raw", "-s", "/project/schema.worm")
	require.NoError(t, err)
	assert.Contains(t, out, "## author")
	assert.Contains(t, out, "People who write books")
}

func TestQueryCommandPrintsSQL(t *testing.T) {
	setup(t)

	out, err := run(t, "query", "book",
		"--columns", "id,title",
		"--where", "price < ?", "--arg", "10",
		"--limit", "5",
		"--sql")
	require.NoError(t, err)
	assert.Equal(t, "SELECT book.id, book.title FROM book WHERE (price < $1) LIMIT 5\n-- args: [10]\n", out)

	out, err = run(t, "query", "book", "--provider", "mysql", "--where", "id = $1", "--arg", "3", "--offset", "2", "--sql")
	require.NoError(t, err)
	assert.Equal(t, "SELECT * FROM book WHERE (id = ?) OFFSET 2\n-- args: [3]\n", out)
}

func TestQueryCommandRejectsBadFragment(t *testing.T) {
	setup(t)

	_, err := run(t, "query", "book", "--where", "id = ?", "--sql")
	assert.ErrorIs(t, err, sqlgen.ErrPlaceholder)

	_, err = run(t, "query", "book", "--where", "id = $99999999999999999999", "--arg", "1", "--sql")
	assert.ErrorIs(t, err, sqlgen.ErrPlaceholder)

	_, err = run(t, "query", "book", "--where", "title = 'open", "--sql")
	assert.ErrorIs(t, err, sqlgen.ErrPlaceholder)
}

func TestCommandsNeedDatabaseURL(t *testing.T) {
	setup(t)

	_, err := run(t, "ping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no database URL configured")
}

func TestApplyQueryAndPingAgainstSQLite(t *testing.T) {
	setup(t)
	dsn := filepath.Join(t.TempDir(), "worm.db")
	common := []string{"--provider", "sqlite", "--database-url", dsn, "-s", "/project/schema.worm"}

	out, err := run(t, append([]string{"schema", "apply"}, common...)...)
	require.NoError(t, err)
	assert.Equal(t, "created table author\n", out)

	// the table exists now
	_, err = run(t, append([]string{"schema", "apply"}, common...)...)
	assert.Error(t, err)

	_, err = run(t, append([]string{"query", "author", "--stats"}, common...)...)
	require.NoError(t, err)

	_, err = run(t, append([]string{"ping"}, common...)...)
	require.NoError(t, err)
}

func TestInitCommand(t *testing.T) {
	fs := setup(t)

	out, err := run(t, "init", "/app")
	require.NoError(t, err)
	assert.Contains(t, out, "created /app/schema.worm")
	assert.Contains(t, out, "created /app/.worm.yaml")

	schema, err := afero.ReadFile(fs, "/app/schema.worm")
	require.NoError(t, err)
	assert.Contains(t, string(schema), "model Book")

	cfg, err := afero.ReadFile(fs, "/app/.worm.yaml")
	require.NoError(t, err)
	assert.Contains(t, string(cfg), "schema_path: schema.worm")

	// a second run keeps the existing model file
	out, err = run(t, "init", "/app")
	require.NoError(t, err)
	assert.NotContains(t, out, "created /app/schema.worm")
}

func TestVersionCommand(t *testing.T) {
	setup(t)

	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "worm version")
}

func TestCheckServerVersion(t *testing.T) {
	tests := []struct {
		dialect sqlgen.Dialect
		version string
		want    bool
	}{
		{sqlgen.Postgres, "16.2", true},
		{sqlgen.Postgres, "12.9", false},
		{sqlgen.MySQL, "8.0.36", true},
		{sqlgen.MySQL, "5.7.44", false},
		{sqlgen.SQLite, "3.45.1", true},
		{sqlgen.SQLite, "3.31.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.dialect.String()+" "+tt.version, func(t *testing.T) {
			ok, _, err := checkServerVersion(tt.dialect, version.Must(version.NewVersion(tt.version)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}
