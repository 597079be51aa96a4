package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemver(t *testing.T) {
	v, err := Info{Version: "v1.2.3-rc.1"}.Semver()
	require.NoError(t, err)
	assert.Equal(t, "1.2.3-rc.1", v.String())

	_, err = Info{Version: "dev build"}.Semver()
	assert.Error(t, err)
}

func TestFullString(t *testing.T) {
	info := Info{
		Version:   "1.0.0-beta",
		BuildDate: "2024-01-02",
		GitCommit: "abc123",
		Modified:  true,
		GoVersion: "go1.24.1",
		Platform:  "linux/amd64",
	}

	assert.Equal(t, "worm version 1.0.0-beta\n"+
		"Pre-release: beta\n"+
		"Build Date: 2024-01-02\n"+
		"Git Commit: abc123 (modified)\n"+
		"Platform: linux/amd64\n"+
		"Go Version: go1.24.1", info.FullString())
	assert.Equal(t, "worm version 1.0.0-beta (linux/amd64 go1.24.1)", info.String())
}

func TestGetFallsBackToDefaults(t *testing.T) {
	info := Get()
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GitCommit)
	assert.NotEmpty(t, info.Platform)
}
