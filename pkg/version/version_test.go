package version

import (
	"encoding/json"
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubBuildInfo(t *testing.T, bi *debug.BuildInfo, ok bool) {
	t.Helper()
	orig := readBuildInfo
	t.Cleanup(func() { readBuildInfo = orig })
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, ok }
}

func stamp(t *testing.T, version, commit, buildTime string) {
	t.Helper()
	origVersion, origCommit, origTime := Version, GitCommit, BuildTime
	t.Cleanup(func() { Version, GitCommit, BuildTime = origVersion, origCommit, origTime })
	Version, GitCommit, BuildTime = version, commit, buildTime
}

func TestGet_NoBuildInfo(t *testing.T) {
	stubBuildInfo(t, nil, false)
	stamp(t, "dev", unknown, unknown)

	info := Get()
	assert.Equal(t, Info{Version: "dev", GitCommit: unknown, BuildTime: unknown, GoVersion: runtime.Version()}, info)
}

func TestGet_FallsBackToVCSSettings(t *testing.T) {
	stamp(t, "dev", unknown, unknown)
	stubBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "v0.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}, true)

	info := Get()
	assert.Equal(t, "v0.4.0", info.Version)
	assert.Equal(t, "0123456789abcdef", info.GitCommit)
	assert.Equal(t, "2026-01-02T03:04:05Z", info.BuildTime)
	assert.True(t, info.Modified)
}

func TestGet_StampedValuesWin(t *testing.T) {
	stamp(t, "0.3.0", "deadbeef", "2025-08-25T09:34:29Z")
	stubBuildInfo(t, &debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "cafebabe"}},
	}, true)

	info := Get()
	assert.Equal(t, "0.3.0", info.Version)
	assert.Equal(t, "deadbeef", info.GitCommit)
	assert.Equal(t, "2025-08-25T09:34:29Z", info.BuildTime)
	assert.False(t, info.Modified)
}

func TestInfo_String(t *testing.T) {
	info := Info{Version: "1.0.0", GitCommit: "abc123456789", GoVersion: "go1.25.1"}
	assert.Equal(t, "skillskit 1.0.0 (abc1234, go1.25.1)", info.String())

	info.Modified = true
	info.GitCommit = "abc"
	assert.Equal(t, "skillskit 1.0.0 (abc-dirty, go1.25.1)", info.String())
}

func TestInfo_JSON(t *testing.T) {
	info := Info{
		Version:   "1.0.0",
		GitCommit: "abc123",
		BuildTime: "2025-08-25T09:34:29Z",
		GoVersion: "go1.25.1",
	}

	out, err := info.JSON()
	require.NoError(t, err)

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, map[string]any{
		"version":   "1.0.0",
		"gitCommit": "abc123",
		"buildTime": "2025-08-25T09:34:29Z",
		"goVersion": "go1.25.1",
	}, parsed)
}
