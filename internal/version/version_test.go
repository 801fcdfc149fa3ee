package version

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildInfo(t *testing.T) {
	info := BuildInfo{
		Version:   "v1.2.0",
		GitCommit: "0123456789abcdef",
		BuildTime: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		GoVersion: "go1.24",
		Platform:  "linux/amd64",
	}
	assert.Equal(t, "v1.2.0 (0123456)", info.Short())
	assert.True(t, info.IsRelease())
	assert.Contains(t, info.Detailed(), "Built: 2026-01-02T03:04:05Z")
	assert.NotContains(t, info.Detailed(), "dirty")

	dev := BuildInfo{Version: "dev", GitCommit: "unknown"}
	assert.Equal(t, "dev", dev.Short())
	assert.False(t, dev.IsRelease())
	assert.NotContains(t, dev.Detailed(), "Commit")
}

func TestParseTime(t *testing.T) {
	assert.True(t, parseTime("unknown").IsZero())
	assert.True(t, parseTime("yesterday").IsZero())
	assert.Equal(t, 2026, parseTime("2026-10-18 12:00:00").Year())
}

func TestGet(t *testing.T) {
	info := Get()
	assert.NotEmpty(t, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}
