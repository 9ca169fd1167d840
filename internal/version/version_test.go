package version

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetInfoUsesLinkerValues(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = origVersion, origCommit, origDate })

	Version, Commit, Date = "1.2.0", "abc123def456", "2026-01-01T12:00:00Z"

	info := GetInfo()
	assert.Equal(t, "1.2.0", info.Version)
	assert.Equal(t, "abc123def456", info.Commit)
	assert.Equal(t, "2026-01-01T12:00:00Z", info.Date)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestWithBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Main: debug.Module{Version: "v1.3.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-02-03T04:05:06Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}

	tests := []struct {
		name string
		in   Info
		want Info
	}{
		{
			name: "fills unset values",
			in:   Info{Version: "dev", Commit: "unknown", Date: "unknown"},
			want: Info{Version: "v1.3.0", Commit: "0123456789abcdef", Date: "2026-02-03T04:05:06Z", Modified: true},
		},
		{
			name: "linker values win",
			in:   Info{Version: "1.2.0", Commit: "feedface", Date: "2026-01-01"},
			want: Info{Version: "1.2.0", Commit: "feedface", Date: "2026-01-01", Modified: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.in.withBuildInfo(bi))
		})
	}

	devel := &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}
	assert.Equal(t, "dev", Info{Version: "dev"}.withBuildInfo(devel).Version)
}

func TestInfoString(t *testing.T) {
	info := Info{
		Version:   "1.2.0",
		Commit:    "abc123def456",
		Date:      "2026-01-01",
		GoVersion: "go1.24.6",
		Platform:  "linux/amd64",
	}
	assert.Equal(t, "republic 1.2.0 (abc123de) built 2026-01-01 with go1.24.6 for linux/amd64", info.String())

	info.Commit, info.Modified = "abc", true
	assert.Contains(t, info.String(), "(abc+dirty)")
}

func TestUserAgent(t *testing.T) {
	info := Info{Version: "1.2.0", Platform: "darwin/arm64"}
	assert.Equal(t, "republic/1.2.0 (darwin/arm64)", info.UserAgent())
	assert.Equal(t, "1.2.0", info.Short())
}
