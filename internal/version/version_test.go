package version

import (
	"runtime/debug"
	"testing"
)

func TestShortCommit(t *testing.T) {
	t.Parallel()

	if got := shortCommit("0123456789abcdef"); got != "0123456789ab" {
		t.Fatalf("shortCommit: got %q", got)
	}
	if got := shortCommit("abc"); got != "abc" {
		t.Fatalf("shortCommit short: got %q", got)
	}
}

func TestResolveNeverEmpty(t *testing.T) {
	t.Parallel()

	info := Resolve()
	if info.Version == "" || info.GoVersion == "" {
		t.Fatalf("Resolve left fields empty: %+v", info)
	}
	if String() == "" {
		t.Fatal("String returned empty version")
	}
}

func TestFromBuildInfo(t *testing.T) {
	t.Parallel()

	bi := &debug.BuildInfo{
		GoVersion: "go1.26.0",
		Main:      debug.Module{Version: "v0.3.1"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef0123"},
			{Key: "vcs.time", Value: "2026-10-01T12:00:00Z"},
			{Key: "vcs.modified", Value: "true"},
		},
	}
	var info Info
	fromBuildInfo(&info, bi)

	if info.Version != "v0.3.1" || info.BuildTime != "2026-10-01T12:00:00Z" || !info.Dirty {
		t.Fatalf("unexpected info: %+v", info)
	}
	if got, want := info.String(), "v0.3.1 (0123456789ab-dirty)"; got != want {
		t.Fatalf("String: got %q want %q", got, want)
	}
}

func TestFromBuildInfoKeepsLdflags(t *testing.T) {
	t.Parallel()

	info := Info{Version: "v1.0.0", Commit: "cafebabe"}
	fromBuildInfo(&info, &debug.BuildInfo{
		Main:     debug.Module{Version: "(devel)"},
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "deadbeef"}},
	})
	if info.Version != "v1.0.0" || info.Commit != "cafebabe" {
		t.Fatalf("ldflags values overwritten: %+v", info)
	}
}
