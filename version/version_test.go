package version

import "testing"

func TestGetFullVersion(t *testing.T) {
	defer func(v, c, d string) { Version, GitCommit, BuildDate = v, c, d }(Version, GitCommit, BuildDate)

	if got := GetFullVersion(); got != "dev" {
		t.Errorf("expected dev, got %s", got)
	}

	Version, GitCommit, BuildDate = "1.2.0", "abc1234", "2026-10-01"
	want := "1.2.0 (commit abc1234, built 2026-10-01)"
	if got := GetFullVersion(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	if got := GetVersion(); got != "1.2.0" {
		t.Errorf("expected 1.2.0, got %s", got)
	}
}
