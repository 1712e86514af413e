package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	info := Info()
	if !strings.Contains(info, Version) {
		t.Errorf("Info() should contain version %q: %s", Version, info)
	}
	if !strings.Contains(info, GitCommit) {
		t.Errorf("Info() should contain commit %q: %s", GitCommit, info)
	}
}
