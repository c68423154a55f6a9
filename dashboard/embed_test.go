package dashboard

import (
	"io/fs"
	"strings"
	"testing"
)

func TestStatic_ServesIndexAtRoot(t *testing.T) {
	content, err := fs.ReadFile(Static(), "index.html")
	if err != nil {
		t.Fatalf("index.html missing from embedded assets: %v", err)
	}

	page := string(content)
	if !strings.Contains(page, "{{.Title}}") {
		t.Error("index.html should carry the title placeholder")
	}
	for _, route := range []string{"/board/events", "/board/status", "/board/visibility", "/board/panels/jobs"} {
		if !strings.Contains(page, route) {
			t.Errorf("index.html should use %s", route)
		}
	}
}
