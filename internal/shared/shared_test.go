package shared

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	first := GenerateID()
	second := GenerateID()

	if first == "" {
		t.Fatal("generated ID should not be empty")
	}
	if first == second {
		t.Error("generated IDs should be unique")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	t.Run("ExpandsTilde", func(t *testing.T) {
		got := ExpandPath("~/music")
		if got != filepath.Join(home, "music") {
			t.Errorf("expected %s, got %s", filepath.Join(home, "music"), got)
		}
	})

	t.Run("LeavesAbsolutePaths", func(t *testing.T) {
		if got := ExpandPath("/var/music"); got != "/var/music" {
			t.Errorf("expected /var/music, got %s", got)
		}
	})

	t.Run("LeavesRelativePaths", func(t *testing.T) {
		if got := ExpandPath("downloads"); got != "downloads" {
			t.Errorf("expected downloads, got %s", got)
		}
	})

	t.Run("LeavesTildeUser", func(t *testing.T) {
		// ~otheruser expansion is not supported
		if got := ExpandPath("~other/music"); !strings.HasPrefix(got, "~other") {
			t.Errorf("expected ~other prefix preserved, got %s", got)
		}
	})
}
