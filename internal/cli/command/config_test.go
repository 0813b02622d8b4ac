package command

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/pgpauth-go/internal/cli/config"
)

func writeProfile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cli.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConfigShow_Defaults(t *testing.T) {
	out, err := runCLI(t, "-o", "json", "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}

	var view profileView
	decodeJSON(t, out, &view)
	if view.Timeout != "30s" || view.Output != "json" {
		t.Errorf("view = %+v", view)
	}
}

func TestConfigShow_Table(t *testing.T) {
	path := writeProfile(t, "server: https://api.example.net\n")

	out, err := runCLIWithConfig(t, path, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	if !strings.Contains(out, "server") || !strings.Contains(out, "https://api.example.net") {
		t.Errorf("table output = %q", out)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cli.yaml")

	out, err := runCLIWithConfig(t, path,
		"--server", "https://api.example.net", "--key-id", "A3D652173B763E8F", "config", "init")
	if err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("stdout = %q, want path", out)
	}

	saved, err := config.Load(path)
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	if saved.Server != "https://api.example.net" || saved.GPG.KeyID != "A3D652173B763E8F" {
		t.Errorf("saved = %+v", saved)
	}

	// The saved profile now supplies the defaults.
	out, err = runCLIWithConfig(t, path, "-o", "json", "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	var view profileView
	decodeJSON(t, out, &view)
	if view.KeyID != "A3D652173B763E8F" {
		t.Errorf("KeyID = %q", view.KeyID)
	}

	if _, err := runCLIWithConfig(t, path, "config", "init"); err == nil {
		t.Error("config init over an existing file should fail without --force")
	}
	if _, err := runCLIWithConfig(t, path, "--server", "https://other", "config", "init", "--force"); err != nil {
		t.Errorf("config init --force error = %v", err)
	}
	saved, _ = config.Load(path)
	if saved.Server != "https://other" {
		t.Errorf("Server after --force = %q", saved.Server)
	}
}
