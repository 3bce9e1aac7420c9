package input

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"
	"time"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/plugin"
)

// installPlugin writes a hotkey plugin whose executable runs script.
func installPlugin(t *testing.T, script string) *plugin.Manager {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	root := t.TempDir()
	dir := filepath.Join(root, "keys")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	manifest, _ := json.Marshal(plugin.Manifest{
		Name:       "keys",
		Version:    "0.1.0",
		Executable: "run.sh",
		Actions:    []string{plugin.HotkeyAction},
	})
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), manifest, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatal(err)
	}

	mgr := plugin.NewManager(root)
	if err := mgr.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	return mgr
}

func TestPluginHotkeys_Success(t *testing.T) {
	mgr := installPlugin(t, "cat > /dev/null\necho '{\"success\":true}'\n")
	rec := NewRecorder()

	sink, err := NewPluginHotkeys(rec, mgr, plugin.NewExecutor(5*time.Second), discardLogger())
	if err != nil {
		t.Fatalf("NewPluginHotkeys() error = %v", err)
	}

	if err := sink.Hotkey("win", "tab"); err != nil {
		t.Fatalf("Hotkey() error = %v", err)
	}
	if err := sink.Click(); err != nil {
		t.Fatalf("Click() error = %v", err)
	}

	// The hotkey went to the plugin; only the click reached the wrapped sink.
	if got := rec.Actions(); !reflect.DeepEqual(got, []control.Action{control.Click()}) {
		t.Errorf("wrapped sink actions = %v", got)
	}
}

func TestPluginHotkeys_FallbackOnRefusal(t *testing.T) {
	mgr := installPlugin(t, "cat > /dev/null\necho '{\"success\":false,\"error\":\"no xdotool\"}'\n")
	rec := NewRecorder()

	sink, err := NewPluginHotkeys(rec, mgr, plugin.NewExecutor(5*time.Second), discardLogger())
	if err != nil {
		t.Fatalf("NewPluginHotkeys() error = %v", err)
	}

	if err := sink.Hotkey("win", "d"); err != nil {
		t.Fatalf("Hotkey() error = %v", err)
	}
	want := []control.Action{control.Hotkey("win", "d")}
	if got := rec.Actions(); !reflect.DeepEqual(got, want) {
		t.Errorf("fallback actions = %v, want %v", got, want)
	}
}

func TestPluginHotkeys_FallbackError(t *testing.T) {
	mgr := installPlugin(t, "exit 3\n")
	rec := NewRecorder()
	rec.FailOn(control.ActionHotkey, ErrFailSafe)

	sink, err := NewPluginHotkeys(rec, mgr, plugin.NewExecutor(5*time.Second), discardLogger())
	if err != nil {
		t.Fatalf("NewPluginHotkeys() error = %v", err)
	}
	if err := sink.Hotkey("win", "d"); !errors.Is(err, ErrFailSafe) {
		t.Errorf("expected fallback error, got %v", err)
	}
}

func TestNewPluginHotkeys_NoPlugin(t *testing.T) {
	mgr := plugin.NewManager(t.TempDir())
	_, err := NewPluginHotkeys(NewRecorder(), mgr, plugin.NewExecutor(time.Second), discardLogger())
	if !errors.Is(err, plugin.ErrPluginNotFound) {
		t.Errorf("expected ErrPluginNotFound, got %v", err)
	}
}
