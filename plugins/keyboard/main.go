// Package main provides a keyboard plugin that presses key combinations.
// It uses AppleScript on macOS and xdotool elsewhere.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Params  json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// HotkeyParams lists the keys of one combination, modifiers first.
type HotkeyParams struct {
	Keys []string `json:"keys"`
}

var errNoKeys = errors.New("at least one key is required")

// appleModifiers maps modifier names to AppleScript "using" clauses.
var appleModifiers = map[string]string{
	"win":     "command down",
	"cmd":     "command down",
	"command": "command down",
	"alt":     "option down",
	"option":  "option down",
	"ctrl":    "control down",
	"control": "control down",
	"shift":   "shift down",
}

// appleKeyCodes maps named keys that keystroke cannot type.
var appleKeyCodes = map[string]int{
	"tab":    48,
	"enter":  36,
	"return": 36,
	"space":  49,
	"esc":    53,
	"escape": 53,
	"left":   123,
	"right":  124,
	"down":   125,
	"up":     126,
}

// xdotoolNames maps key names to X keysyms.
var xdotoolNames = map[string]string{
	"win":     "super",
	"cmd":     "super",
	"command": "super",
	"ctrl":    "ctrl",
	"control": "ctrl",
	"alt":     "alt",
	"option":  "alt",
	"shift":   "shift",
	"tab":     "Tab",
	"enter":   "Return",
	"return":  "Return",
	"space":   "space",
	"esc":     "Escape",
	"escape":  "Escape",
	"left":    "Left",
	"right":   "Right",
	"up":      "Up",
	"down":    "Down",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	switch req.Action {
	case "hotkey":
		if err := handleHotkey(req.Params); err != nil {
			writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
			return
		}
	default:
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	writeSuccessResponse()
}

func handleHotkey(params json.RawMessage) error {
	var p HotkeyParams
	if err := json.Unmarshal(params, &p); err != nil {
		return fmt.Errorf("failed to parse params: %w", err)
	}
	if len(p.Keys) == 0 {
		return errNoKeys
	}

	if runtime.GOOS == "darwin" {
		return run("osascript", "-e", appleScript(p.Keys))
	}
	return run("xdotool", "key", xdotoolCombo(p.Keys))
}

// appleScript builds a System Events command for keys; the last key is
// the one pressed, the others are held as modifiers.
func appleScript(keys []string) string {
	key := strings.ToLower(keys[len(keys)-1])

	var mods []string
	for _, m := range keys[:len(keys)-1] {
		if clause, ok := appleModifiers[strings.ToLower(m)]; ok {
			mods = append(mods, clause)
		}
	}

	press := fmt.Sprintf("keystroke %q", key)
	if code, ok := appleKeyCodes[key]; ok {
		press = fmt.Sprintf("key code %d", code)
	}
	if len(mods) == 0 {
		return `tell application "System Events" to ` + press
	}
	return fmt.Sprintf(`tell application "System Events" to %s using {%s}`, press, strings.Join(mods, ", "))
}

// xdotoolCombo joins keys into an xdotool key spec such as "super+Tab".
func xdotoolCombo(keys []string) string {
	names := make([]string, len(keys))
	for i, k := range keys {
		if name, ok := xdotoolNames[strings.ToLower(k)]; ok {
			names[i] = name
		} else {
			names[i] = k
		}
	}
	return strings.Join(names, "+")
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, string(output))
	}
	return nil
}
