package input

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ayusman/mudra/internal/plugin"
)

// PluginHotkeys routes Hotkey calls to an external keyboard plugin and
// passes every other action to the wrapped Sink. When the plugin fails the
// combination is sent through the wrapped Sink instead.
type PluginHotkeys struct {
	Sink
	executor *plugin.Executor
	plugin   *plugin.Plugin
	logger   *slog.Logger
}

// NewPluginHotkeys wraps next, using the first discovered plugin that
// handles the hotkey action. Returns plugin.ErrPluginNotFound if there is none.
func NewPluginHotkeys(next Sink, manager *plugin.Manager, executor *plugin.Executor, logger *slog.Logger) (*PluginHotkeys, error) {
	p, err := manager.Find(plugin.HotkeyAction)
	if err != nil {
		return nil, fmt.Errorf("hotkey plugin in %s: %w", manager.PluginDir(), err)
	}
	logger.Info("using hotkey plugin", "name", p.Manifest.Name, "version", p.Manifest.Version)
	return &PluginHotkeys{Sink: next, executor: executor, plugin: p, logger: logger}, nil
}

// Hotkey sends keys to the plugin, falling back to the wrapped Sink.
func (h *PluginHotkeys) Hotkey(keys ...string) error {
	err := h.run(keys)
	if err == nil {
		return nil
	}
	h.logger.Warn("hotkey plugin failed, using fallback", "plugin", h.plugin.Manifest.Name, "error", err)
	return h.Sink.Hotkey(keys...)
}

func (h *PluginHotkeys) run(keys []string) error {
	params, err := json.Marshal(plugin.HotkeyParams{Keys: keys})
	if err != nil {
		return err
	}

	resp, err := h.executor.Execute(context.Background(), h.plugin, &plugin.Request{
		Action: plugin.HotkeyAction,
		Params: params,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		if resp.Error == "" {
			return errors.New("plugin reported failure")
		}
		return errors.New(resp.Error)
	}
	return nil
}
