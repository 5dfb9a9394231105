package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnsupportedAction is returned when the hooked plugin does not list the
// configured action.
var ErrUnsupportedAction = errors.New("action not supported by plugin")

// Hook runs one configured plugin action for every activation.
type Hook struct {
	manager  *Manager
	executor *Executor
	plugin   string
	action   string
}

// NewHook binds pluginName/action. The plugin is looked up on every Fire, so
// a later Discover picks up new or changed plugins.
func NewHook(manager *Manager, executor *Executor, pluginName, action string) *Hook {
	return &Hook{
		manager:  manager,
		executor: executor,
		plugin:   pluginName,
		action:   action,
	}
}

// String names the bound plugin action.
func (h *Hook) String() string {
	return h.plugin + "/" + h.action
}

// Fire sends {"action", "gesture":"pinch", "params":{"display"}} to the
// plugin. A response with success=false is returned as an error.
func (h *Hook) Fire(ctx context.Context, display string) error {
	p, err := h.manager.Get(h.plugin)
	if err != nil {
		return fmt.Errorf("%s: %w", h.plugin, err)
	}
	if !p.Manifest.Supports(h.action) {
		return fmt.Errorf("%s: %w: %q", h.plugin, ErrUnsupportedAction, h.action)
	}

	params, err := json.Marshal(ActivationParams{Display: display})
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}

	resp, err := h.executor.Execute(ctx, p, &Request{
		Action:  h.action,
		Gesture: GesturePinch,
		Params:  params,
	})
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%s: %s", h, resp.Error)
	}
	return nil
}
