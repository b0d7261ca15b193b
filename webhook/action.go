package webhook

import (
	"encoding/json"
	"fmt"
)

// ActionName is the post-serve action name webhooks are registered under
const ActionName = "webhook"

// Action is the post-serve action that hands webhook specs to a Dispatcher
type Action struct {
	Dispatcher *Dispatcher
}

// NewAction creates the webhook post-serve action
func NewAction(dispatcher *Dispatcher) *Action {
	return &Action{
		Dispatcher: dispatcher,
	}
}

// Name returns the name the action is registered under
func (a *Action) Name() string {
	return ActionName
}

// Validate checks that params describe a well-formed webhook
func (a *Action) Validate(params json.RawMessage) error {
	if _, err := ParseSpec(params); err != nil {
		return fmt.Errorf("validating webhook parameters: %w", err)
	}
	return nil
}

// Fire parses params and schedules the webhook without waiting for it
func (a *Action) Fire(params json.RawMessage, tc TemplateContext) error {
	spec, err := ParseSpec(params)
	if err != nil {
		return fmt.Errorf("parsing webhook parameters: %w", err)
	}
	a.Dispatcher.Fire(spec, tc)
	return nil
}
