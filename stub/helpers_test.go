package stub_test

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/marcelsud/webhook-dispatch/stub"
	"github.com/marcelsud/webhook-dispatch/webhook"
)

// recordingAction accepts any parameters except {"invalid": true} and records every firing
type recordingAction struct {
	name  string
	mu    sync.Mutex
	fired []json.RawMessage
	err   error
}

func (a *recordingAction) Name() string {
	return a.name
}

func (a *recordingAction) Validate(params json.RawMessage) error {
	var p struct {
		Invalid bool `json:"invalid"`
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &p); err != nil {
			return err
		}
	}
	if p.Invalid {
		return errors.New("parameters marked invalid")
	}
	return nil
}

func (a *recordingAction) Fire(params json.RawMessage, _ webhook.TemplateContext) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.fired = append(a.fired, params)
	return a.err
}

func (a *recordingAction) firings() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.fired)
}

// newRegistry registers the real webhook action (validation only) and a recording action
func newRegistry() (*stub.Registry, *recordingAction) {
	rec := &recordingAction{name: "record"}
	return stub.NewRegistry(webhook.NewAction(nil), rec), rec
}
