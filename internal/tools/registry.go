// Package tools defines the fixed capability set the conversational agent
// may invoke: secure database reads and writes, external lookups, and the
// clock. Tool failures are returned as correctable result text, never as
// errors, so the model can react and retry.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/silverland/nova/internal/secure"
)

// SideEffect classifies what a tool may do to the store.
type SideEffect string

const (
	SideEffectNone     SideEffect = "none"
	SideEffectMutating SideEffect = "mutating"
)

// Tool is one named capability with a declared argument schema.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]interface{} // JSON schema for the arguments
	SideEffect  SideEffect

	run func(ctx context.Context, args json.RawMessage) string
}

// Searcher is the external lookup collaborator.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Events receives best-effort sales notifications after successful writes.
type Events interface {
	LeadCaptured(id int64)
	BookingCreated(id int64)
}

// Registry holds the fixed tool set.
type Registry struct {
	tools  []Tool
	byName map[string]Tool
}

// RegistryOpts holds collaborators for building the fixed tool set.
type RegistryOpts struct {
	Gateway  *secure.Gateway
	Searcher Searcher
	Events   Events // optional
}

// NewRegistry builds the fixed tool set.
func NewRegistry(opts RegistryOpts) (*Registry, error) {
	if opts.Gateway == nil {
		return nil, fmt.Errorf("tools: gateway is required")
	}
	if opts.Searcher == nil {
		return nil, fmt.Errorf("tools: searcher is required")
	}

	r := &Registry{byName: map[string]Tool{}}
	r.register(newReadTool(opts.Gateway))
	r.register(newWriteTool(opts.Gateway, opts.Events))
	r.register(newLookupTool(opts.Searcher))
	r.register(newClockTool())
	return r, nil
}

func (r *Registry) register(t Tool) {
	r.tools = append(r.tools, t)
	r.byName[t.Name] = t
}

// Tools returns the fixed tool list in registration order.
func (r *Registry) Tools() []Tool {
	return r.tools
}

// Invoke dispatches a tool call and returns the result text. Unknown tools
// and malformed arguments come back as correctable failure text.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) string {
	tool, ok := r.byName[name]
	if !ok {
		known := make([]string, 0, len(r.tools))
		for _, t := range r.tools {
			known = append(known, t.Name)
		}
		return fmt.Sprintf("Error: unknown tool %q; available tools: %s", name, strings.Join(known, ", "))
	}
	log.Printf("tools: invoking %s", name)
	return tool.run(ctx, args)
}

// decodeArgs unmarshals tool arguments strictly; unknown or misshapen
// fields are a schema mismatch, reported before any dispatch.
func decodeArgs(args json.RawMessage, dst interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	dec := json.NewDecoder(strings.NewReader(string(args)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid arguments: %v", err)
	}
	return nil
}
