package agent

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/silverland/nova/internal/tools"
)

const (
	// failureMessage ends a turn when the model collaborator itself fails.
	failureMessage = "I'm sorry, I wasn't able to process that just now. Could you try again in a moment?"

	// limitMessage ends a turn that hit the iteration bound.
	limitMessage = "I'm sorry, I wasn't able to complete that request. Could you rephrase or simplify it?"
)

// Agent runs the bounded tool-calling loop for one conversation turn.
type Agent struct {
	model         ModelClient
	registry      *tools.Registry
	checkpoints   *CheckpointStore
	maxIterations int
}

// Opts holds the loop's collaborators.
type Opts struct {
	Model         ModelClient
	Registry      *tools.Registry
	Checkpoints   *CheckpointStore
	MaxIterations int
}

// New builds an agent.
func New(opts Opts) (*Agent, error) {
	if opts.Model == nil {
		return nil, fmt.Errorf("agent: model client is required")
	}
	if opts.Registry == nil {
		return nil, fmt.Errorf("agent: tool registry is required")
	}
	if opts.Checkpoints == nil {
		return nil, fmt.Errorf("agent: checkpoint store is required")
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 5
	}
	return &Agent{
		model:         opts.Model,
		registry:      opts.Registry,
		checkpoints:   opts.Checkpoints,
		maxIterations: opts.MaxIterations,
	}, nil
}

// HandleTurn runs one full turn: load state, consult the model, dispatch
// tool calls until the model responds or the iteration bound is hit, then
// checkpoint and return the final agent message. Turns for the same
// conversation are serialized; only checkpoint failures surface as errors.
func (a *Agent) HandleTurn(ctx context.Context, conversationID, userMessage string) (string, error) {
	if _, err := uuid.Parse(conversationID); err != nil {
		return "", fmt.Errorf("agent: invalid conversation id %q", conversationID)
	}

	unlock := a.checkpoints.Lock(conversationID)
	defer unlock()

	state, err := a.checkpoints.Load(conversationID)
	if err != nil {
		return "", err
	}
	if len(state.Messages) == 0 {
		state.Append(Message{Role: RoleSystem, Content: systemPrompt})
	}
	state.Append(Message{Role: RoleUser, Content: userMessage})
	state.Iterations = 0

	final := a.run(ctx, state)

	state.Append(Message{Role: RoleAgent, Content: final})
	if err := a.checkpoints.Save(state); err != nil {
		return "", err
	}
	return final, nil
}

// run drives the decide/dispatch cycle until a terminal response.
func (a *Agent) run(ctx context.Context, state *State) string {
	for {
		decision, err := a.model.Decide(ctx, state.Messages, a.registry.Tools())
		if err != nil {
			log.Printf("agent: %s: model decision failed: %v", state.ConversationID, err)
			return failureMessage
		}
		if len(decision.ToolCalls) == 0 {
			return decision.Content
		}
		if state.Iterations >= a.maxIterations {
			log.Printf("agent: %s: iteration limit %d reached", state.ConversationID, a.maxIterations)
			return limitMessage
		}

		for _, call := range decision.ToolCalls {
			call := call
			result := a.registry.Invoke(ctx, call.Name, call.Arguments)
			state.Append(Message{
				Role:    RoleToolResult,
				Content: result,
				Call:    &call,
			})
		}
		state.Iterations++
	}
}
