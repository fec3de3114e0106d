package agent

import (
	"context"

	"github.com/silverland/nova/internal/tools"
)

// Decision is the model's answer for one loop iteration: either final
// response text or one or more requested tool calls, never both acted on.
type Decision struct {
	Content   string
	ToolCalls []ToolCall
}

// ModelClient is the generative-model collaborator. Implementations carry
// their own request timeout; Decide returns an error on transport or
// timeout failures, which the loop degrades to a terminal failure message.
type ModelClient interface {
	Decide(ctx context.Context, messages []Message, toolset []tools.Tool) (*Decision, error)
}
