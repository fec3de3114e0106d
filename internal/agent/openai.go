package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"github.com/silverland/nova/internal/tools"
)

// OpenAIClient implements ModelClient against the OpenAI Responses API.
type OpenAIClient struct {
	client      openai.Client
	model       string
	temperature float64
	timeout     time.Duration
}

// OpenAIOpts configures the model client.
type OpenAIOpts struct {
	APIKey      string
	BaseURL     string // optional, for API-compatible endpoints
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// NewOpenAIClient builds the model client.
func NewOpenAIClient(opts OpenAIOpts) (*OpenAIClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("agent: openai api key is required")
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("agent: model name is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(opts.APIKey)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &OpenAIClient{
		client:      openai.NewClient(reqOpts...),
		model:       opts.Model,
		temperature: opts.Temperature,
		timeout:     opts.Timeout,
	}, nil
}

// Decide sends the full conversation and tool schemas to the model and
// returns its decision for this iteration.
func (c *OpenAIClient) Decide(ctx context.Context, messages []Message, toolset []tools.Tool) (*Decision, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(c.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: convertMessages(messages),
		},
	}
	if c.temperature > 0 {
		params.Temperature = openai.Float(c.temperature)
	}
	if len(toolset) > 0 {
		params.Tools = convertTools(toolset)
	}

	result, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("agent: model call: %w", err)
	}

	decision := &Decision{Content: result.OutputText()}
	for _, item := range result.Output {
		if item.Type != "function_call" {
			continue
		}
		decision.ToolCalls = append(decision.ToolCalls, ToolCall{
			ID:        item.CallID,
			Name:      item.Name,
			Arguments: json.RawMessage(item.Arguments),
		})
	}
	return decision, nil
}

func convertMessages(messages []Message) responses.ResponseInputParam {
	input := make(responses.ResponseInputParam, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			input = append(input, responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleSystem))
		case RoleUser:
			input = append(input, responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleUser))
		case RoleAgent:
			input = append(input, responses.ResponseInputItemParamOfMessage(msg.Content, responses.EasyInputMessageRoleAssistant))
		case RoleToolResult:
			if msg.Call == nil {
				continue
			}
			// The originating call is replayed so its output pairs up.
			input = append(input, responses.ResponseInputItemParamOfFunctionCall(string(msg.Call.Arguments), msg.Call.ID, msg.Call.Name))
			input = append(input, responses.ResponseInputItemParamOfFunctionCallOutput(msg.Call.ID, msg.Content))
		}
	}
	return input
}

func convertTools(toolset []tools.Tool) []responses.ToolUnionParam {
	params := make([]responses.ToolUnionParam, len(toolset))
	for i, t := range toolset {
		params[i] = responses.ToolParamOfFunction(t.Name, t.Parameters, false)
		if t.Description != "" {
			fn := params[i].OfFunction
			fn.Description = openai.String(t.Description)
			params[i].OfFunction = fn
		}
	}
	return params
}
