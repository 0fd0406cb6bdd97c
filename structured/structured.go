// Package structured turns a tool calling chat model into a typed function by
// forcing it to answer through exactly one tool whose parameters are derived
// from the output type.
package structured

import (
	"context"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
)

var ErrNoToolCall = errors.New("no tool call found in model response")

type PromptBuilder[In any] func(ctx context.Context, input In) ([]*schema.Message, error)

type Chain[In, Out any] struct {
	build PromptBuilder[In]
	model model.ToolCallingChatModel
	tool  *schema.ToolInfo
}

func NewChain[In, Out any](
	chatModel model.ToolCallingChatModel,
	build PromptBuilder[In],
	toolName string,
	toolDesc string,
) (*Chain[In, Out], error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	toolInfo, err := utils.GoStruct2ToolInfo[Out](toolName, toolDesc)
	if err != nil {
		return nil, fmt.Errorf("convert tool info failed: %w", err)
	}
	return &Chain[In, Out]{
		build: build,
		model: chatModel,
		tool:  toolInfo,
	}, nil
}

func (c *Chain[In, Out]) Invoke(ctx context.Context, input In) (*Out, error) {
	messages, err := c.build(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("build prompt failed: %w", err)
	}

	response, err := c.model.Generate(ctx, messages,
		model.WithTools([]*schema.ToolInfo{c.tool}),
		model.WithToolChoice(schema.ToolChoiceForced, c.tool.Name),
	)
	if err != nil {
		return nil, fmt.Errorf("call model failed: %w", err)
	}
	return Decode[Out](response, c.tool.Name)
}

func (c *Chain[In, Out]) ToolInfo() *schema.ToolInfo {
	return c.tool
}

// Decode parses the arguments of the call to toolName, or of the first tool
// call when none matches by name.
func Decode[Out any](msg *schema.Message, toolName string) (*Out, error) {
	if msg == nil || len(msg.ToolCalls) == 0 {
		content := ""
		if msg != nil {
			content = msg.Content
		}
		return nil, fmt.Errorf("%w: %q", ErrNoToolCall, content)
	}
	call := msg.ToolCalls[0]
	for _, tc := range msg.ToolCalls {
		if tc.Function.Name == toolName {
			call = tc
			break
		}
	}

	var result Out
	if err := sonic.UnmarshalString(call.Function.Arguments, &result); err != nil {
		return nil, fmt.Errorf("parse %s arguments failed: %w", call.Function.Name, err)
	}
	return &result, nil
}
