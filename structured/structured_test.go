package structured

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verdict struct {
	Approved bool   `json:"approved" jsonschema:"required,description=Whether the request is approved"`
	Reason   string `json:"reason" jsonschema:"description=Short reason"`
}

type scriptedModel struct {
	answer *schema.Message
	err    error
	seen   []*schema.Message
}

func (m *scriptedModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.seen = input
	return m.answer, m.err
}

func (m *scriptedModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not supported")
}

func (m *scriptedModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return m, nil
}

func prompt(ctx context.Context, input string) ([]*schema.Message, error) {
	return []*schema.Message{schema.UserMessage(input)}, nil
}

func call(name, args string) schema.ToolCall {
	return schema.ToolCall{ID: name, Function: schema.FunctionCall{Name: name, Arguments: args}}
}

func TestChainInvoke(t *testing.T) {
	m := &scriptedModel{answer: &schema.Message{
		Role:      schema.Assistant,
		ToolCalls: []schema.ToolCall{call("judge", `{"approved":true,"reason":"complete"}`)},
	}}
	chain, err := NewChain[string, verdict](m, prompt, "judge", "Judge the request")
	require.NoError(t, err)
	assert.Equal(t, "judge", chain.ToolInfo().Name)

	got, err := chain.Invoke(context.Background(), "please approve")
	require.NoError(t, err)
	assert.Equal(t, verdict{Approved: true, Reason: "complete"}, *got)
	require.Len(t, m.seen, 1)
	assert.Equal(t, "please approve", m.seen[0].Content)
}

func TestChainErrors(t *testing.T) {
	m := &scriptedModel{answer: schema.AssistantMessage("I think yes", nil)}
	chain, err := NewChain[string, verdict](m, prompt, "judge", "Judge the request")
	require.NoError(t, err)

	_, err = chain.Invoke(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNoToolCall)

	m.answer, m.err = nil, errors.New("upstream down")
	_, err = chain.Invoke(context.Background(), "x")
	assert.ErrorContains(t, err, "upstream down")

	_, err = NewChain[string, verdict](nil, prompt, "judge", "")
	assert.Error(t, err)
}

func TestDecodePrefersNamedTool(t *testing.T) {
	msg := &schema.Message{ToolCalls: []schema.ToolCall{
		call("other", `{"approved":false}`),
		call("judge", `{"approved":true}`),
	}}
	got, err := Decode[verdict](msg, "judge")
	require.NoError(t, err)
	assert.True(t, got.Approved)

	_, err = Decode[verdict](&schema.Message{ToolCalls: []schema.ToolCall{call("judge", `{"approved":"maybe"}`)}}, "judge")
	assert.Error(t, err)

	_, err = Decode[verdict](nil, "judge")
	assert.ErrorIs(t, err, ErrNoToolCall)
}
