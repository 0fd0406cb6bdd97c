package assist

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/formwizard/wizard"
)

var _ adk.Agent = (*Agent)(nil)

// Agent exposes one applicant's assistant session as an eino ADK agent so it
// can run under adk.Runner.
type Agent struct {
	name        string
	description string
	assistant   *Assistant
	controller  *wizard.Controller
	history     *Transcript
}

func NewAgent(name, description string, assistant *Assistant, controller *wizard.Controller, history *Transcript) *Agent {
	return &Agent{
		name:        name,
		description: description,
		assistant:   assistant,
		controller:  controller,
		history:     history,
	}
}

func (a *Agent) Name(ctx context.Context) string {
	return a.name
}

func (a *Agent) Description(ctx context.Context) string {
	return a.description
}

func (a *Agent) Run(ctx context.Context, input *adk.AgentInput, options ...adk.AgentRunOption) *adk.AsyncIterator[*adk.AgentEvent] {
	iter, gen := adk.NewAsyncIteratorPair[*adk.AgentEvent]()
	go func() {
		defer func() {
			if e := recover(); e != nil {
				gen.Send(&adk.AgentEvent{
					Err: fmt.Errorf("recover from panic: %v", e),
				})
			}
			gen.Close()
		}()
		if input == nil || len(input.Messages) == 0 {
			gen.Send(&adk.AgentEvent{Err: errors.New("no messages in input")})
			return
		}
		reply, err := a.assistant.Handle(ctx, a.controller, a.history, input.Messages[len(input.Messages)-1].Content)
		if err != nil {
			gen.Send(&adk.AgentEvent{Err: fmt.Errorf("assistant failed: %w", err)})
			return
		}
		gen.Send(&adk.AgentEvent{
			Output: &adk.AgentOutput{
				MessageOutput: &adk.MessageVariant{
					IsStreaming: false,
					Message:     schema.AssistantMessage(reply.Message, nil),
					Role:        schema.Assistant,
				},
			},
		})
	}()
	return iter
}
