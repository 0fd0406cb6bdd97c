package assist

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/formwizard/structured"
	"github.com/tbxark/formwizard/types"
)

// LocalCommandParser matches whole messages against keyword lists. Anything
// else that is not blank is treated as an edit.
type LocalCommandParser struct {
	Keywords map[Command][]string
}

func NewLocalCommandParser() *LocalCommandParser {
	return &LocalCommandParser{
		Keywords: map[Command][]string{
			CommandNext:   {"next", "continue", "n"},
			CommandBack:   {"back", "previous", "prev", "b"},
			CommandSubmit: {"submit", "send", "done"},
			CommandReset:  {"reset", "start over", "restart"},
			CommandNone:   {"help", "?", "status"},
		},
	}
}

func (p *LocalCommandParser) ParseCommand(ctx context.Context, turn *Turn) (Command, error) {
	normalized := strings.ToLower(strings.TrimSpace(turn.Input))
	if normalized == "" {
		return CommandNone, nil
	}
	for _, cmd := range []Command{CommandNext, CommandBack, CommandSubmit, CommandReset, CommandNone} {
		for _, keyword := range p.Keywords[cmd] {
			if normalized == keyword {
				return cmd, nil
			}
		}
	}
	return CommandEdit, nil
}

// FallbackCommandParser returns the answer of the first parser that does
// not fail.
type FallbackCommandParser struct {
	parsers []CommandParser
}

func NewFallbackCommandParser(parsers ...CommandParser) *FallbackCommandParser {
	return &FallbackCommandParser{parsers: parsers}
}

func (p *FallbackCommandParser) ParseCommand(ctx context.Context, turn *Turn) (Command, error) {
	var lastErr error
	for _, parser := range p.parsers {
		cmd, err := parser.ParseCommand(ctx, turn)
		if err == nil {
			return cmd, nil
		}
		lastErr = err
	}
	return CommandNone, fmt.Errorf("all command parsers failed: %w", lastErr)
}

const (
	parseCommandToolName        = "classify_wizard_command"
	parseCommandToolDescription = "Classify the applicant message as a wizard command: next, back, submit, reset, edit or none."
)

type commandIntent struct {
	Intent Command `json:"intent" jsonschema:"required,enum=next,enum=back,enum=submit,enum=reset,enum=edit,enum=none,description=The command the applicant wants to run"`
}

// ToolCommandParser asks a chat model to classify the message.
type ToolCommandParser struct {
	chain *structured.Chain[*Turn, commandIntent]
}

func NewToolCommandParser(chatModel model.ToolCallingChatModel) (*ToolCommandParser, error) {
	chain, err := structured.NewChain[*Turn, commandIntent](
		chatModel,
		buildCommandPrompt,
		parseCommandToolName,
		parseCommandToolDescription,
	)
	if err != nil {
		return nil, err
	}
	return &ToolCommandParser{chain: chain}, nil
}

func (p *ToolCommandParser) ParseCommand(ctx context.Context, turn *Turn) (Command, error) {
	result, err := p.chain.Invoke(ctx, turn)
	if err != nil {
		return CommandNone, err
	}
	switch result.Intent {
	case CommandNext, CommandBack, CommandSubmit, CommandReset, CommandEdit, CommandNone:
		return result.Intent, nil
	default:
		return CommandNone, fmt.Errorf("unknown intent %q returned by %s", result.Intent, parseCommandToolName)
	}
}

func buildCommandPrompt(ctx context.Context, turn *Turn) ([]*schema.Message, error) {
	pc := turn.PromptContext()
	pc.StateJSON = ""
	systemPrompt := fmt.Sprintf(`You help an applicant fill out a %d step puppy adoption application.

Read the assistant's last question together with the applicant's answer and decide what the applicant wants. Context matters more than single words.

- next: move on to the following step ("next", "continue", "that's all for this page").
- back: return to the previous step.
- submit: send the finished application. Only when the applicant clearly asks to send or submit it.
- reset: throw the application away and start over. Only when stated explicitly.
- edit: the message contains answers or corrections for form fields.
- none: small talk, questions, or anything that changes nothing.

Call the '%s' tool with the result.`, int(types.LastStep), parseCommandToolName)

	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(types.FormatPromptContext(pc)),
	}, nil
}
