package assist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/formwizard/validate"
	"github.com/tbxark/formwizard/wizard"
)

// Assistant runs one user message against a wizard controller. It holds no
// per-applicant state and may be shared.
type Assistant struct {
	parser  CommandParser
	patcher PatchGenerator
	replier Replier
	logger  *slog.Logger
}

type Option func(*Assistant)

func WithCommandParser(p CommandParser) Option {
	return func(a *Assistant) { a.parser = p }
}

func WithPatchGenerator(g PatchGenerator) Option {
	return func(a *Assistant) { a.patcher = g }
}

func WithReplier(r Replier) Option {
	return func(a *Assistant) { a.replier = r }
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New builds an assistant from the local components. Options replace them.
func New(opts ...Option) *Assistant {
	a := &Assistant{
		parser:  NewLocalCommandParser(),
		patcher: NewLocalPatchGenerator(),
		replier: NewLocalReplier(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// NewWithModel uses chatModel for every component and falls back to the
// local ones when the model fails.
func NewWithModel(chatModel model.ToolCallingChatModel, lang string, opts ...Option) (*Assistant, error) {
	parser, err := NewToolCommandParser(chatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool-based command parser: %w", err)
	}
	patcher, err := NewToolPatchGenerator(chatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool-based patch generator: %w", err)
	}
	base := []Option{
		WithCommandParser(NewFallbackCommandParser(parser, NewLocalCommandParser())),
		WithPatchGenerator(NewFallbackPatchGenerator(patcher, NewLocalPatchGenerator())),
		WithReplier(NewFallbackReplier(NewModelReplier(chatModel, WithReplyLang(lang)), NewLocalReplier())),
	}
	return New(append(base, opts...)...), nil
}

// Handle interprets input, runs the matching controller operation and
// phrases the reply. history may be nil. Failures of the controller or of
// the components are part of the reply; only a failure to phrase any reply
// is returned as an error.
func (a *Assistant) Handle(ctx context.Context, c *wizard.Controller, history *Transcript, input string) (*Reply, error) {
	if c == nil {
		return nil, errors.New("controller is required")
	}
	before := c.State()
	issues := validate.Step(before.Model, before.Step).Issues
	turn := newTurn(before, issues, history.LastQuestion(), input)
	req := &ReplyRequest{Turn: turn, History: history.Messages()}

	cmd, err := a.parser.ParseCommand(ctx, turn)
	if err != nil {
		a.logger.Warn("Failed to parse command", "error", err)
		req.Err = fmt.Errorf("failed to parse command: %w", err)
		cmd = CommandNone
	}
	req.Command = cmd
	a.logger.Debug("Parsed command", "command", cmd, "step", int(before.Step))

	if req.Err == nil {
		a.run(ctx, c, turn, req)
	}

	req.State = c.State()
	req.Validation = validate.Step(req.State.Model, req.State.Step)

	message, err := a.replier.Reply(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to generate reply: %w", err)
	}
	history.Append(schema.UserMessage(input), schema.AssistantMessage(message, nil))

	reply := &Reply{
		Message:      message,
		Command:      cmd,
		Step:         req.State.Step,
		Phase:        req.State.Phase,
		PatchApplied: req.PatchApplied,
		Errors:       req.Validation.Errors,
		Outcome:      req.Outcome,
	}
	if req.Err != nil {
		reply.Error = req.Err.Error()
	}
	return reply, nil
}

func (a *Assistant) run(ctx context.Context, c *wizard.Controller, turn *Turn, req *ReplyRequest) {
	switch req.Command {
	case CommandEdit:
		if a.patcher == nil {
			return
		}
		ops, err := a.patcher.GeneratePatch(ctx, turn)
		if err != nil {
			a.logger.Warn("Failed to generate patch", "error", err)
			req.Err = fmt.Errorf("failed to generate patch: %w", err)
			return
		}
		if len(ops) == 0 {
			return
		}
		a.logger.Debug("Applying patch", "ops", len(ops))
		if err := c.ApplyPatch(ctx, ops); err != nil {
			req.Err = err
			return
		}
		req.PatchApplied = true
	case CommandNext:
		res, err := c.GoToNextStep(ctx)
		if err != nil {
			req.Err = err
			return
		}
		if !res.Valid {
			req.Blocked = &res
		}
	case CommandBack:
		req.Err = c.GoToPreviousStep(ctx)
	case CommandSubmit:
		outcome, err := c.Submit(ctx)
		if err != nil {
			req.Err = err
			return
		}
		req.Outcome = &outcome
	case CommandReset:
		c.Reset(ctx)
	}
}

// Greeting is the first assistant message of a conversation.
func (a *Assistant) Greeting(c *wizard.Controller, history *Transcript) string {
	st := c.State()
	text := "Hi! I will help you with your puppy adoption application. " +
		stepStatus(st.Step, validate.Step(st.Model, st.Step))
	if st.Submitted {
		text = `Your application has already been submitted. Say "reset" to start a new one.`
	}
	history.Append(schema.AssistantMessage(text, nil))
	return text
}
