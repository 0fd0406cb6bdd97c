package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/formwizard/types"
	"github.com/tbxark/formwizard/validate"
)

// DefaultReplySystemPromptTemplate may contain one "%s" for the reply language.
const DefaultReplySystemPromptTemplate = `You are a friendly assistant helping someone apply to adopt a puppy. The application has four steps: identity, preferences, household and agreements.

Turn the facts under "What happened" into a short, warm reply:
- Never claim anything the facts do not say, and never invent field values.
- When fields are still needed, ask for one or two of them at a time.
- When a step is complete, invite the applicant to continue or, on the last step, to submit.
- When a submission failed, explain the reason plainly and say the answers are kept.
- Avoid lists unless you are repeating validation problems.
- Reply in %s.
`

type ModelReplier struct {
	chatModel    model.BaseChatModel
	lang         string
	systemPrompt string
}

type ReplierOption func(*ModelReplier)

func WithReplyLang(lang string) ReplierOption {
	return func(r *ModelReplier) {
		if lang != "" {
			r.lang = lang
		}
	}
}

// WithReplySystemPrompt replaces the system prompt. A "%s" in it is filled
// with the reply language.
func WithReplySystemPrompt(prompt string) ReplierOption {
	return func(r *ModelReplier) {
		if prompt != "" {
			r.systemPrompt = prompt
		}
	}
}

func NewModelReplier(chatModel model.BaseChatModel, opts ...ReplierOption) *ModelReplier {
	r := &ModelReplier{
		chatModel:    chatModel,
		lang:         "English",
		systemPrompt: DefaultReplySystemPromptTemplate,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *ModelReplier) Reply(ctx context.Context, req *ReplyRequest) (string, error) {
	response, err := r.chatModel.Generate(ctx, r.buildPrompt(req))
	if err != nil {
		return "", fmt.Errorf("LLM call failed: %w", err)
	}
	text := strings.TrimSpace(response.Content)
	if text == "" {
		return "", errors.New("LLM returned an empty reply")
	}
	return text, nil
}

func (r *ModelReplier) buildPrompt(req *ReplyRequest) []*schema.Message {
	systemPrompt := r.systemPrompt
	if strings.Contains(systemPrompt, "%s") {
		systemPrompt = fmt.Sprintf(systemPrompt, r.lang)
	}

	pc := types.PromptContext{
		Step:          req.State.Step,
		Phase:         req.State.Phase,
		Issues:        validate.Step(req.State.Model, req.State.Step).Issues,
		SubmitFailure: req.State.LastError,
		PatchApplied:  req.PatchApplied,
	}
	if req.Turn != nil {
		pc.LastQuestion = req.Turn.LastQuestion
		pc.UserInput = req.Turn.Input
	}
	content := types.FormatPromptContext(pc) + "\n\n# What happened:\n" + describe(req)

	messages := make([]*schema.Message, 0, len(req.History)+2)
	messages = append(messages, schema.SystemMessage(systemPrompt))
	messages = append(messages, req.History...)
	messages = append(messages, schema.UserMessage(content))
	return messages
}
