// Package assist is a conversational front end for the intake wizard. Each
// user message is classified into a wizard command, field answers are turned
// into JSON patches for the current step, and a reply is phrased for the
// applicant. Every component has an offline implementation and an optional
// chat model implementation.
package assist

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/formwizard/form"
	"github.com/tbxark/formwizard/patch"
	"github.com/tbxark/formwizard/types"
	"github.com/tbxark/formwizard/wizard"
)

type Command string

const (
	CommandNext   Command = "next"
	CommandBack   Command = "back"
	CommandSubmit Command = "submit"
	CommandReset  Command = "reset"
	CommandEdit   Command = "edit"
	CommandNone   Command = "none"
)

// Turn is the wizard as it was when the user message arrived.
type Turn struct {
	Step         types.Step
	Phase        types.Phase
	Model        form.Application
	Issues       []types.FieldInfo
	LastQuestion string
	LastError    string
	Input        string
}

func newTurn(st wizard.State, issues []types.FieldInfo, lastQuestion, input string) *Turn {
	return &Turn{
		Step:         st.Step,
		Phase:        st.Phase,
		Model:        st.Model,
		Issues:       issues,
		LastQuestion: lastQuestion,
		LastError:    st.LastError,
		Input:        input,
	}
}

func (t *Turn) PromptContext() types.PromptContext {
	stateJSON, _ := sonic.MarshalIndent(t.Model, "", "  ")
	return types.PromptContext{
		Step:          t.Step,
		Phase:         t.Phase,
		StateJSON:     string(stateJSON),
		AllowedPaths:  form.StepPointers(t.Step),
		Issues:        t.Issues,
		LastQuestion:  t.LastQuestion,
		UserInput:     t.Input,
		SubmitFailure: t.LastError,
	}
}

type CommandParser interface {
	ParseCommand(ctx context.Context, turn *Turn) (Command, error)
}

// PatchGenerator extracts answers for the current step. An empty result
// means the message held nothing usable.
type PatchGenerator interface {
	GeneratePatch(ctx context.Context, turn *Turn) ([]patch.Operation, error)
}

// ReplyRequest describes what one message did to the wizard.
type ReplyRequest struct {
	Turn         *Turn
	Command      Command
	History      []*schema.Message
	State        wizard.State
	Validation   types.ValidationResult
	PatchApplied bool
	Blocked      *types.ValidationResult
	Outcome      *types.SubmissionOutcome
	Err          error
}

type Replier interface {
	Reply(ctx context.Context, req *ReplyRequest) (string, error)
}

// Reply is returned to the caller of Assistant.Handle.
type Reply struct {
	Message      string                   `json:"message"`
	Command      Command                  `json:"command"`
	Step         types.Step               `json:"step"`
	Phase        types.Phase              `json:"phase"`
	PatchApplied bool                     `json:"patchApplied"`
	Errors       []string                 `json:"errors,omitempty"`
	Outcome      *types.SubmissionOutcome `json:"outcome,omitempty"`
	Error        string                   `json:"error,omitempty"`
}
