package assist

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/eino/adk"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tbxark/formwizard/draft"
	"github.com/tbxark/formwizard/form"
	"github.com/tbxark/formwizard/form/formtest"
	"github.com/tbxark/formwizard/gateway"
	"github.com/tbxark/formwizard/patch"
	"github.com/tbxark/formwizard/types"
	"github.com/tbxark/formwizard/wizard"
)

func controller(t *testing.T, app form.Application, outcome types.SubmissionOutcome) *wizard.Controller {
	t.Helper()
	ctx := context.Background()
	slot := draft.NewSlot(draft.NewMemoryCache(), "", "")
	require.NoError(t, slot.Save(ctx, app))
	gw := gateway.Func(func(context.Context, form.Application) types.SubmissionOutcome { return outcome })
	return wizard.New(ctx, slot, gw)
}

func onLastStep(t *testing.T, c *wizard.Controller) {
	t.Helper()
	for c.State().Step < types.LastStep {
		res, err := c.GoToNextStep(context.Background())
		require.NoError(t, err)
		require.True(t, res.Valid, res.Errors)
	}
}

func TestLocalFlow(t *testing.T) {
	ctx := context.Background()
	a := New()
	c := controller(t, form.Defaults(), types.Succeeded())
	history := NewTranscript(0)

	reply, err := a.Handle(ctx, c, history, "next")
	require.NoError(t, err)
	assert.Equal(t, CommandNext, reply.Command)
	assert.Equal(t, types.StepIdentity, reply.Step)
	assert.Contains(t, reply.Message, "Identity is not complete yet:")
	assert.Contains(t, reply.Message, "- First name is required")

	reply, err = a.Handle(ctx, c, history, strings.Join([]string{
		"firstName: Jane", "lastName: Doe", "email: jane@x.com", "confirmEmail: jane@x.com",
		"phone: (303) 555-0142", "address: 1 Main St", "city: Denver", "state: CO", "Zip code = 80202",
	}, "; "))
	require.NoError(t, err)
	assert.Equal(t, CommandEdit, reply.Command)
	assert.True(t, reply.PatchApplied)
	assert.Empty(t, reply.Errors)
	assert.Contains(t, reply.Message, `This step is complete. Say "next" to continue.`)

	reply, err = a.Handle(ctx, c, history, "Next")
	require.NoError(t, err)
	assert.Equal(t, types.StepPreferences, reply.Step)
	assert.True(t, strings.HasPrefix(reply.Message, "Step 2 of 4: Preferences."))

	reply, err = a.Handle(ctx, c, history, "back")
	require.NoError(t, err)
	assert.Equal(t, types.StepIdentity, reply.Step)

	reply, err = a.Handle(ctx, c, history, "back")
	require.NoError(t, err)
	assert.Contains(t, reply.Message, "You are already on the first step.")
	assert.NotEmpty(t, reply.Error)

	assert.Equal(t, reply.Message, history.LastQuestion())
}

func TestLocalPatchOnlyTouchesCurrentStep(t *testing.T) {
	ctx := context.Background()
	c := controller(t, form.Defaults(), types.Succeeded())

	reply, err := New().Handle(ctx, c, nil, "city: Denver\nhasFence: yes\nfavorite color: blue")
	require.NoError(t, err)
	assert.True(t, reply.PatchApplied)
	st := c.State()
	assert.Equal(t, "Denver", st.Model.City)
	assert.False(t, st.Model.HasFence)
}

func TestLocalPatchValues(t *testing.T) {
	ctx := context.Background()
	g := NewLocalPatchGenerator()

	ops, err := g.GeneratePatch(ctx, &Turn{Step: types.StepPreferences, Input: "breedChoices: Beagle, Poodle; sizes: Small, medium; delivery method: Pickup"})
	require.NoError(t, err)
	require.Len(t, ops, 3)
	assert.Equal(t, []any{
		map[string]any{"priority": 1, "breed": "Beagle"},
		map[string]any{"priority": 2, "breed": "Poodle"},
		map[string]any{"priority": 3, "breed": ""},
	}, ops[0].Value)
	assert.Equal(t, []any{"small", "medium"}, ops[1].Value)
	assert.Equal(t, "pickup", ops[2].Value)

	ops, err = g.GeneratePatch(ctx, &Turn{Step: types.StepHousehold, Input: "previous puppies: lots; hasChildren: yes; hasFence: maybe"})
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, patch.Replace("/previousPuppies", 0), ops[0])
	assert.Equal(t, patch.Replace("/hasChildren", true), ops[1])

	ops, err = g.GeneratePatch(ctx, &Turn{Step: types.StepIdentity, Input: "hello there"})
	require.NoError(t, err)
	assert.Empty(t, ops)
}

func TestEditWithoutAnswers(t *testing.T) {
	c := controller(t, form.Defaults(), types.Succeeded())
	reply, err := New().Handle(context.Background(), c, nil, "I really like dogs")
	require.NoError(t, err)
	assert.False(t, reply.PatchApplied)
	assert.Contains(t, reply.Message, "I could not find any answers")
}

func TestSubmitAndReset(t *testing.T) {
	ctx := context.Background()
	c := controller(t, formtest.Complete(), types.Succeeded())
	onLastStep(t, c)
	a := New()

	reply, err := a.Handle(ctx, c, nil, "submit")
	require.NoError(t, err)
	require.NotNil(t, reply.Outcome)
	assert.True(t, reply.Outcome.Success)
	assert.Equal(t, types.PhaseSubmitted, reply.Phase)
	assert.Contains(t, reply.Message, "has been submitted")

	reply, err = a.Handle(ctx, c, nil, "city: Austin")
	require.NoError(t, err)
	assert.Contains(t, reply.Message, "already submitted")

	reply, err = a.Handle(ctx, c, nil, "start over")
	require.NoError(t, err)
	assert.Equal(t, CommandReset, reply.Command)
	assert.Equal(t, types.PhaseEditing, reply.Phase)
	assert.Equal(t, types.StepIdentity, reply.Step)
	assert.True(t, strings.HasPrefix(reply.Message, "Starting over"))
}

func TestSubmitFailure(t *testing.T) {
	c := controller(t, formtest.Complete(), types.SubmissionOutcome{Error: "zip code is not served"})
	onLastStep(t, c)
	reply, err := New().Handle(context.Background(), c, nil, "submit")
	require.NoError(t, err)
	assert.Equal(t, types.LastStep, reply.Step)
	assert.Contains(t, reply.Message, "Submission failed: zip code is not served.")
}

func TestSubmitBeforeLastStep(t *testing.T) {
	c := controller(t, formtest.Complete(), types.Succeeded())
	reply, err := New().Handle(context.Background(), c, nil, "submit")
	require.NoError(t, err)
	assert.Nil(t, reply.Outcome)
	assert.Equal(t, types.StepIdentity, reply.Step)
	assert.Contains(t, reply.Message, `Say "next" until you reach the last step`)
}

func TestSubmitIncomplete(t *testing.T) {
	c := controller(t, formtest.Through(3), types.Succeeded())
	reply, err := New().Handle(context.Background(), c, nil, "submit")
	require.NoError(t, err)
	assert.Contains(t, reply.Message, "Some steps are not complete yet")
	assert.Equal(t, types.PhaseEditing, reply.Phase)
}

// fakeModel answers according to which prompt it receives.
type fakeModel struct {
	mu      sync.Mutex
	intent  Command
	ops     []patch.Operation
	reply   string
	err     error
	prompts []string
}

func (f *fakeModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	system := input[0].Content
	f.prompts = append(f.prompts, system)
	switch {
	case strings.Contains(system, parseCommandToolName):
		return toolCall(parseCommandToolName, `{"intent":"`+string(f.intent)+`"}`), nil
	case strings.Contains(system, updateFieldsToolName):
		doc, err := sonic.MarshalString(patch.Document{Ops: f.ops})
		if err != nil {
			return nil, err
		}
		return toolCall(updateFieldsToolName, doc), nil
	default:
		return schema.AssistantMessage(f.reply, nil), nil
	}
}

func (f *fakeModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	msg, err := f.Generate(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	return schema.StreamReaderFromArray([]*schema.Message{msg}), nil
}

func (f *fakeModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	return f, nil
}

func toolCall(name, args string) *schema.Message {
	return &schema.Message{
		Role: schema.Assistant,
		ToolCalls: []schema.ToolCall{{
			ID:       "call_1",
			Function: schema.FunctionCall{Name: name, Arguments: args},
		}},
	}
}

func TestModelFlow(t *testing.T) {
	ctx := context.Background()
	fm := &fakeModel{
		intent: CommandEdit,
		ops:    []patch.Operation{patch.Replace("/firstName", "Jane"), patch.Replace("/city", "Denver")},
		reply:  "Nice to meet you, Jane! What is your last name?",
	}
	a, err := NewWithModel(fm, "English")
	require.NoError(t, err)
	c := controller(t, form.Defaults(), types.Succeeded())
	history := NewTranscript(4)

	reply, err := a.Handle(ctx, c, history, "I'm Jane from Denver")
	require.NoError(t, err)
	assert.Equal(t, CommandEdit, reply.Command)
	assert.True(t, reply.PatchApplied)
	assert.Equal(t, fm.reply, reply.Message)
	assert.Equal(t, "Jane", c.State().Model.FirstName)
	assert.Equal(t, "Denver", c.State().Model.City)
	assert.Len(t, history.Messages(), 2)
}

func TestModelPatchOutsideStepIsRejected(t *testing.T) {
	ctx := context.Background()
	fm := &fakeModel{
		intent: CommandEdit,
		ops:    []patch.Operation{patch.Replace("/whyAdopt", "because")},
		reply:  "ok",
	}
	a, err := NewWithModel(fm, "")
	require.NoError(t, err)
	c := controller(t, form.Defaults(), types.Succeeded())

	reply, err := a.Handle(ctx, c, nil, "we want a friend")
	require.NoError(t, err)
	assert.False(t, reply.PatchApplied)
	assert.Contains(t, reply.Error, patch.ErrPathNotAllowed.Error())
	assert.Empty(t, c.State().Model.WhyAdopt)
}

func TestModelFailureFallsBackToLocal(t *testing.T) {
	ctx := context.Background()
	fm := &fakeModel{err: errors.New("rate limited")}
	a, err := NewWithModel(fm, "")
	require.NoError(t, err)
	c := controller(t, formtest.Complete(), types.Succeeded())

	reply, err := a.Handle(ctx, c, nil, "next")
	require.NoError(t, err)
	assert.Equal(t, CommandNext, reply.Command)
	assert.Equal(t, types.StepPreferences, reply.Step)
	assert.True(t, strings.HasPrefix(reply.Message, "Step 2 of 4"))

	reply, err = a.Handle(ctx, c, nil, "pickup location: boulder")
	require.NoError(t, err)
	assert.True(t, reply.PatchApplied)
	assert.Equal(t, "boulder", c.State().Model.PickupLocation)
}

func TestTranscript(t *testing.T) {
	tr := NewTranscript(3)
	tr.Append(schema.SystemMessage("sys"))
	tr.Append(schema.UserMessage("a"), schema.UserMessage("a"), nil)
	tr.Append(schema.AssistantMessage("q1", nil), schema.UserMessage("b"), schema.AssistantMessage("q2", nil))

	msgs := tr.Messages()
	require.Len(t, msgs, 4)
	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Equal(t, "q1", msgs[1].Content)
	assert.Equal(t, "q2", tr.LastQuestion())

	tr.Clear()
	assert.Empty(t, tr.Messages())
	assert.Empty(t, tr.LastQuestion())

	var nilTr *Transcript
	nilTr.Append(schema.UserMessage("x"))
	assert.Nil(t, nilTr.Messages())
}

func TestAgent(t *testing.T) {
	ctx := context.Background()
	c := controller(t, formtest.Complete(), types.Succeeded())
	agent := NewAgent("IntakeAssistant", "Fills the adoption application", New(), c, NewTranscript(0))
	assert.Equal(t, "IntakeAssistant", agent.Name(ctx))

	iter := agent.Run(ctx, &adk.AgentInput{Messages: []adk.Message{schema.UserMessage("next")}})
	var got []*adk.AgentEvent
	for {
		event, ok := iter.Next()
		if !ok {
			break
		}
		got = append(got, event)
	}
	require.Len(t, got, 1)
	require.NoError(t, got[0].Err)
	assert.True(t, strings.HasPrefix(got[0].Output.MessageOutput.Message.Content, "Step 2 of 4"))

	iter = agent.Run(ctx, &adk.AgentInput{})
	event, ok := iter.Next()
	require.True(t, ok)
	assert.Error(t, event.Err)
}

func TestGreeting(t *testing.T) {
	c := controller(t, form.Defaults(), types.Succeeded())
	history := NewTranscript(0)
	text := New().Greeting(c, history)
	assert.Contains(t, text, "Step 1 of 4: Identity.")
	assert.Equal(t, text, history.LastQuestion())
}
