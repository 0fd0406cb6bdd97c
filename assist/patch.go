package assist

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/tbxark/formwizard/form"
	"github.com/tbxark/formwizard/patch"
	"github.com/tbxark/formwizard/structured"
	"github.com/tbxark/formwizard/types"
)

// LocalPatchGenerator reads answers written as "field: value" pairs separated
// by newlines or semicolons. Fields are matched by key or label, ignoring
// case, and only fields of the current step are accepted.
type LocalPatchGenerator struct{}

func NewLocalPatchGenerator() *LocalPatchGenerator {
	return &LocalPatchGenerator{}
}

func (g *LocalPatchGenerator) GeneratePatch(ctx context.Context, turn *Turn) ([]patch.Operation, error) {
	fields := map[string]form.Info{}
	for _, info := range form.All() {
		if info.Step != turn.Step {
			continue
		}
		fields[strings.ToLower(info.Key)] = info
		fields[strings.ToLower(info.Label)] = info
	}

	ops := make([]patch.Operation, 0)
	pieces := strings.FieldsFunc(turn.Input, func(r rune) bool { return r == '\n' || r == ';' })
	for _, piece := range pieces {
		name, raw, ok := cutAssignment(piece)
		if !ok {
			continue
		}
		info, ok := fields[strings.ToLower(name)]
		if !ok {
			continue
		}
		value, ok := parseLocalValue(info, raw)
		if !ok {
			continue
		}
		ops = append(ops, patch.Replace(info.Pointer(), value))
	}
	return ops, nil
}

func cutAssignment(s string) (string, string, bool) {
	i := strings.IndexAny(s, ":=")
	if i <= 0 {
		return "", "", false
	}
	return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:]), true
}

func parseLocalValue(info form.Info, raw string) (any, bool) {
	switch info.Kind {
	case form.KindBool:
		switch strings.ToLower(raw) {
		case "yes", "y", "true", "1", "agree", "i agree":
			return true, true
		case "no", "n", "false", "0":
			return false, true
		}
		return nil, false
	case form.KindInt:
		return form.CoerceCount(raw), true
	case form.KindEnum:
		return strings.ToLower(raw), true
	case form.KindStringList:
		list := make([]any, 0)
		for _, item := range splitList(raw) {
			list = append(list, strings.ToLower(item))
		}
		return list, true
	case form.KindBreedList:
		breeds := splitList(raw)
		slots := max(len(breeds), 3)
		list := make([]any, 0, slots)
		for i := 0; i < slots; i++ {
			breed := ""
			if i < len(breeds) {
				breed = breeds[i]
			}
			list = append(list, map[string]any{"priority": i + 1, "breed": breed})
		}
		return list, true
	default:
		return raw, true
	}
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// FallbackPatchGenerator returns the first non-empty result, so a model that
// found nothing still lets the local syntax through.
type FallbackPatchGenerator struct {
	generators []PatchGenerator
}

func NewFallbackPatchGenerator(generators ...PatchGenerator) *FallbackPatchGenerator {
	return &FallbackPatchGenerator{generators: generators}
}

func (g *FallbackPatchGenerator) GeneratePatch(ctx context.Context, turn *Turn) ([]patch.Operation, error) {
	var lastErr error
	for _, generator := range g.generators {
		ops, err := generator.GeneratePatch(ctx, turn)
		if err != nil {
			lastErr = err
			continue
		}
		if len(ops) > 0 {
			return ops, nil
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("all patch generators failed: %w", lastErr)
	}
	return []patch.Operation{}, nil
}

const (
	updateFieldsToolName        = "update_application"
	updateFieldsToolDescription = "Generate RFC6902 JSON Patch operations that record the answers the applicant gave for the current step. Only include information the applicant stated explicitly."
)

// ToolPatchGenerator asks a chat model for patch operations and rejects any
// operation outside the current step.
type ToolPatchGenerator struct {
	chain  *structured.Chain[*Turn, patch.Document]
	schema string
}

func NewToolPatchGenerator(chatModel model.ToolCallingChatModel) (*ToolPatchGenerator, error) {
	schemaJSON, err := form.JSONSchema()
	if err != nil {
		return nil, err
	}
	g := &ToolPatchGenerator{schema: schemaJSON}
	chain, err := structured.NewChain[*Turn, patch.Document](
		chatModel,
		g.buildPrompt,
		updateFieldsToolName,
		updateFieldsToolDescription,
	)
	if err != nil {
		return nil, err
	}
	g.chain = chain
	return g, nil
}

func (g *ToolPatchGenerator) GeneratePatch(ctx context.Context, turn *Turn) ([]patch.Operation, error) {
	doc, err := g.chain.Invoke(ctx, turn)
	if err != nil {
		return nil, err
	}
	allowed := patch.AllowList(form.StepPointers(turn.Step))
	if err := patch.ValidateOperations(doc.Ops, allowed); err != nil {
		return nil, fmt.Errorf("generated patches failed validation: %w", err)
	}
	if doc.Ops == nil {
		return []patch.Operation{}, nil
	}
	return doc.Ops, nil
}

func (g *ToolPatchGenerator) buildPrompt(ctx context.Context, turn *Turn) ([]*schema.Message, error) {
	pc := turn.PromptContext()
	pc.StateSchema = g.schema

	systemPrompt := fmt.Sprintf(`You record answers for step %d (%s) of a puppy adoption application.

Rules:
- Only extract information the applicant stated explicitly; never guess.
- Use "replace" for fields, "add" with a trailing "/-" to append to a list.
- Only use paths from the editable paths list.
- Booleans are true or false, counts are whole numbers.
- If the message holds no answers, call the tool with an empty ops array.

Call the '%s' tool with the operations.`, int(turn.Step), turn.Step.Title(), updateFieldsToolName)

	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(types.FormatPromptContext(pc)),
	}, nil
}
