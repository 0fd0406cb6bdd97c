package validate

import (
	"github.com/tbxark/formwizard/form"
	"github.com/tbxark/formwizard/types"
)

// Step evaluates the rules of step against a. An unknown step is reported
// as invalid.
func Step(a form.Application, step types.Step) types.ValidationResult {
	res := types.ValidationResult{Step: step, Errors: []string{}}
	if !step.Valid() {
		res.Errors = append(res.Errors, "Unknown step")
		return res
	}
	for _, rule := range Rules(step) {
		if rule.Check(&a) {
			continue
		}
		res.Errors = append(res.Errors, rule.Message)
		res.Issues = append(res.Issues, types.FieldInfo{
			JSONPointer: rule.Pointer,
			DisplayName: rule.Label,
			Description: rule.Message,
			Required:    true,
		})
	}
	res.Valid = len(res.Errors) == 0
	return res
}

// All evaluates every step in order.
func All(a form.Application) []types.ValidationResult {
	results := make([]types.ValidationResult, 0, len(types.Steps()))
	for _, step := range types.Steps() {
		results = append(results, Step(a, step))
	}
	return results
}

// FirstInvalid returns the first step before upTo whose rules fail.
func FirstInvalid(a form.Application, upTo types.Step) (types.Step, bool) {
	for step := types.FirstStep; step < upTo && step <= types.LastStep; step++ {
		if !Step(a, step).Valid {
			return step, true
		}
	}
	return 0, false
}
