package types

import "fmt"

type Phase string

const (
	PhaseEditing    Phase = "editing"
	PhaseSubmitting Phase = "submitting"
	PhaseSubmitted  Phase = "submitted"
)

// Step is one ordinal section of the application. Steps are totally ordered
// and gate forward progress on their own validity.
type Step int

const (
	StepIdentity Step = iota + 1
	StepPreferences
	StepHousehold
	StepAgreements
)

const (
	FirstStep = StepIdentity
	LastStep  = StepAgreements
)

func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

func (s Step) Title() string {
	switch s {
	case StepIdentity:
		return "Identity"
	case StepPreferences:
		return "Preferences"
	case StepHousehold:
		return "Household"
	case StepAgreements:
		return "Agreements"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

func (s Step) String() string {
	return fmt.Sprintf("%d/%d %s", int(s), int(LastStep), s.Title())
}

// Steps returns every step in order.
func Steps() []Step {
	return []Step{StepIdentity, StepPreferences, StepHousehold, StepAgreements}
}

type FieldInfo struct {
	JSONPointer string `json:"json_pointer"`
	DisplayName string `json:"display_name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required"`
}

// ValidationResult is recomputed from the current application on every call
// and is never cached.
type ValidationResult struct {
	Step   Step        `json:"step"`
	Valid  bool        `json:"valid"`
	Errors []string    `json:"errors"`
	Issues []FieldInfo `json:"issues,omitempty"`
}

type SubmissionOutcome struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

func Succeeded() SubmissionOutcome {
	return SubmissionOutcome{Success: true}
}

func Failed(format string, args ...any) SubmissionOutcome {
	return SubmissionOutcome{Success: false, Error: fmt.Sprintf(format, args...)}
}
