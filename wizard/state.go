package wizard

import (
	"github.com/tbxark/formwizard/form"
	"github.com/tbxark/formwizard/types"
)

// State is a snapshot of the controller. Model is a deep copy; changing it
// does not affect the controller.
type State struct {
	Model      form.Application `json:"model"`
	Step       types.Step       `json:"step"`
	Reached    types.Step       `json:"reachedStep"`
	Phase      types.Phase      `json:"phase"`
	Submitting bool             `json:"submitting"`
	Submitted  bool             `json:"submitted"`
	LastError  string           `json:"lastError,omitempty"`
}

// StepChange is delivered to subscribers after the active step changes.
type StepChange struct {
	From   types.Step `json:"from"`
	To     types.Step `json:"to"`
	Reason string     `json:"reason"`
}

const (
	ReasonNext     = "next"
	ReasonPrevious = "previous"
	ReasonJump     = "jump"
	ReasonReset    = "reset"
)
