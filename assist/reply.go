package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tbxark/formwizard/types"
	"github.com/tbxark/formwizard/wizard"
)

// LocalReplier phrases replies from fixed English templates.
type LocalReplier struct{}

func NewLocalReplier() *LocalReplier {
	return &LocalReplier{}
}

func (r *LocalReplier) Reply(ctx context.Context, req *ReplyRequest) (string, error) {
	return describe(req), nil
}

// describe states the outcome of a message in plain sentences. Model based
// repliers rephrase the same text.
func describe(req *ReplyRequest) string {
	var lines []string
	if req.Err != nil {
		lines = append(lines, describeError(req.Err))
	}

	switch req.Command {
	case CommandSubmit:
		if req.Err == nil && req.Outcome != nil {
			if req.Outcome.Success {
				return `Your application has been submitted. Thank you! Say "reset" to start a new one.`
			}
			lines = append(lines, fmt.Sprintf(`Submission failed: %s. Your answers are kept; say "submit" to try again.`, req.Outcome.Error))
		}
	case CommandNext:
		if req.Blocked != nil {
			lines = append(lines, fmt.Sprintf("%s is not complete yet:", req.Blocked.Step.Title()))
			for _, msg := range req.Blocked.Errors {
				lines = append(lines, "- "+msg)
			}
			return strings.Join(lines, "\n")
		}
	case CommandReset:
		if req.Err == nil {
			lines = append(lines, "Starting over with an empty application.")
		}
	case CommandEdit:
		if req.Err == nil {
			if req.PatchApplied {
				lines = append(lines, "Got it.")
			} else {
				lines = append(lines, `I could not find any answers for this step in that. Write them as "field: value", for example "city: Denver".`)
			}
		}
	}

	if req.State.Submitted {
		lines = append(lines, `Your application has already been submitted. Say "reset" to start a new one.`)
		return strings.Join(lines, "\n")
	}
	lines = append(lines, stepStatus(req.State.Step, req.Validation))
	return strings.Join(lines, "\n")
}

func describeError(err error) string {
	switch {
	case errors.Is(err, wizard.ErrFirstStep):
		return "You are already on the first step."
	case errors.Is(err, wizard.ErrLastStep):
		return `This is the last step. Say "submit" to send your application.`
	case errors.Is(err, wizard.ErrSubmitted):
		return "The application was already submitted."
	case errors.Is(err, wizard.ErrSubmitInProgress):
		return "Your application is being submitted, please wait."
	case errors.Is(err, wizard.ErrIncomplete):
		return "Some steps are not complete yet, so the application cannot be sent."
	case errors.Is(err, wizard.ErrNotLastStep):
		return `Everything is filled in. Say "next" until you reach the last step, then "submit".`
	case errors.Is(err, wizard.ErrStepLocked):
		return "That step cannot be opened until the earlier steps are complete."
	}
	switch wizard.Kind(err) {
	case "field_type", "path_not_allowed", "unknown_field":
		return fmt.Sprintf("Sorry, I could not use that answer: %s.", err)
	}
	return fmt.Sprintf("Sorry, something went wrong: %s.", err)
}

func stepStatus(step types.Step, res types.ValidationResult) string {
	header := fmt.Sprintf("Step %d of %d: %s.", int(step), int(types.LastStep), step.Title())
	if res.Valid {
		if step == types.LastStep {
			return header + ` Everything looks good. Say "submit" to send your application.`
		}
		return header + ` This step is complete. Say "next" to continue.`
	}
	lines := []string{header + " Still needed:"}
	for _, msg := range res.Errors {
		lines = append(lines, "- "+msg)
	}
	return strings.Join(lines, "\n")
}

// FallbackReplier returns the reply of the first replier that does not fail.
type FallbackReplier struct {
	repliers []Replier
}

func NewFallbackReplier(repliers ...Replier) *FallbackReplier {
	return &FallbackReplier{repliers: repliers}
}

func (r *FallbackReplier) Reply(ctx context.Context, req *ReplyRequest) (string, error) {
	var lastErr error
	for _, replier := range r.repliers {
		text, err := replier.Reply(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("all repliers failed: %w", lastErr)
}
