// Package gateway sends a completed application to the backend that
// processes it.
package gateway

import (
	"context"

	"github.com/tbxark/formwizard/form"
	"github.com/tbxark/formwizard/types"
)

// Gateway performs exactly one submission attempt per call. Every failure,
// whether transport or rejection, is reported through the outcome.
type Gateway interface {
	Submit(ctx context.Context, app form.Application) types.SubmissionOutcome
}

// Func adapts a function to Gateway.
type Func func(ctx context.Context, app form.Application) types.SubmissionOutcome

func (f Func) Submit(ctx context.Context, app form.Application) types.SubmissionOutcome {
	return f(ctx, app)
}

// Reply is the body a backend answers with. Message and Error are both
// accepted as the failure text.
type Reply struct {
	Success *bool  `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (r Reply) text() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Error
}
